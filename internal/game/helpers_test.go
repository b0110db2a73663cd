package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type staticSource struct {
	questions []Question
	err       error
	calls     int
}

func (s *staticSource) Fetch(ctx context.Context, topic, difficulty string, count int) ([]Question, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]Question(nil), s.questions...), nil
}

func makeQuestions(n int) []Question {
	questions := make([]Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, Question{
			ID:                 fmt.Sprintf("q%d", i),
			Prompt:             fmt.Sprintf("Question %d?", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: 2,
			Explanation:        "because",
			Topic:              "general",
			Difficulty:         "easy",
		})
	}
	return questions
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	events   []Event
	notified map[string][]Event
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{notified: make(map[string][]Event)}
}

func (b *recordingBroadcaster) Broadcast(code string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) Notify(code, playerID string, event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notified[playerID] = append(b.notified[playerID], event)
}

func (b *recordingBroadcaster) ofType(eventType EventType) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, 0)
	for _, event := range b.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (b *recordingBroadcaster) types() []EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]EventType, 0, len(b.events))
	for _, event := range b.events {
		out = append(out, event.Type)
	}
	return out
}

// fakeStore is an in-memory DurableStore that can be told to fail.
type fakeStore struct {
	mu       sync.Mutex
	fail     bool
	sessions map[string]GameSession
	answers  []AnswerRecord
	ops      []string
	calls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]GameSession)}
}

var errFakeStore = errors.New("fake store down")

func (f *fakeStore) Put(ctx context.Context, code string, snapshot GameSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errFakeStore
	}
	f.ops = append(f.ops, "put")
	f.sessions[code] = snapshot
	return nil
}

func (f *fakeStore) Update(ctx context.Context, code string, fields map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errFakeStore
	}
	session, ok := f.sessions[code]
	if !ok {
		return errors.New("missing session")
	}
	session.Apply(fields)
	f.sessions[code] = session
	if status, ok := fields[FieldStatus]; ok {
		f.ops = append(f.ops, "status:"+string(status.(Status)))
	} else {
		f.ops = append(f.ops, "update")
	}
	return nil
}

func (f *fakeStore) Get(ctx context.Context, code string) (GameSession, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return GameSession{}, false, errFakeStore
	}
	session, ok := f.sessions[code]
	return session, ok, nil
}

func (f *fakeStore) SaveAnswer(ctx context.Context, record AnswerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return errFakeStore
	}
	f.ops = append(f.ops, "answer")
	f.answers = append(f.answers, record)
	return nil
}

func (f *fakeStore) snapshot(code string) (GameSession, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[code]
	return session, ok
}

func (f *fakeStore) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func startSynchronizer(t *testing.T, sync *Synchronizer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sync.Serve(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func flush(t *testing.T, sync *Synchronizer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sync.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func intPtr(v int) *int {
	return &v
}

func fixedCode(codes ...string) func() (string, error) {
	var mu sync.Mutex
	i := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}
