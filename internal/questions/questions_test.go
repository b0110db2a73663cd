package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quiz-live/internal/game"

	"github.com/openai/openai-go/option"
)

func TestStaticCatalogueIsValid(t *testing.T) {
	source := NewStatic(nil)
	all, err := source.Fetch(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("expected 10 built-in questions, got %d", len(all))
	}
	for _, q := range all {
		if !q.Valid() {
			t.Fatalf("invalid built-in question %#v", q)
		}
	}
}

func TestStaticFiltersByTopic(t *testing.T) {
	source := NewStatic(nil)
	geo, _ := source.Fetch(context.Background(), "geography", "hard", 10)
	if len(geo) != 3 {
		t.Fatalf("expected 3 geography questions, got %d", len(geo))
	}
	for _, q := range geo {
		if q.Topic != "Geography" {
			t.Fatalf("unexpected topic %q", q.Topic)
		}
	}
	limited, _ := source.Fetch(context.Background(), "", "", 4)
	if len(limited) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(limited))
	}
}

func TestStaticSkipsDuplicatePromptsBeforeLimit(t *testing.T) {
	catalogue := []game.Question{}
	for i := 0; i < 5; i++ {
		catalogue = append(catalogue, game.Question{
			Prompt:             "What is 2+2?",
			Options:            []string{"1", "2", "3", "4"},
			CorrectOptionIndex: 3,
		})
	}
	for i := 0; i < 3; i++ {
		catalogue = append(catalogue, game.Question{
			Prompt:             fmt.Sprintf("Unique %d?", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: 0,
		})
	}
	source := NewStatic(catalogue)

	for attempt := 0; attempt < 20; attempt++ {
		got, err := source.Fetch(context.Background(), "", "", 4)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if len(got) != 4 {
			t.Fatalf("expected 4 unique questions, got %d", len(got))
		}
		seen := map[string]bool{}
		for _, q := range got {
			if seen[q.Prompt] {
				t.Fatalf("duplicate prompt %q in batch", q.Prompt)
			}
			seen[q.Prompt] = true
		}
	}

	coord := game.NewCoordinator(game.NewStore(), source, nil, nil, game.Options{})
	session, _ := coord.CreateSession("host", "Ada", false)
	n, err := coord.StartSession(context.Background(), session.Code, "host", "", "", 4)
	if err != nil || n != 4 {
		t.Fatalf("expected start with 4 questions, got n=%d err=%v", n, err)
	}
}

func TestStaticShortSupplyLeavesGameWaiting(t *testing.T) {
	coord := game.NewCoordinator(game.NewStore(), NewStatic(nil), nil, nil, game.Options{})
	session, _ := coord.CreateSession("host", "Ada", false)
	_, err := coord.StartSession(context.Background(), session.Code, "host", "Art", "", 10)
	if !errors.Is(err, game.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
	got, _ := coord.Session(session.Code)
	if got.Status != game.StatusWaiting {
		t.Fatalf("expected waiting, got %s", got.Status)
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "plain", in: `{"questions":[]}`, want: `{"questions":[]}`, ok: true},
		{name: "fenced", in: "```json\n{\"questions\":[]}\n```", want: `{"questions":[]}`, ok: true},
		{name: "bare fence", in: "```\n{\"a\":1}\n```", want: `{"a":1}`, ok: true},
		{name: "chatter", in: "Sure! Here you go: {\"a\":1} Enjoy.", want: `{"a":1}`, ok: true},
		{name: "empty", in: "   ", ok: false},
		{name: "no object", in: "no json here", ok: false},
	}
	for _, tc := range cases {
		got, ok := extractJSON(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got %q,%v want %q,%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseGeneratedDropsDuplicatesAndInvalid(t *testing.T) {
	content := "```json\n" + generatedPayload(
		`{"text":"What is 2+2?","options":["1","2","3","4"],"correctAnswerIndex":3}`,
		`{"text":"  what is 2+2? ","options":["4","3","2","1"],"correctAnswerIndex":0}`,
		`{"text":"Too few options","options":["a","b"],"correctAnswerIndex":0}`,
		`{"text":"Bad index","options":["a","b","c","d"],"correctAnswerIndex":9}`,
		`{"text":"Largest ocean?","options":["Atlantic","Indian","Arctic","Pacific"],"correctAnswerIndex":3,"explanation":"Pacific"}`,
	) + "\n```"
	got, err := parseGenerated(content, "Geography", "easy")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 usable questions, got %d", len(got))
	}
	if got[1].Explanation != "Pacific" || got[1].Topic != "Geography" || got[1].Difficulty != "easy" {
		t.Fatalf("unexpected question %#v", got[1])
	}
}

func TestGeneratorFetch(t *testing.T) {
	var gotPrompt string
	ts := newChatServer(t, func(prompt string) string {
		gotPrompt = prompt
		return generatedPayload(
			`{"text":"Q1?","options":["a","b","c","d"],"correctAnswerIndex":0}`,
			`{"text":"Q2?","options":["a","b","c","d"],"correctAnswerIndex":1}`,
			`{"text":"Q3?","options":["a","b","c","d"],"correctAnswerIndex":2}`,
		)
	})
	gen, err := NewGenerator(GeneratorConfig{APIKey: "test", BaseURL: ts.URL + "/", Model: "test-model"}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	got, err := gen.Fetch(context.Background(), "Science", "hard", 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 || got[0].Prompt != "Q1?" || got[1].CorrectOptionIndex != 1 {
		t.Fatalf("unexpected questions %#v", got)
	}
	if !strings.Contains(gotPrompt, "Science") || !strings.Contains(gotPrompt, "hard") {
		t.Fatalf("prompt missing topic or difficulty: %q", gotPrompt)
	}

	if _, err := gen.Fetch(context.Background(), "Science", "hard", 5); !errors.Is(err, game.ErrInsufficientQuestions) {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	if _, err := NewGenerator(GeneratorConfig{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}

func TestValidDifficulty(t *testing.T) {
	for _, value := range []string{"", "easy", "medium", "hard"} {
		if !ValidDifficulty(value) {
			t.Fatalf("expected %q valid", value)
		}
	}
	if ValidDifficulty("extreme") {
		t.Fatalf("expected extreme invalid")
	}
}

func generatedPayload(items ...string) string {
	return `{"questions":[` + strings.Join(items, ",") + `]}`
}

func newChatServer(t *testing.T, reply func(prompt string) string) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config: &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			prompt := ""
			if len(req.Messages) > 0 {
				prompt = req.Messages[len(req.Messages)-1].Content
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = fmt.Fprintf(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"test-model","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%q}}]}`, reply(prompt))
		})},
	}
	ts.Start()
	t.Cleanup(ts.Close)
	return ts
}
