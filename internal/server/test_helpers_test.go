package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quiz-live/internal/auth"
	"quiz-live/internal/config"
	"quiz-live/internal/game"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

type fixedSource struct {
	questions []game.Question
}

func (s fixedSource) Fetch(ctx context.Context, topic, difficulty string, count int) ([]game.Question, error) {
	return append([]game.Question(nil), s.questions...), nil
}

// testQuestions all have option 2 as the correct answer.
func testQuestions(n int) []game.Question {
	out := make([]game.Question, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, game.Question{
			ID:                 fmt.Sprintf("q%d", i),
			Prompt:             fmt.Sprintf("Question %d?", i),
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: 2,
		})
	}
	return out
}

type testApp struct {
	srv   *Server
	coord *game.Coordinator
	ts    *httptest.Server
}

func newTestApp(t *testing.T, cfg config.Config, questionCount int, answers ...AnswerLister) *testApp {
	t.Helper()
	issuer, err := auth.NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	hub := NewHub()
	coord := game.NewCoordinator(game.NewStore(), fixedSource{questions: testQuestions(questionCount)}, nil, hub, game.Options{
		RevealDelay:          10 * time.Millisecond,
		DefaultQuestionCount: 2,
	})
	srv := New(coord, hub, issuer, cfg)
	if len(answers) > 0 {
		srv.WithAnswers(answers[0])
	}
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return &testApp{srv: srv, coord: coord, ts: ts}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.RateLimitPerSecond = 0
	return cfg
}

func doRequest(t *testing.T, ts *httptest.Server, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func guestToken(t *testing.T, ts *httptest.Server, name string) (string, string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/auth/guest", "", map[string]string{"display_name": name})
	expectStatus(t, resp, http.StatusOK)
	body := decodeBody(t, resp)
	return body["token"].(string), body["player_id"].(string)
}

func createGame(t *testing.T, ts *httptest.Server, token string, public bool) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games", token, map[string]bool{"is_public": public})
	expectStatus(t, resp, http.StatusCreated)
	body := decodeBody(t, resp)
	return body["code"].(string)
}

func joinGame(t *testing.T, ts *httptest.Server, token, code string) {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+code+"/join", token, nil)
	expectStatus(t, resp, http.StatusOK)
}

func dialGame(t *testing.T, ts *httptest.Server, code, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/games/" + code + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return conn
}

type wsEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func readEvent(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	var event wsEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("decode websocket message: %v", err)
	}
	return event
}

// waitForEvent skips events until one of the wanted type arrives.
func waitForEvent(t *testing.T, conn *websocket.Conn, want string) wsEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		event := readEvent(t, conn, time.Until(deadline))
		if event.Type == want {
			return event
		}
	}
	t.Fatalf("timed out waiting for %s", want)
	return wsEvent{}
}

func sendAnswer(t *testing.T, conn *websocket.Conn, selected *int) {
	t.Helper()
	msg := map[string]any{
		"type": "submitAnswer",
		"data": map[string]any{"selected_option_index": selected},
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write websocket message: %v", err)
	}
}

func intPtr(v int) *int {
	return &v
}
