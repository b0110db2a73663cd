package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"quiz-live/internal/game"
	"quiz-live/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	code     string
	playerID string
	conn     *websocket.Conn
	send     chan []byte
}

// enqueue never blocks. A client that cannot keep up is disconnected so it
// reconnects and resynchronises from a fresh snapshot.
func (c *client) enqueue(data []byte) {
	select {
	case c.send <- data:
	default:
		metrics.WSEventsDropped.Inc()
		log.Warn().Str("code", c.code).Str("player_id", c.playerID).Msg("ws send buffer full, disconnecting")
		_ = c.conn.Close()
	}
}

// Hub fans coordinator events out to the websocket clients of each game.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{groups: make(map[string]map[*client]struct{})}
}

func (h *Hub) Broadcast(code string, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("code", code).Str("type", string(event.Type)).Msg("ws marshal failed")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[code] {
		c.enqueue(data)
	}
}

func (h *Hub) Notify(code, playerID string, event game.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("code", code).Str("type", string(event.Type)).Msg("ws marshal failed")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.groups[code] {
		if c.playerID == playerID {
			c.enqueue(data)
		}
	}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[c.code]
	if group == nil {
		group = make(map[*client]struct{})
		h.groups[c.code] = group
	}
	group[c] = struct{}{}
	metrics.WSConnections.Inc()
}

// remove is called once per client, from its read loop.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	group := h.groups[c.code]
	if _, ok := group[c]; ok {
		delete(group, c)
		if len(group) == 0 {
			delete(h.groups, c.code)
		}
		close(c.send)
		metrics.WSConnections.Dec()
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Len reports the number of connected clients across all games.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, group := range h.groups {
		n += len(group)
	}
	return n
}

// Close drops every connection. Read loops notice and unregister.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, group := range h.groups {
		for c := range group {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			_ = c.conn.Close()
		}
	}
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type submitAnswerData struct {
	SelectedOptionIndex *int `json:"selected_option_index"`
}

func (s *Server) handleWebsocket(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	identity, ok := s.authenticate(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	if _, exists := s.coord.Session(uri.Code); !exists {
		writeGameError(c, game.ErrNotFound)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &client{
		code:     uri.Code,
		playerID: identity.PlayerID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
	// Registration and the snapshot happen under the session lock, so the
	// client sees the state and then every event after it, in order.
	err = s.coord.Observe(uri.Code, func(session game.GameSession) {
		data, err := json.Marshal(game.Event{Type: game.EventSessionState, Data: session.View()})
		if err != nil {
			return
		}
		cl.send <- data
		s.hub.add(cl)
	})
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	log.Info().Str("code", uri.Code).Str("player_id", identity.PlayerID).Str("remote", c.ClientIP()).Msg("ws connected")
	go s.writeWS(cl)
	go s.readWS(cl)
}

func (s *Server) writeWS(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case data, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readWS(cl *client) {
	defer s.hub.remove(cl)
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := cl.conn.ReadMessage()
		if err != nil {
			log.Info().Str("code", cl.code).Str("player_id", cl.playerID).Err(err).Msg("ws disconnected")
			return
		}
		s.handleInbound(cl, data)
	}
}

func (s *Server) handleInbound(cl *client, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.notice(cl, "malformed message")
		return
	}
	switch msg.Type {
	case "submitAnswer":
		var payload submitAnswerData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				s.notice(cl, "malformed answer")
				return
			}
		}
		err := s.coord.SubmitAnswer(cl.code, cl.playerID, payload.SelectedOptionIndex)
		// The coordinator already notified the player for a closed question.
		if err != nil && !errors.Is(err, game.ErrNoCurrentQuestion) {
			s.notice(cl, err.Error())
		}
	default:
		s.notice(cl, "unknown message type")
	}
}

// notice goes to this connection only. It runs on the read loop, which is
// the only place the send channel is closed, so the send is safe.
func (s *Server) notice(cl *client, message string) {
	data, err := json.Marshal(game.Event{
		Type: game.EventNotice,
		Data: game.NoticePayload{Code: cl.code, Message: message},
	})
	if err != nil {
		return
	}
	cl.enqueue(data)
}
