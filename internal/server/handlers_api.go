package server

import (
	"net/http"
	"strings"

	"quiz-live/internal/game"
	"quiz-live/internal/questions"
	"quiz-live/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type gameURI struct {
	Code string `uri:"code" binding:"required,gamecode"`
}

func (s *Server) handleGuest(c *gin.Context) {
	var req struct {
		DisplayName string `json:"display_name" binding:"required,name"`
	}
	if !bindJSON(c, &req, bindMessages{
		"DisplayName": {
			"required": "display name is required",
			"name":     "display name must be 1-20 plain characters",
		},
	}, "") {
		return
	}
	name, _ := validateName(req.DisplayName)
	token, identity, err := s.issuer.IssueGuest(name)
	if err != nil {
		writeGameError(c, err)
		return
	}
	log.Info().Str("player_id", identity.PlayerID).Msg("guest token issued")
	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"player_id":    identity.PlayerID,
		"display_name": identity.DisplayName,
	})
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req struct {
		IsPublic bool `json:"is_public"`
	}
	if !bindOptionalJSON(c, &req, nil, "invalid request") {
		return
	}
	identity := identityFrom(c)
	session, err := s.coord.CreateSession(identity.PlayerID, identity.DisplayName, req.IsPublic)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"code":    session.Code,
		"session": session.View(),
	})
}

func (s *Server) handleJoinGame(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	identity := identityFrom(c)
	players, err := s.coord.JoinSession(uri.Code, identity.PlayerID, identity.DisplayName)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}

func (s *Server) handleStartGame(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	var req struct {
		Topic      string `json:"topic" binding:"omitempty,topic"`
		Difficulty string `json:"difficulty" binding:"omitempty,difficulty"`
		Count      int    `json:"count" binding:"omitempty,min=1"`
	}
	if !bindOptionalJSON(c, &req, bindMessages{
		"Topic":      {"topic": "topic contains unsupported characters"},
		"Difficulty": {"difficulty": "difficulty must be easy, medium or hard"},
		"Count":      {"min": "count must be positive"},
	}, "invalid request") {
		return
	}
	topic, _ := validateTopic(req.Topic)
	difficulty := strings.ToLower(normalizeText(req.Difficulty))
	count, err := s.coord.StartSession(c.Request.Context(), uri.Code, identityFrom(c).PlayerID, topic, difficulty, req.Count)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions_count": count})
}

func (s *Server) handleSubmitAnswer(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	var req struct {
		SelectedOptionIndex *int `json:"selected_option_index"`
	}
	if !bindJSON(c, &req, nil, "invalid answer") {
		return
	}
	if err := s.coord.SubmitAnswer(uri.Code, identityFrom(c).PlayerID, req.SelectedOptionIndex); err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}

func (s *Server) handleListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": s.summaries()})
}

func (s *Server) handleGetGame(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	session, ok := s.coord.Lookup(c.Request.Context(), uri.Code)
	if !ok {
		writeGameError(c, game.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// handleListAnswers exposes the answer audit trail once a game is over.
func (s *Server) handleListAnswers(c *gin.Context) {
	var uri gameURI
	if !bindURI(c, &uri) {
		return
	}
	if s.answers == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "answer archive disabled"})
		return
	}
	session, ok := s.coord.Lookup(c.Request.Context(), uri.Code)
	if !ok {
		writeGameError(c, game.ErrNotFound)
		return
	}
	if session.Status != game.StatusFinished {
		c.JSON(http.StatusConflict, gin.H{"error": "game not finished"})
		return
	}
	records, err := s.answers.ListAnswers(c.Request.Context(), uri.Code)
	if err != nil {
		writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": uri.Code, "answers": records})
}

func (s *Server) handleTopics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": questions.Topics()})
}

func (s *Server) handleDifficultyLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": questions.DifficultyLevels()})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"sessions":    s.coord.Store().Len(),
		"connections": s.hub.Len(),
	})
}

func (s *Server) handleHome(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := web.Home(s.summaries()).Render(c.Request.Context(), c.Writer); err != nil {
		log.Error().Err(err).Msg("render home")
	}
}

func (s *Server) summaries() []web.GameSummary {
	sessions := s.coord.ListPublicWaiting()
	out := make([]web.GameSummary, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, summarize(session))
	}
	return out
}

func summarize(session game.GameSession) web.GameSummary {
	summary := web.GameSummary{
		Code:      session.Code,
		Players:   len(session.Players),
		CreatedAt: session.CreatedAt,
	}
	for _, player := range session.Players {
		if player.ID == session.HostID {
			summary.HostName = player.DisplayName
			break
		}
	}
	return summary
}
