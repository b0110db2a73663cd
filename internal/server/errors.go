package server

import (
	"errors"
	"net/http"

	"quiz-live/internal/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrAlreadyStarted), errors.Is(err, game.ErrNoCurrentQuestion):
		return http.StatusConflict
	case errors.Is(err, game.ErrInsufficientQuestions):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrInvalidOption), errors.Is(err, game.ErrInvalidCount):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrNotHost), errors.Is(err, game.ErrUnknownPlayer):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeGameError(c *gin.Context, err error) {
	status := statusForError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message})
}
