package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"quiz-live/internal/game"
	"quiz-live/internal/questions"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxNameLength  = 20
	maxTopicLength = 40
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("name", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("topic", func(fl validator.FieldLevel) bool {
			_, err := validateTopic(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
			return questions.ValidDifficulty(strings.ToLower(strings.TrimSpace(fl.Field().String())))
		})
		_ = engine.RegisterValidation("gamecode", func(fl validator.FieldLevel) bool {
			return game.ValidCode(fl.Field().String())
		})
	})
}

func validateName(name string) (string, error) {
	return validateText("name", name, maxNameLength)
}

// validateTopic allows an empty topic, meaning any topic.
func validateTopic(text string) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", nil
	}
	if len(trimmed) > maxTopicLength {
		return "", fmt.Errorf("topic must be %d characters or fewer", maxTopicLength)
	}
	if !isSafeText(trimmed) {
		return "", errors.New("topic contains unsupported characters")
	}
	return trimmed, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	if len(trimmed) > maxLen {
		return "", fmt.Errorf("%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", fmt.Errorf("%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if r > 127 {
			return false
		}
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/':
			continue
		default:
			return false
		}
	}
	return true
}
