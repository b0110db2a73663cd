package game

import "errors"

var (
	ErrNotFound              = errors.New("game not found")
	ErrAlreadyStarted        = errors.New("game already started")
	ErrInsufficientQuestions = errors.New("not enough questions available")
	ErrNoCurrentQuestion     = errors.New("no current question")
	ErrInvalidOption         = errors.New("selected option out of range")
	ErrInvalidCount          = errors.New("question count above the allowed maximum")
	ErrNotHost               = errors.New("only host can start the game")
	ErrUnknownPlayer         = errors.New("player not in game")

	// ErrStoreUnavailable never leaves the package boundary: the synchronizer logs and drops it.
	ErrStoreUnavailable = errors.New("durable store unavailable")

	errCodeTaken = errors.New("game code already in use")
)
