package game

import (
	"fmt"
	"time"
)

// transitions is the whole lifecycle: each status has at most one successor.
var transitions = map[Status]Status{
	StatusWaiting:    StatusInProgress,
	StatusInProgress: StatusFinished,
}

func nextStatus(status Status) (Status, bool) {
	next, ok := transitions[status]
	return next, ok
}

// advanceStatus moves the session one step forward; anything else is refused.
func advanceStatus(session *GameSession, to Status, at time.Time) error {
	next, ok := nextStatus(session.Status)
	if !ok || next != to {
		return fmt.Errorf("invalid transition %s -> %s", session.Status, to)
	}
	session.Status = to
	session.UpdatedAt = at
	if to == StatusFinished {
		finished := at
		session.FinishedAt = &finished
	}
	return nil
}
