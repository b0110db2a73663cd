package game

import "time"

type sessionTimers struct {
	reveal   *time.Timer
	deadline *time.Timer
}

func newSessionTimers() sessionTimers {
	return sessionTimers{}
}

func (t *sessionTimers) armReveal(delay time.Duration, fn func()) {
	if t.reveal != nil {
		t.reveal.Stop()
	}
	t.reveal = time.AfterFunc(delay, fn)
}

func (t *sessionTimers) armDeadline(delay time.Duration, fn func()) {
	t.stopDeadline()
	if delay <= 0 {
		return
	}
	t.deadline = time.AfterFunc(delay, fn)
}

func (t *sessionTimers) stopDeadline() {
	if t.deadline != nil {
		t.deadline.Stop()
		t.deadline = nil
	}
}

func (t *sessionTimers) stopAll() {
	t.stopDeadline()
	if t.reveal != nil {
		t.reveal.Stop()
		t.reveal = nil
	}
}
