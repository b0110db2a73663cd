package game

import (
	"errors"
	"testing"
	"time"
)

func TestStoreInsertRejectsDuplicateCode(t *testing.T) {
	store := NewStore()
	if err := store.insert(&GameSession{Code: "123456", Status: StatusWaiting}, nil); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := store.insert(&GameSession{Code: "123456", Status: StatusWaiting}, nil)
	if !errors.Is(err, errCodeTaken) {
		t.Fatalf("expected code taken, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	_ = store.insert(&GameSession{Code: "123456", Players: []Player{{ID: "a"}}}, nil)

	copy1, ok := store.Get("123456")
	if !ok {
		t.Fatalf("expected session")
	}
	copy1.Players[0].Score = 99

	copy2, _ := store.Get("123456")
	if copy2.Players[0].Score != 0 {
		t.Fatalf("expected stored session untouched, got %d", copy2.Players[0].Score)
	}
}

func TestStoreUpdateUnknownCode(t *testing.T) {
	store := NewStore()
	called := false
	err := store.update("000000", func(e *entry) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if called || store.Exists("000000") {
		t.Fatalf("unknown code must not create a session")
	}
}

func TestListPublicWaiting(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = store.insert(&GameSession{Code: "200000", IsPublic: true, Status: StatusWaiting, CreatedAt: base.Add(time.Minute)}, nil)
	_ = store.insert(&GameSession{Code: "100000", IsPublic: true, Status: StatusWaiting, CreatedAt: base}, nil)
	_ = store.insert(&GameSession{Code: "300000", IsPublic: false, Status: StatusWaiting, CreatedAt: base}, nil)
	_ = store.insert(&GameSession{Code: "400000", IsPublic: true, Status: StatusInProgress, CreatedAt: base}, nil)

	list := store.ListPublicWaiting()
	if len(list) != 2 {
		t.Fatalf("expected 2 public waiting games, got %d", len(list))
	}
	if list[0].Code != "100000" || list[1].Code != "200000" {
		t.Fatalf("unexpected order: %s, %s", list[0].Code, list[1].Code)
	}
}

func TestSweepRemovesExpiredFinished(t *testing.T) {
	store := NewStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	old := now.Add(-20 * time.Minute)
	recent := now.Add(-time.Minute)
	_ = store.insert(&GameSession{Code: "111111", Status: StatusFinished, FinishedAt: &old}, nil)
	_ = store.insert(&GameSession{Code: "222222", Status: StatusFinished, FinishedAt: &recent}, nil)
	_ = store.insert(&GameSession{Code: "333333", Status: StatusInProgress}, nil)

	removed := store.Sweep(now, 10*time.Minute)
	if len(removed) != 1 || removed[0] != "111111" {
		t.Fatalf("expected only 111111 swept, got %v", removed)
	}
	if store.Exists("111111") || !store.Exists("222222") || !store.Exists("333333") {
		t.Fatalf("unexpected store contents after sweep")
	}
}

func TestAdvanceStatusIsMonotonic(t *testing.T) {
	now := time.Now()
	session := &GameSession{Status: StatusWaiting}

	if err := advanceStatus(session, StatusFinished, now); err == nil {
		t.Fatalf("expected waiting -> finished to be refused")
	}
	if err := advanceStatus(session, StatusInProgress, now); err != nil {
		t.Fatalf("waiting -> in-progress: %v", err)
	}
	if err := advanceStatus(session, StatusWaiting, now); err == nil {
		t.Fatalf("expected backward transition to be refused")
	}
	if err := advanceStatus(session, StatusFinished, now); err != nil {
		t.Fatalf("in-progress -> finished: %v", err)
	}
	if session.FinishedAt == nil {
		t.Fatalf("expected finished_at to be set")
	}
	if err := advanceStatus(session, StatusFinished, now); err == nil {
		t.Fatalf("expected finished to be terminal")
	}
}

func TestValidCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := newSessionCode()
		if err != nil {
			t.Fatalf("newSessionCode: %v", err)
		}
		if !ValidCode(code) || code[0] == '0' {
			t.Fatalf("invalid code %q", code)
		}
	}
	for _, bad := range []string{"", "12345", "1234567", "12a456"} {
		if ValidCode(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestStoreRemoveStopsSession(t *testing.T) {
	store := NewStore()
	_ = store.insert(&GameSession{Code: "654321", Status: StatusInProgress}, nil)

	if !store.Remove("654321") {
		t.Fatalf("expected remove to report the session")
	}
	if store.Remove("654321") {
		t.Fatalf("second remove must report false")
	}
	if store.Exists("654321") {
		t.Fatalf("removed session still listed")
	}
	err := store.update("654321", func(e *entry) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
}
