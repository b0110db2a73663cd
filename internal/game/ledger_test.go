package game

import (
	"testing"
)

func TestLedgerLastWriteWins(t *testing.T) {
	ledger := newLedger()
	if replaced := ledger.Record(AnswerRecord{QuestionIndex: 0, PlayerID: "a", SelectedOptionIndex: intPtr(1)}); replaced {
		t.Fatalf("first record must not report a replacement")
	}
	if replaced := ledger.Record(AnswerRecord{QuestionIndex: 0, PlayerID: "a", SelectedOptionIndex: intPtr(3)}); !replaced {
		t.Fatalf("second record must report a replacement")
	}
	records := ledger.ForQuestion(0)
	if len(records) != 1 || *records["a"].SelectedOptionIndex != 3 {
		t.Fatalf("expected latest answer 3, got %#v", records)
	}
}

func TestLedgerCopiesSelection(t *testing.T) {
	ledger := newLedger()
	selected := 1
	ledger.Record(AnswerRecord{QuestionIndex: 0, PlayerID: "a", SelectedOptionIndex: &selected})
	selected = 3
	if got := *ledger.ForQuestion(0)["a"].SelectedOptionIndex; got != 1 {
		t.Fatalf("expected recorded selection 1, got %d", got)
	}
}

func TestLedgerBarrierCountsAbstain(t *testing.T) {
	ledger := newLedger()
	players := []Player{{ID: "a"}, {ID: "b"}}

	ledger.Record(AnswerRecord{QuestionIndex: 0, PlayerID: "a", SelectedOptionIndex: intPtr(0)})
	if ledger.Complete(0, players) {
		t.Fatalf("barrier must wait for b")
	}
	if missing := ledger.Missing(0, players); len(missing) != 1 || missing[0] != "b" {
		t.Fatalf("expected b missing, got %v", missing)
	}

	ledger.Record(AnswerRecord{QuestionIndex: 0, PlayerID: "b"})
	if !ledger.Complete(0, players) {
		t.Fatalf("explicit abstain must satisfy the barrier")
	}
	if ledger.Complete(1, players) {
		t.Fatalf("records for question 0 must not satisfy question 1")
	}
}

func TestScoreRoundScenario(t *testing.T) {
	question := Question{Prompt: "?", Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 2}
	players := []Player{{ID: "A", DisplayName: "Ada"}, {ID: "B", DisplayName: "Bob"}}
	records := map[string]AnswerRecord{
		"A": {Code: "482913", PlayerID: "A", SelectedOptionIndex: intPtr(2)},
		"B": {Code: "482913", PlayerID: "B", SelectedOptionIndex: intPtr(1)},
	}

	scored := ScoreRound(question, records, players)
	if len(scored) != 2 || scored[0].ID != "A" || scored[1].ID != "B" {
		t.Fatalf("join order not preserved: %#v", scored)
	}
	if scored[0].Score != 1 || scored[1].Score != 0 {
		t.Fatalf("expected A=1 B=0, got A=%d B=%d", scored[0].Score, scored[1].Score)
	}
	if players[0].Score != 0 {
		t.Fatalf("input players mutated")
	}
	if ids := CorrectPlayers(question, records, players); len(ids) != 1 || ids[0] != "A" {
		t.Fatalf("expected only A correct, got %v", ids)
	}
}

func TestScoreRoundMissingAndAbstain(t *testing.T) {
	question := Question{Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 0}
	players := []Player{{ID: "a", Score: 3}, {ID: "b", Score: 1}, {ID: "c"}}
	records := map[string]AnswerRecord{
		"b": {PlayerID: "b"},
	}
	scored := ScoreRound(question, records, players)
	for i, player := range scored {
		if player.Score != players[i].Score {
			t.Fatalf("player %s score changed to %d", player.ID, player.Score)
		}
	}
}

func TestScoreRoundOrderIndependent(t *testing.T) {
	question := Question{Options: []string{"a", "b", "c", "d"}, CorrectOptionIndex: 3}
	players := []Player{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	answers := []AnswerRecord{
		{QuestionIndex: 0, PlayerID: "a", SelectedOptionIndex: intPtr(3)},
		{QuestionIndex: 0, PlayerID: "b", SelectedOptionIndex: intPtr(0)},
		{QuestionIndex: 0, PlayerID: "c", SelectedOptionIndex: intPtr(3)},
	}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}, {1, 2, 0}}

	var want []Player
	for _, order := range orders {
		ledger := newLedger()
		for _, i := range order {
			ledger.Record(answers[i])
		}
		got := ScoreRound(question, ledger.ForQuestion(0), players)
		if want == nil {
			want = got
			continue
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("order %v: got %#v want %#v", order, got, want)
			}
		}
	}
	if want[0].Score != 1 || want[1].Score != 0 || want[2].Score != 1 {
		t.Fatalf("unexpected scores %#v", want)
	}
}
