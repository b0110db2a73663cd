package game

// Ledger records answers per question index and stable player id, independent
// of any connection. It is not synchronized; callers hold the session lock.
type Ledger struct {
	answers map[int]map[string]AnswerRecord
}

func newLedger() *Ledger {
	return &Ledger{
		answers: make(map[int]map[string]AnswerRecord),
	}
}

// Record stores rec, replacing any earlier record for the same question and
// player. Last write wins; the return value reports whether one was replaced.
func (l *Ledger) Record(rec AnswerRecord) bool {
	byPlayer := l.answers[rec.QuestionIndex]
	if byPlayer == nil {
		byPlayer = make(map[string]AnswerRecord)
		l.answers[rec.QuestionIndex] = byPlayer
	}
	_, replaced := byPlayer[rec.PlayerID]
	if rec.SelectedOptionIndex != nil {
		selected := *rec.SelectedOptionIndex
		rec.SelectedOptionIndex = &selected
	}
	byPlayer[rec.PlayerID] = rec
	return replaced
}

func (l *Ledger) Has(index int, playerID string) bool {
	_, ok := l.answers[index][playerID]
	return ok
}

// ForQuestion returns a copy of the records for one question index.
func (l *Ledger) ForQuestion(index int) map[string]AnswerRecord {
	out := make(map[string]AnswerRecord, len(l.answers[index]))
	for playerID, rec := range l.answers[index] {
		out[playerID] = rec
	}
	return out
}

// Missing lists players, in join order, without a record for index.
func (l *Ledger) Missing(index int, players []Player) []string {
	missing := make([]string, 0)
	for _, player := range players {
		if !l.Has(index, player.ID) {
			missing = append(missing, player.ID)
		}
	}
	return missing
}

// Complete is the barrier predicate: every player has a record for index.
// An explicit abstain counts as a record.
func (l *Ledger) Complete(index int, players []Player) bool {
	if len(players) == 0 {
		return false
	}
	return len(l.Missing(index, players)) == 0
}

func (l *Ledger) Answered(index int) int {
	return len(l.answers[index])
}
