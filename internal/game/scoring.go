package game

// ScoreRound awards one point to every player whose record for the round
// selects the correct option. Missing and abstained records score nothing.
// The input slice is never modified; the result keeps join order.
func ScoreRound(question Question, records map[string]AnswerRecord, players []Player) []Player {
	out := clonePlayers(players)
	for i := range out {
		rec, ok := records[out[i].ID]
		if !ok || rec.Abstained() {
			continue
		}
		if *rec.SelectedOptionIndex == question.CorrectOptionIndex {
			out[i].Score++
		}
	}
	return out
}

// CorrectPlayers lists, in join order, the players who answered correctly.
func CorrectPlayers(question Question, records map[string]AnswerRecord, players []Player) []string {
	ids := make([]string, 0)
	for _, player := range players {
		rec, ok := records[player.ID]
		if ok && !rec.Abstained() && *rec.SelectedOptionIndex == question.CorrectOptionIndex {
			ids = append(ids, player.ID)
		}
	}
	return ids
}
