package game

import (
	"strings"
	"time"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in-progress"
	StatusFinished   Status = "finished"
)

const OptionsPerQuestion = 4

type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
}

type Question struct {
	ID                 string   `json:"id"`
	Prompt             string   `json:"prompt"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correct_option_index"`
	Explanation        string   `json:"explanation,omitempty"`
	Topic              string   `json:"topic,omitempty"`
	Difficulty         string   `json:"difficulty,omitempty"`
}

// Valid reports whether the question can be attached to a session.
func (q Question) Valid() bool {
	if strings.TrimSpace(q.Prompt) == "" || len(q.Options) != OptionsPerQuestion {
		return false
	}
	for _, option := range q.Options {
		if strings.TrimSpace(option) == "" {
			return false
		}
	}
	return q.CorrectOptionIndex >= 0 && q.CorrectOptionIndex < len(q.Options)
}

// PublicQuestion is what players see while a question is open: no answer, no explanation.
type PublicQuestion struct {
	ID         string   `json:"id"`
	Prompt     string   `json:"prompt"`
	Options    []string `json:"options"`
	Topic      string   `json:"topic,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
}

func (q Question) Public() PublicQuestion {
	return PublicQuestion{
		ID:         q.ID,
		Prompt:     q.Prompt,
		Options:    append([]string(nil), q.Options...),
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
	}
}

type GameSession struct {
	Code                 string     `json:"code"`
	HostID               string     `json:"host_id"`
	IsPublic             bool       `json:"is_public"`
	Status               Status     `json:"status"`
	Players              []Player   `json:"players"`
	Questions            []Question `json:"questions"`
	CurrentQuestionIndex int        `json:"current_question_index"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"`
}

// Clone returns a deep copy that can leave the session lock.
func (g *GameSession) Clone() GameSession {
	out := *g
	out.Players = clonePlayers(g.Players)
	out.Questions = make([]Question, len(g.Questions))
	for i, q := range g.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	if g.FinishedAt != nil {
		at := *g.FinishedAt
		out.FinishedAt = &at
	}
	return out
}

func (g *GameSession) HasPlayer(playerID string) bool {
	for _, player := range g.Players {
		if player.ID == playerID {
			return true
		}
	}
	return false
}

// View is the client-facing projection of a session. Correct answers are never included.
type View struct {
	Code                 string          `json:"code"`
	HostID               string          `json:"host_id"`
	IsPublic             bool            `json:"is_public"`
	Status               Status          `json:"status"`
	Players              []Player        `json:"players"`
	QuestionsCount       int             `json:"questions_count"`
	CurrentQuestionIndex int             `json:"current_question_index"`
	CurrentQuestion      *PublicQuestion `json:"current_question,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

func (g *GameSession) View() View {
	view := View{
		Code:                 g.Code,
		HostID:               g.HostID,
		IsPublic:             g.IsPublic,
		Status:               g.Status,
		Players:              clonePlayers(g.Players),
		QuestionsCount:       len(g.Questions),
		CurrentQuestionIndex: g.CurrentQuestionIndex,
		CreatedAt:            g.CreatedAt,
	}
	if g.Status == StatusInProgress && g.CurrentQuestionIndex < len(g.Questions) {
		q := g.Questions[g.CurrentQuestionIndex].Public()
		view.CurrentQuestion = &q
	}
	return view
}

type AnswerRecord struct {
	Code                string    `json:"code"`
	QuestionIndex       int       `json:"question_index"`
	PlayerID            string    `json:"player_id"`
	SelectedOptionIndex *int      `json:"selected_option_index"`
	SubmittedAt         time.Time `json:"submitted_at"`
}

// Abstained reports an explicit no-answer.
func (r AnswerRecord) Abstained() bool {
	return r.SelectedOptionIndex == nil
}

func clonePlayers(players []Player) []Player {
	return append([]Player(nil), players...)
}

// Mirror field names understood by DurableStore.Update and GameSession.Apply.
const (
	FieldStatus               = "status"
	FieldPlayers              = "players"
	FieldQuestions            = "questions"
	FieldCurrentQuestionIndex = "current_question_index"
	FieldFinishedAt           = "finished_at"
	FieldUpdatedAt            = "updated_at"
)

// Apply merges a partial update produced by the coordinator. Unknown fields are ignored.
func (g *GameSession) Apply(fields map[string]any) {
	for key, value := range fields {
		switch key {
		case FieldStatus:
			if status, ok := value.(Status); ok {
				g.Status = status
			}
		case FieldPlayers:
			if players, ok := value.([]Player); ok {
				g.Players = clonePlayers(players)
			}
		case FieldQuestions:
			if questions, ok := value.([]Question); ok {
				g.Questions = append([]Question(nil), questions...)
			}
		case FieldCurrentQuestionIndex:
			if index, ok := value.(int); ok {
				g.CurrentQuestionIndex = index
			}
		case FieldFinishedAt:
			if at, ok := value.(time.Time); ok {
				g.FinishedAt = &at
			}
		case FieldUpdatedAt:
			if at, ok := value.(time.Time); ok {
				g.UpdatedAt = at
			}
		}
	}
}
