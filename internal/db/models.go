package db

import (
	"time"

	"quiz-live/internal/game"

	"gorm.io/datatypes"
)

// GameSession is the archived snapshot of a live session, keyed by code.
type GameSession struct {
	Code                 string                              `gorm:"primaryKey;size:6"`
	HostID               string                              `gorm:"size:64;not null"`
	IsPublic             bool                                `gorm:"not null;default:false"`
	Status               string                              `gorm:"size:16;not null;index"`
	Players              datatypes.JSONType[[]game.Player]   `gorm:"not null"`
	Questions            datatypes.JSONType[[]game.Question] `gorm:"not null"`
	CurrentQuestionIndex int                                 `gorm:"not null;default:0"`
	CreatedAt            time.Time                           `gorm:"not null"`
	UpdatedAt            time.Time                           `gorm:"not null"`
	FinishedAt           *time.Time
}

type Answer struct {
	ID                  uint   `gorm:"primaryKey"`
	Code                string `gorm:"size:6;not null;uniqueIndex:idx_answers_code_question_player"`
	QuestionIndex       int    `gorm:"not null;uniqueIndex:idx_answers_code_question_player"`
	PlayerID            string `gorm:"size:64;not null;uniqueIndex:idx_answers_code_question_player"`
	SelectedOptionIndex *int
	SubmittedAt         time.Time `gorm:"not null"`
}

// Question is one entry of the question bank.
type Question struct {
	ID                 uint                         `gorm:"primaryKey"`
	Topic              string                       `gorm:"size:64;not null;index:idx_questions_topic_difficulty;uniqueIndex:idx_questions_topic_prompt"`
	Difficulty         string                       `gorm:"size:16;not null;index:idx_questions_topic_difficulty"`
	Prompt             string                       `gorm:"size:280;not null;uniqueIndex:idx_questions_topic_prompt"`
	Options            datatypes.JSONType[[]string] `gorm:"not null"`
	CorrectOptionIndex int                          `gorm:"not null"`
	Explanation        string                       `gorm:"size:500"`
	CreatedAt          time.Time                    `gorm:"not null"`
	UpdatedAt          time.Time                    `gorm:"not null"`
}

func sessionToModel(s game.GameSession) GameSession {
	players := s.Players
	if players == nil {
		players = []game.Player{}
	}
	questions := s.Questions
	if questions == nil {
		questions = []game.Question{}
	}
	return GameSession{
		Code:                 s.Code,
		HostID:               s.HostID,
		IsPublic:             s.IsPublic,
		Status:               string(s.Status),
		Players:              datatypes.NewJSONType(players),
		Questions:            datatypes.NewJSONType(questions),
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
		FinishedAt:           s.FinishedAt,
	}
}

func (m GameSession) toSession() game.GameSession {
	return game.GameSession{
		Code:                 m.Code,
		HostID:               m.HostID,
		IsPublic:             m.IsPublic,
		Status:               game.Status(m.Status),
		Players:              m.Players.Data(),
		Questions:            m.Questions.Data(),
		CurrentQuestionIndex: m.CurrentQuestionIndex,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
		FinishedAt:           m.FinishedAt,
	}
}

func answerToModel(r game.AnswerRecord) Answer {
	return Answer{
		Code:                r.Code,
		QuestionIndex:       r.QuestionIndex,
		PlayerID:            r.PlayerID,
		SelectedOptionIndex: r.SelectedOptionIndex,
		SubmittedAt:         r.SubmittedAt,
	}
}

func (m Answer) toRecord() game.AnswerRecord {
	return game.AnswerRecord{
		Code:                m.Code,
		QuestionIndex:       m.QuestionIndex,
		PlayerID:            m.PlayerID,
		SelectedOptionIndex: m.SelectedOptionIndex,
		SubmittedAt:         m.SubmittedAt,
	}
}

func (m Question) ToGame() game.Question {
	return game.Question{
		ID:                 questionID(m.ID),
		Prompt:             m.Prompt,
		Options:            m.Options.Data(),
		CorrectOptionIndex: m.CorrectOptionIndex,
		Explanation:        m.Explanation,
		Topic:              m.Topic,
		Difficulty:         m.Difficulty,
	}
}
