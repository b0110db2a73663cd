package questions

import (
	"context"
	"fmt"

	"quiz-live/internal/db"
	"quiz-live/internal/game"

	"gorm.io/gorm"
)

// Bank samples questions from the question bank table.
type Bank struct {
	db *gorm.DB
}

func NewBank(conn *gorm.DB) *Bank {
	return &Bank{db: conn}
}

func (b *Bank) Name() string {
	return "bank"
}

// Fetch over-samples so that duplicates filtered by the coordinator still
// leave enough questions when the bank has them.
func (b *Bank) Fetch(ctx context.Context, topic, difficulty string, count int) ([]game.Question, error) {
	rows, err := db.RandomQuestions(ctx, b.db, topic, difficulty, count*2)
	if err != nil {
		return nil, fmt.Errorf("query question bank: %w", err)
	}
	out := make([]game.Question, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToGame())
	}
	return out, nil
}
