package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quiz-live/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSessionMissing = errors.New("archived game not found")

// GormStore archives sessions and answers in Postgres.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

// Put writes a full snapshot. Codes are reused once a session leaves memory,
// so an existing row for the code is replaced along with its answers.
func (s *GormStore) Put(ctx context.Context, code string, snapshot game.GameSession) error {
	model := sessionToModel(snapshot)
	model.Code = code
	err := s.db.WithContext(ctx).Create(&model).Error
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("insert game %s: %w", code, err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("code = ?", code).Delete(&Answer{}).Error; err != nil {
			return fmt.Errorf("clear answers %s: %w", code, err)
		}
		if err := tx.Model(&GameSession{}).Where("code = ?", code).Select("*").Updates(&model).Error; err != nil {
			return fmt.Errorf("replace game %s: %w", code, err)
		}
		return nil
	})
}

func (s *GormStore) Update(ctx context.Context, code string, fields map[string]any) error {
	columns := make(map[string]any, len(fields))
	for key, value := range fields {
		switch v := value.(type) {
		case game.Status:
			columns[key] = string(v)
		case []game.Player:
			columns[key] = datatypes.NewJSONType(v)
		case []game.Question:
			columns[key] = datatypes.NewJSONType(v)
		case int, time.Time:
			columns[key] = v
		}
	}
	if len(columns) == 0 {
		return nil
	}
	result := s.db.WithContext(ctx).Model(&GameSession{}).Where("code = ?", code).Updates(columns)
	if result.Error != nil {
		return fmt.Errorf("update game %s: %w", code, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update game %s: %w", code, ErrSessionMissing)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, code string) (game.GameSession, bool, error) {
	var model GameSession
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.GameSession{}, false, nil
	}
	if err != nil {
		return game.GameSession{}, false, fmt.Errorf("load game %s: %w", code, err)
	}
	return model.toSession(), true, nil
}

// SaveAnswer upserts on (code, question_index, player_id): last write wins.
func (s *GormStore) SaveAnswer(ctx context.Context, record game.AnswerRecord) error {
	model := answerToModel(record)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}, {Name: "question_index"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option_index", "submitted_at"}),
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save answer %s/%d/%s: %w", record.Code, record.QuestionIndex, record.PlayerID, err)
	}
	return nil
}

func (s *GormStore) ListAnswers(ctx context.Context, code string) ([]game.AnswerRecord, error) {
	var models []Answer
	if err := s.db.WithContext(ctx).
		Where("code = ?", code).
		Order("question_index asc").
		Order("submitted_at asc").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list answers %s: %w", code, err)
	}
	out := make([]game.AnswerRecord, 0, len(models))
	for _, model := range models {
		out = append(out, model.toRecord())
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
