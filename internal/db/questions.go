package db

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Question bank CSV columns, after a header row:
// topic, difficulty, prompt, option_a, option_b, option_c, option_d, correct_index, explanation
const questionCSVColumns = 8

// LoadQuestionBank reads questions from a CSV and inserts the ones not already
// present for their topic.
func LoadQuestionBank(conn *gorm.DB, path string) (int, error) {
	if conn == nil {
		return 0, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	records, err := ReadQuestionCSV(file)
	if err != nil {
		return 0, err
	}
	inserted := 0
	for _, record := range records {
		entry := record
		result := conn.Where(Question{Topic: entry.Topic, Prompt: entry.Prompt}).FirstOrCreate(&entry)
		if result.Error != nil {
			return inserted, result.Error
		}
		if result.RowsAffected > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func ReadQuestionCSV(r io.Reader) ([]Question, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var records []Question
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if len(row) < questionCSVColumns {
			return nil, fmt.Errorf("line %d: expected at least %d columns, got %d", i+1, questionCSVColumns, len(row))
		}
		correct, err := strconv.Atoi(strings.TrimSpace(row[7]))
		if err != nil || correct < 0 || correct > 3 {
			return nil, fmt.Errorf("line %d: correct_index must be 0-3", i+1)
		}
		prompt := strings.TrimSpace(row[2])
		if prompt == "" {
			continue
		}
		options := make([]string, 0, 4)
		for _, option := range row[3:7] {
			options = append(options, strings.TrimSpace(option))
		}
		explanation := ""
		if len(row) > questionCSVColumns {
			explanation = strings.TrimSpace(row[8])
		}
		records = append(records, Question{
			Topic:              strings.TrimSpace(row[0]),
			Difficulty:         strings.ToLower(strings.TrimSpace(row[1])),
			Prompt:             prompt,
			Options:            datatypes.NewJSONType(options),
			CorrectOptionIndex: correct,
			Explanation:        explanation,
		})
	}
	return records, nil
}

// RandomQuestions samples up to limit bank questions. Empty topic or
// difficulty matches everything.
func RandomQuestions(ctx context.Context, conn *gorm.DB, topic, difficulty string, limit int) ([]Question, error) {
	query := conn.WithContext(ctx).Model(&Question{})
	if topic = strings.TrimSpace(topic); topic != "" {
		query = query.Where("LOWER(topic) = LOWER(?)", topic)
	}
	if difficulty = strings.TrimSpace(difficulty); difficulty != "" {
		query = query.Where("difficulty = ?", strings.ToLower(difficulty))
	}
	var out []Question
	if err := query.Order("RANDOM()").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func questionID(id uint) string {
	return "bank-" + strconv.FormatUint(uint64(id), 10)
}
