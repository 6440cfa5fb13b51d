package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordduel/pkg/models"
)

const questionColumns = `q.id, q.word_id, q.prompt, q.option_1, q.option_2, q.option_3, q.option_4, q.correct_option, q.explanation, q.style, q.created_at`

// QuestionRepository handles database operations for generated questions
type QuestionRepository struct {
	db *DB
}

// NewQuestionRepository creates a new repository instance
func NewQuestionRepository(db *DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// GetByID returns a question by ID
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	err := r.db.GetContext(ctx, &q, "SELECT "+questionColumns+" FROM questions q WHERE q.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get question by ID: %w", err)
	}
	return &q, nil
}

// Create appends a question to the catalog
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	id, err := r.db.InsertReturningID(ctx, `
		INSERT INTO questions (word_id, prompt, option_1, option_2, option_3, option_4, correct_option, explanation, style, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.WordID, q.Prompt, q.Option1, q.Option2, q.Option3, q.Option4,
		q.CorrectOption, q.Explanation, q.Style, q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	q.ID = id
	return nil
}

// CountByStyle returns the number of stocked questions per style for a word
func (r *QuestionRepository) CountByStyle(ctx context.Context, wordID int64) (map[models.QuestionStyle]int, error) {
	var rows []struct {
		Style models.QuestionStyle `db:"style"`
		Count int                  `db:"n"`
	}
	err := r.db.SelectContext(ctx, &rows,
		"SELECT style, COUNT(*) AS n FROM questions WHERE word_id = ? GROUP BY style", wordID)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}

	counts := make(map[models.QuestionStyle]int, len(rows))
	for _, row := range rows {
		counts[row.Style] = row.Count
	}
	return counts, nil
}

// ListByWord returns every question stocked for a word
func (r *QuestionRepository) ListByWord(ctx context.Context, wordID int64) ([]models.Question, error) {
	var qs []models.Question
	err := r.db.SelectContext(ctx, &qs,
		"SELECT "+questionColumns+" FROM questions q WHERE q.word_id = ? ORDER BY q.id", wordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return qs, nil
}

// ListUnseen returns questions for a word that the user has no shown record
// for in the given context. An empty style matches every style.
func (r *QuestionRepository) ListUnseen(ctx context.Context, userID, wordID int64, shown models.ShownContext, style models.QuestionStyle) ([]models.Question, error) {
	query := "SELECT " + questionColumns + ` FROM questions q
		WHERE q.word_id = ?
		AND NOT EXISTS (
			SELECT 1 FROM question_shown s
			WHERE s.user_id = ? AND s.question_id = q.id AND s.context = ?
		)`
	args := []interface{}{wordID, userID, shown}
	if style != models.StyleNone {
		query += " AND q.style = ?"
		args = append(args, style)
	}
	query += " ORDER BY q.id"

	var qs []models.Question
	if err := r.db.SelectContext(ctx, &qs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get unseen questions: %w", err)
	}
	return qs, nil
}
