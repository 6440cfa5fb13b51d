package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/wordduel/pkg/models"
)

const wordColumns = `id, english_word, translation, level, lesson, synonyms, antonyms, sort_order, active, created_at`

// WordRepository handles database operations for words
type WordRepository struct {
	db *DB
}

// NewWordRepository creates a new repository instance
func NewWordRepository(db *DB) *WordRepository {
	return &WordRepository{db: db}
}

// GetByID returns a word by ID
func (r *WordRepository) GetByID(ctx context.Context, id int64) (*models.Word, error) {
	var word models.Word
	err := r.db.GetContext(ctx, &word, "SELECT "+wordColumns+" FROM words WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get word by ID: %w", err)
	}
	return &word, nil
}

// GetByEnglish returns a word by its English text
func (r *WordRepository) GetByEnglish(ctx context.Context, text string) (*models.Word, error) {
	var word models.Word
	err := r.db.GetContext(ctx, &word, "SELECT "+wordColumns+" FROM words WHERE english_word = ?", text)
	if err != nil {
		return nil, fmt.Errorf("failed to get word %q: %w", text, err)
	}
	return &word, nil
}

// ListActive returns all active words in catalog order
func (r *WordRepository) ListActive(ctx context.Context) ([]models.Word, error) {
	var words []models.Word
	err := r.db.SelectContext(ctx, &words,
		"SELECT "+wordColumns+" FROM words WHERE active = 1 ORDER BY sort_order, id")
	if err != nil {
		return nil, fmt.Errorf("failed to get words: %w", err)
	}
	return words, nil
}

// ListIDsInLevelRange returns the IDs of active words with lo <= level <= hi
func (r *WordRepository) ListIDsInLevelRange(ctx context.Context, lo, hi int) ([]int64, error) {
	var ids []int64
	err := r.db.SelectContext(ctx, &ids,
		"SELECT id FROM words WHERE active = 1 AND level BETWEEN ? AND ? ORDER BY id", lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to get words by level: %w", err)
	}
	return ids, nil
}

// Upsert inserts a word or updates the existing word with the same English
// text, and returns its ID
func (r *WordRepository) Upsert(ctx context.Context, word *models.Word) (int64, error) {
	if word.CreatedAt.IsZero() {
		word.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO words (english_word, translation, level, lesson, synonyms, antonyms, sort_order, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (english_word) DO UPDATE SET
			translation = excluded.translation,
			level = excluded.level,
			lesson = excluded.lesson,
			synonyms = excluded.synonyms,
			antonyms = excluded.antonyms,
			sort_order = excluded.sort_order,
			active = excluded.active`,
		word.EnglishWord, word.Translation, word.Level, word.Lesson,
		word.Synonyms, word.Antonyms, word.SortOrder, Bool(word.Active), word.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert word %q: %w", word.EnglishWord, err)
	}

	var id int64
	if err := r.db.GetContext(ctx, &id, "SELECT id FROM words WHERE english_word = ?", word.EnglishWord); err != nil {
		return 0, fmt.Errorf("failed to read back word %q: %w", word.EnglishWord, err)
	}
	word.ID = id
	return id, nil
}

// SetActive toggles a word in or out of the catalog
func (r *WordRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE words SET active = ? WHERE id = ?", Bool(active), id)
	if err != nil {
		return fmt.Errorf("failed to update word: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update word %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountActive returns the number of active words
func (r *WordRepository) CountActive(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM words WHERE active = 1"); err != nil {
		return 0, fmt.Errorf("failed to count words: %w", err)
	}
	return n, nil
}
