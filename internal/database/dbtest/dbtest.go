// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/pkg/models"
)

// New returns a migrated database in a temporary file, closed on cleanup
func New(t testing.TB) *database.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.ConnectSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// Word inserts an active word at the given level and returns it
func Word(t testing.TB, db *database.DB, english string, level int) models.Word {
	t.Helper()
	w := models.Word{
		EnglishWord: english,
		Translation: english + "-tr",
		Level:       level,
		Active:      true,
	}
	_, err := database.NewWordRepository(db).Upsert(context.Background(), &w)
	require.NoError(t, err)
	return w
}

// Words inserts n words named prefix1..prefixN with sort order following n
func Words(t testing.TB, db *database.DB, prefix string, n, level int) []models.Word {
	t.Helper()
	words := make([]models.Word, 0, n)
	for i := 1; i <= n; i++ {
		w := models.Word{
			EnglishWord: fmt.Sprintf("%s%d", prefix, i),
			Translation: fmt.Sprintf("%s%d-tr", prefix, i),
			Level:       level,
			SortOrder:   i,
			Active:      true,
		}
		_, err := database.NewWordRepository(db).Upsert(context.Background(), &w)
		require.NoError(t, err)
		words = append(words, w)
	}
	return words
}

// Question stocks one question of the given style for a word, with option 1
// correct
func Question(t testing.TB, db *database.DB, wordID int64, style models.QuestionStyle) models.Question {
	t.Helper()
	q := models.Question{
		WordID:        wordID,
		Prompt:        fmt.Sprintf("%s question for word %d", style, wordID),
		Option1:       "right",
		Option2:       "wrong-a",
		Option3:       "wrong-b",
		Option4:       "wrong-c",
		CorrectOption: 1,
		Style:         style,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, database.NewQuestionRepository(db).Create(context.Background(), &q))
	return q
}

// User registers a user
func User(t testing.TB, db *database.DB, id int64) {
	t.Helper()
	u := models.User{ID: id, Username: fmt.Sprintf("user%d", id)}
	require.NoError(t, database.NewUserRepository(db).Register(context.Background(), &u))
}
