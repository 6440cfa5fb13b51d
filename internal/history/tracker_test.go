package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/database/dbtest"
	"github.com/example/wordduel/pkg/models"
)

func TestMarkAnsweredOnce(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	tr := NewTracker(db)
	w := dbtest.Word(t, db, "river", 1)
	q := dbtest.Question(t, db, w.ID, models.StyleMeaning)
	now := time.Now().UTC()

	require.NoError(t, tr.MarkShown(ctx, 1, w.ID, q.ID, models.ContextReview, now))
	require.NoError(t, tr.MarkShown(ctx, 1, w.ID, q.ID, models.ContextReview, now))

	require.NoError(t, tr.MarkAnswered(ctx, 1, q.ID, models.ContextReview, true, now))
	err := tr.MarkAnswered(ctx, 1, q.ID, models.ContextReview, true, now)
	assert.True(t, errors.Is(err, ErrAlreadyAnswered))
}

func TestAnswerRequiresShown(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	tr := NewTracker(db)
	w := dbtest.Word(t, db, "river", 1)
	q := dbtest.Question(t, db, w.ID, models.StyleMeaning)

	err := tr.MarkAnswered(ctx, 1, q.ID, models.ContextReview, true, time.Now())
	assert.True(t, errors.Is(err, ErrNotShown))
}

func TestContextsAreSeparate(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	tr := NewTracker(db)
	w := dbtest.Word(t, db, "river", 1)
	q := dbtest.Question(t, db, w.ID, models.StyleMeaning)
	now := time.Now().UTC()

	require.NoError(t, tr.MarkShown(ctx, 1, w.ID, q.ID, models.ContextDuel, now))
	require.NoError(t, tr.MarkAnswered(ctx, 1, q.ID, models.ContextDuel, false, now))

	_, err := tr.Get(ctx, 1, q.ID, models.ContextReview)
	assert.True(t, errors.Is(err, ErrNotShown))
}
