package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/internal/database"
	"github.com/example/wordduel/internal/database/dbtest"
	"github.com/example/wordduel/pkg/models"
)

func TestBatchCommitsAllStatements(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := database.NewUserRepository(db)
	ledger := database.NewLedgerRepository(db)
	now := time.Now().UTC()

	affected, err := db.Batch(ctx,
		users.EnsureStmt(7, now),
		ledger.InsertStmt(models.LedgerEntry{UserID: 7, ActivityType: models.ActivityReviewAnswer, RefID: 1, XPDelta: 10, CreatedAt: now}),
		users.AddXPStmt(7, 10),
	)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 1}, affected)

	user, err := users.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.EqualValues(t, 10, user.XPTotal)
}

func TestBatchMustAffectRollsBack(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := database.NewUserRepository(db)
	ledger := database.NewLedgerRepository(db)
	now := time.Now().UTC()
	dbtest.User(t, db, 1)

	_, err := db.Batch(ctx,
		ledger.InsertStmt(models.LedgerEntry{UserID: 1, ActivityType: models.ActivityReviewAnswer, RefID: 1, XPDelta: 10, CreatedAt: now}),
		users.AddXPStmt(99, 10), // no such user
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrBatchConflict))

	var conflict *database.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 1, conflict.Index)

	sum, err := ledger.Sum(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, sum, "ledger insert must be rolled back")
}

func TestBatchIfPrevAffectedSkips(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()
	users := database.NewUserRepository(db)
	ledger := database.NewLedgerRepository(db)
	now := time.Now().UTC()
	dbtest.User(t, db, 1)

	entry := models.LedgerEntry{UserID: 1, ActivityType: models.ActivityDuelMatch, RefID: 42, XPDelta: 30, CreatedAt: now}
	settle := func() []int64 {
		add := users.AddXPStmt(1, 30)
		add.MustAffect = false
		add.IfPrevAffected = true
		affected, err := db.Batch(ctx, ledger.InsertStmt(entry), add)
		require.NoError(t, err)
		return affected
	}

	assert.Equal(t, []int64{1, 1}, settle())
	assert.Equal(t, []int64{0, -1}, settle())

	user, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 30, user.XPTotal)

	sum, err := ledger.Sum(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, user.XPTotal, sum)
}

func TestGetContextMapsNoRows(t *testing.T) {
	db := dbtest.New(t)

	_, err := database.NewWordRepository(db).GetByID(context.Background(), 12345)
	assert.True(t, errors.Is(err, database.ErrNotFound))
}
