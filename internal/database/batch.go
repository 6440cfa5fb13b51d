package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/wordduel/internal/metrics"
)

// ErrBatchConflict is matched by every ConflictError
var ErrBatchConflict = errors.New("batch conflict")

// ConflictError reports which guarded statement affected no rows
type ConflictError struct {
	Index int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("batch conflict: statement %d affected no rows", e.Index)
}

// Is makes errors.Is(err, ErrBatchConflict) hold
func (e *ConflictError) Is(target error) bool {
	return target == ErrBatchConflict
}

// Stmt is one statement of an atomic batch
type Stmt struct {
	Query string
	Args  []interface{}

	// MustAffect rolls the whole batch back when the statement affects no rows
	MustAffect bool
	// IfPrevAffected skips the statement when the previous one affected no rows
	IfPrevAffected bool
}

// S builds a plain statement
func S(query string, args ...interface{}) Stmt {
	return Stmt{Query: query, Args: args}
}

// Batch runs stmts in a single transaction and returns the affected-row
// count of each statement in order. Skipped statements report -1.
// Either every statement takes effect or none does.
func (db *DB) Batch(ctx context.Context, stmts ...Stmt) ([]int64, error) {
	start := time.Now()
	defer func() {
		metrics.BatchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	affected := make([]int64, len(stmts))
	prev := int64(-1)
	for i, st := range stmts {
		if st.IfPrevAffected && i > 0 && prev <= 0 {
			affected[i] = -1
			prev = 0
			continue
		}

		res, err := tx.ExecContext(ctx, tx.Rebind(st.Query), st.Args...)
		if err != nil {
			return nil, fmt.Errorf("batch statement %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("batch statement %d: %w", i, err)
		}
		affected[i] = n
		prev = n

		if st.MustAffect && n == 0 {
			metrics.BatchConflictsTotal.Inc()
			return affected, &ConflictError{Index: i}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit batch: %w", err)
	}
	return affected, nil
}

// Bool converts b to the 0/1 integer stored in boolean columns
func Bool(b bool) int {
	if b {
		return 1
	}
	return 0
}
