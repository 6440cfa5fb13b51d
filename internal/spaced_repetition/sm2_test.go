package spaced_repetition

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/wordduel/pkg/models"
)

var now = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func TestFirstTwoCorrectAnswers(t *testing.T) {
	sm := NewSM2()
	st := models.NewReviewState(1, 1, Today(now))

	st = sm.RecordAnswer(st, true, now)
	assert.Equal(t, 1, st.Interval)
	assert.Equal(t, 1, st.Repetitions)
	assert.Equal(t, 2, st.Stage)
	assert.Equal(t, "2026-03-11", st.NextReviewDate)
	assert.InDelta(t, 2.6, st.EaseFactor, 1e-9)

	st = sm.RecordAnswer(st, true, now.AddDate(0, 0, 1))
	assert.Equal(t, 6, st.Interval)
	assert.Equal(t, 2, st.Repetitions)
	assert.Equal(t, 3, st.Stage)
	assert.Equal(t, "2026-03-17", st.NextReviewDate)
}

func TestThirdCorrectUsesPreviousEase(t *testing.T) {
	sm := NewSM2()
	st := models.ReviewState{Interval: 6, Repetitions: 2, EaseFactor: 2.5, Stage: 3}

	st = sm.RecordAnswer(st, true, now)
	assert.Equal(t, 15, st.Interval)
	assert.Equal(t, 3, st.Repetitions)
	assert.Equal(t, models.MaxStage, st.Stage)
}

func TestIncorrectResets(t *testing.T) {
	sm := NewSM2()
	st := models.ReviewState{Interval: 15, Repetitions: 3, EaseFactor: 2.5, Stage: 4, CorrectStreak: 3}

	st = sm.RecordAnswer(st, false, now)
	assert.Equal(t, 0, st.Repetitions)
	assert.Equal(t, 1, st.Interval)
	assert.Equal(t, 1, st.Stage)
	assert.Equal(t, 0, st.CorrectStreak)
	assert.InDelta(t, 2.18, st.EaseFactor, 1e-9)
	require.NotNil(t, st.LastReviewedAt)
}

func TestEaseFloor(t *testing.T) {
	assert.Equal(t, models.MinEaseFactor, NextEaseFactor(1.35, QualityOf(false)))
	assert.Equal(t, models.MinEaseFactor, NextEaseFactor(models.MinEaseFactor, QualityOf(false)))
}

func TestRandomSequencesKeepBounds(t *testing.T) {
	sm := NewSM2()
	rnd := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		st := models.NewReviewState(1, 1, Today(now))
		day := now
		for i := 0; i < 40; i++ {
			prevStage := st.Stage
			correct := rnd.Intn(3) > 0
			st = sm.RecordAnswer(st, correct, day)

			assert.GreaterOrEqual(t, st.EaseFactor, models.MinEaseFactor)
			assert.GreaterOrEqual(t, st.Stage, 1)
			assert.LessOrEqual(t, st.Stage, models.MaxStage)
			if correct {
				assert.GreaterOrEqual(t, st.Interval, 1)
				assert.GreaterOrEqual(t, st.Stage, prevStage)
			} else {
				assert.Equal(t, 0, st.Repetitions)
				assert.Equal(t, 1, st.Interval)
				assert.Equal(t, 1, st.Stage)
			}
			day = day.AddDate(0, 0, st.Interval)
		}
	}
}
