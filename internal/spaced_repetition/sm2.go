package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/wordduel/pkg/models"
)

// DateLayout is the layout of review dates
const DateLayout = "2006-01-02"

// QualityResponse represents the quality of response in SM-2
type QualityResponse int

const (
	// Incorrect response but the correct answer felt familiar
	QualityIncorrectFamiliar QualityResponse = 2
	// Correct response after some hesitation
	QualityCorrectDifficult QualityResponse = 3
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// QualityOf binarizes a multiple-choice answer
func QualityOf(correct bool) QualityResponse {
	if correct {
		return QualityPerfect
	}
	return QualityIncorrectFamiliar
}

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	// PassThreshold is the lowest quality counted as a correct answer
	PassThreshold QualityResponse
	// Intervals for the first and second successful repetitions
	FirstInterval  int
	SecondInterval int
}

// NewSM2 creates an SM2 with the classic 1 and 6 day starting intervals
func NewSM2() *SM2 {
	return &SM2{
		PassThreshold:  QualityCorrectDifficult,
		FirstInterval:  1,
		SecondInterval: 6,
	}
}

// Today returns the UTC review day of t
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// RecordAnswer returns the state after one answer given at now. The input
// state is not modified.
func (sm *SM2) RecordAnswer(state models.ReviewState, correct bool, now time.Time) models.ReviewState {
	quality := QualityOf(correct)
	next := state

	if quality >= sm.PassThreshold {
		switch state.Repetitions {
		case 0:
			next.Interval = sm.FirstInterval
		case 1:
			next.Interval = sm.SecondInterval
		default:
			next.Interval = int(math.Round(float64(state.Interval) * state.EaseFactor))
			if next.Interval < 1 {
				next.Interval = 1
			}
		}
		next.Repetitions = state.Repetitions + 1

		next.CorrectStreak = state.CorrectStreak + 1
		next.Stage = state.Stage + 1
		if next.Stage > models.MaxStage {
			next.Stage = models.MaxStage
		}
		if next.Stage < 1 {
			next.Stage = 1
		}
	} else {
		next.Repetitions = 0
		next.Interval = 1
		next.CorrectStreak = 0
		next.Stage = 1
	}

	next.EaseFactor = NextEaseFactor(state.EaseFactor, quality)

	reviewedAt := now.UTC()
	next.LastReviewedAt = &reviewedAt
	next.NextReviewDate = reviewedAt.AddDate(0, 0, next.Interval).Format(DateLayout)
	return next
}

// NextEaseFactor applies the SM-2 ease update, floored at the minimum ease
func NextEaseFactor(ef float64, quality QualityResponse) float64 {
	q := 5.0 - float64(quality)
	newEF := ef + (0.1 - q*(0.08+q*0.02))
	if newEF < models.MinEaseFactor {
		newEF = models.MinEaseFactor
	}
	return newEF
}
