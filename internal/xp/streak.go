package xp

import (
	"context"
	"fmt"
	"time"
)

const dayLayout = "2006-01-02"

// StreakEvent is what a streak check changed
type StreakEvent int

const (
	StreakUnchanged StreakEvent = iota
	StreakContinued
	StreakStarted
)

// StreakResult is the outcome of a streak check
type StreakResult struct {
	Event StreakEvent
	Count int
	Day   string
}

// Notify reports whether the user should be told about the result
func (r StreakResult) Notify() bool {
	return r.Event != StreakUnchanged
}

// LocalDay returns the user's local day of t for a fixed UTC offset, and the
// UTC bounds of that day
func LocalDay(t time.Time, offset time.Duration) (day string, start, end time.Time) {
	local := t.UTC().Add(offset)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	start = midnight.Add(-offset)
	return midnight.Format(dayLayout), start, start.Add(24 * time.Hour)
}

// CheckStreak compares the XP earned on the local day of at with the daily
// threshold and moves the streak on the first crossing of that day. at is
// the time of the credit that triggered the check; zero means now.
func (s *Service) CheckStreak(ctx context.Context, userID int64, at time.Time) (StreakResult, error) {
	if at.IsZero() {
		at = s.now()
	}
	today, start, end := LocalDay(at, s.cfg.StreakUTCOffset)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return StreakResult{}, err
	}
	result := StreakResult{Count: user.StreakCount, Day: user.StreakLastDay}
	if user.StreakLastDay == today {
		return result, nil
	}

	earned, err := s.ledger.SumBetween(ctx, userID, start, end)
	if err != nil {
		return StreakResult{}, err
	}
	if earned < int64(s.cfg.StreakDailyThreshold) {
		return result, nil
	}

	yesterday, _, _ := LocalDay(start.Add(-time.Hour), s.cfg.StreakUTCOffset)
	next := StreakResult{Event: StreakStarted, Count: 1, Day: today}
	if user.StreakLastDay == yesterday {
		next = StreakResult{Event: StreakContinued, Count: user.StreakCount + 1, Day: today}
	}

	moved, err := s.users.AdvanceStreak(ctx, userID, user.StreakLastDay, today, next.Count)
	if err != nil {
		return StreakResult{}, fmt.Errorf("failed to advance streak: %w", err)
	}
	if !moved {
		// another request crossed the threshold first
		return result, nil
	}

	s.logger.Info("streak advanced", "user_id", userID, "streak", next.Count, "day", today)
	return next, nil
}
