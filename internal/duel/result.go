package duel

import (
	"time"

	"github.com/example/wordduel/internal/xp"
	"github.com/example/wordduel/pkg/models"
)

// PlayerResult is one player's side of a finished match
type PlayerResult struct {
	UserID   int64
	Correct  int
	Outcome  xp.Outcome
	XP       int
	Credited bool // false when an earlier call already credited this player
	Streak   xp.StreakResult
}

// Result is the settled outcome of a completed match
type Result struct {
	Match   models.DuelMatch
	Total   int
	Players [2]PlayerResult
}

// For returns userID's side of the result
func (r Result) For(userID int64) PlayerResult {
	if r.Players[1].UserID == userID {
		return r.Players[1]
	}
	return r.Players[0]
}

// decide fills in the winner from the correct counts; equal counts draw
func decide(m models.DuelMatch, p1Correct, p2Correct int) models.DuelMatch {
	m.Player1Correct = p1Correct
	m.Player2Correct = p2Correct
	m.WinnerID = nil
	m.IsDraw = false
	switch {
	case p1Correct > p2Correct:
		winner := m.Player1ID
		m.WinnerID = &winner
	case p2Correct > p1Correct:
		winner := *m.Player2ID
		m.WinnerID = &winner
	default:
		m.IsDraw = true
	}
	return m
}

func outcomeFor(m models.DuelMatch, userID int64) xp.Outcome {
	switch {
	case m.IsDraw:
		return xp.OutcomeDraw
	case m.WinnerID != nil && *m.WinnerID == userID:
		return xp.OutcomeWin
	default:
		return xp.OutcomeLose
	}
}

// result computes both players' credits from a decided match
func (s *Service) result(m models.DuelMatch, total int) *Result {
	res := &Result{Match: m, Total: total}
	cfg := s.xp.Config()
	for i, id := range [2]int64{m.Player1ID, m.Opponent(m.Player1ID)} {
		correct := m.CorrectFor(id)
		outcome := outcomeFor(m, id)
		res.Players[i] = PlayerResult{
			UserID:  id,
			Correct: correct,
			Outcome: outcome,
			XP:      xp.DuelCredit(cfg, correct, outcome),
		}
	}
	return res
}

// rewards returns the ledger credits for both players, keyed by match
func (r *Result) rewards(at time.Time) []xp.Reward {
	out := make([]xp.Reward, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, xp.Reward{
			UserID:   p.UserID,
			Activity: models.ActivityDuelMatch,
			RefID:    r.Match.ID,
			Delta:    p.XP,
			Metadata: map[string]interface{}{
				"correct": p.Correct,
				"total":   r.Total,
				"outcome": p.Outcome,
			},
			At: at,
		})
	}
	return out
}
