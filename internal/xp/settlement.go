package xp

import "github.com/example/wordduel/internal/config"

// Outcome is a player's result in a finished duel
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeDraw Outcome = "draw"
	OutcomeLose Outcome = "lose"
)

// DuelCredit returns the XP a player earns for a finished duel
func DuelCredit(cfg config.XPConfig, correct int, outcome Outcome) int {
	bonus := cfg.DuelLoseBonus
	switch outcome {
	case OutcomeWin:
		bonus = cfg.DuelWinBonus
	case OutcomeDraw:
		bonus = cfg.DuelDrawBonus
	}
	return correct*cfg.DuelPerQuestion + bonus
}
