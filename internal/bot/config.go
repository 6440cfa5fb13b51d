package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Users allowed to upload word lists
	AdminUserIDs []int64
	// Long polling timeout in seconds
	PollTimeout int
	// Upper bound for handling one update
	HandlerTimeout time.Duration
	// Maximum accepted word list upload
	MaxUploadBytes int64
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		PollTimeout:    60,
		HandlerTimeout: 2 * time.Minute,
		MaxUploadBytes: 10 << 20,
	}
}
