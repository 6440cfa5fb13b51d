package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Storage
	DBType      string
	DBPath      string
	DatabaseURL string

	// Transport
	TelegramToken string
	AdminUserIDs  []int64

	// Question generation
	AIProvider           string
	OpenAIKey            string
	OpenAIBaseURL        string
	OpenAIModel          string
	AnthropicKey         string
	AnthropicModel       string
	GenerationTimeout    time.Duration
	GenerationRatePerMin int

	// Rewards
	XP XPConfig

	// Duels
	DuelStaleAfter time.Duration
	DuelWaitingTTL time.Duration
	SweepInterval  time.Duration

	// Reminders
	ReminderHour int

	// Ops
	OpsAddr   string
	LogLevel  string
	LogFormat string
}

// XPConfig holds reward amounts and streak settings
type XPConfig struct {
	ReviewCorrect        int
	DuelPerQuestion      int
	DuelWinBonus         int
	DuelDrawBonus        int
	DuelLoseBonus        int
	StreakDailyThreshold int
	StreakUTCOffset      time.Duration
}

// Defaults are the values used when a key is not set
var defaults = map[string]interface{}{
	"DB_TYPE":                 "sqlite",
	"DB_PATH":                 "data/wordduel.db",
	"DATABASE_URL":            "",
	"TELEGRAM_BOT_TOKEN":      "",
	"ADMIN_USER_IDS":          "",
	"AI_PROVIDER":             "openai",
	"OPENAI_API_KEY":          "",
	"OPENAI_BASE_URL":         "",
	"OPENAI_MODEL":            "gpt-4o-mini",
	"ANTHROPIC_API_KEY":       "",
	"ANTHROPIC_MODEL":         "claude-sonnet-4-5",
	"GENERATION_TIMEOUT":      "30s",
	"GENERATION_RATE_PER_MIN": 30,
	"XP_REVIEW_CORRECT":       10,
	"XP_DUEL_PER_QUESTION":    10,
	"XP_DUEL_WIN_BONUS":       30,
	"XP_DUEL_DRAW_BONUS":      15,
	"XP_DUEL_LOSE_BONUS":      0,
	"STREAK_DAILY_THRESHOLD":  50,
	"STREAK_UTC_OFFSET_HOURS": 0,
	"DUEL_STALE_AFTER":        "24h",
	"DUEL_WAITING_TTL":        "72h",
	"SWEEP_INTERVAL":          "1h",
	"REMINDER_HOUR":           9,
	"OPS_ADDR":                ":9090",
	"LOG_LEVEL":               "info",
	"LOG_FORMAT":              "text",
}

// Load reads configuration from an optional .env file and the environment.
// envFiles are passed to godotenv; a missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			slog.Debug("env file not loaded", "file", f, "error", err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	admins, err := parseIDList(v.GetString("ADMIN_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_USER_IDS: %w", err)
	}

	cfg := &Config{
		DBType:               strings.ToLower(v.GetString("DB_TYPE")),
		DBPath:               v.GetString("DB_PATH"),
		DatabaseURL:          v.GetString("DATABASE_URL"),
		TelegramToken:        v.GetString("TELEGRAM_BOT_TOKEN"),
		AdminUserIDs:         admins,
		AIProvider:           strings.ToLower(v.GetString("AI_PROVIDER")),
		OpenAIKey:            v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:        v.GetString("OPENAI_BASE_URL"),
		OpenAIModel:          v.GetString("OPENAI_MODEL"),
		AnthropicKey:         v.GetString("ANTHROPIC_API_KEY"),
		AnthropicModel:       v.GetString("ANTHROPIC_MODEL"),
		GenerationTimeout:    v.GetDuration("GENERATION_TIMEOUT"),
		GenerationRatePerMin: v.GetInt("GENERATION_RATE_PER_MIN"),
		XP: XPConfig{
			ReviewCorrect:        v.GetInt("XP_REVIEW_CORRECT"),
			DuelPerQuestion:      v.GetInt("XP_DUEL_PER_QUESTION"),
			DuelWinBonus:         v.GetInt("XP_DUEL_WIN_BONUS"),
			DuelDrawBonus:        v.GetInt("XP_DUEL_DRAW_BONUS"),
			DuelLoseBonus:        v.GetInt("XP_DUEL_LOSE_BONUS"),
			StreakDailyThreshold: v.GetInt("STREAK_DAILY_THRESHOLD"),
			StreakUTCOffset:      time.Duration(v.GetInt("STREAK_UTC_OFFSET_HOURS")) * time.Hour,
		},
		DuelStaleAfter: v.GetDuration("DUEL_STALE_AFTER"),
		DuelWaitingTTL: v.GetDuration("DUEL_WAITING_TTL"),
		SweepInterval:  v.GetDuration("SWEEP_INTERVAL"),
		ReminderHour:   v.GetInt("REMINDER_HOUR"),
		OpsAddr:        v.GetString("OPS_ADDR"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		LogFormat:      v.GetString("LOG_FORMAT"),
	}

	return cfg, cfg.Validate()
}

// Validate checks the combinations Load cannot express as defaults
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "sqlite3":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres", "postgresql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", c.DBType)
	}

	switch c.AIProvider {
	case "openai", "anthropic", "local", "none":
	default:
		return fmt.Errorf("unsupported AI_PROVIDER: %s", c.AIProvider)
	}

	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("GENERATION_TIMEOUT must be positive")
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be within 0-23")
	}
	if c.XP.StreakDailyThreshold <= 0 {
		return fmt.Errorf("STREAK_DAILY_THRESHOLD must be positive")
	}
	return nil
}

// IsAdmin reports whether userID is listed in ADMIN_USER_IDS
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
