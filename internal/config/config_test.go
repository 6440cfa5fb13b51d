package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 10, cfg.XP.DuelPerQuestion)
	assert.Equal(t, 30, cfg.XP.DuelWinBonus)
	assert.Equal(t, 24*time.Hour, cfg.DuelStaleAfter)
	assert.Equal(t, 72*time.Hour, cfg.DuelWaitingTTL)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	content := "XP_DUEL_WIN_BONUS=45\nADMIN_USER_IDS=7, 9\nSTREAK_UTC_OFFSET_HOURS=3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("XP_DUEL_WIN_BONUS")
		os.Unsetenv("ADMIN_USER_IDS")
		os.Unsetenv("STREAK_UTC_OFFSET_HOURS")
	})

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45, cfg.XP.DuelWinBonus)
	assert.Equal(t, []int64{7, 9}, cfg.AdminUserIDs)
	assert.True(t, cfg.IsAdmin(9))
	assert.False(t, cfg.IsAdmin(8))
	assert.Equal(t, 3*time.Hour, cfg.XP.StreakUTCOffset)
}

func TestLoadRejectsUnknownDBType(t *testing.T) {
	t.Setenv("DB_TYPE", "oracle")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadRejectsBadAdminList(t *testing.T) {
	t.Setenv("ADMIN_USER_IDS", "1,abc")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
