package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "STORE_DRIVER", "TRUST_SCORE_ENABLED", "VERIFICATION_REWARD_WINDOW",
		"REPORT_REWARD_WINDOW", "CONTRADICTION_PENALTY_WINDOW", "SUMMARY_LOOKBACK", "DB_MAX_CONNS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, DriverPostgres, cfg.StoreDriver)
	require.True(t, cfg.TrustScoreEnabled)
	require.Equal(t, 24*time.Hour, cfg.VerificationRewardWindow)
	require.Equal(t, 24*time.Hour, cfg.ReportRewardWindow)
	require.Equal(t, 24*time.Hour, cfg.ContradictionPenaltyWindow)
	require.Zero(t, cfg.SummaryLookback)
	require.Equal(t, 10, cfg.DBMaxConns)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chargetrust.yaml")
	err := os.WriteFile(path, []byte(`
port: "9090"
store_driver: sqlite
trust_score_enabled: "false"
verification_reward_window: 12h
`), 0o600)
	require.NoError(t, err)

	t.Setenv("PORT", "7070")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TRUST_SCORE_ENABLED", "")
	t.Setenv("VERIFICATION_REWARD_WINDOW", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Port, "env wins over file")
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.False(t, cfg.TrustScoreEnabled)
	require.Equal(t, 12*time.Hour, cfg.VerificationRewardWindow)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad bool", "TRUST_SCORE_ENABLED", "maybe"},
		{"bad duration", "REPORT_REWARD_WINDOW", "tomorrow"},
		{"negative duration", "SUMMARY_LOOKBACK", "-1h"},
		{"unknown driver", "STORE_DRIVER", "mysql"},
		{"zero pool size", "DB_MAX_CONNS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
