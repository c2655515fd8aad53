package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrypass/server/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load([]string{"--env-file="})
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.GRPCAddr)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "./data/entrypass.db", cfg.DB.Path)
	assert.False(t, cfg.Ledger.AllowDeposits)
	assert.Empty(t, cfg.Ledger.FaucetAccounts)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	assert.Equal(t, 6, cfg.Audit.PruneIntervalHours)
	assert.False(t, cfg.Limit.Enabled)
	assert.Equal(t, "none", cfg.Events.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENTRYPASS_HTTP_ADDR", ":9999")
	t.Setenv("ENTRYPASS_DB_DRIVER", "memory")
	t.Setenv("ENTRYPASS_LEDGER_ALLOW_DEPOSITS", "true")
	t.Setenv("ENTRYPASS_LEDGER_FAUCET_ACCOUNTS", " aa , bb ,,")
	t.Setenv("ENTRYPASS_LEDGER_FAUCET_AMOUNT", "5000")
	t.Setenv("ENTRYPASS_AUDIT_RETENTION_DAYS", "-3")
	t.Setenv("ENTRYPASS_EVENTS_DRIVER", "kafka")
	t.Setenv("ENTRYPASS_EVENTS_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := config.Load([]string{"--env-file="})
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.True(t, cfg.Ledger.AllowDeposits)
	assert.Equal(t, []string{"aa", "bb"}, cfg.Ledger.FaucetAccounts)
	assert.Equal(t, uint64(5000), cfg.Ledger.FaucetAmount)
	assert.Equal(t, 0, cfg.Audit.RetentionDays)
	assert.Equal(t, "kafka", cfg.Events.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.KafkaBrokers)
}

func TestLoad_UnknownEnvFailsSoft(t *testing.T) {
	t.Setenv("ENTRYPASS_ENV", "staging")
	cfg, err := config.Load([]string{"--env-file="})
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
}

func TestLoad_FlagsBeatEnv(t *testing.T) {
	t.Setenv("ENTRYPASS_HTTP_ADDR", ":1111")
	cfg, err := config.Load([]string{"--env-file=", "--http-addr", ":2222", "--db-path", "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/x.db", cfg.DB.Path)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entrypass.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
http:
  addr: ":7000"
ledger:
  faucet_accounts: ["cc", "dd"]
audit:
  retention_days: 90
events:
  driver: log
`), 0o600))

	cfg, err := config.Load([]string{"--env-file=", "--config", path})
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, []string{"cc", "dd"}, cfg.Ledger.FaucetAccounts)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.Equal(t, "log", cfg.Events.Driver)
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ENTRYPASS_GRPC_ADDR=:4444\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("ENTRYPASS_GRPC_ADDR") })

	cfg, err := config.Load([]string{"--env-file", path})
	require.NoError(t, err)
	assert.Equal(t, ":4444", cfg.GRPCAddr)
}

func TestLoad_MissingDotEnvIsFine(t *testing.T) {
	_, err := config.Load([]string{"--env-file", filepath.Join(t.TempDir(), "nope.env")})
	require.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		cfg, err := config.Load([]string{"--env-file="})
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown db driver", func(c *config.Config) { c.DB.Driver = "postgres" }},
		{"sqlite without path", func(c *config.Config) { c.DB.Path = "" }},
		{"deposits in prod", func(c *config.Config) { c.Env = "prod"; c.Ledger.AllowDeposits = true }},
		{"rate limit without redis", func(c *config.Config) { c.Limit.Enabled = true }},
		{"rate limit zero rate", func(c *config.Config) { c.Limit.Enabled = true; c.Redis.Addr = "r:6379"; c.Limit.Rate = 0 }},
		{"amqp without url", func(c *config.Config) { c.Events.Driver = "amqp" }},
		{"kafka without brokers", func(c *config.Config) { c.Events.Driver = "kafka" }},
		{"unknown events driver", func(c *config.Config) { c.Events.Driver = "smoke-signals" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}
