package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bicklebow/bicklebow/portfolio"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
portfolio:
  initial_balance: 1000
  deposit_amount: 500
  deposit_interval_days: 30
  reopen_immediately: true
  min_position_size: 50
  min_position_sizes:
    TSLA: 200
  rules:
    - open_threshold: 0.15
    - close_threshold: 0.2
    - open_threshold: -0.1
simulation:
  candle_dir: ./candles
  start: 2020-01-01T00:00:00Z
  end: 2020-12-31T00:00:00Z
  step: 30m
store:
  db_path: ./test.db
telegram:
  token_env: BOT_TOKEN
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, cfg.Portfolio.InitialBalance)
	assert.Equal(t, 500.0, cfg.Portfolio.DepositAmount)
	assert.True(t, cfg.Portfolio.ReopenImmediately)
	assert.Equal(t, 200.0, cfg.Portfolio.MinPositionSizes["TSLA"])
	require.Len(t, cfg.Portfolio.Rules, 3)
	assert.Equal(t, 0.2, *cfg.Portfolio.Rules[1].CloseThreshold)

	step, err := cfg.Simulation.ParseStep()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, step)
}

func TestLoadFromFileJSONFallback(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.json", `{
  "portfolio": {
    "initial_balance": 1000,
    "deposit_amount": 1000,
    "deposit_interval_days": 30,
    "rules": [{"open_threshold": 0.15}]
  },
  "simulation": {
    "candle_dir": "./candles",
    "start": "2020-01-01T00:00:00Z",
    "end": "2020-12-31T00:00:00Z"
  },
  "store": {"db_path": "./test.db"}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, cfg.Portfolio.InitialBalance)

	step, err := cfg.Simulation.ParseStep()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, step, "empty step defaults to one hour")
}

func TestLoadFromFileErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := writeConfig(t, "garbage.yaml", "{{{not valid")
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
		errmsg string
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name:   "negative initial balance",
			mutate: func(c *Config) { c.Portfolio.InitialBalance = -1 },
			errmsg: "initial_balance",
		},
		{
			name:   "negative deposit amount",
			mutate: func(c *Config) { c.Portfolio.DepositAmount = -100 },
			errmsg: "deposit_amount",
		},
		{
			name:   "no rules",
			mutate: func(c *Config) { c.Portfolio.Rules = nil },
			errmsg: "rules",
		},
		{
			name:   "missing candle dir",
			mutate: func(c *Config) { c.Simulation.CandleDir = "" },
			errmsg: "candle_dir",
		},
		{
			name: "start after end",
			mutate: func(c *Config) {
				c.Simulation.Start = c.Simulation.End.Add(time.Hour)
			},
			errmsg: "precede",
		},
		{
			name:   "bad step",
			mutate: func(c *Config) { c.Simulation.Step = "one hour" },
			errmsg: "step",
		},
		{
			name:   "missing db path",
			mutate: func(c *Config) { c.Store.DBPath = "" },
			errmsg: "db_path",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errmsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errmsg)
		})
	}
}

func TestRuleSet(t *testing.T) {
	t.Parallel()

	open, cls := 0.15, 0.2

	t.Run("preserves declaration order", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Portfolio.Rules = []RuleConfig{
			{CloseThreshold: &cls},
			{OpenThreshold: &open},
		}
		rs, err := cfg.RuleSet()
		require.NoError(t, err)
		require.NotNil(t, rs)
	})

	t.Run("both thresholds set", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Portfolio.Rules = []RuleConfig{{OpenThreshold: &open, CloseThreshold: &cls}}
		_, err := cfg.RuleSet()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "both")
	})

	t.Run("neither threshold set", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Portfolio.Rules = []RuleConfig{{}}
		_, err := cfg.RuleSet()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "neither")
	})

	t.Run("negative close threshold rejected", func(t *testing.T) {
		t.Parallel()
		neg := -0.2
		cfg := Default()
		cfg.Portfolio.Rules = []RuleConfig{{CloseThreshold: &neg}}
		_, err := cfg.RuleSet()
		assert.Error(t, err)
	})
}

func TestOptionsMinSizeFallback(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Portfolio.MinPositionSize = 0
	cfg.Portfolio.MinPositionSizes = map[string]float64{"TSLA": 200}

	opts := cfg.Options()
	assert.Equal(t, portfolio.DefaultMinPositionSize, opts.MinPositionSize("GAZP"))
	assert.Equal(t, 200.0, opts.MinPositionSize("TSLA"))
	assert.Equal(t, 30*24*time.Hour, opts.DepositInterval)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := Default()
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Portfolio.InitialBalance, got.Portfolio.InitialBalance)
	require.Len(t, got.Portfolio.Rules, 3)
	assert.Equal(t, *cfg.Portfolio.Rules[2].OpenThreshold, *got.Portfolio.Rules[2].OpenThreshold)
}
