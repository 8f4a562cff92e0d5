package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bicklebow/bicklebow/portfolio"
)

// Config represents the complete application configuration.
type Config struct {
	Portfolio  PortfolioConfig  `json:"portfolio" yaml:"portfolio"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Telegram   TelegramConfig   `json:"telegram" yaml:"telegram"`
}

// PortfolioConfig contains the capital and rule parameters of a run.
type PortfolioConfig struct {
	InitialBalance      float64            `json:"initial_balance" yaml:"initial_balance"`
	DepositAmount       float64            `json:"deposit_amount" yaml:"deposit_amount"`
	DepositIntervalDays int                `json:"deposit_interval_days" yaml:"deposit_interval_days"`
	ReopenImmediately   bool               `json:"reopen_immediately" yaml:"reopen_immediately"`
	MinPositionSize     float64            `json:"min_position_size" yaml:"min_position_size"`
	MinPositionSizes    map[string]float64 `json:"min_position_sizes,omitempty" yaml:"min_position_sizes,omitempty"`
	Rules               []RuleConfig       `json:"rules" yaml:"rules"`
}

// RuleConfig is one threshold rule as written in the config file. Exactly
// one of the two thresholds must be set; the loader converts it to the
// corresponding core rule variant.
type RuleConfig struct {
	OpenThreshold  *float64 `json:"open_threshold,omitempty" yaml:"open_threshold,omitempty"`
	CloseThreshold *float64 `json:"close_threshold,omitempty" yaml:"close_threshold,omitempty"`
}

// SimulationConfig contains the replay window parameters.
type SimulationConfig struct {
	CandleDir string    `json:"candle_dir" yaml:"candle_dir"`
	Start     time.Time `json:"start" yaml:"start"`
	End       time.Time `json:"end" yaml:"end"`
	Step      string    `json:"step,omitempty" yaml:"step,omitempty"` // e.g. "1h", "30m"
}

// ParseStep converts the step string to a duration, defaulting to one hour.
func (sc SimulationConfig) ParseStep() (time.Duration, error) {
	if sc.Step == "" {
		return time.Hour, nil
	}
	return time.ParseDuration(sc.Step)
}

// StoreConfig contains persistence parameters.
type StoreConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

// TelegramConfig names the environment variable holding the bot token, so
// the token itself never lands in a config file.
type TelegramConfig struct {
	TokenEnv string `json:"token_env,omitempty" yaml:"token_env,omitempty"`
}

// Token reads the bot token from the configured environment variable.
func (tc TelegramConfig) Token() string {
	if tc.TokenEnv == "" {
		return ""
	}
	return os.Getenv(tc.TokenEnv)
}

// LoadFromFile loads configuration from a file (YAML or JSON based on content).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Portfolio.InitialBalance < 0 {
		return fmt.Errorf("portfolio.initial_balance must not be negative")
	}
	if c.Portfolio.DepositAmount < 0 {
		return fmt.Errorf("portfolio.deposit_amount must not be negative")
	}
	if c.Portfolio.DepositIntervalDays < 0 {
		return fmt.Errorf("portfolio.deposit_interval_days must not be negative")
	}
	if len(c.Portfolio.Rules) == 0 {
		return fmt.Errorf("portfolio.rules must not be empty")
	}
	if _, err := c.RuleSet(); err != nil {
		return err
	}
	if c.Simulation.CandleDir == "" {
		return fmt.Errorf("simulation.candle_dir is required")
	}
	if !c.Simulation.Start.Before(c.Simulation.End) {
		return fmt.Errorf("simulation.start must precede simulation.end")
	}
	if _, err := c.Simulation.ParseStep(); err != nil {
		return fmt.Errorf("simulation.step: %w", err)
	}
	if c.Store.DBPath == "" {
		return fmt.Errorf("store.db_path is required")
	}
	return nil
}

// RuleSet converts the configured rules into the core rule set, preserving
// declaration order.
func (c *Config) RuleSet() (*portfolio.RuleSet, error) {
	rules := make([]portfolio.Rule, 0, len(c.Portfolio.Rules))
	for i, rc := range c.Portfolio.Rules {
		switch {
		case rc.OpenThreshold != nil && rc.CloseThreshold != nil:
			return nil, fmt.Errorf("portfolio.rules[%d]: both open_threshold and close_threshold set", i)
		case rc.OpenThreshold != nil:
			rules = append(rules, portfolio.OpenRule{Threshold: *rc.OpenThreshold})
		case rc.CloseThreshold != nil:
			rules = append(rules, portfolio.CloseRule{Threshold: *rc.CloseThreshold})
		default:
			return nil, fmt.Errorf("portfolio.rules[%d]: neither open_threshold nor close_threshold set", i)
		}
	}
	rs, err := portfolio.NewRuleSet(rules...)
	if err != nil {
		return nil, fmt.Errorf("portfolio.rules: %w", err)
	}
	return rs, nil
}

// Options assembles portfolio options from the configuration.
func (c *Config) Options() portfolio.Options {
	minSize := c.Portfolio.MinPositionSize
	if minSize <= 0 {
		minSize = portfolio.DefaultMinPositionSize
	}
	return portfolio.Options{
		InitialBalance:    c.Portfolio.InitialBalance,
		DepositAmount:     c.Portfolio.DepositAmount,
		DepositInterval:   time.Duration(c.Portfolio.DepositIntervalDays) * 24 * time.Hour,
		ReopenImmediately: c.Portfolio.ReopenImmediately,
		MinPositionSize: portfolio.FixedMinPositionSize(
			minSize, c.Portfolio.MinPositionSizes),
	}
}

// Default returns a configuration with sensible defaults: the reference
// rule set (momentum add at +15%, take profit at +20%, dip buy at -10%) and
// a monthly deposit of 1000.
func Default() *Config {
	open1, close1, open2 := 0.15, 0.2, -0.1
	return &Config{
		Portfolio: PortfolioConfig{
			InitialBalance:      1000,
			DepositAmount:       1000,
			DepositIntervalDays: 30,
			ReopenImmediately:   true,
			MinPositionSize:     portfolio.DefaultMinPositionSize,
			Rules: []RuleConfig{
				{OpenThreshold: &open1},
				{CloseThreshold: &close1},
				{OpenThreshold: &open2},
			},
		},
		Simulation: SimulationConfig{
			CandleDir: "./data/candles",
			Start:     time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			End:       time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC),
			Step:      "1h",
		},
		Store: StoreConfig{
			DBPath: "./bicklebow.db",
		},
		Telegram: TelegramConfig{
			TokenEnv: "BOT_TOKEN",
		},
	}
}
