package portfolio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bicklebow/bicklebow/market"
)

func candleAt(instrument string, open float64) market.Candle {
	return market.Candle{
		Instrument: instrument,
		Time:       time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC),
		Open:       open,
		High:       open,
		Low:        open,
		Close:      open,
	}
}

func position(price, value float64) Position {
	return Position{Instrument: "TSLA", Price: price, Value: value}
}

func TestNewRuleSetRejectsNegativeCloseThreshold(t *testing.T) {
	t.Parallel()

	_, err := NewRuleSet(CloseRule{Threshold: -0.1})
	assert.Error(t, err)

	// Negative open thresholds are legitimate dip-buy rules.
	_, err = NewRuleSet(OpenRule{Threshold: -0.1})
	assert.NoError(t, err)
}

func TestEvaluateFirstPosition(t *testing.T) {
	t.Parallel()

	// No rule configuration can prevent the bootstrap open.
	rs, err := NewRuleSet(CloseRule{Threshold: 0.5})
	require.NoError(t, err)

	sig := rs.Evaluate(nil, candleAt("TSLA", 100))
	assert.Equal(t, ActionOpen, sig.Action)
	assert.Equal(t, ReasonFirstPosition, sig.Reason)
}

func TestEvaluateThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rules     []Rule
		positions []Position
		open      float64
		action    Action
		reason    string
	}{
		{
			name:      "above_portfolio",
			rules:     []Rule{OpenRule{Threshold: 0.15}},
			positions: []Position{position(100, 500)},
			open:      116, // 100 * 1.15 = 115
			action:    ActionOpen,
			reason:    ReasonAbovePortfolio,
		},
		{
			name:      "above_portfolio_at_threshold_no_match",
			rules:     []Rule{OpenRule{Threshold: 0.15}},
			positions: []Position{position(100, 500)},
			open:      115,
			action:    ActionNone,
		},
		{
			name:      "below_portfolio",
			rules:     []Rule{OpenRule{Threshold: -0.1}},
			positions: []Position{position(100, 500), position(80, 500)},
			open:      71, // cheapest 80 * 0.9 = 72
			action:    ActionOpen,
			reason:    ReasonBelowPortfolio,
		},
		{
			name:      "close_above_cheapest",
			rules:     []Rule{CloseRule{Threshold: 0.2}},
			positions: []Position{position(100, 500), position(50, 500)},
			open:      61, // cheapest 50 * 1.2 = 60
			action:    ActionClose,
			reason:    ReasonAbovePortfolio,
		},
		{
			name:      "no_rule_matches",
			rules:     []Rule{OpenRule{Threshold: 0.15}, CloseRule{Threshold: 0.2}},
			positions: []Position{position(100, 500)},
			open:      105,
			action:    ActionNone,
		},
		{
			name:      "zero_threshold_rules_never_fire",
			rules:     []Rule{OpenRule{Threshold: 0}, CloseRule{Threshold: 0}},
			positions: []Position{position(100, 500)},
			open:      200,
			action:    ActionNone,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rs, err := NewRuleSet(tt.rules...)
			require.NoError(t, err)

			sig := rs.Evaluate(tt.positions, candleAt("TSLA", tt.open))
			assert.Equal(t, tt.action, sig.Action)
			assert.Equal(t, tt.reason, sig.Reason)
		})
	}
}

func TestEvaluateFirstMatchingRuleWins(t *testing.T) {
	t.Parallel()

	positions := []Position{position(100, 500)}
	c := candleAt("TSLA", 130) // matches both a +0.15 open and a 0.2 close

	rs, err := NewRuleSet(OpenRule{Threshold: 0.15}, CloseRule{Threshold: 0.2})
	require.NoError(t, err)
	assert.Equal(t, ActionOpen, rs.Evaluate(positions, c).Action)

	// Reordering the same rules flips the outcome.
	rs, err = NewRuleSet(CloseRule{Threshold: 0.2}, OpenRule{Threshold: 0.15})
	require.NoError(t, err)
	assert.Equal(t, ActionClose, rs.Evaluate(positions, c).Action)
}
