package portfolio

import (
	"fmt"

	"github.com/bicklebow/bicklebow/market"
)

// Open/close reasons. Reason strings feed the allocation policy (momentum
// adds are sized smaller) and diagnostics output, so they are part of the
// contract, not just log text.
const (
	ReasonFirstPosition   = "first position"
	ReasonAbovePortfolio  = "above portfolio"
	ReasonBelowPortfolio  = "below portfolio"
	ReasonImmediateReopen = "immediate reopen"
)

// Action is the outcome of rule evaluation for one candle.
type Action int

const (
	ActionNone Action = iota
	ActionOpen
	ActionClose
)

// Signal pairs an action with the reason that produced it.
type Signal struct {
	Action Action
	Reason string
}

// Rule is a single threshold rule. Exactly two variants exist: OpenRule and
// CloseRule. The tagged-variant shape makes "both thresholds set" impossible
// to express.
type Rule interface {
	isRule()
}

// OpenRule opens a new position. A positive threshold opens when the candle
// rises above the most expensive held position by that fraction; a negative
// threshold opens when the candle falls below the cheapest one.
type OpenRule struct {
	Threshold float64
}

// CloseRule closes the cheapest position once the candle is above it by the
// given fraction. The threshold must not be negative: closing at a loss is a
// configuration error.
type CloseRule struct {
	Threshold float64
}

func (OpenRule) isRule()  {}
func (CloseRule) isRule() {}

// RuleSet is an ordered list of rules. Order is part of the semantics: the
// first rule whose condition matches wins and no further rules are consulted.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates the rules and fixes their evaluation order.
func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	for i, r := range rules {
		if cr, ok := r.(CloseRule); ok && cr.Threshold < 0 {
			return nil, fmt.Errorf("rule %d: close threshold %v is negative, closing at a loss is not allowed", i, cr.Threshold)
		}
	}
	return &RuleSet{rules: rules}, nil
}

// Evaluate runs the rule set against the instrument's open positions.
// An instrument with no open positions always opens, bootstrapping coverage.
func (rs *RuleSet) Evaluate(positions []Position, c market.Candle) Signal {
	if len(positions) == 0 {
		return Signal{Action: ActionOpen, Reason: ReasonFirstPosition}
	}

	maxPrice := positions[0].Price
	minPrice := positions[0].Price
	for _, p := range positions[1:] {
		if p.Price > maxPrice {
			maxPrice = p.Price
		}
		if p.Price < minPrice {
			minPrice = p.Price
		}
	}

	for _, r := range rs.rules {
		switch rule := r.(type) {
		case OpenRule:
			if rule.Threshold > 0 && c.Open > maxPrice*(1+rule.Threshold) {
				return Signal{Action: ActionOpen, Reason: ReasonAbovePortfolio}
			}
			if rule.Threshold < 0 && c.Open < minPrice*(1+rule.Threshold) {
				return Signal{Action: ActionOpen, Reason: ReasonBelowPortfolio}
			}
		case CloseRule:
			if rule.Threshold > 0 && c.Open > minPrice*(1+rule.Threshold) {
				return Signal{Action: ActionClose, Reason: ReasonAbovePortfolio}
			}
		}
	}
	return Signal{Action: ActionNone}
}
