// Package alert evaluates user-defined price triggers against live
// portfolio snapshots and delivers notifications, suppressing repeats
// within a reference-dependent cool-down window.
package alert

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownReference marks a trigger with a reference kind the evaluator
// does not understand. Fatal: evaluation must not proceed as a false result.
var ErrUnknownReference = errors.New("alert: unknown trigger reference")

// IsTriggered reports whether the trigger fires for the given holding.
//
// The direction gate only rejects moves strictly on the wrong side of the
// reference; equal prices fall through to the magnitude check, which then
// fails the strict threshold comparison on its own.
func IsTriggered(t Trigger, snap Snapshot) (bool, error) {
	if t.Instrument != "" && t.Instrument != snap.Instrument {
		return false, nil
	}

	var reference float64
	switch t.Reference {
	case ReferencePortfolio:
		reference = snap.PortfolioPrice
	case ReferenceCandleDay, ReferenceCandleWeek, ReferenceCandleMonth:
		reference = snap.CandlePrices[t.Reference]
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownReference, t.Reference)
	}

	if t.Direction == DirectionIncrease && snap.CurrentPrice < reference {
		return false, nil
	}
	if t.Direction == DirectionDecrease && snap.CurrentPrice > reference {
		return false, nil
	}
	return math.Abs(1-snap.CurrentPrice/reference)*100 > t.Threshold, nil
}
