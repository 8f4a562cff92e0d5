package portfolio

// DefaultMinPositionSize is the floor for a single tranche when no
// per-instrument minimum is configured.
const DefaultMinPositionSize = 50.0

// MinPositionSizeFunc returns the smallest tranche worth opening for an
// instrument. Pluggable so markets with lot minimums can be modeled.
type MinPositionSizeFunc func(instrument string) float64

// FixedMinPositionSize returns a MinPositionSizeFunc with per-instrument
// overrides falling back to a default.
func FixedMinPositionSize(def float64, overrides map[string]float64) MinPositionSizeFunc {
	return func(instrument string) float64 {
		if v, ok := overrides[instrument]; ok {
			return v
		}
		return def
	}
}

// Allocator sizes new tranches. Deployable capital is split evenly across
// instruments that currently hold at least one open position; the headroom
// left for this instrument bounds the tranche.
type Allocator struct {
	minSize MinPositionSizeFunc
}

func NewAllocator(minSize MinPositionSizeFunc) *Allocator {
	if minSize == nil {
		minSize = func(string) float64 { return DefaultMinPositionSize }
	}
	return &Allocator{minSize: minSize}
}

// Size returns the capital to commit for an open signal, or ok=false when
// the allocation is rejected. Rejection is an expected outcome, not an
// error: the instrument is already at or over its even share, the headroom
// is below the instrument minimum, or committing would overdraw the balance.
func (a *Allocator) Size(l *Ledger, instrument, reason string) (amount float64, ok bool) {
	active := l.ActiveInstruments()
	if active < 1 {
		active = 1
	}
	allowed := (l.Invested() + l.Balance()) / float64(active)
	already := l.InvestedIn(instrument)
	headroom := allowed - already

	min := a.minSize(instrument)
	if allowed < already || headroom < min {
		return 0, false
	}

	// Momentum adds commit a smaller slice than dip-buys or first entries.
	amount = headroom / 2
	if reason == ReasonAbovePortfolio {
		amount = headroom / 5
	}
	if amount <= min {
		amount = headroom
	}

	if amount > l.Balance() {
		return 0, false
	}
	return amount, true
}
