package portfolio

import (
	"fmt"
	"time"

	"github.com/bicklebow/bicklebow/internal/id"
)

// Position is one open tranche of committed capital.
// Immutable once created; the ledger owns it until it is closed.
type Position struct {
	ID         string
	Instrument string
	Price      float64 // entry price
	Value      float64 // committed capital
	Time       time.Time
}

// ClosedPosition wraps a former Position with its close fill.
type ClosedPosition struct {
	Position
	ClosePrice float64
	CloseTime  time.Time
}

// Profit is the realized gain of this tranche. Can be negative: the close
// rule guards the trigger condition, not the outcome.
func (cp ClosedPosition) Profit() float64 {
	return cp.ClosePrice/cp.Price*cp.Value - cp.Value
}

// Ledger is the authoritative in-memory record of open positions, closed
// history and balance. Each simulation run owns its own Ledger; all state is
// constructed per instance, never shared.
type Ledger struct {
	balance   float64
	positions map[string][]Position
	history   []ClosedPosition
}

func NewLedger(initialBalance float64) *Ledger {
	return &Ledger{
		balance:   initialBalance,
		positions: make(map[string][]Position),
	}
}

func (l *Ledger) Balance() float64 { return l.balance }

// Credit adds funds to the balance (deposits and close proceeds).
func (l *Ledger) Credit(amount float64) { l.balance += amount }

// Open appends a new position and deducts its value from the balance.
// A non-positive value is a logic error, fatal to the run.
func (l *Ledger) Open(instrument string, price, value float64, at time.Time) (Position, error) {
	if value <= 0 {
		return Position{}, fmt.Errorf("open %s: position value must be positive, got %v", instrument, value)
	}
	p := Position{
		ID:         id.New(),
		Instrument: instrument,
		Price:      price,
		Value:      value,
		Time:       at,
	}
	l.positions[instrument] = append(l.positions[instrument], p)
	l.balance -= value
	return p, nil
}

// Close removes the open position with the minimum entry price for the
// instrument, appends it to the history and credits the balance with its
// value plus realized profit. Exactly one position is removed per call.
func (l *Ledger) Close(instrument string, closePrice float64, at time.Time) (ClosedPosition, error) {
	open := l.positions[instrument]
	if len(open) == 0 {
		return ClosedPosition{}, fmt.Errorf("close %s: no open positions", instrument)
	}

	minIdx := 0
	for i, p := range open[1:] {
		if p.Price < open[minIdx].Price {
			minIdx = i + 1
		}
	}

	cp := ClosedPosition{
		Position:   open[minIdx],
		ClosePrice: closePrice,
		CloseTime:  at,
	}
	l.positions[instrument] = append(open[:minIdx:minIdx], open[minIdx+1:]...)
	l.history = append(l.history, cp)

	l.balance += cp.Value
	l.balance += cp.Profit()
	return cp, nil
}

// Positions returns the open positions for one instrument.
func (l *Ledger) Positions(instrument string) []Position {
	return l.positions[instrument]
}

// Invested is the sum of all open position values across instruments.
// Derived on demand, never cached.
func (l *Ledger) Invested() float64 {
	var total float64
	for _, open := range l.positions {
		for _, p := range open {
			total += p.Value
		}
	}
	return total
}

// InvestedIn is the sum of open position values for one instrument.
func (l *Ledger) InvestedIn(instrument string) float64 {
	var total float64
	for _, p := range l.positions[instrument] {
		total += p.Value
	}
	return total
}

// ActiveInstruments counts instruments that currently hold at least one open
// position. Instruments whose positions have all been closed do not count.
func (l *Ledger) ActiveInstruments() int {
	n := 0
	for _, open := range l.positions {
		if len(open) > 0 {
			n++
		}
	}
	return n
}

// OpenCounts reports the number of open positions per instrument.
func (l *Ledger) OpenCounts() map[string]int {
	counts := make(map[string]int, len(l.positions))
	for instrument, open := range l.positions {
		if len(open) > 0 {
			counts[instrument] = len(open)
		}
	}
	return counts
}

// History returns the closed positions, oldest first. Append-only.
func (l *Ledger) History() []ClosedPosition { return l.history }

// RealizedProfit sums the profit of every closed position.
func (l *Ledger) RealizedProfit() float64 {
	var total float64
	for _, cp := range l.history {
		total += cp.Profit()
	}
	return total
}
