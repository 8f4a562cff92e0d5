// Package portfolio implements the rule-driven capital allocation simulator:
// an ordered set of threshold rules decides when to open a new tranche for
// an instrument and when to liquidate the cheapest one, while a scheduler
// injects recurring deposits and the ledger keeps balance, invested capital
// and realized profit consistent across the run.
package portfolio

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bicklebow/bicklebow/market"
)

// Options configures a simulation run.
type Options struct {
	// InitialBalance is credited to the ledger at construction.
	InitialBalance float64

	// DepositAmount and DepositInterval drive the recurring deposit
	// scheduler. A zero amount disables deposits.
	DepositAmount   float64
	DepositInterval time.Duration

	// ReopenImmediately opens a fresh tranche right after every close,
	// against the same candle. Bounded: the reopen never triggers another
	// close within the same step.
	ReopenImmediately bool

	// MinPositionSize defaults to a flat DefaultMinPositionSize.
	MinPositionSize MinPositionSizeFunc

	// Logger is the diagnostics sink. Defaults to a no-op logger.
	Logger *zerolog.Logger
}

// Portfolio ties the rule set, ledger, allocator and deposit scheduler into
// one deterministic, single-threaded simulation. Each Portfolio owns its own
// state; runs never share ledgers.
type Portfolio struct {
	rules     *RuleSet
	ledger    *Ledger
	scheduler *DepositScheduler
	alloc     *Allocator
	reopen    bool
	log       zerolog.Logger
}

func New(rules *RuleSet, opts Options) *Portfolio {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Portfolio{
		rules:     rules,
		ledger:    NewLedger(opts.InitialBalance),
		scheduler: NewDepositScheduler(opts.DepositAmount, opts.DepositInterval),
		alloc:     NewAllocator(opts.MinPositionSize),
		reopen:    opts.ReopenImmediately,
		log:       logger,
	}
}

// Ledger exposes the run's ledger for derived reads.
func (pf *Portfolio) Ledger() *Ledger { return pf.ledger }

// DepositIfDue records a scheduled deposit and credits the balance.
func (pf *Portfolio) DepositIfDue(at time.Time) {
	if d, ok := pf.scheduler.DepositIfDue(at); ok {
		pf.ledger.Credit(d.Amount)
		pf.log.Debug().Time("at", d.Time).Float64("amount", d.Amount).Msg("deposit")
	}
}

// CheckCandle evaluates the rules for one candle and executes the resulting
// signal. Allocation rejections are expected and non-fatal; ledger failures
// indicate a logic or configuration error and abort the run.
func (pf *Portfolio) CheckCandle(c market.Candle) error {
	sig := pf.rules.Evaluate(pf.ledger.Positions(c.Instrument), c)
	switch sig.Action {
	case ActionOpen:
		return pf.open(c, sig.Reason)
	case ActionClose:
		return pf.close(c, sig.Reason)
	}
	return nil
}

func (pf *Portfolio) open(c market.Candle, reason string) error {
	amount, ok := pf.alloc.Size(pf.ledger, c.Instrument, reason)
	if !ok {
		pf.log.Debug().Str("instrument", c.Instrument).Str("reason", reason).
			Msg("already overinvested, skipping")
		return nil
	}
	p, err := pf.ledger.Open(c.Instrument, c.Open, amount, c.Time)
	if err != nil {
		return fmt.Errorf("open position: %w", err)
	}
	pf.log.Debug().Str("instrument", p.Instrument).Str("reason", reason).
		Float64("price", p.Price).Float64("value", p.Value).
		Msg("opened position")
	return nil
}

func (pf *Portfolio) close(c market.Candle, reason string) error {
	cp, err := pf.ledger.Close(c.Instrument, c.Open, c.Time)
	if err != nil {
		return fmt.Errorf("close position: %w", err)
	}
	pf.log.Debug().Str("instrument", cp.Instrument).Str("reason", reason).
		Float64("entry", cp.Price).Float64("exit", cp.ClosePrice).
		Float64("profit", cp.Profit()).
		Msg("closed position")

	// At most one re-entry per close; the reopen path never closes again
	// within the same step.
	if pf.reopen {
		return pf.open(c, ReasonImmediateReopen)
	}
	return nil
}

// Deposited is the total of all recorded deposits.
func (pf *Portfolio) Deposited() float64 { return pf.scheduler.Deposited() }

// Invested is the value of all open positions.
func (pf *Portfolio) Invested() float64 { return pf.ledger.Invested() }

// Balance is the free capital.
func (pf *Portfolio) Balance() float64 { return pf.ledger.Balance() }

// Profit is the realized profit over all closed positions.
func (pf *Portfolio) Profit() float64 { return pf.ledger.RealizedProfit() }

// ProfitPercent relates realized profit to deposited capital. Returns
// ErrNoDeposits before the first deposit; the ratio is undefined.
func (pf *Portfolio) ProfitPercent() (float64, error) {
	deposited := pf.scheduler.Deposited()
	if deposited == 0 {
		return 0, ErrNoDeposits
	}
	return pf.ledger.RealizedProfit() / deposited * 100, nil
}

// Summary captures the current state for reporting.
func (pf *Portfolio) Summary() Summary {
	s := Summary{
		OpenCounts: pf.ledger.OpenCounts(),
		Deposited:  pf.scheduler.Deposited(),
		Invested:   pf.ledger.Invested(),
		Balance:    pf.ledger.Balance(),
		Profit:     pf.ledger.RealizedProfit(),
	}
	if pct, err := pf.ProfitPercent(); err == nil {
		s.ProfitPercent = pct
		s.HasDeposits = true
	}
	return s
}
