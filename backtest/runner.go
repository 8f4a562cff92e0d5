// Package backtest replays historical candles through a portfolio
// simulation: a fixed-step walk over a time window where each step first
// checks the deposit schedule, then feeds every instrument's candle at that
// timestamp through the rule set.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/bicklebow/bicklebow/portfolio"
)

// DefaultStep matches hourly candle files.
const DefaultStep = time.Hour

// Result summarizes a completed replay.
type Result struct {
	Start   time.Time
	End     time.Time
	Steps   int
	Candles int
	Summary portfolio.Summary
}

// Runner drives a Portfolio forward over a History. Deterministic: steps
// advance in strictly increasing timestamps, instruments in lexicographic
// order, and each instrument's evaluation and ledger mutation complete
// before the next one is considered.
type Runner struct {
	Portfolio *portfolio.Portfolio
	History   *History

	Start time.Time
	End   time.Time
	Step  time.Duration
}

// Run executes the replay loop:
//  1. deposit check for the step's timestamp
//  2. for each instrument with a candle at that timestamp, evaluate rules
//     and execute the signal
//
// Ledger failures are configuration or logic errors and abort the run.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Portfolio == nil {
		return Result{}, fmt.Errorf("backtest: Portfolio is required")
	}
	if r.History == nil {
		return Result{}, fmt.Errorf("backtest: History is required")
	}
	if !r.Start.Before(r.End) {
		return Result{}, fmt.Errorf("backtest: start %s must precede end %s", r.Start, r.End)
	}
	step := r.Step
	if step <= 0 {
		step = DefaultStep
	}

	instruments := r.History.Instruments()
	res := Result{Start: r.Start, End: r.End}

	for ts := r.Start; ts.Before(r.End); ts = ts.Add(step) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Steps++

		r.Portfolio.DepositIfDue(ts)
		for _, instrument := range instruments {
			c, ok := r.History.At(instrument, ts)
			if !ok {
				continue
			}
			if err := r.Portfolio.CheckCandle(c); err != nil {
				return res, fmt.Errorf("step %s: %w", ts.Format(time.RFC3339), err)
			}
			res.Candles++
		}
	}

	res.Summary = r.Portfolio.Summary()
	return res, nil
}
