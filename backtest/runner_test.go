package backtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bicklebow/bicklebow/market"
	"github.com/bicklebow/bicklebow/portfolio"
)

func testHistory(t *testing.T, candles ...market.Candle) *History {
	t.Helper()
	h := NewHistory()
	byInstrument := map[string][]market.Candle{}
	for _, c := range candles {
		byInstrument[c.Instrument] = append(byInstrument[c.Instrument], c)
	}
	for instrument, cs := range byInstrument {
		require.NoError(t, h.Load(instrument, &sliceFeed{candles: cs}))
	}
	return h
}

type sliceFeed struct {
	candles []market.Candle
	pos     int
}

func (f *sliceFeed) Next() (market.Candle, bool, error) {
	if f.pos >= len(f.candles) {
		return market.Candle{}, false, nil
	}
	c := f.candles[f.pos]
	f.pos++
	return c, true, nil
}

func (f *sliceFeed) Close() error { return nil }

func candle(instrument string, at time.Time, open float64) market.Candle {
	return market.Candle{Instrument: instrument, Time: at, Open: open, High: open, Low: open, Close: open}
}

func newRunPortfolio(t *testing.T) *portfolio.Portfolio {
	t.Helper()
	rules, err := portfolio.NewRuleSet(
		portfolio.OpenRule{Threshold: 0.15},
		portfolio.CloseRule{Threshold: 0.2},
		portfolio.OpenRule{Threshold: -0.1},
	)
	require.NoError(t, err)
	return portfolio.New(rules, portfolio.Options{
		DepositAmount:   1000,
		DepositInterval: portfolio.DefaultDepositInterval,
	})
}

func TestRunnerReplaysDeterministically(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	h := testHistory(t,
		candle("TSLA", start, 100),
		candle("TSLA", start.Add(time.Hour), 108), // no threshold crossed, gap afterwards
		candle("AAPL", start, 50),
	)

	r := Runner{
		Portfolio: newRunPortfolio(t),
		History:   h,
		Start:     start,
		End:       start.Add(4 * time.Hour),
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Steps)
	assert.Equal(t, 3, res.Candles) // gaps are no-ops, not errors
	assert.Equal(t, 1000.0, res.Summary.Deposited)
	assert.Equal(t, map[string]int{"AAPL": 1, "TSLA": 1}, res.Summary.OpenCounts)

	// Conservation over the whole replay.
	l := r.Portfolio.Ledger()
	var opened, closedBack float64
	for _, cp := range l.History() {
		opened += cp.Value
		closedBack += cp.Value + cp.Profit()
	}
	opened += l.Invested()
	assert.InDelta(t, 1000-opened+closedBack, l.Balance(), 1e-9)
}

func TestRunnerClosesCheapestTranche(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	h := testHistory(t,
		candle("TSLA", start, 100),                  // first position, 500
		candle("TSLA", start.Add(time.Hour), 85),    // dip buy below 100*0.9
		candle("TSLA", start.Add(2*time.Hour), 110), // above cheapest 85*1.2, below 100*1.15
	)

	r := Runner{
		Portfolio: newRunPortfolio(t),
		History:   h,
		Start:     start,
		End:       start.Add(3 * time.Hour),
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Candles)

	l := r.Portfolio.Ledger()
	require.Len(t, l.History(), 1)
	assert.Equal(t, 85.0, l.History()[0].Price) // cheapest-first, not FIFO
	assert.Equal(t, 110.0, l.History()[0].ClosePrice)
	require.Len(t, l.Positions("TSLA"), 1)
	assert.Equal(t, 100.0, l.Positions("TSLA")[0].Price)
}

func TestRunnerDepositsOncePerInterval(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r := Runner{
		Portfolio: newRunPortfolio(t),
		History:   NewHistory(),
		Start:     start,
		End:       start.Add(45 * 24 * time.Hour),
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// One deposit at the first step, one once 30 days have passed.
	assert.Equal(t, 2000.0, res.Summary.Deposited)
	assert.Equal(t, 0, res.Candles)
}

func TestRunnerValidation(t *testing.T) {
	t.Parallel()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := (&Runner{History: NewHistory(), Start: start, End: start.Add(time.Hour)}).Run(context.Background())
	assert.Error(t, err)

	_, err = (&Runner{Portfolio: newRunPortfolio(t), Start: start, End: start.Add(time.Hour)}).Run(context.Background())
	assert.Error(t, err)

	_, err = (&Runner{Portfolio: newRunPortfolio(t), History: NewHistory(), Start: start, End: start}).Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r := Runner{
		Portfolio: newRunPortfolio(t),
		History:   NewHistory(),
		Start:     start,
		End:       start.Add(time.Hour),
	}
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
