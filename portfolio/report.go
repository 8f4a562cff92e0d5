package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoDeposits is returned by ProfitPercent before any deposit has been
// recorded; the percentage is undefined, not zero.
var ErrNoDeposits = errors.New("portfolio: no deposits recorded")

// Summary is a point-in-time view of the portfolio, derived from ledger and
// deposit state on demand.
type Summary struct {
	OpenCounts map[string]int
	Deposited  float64
	Invested   float64
	Balance    float64
	Profit     float64

	// ProfitPercent is meaningful only when HasDeposits is true.
	ProfitPercent float64
	HasDeposits   bool
}

// String renders the human-readable report: open position counts per
// instrument, then the capital totals.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("==========\n")

	instruments := make([]string, 0, len(s.OpenCounts))
	for instrument := range s.OpenCounts {
		instruments = append(instruments, instrument)
	}
	sort.Strings(instruments)
	for _, instrument := range instruments {
		fmt.Fprintf(&b, "Number of opened for %s: %d\n", instrument, s.OpenCounts[instrument])
	}

	fmt.Fprintf(&b, "Deposited: %.0f$\n", s.Deposited)
	fmt.Fprintf(&b, "Currently invested: %.0f$\n", s.Invested)
	fmt.Fprintf(&b, "Balance: %.0f$\n", s.Balance)
	if s.HasDeposits {
		fmt.Fprintf(&b, "Profit: %.0f$ (%.0f%%)\n", s.Profit, s.ProfitPercent)
	} else {
		fmt.Fprintf(&b, "Profit: %.0f$\n", s.Profit)
	}
	b.WriteString("==========")
	return b.String()
}
