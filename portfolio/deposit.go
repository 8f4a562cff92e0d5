package portfolio

import "time"

// DefaultDepositInterval matches a monthly paycheck cadence.
const DefaultDepositInterval = 30 * 24 * time.Hour

// Deposit is one recurring capital injection. Append-only log.
type Deposit struct {
	Time   time.Time
	Amount float64
}

// DepositScheduler records a fixed deposit whenever the configured interval
// has elapsed since the most recent one.
type DepositScheduler struct {
	amount   float64
	interval time.Duration
	deposits []Deposit
}

func NewDepositScheduler(amount float64, interval time.Duration) *DepositScheduler {
	if interval <= 0 {
		interval = DefaultDepositInterval
	}
	return &DepositScheduler{amount: amount, interval: interval}
}

// DepositIfDue records a new deposit when none exists yet, or when the most
// recent deposit is older than the interval. Recency is judged against the
// deposit with the maximum timestamp, not insertion order.
func (s *DepositScheduler) DepositIfDue(at time.Time) (Deposit, bool) {
	if s.amount <= 0 {
		return Deposit{}, false
	}
	if latest, ok := s.latest(); ok && !latest.Time.Add(s.interval).Before(at) {
		return Deposit{}, false
	}
	d := Deposit{Time: at, Amount: s.amount}
	s.deposits = append(s.deposits, d)
	return d, true
}

func (s *DepositScheduler) latest() (Deposit, bool) {
	if len(s.deposits) == 0 {
		return Deposit{}, false
	}
	latest := s.deposits[0]
	for _, d := range s.deposits[1:] {
		if d.Time.After(latest.Time) {
			latest = d
		}
	}
	return latest, true
}

// Deposited is the total capital contributed so far.
func (s *DepositScheduler) Deposited() float64 {
	var total float64
	for _, d := range s.deposits {
		total += d.Amount
	}
	return total
}

// Deposits returns the append-only deposit log.
func (s *DepositScheduler) Deposits() []Deposit { return s.deposits }
