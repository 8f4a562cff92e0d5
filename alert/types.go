package alert

import (
	"fmt"
	"time"
)

// Reference is the price a trigger compares the current price against.
type Reference string

const (
	// ReferencePortfolio compares against the average entry price of the
	// user's holding.
	ReferencePortfolio Reference = "PORTFOLIO"

	// Candle references compare against the aggregate price over the past
	// day, week or month.
	ReferenceCandleDay   Reference = "CANDLE_1D"
	ReferenceCandleWeek  Reference = "CANDLE_1W"
	ReferenceCandleMonth Reference = "CANDLE_1M"
)

// ParseReference validates a stored reference kind. An unknown kind is a
// configuration error, never a silent non-match.
func ParseReference(s string) (Reference, error) {
	switch r := Reference(s); r {
	case ReferencePortfolio, ReferenceCandleDay, ReferenceCandleWeek, ReferenceCandleMonth:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReference, s)
}

// Direction restricts a trigger to price moves one way.
type Direction string

const (
	DirectionIncrease Direction = "INCREASE"
	DirectionDecrease Direction = "DECREASE"
)

func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case DirectionIncrease, DirectionDecrease:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// User is a registered account that owns triggers and receives alerts.
type User struct {
	ID       int64
	Username string
	ChatID   string
}

// Trigger is a persisted user-defined alerting rule. An empty Instrument
// means the trigger applies to every holding.
type Trigger struct {
	ID         string
	UserID     int64
	Instrument string
	Reference  Reference
	Direction  Direction
	Threshold  float64 // percent
	CreatedAt  time.Time
}

// Description renders the trigger the way it is shown to the user, and is
// used as the alert text body.
func (t Trigger) Description() string {
	action := "increased"
	if t.Direction == DirectionDecrease {
		action = "dropped"
	}
	reference := "from portfolio"
	switch t.Reference {
	case ReferenceCandleDay:
		reference = "in a day"
	case ReferenceCandleWeek:
		reference = "in a week"
	case ReferenceCandleMonth:
		reference = "in a month"
	}
	return fmt.Sprintf("%s by more than %v%% %s", titleCase(action), t.Threshold, reference)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

// Alert records one delivered notification. Append-only: the log doubles as
// user-facing history and as the dedup source.
type Alert struct {
	ID        string
	UserID    int64
	TriggerID string
	CreatedAt time.Time
}

// Snapshot is one live holding as reported by the brokerage: current market
// price plus every reference price a trigger may compare against.
type Snapshot struct {
	Name           string
	Instrument     string
	CurrentPrice   float64
	PortfolioPrice float64
	CandlePrices   map[Reference]float64
}
