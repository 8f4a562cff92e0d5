package alert

import (
	"context"
	"time"
)

// Cool-down windows between repeat alerts for the same trigger. Daily-candle
// triggers re-fire after a day, monthly after thirty; portfolio and weekly
// references share the default week.
const (
	cooldownDefault = 7 * 24 * time.Hour
	cooldownDaily   = 24 * time.Hour
	cooldownMonthly = 30 * 24 * time.Hour
)

// CooldownWindow returns the suppression window for a reference kind.
func CooldownWindow(r Reference) time.Duration {
	switch r {
	case ReferenceCandleDay:
		return cooldownDaily
	case ReferenceCandleMonth:
		return cooldownMonthly
	}
	return cooldownDefault
}

// AlertLog is the slice of the store the deduplicator reads.
type AlertLog interface {
	AlertsByTrigger(ctx context.Context, triggerID string, limit int) ([]Alert, error)
}

// Deduplicator suppresses repeat alerts per trigger. Multiple triggers on
// the same instrument fire independently.
type Deduplicator struct {
	log AlertLog
	now func() time.Time
}

func NewDeduplicator(log AlertLog) *Deduplicator {
	return &Deduplicator{log: log, now: time.Now}
}

// ShouldIgnore reports whether a prior alert for this trigger falls inside
// its cool-down window.
func (d *Deduplicator) ShouldIgnore(ctx context.Context, t Trigger) (bool, error) {
	alerts, err := d.log.AlertsByTrigger(ctx, t.ID, 10)
	if err != nil {
		return false, err
	}
	cutoff := d.now().Add(-CooldownWindow(t.Reference))
	for _, a := range alerts {
		if a.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}
