package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bicklebow/bicklebow/internal/id"
	"github.com/bicklebow/bicklebow/notify"
)

// Store is what the monitor needs from persistence: create/read/delete by
// filter, visible immediately to the next read in the same process.
type Store interface {
	AlertLog

	Users(ctx context.Context) ([]User, error)
	TriggersByUser(ctx context.Context, userID int64) ([]Trigger, error)
	DeleteTriggersByInstrument(ctx context.Context, userID int64, instrument string) error
	SaveAlert(ctx context.Context, a Alert) error
}

// SnapshotSource supplies the live holdings for a user, priced by the
// brokerage. Out of scope here beyond the interface.
type SnapshotSource interface {
	Positions(ctx context.Context, u User) ([]Snapshot, error)
}

// Monitor runs one evaluation cycle: for every user, fetch the portfolio
// snapshot once, drop triggers bound to instruments the user no longer
// holds, then evaluate each (position, trigger) pair. Per user, evaluation,
// suppression check and alert write happen as one uninterrupted unit, so a
// trigger can never double-notify within a cycle.
type Monitor struct {
	store    Store
	source   SnapshotSource
	notifier notify.Notifier
	dedup    *Deduplicator
	log      zerolog.Logger
	now      func() time.Time
}

func NewMonitor(store Store, source SnapshotSource, notifier notify.Notifier, log zerolog.Logger) *Monitor {
	return &Monitor{
		store:    store,
		source:   source,
		notifier: notifier,
		dedup:    NewDeduplicator(store),
		log:      log,
		now:      time.Now,
	}
}

// Run evaluates every registered user. A failure for one user does not
// abort the others; the errors are joined and returned together.
func (m *Monitor) Run(ctx context.Context) error {
	users, err := m.store.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	var errs []error
	for _, u := range users {
		if err := m.RunUser(ctx, u); err != nil {
			m.log.Error().Err(err).Int64("user_id", u.ID).Msg("trigger evaluation failed")
			errs = append(errs, fmt.Errorf("user %d: %w", u.ID, err))
		}
	}
	return errors.Join(errs...)
}

// RunUser evaluates a single user's triggers against their live holdings.
func (m *Monitor) RunUser(ctx context.Context, u User) error {
	triggers, err := m.store.TriggersByUser(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("list triggers: %w", err)
	}
	positions, err := m.source.Positions(ctx, u)
	if err != nil {
		return fmt.Errorf("fetch positions: %w", err)
	}

	triggers, err = m.cleanUnusedTriggers(ctx, u, triggers, positions)
	if err != nil {
		return err
	}

	for _, pos := range positions {
		for _, t := range triggers {
			fired, err := IsTriggered(t, pos)
			if err != nil {
				return err
			}
			if !fired {
				continue
			}
			ignore, err := m.dedup.ShouldIgnore(ctx, t)
			if err != nil {
				return err
			}
			if ignore {
				m.log.Debug().Str("trigger_id", t.ID).Str("instrument", pos.Instrument).
					Msg("alert suppressed by cool-down")
				continue
			}
			if err := m.emit(ctx, u, t, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// cleanUnusedTriggers deletes instrument-bound triggers for instruments the
// user no longer holds and returns the triggers that remain relevant.
func (m *Monitor) cleanUnusedTriggers(ctx context.Context, u User, triggers []Trigger, positions []Snapshot) ([]Trigger, error) {
	held := make(map[string]bool, len(positions))
	for _, p := range positions {
		held[p.Instrument] = true
	}

	kept := triggers[:0]
	for _, t := range triggers {
		if t.Instrument != "" && !held[t.Instrument] {
			if err := m.store.DeleteTriggersByInstrument(ctx, u.ID, t.Instrument); err != nil {
				return nil, fmt.Errorf("delete unused trigger: %w", err)
			}
			m.log.Debug().Str("trigger_id", t.ID).Str("instrument", t.Instrument).
				Msg("deleted trigger for instrument no longer held")
			continue
		}
		kept = append(kept, t)
	}
	return kept, nil
}

// emit sends the notification and records the alert. A failed send skips
// the record so the trigger is retried on the next cycle.
func (m *Monitor) emit(ctx context.Context, u User, t Trigger, pos Snapshot) error {
	text := fmt.Sprintf("%s\n%s", pos.Name, t.Description())
	if err := m.notifier.Send(ctx, u.ChatID, text); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	a := Alert{
		ID:        id.New(),
		UserID:    u.ID,
		TriggerID: t.ID,
		CreatedAt: m.now(),
	}
	if err := m.store.SaveAlert(ctx, a); err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	m.log.Info().Str("trigger_id", t.ID).Int64("user_id", u.ID).
		Str("instrument", pos.Instrument).Msg("alert sent")
	return nil
}
