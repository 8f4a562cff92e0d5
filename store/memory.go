package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bicklebow/bicklebow/alert"
	"github.com/bicklebow/bicklebow/internal/id"
)

// Memory is an in-process store with the same observable behavior as the
// SQLite implementation. One mutex guards everything, so a trigger's
// suppression check and alert write can never interleave across goroutines.
type Memory struct {
	mu       sync.Mutex
	nextUser int64
	users    []alert.User
	triggers []alert.Trigger
	alerts   []alert.Alert
}

func NewMemory() *Memory {
	return &Memory{nextUser: 1}
}

func (m *Memory) CreateUser(_ context.Context, u *alert.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextUser
	m.nextUser++
	m.users = append(m.users, *u)
	return nil
}

func (m *Memory) Users(context.Context) ([]alert.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]alert.User(nil), m.users...), nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (alert.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return alert.User{}, fmt.Errorf("user %q not found", username)
}

func (m *Memory) CreateTrigger(_ context.Context, t *alert.Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = id.New()
	}
	m.triggers = append(m.triggers, *t)
	return nil
}

func (m *Memory) TriggersByUser(_ context.Context, userID int64) ([]alert.Trigger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []alert.Trigger
	for _, t := range m.triggers {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *Memory) DeleteTrigger(_ context.Context, triggerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.triggers[:0]
	for _, t := range m.triggers {
		if t.ID != triggerID {
			kept = append(kept, t)
		}
	}
	m.triggers = kept
	return nil
}

func (m *Memory) DeleteTriggersByInstrument(_ context.Context, userID int64, instrument string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.triggers[:0]
	for _, t := range m.triggers {
		if t.UserID == userID && t.Instrument == instrument {
			continue
		}
		kept = append(kept, t)
	}
	m.triggers = kept
	return nil
}

func (m *Memory) SaveAlert(_ context.Context, a alert.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *Memory) AlertsByTrigger(_ context.Context, triggerID string, limit int) ([]alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []alert.Alert
	for _, a := range m.alerts {
		if a.TriggerID == triggerID {
			out = append(out, a)
		}
	}
	return newestFirst(out, limit), nil
}

func (m *Memory) AlertsByUser(_ context.Context, userID int64, limit int) ([]alert.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []alert.Alert
	for _, a := range m.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return newestFirst(out, limit), nil
}

func newestFirst(alerts []alert.Alert, limit int) []alert.Alert {
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}
	return alerts
}
