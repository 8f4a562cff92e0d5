// Package store persists users, triggers and alerts. The SQLite
// implementation is the durable store; Memory backs tests and dry runs.
// Writes are visible to the next read in the same process, which is all the
// monitor requires.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bicklebow/bicklebow/alert"
	"github.com/bicklebow/bicklebow/internal/id"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) CreateUser(ctx context.Context, u *alert.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, chat_id) VALUES (?, ?)`,
		u.Username, u.ChatID,
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) Users(ctx context.Context) ([]alert.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, username, chat_id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []alert.User
	for rows.Next() {
		var u alert.User
		if err := rows.Scan(&u.ID, &u.Username, &u.ChatID); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLite) UserByUsername(ctx context.Context, username string) (alert.User, error) {
	var u alert.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, chat_id FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.ChatID)
	if err == sql.ErrNoRows {
		return alert.User{}, fmt.Errorf("user %q not found", username)
	}
	return u, err
}

func (s *SQLite) CreateTrigger(ctx context.Context, t *alert.Trigger) error {
	if t.ID == "" {
		t.ID = id.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO triggers
		(trigger_id, user_id, instrument, reference, direction, threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Instrument, string(t.Reference), string(t.Direction),
		t.Threshold, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create trigger: %w", err)
	}
	return nil
}

func (s *SQLite) TriggersByUser(ctx context.Context, userID int64) ([]alert.Trigger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trigger_id, user_id, instrument, reference, direction, threshold, created_at
		FROM triggers WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list triggers: %w", err)
	}
	defer rows.Close()

	var triggers []alert.Trigger
	for rows.Next() {
		var t alert.Trigger
		var reference, direction string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Instrument, &reference, &direction,
			&t.Threshold, &t.CreatedAt); err != nil {
			return nil, err
		}
		if t.Reference, err = alert.ParseReference(reference); err != nil {
			return nil, err
		}
		if t.Direction, err = alert.ParseDirection(direction); err != nil {
			return nil, err
		}
		triggers = append(triggers, t)
	}
	return triggers, rows.Err()
}

func (s *SQLite) DeleteTrigger(ctx context.Context, triggerID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM triggers WHERE trigger_id = ?`, triggerID)
	if err != nil {
		return fmt.Errorf("delete trigger: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteTriggersByInstrument(ctx context.Context, userID int64, instrument string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM triggers WHERE user_id = ? AND instrument = ?`,
		userID, instrument,
	)
	if err != nil {
		return fmt.Errorf("delete triggers for %s: %w", instrument, err)
	}
	return nil
}

func (s *SQLite) SaveAlert(ctx context.Context, a alert.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (alert_id, user_id, trigger_id, created_at)
		VALUES (?, ?, ?, ?)`,
		a.ID, a.UserID, a.TriggerID, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save alert: %w", err)
	}
	return nil
}

func (s *SQLite) AlertsByTrigger(ctx context.Context, triggerID string, limit int) ([]alert.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT alert_id, user_id, trigger_id, created_at
		FROM alerts WHERE trigger_id = ?
		ORDER BY created_at DESC LIMIT ?`,
		triggerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return scanAlerts(rows)
}

func (s *SQLite) AlertsByUser(ctx context.Context, userID int64, limit int) ([]alert.Alert, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT alert_id, user_id, trigger_id, created_at
		FROM alerts WHERE user_id = ?
		ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return scanAlerts(rows)
}

func scanAlerts(rows *sql.Rows) ([]alert.Alert, error) {
	defer rows.Close()

	var alerts []alert.Alert
	for rows.Next() {
		var a alert.Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.TriggerID, &a.CreatedAt); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
