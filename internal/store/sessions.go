package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/popis/internal/model"
)

const sessionColumns = `id, name, status, total_items, checked_items, created_at`

// NewItem is a manifest line ready to be stored under a session.
type NewItem struct {
	Barcode          string
	ProductName      string
	ExpectedQuantity int
}

// CreateSession inserts a single session with the given item total.
func (s *Store) CreateSession(ctx context.Context, name string, totalItems int) (*model.Session, error) {
	return s.insertSession(ctx, s.db, name, totalItems)
}

// CreateSessionWithItems inserts a session and all of its items in one
// transaction. Either everything is stored or nothing is.
func (s *Store) CreateSessionWithItems(ctx context.Context, name string, items []NewItem) (*model.Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	session, err := s.insertSession(ctx, tx, name, len(items))
	if err != nil {
		return nil, err
	}
	if err := s.insertItems(ctx, tx, session.ID, items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing session: %w", err)
	}
	return session, nil
}

func (s *Store) insertSession(ctx context.Context, q querier, name string, totalItems int) (*model.Session, error) {
	session := &model.Session{
		ID:         s.newID(),
		Name:       name,
		Status:     model.SessionInProgress,
		TotalItems: totalItems,
		CreatedAt:  s.now().UTC(),
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO inventory_sessions (id, name, status, total_items, checked_items, created_at)
		 VALUES (?, ?, ?, ?, 0, ?)`,
		session.ID, session.Name, session.Status, session.TotalItems, formatTime(session.CreatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	// Read back so the returned value reflects the stored precision.
	return getSession(ctx, q, session.ID)
}

// GetSession returns a session by ID, or ErrNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return getSession(ctx, s.db, id)
}

func getSession(ctx context.Context, q querier, id string) (*model.Session, error) {
	session, err := scanSession(q.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM inventory_sessions WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return session, nil
}

// SessionFilter narrows ListSessions. Zero fields do not filter.
type SessionFilter struct {
	CreatedSince time.Time
	Limit        int
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(ctx context.Context, f SessionFilter) ([]model.Session, error) {
	var (
		where []string
		args  []any
	)
	if !f.CreatedSince.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, formatTime(f.CreatedSince))
	}

	query := `SELECT ` + sessionColumns + ` FROM inventory_sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// SessionUpdate is a partial update. Nil fields are left unchanged.
type SessionUpdate struct {
	Status       *model.SessionStatus
	CheckedItems *int
}

// UpdateSession applies u to the session with the given ID.
func (s *Store) UpdateSession(ctx context.Context, id string, u SessionUpdate) error {
	var (
		set  []string
		args []any
	)
	if u.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *u.Status)
	}
	if u.CheckedItems != nil {
		set = append(set, "checked_items = ?")
		args = append(args, *u.CheckedItems)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE inventory_sessions SET `+strings.Join(set, ", ")+` WHERE id = ?`, args...,
	)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	return requireAffected(result)
}

// DeleteSession removes a session; its items are removed by cascade.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM inventory_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	session := &model.Session{}
	var createdAt string
	if err := row.Scan(&session.ID, &session.Name, &session.Status, &session.TotalItems,
		&session.CheckedItems, &createdAt); err != nil {
		return nil, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	session.CreatedAt = t
	return session, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
