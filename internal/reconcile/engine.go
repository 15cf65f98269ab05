// Package reconcile matches scanned barcodes against a session's manifest
// and records counted quantities.
//
// Each item moves from pending to matched or mismatched exactly once. The
// session's checked counter is a read-modify-write after the item update and
// is not protected against concurrent writers in the same session; the tool
// assumes one operator scanning serially.
package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/popis/internal/barcode"
	"github.com/erazemk/popis/internal/manifest"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/notify"
	"github.com/erazemk/popis/internal/store"
)

// Store is the persistence the engine needs. *store.Store implements it.
type Store interface {
	CreateSessionWithItems(ctx context.Context, name string, items []store.NewItem) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, f store.SessionFilter) ([]model.Session, error)
	UpdateSession(ctx context.Context, id string, u store.SessionUpdate) error
	DeleteSession(ctx context.Context, id string) error
	GetItem(ctx context.Context, id string) (*model.Item, error)
	FindItems(ctx context.Context, f store.ItemFilter) ([]model.Item, error)
	UpdateItem(ctx context.Context, id string, u store.ItemUpdate) error
}

// Engine runs scans and counts against a store.
type Engine struct {
	store    Store
	notifier notify.Notifier
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for checked_at and default names.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine. A nil notifier discards notifications.
func New(s Store, n notify.Notifier, opts ...Option) *Engine {
	if n == nil {
		n = notify.Nop{}
	}
	e := &Engine{store: s, notifier: n, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultSessionName is the name given to a session created without one.
func (e *Engine) DefaultSessionName() string {
	return e.now().Format("2006-01-02") + " 재고 확인"
}

// CreateSession stores a session together with its manifest lines as
// pending items. Lines without a barcode or product name are skipped, as
// the parsers do. Nothing is stored if any part fails.
func (e *Engine) CreateSession(ctx context.Context, name string, lines []manifest.Line) (*model.Session, error) {
	items := make([]store.NewItem, 0, len(lines))
	for _, l := range lines {
		code := barcode.Normalize(l.Barcode)
		product := strings.TrimSpace(l.ProductName)
		if code == "" || product == "" {
			continue
		}
		items = append(items, store.NewItem{
			Barcode:          code,
			ProductName:      product,
			ExpectedQuantity: max(l.ExpectedQuantity, 0),
		})
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = e.DefaultSessionName()
	}

	session, err := e.store.CreateSessionWithItems(ctx, name, items)
	if err != nil {
		return nil, &PersistenceError{Op: "creating session", Err: err}
	}
	slog.Info("session created", "session", session.ID, "name", session.Name, "items", session.TotalItems)
	return session, nil
}

// GetSession returns a session by id.
func (e *Engine) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session, err := e.store.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "getting session", Err: err}
	}
	return session, nil
}

// ListSessions returns all sessions, newest first.
func (e *Engine) ListSessions(ctx context.Context) ([]model.Session, error) {
	sessions, err := e.store.ListSessions(ctx, store.SessionFilter{})
	if err != nil {
		return nil, &PersistenceError{Op: "listing sessions", Err: err}
	}
	return sessions, nil
}

// ListItems returns a session's items in manifest order, optionally only
// those with the given status.
func (e *Engine) ListItems(ctx context.Context, sessionID string, status model.ItemStatus) ([]model.Item, error) {
	if _, err := e.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	items, err := e.store.FindItems(ctx, store.ItemFilter{SessionID: sessionID, Status: status})
	if err != nil {
		return nil, &PersistenceError{Op: "listing items", Err: err}
	}
	return items, nil
}

// CompleteSession marks a session completed regardless of its counters.
func (e *Engine) CompleteSession(ctx context.Context, id string) (*model.Session, error) {
	completed := model.SessionCompleted
	err := e.store.UpdateSession(ctx, id, store.SessionUpdate{Status: &completed})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "completing session", Err: err}
	}
	slog.Info("session force-completed", "session", id)
	return e.GetSession(ctx, id)
}

// DeleteSession removes a session and all of its items.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	err := e.store.DeleteSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return &PersistenceError{Op: "deleting session", Err: err}
	}
	slog.Info("session deleted", "session", id)
	return nil
}
