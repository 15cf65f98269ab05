package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/erazemk/popis/internal/barcode"
	"github.com/erazemk/popis/internal/metrics"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/notify"
	"github.com/erazemk/popis/internal/store"
)

// Scan looks up the pending item for a scanned or typed code. It does not
// change any state; the returned item awaits AcceptCount.
//
// Among pending items sharing the barcode, the earliest created (then first
// inserted) is returned. When no pending item exists, ErrAlreadyChecked
// means the barcode is on the manifest but every copy is counted, and
// ErrNotOnManifest means it is not listed at all.
func (e *Engine) Scan(ctx context.Context, sessionID, raw string) (*model.Item, error) {
	item, err := e.scan(ctx, sessionID, raw)
	metrics.ScansTotal.WithLabelValues(scanOutcome(err)).Inc()
	return item, err
}

func (e *Engine) scan(ctx context.Context, sessionID, raw string) (*model.Item, error) {
	if _, err := e.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	code := barcode.Normalize(raw)
	if code == "" {
		return nil, ErrNotOnManifest
	}

	pending, err := e.store.FindItems(ctx, store.ItemFilter{
		SessionID: sessionID,
		Barcode:   code,
		Status:    model.ItemPending,
		Limit:     1,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "finding pending item", Err: err}
	}
	if len(pending) > 0 {
		return &pending[0], nil
	}

	checked, err := e.store.FindItems(ctx, store.ItemFilter{
		SessionID: sessionID,
		Barcode:   code,
		StatusNot: model.ItemPending,
		Limit:     1,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "finding checked item", Err: err}
	}
	if len(checked) > 0 {
		return nil, ErrAlreadyChecked
	}
	return nil, ErrNotOnManifest
}

func scanOutcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, ErrAlreadyChecked):
		return "already_checked"
	case errors.Is(err, ErrNotOnManifest):
		return "not_on_manifest"
	default:
		return "error"
	}
}

// Result is the outcome of an accepted count.
type Result struct {
	Item    *model.Item    `json:"item"`
	Session *model.Session `json:"session"`
	// Difference is actual minus expected quantity.
	Difference int `json:"difference"`
}

// AcceptCount records the counted quantity for a pending item, classifies
// it, and advances the owning session's counter.
//
// The item update is a single guarded statement: if it fails nothing has
// changed. The session counter is read and written afterwards without a
// lock, so two concurrent accepts in one session can lose an increment.
// A mismatch is handed to the notifier once the item is stored, even if the
// session update then fails; its delivery has no effect on the result.
func (e *Engine) AcceptCount(ctx context.Context, itemID string, counted int) (*Result, error) {
	if counted < 0 {
		return nil, ErrInvalidQuantity
	}

	item, err := e.store.GetItem(ctx, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "getting item", Err: err}
	}
	if item.Status != model.ItemPending {
		return nil, ErrAlreadyChecked
	}

	status := model.StatusFor(item.ExpectedQuantity, counted)
	checkedAt := e.now().UTC()
	err = e.store.UpdateItem(ctx, item.ID, store.ItemUpdate{
		ActualQuantity: &counted,
		Status:         &status,
		CheckedAt:      &checkedAt,
		IfStatus:       model.ItemPending,
	})
	if errors.Is(err, store.ErrNotFound) {
		// Checked by someone else between the read and the update.
		return nil, ErrAlreadyChecked
	}
	if err != nil {
		return nil, &PersistenceError{Op: "saving count", Err: err}
	}

	item.ActualQuantity = &counted
	item.Status = status
	item.CheckedAt = &checkedAt
	metrics.CountsTotal.WithLabelValues(string(status)).Inc()

	session, err := e.advanceSession(ctx, item.SessionID)

	if status == model.ItemMismatched {
		// The item is stored; the session name is best effort.
		var sessionName string
		if session != nil {
			sessionName = session.Name
		}
		e.notifier.NotifyMismatch(notify.Mismatch{
			Status:           string(model.ItemMismatched),
			ProductName:      item.ProductName,
			Barcode:          item.Barcode,
			ExpectedQuantity: item.ExpectedQuantity,
			ActualQuantity:   counted,
			SessionName:      sessionName,
		})
	}

	if err != nil {
		return nil, &PersistenceError{Op: "updating session progress", Err: err, Committed: true}
	}

	slog.Info("item counted", "session", session.ID, "barcode", item.Barcode,
		"expected", item.ExpectedQuantity, "actual", counted, "status", status)

	return &Result{Item: item, Session: session, Difference: item.Difference()}, nil
}

// advanceSession counts one more checked item and recomputes the status.
// When only the write fails, the session as read is returned with the error.
func (e *Engine) advanceSession(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	checked := min(session.CheckedItems+1, session.TotalItems)
	status := model.SessionInProgress
	if checked >= session.TotalItems || session.Status == model.SessionCompleted {
		status = model.SessionCompleted
	}

	if err := e.store.UpdateSession(ctx, sessionID, store.SessionUpdate{
		CheckedItems: &checked,
		Status:       &status,
	}); err != nil {
		return session, err
	}

	session.CheckedItems = checked
	session.Status = status
	return session, nil
}
