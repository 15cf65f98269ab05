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

const itemColumns = `id, session_id, barcode, product_name, expected_quantity,
	actual_quantity, status, checked_at, created_at`

// insertItems stores pending items under sessionID. Only
// CreateSessionWithItems calls it, so total_items always matches.
func (s *Store) insertItems(ctx context.Context, q querier, sessionID string, items []NewItem) error {
	createdAt := formatTime(s.now())
	for i, item := range items {
		_, err := q.ExecContext(ctx,
			`INSERT INTO inventory_items (id, session_id, barcode, product_name, expected_quantity, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), sessionID, item.Barcode, item.ProductName, item.ExpectedQuantity, model.ItemPending, createdAt,
		)
		if err != nil {
			return fmt.Errorf("inserting item %d: %w", i+1, err)
		}
	}
	return nil
}

// GetItem returns an item by ID, or ErrNotFound.
func (s *Store) GetItem(ctx context.Context, id string) (*model.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ItemFilter narrows FindItems. Zero fields do not filter.
//
// Results are ordered by creation time, then insertion order, which makes
// the first match among same-barcode duplicates deterministic.
type ItemFilter struct {
	SessionID  string
	SessionIDs []string
	Barcode    string
	Status     model.ItemStatus
	StatusNot  model.ItemStatus
	Limit      int
}

// FindItems returns items matching f.
func (s *Store) FindItems(ctx context.Context, f ItemFilter) ([]model.Item, error) {
	var (
		where []string
		args  []any
	)
	if f.SessionID != "" {
		where = append(where, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.SessionIDs != nil {
		if len(f.SessionIDs) == 0 {
			return nil, nil
		}
		where = append(where, "session_id IN (?"+strings.Repeat(", ?", len(f.SessionIDs)-1)+")")
		for _, id := range f.SessionIDs {
			args = append(args, id)
		}
	}
	if f.Barcode != "" {
		where = append(where, "barcode = ?")
		args = append(args, f.Barcode)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.StatusNot != "" {
		where = append(where, "status != ?")
		args = append(args, f.StatusNot)
	}

	query := `SELECT ` + itemColumns + ` FROM inventory_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, rowid"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ItemUpdate is a partial update. Nil fields are left unchanged. When
// IfStatus is set the update only applies while the item still has that
// status; otherwise ErrNotFound is returned.
type ItemUpdate struct {
	ActualQuantity *int
	Status         *model.ItemStatus
	CheckedAt      *time.Time
	IfStatus       model.ItemStatus
}

// UpdateItem applies u to the item with the given ID in one statement.
func (s *Store) UpdateItem(ctx context.Context, id string, u ItemUpdate) error {
	var (
		set  []string
		args []any
	)
	if u.ActualQuantity != nil {
		set = append(set, "actual_quantity = ?")
		args = append(args, *u.ActualQuantity)
	}
	if u.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *u.Status)
	}
	if u.CheckedAt != nil {
		set = append(set, "checked_at = ?")
		args = append(args, formatTime(*u.CheckedAt))
	}
	if len(set) == 0 {
		return nil
	}

	query := `UPDATE inventory_items SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
	args = append(args, id)
	if u.IfStatus != "" {
		query += " AND status = ?"
		args = append(args, u.IfStatus)
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(result)
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var (
		actual    sql.NullInt64
		checkedAt sql.NullString
		createdAt string
	)
	if err := row.Scan(&item.ID, &item.SessionID, &item.Barcode, &item.ProductName,
		&item.ExpectedQuantity, &actual, &item.Status, &checkedAt, &createdAt); err != nil {
		return nil, err
	}

	if actual.Valid {
		v := int(actual.Int64)
		item.ActualQuantity = &v
	}
	var err error
	if item.CheckedAt, err = parseNullTime(checkedAt); err != nil {
		return nil, err
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return item, nil
}
