package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// ItemStatus is the reconciliation state of a manifest line item.
// Pending is initial; matched and mismatched are terminal.
type ItemStatus string

// Item statuses.
const (
	ItemPending    ItemStatus = "pending"
	ItemMatched    ItemStatus = "matched"
	ItemMismatched ItemStatus = "mismatched"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemMatched, ItemMismatched:
		return true
	}
	return false
}

// Checked reports whether the item has left the pending state.
func (s ItemStatus) Checked() bool {
	return s == ItemMatched || s == ItemMismatched
}

// Scan implements sql.Scanner and rejects unknown values.
func (s *ItemStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scanning item status: %w", err)
	}
	st := ItemStatus(v)
	if !st.Valid() {
		return fmt.Errorf("unknown item status %q", v)
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s ItemStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown item status %q", string(s))
	}
	return string(s), nil
}

// StatusFor classifies a counted quantity against the expected one.
func StatusFor(expected, actual int) ItemStatus {
	if actual == expected {
		return ItemMatched
	}
	return ItemMismatched
}

// Item is one expected line of a manifest and its counted result.
type Item struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	Barcode          string     `json:"barcode"`
	ProductName      string     `json:"product_name"`
	ExpectedQuantity int        `json:"expected_quantity"`
	ActualQuantity   *int       `json:"actual_quantity"`
	Status           ItemStatus `json:"status"`
	CheckedAt        *time.Time `json:"checked_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Difference returns actual minus expected quantity, or 0 while pending.
func (i *Item) Difference() int {
	if i.ActualQuantity == nil {
		return 0
	}
	return *i.ActualQuantity - i.ExpectedQuantity
}
