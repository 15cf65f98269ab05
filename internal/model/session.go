package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// SessionStatus is the lifecycle state of a reconciliation session.
type SessionStatus string

// Session statuses.
const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Valid reports whether s is a known session status.
func (s SessionStatus) Valid() bool {
	return s == SessionInProgress || s == SessionCompleted
}

// Scan implements sql.Scanner and rejects unknown values.
func (s *SessionStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return fmt.Errorf("scanning session status: %w", err)
	}
	st := SessionStatus(v)
	if !st.Valid() {
		return fmt.Errorf("unknown session status %q", v)
	}
	*s = st
	return nil
}

// Value implements driver.Valuer.
func (s SessionStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("unknown session status %q", string(s))
	}
	return string(s), nil
}

// Session is one reconciliation run over one manifest.
type Session struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       SessionStatus `json:"status"`
	TotalItems   int           `json:"total_items"`
	CheckedItems int           `json:"checked_items"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Progress returns the checked share of the session as a whole percentage.
func (s *Session) Progress() int {
	return Percent(s.CheckedItems, s.TotalItems)
}

// Percent returns round(part / total * 100), or 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (part*200 + total) / (total * 2)
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported type %T", src)
	}
}
