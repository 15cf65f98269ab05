// Package report aggregates inventory sessions and items over a lookback
// window.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/store"
)

// RecentLimit is how many sessions a report lists individually.
const RecentLimit = 5

// Store is the read access the aggregator needs. *store.Store implements it.
type Store interface {
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, f store.SessionFilter) ([]model.Session, error)
	FindItems(ctx context.Context, f store.ItemFilter) ([]model.Item, error)
}

// Aggregator builds reports from a store.
type Aggregator struct {
	store Store
	now   func() time.Time
}

// New returns an aggregator using the wall clock.
func New(s Store) *Aggregator {
	return &Aggregator{store: s, now: time.Now}
}

// WithClock returns a copy of a that reads the time from now.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	c := *a
	c.now = now
	return &c
}

// Summary holds the item and session totals of a report window.
type Summary struct {
	TotalSessions   int `json:"total_sessions"`
	TodaySessions   int `json:"today_sessions"`
	TotalItems      int `json:"total_items"`
	CheckedItems    int `json:"checked_items"`
	MatchedItems    int `json:"matched_items"`
	MismatchedItems int `json:"mismatched_items"`
	PendingItems    int `json:"pending_items"`
	CompletionRate  int `json:"completion_rate"`
}

// MismatchRow describes one mismatched item.
type MismatchRow struct {
	SessionName string `json:"session_name"`
	ProductName string `json:"product_name"`
	Barcode     string `json:"barcode"`
	Expected    int    `json:"expected"`
	Actual      int    `json:"actual"`
	Difference  int    `json:"difference"`
}

// Report is the result of Build.
type Report struct {
	Days           int             `json:"days"`
	Since          time.Time       `json:"since"`
	Summary        Summary         `json:"summary"`
	RecentSessions []model.Session `json:"recent_sessions"`
	Mismatches     []MismatchRow   `json:"mismatched_items"`
}

// Build aggregates the sessions created in the last days×24 hours and all of
// their items. days below 1 is treated as 1.
func (a *Aggregator) Build(ctx context.Context, days int) (*Report, error) {
	if days < 1 {
		days = 1
	}
	now := a.now()
	since := now.Add(-time.Duration(days) * 24 * time.Hour)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	sessions, err := a.store.ListSessions(ctx, store.SessionFilter{CreatedSince: since})
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	ids := make([]string, 0, len(sessions))
	names := make(map[string]string, len(sessions))
	r := &Report{
		Days:           days,
		Since:          since,
		RecentSessions: make([]model.Session, 0, RecentLimit),
		Mismatches:     []MismatchRow{},
	}
	for i, s := range sessions {
		ids = append(ids, s.ID)
		names[s.ID] = s.Name
		if !s.CreatedAt.Before(today) {
			r.Summary.TodaySessions++
		}
		if i < RecentLimit {
			r.RecentSessions = append(r.RecentSessions, s)
		}
	}
	r.Summary.TotalSessions = len(sessions)

	items, err := a.store.FindItems(ctx, store.ItemFilter{SessionIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("finding items: %w", err)
	}

	for _, item := range items {
		r.Summary.TotalItems++
		switch item.Status {
		case model.ItemPending:
			r.Summary.PendingItems++
			continue
		case model.ItemMatched:
			r.Summary.MatchedItems++
		case model.ItemMismatched:
			r.Summary.MismatchedItems++
			r.Mismatches = append(r.Mismatches, mismatchRow(names[item.SessionID], item))
		}
		r.Summary.CheckedItems++
	}
	r.Summary.CompletionRate = model.Percent(r.Summary.CheckedItems, r.Summary.TotalItems)

	return r, nil
}

func mismatchRow(sessionName string, item model.Item) MismatchRow {
	actual := 0
	if item.ActualQuantity != nil {
		actual = *item.ActualQuantity
	}
	return MismatchRow{
		SessionName: sessionName,
		ProductName: item.ProductName,
		Barcode:     item.Barcode,
		Expected:    item.ExpectedQuantity,
		Actual:      actual,
		Difference:  actual - item.ExpectedQuantity,
	}
}
