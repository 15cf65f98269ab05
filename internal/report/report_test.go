package report

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/popis/internal/db"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/store"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

var reportNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*store.Store, *clock) {
	t.Helper()
	c := &clock{t: reportNow}
	return store.New(db.NewTestDB(t)).WithClock(c.now), c
}

func createSession(t *testing.T, s *store.Store, name string, items ...store.NewItem) (*model.Session, []model.Item) {
	t.Helper()
	ctx := context.Background()
	session, err := s.CreateSessionWithItems(ctx, name, items)
	require.NoError(t, err)
	stored, err := s.FindItems(ctx, store.ItemFilter{SessionID: session.ID})
	require.NoError(t, err)
	return session, stored
}

// count stores a counted quantity the way the reconcile engine does.
func count(t *testing.T, s *store.Store, item model.Item, actual int) {
	t.Helper()
	ctx := context.Background()
	status := model.StatusFor(item.ExpectedQuantity, actual)
	at := reportNow
	require.NoError(t, s.UpdateItem(ctx, item.ID, store.ItemUpdate{
		ActualQuantity: &actual,
		Status:         &status,
		CheckedAt:      &at,
		IfStatus:       model.ItemPending,
	}))

	session, err := s.GetSession(ctx, item.SessionID)
	require.NoError(t, err)
	checked := session.CheckedItems + 1
	require.NoError(t, s.UpdateSession(ctx, session.ID, store.SessionUpdate{CheckedItems: &checked}))
}

func TestBuildEmptyWindow(t *testing.T) {
	s, _ := newTestStore(t)
	agg := New(s).WithClock(func() time.Time { return reportNow })

	r, err := agg.Build(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, r.Summary)
	assert.Equal(t, 0, r.Summary.CompletionRate)
	assert.NotNil(t, r.RecentSessions)
	assert.NotNil(t, r.Mismatches)
	assert.Empty(t, r.Mismatches)
}

func TestBuildAggregatesWindow(t *testing.T) {
	s, c := newTestStore(t)

	c.t = reportNow.Add(-72 * time.Hour)
	createSession(t, s, "old", store.NewItem{Barcode: "9", ProductName: "old item", ExpectedQuantity: 1})

	c.t = time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC)
	_, yesterday := createSession(t, s, "yesterday",
		store.NewItem{Barcode: "1", ProductName: "a", ExpectedQuantity: 10},
		store.NewItem{Barcode: "2", ProductName: "b", ExpectedQuantity: 5},
	)

	c.t = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	_, today := createSession(t, s, "today",
		store.NewItem{Barcode: "3", ProductName: "c", ExpectedQuantity: 3},
		store.NewItem{Barcode: "4", ProductName: "d", ExpectedQuantity: 2},
		store.NewItem{Barcode: "5", ProductName: "e", ExpectedQuantity: 1},
	)

	count(t, s, yesterday[0], 8)
	count(t, s, yesterday[1], 5)
	count(t, s, today[0], 4)

	agg := New(s).WithClock(func() time.Time { return reportNow })
	r, err := agg.Build(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, Summary{
		TotalSessions:   2,
		TodaySessions:   1,
		TotalItems:      5,
		CheckedItems:    3,
		MatchedItems:    1,
		MismatchedItems: 2,
		PendingItems:    2,
		CompletionRate:  60,
	}, r.Summary)

	require.Len(t, r.RecentSessions, 2)
	assert.Equal(t, "today", r.RecentSessions[0].Name)
	assert.Equal(t, "yesterday", r.RecentSessions[1].Name)

	assert.Len(t, r.Mismatches, r.Summary.MismatchedItems)
	assert.Contains(t, r.Mismatches, MismatchRow{
		SessionName: "yesterday", ProductName: "a", Barcode: "1", Expected: 10, Actual: 8, Difference: -2,
	})
	assert.Contains(t, r.Mismatches, MismatchRow{
		SessionName: "today", ProductName: "c", Barcode: "3", Expected: 3, Actual: 4, Difference: 1,
	})

	week, err := agg.Build(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, week.Summary.TotalSessions)
	assert.Equal(t, 6, week.Summary.TotalItems)
}

func TestBuildClampsDays(t *testing.T) {
	s, _ := newTestStore(t)
	agg := New(s).WithClock(func() time.Time { return reportNow })

	for _, days := range []int{0, -3} {
		r, err := agg.Build(context.Background(), days)
		require.NoError(t, err)
		assert.Equal(t, 1, r.Days)
		assert.True(t, r.Since.Equal(reportNow.Add(-24*time.Hour)))
	}
}

func TestBuildLimitsRecentSessions(t *testing.T) {
	s, c := newTestStore(t)
	for i := range 7 {
		c.t = reportNow.Add(-time.Duration(7-i) * time.Minute)
		createSession(t, s, fmt.Sprintf("s%d", i), store.NewItem{Barcode: "1", ProductName: "x", ExpectedQuantity: 1})
	}

	r, err := New(s).WithClock(func() time.Time { return reportNow }).Build(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, r.Summary.TotalSessions)
	require.Len(t, r.RecentSessions, RecentLimit)
	assert.Equal(t, "s6", r.RecentSessions[0].Name)
	assert.Equal(t, "s2", r.RecentSessions[4].Name)
}

func TestWriteText(t *testing.T) {
	s, _ := newTestStore(t)
	_, items := createSession(t, s, "정기 재고", store.NewItem{Barcode: "111", ProductName: "A", ExpectedQuantity: 5})
	count(t, s, items[0], 3)

	r, err := New(s).WithClock(func() time.Time { return reportNow }).Build(context.Background(), 1)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "Report for the last 1 day(s), since 2026-03-09 15:00\n")
	assert.Contains(t, out, "Completion: 100%\n")
	assert.Contains(t, out, "정기 재고  A (111)  expected 5, counted 3 (-2)\n")
}

func TestSessionSummary(t *testing.T) {
	s, c := newTestStore(t)

	c.t = reportNow.Add(-time.Hour)
	createSession(t, s, "older", store.NewItem{Barcode: "1", ProductName: "x", ExpectedQuantity: 1})

	c.t = reportNow
	session, items := createSession(t, s, "3월 정기 재고",
		store.NewItem{Barcode: "8801234567890", ProductName: "콜라 500ml", ExpectedQuantity: 24},
		store.NewItem{Barcode: "8801234567891", ProductName: "사이다", ExpectedQuantity: 12},
		store.NewItem{Barcode: "8801234567892", ProductName: "생수 2L", ExpectedQuantity: 6},
	)
	count(t, s, items[0], 24)
	count(t, s, items[1], 10)

	agg := New(s)

	text, err := agg.SessionSummary(context.Background(), session.ID)
	require.NoError(t, err)
	g := goldie.New(t)
	g.Assert(t, "session_summary", []byte(text))

	latest, err := agg.SessionSummary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, text, latest)
}

func TestSessionSummaryWithoutSessions(t *testing.T) {
	s, _ := newTestStore(t)
	agg := New(s)

	text, err := agg.SessionSummary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, NoSessionsText, text)

	_, err = agg.SessionSummary(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
