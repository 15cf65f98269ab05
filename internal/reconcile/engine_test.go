package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/popis/internal/db"
	"github.com/erazemk/popis/internal/manifest"
	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/notify"
	"github.com/erazemk/popis/internal/store"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Mismatch
}

func (r *recordingNotifier) NotifyMismatch(m notify.Mismatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, m)
}

func (r *recordingNotifier) all() []notify.Mismatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Mismatch(nil), r.sent...)
}

func newTestEngine(t *testing.T) (*Engine, *store.Store, *recordingNotifier) {
	t.Helper()
	s := store.New(db.NewTestDB(t))
	n := &recordingNotifier{}
	return New(s, n, WithClock(func() time.Time { return fixedNow })), s, n
}

func TestEndToEndScenario(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, "", []manifest.Line{
		{Barcode: "111", ProductName: "A", ExpectedQuantity: 5},
		{Barcode: "222", ProductName: "B", ExpectedQuantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, session.TotalItems)
	assert.Equal(t, 0, session.CheckedItems)
	assert.Equal(t, model.SessionInProgress, session.Status)
	assert.Equal(t, "2026-03-01 재고 확인", session.Name)

	a, err := engine.Scan(ctx, session.ID, "111")
	require.NoError(t, err)
	assert.Equal(t, "A", a.ProductName)

	res, err := engine.AcceptCount(ctx, a.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, model.ItemMatched, res.Item.Status)
	assert.Equal(t, 1, res.Session.CheckedItems)
	assert.Equal(t, model.SessionInProgress, res.Session.Status)

	b, err := engine.Scan(ctx, session.ID, "222")
	require.NoError(t, err)

	res, err = engine.AcceptCount(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ItemMismatched, res.Item.Status)
	assert.Equal(t, -2, res.Difference)
	assert.Equal(t, 2, res.Session.CheckedItems)
	assert.Equal(t, model.SessionCompleted, res.Session.Status)

	stored, err := engine.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CheckedItems)
	assert.Equal(t, model.SessionCompleted, stored.Status)

	assert.Equal(t, []notify.Mismatch{{
		Status:           "mismatched",
		ProductName:      "B",
		Barcode:          "222",
		ExpectedQuantity: 3,
		ActualQuantity:   1,
		SessionName:      "2026-03-01 재고 확인",
	}}, notifier.all())
}

func TestAcceptCountClassifies(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, "S", []manifest.Line{
		{Barcode: "111", ProductName: "Short", ExpectedQuantity: 10},
		{Barcode: "222", ProductName: "Exact", ExpectedQuantity: 10},
	})
	require.NoError(t, err)

	short, _ := engine.Scan(ctx, session.ID, "111")
	res, err := engine.AcceptCount(ctx, short.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, model.ItemMismatched, res.Item.Status)
	assert.Equal(t, -2, res.Difference)

	exact, _ := engine.Scan(ctx, session.ID, "222")
	res, err = engine.AcceptCount(ctx, exact.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, model.ItemMatched, res.Item.Status)
	assert.Equal(t, 0, res.Difference)

	// Stored rows carry the count and timestamp together with the status.
	got, err := s.GetItem(ctx, short.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ActualQuantity)
	assert.Equal(t, 8, *got.ActualQuantity)
	require.NotNil(t, got.CheckedAt)
	assert.True(t, got.CheckedAt.Equal(fixedNow))
}

func TestScanOutcomes(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, "S", []manifest.Line{
		{Barcode: "8801234567890", ProductName: "콜라", ExpectedQuantity: 24},
	})
	require.NoError(t, err)

	item, err := engine.Scan(ctx, session.ID, "880-1234-567890")
	require.NoError(t, err, "scanned codes are normalized before lookup")

	// Scanning does not mutate anything.
	again, err := engine.Scan(ctx, session.ID, "8801234567890")
	require.NoError(t, err)
	assert.Equal(t, item.ID, again.ID)
	assert.Equal(t, model.ItemPending, again.Status)

	_, err = engine.Scan(ctx, session.ID, "0000000000")
	assert.ErrorIs(t, err, ErrNotOnManifest)

	_, err = engine.Scan(ctx, session.ID, "no digits")
	assert.ErrorIs(t, err, ErrNotOnManifest)

	_, err = engine.AcceptCount(ctx, item.ID, 24)
	require.NoError(t, err)

	_, err = engine.Scan(ctx, session.ID, "8801234567890")
	assert.ErrorIs(t, err, ErrAlreadyChecked)

	_, err = engine.Scan(ctx, "missing-session", "8801234567890")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestScanDuplicateBarcodes(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, "S", []manifest.Line{
		{Barcode: "111", ProductName: "Lot 1", ExpectedQuantity: 4},
		{Barcode: "222", ProductName: "Other", ExpectedQuantity: 1},
		{Barcode: "111", ProductName: "Lot 2", ExpectedQuantity: 6},
	})
	require.NoError(t, err)

	first, err := engine.Scan(ctx, session.ID, "111")
	require.NoError(t, err)
	assert.Equal(t, "Lot 1", first.ProductName)
	_, err = engine.AcceptCount(ctx, first.ID, 4)
	require.NoError(t, err)

	second, err := engine.Scan(ctx, session.ID, "111")
	require.NoError(t, err)
	assert.Equal(t, "Lot 2", second.ProductName)
	_, err = engine.AcceptCount(ctx, second.ID, 5)
	require.NoError(t, err)

	_, err = engine.Scan(ctx, session.ID, "111")
	assert.ErrorIs(t, err, ErrAlreadyChecked)
}

func TestAcceptCountIsOneShot(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	ctx := context.Background()

	session, _ := engine.CreateSession(ctx, "S", []manifest.Line{
		{Barcode: "111", ProductName: "A", ExpectedQuantity: 2},
		{Barcode: "222", ProductName: "B", ExpectedQuantity: 2},
	})
	item, _ := engine.Scan(ctx, session.ID, "111")

	_, err := engine.AcceptCount(ctx, item.ID, 1)
	require.NoError(t, err)

	_, err = engine.AcceptCount(ctx, item.ID, 2)
	assert.ErrorIs(t, err, ErrAlreadyChecked)

	stored, _ := engine.GetSession(ctx, session.ID)
	assert.Equal(t, 1, stored.CheckedItems, "a rejected recount must not advance the counter")
	assert.Len(t, notifier.all(), 1)
}

func TestAcceptCountRejectsBadInput(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, _ := engine.CreateSession(ctx, "S", []manifest.Line{{Barcode: "111", ProductName: "A", ExpectedQuantity: 2}})
	item, _ := engine.Scan(ctx, session.ID, "111")

	_, err := engine.AcceptCount(ctx, item.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = engine.AcceptCount(ctx, "missing-item", 1)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSessionCompletesAfterAllCounts(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	lines := []manifest.Line{
		{Barcode: "1", ProductName: "a", ExpectedQuantity: 1},
		{Barcode: "2", ProductName: "b", ExpectedQuantity: 2},
		{Barcode: "3", ProductName: "c", ExpectedQuantity: 3},
		{Barcode: "4", ProductName: "d", ExpectedQuantity: 4},
		{Barcode: "5", ProductName: "e", ExpectedQuantity: 5},
	}
	session, err := engine.CreateSession(ctx, "S", lines)
	require.NoError(t, err)

	// Alternate matched and mismatched counts; status depends only on the counter.
	for i, l := range lines {
		item, err := engine.Scan(ctx, session.ID, l.Barcode)
		require.NoError(t, err)

		counted := l.ExpectedQuantity
		if i%2 == 1 {
			counted++
		}
		res, err := engine.AcceptCount(ctx, item.ID, counted)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Session.CheckedItems)
		if i < len(lines)-1 {
			assert.Equal(t, model.SessionInProgress, res.Session.Status)
		}
	}

	stored, _ := engine.GetSession(ctx, session.ID)
	assert.Equal(t, len(lines), stored.CheckedItems)
	assert.Equal(t, model.SessionCompleted, stored.Status)
}

func TestForceCompletedSessionStaysCompleted(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, _ := engine.CreateSession(ctx, "S", []manifest.Line{
		{Barcode: "1", ProductName: "a", ExpectedQuantity: 1},
		{Barcode: "2", ProductName: "b", ExpectedQuantity: 1},
	})

	completed, err := engine.CompleteSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, completed.Status)
	assert.Equal(t, 0, completed.CheckedItems)

	// Counting continues to work after a force-complete.
	item, err := engine.Scan(ctx, session.ID, "1")
	require.NoError(t, err)
	res, err := engine.AcceptCount(ctx, item.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Session.CheckedItems)
	assert.Equal(t, model.SessionCompleted, res.Session.Status)

	_, err = engine.CompleteSession(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDeleteSession(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	ctx := context.Background()

	session, _ := engine.CreateSession(ctx, "S", []manifest.Line{{Barcode: "1", ProductName: "a", ExpectedQuantity: 1}})
	require.NoError(t, engine.DeleteSession(ctx, session.ID))

	_, err := engine.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	items, _ := s.FindItems(ctx, store.ItemFilter{SessionID: session.ID})
	assert.Empty(t, items)

	assert.ErrorIs(t, engine.DeleteSession(ctx, session.ID), ErrSessionNotFound)
}

func TestCreateSessionRejectsEmptyManifest(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateSession(ctx, "Empty", nil)
	assert.ErrorIs(t, err, ErrNoItems)

	sessions, _ := s.ListSessions(ctx, store.SessionFilter{})
	assert.Empty(t, sessions)
}

func TestCreateSessionSkipsBlankLines(t *testing.T) {
	engine, s, _ := newTestEngine(t)
	ctx := context.Background()

	session, err := engine.CreateSession(ctx, "S", []manifest.Line{
		{Barcode: "abc", ProductName: "A", ExpectedQuantity: 1},
		{Barcode: "111", ProductName: "   ", ExpectedQuantity: 2},
		{Barcode: " 222 ", ProductName: "  B ", ExpectedQuantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, session.TotalItems)

	items, err := s.FindItems(ctx, store.ItemFilter{SessionID: session.ID})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "222", items[0].Barcode)
	assert.Equal(t, "B", items[0].ProductName)

	_, err = engine.CreateSession(ctx, "Blank", []manifest.Line{
		{Barcode: "---", ProductName: "A", ExpectedQuantity: 1},
		{Barcode: "333", ProductName: "", ExpectedQuantity: 1},
	})
	assert.ErrorIs(t, err, ErrNoItems)

	sessions, _ := s.ListSessions(ctx, store.SessionFilter{})
	assert.Len(t, sessions, 1)
}

func TestListItemsFiltersByStatus(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, _ := engine.CreateSession(ctx, "S", []manifest.Line{
		{Barcode: "1", ProductName: "a", ExpectedQuantity: 1},
		{Barcode: "2", ProductName: "b", ExpectedQuantity: 1},
		{Barcode: "3", ProductName: "c", ExpectedQuantity: 1},
	})
	item, _ := engine.Scan(ctx, session.ID, "2")
	engine.AcceptCount(ctx, item.ID, 0)

	all, err := engine.ListItems(ctx, session.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, _ := engine.ListItems(ctx, session.ID, model.ItemPending)
	assert.Len(t, pending, 2)

	mismatched, _ := engine.ListItems(ctx, session.ID, model.ItemMismatched)
	require.Len(t, mismatched, 1)
	assert.Equal(t, "2", mismatched[0].Barcode)

	_, err = engine.ListItems(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
