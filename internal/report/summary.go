package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/erazemk/popis/internal/model"
	"github.com/erazemk/popis/internal/store"
)

// NoSessionsText is the summary returned when no session exists yet.
const NoSessionsText = "현재 등록된 재고 확인 세션이 없습니다."

// SessionSummary renders a session and its items as plain Korean text for
// an assistant or a terminal. An empty id selects the newest session.
// Unknown ids return store.ErrNotFound.
func (a *Aggregator) SessionSummary(ctx context.Context, id string) (string, error) {
	var session *model.Session
	if id == "" {
		latest, err := a.store.ListSessions(ctx, store.SessionFilter{Limit: 1})
		if err != nil {
			return "", fmt.Errorf("finding latest session: %w", err)
		}
		if len(latest) == 0 {
			return NoSessionsText, nil
		}
		session = &latest[0]
	} else {
		var err error
		session, err = a.store.GetSession(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return "", err
			}
			return "", fmt.Errorf("getting session: %w", err)
		}
	}

	items, err := a.store.FindItems(ctx, store.ItemFilter{SessionID: session.ID})
	if err != nil {
		return "", fmt.Errorf("finding items: %w", err)
	}

	status := "진행중"
	if session.Status == model.SessionCompleted {
		status = "완료"
	}

	lines := []string{
		"세션: " + session.Name,
		"상태: " + status,
		fmt.Sprintf("전체 품목: %d개, 확인 완료: %d개", session.TotalItems, session.CheckedItems),
		"",
		"품목 목록:",
	}
	for _, item := range items {
		actual := "-"
		if item.ActualQuantity != nil {
			actual = strconv.Itoa(*item.ActualQuantity) + "개"
		}
		lines = append(lines, fmt.Sprintf("- %s (바코드: %s) | 재고서: %d개 | 실물: %s | 상태: %s",
			item.ProductName, item.Barcode, item.ExpectedQuantity, actual, statusLabel(item.Status)))
	}

	return strings.Join(lines, "\n"), nil
}

func statusLabel(s model.ItemStatus) string {
	switch s {
	case model.ItemMatched:
		return "일치"
	case model.ItemMismatched:
		return "불일치"
	default:
		return "미확인"
	}
}

// WriteText writes r in a human-readable form.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "Report for the last %d day(s), since %s\n", r.Days, r.Since.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "Sessions:   %d (%d today)\n", s.TotalSessions, s.TodaySessions)
	fmt.Fprintf(&b, "Items:      %d total, %d checked, %d pending\n", s.TotalItems, s.CheckedItems, s.PendingItems)
	fmt.Fprintf(&b, "Results:    %d matched, %d mismatched\n", s.MatchedItems, s.MismatchedItems)
	fmt.Fprintf(&b, "Completion: %d%%\n", s.CompletionRate)

	if len(r.RecentSessions) > 0 {
		b.WriteString("\nRecent sessions:\n")
		for _, session := range r.RecentSessions {
			fmt.Fprintf(&b, "  %s  %-11s %d/%d  %s\n", session.CreatedAt.In(r.Since.Location()).Format("2006-01-02 15:04"),
				session.Status, session.CheckedItems, session.TotalItems, session.Name)
		}
	}

	if len(r.Mismatches) > 0 {
		b.WriteString("\nMismatched items:\n")
		for _, m := range r.Mismatches {
			fmt.Fprintf(&b, "  %s  %s (%s)  expected %d, counted %d (%+d)\n",
				m.SessionName, m.ProductName, m.Barcode, m.Expected, m.Actual, m.Difference)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
