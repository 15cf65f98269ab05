package model

import "testing"

func TestStatusFor(t *testing.T) {
	tests := []struct {
		expected, actual int
		want             ItemStatus
	}{
		{10, 10, ItemMatched},
		{10, 8, ItemMismatched},
		{10, 12, ItemMismatched},
		{0, 0, ItemMatched},
		{0, 1, ItemMismatched},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.expected, tt.actual); got != tt.want {
			t.Errorf("StatusFor(%d, %d) = %q, want %q", tt.expected, tt.actual, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total, want int
	}{
		{0, 0, 0},
		{5, 0, 0},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{3, 3, 100},
	}

	for _, tt := range tests {
		if got := Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestItemStatusScan(t *testing.T) {
	var s ItemStatus
	if err := s.Scan("matched"); err != nil || s != ItemMatched {
		t.Errorf("Scan(matched) = %q, %v", s, err)
	}
	if err := s.Scan([]byte("pending")); err != nil || s != ItemPending {
		t.Errorf("Scan([]byte pending) = %q, %v", s, err)
	}
	// Unknown strings fail-closed.
	if err := s.Scan("recounted"); err == nil {
		t.Error("expected error scanning unknown item status")
	}
	if err := s.Scan(42); err == nil {
		t.Error("expected error scanning integer item status")
	}
}

func TestSessionStatusValue(t *testing.T) {
	v, err := SessionCompleted.Value()
	if err != nil || v != "completed" {
		t.Errorf("Value() = %v, %v", v, err)
	}
	if _, err := SessionStatus("archived").Value(); err == nil {
		t.Error("expected error for unknown session status")
	}
}

func TestItemDifference(t *testing.T) {
	eight := 8
	item := Item{ExpectedQuantity: 10}
	if d := item.Difference(); d != 0 {
		t.Errorf("pending difference = %d, want 0", d)
	}
	item.ActualQuantity = &eight
	if d := item.Difference(); d != -2 {
		t.Errorf("difference = %d, want -2", d)
	}
}
