package handler

import (
	"testing"
	"time"
)

func TestOverdueDays(t *testing.T) {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		now  time.Time
		want int
	}{
		{"before due", due.Add(-48 * time.Hour), 0},
		{"exactly due", due, 0},
		{"hours late", due.Add(23 * time.Hour), 0},
		{"one day", due.Add(24 * time.Hour), 1},
		{"one day and change floors", due.Add(24*time.Hour + 59*time.Minute), 1},
		{"five days", due.Add(5 * 24 * time.Hour), 5},
		{"thirty five days", due.Add(35 * 24 * time.Hour), 35},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := overdueDays(tc.now, due); got != tc.want {
				t.Fatalf("overdueDays = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestFineAmountAtDefaultRate(t *testing.T) {
	due := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	now := due.Add(5*24*time.Hour + 6*time.Hour)
	days := overdueDays(now, due)
	rate := 5.0
	if amount := float64(days) * rate; amount != 25.0 {
		t.Fatalf("amount = %.2f, want 25.00 (5 days at rate 5)", amount)
	}
}

func TestParseDueDate(t *testing.T) {
	if _, err := parseDueDate("not-a-date"); err == nil {
		t.Fatal("expected error for garbage input")
	}

	got, err := parseDueDate("2025-06-15T10:30:00Z")
	if err != nil {
		t.Fatalf("RFC3339 parse failed: %v", err)
	}
	want := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// A bare calendar date lands at the end of that day so "due today"
	// is still a future due date.
	got, err = parseDueDate("2025-06-15")
	if err != nil {
		t.Fatalf("calendar date parse failed: %v", err)
	}
	if got.Year() != 2025 || got.Month() != 6 || got.Day() != 15 {
		t.Fatalf("wrong day: %v", got)
	}
	if got.Hour() != 23 || got.Minute() != 59 {
		t.Fatalf("expected end of day, got %v", got)
	}
}
