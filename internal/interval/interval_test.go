package interval

import (
	"testing"
	"time"
)

func date(day int) time.Time {
	return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, start, end int) Range {
	t.Helper()
	r, err := New(date(start), date(end))
	if err != nil {
		t.Fatalf("New(%d, %d): %v", start, end, err)
	}
	return r
}

func TestNewRejectsReversedInterval(t *testing.T) {
	if _, err := New(date(12), date(10)); err == nil {
		t.Fatal("expected error for end before start")
	}
}

func TestNewAllowsSingleDay(t *testing.T) {
	r := mustRange(t, 10, 10)
	if got := r.Days(); got != 1 {
		t.Fatalf("Days() = %d, want 1", got)
	}
}

func TestNormalizeDropsTimeOfDay(t *testing.T) {
	noon := time.Date(2026, time.March, 10, 12, 30, 0, 0, time.UTC)
	r, err := New(noon, noon)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !r.Start.Equal(date(10)) {
		t.Fatalf("Start = %v, want %v", r.Start, date(10))
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{"disjoint before", mustRangeHelper(1, 5), mustRangeHelper(6, 9), false},
		{"disjoint after", mustRangeHelper(6, 9), mustRangeHelper(1, 5), false},
		{"touching endpoints conflict", mustRangeHelper(1, 5), mustRangeHelper(5, 9), true},
		{"contained", mustRangeHelper(1, 9), mustRangeHelper(3, 4), true},
		{"identical", mustRangeHelper(3, 4), mustRangeHelper(3, 4), true},
		{"partial", mustRangeHelper(1, 5), mustRangeHelper(4, 9), true},
		{"single day inside", mustRangeHelper(1, 5), mustRangeHelper(3, 3), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(%s, %s) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// Overlap is symmetric.
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("Overlaps(%s, %s) = %v, want %v", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func mustRangeHelper(start, end int) Range {
	r, err := New(date(start), date(end))
	if err != nil {
		panic(err)
	}
	return r
}

func TestDays(t *testing.T) {
	if got := mustRangeHelper(10, 12).Days(); got != 3 {
		t.Fatalf("Days() = %d, want 3", got)
	}
}

func TestContains(t *testing.T) {
	r := mustRangeHelper(10, 12)
	if !r.Contains(date(10)) || !r.Contains(date(12)) {
		t.Fatal("endpoints should be contained")
	}
	if r.Contains(date(9)) || r.Contains(date(13)) {
		t.Fatal("dates outside the interval should not be contained")
	}
}

func TestParse(t *testing.T) {
	r, err := Parse("2026-03-10", "2026-03-12")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Days() != 3 {
		t.Fatalf("Days() = %d, want 3", r.Days())
	}
	if _, err := Parse("10/03/2026", "2026-03-12"); err == nil {
		t.Fatal("expected error for malformed start date")
	}
}
