package periods

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func november() *Period {
	return &Period{
		ID:        "p-nov",
		Name:      "November 2025",
		StartDate: date(2025, 11, 1),
		EndDate:   date(2025, 11, 30),
	}
}

func TestPeriodValidate(t *testing.T) {
	period := november()
	if err := period.Validate(); err != nil {
		t.Fatalf("valid period rejected: %v", err)
	}

	period.Name = ""
	if err := period.Validate(); !errors.Is(err, ErrEmptyPeriodName) {
		t.Fatalf("expected ErrEmptyPeriodName, got %v", err)
	}

	period = november()
	period.EndDate = date(2025, 10, 1)
	if err := period.Validate(); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestPeriodContains(t *testing.T) {
	period := november()
	cases := []struct {
		day  time.Time
		want bool
	}{
		{date(2025, 11, 1), true},
		{date(2025, 11, 30), true},
		{date(2025, 11, 15), true},
		{date(2025, 10, 31), false},
		{date(2025, 12, 1), false},
	}
	for _, tc := range cases {
		if got := period.Contains(tc.day); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.day.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestPeriodOverlaps(t *testing.T) {
	nov := november()

	dec := &Period{ID: "p-dec", Name: "December 2025",
		StartDate: date(2025, 12, 1), EndDate: date(2025, 12, 30)}
	if nov.Overlaps(*dec) {
		t.Fatalf("adjacent periods must not overlap")
	}

	straddle := &Period{ID: "p-x", Name: "Mid Nov to Dec",
		StartDate: date(2025, 11, 15), EndDate: date(2025, 12, 5)}
	if !nov.Overlaps(*straddle) {
		t.Fatalf("Nov 15 - Dec 5 must overlap November")
	}

	// Boundaries are inclusive on both sides.
	touching := &Period{ID: "p-t", Name: "Touching",
		StartDate: date(2025, 11, 30), EndDate: date(2025, 12, 15)}
	if !nov.Overlaps(*touching) {
		t.Fatalf("period starting on Nov 30 must overlap November")
	}
}

func TestPeriodClone(t *testing.T) {
	period := november()
	clone := period.Clone()
	clone.Name = "changed"
	clone.IsClosed = true
	if period.Name != "November 2025" || period.IsClosed {
		t.Fatalf("clone shares storage with original")
	}
}
