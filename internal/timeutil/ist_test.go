package timeutil

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-01")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	if d.Location() != IST || d.Hour() != 0 || d.Day() != 1 {
		t.Fatalf("date not read as IST midnight: %v", d)
	}

	ts, err := ParseDate("2025-03-01T04:30:00Z")
	if err != nil {
		t.Fatalf("parse rfc3339: %v", err)
	}
	if ts.Hour() != 10 {
		t.Fatalf("expected 10:00 IST, got %v", ts)
	}

	for _, bad := range []string{"", "  ", "01/03/2025", "2025-13-01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q should not parse", bad)
		}
	}
}

func TestLastMonths(t *testing.T) {
	now := time.Date(2025, time.February, 10, 12, 0, 0, 0, IST)
	got := LastMonths(now, 3)
	want := []string{"2024-12", "2025-01", "2025-02"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if n := len(LastMonths(now, 12)); n != 12 {
		t.Fatalf("12 months requested, got %d", n)
	}
}

func TestStartOfMonthUsesIST(t *testing.T) {
	// 2025-04-30 20:00 UTC is already 1 May in IST.
	utc := time.Date(2025, time.April, 30, 20, 0, 0, 0, time.UTC)
	got := StartOfMonth(utc)
	if got.Month() != time.May || got.Day() != 1 {
		t.Fatalf("got %v", got)
	}
}
