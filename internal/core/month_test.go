package core

import (
	"testing"
	"time"
)

func TestParseMonthKey(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01", true},
		{"2024-12", true},
		{"2024-13", false},
		{"2024-00", false},
		{"2024-1", false},
		{"24-01", false},
		{"2024/01", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseMonthKey(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMonthKeyBounds(t *testing.T) {
	start, end := NewMonthKey(2024, 2).Bounds()
	if !start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start %v", start)
	}
	if !end.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end %v", end)
	}
}

func TestClampDay(t *testing.T) {
	cases := []struct {
		day, year, month, want int
	}{
		{31, 2023, 2, 28}, // non-leap February
		{31, 2024, 2, 29}, // leap February
		{31, 2024, 4, 30}, // 30-day month
		{31, 2024, 1, 31},
		{30, 2024, 4, 30},
		{15, 2024, 2, 15},
		{0, 2024, 2, 1},
	}
	for _, tc := range cases {
		if got := ClampDay(tc.day, tc.year, tc.month); got != tc.want {
			t.Fatalf("ClampDay(%d, %d, %d): expected %d, got %d", tc.day, tc.year, tc.month, tc.want, got)
		}
	}
}

func TestClampSalaryDay(t *testing.T) {
	// 28 is the ceiling for every month, 31-day months included.
	for day, want := range map[int]int{31: 28, 28: 28, 29: 28, 1: 1, 0: 1, 15: 15} {
		if got := ClampSalaryDay(day); got != want {
			t.Fatalf("ClampSalaryDay(%d): expected %d, got %d", day, want, got)
		}
	}
}

func TestMiddayUTC(t *testing.T) {
	d := MiddayUTC(2024, 6, 15)
	if d.Hour() != 12 || d.Location() != time.UTC {
		t.Fatalf("expected midday UTC, got %v", d)
	}
}

func TestAutoKeys(t *testing.T) {
	if k := ExpenseAutoKey(42, NewMonthKey(2024, 3)); k != "recur:42:2024-03" {
		t.Fatalf("unexpected expense auto key %q", k)
	}
	if k := SalaryAutoKey(NewMonthKey(2024, 3)); k != "salary:2024-03" {
		t.Fatalf("unexpected salary auto key %q", k)
	}
}
