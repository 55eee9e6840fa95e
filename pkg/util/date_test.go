package util

import (
	"testing"
	"time"
)

func TestParseDateOldFormat(t *testing.T) {
	got, ok := ParseDate("20-May-87")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(1987, time.May, 20, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDateModernFormat(t *testing.T) {
	got, ok := ParseDate("Apr 22, 2020")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2020, time.April, 22, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDateISO(t *testing.T) {
	got, ok := ParseDate(" 2022-01-03 ")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2022, time.January, 3, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, s := range []string{"", "not-a-date", "32-Jan-20"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("expected parse failure for %q", s)
		}
	}
}

func TestWeekStart(t *testing.T) {
	// Thursday 2020-04-23 -> Monday 2020-04-20
	thu := time.Date(2020, time.April, 23, 15, 4, 5, 0, time.UTC)
	got := WeekStart(thu)
	want := time.Date(2020, time.April, 20, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	// Sunday belongs to the week starting the previous Monday
	sun := time.Date(2020, time.April, 26, 0, 0, 0, 0, time.UTC)
	if got := WeekStart(sun); !got.Equal(want) {
		t.Fatalf("sunday: got %v want %v", got, want)
	}
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(1987, time.May, 20, 0, 0, 0, 0, time.UTC))
	want := time.Date(1987, time.May, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
