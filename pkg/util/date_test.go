package util

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2024-10-10")
	if !ok {
		t.Fatalf("expected ok")
	}
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "10/10/2024", "2024-10-10T00:00:00Z"} {
		if _, ok := ParseDate(s); ok {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}

func TestFormatDateRoundTrip(t *testing.T) {
	in := "2023-01-31"
	d, ok := ParseDate(in)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got := FormatDate(d); got != in {
		t.Fatalf("expected %q, got %q", in, got)
	}
}

func TestDayFromUnixMilli(t *testing.T) {
	ms := time.Date(2024, 10, 10, 23, 59, 59, 0, time.UTC).UnixMilli()
	if got := DayFromUnixMilli(ms); got != "2024-10-10" {
		t.Fatalf("unexpected day %q", got)
	}
}
