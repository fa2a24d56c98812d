package usecase

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	cases := map[string]Mode{
		"auto":    ModeAuto,
		"PREOPEN": ModePreopen,
		" last24": ModeLast24,
		"all":     ModeAll,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}

	if _, err := ParseMode("overnight"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestPreviousClose(t *testing.T) {
	t.Parallel()

	ny := newYork(t)
	// 2026-01-05 is a Monday.
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"monday", time.Date(2026, 1, 5, 8, 0, 0, 0, ny), time.Date(2026, 1, 2, 16, 0, 0, 0, ny)},
		{"tuesday", time.Date(2026, 1, 6, 8, 0, 0, 0, ny), time.Date(2026, 1, 5, 16, 0, 0, 0, ny)},
		{"wednesday", time.Date(2026, 1, 7, 23, 0, 0, 0, ny), time.Date(2026, 1, 6, 16, 0, 0, 0, ny)},
		{"thursday", time.Date(2026, 1, 8, 1, 0, 0, 0, ny), time.Date(2026, 1, 7, 16, 0, 0, 0, ny)},
		{"friday", time.Date(2026, 1, 9, 9, 29, 0, 0, ny), time.Date(2026, 1, 8, 16, 0, 0, 0, ny)},
		{"saturday", time.Date(2026, 1, 10, 12, 0, 0, 0, ny), time.Date(2026, 1, 9, 16, 0, 0, 0, ny)},
		{"sunday", time.Date(2026, 1, 11, 23, 0, 0, 0, ny), time.Date(2026, 1, 9, 16, 0, 0, 0, ny)},
		{"utc input", time.Date(2026, 1, 6, 3, 0, 0, 0, time.UTC), time.Date(2026, 1, 2, 16, 0, 0, 0, ny)},
	}
	for _, tc := range cases {
		got := PreviousClose(tc.now, ny)
		if !got.Equal(tc.want) {
			t.Fatalf("%s: PreviousClose = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestWindowFor(t *testing.T) {
	t.Parallel()

	ny := newYork(t)
	now := time.Date(2026, 1, 5, 8, 15, 0, 0, ny)

	w, label, err := WindowFor(ModeLast24, now, ny)
	if err != nil || w == nil {
		t.Fatalf("last24: %v", err)
	}
	if label != "window last 24h" || !w.Start.Equal(now.Add(-24*time.Hour)) || !w.End.Equal(now) {
		t.Fatalf("unexpected last24 window %v %q", w, label)
	}

	for _, m := range []Mode{ModeAuto, ModePreopen} {
		w, label, err = WindowFor(m, now, ny)
		if err != nil || w == nil {
			t.Fatalf("%s: %v", m, err)
		}
		if label != "window since 4:00pm 01/02/26 ET" {
			t.Fatalf("%s label = %q", m, label)
		}
		if !w.Start.Equal(time.Date(2026, 1, 2, 16, 0, 0, 0, ny)) {
			t.Fatalf("%s start = %s", m, w.Start)
		}
	}

	w, label, err = WindowFor(ModeAll, now, ny)
	if err != nil || w != nil || label != "window all" {
		t.Fatalf("all: %v %q %v", w, label, err)
	}

	if _, _, err := WindowFor(Mode("weekly"), now, ny); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}
