package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"MarketBriefing/internal/domain"
)

// Mode selects the freshness window of a briefing.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModePreopen Mode = "preopen"
	ModeLast24  Mode = "last24"
	// ModeAll disables window filtering.
	ModeAll Mode = "all"
)

// ErrInvalidMode is returned for an unrecognized display mode.
var ErrInvalidMode = errors.New("invalid mode")

// DefaultLocation is the reference market timezone.
const DefaultLocation = "America/New_York"

const closeHour = 16

// ParseMode accepts auto, preopen, last24 and all, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeAuto, ModePreopen, ModeLast24, ModeAll:
		return m, nil
	default:
		return "", fmt.Errorf("%w %q: want auto, preopen or last24", ErrInvalidMode, s)
	}
}

// PreviousClose approximates the prior session close as 16:00 in loc on the most
// recent prior weekday. Market holidays are ignored.
func PreviousClose(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	back := 1
	switch local.Weekday() {
	case time.Monday:
		back = 3
	case time.Sunday:
		back = 2
	}

	d := local.AddDate(0, 0, -back)
	return time.Date(d.Year(), d.Month(), d.Day(), closeHour, 0, 0, 0, loc)
}

// WindowFor derives the shared filter window and its report label. ModeAll
// returns a nil window.
func WindowFor(mode Mode, now time.Time, loc *time.Location) (*domain.TimeWindow, string, error) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)

	switch mode {
	case ModeLast24:
		w, err := domain.NewTimeWindow(now.Add(-24*time.Hour), now)
		return w, "window last 24h", err
	case ModePreopen, ModeAuto:
		start := PreviousClose(now, loc)
		w, err := domain.NewTimeWindow(start, now)
		if err != nil {
			return nil, "", err
		}
		return w, fmt.Sprintf("window since %s %s", start.Format("3:04pm 01/02/06"), ZoneLabel(start)), nil
	case ModeAll:
		return nil, "window all", nil
	default:
		return nil, "", fmt.Errorf("%w %q", ErrInvalidMode, mode)
	}
}

// ZoneLabel is "ET" for New York and the zone abbreviation elsewhere.
func ZoneLabel(t time.Time) string {
	if t.Location().String() == DefaultLocation {
		return "ET"
	}
	return t.Format("MST")
}
