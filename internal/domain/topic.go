package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned when a window would end before it starts.
var ErrInvalidWindow = errors.New("window start is after window end")

// TopicSpec is a market theme with its search queries and auxiliary feeds.
type TopicSpec struct {
	Key        string   `yaml:"key"`
	Queries    []string `yaml:"queries"`
	ExtraFeeds []string `yaml:"extraFeeds"`
	Tickers    []string `yaml:"tickers"`
}

// TimeWindow bounds headline freshness. A nil *TimeWindow means no filtering.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow validates start <= end.
func NewTimeWindow(start, end time.Time) (*TimeWindow, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidWindow, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return &TimeWindow{Start: start, End: end}, nil
}

// Contains reports whether t lies within [Start, End], both ends inclusive.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
