package domain

import (
	"strings"
	"time"
)

// PeriodType is the report period chosen on the dashboard.
type PeriodType string

const (
	PeriodDaily   PeriodType = "daily"
	PeriodWeekly  PeriodType = "weekly"
	PeriodMonthly PeriodType = "monthly"
)

// TimeRange is the canonical range descriptor sent to the backend.
// It is either a relative token (Token set) or an explicit interval (Start and End set).
type TimeRange struct {
	Token string
	Start string
	End   string
}

// HourRange is an inclusive hour-of-day filter.
type HourRange struct {
	Start int
	End   int
}

func (r TimeRange) IsExplicit() bool {
	return r.Token == "" && r.Start != "" && r.End != ""
}

func (r TimeRange) IsZero() bool {
	return r.Token == "" && r.Start == "" && r.End == ""
}

// String renders the wire form: "1h", "7d" or "start/end".
func (r TimeRange) String() string {
	if r.IsExplicit() {
		return r.Start + "/" + r.End
	}
	return r.Token
}

// ParseTimeRange reads back the wire form without validating it.
func ParseTimeRange(s string) TimeRange {
	if start, end, ok := strings.Cut(s, "/"); ok {
		return TimeRange{Start: start, End: end}
	}
	return TimeRange{Token: s}
}

// HourFilter returns the hour window of an explicit interval, nil for relative tokens.
func (r TimeRange) HourFilter() *HourRange {
	if !r.IsExplicit() {
		return nil
	}
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return nil
	}
	end, err := time.Parse(time.RFC3339, r.End)
	if err != nil {
		return nil
	}
	return &HourRange{Start: start.Hour(), End: end.Hour()}
}

func (h *HourRange) Contains(hour int) bool {
	if h == nil {
		return true
	}
	return hour >= h.Start && hour <= h.End
}
