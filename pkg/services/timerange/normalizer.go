package timerange

import (
	"strings"
	"time"

	"github.com/de-tools/line-report/pkg/models/domain"
)

const (
	// CustomToken selects an explicit start/end interval.
	CustomToken = "custom"

	// DefaultToken is used for unknown quick-range tokens.
	DefaultToken = "1h"

	WeeklyToken  = "7d"
	MonthlyToken = "31d"

	// LocalOffset is appended to minute-precision bounds.
	LocalOffset = "+09:00"

	minuteLayoutLen = len("2006-01-02T15:04")
)

var quickRanges = map[string]string{
	"1시간": "1h",
	"3시간": "3h",
	"6시간": "6h",
	"9시간": "9h",
	"1h":  "1h",
	"3h":  "3h",
	"6h":  "6h",
	"9h":  "9h",
	"7d":  WeeklyToken,
	"31d": MonthlyToken,
}

// Normalize turns dashboard period selections into the range the backend understands.
func Normalize(periodType domain.PeriodType, quickRange, start, end string) (domain.TimeRange, error) {
	switch periodType {
	case domain.PeriodWeekly:
		return domain.TimeRange{Token: WeeklyToken}, nil
	case domain.PeriodMonthly:
		return domain.TimeRange{Token: MonthlyToken}, nil
	case domain.PeriodDaily, "":
	default:
		return domain.TimeRange{}, &domain.ValidationError{Field: "period_type", Err: domain.ErrUnknownPeriod}
	}

	if strings.TrimSpace(quickRange) != CustomToken {
		token, ok := quickRanges[strings.TrimSpace(quickRange)]
		if !ok {
			token = DefaultToken
		}
		return domain.TimeRange{Token: token}, nil
	}

	return NormalizeInterval(start, end)
}

// NormalizeInterval validates an explicit interval and completes minute-precision bounds.
func NormalizeInterval(start, end string) (domain.TimeRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" {
		return domain.TimeRange{}, &domain.ValidationError{Field: "start", Err: domain.ErrMissingBound}
	}
	if end == "" {
		return domain.TimeRange{}, &domain.ValidationError{Field: "end", Err: domain.ErrMissingBound}
	}

	start, end = NormalizeBound(start), NormalizeBound(end)

	startAt, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return domain.TimeRange{}, &domain.ValidationError{Field: "start", Err: domain.ErrInvalidBound}
	}
	endAt, err := time.Parse(time.RFC3339, end)
	if err != nil {
		return domain.TimeRange{}, &domain.ValidationError{Field: "end", Err: domain.ErrInvalidBound}
	}
	if !startAt.Before(endAt) {
		return domain.TimeRange{}, &domain.ValidationError{Field: "range", Err: domain.ErrInvalidInterval}
	}

	return domain.TimeRange{Start: start, End: end}, nil
}

// NormalizeBound appends seconds and the local offset to a "YYYY-MM-DDTHH:MM" bound.
// Any other input is returned unchanged.
func NormalizeBound(bound string) string {
	if len(bound) == minuteLayoutLen {
		return bound + ":00" + LocalOffset
	}
	return bound
}

// Parse reads a wire-form range back and validates it.
func Parse(s string) (domain.TimeRange, error) {
	rng := domain.ParseTimeRange(strings.TrimSpace(s))
	if rng.IsExplicit() || strings.Contains(s, "/") {
		return NormalizeInterval(rng.Start, rng.End)
	}
	if rng.Token == "" {
		return domain.TimeRange{}, &domain.ValidationError{Field: "range", Err: domain.ErrMissingBound}
	}
	token, ok := quickRanges[rng.Token]
	if !ok {
		token = DefaultToken
	}
	return domain.TimeRange{Token: token}, nil
}
