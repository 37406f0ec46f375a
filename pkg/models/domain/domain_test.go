package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportOptions(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    ReportOptions
		wantErr bool
	}{
		{name: "none", in: nil, want: ReportOptions{}},
		{name: "all", in: []string{"all"}, want: ReportOptions{true, true, true, true, true, true}},
		{name: "subset", in: []string{"MTBF", " availability ", ""}, want: ReportOptions{Availability: true, MTBF: true}},
		{name: "unknown", in: []string{"oee"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseReportOptions(tt.in)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReportOptions_SupplementalSections(t *testing.T) {
	opts := ReportOptions{Availability: true, Downtime: true, MTTR: true}

	assert.Equal(t, []Section{SectionAvailability, SectionDowntime, SectionMTTR}, opts.EnabledSections())
	assert.Equal(t, []Section{SectionDowntime, SectionMTTR}, opts.SupplementalSections())
	assert.Empty(t, ReportOptions{Production: true}.SupplementalSections())
}

func TestTabVisibility(t *testing.T) {
	processes := []string{"P1", "P2", "P3"}

	tests := []struct {
		name     string
		selected string
		want     map[string]bool
	}{
		{name: "selected", selected: "P2", want: map[string]bool{"P1": false, "P2": true, "P3": false}},
		{name: "empty selects first", selected: "", want: map[string]bool{"P1": true, "P2": false, "P3": false}},
		{name: "unknown selects first", selected: "P9", want: map[string]bool{"P1": true, "P2": false, "P3": false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TabVisibility(processes, tt.selected)
			assert.Equal(t, tt.want, got)

			visible := 0
			for _, v := range got {
				if v {
					visible++
				}
			}
			assert.Equal(t, 1, visible)
		})
	}

	assert.Empty(t, TabVisibility(nil, "P1"))
}

func TestTimeRange(t *testing.T) {
	explicit := TimeRange{Start: "2025-04-10T09:00:00+09:00", End: "2025-04-10T18:00:00+09:00"}

	assert.Equal(t, "2025-04-10T09:00:00+09:00/2025-04-10T18:00:00+09:00", explicit.String())
	assert.Equal(t, explicit, ParseTimeRange(explicit.String()))
	assert.Equal(t, TimeRange{Token: "7d"}, ParseTimeRange("7d"))
	assert.True(t, TimeRange{}.IsZero())

	hours := explicit.HourFilter()
	require.NotNil(t, hours)
	assert.Equal(t, HourRange{Start: 9, End: 18}, *hours)
	assert.True(t, hours.Contains(9))
	assert.False(t, hours.Contains(19))

	var all *HourRange
	assert.Nil(t, TimeRange{Token: "1h"}.HourFilter())
	assert.True(t, all.Contains(23))
}

func TestErrors(t *testing.T) {
	cause := errors.New("refused")

	nerr := &NetworkError{Op: "get mtbf", Process: "P1", Err: cause}
	assert.Equal(t, "get mtbf for process P1: refused", nerr.Error())
	assert.ErrorIs(t, nerr, cause)
	assert.True(t, IsNetwork(nerr))
	assert.False(t, IsValidation(nerr))

	perr := &PartialSectionError{Process: "P1", Section: SectionMTBF, Err: cause}
	assert.Equal(t, "section mtbf unavailable for process P1: refused", perr.Error())

	verr := &ValidationError{Field: "end", Err: ErrMissingBound}
	assert.ErrorIs(t, verr, ErrMissingBound)
	assert.True(t, IsValidation(verr))
}
