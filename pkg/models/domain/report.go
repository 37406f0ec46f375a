package domain

import (
	"fmt"
	"strings"
	"time"
)

// Section names an optional part of a process report.
type Section string

const (
	SectionAvailability Section = "availability"
	SectionProduction   Section = "production"
	SectionDowntime     Section = "downtime"
	SectionFailureCount Section = "failureCount"
	SectionMTBF         Section = "mtbf"
	SectionMTTR         Section = "mttr"
)

// Sections lists every section in dashboard order.
var Sections = []Section{
	SectionAvailability,
	SectionProduction,
	SectionDowntime,
	SectionFailureCount,
	SectionMTBF,
	SectionMTTR,
}

// Supplemental reports whether the section needs its own per-process fetch.
// The remaining sections are inlined in the base report.
func (s Section) Supplemental() bool {
	switch s {
	case SectionDowntime, SectionMTBF, SectionMTTR:
		return true
	}
	return false
}

// ReportOptions holds the independent section flags; any subset is valid.
type ReportOptions struct {
	Availability bool
	Production   bool
	Downtime     bool
	FailureCount bool
	MTBF         bool
	MTTR         bool
}

func (o ReportOptions) Enabled(s Section) bool {
	switch s {
	case SectionAvailability:
		return o.Availability
	case SectionProduction:
		return o.Production
	case SectionDowntime:
		return o.Downtime
	case SectionFailureCount:
		return o.FailureCount
	case SectionMTBF:
		return o.MTBF
	case SectionMTTR:
		return o.MTTR
	}
	return false
}

func (o ReportOptions) EnabledSections() []Section {
	var sections []Section
	for _, s := range Sections {
		if o.Enabled(s) {
			sections = append(sections, s)
		}
	}
	return sections
}

// SupplementalSections returns the enabled sections that are fetched per process.
func (o ReportOptions) SupplementalSections() []Section {
	var sections []Section
	for _, s := range o.EnabledSections() {
		if s.Supplemental() {
			sections = append(sections, s)
		}
	}
	return sections
}

// ParseReportOptions builds options from section names; "all" enables everything.
func ParseReportOptions(names []string) (ReportOptions, error) {
	var opts ReportOptions
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, "all") {
			return ReportOptions{true, true, true, true, true, true}, nil
		}
		matched := false
		for _, s := range Sections {
			if strings.EqualFold(name, string(s)) {
				opts.set(s)
				matched = true
				break
			}
		}
		if !matched {
			return ReportOptions{}, &ValidationError{Field: "options", Err: fmt.Errorf("unknown report section %q", name)}
		}
	}
	return opts, nil
}

func (o *ReportOptions) set(s Section) {
	switch s {
	case SectionAvailability:
		o.Availability = true
	case SectionProduction:
		o.Production = true
	case SectionDowntime:
		o.Downtime = true
	case SectionFailureCount:
		o.FailureCount = true
	case SectionMTBF:
		o.MTBF = true
	case SectionMTTR:
		o.MTTR = true
	}
}

type Availability struct {
	Samples []float64
	Percent int
}

type Production struct {
	Input  int64
	Output int64
	Rate   float64
}

type Downtime struct {
	FailureTotal  float64
	RepairTotal   float64
	HourlyLabels  []string
	FailureByHour []float64
	RepairByHour  []float64
}

// HourBucket is one "HH시대" row of the hourly failure table.
type HourBucket struct {
	Label string
	Count int
}

type FailureCount struct {
	Labels   []string
	Failures []int
	Hourly   []HourBucket
}

// Total sums the hourly buckets.
func (f FailureCount) Total() int {
	total := 0
	for _, b := range f.Hourly {
		total += b.Count
	}
	return total
}

type MTBF struct {
	Minutes                float64
	TotalProcessingMinutes float64
	FailureCount           int
	Summary                string
}

type MTTR struct {
	Minutes            float64
	RepairCount        int
	TotalRepairMinutes float64
	Summary            string
}

// ProcessReport is the merged per-process result. Optional sections stay nil
// until their data arrives, and stay nil when their fetch fails.
type ProcessReport struct {
	Process   string
	Narrative string
	Summary   string
	Range     TimeRange

	// FailureTable is the hourly failure table as sent by the backend with every
	// base record, independent of the selected options.
	FailureTable []HourBucket

	Availability *Availability
	Production   *Production
	Downtime     *Downtime
	FailureCount *FailureCount
	MTBF         *MTBF
	MTTR         *MTTR
}

func (p ProcessReport) Has(s Section) bool {
	switch s {
	case SectionAvailability:
		return p.Availability != nil
	case SectionProduction:
		return p.Production != nil
	case SectionDowntime:
		return p.Downtime != nil
	case SectionFailureCount:
		return p.FailureCount != nil
	case SectionMTBF:
		return p.MTBF != nil
	case SectionMTTR:
		return p.MTTR != nil
	}
	return false
}

// GenerationState tracks one report generation cycle.
type GenerationState string

const (
	StateIdle              GenerationState = "idle"
	StateDispatched        GenerationState = "dispatched"
	StateBasePending       GenerationState = "base_pending"
	StateBaseReady         GenerationState = "base_ready"
	StateSupplementPending GenerationState = "supplement_pending"
	StateSettled           GenerationState = "settled"
)

// SectionWarning records a non-fatal section failure.
type SectionWarning struct {
	Process string
	Section Section
	Message string
}

// ReportCollection is an immutable view of one generation, in selection order.
type ReportCollection struct {
	ID         string
	Surface    string
	Generation uint64
	Range      TimeRange
	Options    ReportOptions
	State      GenerationState
	CreatedAt  time.Time
	Reports    []ProcessReport
	Warnings   []SectionWarning
}

func (c ReportCollection) Processes() []string {
	processes := make([]string, 0, len(c.Reports))
	for _, r := range c.Reports {
		processes = append(processes, r.Process)
	}
	return processes
}

// SectionEvent is the progressive "section ready" notification.
type SectionEvent struct {
	CollectionID string
	Generation   uint64
	Process      string
	Section      Section
	Err          error
	At           time.Time
}
