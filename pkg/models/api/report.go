package api

import "time"

type CreateReportRequest struct {
	Surface    string        `json:"surface"`
	Processes  []string      `json:"processes"`
	PeriodType string        `json:"period_type"`
	Range      string        `json:"range"`
	Start      string        `json:"start,omitempty"`
	End        string        `json:"end,omitempty"`
	Options    ReportOptions `json:"options"`
}

type Availability struct {
	Samples []float64 `json:"samples"`
	Percent int       `json:"percent"`
}

type HourBucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type FailureCount struct {
	Labels   []string     `json:"labels"`
	Failures []int        `json:"failures"`
	Hourly   []HourBucket `json:"hourly"`
}

type MTBF struct {
	Minutes                float64 `json:"mtbf_minutes"`
	TotalProcessingMinutes float64 `json:"total_processing_minutes"`
	FailureCount           int     `json:"failure_count"`
	Summary                string  `json:"summary_text,omitempty"`
}

type MTTR struct {
	Minutes            float64 `json:"mttr_minutes"`
	RepairCount        int     `json:"repair_count"`
	TotalRepairMinutes float64 `json:"total_repair_minutes"`
	Summary            string  `json:"summary_text,omitempty"`
}

type ProcessReport struct {
	Process string `json:"process"`
	Range   string `json:"range"`
	Report  string `json:"report"`
	Summary string `json:"summary,omitempty"`

	FailureTable []HourBucket `json:"failureTable,omitempty"`

	Availability *Availability     `json:"availability,omitempty"`
	Production   *Production       `json:"production,omitempty"`
	Downtime     *DowntimeResponse `json:"downtime,omitempty"`
	FailureCount *FailureCount     `json:"failureCount,omitempty"`
	MTBF         *MTBF             `json:"mtbf,omitempty"`
	MTTR         *MTTR             `json:"mttr,omitempty"`
}

type SectionWarning struct {
	Process string `json:"process"`
	Section string `json:"section"`
	Message string `json:"message"`
}

type ReportCollection struct {
	ID         string           `json:"id"`
	Surface    string           `json:"surface"`
	Generation uint64           `json:"generation"`
	Range      string           `json:"range"`
	Options    ReportOptions    `json:"options"`
	State      string           `json:"state"`
	CreatedAt  time.Time        `json:"created_at"`
	Reports    []ProcessReport  `json:"reports"`
	Warnings   []SectionWarning `json:"warnings,omitempty"`
	Tabs       map[string]bool  `json:"tabs,omitempty"`
}

type SectionEvent struct {
	Type         string    `json:"type"`
	CollectionID string    `json:"collection_id"`
	Generation   uint64    `json:"generation"`
	Process      string    `json:"process,omitempty"`
	Section      string    `json:"section,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`

	Collection *ReportCollection `json:"collection,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
