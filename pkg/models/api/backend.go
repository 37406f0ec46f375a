package api

// Wire contracts of the monitoring backend.

type ReportOptions struct {
	Availability bool `json:"availability"`
	Production   bool `json:"production"`
	Downtime     bool `json:"downtime"`
	FailureCount bool `json:"failureCount"`
	MTBF         bool `json:"mtbf"`
	MTTR         bool `json:"mttr"`
}

type GenerateReportRequest struct {
	Processes []string      `json:"processes"`
	Range     string        `json:"range"`
	Options   ReportOptions `json:"options"`
}

type ErrorBody struct {
	Error string `json:"error,omitempty"`
}

type Production struct {
	Input  int64   `json:"input"`
	Output int64   `json:"output"`
	Rate   float64 `json:"rate"`
}

// BaseReport is one process entry of the generate_report response.
type BaseReport struct {
	Process       string      `json:"process"`
	Summary       string      `json:"summary,omitempty"`
	Report        string      `json:"report"`
	Labels        []string    `json:"labels,omitempty"`
	Available     []float64   `json:"available,omitempty"`
	Failures      []int       `json:"failures,omitempty"`
	FailureLabels []string    `json:"failureLabels,omitempty"`
	FailureCounts []int       `json:"failureCounts,omitempty"`
	Production    *Production `json:"production,omitempty"`
}

type GenerateReportResponse struct {
	Reports []BaseReport `json:"reports"`
	ErrorBody
}

type SectionRequest struct {
	Process string `json:"process"`
	Range   string `json:"range"`
}

type DowntimeResponse struct {
	FailureTotal  float64   `json:"failure_total"`
	RepairTotal   float64   `json:"repair_total"`
	HourlyLabels  []string  `json:"hourly_labels"`
	FailureByHour []float64 `json:"failure_by_hour"`
	RepairByHour  []float64 `json:"repair_by_hour"`
}

type MTBFResponse struct {
	MTBFMinutes            float64 `json:"mtbf_minutes"`
	TotalProcessingMinutes float64 `json:"total_processing_minutes"`
	FailureCount           int     `json:"failure_count"`
	SummaryText            string  `json:"summary_text,omitempty"`
}

type MTTRResponse struct {
	MTTRMinutes        float64 `json:"mttr_minutes"`
	RepairCount        int     `json:"repair_count"`
	TotalRepairMinutes float64 `json:"total_repair_minutes"`
	SummaryText        string  `json:"summary_text,omitempty"`
}

// ExportRecord is the flat per-process record the document sink reads from reportData.
type ExportRecord struct {
	Process       string      `json:"process"`
	Range         string      `json:"range"`
	Report        string      `json:"report"`
	Summary       string      `json:"summary,omitempty"`
	Labels        []string    `json:"labels,omitempty"`
	Available     []float64   `json:"available,omitempty"`
	Failures      []int       `json:"failures,omitempty"`
	FailureLabels []string    `json:"failureLabels,omitempty"`
	FailureCounts []int       `json:"failureCounts,omitempty"`
	Production    *Production `json:"production,omitempty"`

	Downtime *DowntimeResponse `json:"downtime,omitempty"`

	MTBFMinutes            *float64 `json:"mtbf_minutes,omitempty"`
	TotalProcessingMinutes *float64 `json:"total_processing_minutes,omitempty"`
	FailureCount           *int     `json:"failure_count,omitempty"`

	MTBFSummary            string   `json:"mtbf_summary,omitempty"`

	MTTRMinutes        *float64 `json:"mttr_minutes,omitempty"`
	RepairCount        *int     `json:"repair_count,omitempty"`
	TotalRepairMinutes *float64 `json:"total_repair_minutes,omitempty"`
	MTTRSummary        string   `json:"mttr_summary,omitempty"`
}

// ChartImage is a rendered chart attached to a document export.
type ChartImage struct {
	// Field is the multipart field, e.g. availabilityImages or failureImages.
	Field    string
	Filename string
	PNG      []byte
}

// ExportForm is the multipart payload of generate_docx / generate_excel.
// Empty fields are not sent.
type ExportForm struct {
	Report        string
	FailureLabels []string
	FailureCounts []int
	ReportData    []ExportRecord
	Images        []ChartImage
}

type DocumentBlob struct {
	ContentType string
	Body        []byte
}
