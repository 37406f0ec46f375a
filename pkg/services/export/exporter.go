package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/de-tools/line-report/pkg/adapters"
	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
)

type Format string

const (
	FormatDocx  Format = "docx"
	FormatExcel Format = "excel"
)

const (
	DocxFilename  = "제조_보고서.docx"
	ExcelFilename = "제조_기초데이터.xlsx"

	docxContentType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatDocx:
		return FormatDocx, nil
	case FormatExcel, "xlsx":
		return FormatExcel, nil
	default:
		return "", &domain.ValidationError{Field: "format", Err: fmt.Errorf("%w: %q", domain.ErrUnknownFormat, s)}
	}
}

// Sink renders documents; the backend client is the production sink.
type Sink interface {
	GenerateDocument(ctx context.Context, format string, form api.ExportForm) (*api.DocumentBlob, error)
}

type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Exporter interface {
	Export(ctx context.Context, c domain.ReportCollection, format Format, images []api.ChartImage) (*Document, error)
}

type exporter struct {
	sink Sink
}

func NewExporter(sink Sink) Exporter {
	return &exporter{sink: sink}
}

func (e *exporter) Export(ctx context.Context, c domain.ReportCollection, format Format, images []api.ChartImage) (*Document, error) {
	logger := zerolog.Ctx(ctx)

	if len(c.Reports) == 0 {
		return nil, &domain.ValidationError{Field: "collection", Err: domain.ErrEmptyCollection}
	}

	var (
		form     api.ExportForm
		doc      Document
		sinkName string
	)
	switch format {
	case FormatDocx:
		form = BuildDocxForm(c)
		form.Images = images
		doc = Document{Filename: DocxFilename, ContentType: docxContentType}
		sinkName = "docx"
	case FormatExcel:
		form = api.ExportForm{ReportData: exportRecords(c)}
		doc = Document{Filename: ExcelFilename, ContentType: excelContentType}
		sinkName = "excel"
	default:
		return nil, &domain.ValidationError{Field: "format", Err: fmt.Errorf("%w: %q", domain.ErrUnknownFormat, format)}
	}

	blob, err := e.sink.GenerateDocument(ctx, sinkName, form)
	if err != nil {
		logger.Error().Err(err).Str("format", sinkName).Str("collection", c.ID).Msg("document export failed")
		return nil, &domain.NetworkError{Op: "export " + sinkName, Err: err}
	}

	doc.Body = blob.Body
	if blob.ContentType != "" {
		doc.ContentType = blob.ContentType
	}
	logger.Info().
		Str("format", sinkName).
		Str("collection", c.ID).
		Int("bytes", len(doc.Body)).
		Msg("document exported")

	return &doc, nil
}

// BuildDocxForm concatenates the narratives and hourly failure buckets of every
// process in display order.
func BuildDocxForm(c domain.ReportCollection) api.ExportForm {
	records := exportRecords(c)

	var (
		sb     strings.Builder
		labels []string
		counts []int
	)
	for _, rec := range records {
		fmt.Fprintf(&sb, "\n\n[%s] 공정\n분석 기간: %s\n%s\n", rec.Process, rec.Range, rec.Report)
		if len(rec.FailureLabels) > 0 && len(rec.FailureCounts) > 0 {
			labels = append(labels, rec.FailureLabels...)
			counts = append(counts, rec.FailureCounts...)
		}
	}

	return api.ExportForm{
		Report:        sb.String(),
		FailureLabels: labels,
		FailureCounts: counts,
		ReportData:    records,
	}
}

func exportRecords(c domain.ReportCollection) []api.ExportRecord {
	records := make([]api.ExportRecord, 0, len(c.Reports))
	for _, p := range c.Reports {
		records = append(records, adapters.MapDomainReportToExportRecord(p))
	}
	return records
}
