package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/line-report/pkg/models/domain"
)

type TableConfig struct {
	NameWidth        int
	ValueWidth       int
	UnitWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        16,
		ValueWidth:       14,
		UnitWidth:        6,
		DescriptionWidth: 48,
	}
}

type Row struct {
	Name        string
	Value       interface{}
	Unit        string
	Description string
}

type processView struct {
	Process   string
	Range     string
	Narrative string
	Rows      []Row
}

type collectionView struct {
	ID       string
	Surface  string
	Range    string
	State    string
	Reports  []processView
	Warnings []domain.SectionWarning
}

// Reporter prints a settled collection as one table per process.
type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report domain.ReportCollection) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, value interface{}, unit string, desc string) string {
			unitStr := unit
			if unit == "" {
				unitStr = strings.Repeat(" ", c.config.UnitWidth)
			}
			return fmt.Sprintf("| %-*s | %-*v | %-*s | %-*s |",
				c.config.NameWidth, name,
				c.config.ValueWidth, value,
				c.config.UnitWidth, unitStr,
				c.config.DescriptionWidth, desc)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.UnitWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
	}

	tmpl := `
Report {{.ID}} ({{.State}})
Surface: {{.Surface}}
Range: {{.Range}}
{{range .Reports}}
=== [{{.Process}}] 공정 ===
분석 기간: {{.Range}}
{{if .Narrative}}{{.Narrative}}
{{end}}{{if .Rows}}
{{separator}}
{{formatRow "Section" "Value" "Unit" "Detail"}}
{{separator}}
{{range .Rows}}{{formatRow .Name .Value .Unit .Description}}
{{end}}{{separator}}
{{end}}{{end}}{{if .Warnings}}
Warnings:
{{range .Warnings}}- {{.Process}}{{if .Section}} / {{.Section}}{{end}}: {{.Message}}
{{end}}{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, newCollectionView(report))
}

func newCollectionView(c domain.ReportCollection) collectionView {
	view := collectionView{
		ID:       c.ID,
		Surface:  c.Surface,
		Range:    c.Range.String(),
		State:    string(c.State),
		Warnings: c.Warnings,
	}
	for _, p := range c.Reports {
		view.Reports = append(view.Reports, processView{
			Process:   p.Process,
			Range:     p.Range.String(),
			Narrative: strings.TrimSpace(p.Narrative),
			Rows:      Rows(p),
		})
	}
	return view
}

// Rows lists the sections present on a process report in display order.
func Rows(p domain.ProcessReport) []Row {
	var rows []Row
	if p.Availability != nil {
		rows = append(rows, Row{
			Name:        "availability",
			Value:       p.Availability.Percent,
			Unit:        "%",
			Description: fmt.Sprintf("%d samples", len(p.Availability.Samples)),
		})
	}
	if p.Production != nil {
		rows = append(rows, Row{
			Name:        "production",
			Value:       p.Production.Output,
			Unit:        "ea",
			Description: fmt.Sprintf("input %d, rate %.1f%%", p.Production.Input, p.Production.Rate),
		})
	}
	if p.FailureCount != nil {
		rows = append(rows, Row{
			Name:        "failureCount",
			Value:       p.FailureCount.Total(),
			Unit:        "",
			Description: hourly(p.FailureCount.Hourly),
		})
	}
	if p.Downtime != nil {
		rows = append(rows, Row{
			Name:        "downtime",
			Value:       fmt.Sprintf("%.1f", p.Downtime.FailureTotal),
			Unit:        "min",
			Description: fmt.Sprintf("repair %.1f min", p.Downtime.RepairTotal),
		})
	}
	if p.MTBF != nil {
		rows = append(rows, Row{
			Name:        "mtbf",
			Value:       fmt.Sprintf("%.1f", p.MTBF.Minutes),
			Unit:        "min",
			Description: fmt.Sprintf("%d failures", p.MTBF.FailureCount),
		})
	}
	if p.MTTR != nil {
		rows = append(rows, Row{
			Name:        "mttr",
			Value:       fmt.Sprintf("%.1f", p.MTTR.Minutes),
			Unit:        "min",
			Description: fmt.Sprintf("%d repairs", p.MTTR.RepairCount),
		})
	}
	return rows
}

func hourly(buckets []domain.HourBucket) string {
	parts := make([]string, 0, len(buckets))
	for _, b := range buckets {
		parts = append(parts, fmt.Sprintf("%s:%d", b.Label, b.Count))
	}
	return strings.Join(parts, " ")
}
