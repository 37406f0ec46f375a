package adapters

import (
	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
)

// MapDomainReportToExportRecord flattens a process report into the shape the
// document sink expects in reportData.
func MapDomainReportToExportRecord(p domain.ProcessReport) api.ExportRecord {
	rec := api.ExportRecord{
		Process: p.Process,
		Range:   p.Range.String(),
		Report:  p.Narrative,
		Summary: p.Summary,
	}
	if p.Availability != nil {
		rec.Available = p.Availability.Samples
	}
	if p.Production != nil {
		rec.Production = &api.Production{Input: p.Production.Input, Output: p.Production.Output, Rate: p.Production.Rate}
	}
	table := p.FailureTable
	if p.FailureCount != nil {
		rec.Labels = p.FailureCount.Labels
		rec.Failures = p.FailureCount.Failures
		if len(table) == 0 {
			table = p.FailureCount.Hourly
		}
	}
	for _, b := range table {
		rec.FailureLabels = append(rec.FailureLabels, b.Label)
		rec.FailureCounts = append(rec.FailureCounts, b.Count)
	}
	if p.Downtime != nil {
		rec.Downtime = mapDomainDowntimeToAPI(p.Downtime)
	}
	if p.MTBF != nil {
		m := *p.MTBF
		rec.MTBFMinutes = &m.Minutes
		rec.TotalProcessingMinutes = &m.TotalProcessingMinutes
		rec.FailureCount = &m.FailureCount
		rec.MTBFSummary = m.Summary
	}
	if p.MTTR != nil {
		m := *p.MTTR
		rec.MTTRMinutes = &m.Minutes
		rec.RepairCount = &m.RepairCount
		rec.TotalRepairMinutes = &m.TotalRepairMinutes
		rec.MTTRSummary = m.Summary
	}
	return rec
}
