package adapters

import (
	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
)

func MapDomainOptionsToAPI(o domain.ReportOptions) api.ReportOptions {
	return api.ReportOptions{
		Availability: o.Availability,
		Production:   o.Production,
		Downtime:     o.Downtime,
		FailureCount: o.FailureCount,
		MTBF:         o.MTBF,
		MTTR:         o.MTTR,
	}
}

func MapAPIOptionsToDomain(o api.ReportOptions) domain.ReportOptions {
	return domain.ReportOptions{
		Availability: o.Availability,
		Production:   o.Production,
		Downtime:     o.Downtime,
		FailureCount: o.FailureCount,
		MTBF:         o.MTBF,
		MTTR:         o.MTTR,
	}
}

// MapBaseReportToDomain keeps only the inline sections enabled in opts.
// Derived values (availability percent, hourly buckets) are left to the caller.
func MapBaseReportToDomain(rec api.BaseReport, rng domain.TimeRange, opts domain.ReportOptions) domain.ProcessReport {
	rep := domain.ProcessReport{
		Process:   rec.Process,
		Narrative: rec.Report,
		Summary:   rec.Summary,
		Range:     rng,
	}
	rep.FailureTable = mapFailureTable(rec.FailureLabels, rec.FailureCounts)

	if opts.Availability && len(rec.Available) > 0 {
		rep.Availability = &domain.Availability{Samples: rec.Available}
	}
	if opts.Production && rec.Production != nil {
		rep.Production = &domain.Production{
			Input:  rec.Production.Input,
			Output: rec.Production.Output,
			Rate:   rec.Production.Rate,
		}
	}
	if opts.FailureCount && rec.Failures != nil {
		rep.FailureCount = &domain.FailureCount{
			Labels:   rec.Labels,
			Failures: rec.Failures,
		}
	}
	return rep
}

// mapFailureTable pairs the backend's hourly labels with their counts; unpaired
// entries are dropped.
func mapFailureTable(labels []string, counts []int) []domain.HourBucket {
	n := min(len(labels), len(counts))
	if n == 0 {
		return nil
	}
	table := make([]domain.HourBucket, 0, n)
	for i := 0; i < n; i++ {
		table = append(table, domain.HourBucket{Label: labels[i], Count: counts[i]})
	}
	return table
}

func MapDowntimeToDomain(d *api.DowntimeResponse) *domain.Downtime {
	if d == nil {
		return nil
	}
	return &domain.Downtime{
		FailureTotal:  d.FailureTotal,
		RepairTotal:   d.RepairTotal,
		HourlyLabels:  d.HourlyLabels,
		FailureByHour: d.FailureByHour,
		RepairByHour:  d.RepairByHour,
	}
}

func MapMTBFToDomain(m *api.MTBFResponse) *domain.MTBF {
	if m == nil {
		return nil
	}
	return &domain.MTBF{
		Minutes:                m.MTBFMinutes,
		TotalProcessingMinutes: m.TotalProcessingMinutes,
		FailureCount:           m.FailureCount,
		Summary:                m.SummaryText,
	}
}

func MapMTTRToDomain(m *api.MTTRResponse) *domain.MTTR {
	if m == nil {
		return nil
	}
	return &domain.MTTR{
		Minutes:            m.MTTRMinutes,
		RepairCount:        m.RepairCount,
		TotalRepairMinutes: m.TotalRepairMinutes,
		Summary:            m.SummaryText,
	}
}

func MapDomainReportToAPI(p domain.ProcessReport) api.ProcessReport {
	out := api.ProcessReport{
		Process: p.Process,
		Range:   p.Range.String(),
		Report:  p.Narrative,
		Summary: p.Summary,
	}
	for _, b := range p.FailureTable {
		out.FailureTable = append(out.FailureTable, api.HourBucket{Label: b.Label, Count: b.Count})
	}
	if p.Availability != nil {
		out.Availability = &api.Availability{Samples: p.Availability.Samples, Percent: p.Availability.Percent}
	}
	if p.Production != nil {
		out.Production = &api.Production{Input: p.Production.Input, Output: p.Production.Output, Rate: p.Production.Rate}
	}
	if p.Downtime != nil {
		out.Downtime = mapDomainDowntimeToAPI(p.Downtime)
	}
	if p.FailureCount != nil {
		hourly := make([]api.HourBucket, 0, len(p.FailureCount.Hourly))
		for _, b := range p.FailureCount.Hourly {
			hourly = append(hourly, api.HourBucket{Label: b.Label, Count: b.Count})
		}
		out.FailureCount = &api.FailureCount{
			Labels:   p.FailureCount.Labels,
			Failures: p.FailureCount.Failures,
			Hourly:   hourly,
		}
	}
	if p.MTBF != nil {
		out.MTBF = &api.MTBF{
			Minutes:                p.MTBF.Minutes,
			TotalProcessingMinutes: p.MTBF.TotalProcessingMinutes,
			FailureCount:           p.MTBF.FailureCount,
			Summary:                p.MTBF.Summary,
		}
	}
	if p.MTTR != nil {
		out.MTTR = &api.MTTR{
			Minutes:            p.MTTR.Minutes,
			RepairCount:        p.MTTR.RepairCount,
			TotalRepairMinutes: p.MTTR.TotalRepairMinutes,
			Summary:            p.MTTR.Summary,
		}
	}
	return out
}

func MapAPIReportToDomain(p api.ProcessReport) domain.ProcessReport {
	out := domain.ProcessReport{
		Process:   p.Process,
		Range:     domain.ParseTimeRange(p.Range),
		Narrative: p.Report,
		Summary:   p.Summary,
	}
	for _, b := range p.FailureTable {
		out.FailureTable = append(out.FailureTable, domain.HourBucket{Label: b.Label, Count: b.Count})
	}
	if p.Availability != nil {
		out.Availability = &domain.Availability{Samples: p.Availability.Samples, Percent: p.Availability.Percent}
	}
	if p.Production != nil {
		out.Production = &domain.Production{Input: p.Production.Input, Output: p.Production.Output, Rate: p.Production.Rate}
	}
	out.Downtime = MapDowntimeToDomain(p.Downtime)
	if p.FailureCount != nil {
		hourly := make([]domain.HourBucket, 0, len(p.FailureCount.Hourly))
		for _, b := range p.FailureCount.Hourly {
			hourly = append(hourly, domain.HourBucket{Label: b.Label, Count: b.Count})
		}
		out.FailureCount = &domain.FailureCount{
			Labels:   p.FailureCount.Labels,
			Failures: p.FailureCount.Failures,
			Hourly:   hourly,
		}
	}
	if p.MTBF != nil {
		out.MTBF = &domain.MTBF{
			Minutes:                p.MTBF.Minutes,
			TotalProcessingMinutes: p.MTBF.TotalProcessingMinutes,
			FailureCount:           p.MTBF.FailureCount,
			Summary:                p.MTBF.Summary,
		}
	}
	if p.MTTR != nil {
		out.MTTR = &domain.MTTR{
			Minutes:            p.MTTR.Minutes,
			RepairCount:        p.MTTR.RepairCount,
			TotalRepairMinutes: p.MTTR.TotalRepairMinutes,
			Summary:            p.MTTR.Summary,
		}
	}
	return out
}

func MapDomainCollectionToAPI(c domain.ReportCollection) api.ReportCollection {
	reports := make([]api.ProcessReport, 0, len(c.Reports))
	for _, r := range c.Reports {
		reports = append(reports, MapDomainReportToAPI(r))
	}
	var warnings []api.SectionWarning
	for _, w := range c.Warnings {
		warnings = append(warnings, api.SectionWarning{
			Process: w.Process,
			Section: string(w.Section),
			Message: w.Message,
		})
	}
	return api.ReportCollection{
		ID:         c.ID,
		Surface:    c.Surface,
		Generation: c.Generation,
		Range:      c.Range.String(),
		Options:    MapDomainOptionsToAPI(c.Options),
		State:      string(c.State),
		CreatedAt:  c.CreatedAt,
		Reports:    reports,
		Warnings:   warnings,
	}
}

func MapAPICollectionToDomain(c api.ReportCollection) domain.ReportCollection {
	reports := make([]domain.ProcessReport, 0, len(c.Reports))
	for _, r := range c.Reports {
		reports = append(reports, MapAPIReportToDomain(r))
	}
	var warnings []domain.SectionWarning
	for _, w := range c.Warnings {
		warnings = append(warnings, domain.SectionWarning{
			Process: w.Process,
			Section: domain.Section(w.Section),
			Message: w.Message,
		})
	}
	return domain.ReportCollection{
		ID:         c.ID,
		Surface:    c.Surface,
		Generation: c.Generation,
		Range:      domain.ParseTimeRange(c.Range),
		Options:    MapAPIOptionsToDomain(c.Options),
		State:      domain.GenerationState(c.State),
		CreatedAt:  c.CreatedAt,
		Reports:    reports,
		Warnings:   warnings,
	}
}

func MapDomainEventToAPI(ev domain.SectionEvent) api.SectionEvent {
	out := api.SectionEvent{
		Type:         "section_ready",
		CollectionID: ev.CollectionID,
		Generation:   ev.Generation,
		Process:      ev.Process,
		Section:      string(ev.Section),
		Timestamp:    ev.At,
	}
	if ev.Err != nil {
		out.Type = "section_failed"
		out.Error = ev.Err.Error()
	}
	return out
}

func mapDomainDowntimeToAPI(d *domain.Downtime) *api.DowntimeResponse {
	return &api.DowntimeResponse{
		FailureTotal:  d.FailureTotal,
		RepairTotal:   d.RepairTotal,
		HourlyLabels:  d.HourlyLabels,
		FailureByHour: d.FailureByHour,
		RepairByHour:  d.RepairByHour,
	}
}
