package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/de-tools/line-report/pkg/adapters"
	"github.com/de-tools/line-report/pkg/models/api"
	"github.com/de-tools/line-report/pkg/models/domain"
)

// Backend is the monitoring backend the aggregator fetches from.
type Backend interface {
	GenerateReport(ctx context.Context, req api.GenerateReportRequest) ([]api.BaseReport, error)
	GetDowntime(ctx context.Context, req api.SectionRequest) (*api.DowntimeResponse, error)
	GetMTBF(ctx context.Context, req api.SectionRequest) (*api.MTBFResponse, error)
	GetMTTR(ctx context.Context, req api.SectionRequest) (*api.MTTRResponse, error)
}

// SectionListener receives progressive "section ready" notifications.
type SectionListener interface {
	SectionReady(ctx context.Context, ev domain.SectionEvent)
}

type SectionListenerFunc func(ctx context.Context, ev domain.SectionEvent)

func (f SectionListenerFunc) SectionReady(ctx context.Context, ev domain.SectionEvent) {
	f(ctx, ev)
}

type Config struct {
	// RequestTimeout bounds every backend call; zero disables the bound.
	RequestTimeout time.Duration
	// MaxConcurrency caps in-flight supplemental fetches; zero means unlimited.
	MaxConcurrency int
}

func DefaultConfig() Config {
	return Config{
		RequestTimeout: 30 * time.Second,
		MaxConcurrency: 8,
	}
}

const supersededMessage = "superseded by a newer generation"

// Aggregator generates report collections for one target surface. Every call to
// Generate starts a new generation; results of older generations are discarded.
type Aggregator struct {
	surface    string
	backend    Backend
	listener   SectionListener
	config     Config
	generation atomic.Uint64
}

func NewAggregator(surface string, backend Backend, listener SectionListener, config Config) *Aggregator {
	return &Aggregator{
		surface:  surface,
		backend:  backend,
		listener: listener,
		config:   config,
	}
}

func (a *Aggregator) isCurrent(gen uint64) bool {
	return a.generation.Load() == gen
}

// Generate fetches the base report and returns as soon as it is ready for display.
// Supplemental sections keep arriving in the background until the collection settles.
func (a *Aggregator) Generate(
	ctx context.Context,
	processes []string,
	rng domain.TimeRange,
	opts domain.ReportOptions,
) (*Collection, error) {
	if len(processes) == 0 {
		return nil, &domain.ValidationError{Field: "processes", Err: domain.ErrNoProcessSelected}
	}
	for _, p := range processes {
		if strings.TrimSpace(p) == "" || strings.Contains(p, ",") {
			return nil, &domain.ValidationError{Field: "processes", Err: fmt.Errorf("%w: %q", domain.ErrInvalidProcess, p)}
		}
	}
	if rng.IsZero() {
		return nil, &domain.ValidationError{Field: "range", Err: domain.ErrMissingBound}
	}

	gen := a.generation.Add(1)
	coll := newCollection(uuid.NewString(), a.surface, gen, processes, rng, opts)
	logger := zerolog.Ctx(ctx).With().
		Str("surface", a.surface).
		Uint64("generation", gen).
		Str("collection", coll.ID).
		Logger()

	coll.setState(domain.StateDispatched)
	coll.setState(domain.StateBasePending)

	baseCtx, cancel := a.withTimeout(ctx)
	records, err := a.backend.GenerateReport(baseCtx, api.GenerateReportRequest{
		Processes: coll.Processes(),
		Range:     rng.String(),
		Options:   adapters.MapDomainOptionsToAPI(opts),
	})
	cancel()
	if err != nil {
		coll.settle()
		logger.Error().Err(err).Msg("base report fetch failed")
		return nil, &domain.NetworkError{Op: "generate report", Err: err}
	}

	if !a.isCurrent(gen) {
		coll.settle()
		logger.Debug().Msg("discarding superseded base report")
		return nil, domain.ErrSuperseded
	}

	base := make([]domain.ProcessReport, 0, len(records))
	for _, rec := range records {
		base = append(base, a.deriveBase(rec, rng, opts))
	}
	missing := coll.applyBase(base)
	for _, p := range missing {
		coll.addWarning(domain.SectionWarning{Process: p, Message: "process missing from base report"})
		logger.Warn().Str("process", p).Msg("process missing from base report")
	}

	a.notifyInline(ctx, coll, missing)

	jobs := supplementalJobs(coll, missing)
	if len(jobs) == 0 {
		coll.settle()
		return coll, nil
	}

	coll.setState(domain.StateSupplementPending)
	// Supplements outlive the caller's request; the per-request timeout still applies.
	go a.runSupplements(logger.WithContext(context.WithoutCancel(ctx)), coll, jobs)

	return coll, nil
}

func (a *Aggregator) deriveBase(rec api.BaseReport, rng domain.TimeRange, opts domain.ReportOptions) domain.ProcessReport {
	rep := adapters.MapBaseReportToDomain(rec, rng, opts)
	if rep.Availability != nil {
		rep.Availability.Percent = AvailabilityPercent(rep.Availability.Samples)
	}
	if rep.FailureCount != nil {
		rep.FailureCount.Hourly = BucketFailuresByHour(rep.FailureCount.Labels, rep.FailureCount.Failures, rng.HourFilter())
	}
	return rep
}

type sectionJob struct {
	process string
	section domain.Section
}

func supplementalJobs(coll *Collection, skip []string) []sectionJob {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}

	var jobs []sectionJob
	for _, p := range coll.Processes() {
		if skipped[p] {
			continue
		}
		for _, s := range coll.Options.SupplementalSections() {
			jobs = append(jobs, sectionJob{process: p, section: s})
		}
	}
	return jobs
}

func (a *Aggregator) notifyInline(ctx context.Context, coll *Collection, skip []string) {
	skipped := make(map[string]bool, len(skip))
	for _, p := range skip {
		skipped[p] = true
	}
	for _, p := range coll.Processes() {
		if skipped[p] {
			continue
		}
		rep, _ := coll.Report(p)
		for _, s := range coll.Options.EnabledSections() {
			if !s.Supplemental() && rep.Has(s) {
				a.notify(ctx, coll, p, s, nil)
			}
		}
	}
}

func (a *Aggregator) runSupplements(ctx context.Context, coll *Collection, jobs []sectionJob) {
	var group errgroup.Group
	if a.config.MaxConcurrency > 0 {
		group.SetLimit(a.config.MaxConcurrency)
	}

	for _, job := range jobs {
		group.Go(func() error {
			a.fetchSection(ctx, coll, job)
			return nil
		})
	}

	_ = group.Wait()
	coll.settle()
	zerolog.Ctx(ctx).Debug().Int("sections", len(jobs)).Msg("report generation settled")
}

func (a *Aggregator) fetchSection(ctx context.Context, coll *Collection, job sectionJob) {
	logger := zerolog.Ctx(ctx).With().
		Str("process", job.process).
		Str("section", string(job.section)).
		Logger()

	reqCtx, cancel := a.withTimeout(ctx)
	defer cancel()

	req := api.SectionRequest{Process: job.process, Range: coll.Range.String()}
	var (
		apply func(*domain.ProcessReport)
		err   error
	)
	switch job.section {
	case domain.SectionDowntime:
		var resp *api.DowntimeResponse
		resp, err = a.backend.GetDowntime(reqCtx, req)
		apply = func(r *domain.ProcessReport) { r.Downtime = adapters.MapDowntimeToDomain(resp) }
	case domain.SectionMTBF:
		var resp *api.MTBFResponse
		resp, err = a.backend.GetMTBF(reqCtx, req)
		apply = func(r *domain.ProcessReport) { r.MTBF = adapters.MapMTBFToDomain(resp) }
	case domain.SectionMTTR:
		var resp *api.MTTRResponse
		resp, err = a.backend.GetMTTR(reqCtx, req)
		apply = func(r *domain.ProcessReport) { r.MTTR = adapters.MapMTTRToDomain(resp) }
	default:
		err = fmt.Errorf("section %s is not fetched separately", job.section)
	}

	if !a.isCurrent(coll.Generation) {
		coll.addWarning(domain.SectionWarning{Process: job.process, Section: job.section, Message: supersededMessage})
		logger.Debug().Msg("discarding stale section result")
		return
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", a.config.RequestTimeout, err)
		}
		perr := &domain.PartialSectionError{Process: job.process, Section: job.section, Err: err}
		coll.addWarning(domain.SectionWarning{Process: job.process, Section: job.section, Message: perr.Error()})
		logger.Warn().Err(err).Msg("section fetch failed")
		a.notify(ctx, coll, job.process, job.section, perr)
		return
	}

	coll.merge(job.process, apply)
	a.notify(ctx, coll, job.process, job.section, nil)
}

func (a *Aggregator) notify(ctx context.Context, coll *Collection, process string, section domain.Section, err error) {
	if a.listener == nil {
		return
	}
	a.listener.SectionReady(ctx, domain.SectionEvent{
		CollectionID: coll.ID,
		Generation:   coll.Generation,
		Process:      process,
		Section:      section,
		Err:          err,
		At:           time.Now().UTC(),
	})
}

func (a *Aggregator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
