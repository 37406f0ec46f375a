package report

import (
	"context"
	"sync"
	"time"

	"github.com/de-tools/line-report/pkg/models/domain"
)

// Collection is the live result of one generation. Base records are applied
// once; each supplemental section is then written by exactly one fetch.
type Collection struct {
	ID         string
	Surface    string
	Generation uint64
	Range      domain.TimeRange
	Options    domain.ReportOptions
	CreatedAt  time.Time

	mu       sync.RWMutex
	state    domain.GenerationState
	order    []string
	reports  map[string]*domain.ProcessReport
	warnings []domain.SectionWarning

	done      chan struct{}
	settleOne sync.Once
}

func newCollection(id, surface string, generation uint64, processes []string, rng domain.TimeRange, opts domain.ReportOptions) *Collection {
	c := &Collection{
		ID:         id,
		Surface:    surface,
		Generation: generation,
		Range:      rng,
		Options:    opts,
		CreatedAt:  time.Now().UTC(),
		state:      domain.StateIdle,
		reports:    make(map[string]*domain.ProcessReport, len(processes)),
		done:       make(chan struct{}),
	}
	for _, p := range processes {
		if _, dup := c.reports[p]; dup {
			continue
		}
		c.order = append(c.order, p)
		c.reports[p] = &domain.ProcessReport{Process: p, Range: rng}
	}
	return c
}

func (c *Collection) State() domain.GenerationState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Collection) Processes() []string {
	return append([]string(nil), c.order...)
}

// Done is closed once every dispatched fetch has resolved or failed.
func (c *Collection) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the collection settles or ctx ends.
func (c *Collection) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Collection) Report(process string) (domain.ProcessReport, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.reports[process]
	if !ok {
		return domain.ProcessReport{}, false
	}
	return *r, true
}

func (c *Collection) Warnings() []domain.SectionWarning {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.SectionWarning(nil), c.warnings...)
}

// Snapshot copies the current state for rendering, export or archiving.
func (c *Collection) Snapshot() domain.ReportCollection {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reports := make([]domain.ProcessReport, 0, len(c.order))
	for _, p := range c.order {
		reports = append(reports, *c.reports[p])
	}
	return domain.ReportCollection{
		ID:         c.ID,
		Surface:    c.Surface,
		Generation: c.Generation,
		Range:      c.Range,
		Options:    c.Options,
		State:      c.state,
		CreatedAt:  c.CreatedAt,
		Reports:    reports,
		Warnings:   append([]domain.SectionWarning(nil), c.warnings...),
	}
}

func (c *Collection) setState(s domain.GenerationState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.StateSettled {
		return
	}
	c.state = s
}

// applyBase fills the selected processes from base records and reports the
// processes the backend did not return. Records for unselected processes are dropped.
func (c *Collection) applyBase(records []domain.ProcessReport) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		target, ok := c.reports[rec.Process]
		if !ok || seen[rec.Process] {
			continue
		}
		seen[rec.Process] = true
		*target = rec
	}

	var missing []string
	for _, p := range c.order {
		if !seen[p] {
			missing = append(missing, p)
		}
	}
	c.state = domain.StateBaseReady
	return missing
}

func (c *Collection) merge(process string, apply func(*domain.ProcessReport)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	target, ok := c.reports[process]
	if !ok {
		return false
	}
	apply(target)
	return true
}

func (c *Collection) addWarning(w domain.SectionWarning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnings = append(c.warnings, w)
}

func (c *Collection) settle() {
	c.settleOne.Do(func() {
		c.mu.Lock()
		c.state = domain.StateSettled
		c.mu.Unlock()
		close(c.done)
	})
}
