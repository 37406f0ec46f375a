package report

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/de-tools/line-report/pkg/models/domain"
)

const DefaultSurface = "default"

// Archiver persists settled collections.
type Archiver interface {
	Save(ctx context.Context, c domain.ReportCollection) error
}

// Manager is what the HTTP layer needs from report generation.
type Manager interface {
	Generate(
		ctx context.Context,
		surface string,
		processes []string,
		rng domain.TimeRange,
		opts domain.ReportOptions,
	) (*Collection, error)
	Lookup(id string) (*Collection, bool)
	Subscribe(id string) (<-chan domain.SectionEvent, func())
}

// Registry keeps one aggregator per surface and the latest live collection of each.
type Registry struct {
	backend  Backend
	config   Config
	hub      *Hub
	listener SectionListener
	archiver Archiver

	mu       sync.Mutex
	surfaces map[string]*Aggregator
	live     map[string]*Collection
	latest   map[string]string
	finished map[string]bool
	pending  sync.WaitGroup
}

type RegistryOption func(*Registry)

// WithListener adds a listener next to the built-in subscriber hub.
func WithListener(l SectionListener) RegistryOption {
	return func(r *Registry) { r.listener = l }
}

func WithArchiver(a Archiver) RegistryOption {
	return func(r *Registry) { r.archiver = a }
}

func NewRegistry(backend Backend, config Config, opts ...RegistryOption) *Registry {
	r := &Registry{
		backend:  backend,
		config:   config,
		hub:      NewHub(),
		surfaces: make(map[string]*Aggregator),
		live:     make(map[string]*Collection),
		latest:   make(map[string]string),
		finished: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Aggregator(surface string) *Aggregator {
	if surface == "" {
		surface = DefaultSurface
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	agg, ok := r.surfaces[surface]
	if !ok {
		agg = NewAggregator(surface, r.backend, Fanout{r.hub, r.listener}, r.config)
		r.surfaces[surface] = agg
	}
	return agg
}

func (r *Registry) Generate(
	ctx context.Context,
	surface string,
	processes []string,
	rng domain.TimeRange,
	opts domain.ReportOptions,
) (*Collection, error) {
	agg := r.Aggregator(surface)
	coll, err := agg.Generate(ctx, processes, rng, opts)
	if err != nil {
		return nil, err
	}

	r.track(coll)

	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		r.finalize(context.WithoutCancel(ctx), coll)
	}()

	return coll, nil
}

func (r *Registry) Lookup(id string) (*Collection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	coll, ok := r.live[id]
	return coll, ok
}

func (r *Registry) Subscribe(id string) (<-chan domain.SectionEvent, func()) {
	return r.hub.Subscribe(id)
}

// Drain waits for settled collections to be archived.
func (r *Registry) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track makes coll the surface's latest collection. A replaced collection
// stays live until it has been finalized.
func (r *Registry) track(coll *Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.latest[coll.Surface]; ok && r.finished[prev] {
		delete(r.live, prev)
		delete(r.finished, prev)
	}
	r.live[coll.ID] = coll
	r.latest[coll.Surface] = coll.ID
}

func (r *Registry) release(coll *Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest[coll.Surface] == coll.ID {
		r.finished[coll.ID] = true
		return
	}
	delete(r.live, coll.ID)
}

func (r *Registry) finalize(ctx context.Context, coll *Collection) {
	<-coll.Done()
	defer r.release(coll)
	if r.archiver == nil {
		return
	}

	logger := zerolog.Ctx(ctx)
	if err := r.archiver.Save(ctx, coll.Snapshot()); err != nil {
		logger.Error().Err(err).Str("collection", coll.ID).Msg("failed to archive report collection")
		return
	}
	logger.Info().Str("collection", coll.ID).Str("surface", coll.Surface).Msg("report collection archived")
}
