package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/de-tools/line-report/pkg/adapters"
	"github.com/de-tools/line-report/pkg/models/domain"
	"github.com/de-tools/line-report/pkg/models/store"
	archivestore "github.com/de-tools/line-report/pkg/store/duckdb/archive"
)

type Service interface {
	Save(ctx context.Context, c domain.ReportCollection) error
	Get(ctx context.Context, id string) (domain.ReportCollection, error)
	ListRecent(ctx context.Context, surface string, limit int) ([]domain.ReportCollection, error)
	ListByProcess(ctx context.Context, process string, limit int) ([]domain.ReportCollection, error)
}

type service struct {
	store  archivestore.Store
	retain int
}

type Option func(*service)

// WithRetention keeps only the newest n collections per surface.
func WithRetention(n int) Option {
	return func(s *service) { s.retain = n }
}

func NewService(st archivestore.Store, opts ...Option) Service {
	s := &service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the collection and applies retention in one transaction.
func (s *service) Save(ctx context.Context, c domain.ReportCollection) error {
	logger := zerolog.Ctx(ctx)

	rec, err := adapters.MapDomainCollectionToStore(c)
	if err != nil {
		return err
	}

	var pruned int64
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, rec); err != nil {
			return err
		}
		if s.retain > 0 {
			pruned, err = s.store.Prune(ctx, rec.Surface, s.retain)
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("archive collection %s: %w", c.ID, err)
	}

	logger.Debug().
		Str("collection", c.ID).
		Int("bytes", len(rec.Payload)).
		Int64("pruned", pruned).
		Msg("collection archived")
	return nil
}

func (s *service) Get(ctx context.Context, id string) (domain.ReportCollection, error) {
	rec, err := s.store.Get(ctx, id)
	if errors.Is(err, archivestore.ErrNotFound) {
		return domain.ReportCollection{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.ReportCollection{}, err
	}
	return adapters.MapStoreArchiveToDomain(*rec)
}

func (s *service) ListRecent(ctx context.Context, surface string, limit int) ([]domain.ReportCollection, error) {
	recs, err := s.store.ListRecent(ctx, surface, limit)
	if err != nil {
		return nil, err
	}
	return s.decode(ctx, recs)
}

func (s *service) ListByProcess(ctx context.Context, process string, limit int) ([]domain.ReportCollection, error) {
	recs, err := s.store.ListByProcess(ctx, process, limit)
	if err != nil {
		return nil, err
	}
	return s.decode(ctx, recs)
}

// decode skips payloads that no longer parse instead of failing the whole listing.
func (s *service) decode(ctx context.Context, recs []store.ArchivedReport) ([]domain.ReportCollection, error) {
	logger := zerolog.Ctx(ctx)
	out := make([]domain.ReportCollection, 0, len(recs))
	for _, rec := range recs {
		c, err := adapters.MapStoreArchiveToDomain(rec)
		if err != nil {
			logger.Warn().Err(err).Str("id", rec.ID).Msg("skipping unreadable archived report")
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
