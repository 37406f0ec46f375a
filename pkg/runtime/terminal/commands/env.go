package commands

import (
	"context"

	"github.com/de-tools/line-report/pkg/models/domain"
	docexport "github.com/de-tools/line-report/pkg/services/export"
	"github.com/de-tools/line-report/pkg/services/report"
)

// Backend is everything the commands need from the monitoring backend.
type Backend interface {
	report.Backend
	docexport.Sink
}

// Environment resolves settings-dependent collaborators once flags are parsed.
type Environment interface {
	Backend(ctx context.Context) (Backend, error)
	Profiles(ctx context.Context) ([]domain.BackendProfile, error)
	AggregatorConfig() report.Config
}
