package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/line-report/pkg/models/domain"
	"github.com/de-tools/line-report/pkg/runtime/terminal/export"
	"github.com/de-tools/line-report/pkg/services/report"
	"github.com/de-tools/line-report/pkg/services/timerange"
)

const cliSurface = "cli"

// generateFlags are shared by generate and export.
type generateFlags struct {
	processes []string
	period    string
	quick     string
	start     string
	end       string
	include   []string
	timeout   time.Duration
}

func (f *generateFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.processes, "process", "p", nil, "Process to report on (repeatable)")
	cmd.Flags().StringVar(&f.period, "period", string(domain.PeriodDaily), "Period type: daily, weekly or monthly")
	cmd.Flags().StringVar(&f.quick, "range", "1시간", "Quick range for daily reports (1시간, 3시간, 6시간, 9시간 or custom)")
	cmd.Flags().StringVar(&f.start, "start", "", "Custom range start (YYYY-MM-DDTHH:MM)")
	cmd.Flags().StringVar(&f.end, "end", "", "Custom range end (YYYY-MM-DDTHH:MM)")
	cmd.Flags().StringSliceVar(&f.include, "include", []string{"all"},
		"Sections to include: availability, production, downtime, failureCount, mtbf, mttr or all")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 2*time.Minute, "Overall deadline for the report")

	_ = cmd.MarkFlagRequired("process")
}

// request validates the flags before anything touches the network.
func (f *generateFlags) request() (domain.TimeRange, domain.ReportOptions, error) {
	rng, err := timerange.Normalize(domain.PeriodType(f.period), f.quick, f.start, f.end)
	if err != nil {
		return domain.TimeRange{}, domain.ReportOptions{}, err
	}
	opts, err := domain.ParseReportOptions(f.include)
	if err != nil {
		return domain.TimeRange{}, domain.ReportOptions{}, err
	}
	return rng, opts, nil
}

func (f *generateFlags) generate(
	ctx context.Context,
	env Environment,
	listener report.SectionListener,
) (*report.Collection, Backend, error) {
	rng, opts, err := f.request()
	if err != nil {
		return nil, nil, err
	}

	backend, err := env.Backend(ctx)
	if err != nil {
		return nil, nil, err
	}

	agg := report.NewAggregator(cliSurface, backend, listener, env.AggregatorConfig())
	coll, err := agg.Generate(ctx, f.processes, rng, opts)
	if err != nil {
		return nil, nil, err
	}
	return coll, backend, nil
}

type GenerateCmd struct {
	flags    generateFlags
	wait     bool
	env      Environment
	listener report.SectionListener
	reporter *export.Reporter
}

func NewGenerateCmd(env Environment, listener report.SectionListener, reporter *export.Reporter) *cobra.Command {
	gc := &GenerateCmd{env: env, listener: listener, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a manufacturing report for one or more processes",
		RunE:  gc.run,
	}

	gc.flags.bind(cmd)
	cmd.Flags().BoolVar(&gc.wait, "wait", true, "Wait for downtime, MTBF and MTTR sections before printing")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), gc.flags.timeout)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	coll, _, err := gc.flags.generate(ctx, gc.env, gc.listener)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if gc.wait {
		if err := coll.Wait(ctx); err != nil {
			logger.Warn().Err(err).Msg("printing report before all sections arrived")
		}
	}

	return gc.reporter.Handle(coll.Snapshot())
}
