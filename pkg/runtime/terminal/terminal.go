package terminal

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/line-report/pkg/models/domain"
	"github.com/de-tools/line-report/pkg/runtime/terminal/commands"
	"github.com/de-tools/line-report/pkg/runtime/terminal/export"
	"github.com/de-tools/line-report/pkg/services/config"
	"github.com/de-tools/line-report/pkg/services/report"
	"github.com/de-tools/line-report/pkg/store/backend"
)

// CLI represents the command-line interface
type CLI struct {
	output   io.Writer
	logOut   io.Writer
	backend  commands.Backend
	progress *Reporter
	reporter *export.Reporter
	rootCmd  *cobra.Command

	configPath string
	profile    string
	logLevel   string
	settings   *config.Settings
}

// Options contain configuration for the CLI
type Options struct {
	Output io.Writer
	// LogOutput receives structured logs; defaults to stderr.
	LogOutput io.Writer
	// Backend replaces the HTTP client built from settings.
	Backend commands.Backend
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cli := &CLI{
		output:   opts.Output,
		logOut:   opts.LogOutput,
		backend:  opts.Backend,
		progress: NewReporter(opts.Output),
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs is used by tests to drive the CLI.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "line-report",
		Short:             "Manufacturing line report generator",
		SilenceUsage:      true,
		PersistentPreRunE: cli.setup,
	}
	cmd.SetOut(cli.output)

	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to a yaml settings file")
	cmd.PersistentFlags().StringVar(&cli.profile, "profile", "", "Backend profile from backend.profiles")
	cmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	cmd.AddCommand(commands.NewGenerateCmd(cli, cli.progress, cli.reporter))
	cmd.AddCommand(commands.NewExportCmd(cli, cli.progress, cli.reporter))
	cmd.AddCommand(commands.NewProfilesCmd(cli))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.LoadSettings(cli.configPath)
	if err != nil {
		return err
	}
	cli.settings = settings

	level := settings.Log.Level
	if cli.logLevel != "" {
		level = cli.logLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.logOut}).Level(lvl).With().Timestamp().Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

func (cli *CLI) Backend(ctx context.Context) (commands.Backend, error) {
	if cli.backend != nil {
		return cli.backend, nil
	}

	profile, err := cli.settings.ResolveBackend(ctx, cli.profile)
	if err != nil {
		return nil, err
	}
	client, err := backend.NewClient(profile.URL, profile.Timeout)
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("profile", profile.String()).Msg("using monitoring backend")
	return client, nil
}

func (cli *CLI) Profiles(ctx context.Context) ([]domain.BackendProfile, error) {
	if cli.settings.Backend.Profiles == "" {
		return []domain.BackendProfile{{
			Name:    "default",
			URL:     cli.settings.Backend.URL,
			Timeout: cli.settings.Backend.Timeout,
		}}, nil
	}
	registry, err := config.NewRegistry(cli.settings.Backend.Profiles, cli.settings.Backend.Timeout)
	if err != nil {
		return nil, err
	}
	return registry.GetProfiles(ctx)
}

func (cli *CLI) AggregatorConfig() report.Config {
	cfg := report.DefaultConfig()
	if cli.settings.Backend.Timeout > 0 {
		cfg.RequestTimeout = cli.settings.Backend.Timeout
	}
	if cli.settings.Backend.MaxConcurrency > 0 {
		cfg.MaxConcurrency = cli.settings.Backend.MaxConcurrency
	}
	return cfg
}
