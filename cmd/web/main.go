package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/de-tools/line-report/pkg/server"
	"github.com/de-tools/line-report/pkg/services/archive"
	"github.com/de-tools/line-report/pkg/services/config"
	"github.com/de-tools/line-report/pkg/services/export"
	"github.com/de-tools/line-report/pkg/services/report"
	"github.com/de-tools/line-report/pkg/store/backend"
	"github.com/de-tools/line-report/pkg/store/duckdb"
	duckdbarchive "github.com/de-tools/line-report/pkg/store/duckdb/archive"
)

var (
	cfgPath string
	profile string
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the line report gateway",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "Path to a yaml settings file")
	rootCmd.Flags().StringVar(&profile, "profile", "", "Backend profile from backend.profiles")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	settings, err := config.LoadSettings(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	level, err := zerolog.ParseLevel(settings.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", settings.Log.Level, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	backendProfile, err := settings.ResolveBackend(ctx, profile)
	if err != nil {
		return fmt.Errorf("failed to resolve backend: %w", err)
	}
	client, err := backend.NewClient(backendProfile.URL, backendProfile.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create backend client: %w", err)
	}
	logger.Info().Str("backend", backendProfile.String()).Msg("monitoring backend configured")

	db, err := duckdb.NewDB(duckdb.Settings{
		DbPath: settings.Archive.Path,
	})
	if err != nil {
		return fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close DuckDB")
		}
	}()

	archiveStore, err := duckdbarchive.NewStore(db)
	if err != nil {
		return fmt.Errorf("failed to create archive store: %w", err)
	}
	archiveSvc := archive.NewService(archiveStore, archive.WithRetention(settings.Archive.Retain))

	aggCfg := report.DefaultConfig()
	aggCfg.RequestTimeout = backendProfile.Timeout
	if settings.Backend.MaxConcurrency > 0 {
		aggCfg.MaxConcurrency = settings.Backend.MaxConcurrency
	}
	registry := report.NewRegistry(client, aggCfg,
		report.WithArchiver(archiveSvc),
		report.WithListener(report.SectionLogger{}),
	)

	webAPI := server.NewWebAPI(logger, server.Config{
		Addr:            settings.Server.Addr,
		ShutdownTimeout: settings.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Reports:  registry,
			Archive:  archiveSvc,
			Exporter: export.NewExporter(client),
		},
	})

	return webAPI.Start()
}
