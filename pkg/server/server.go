package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	handlers "github.com/de-tools/line-report/pkg/handlers/report"
	linemiddleware "github.com/de-tools/line-report/pkg/server/middleware"
	"github.com/de-tools/line-report/pkg/services/export"
	"github.com/de-tools/line-report/pkg/services/report"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	router          *chi.Mux
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
	drainer         Drainer
}

// Drainer is implemented by report managers that finish background work on shutdown.
type Drainer interface {
	Drain(ctx context.Context) error
}

type Dependencies struct {
	Reports  report.Manager
	Archive  handlers.Archive
	Exporter export.Exporter
	Logger   zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) *chi.Mux {
	deps := config.Dependencies
	reportHandler := handlers.NewHandler(deps.Reports, deps.Archive, deps.Exporter)

	router := chi.NewRouter()

	router.Use(linemiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Get("/health", health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/reports", reportHandler.CreateReport)
		r.Get("/reports/{id}", reportHandler.GetReport)
		r.Get("/reports/{id}/events", reportHandler.StreamEvents)
		r.Post("/reports/{id}/export", reportHandler.ExportReport)
		r.Get("/surfaces/{surface}/reports", reportHandler.ListSurfaceReports)
		r.Get("/processes/{process}/reports", reportHandler.ListProcessReports)
	})

	return router
}

func NewWebAPI(logger zerolog.Logger, config Config) *WebAPI {
	config.Dependencies.Logger = logger
	router := ConfigureRouter(config)

	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	drainer, _ := config.Dependencies.Reports.(Drainer)

	return &WebAPI{
		router:          router,
		logger:          &logger,
		shutdownTimeout: timeout,
		drainer:         drainer,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until SIGINT or SIGTERM.
func (w *WebAPI) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return w.Serve(ctx)
}

// Serve runs the server until ctx is cancelled, then shuts down gracefully and
// waits for in-flight report generations to be archived.
func (w *WebAPI) Serve(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(shutdownCtx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if w.drainer != nil {
			if derr := w.drainer.Drain(shutdownCtx); derr != nil {
				w.logger.Warn().Err(derr).Msg("report archive did not drain before shutdown")
			}
		}

		if err != nil {
			return err
		}
	}

	return nil
}

func health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode health response")
	}
}
