package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.uber.org/fx"

	"github.com/andrasnagy-data/weekplan/internal/shared/config"
)

const (
	healthPath      = "/health"
	metricsPath     = "/metrics"
	activitiesPath  = "/activities"
	apiPath         = "/api/activities"
	shutdownTimeout = 30 * time.Second
)

type (
	// Server owns the listener for the board, its fragments and the JSON API.
	Server struct {
		server       *http.Server
		config       *config.Config
		logger       zerolog.Logger
		sentryWriter *sentryzerolog.Writer
	}

	params struct {
		fx.In

		Config         *config.Config
		Logger         zerolog.Logger
		SentryWriter   *sentryzerolog.Writer
		HealthHandler  http.HandlerFunc `name:"healthHandler"`
		PageHandler    http.HandlerFunc `name:"pageHandler"`
		ActivityRouter chi.Router       `name:"activityRouter"`
		APIRouter      chi.Router       `name:"apiRouter"`
	}
)

func NewServer(p params) *Server {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", p.Config.Port),
		Handler:           newHandler(p),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		config:       p.Config,
		logger:       p.Logger,
		server:       server,
		sentryWriter: p.SentryWriter,
	}
}

// traceSampleRate keeps health checks and metric scrapes out of Sentry performance data.
func traceSampleRate(spanName string) float64 {
	switch spanName {
	case http.MethodGet + " " + healthPath, http.MethodGet + " " + metricsPath:
		return 0
	default:
		return 1
	}
}

func initSentry(cfg *config.Config, logger zerolog.Logger) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.Version,
		AttachStacktrace: true,
		SendDefaultPII:   true,
		EnableTracing:    true,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			return traceSampleRate(ctx.Span.Name)
		}),
	})
	if err != nil {
		logger.Error().Err(err).Msg("Sentry disabled, client init failed")
		return
	}
	logger.Debug().Str("environment", cfg.Environment).Msg("Sentry client ready")
}

func logRequest(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("url", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("HTTP request")
}

// newHandler builds the root router: middleware, the page, the HTMX fragments and the JSON API.
func newHandler(p params) http.Handler {
	r := chi.NewRouter()

	// Panics are only captured and recovered when Sentry is on.
	if p.Config.IsEnvProd() {
		initSentry(p.Config, p.Logger)
		r.Use(sentryhttp.New(sentryhttp.Options{}).Handle)
	}

	r.Use(hlog.NewHandler(p.Logger))
	r.Use(hlog.AccessHandler(logRequest))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", "HX-Target", "HX-Current-URL", "HX-Trigger"},
		ExposedHeaders:   []string{"HX-Trigger", "HX-Reswap"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get(healthPath, p.HealthHandler)
	r.Handle(metricsPath, promhttp.Handler())

	r.Get("/", p.PageHandler)
	r.Mount(activitiesPath, p.ActivityRouter)
	r.Mount(apiPath, p.APIRouter)

	return r
}

func (s *Server) Start(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: s.start,
		OnStop:  s.stop,
	})
}

func (s *Server) start(_ context.Context) error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Str("environment", s.config.Environment).
		Bool("sentry_enabled", s.config.IsEnvProd()).
		Msg("Listening")
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("Listener stopped unexpectedly")
		}
	}()
	return nil
}

// stop drains in-flight requests, bounded by shutdownTimeout, after flushing buffered Sentry events.
func (s *Server) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if s.config.IsEnvProd() {
		if s.sentryWriter != nil {
			s.sentryWriter.Close()
		}
		sentry.Flush(2 * time.Second)
	}

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Shutdown did not complete cleanly")
		return err
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}
