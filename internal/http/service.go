package http

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/internal/http/metric"
	"github.com/tuanvumaihuynh/medsupply/internal/http/middleware"
	"github.com/tuanvumaihuynh/medsupply/internal/http/swagger"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
)

var tracer = otel.Tracer("internal/http")

// RouteFunc registers the routes of one microservice.
type RouteFunc func(r chi.Router)

// Service represents the HTTP service.
type Service struct {
	cfg     config.HTTP
	name    string
	logger  *slog.Logger
	metrics *metric.Metrics
	health  db.HealthChecker

	routes []RouteFunc
}

type CleanupFunc func(ctx context.Context) error

// New creates the HTTP service of the microservice called name. health may be
// nil for services without a database.
func New(
	cfg config.HTTP,
	name string,
	log *slog.Logger,
	health db.HealthChecker,
	routes ...RouteFunc,
) *Service {
	return &Service{
		cfg:     cfg,
		name:    name,
		logger:  log.With(slog.String("service", "http")),
		metrics: metric.New(name),
		health:  health,
		routes:  routes,
	}
}

// Metrics returns the collectors of the service so routes can report on them.
func (s *Service) Metrics() *metric.Metrics {
	return s.metrics
}

// Register adds routes to the service. It must be called before Run.
func (s *Service) Register(routes ...RouteFunc) {
	s.routes = append(s.routes, routes...)
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	return s.RunWithServer(ctx, s.Handler())
}

// Handler builds the router with every middleware and route.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r, s.name)
	}

	s.RegisterHandlers(r)

	return r
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.ErrorContext(ctx, "http server stopped unexpectedly", slog.Any("error", err))
		}
	}()

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.CorrelationID(),
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.Cors(s.cfg.CorsOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	r.Get("/health", s.liveness)
	r.Get("/health/ready", handle(s.logger, s.readiness))

	for _, register := range s.routes {
		register(r)
	}

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}
