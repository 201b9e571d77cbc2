// Package devserver serves a route table over HTTP for inspection: match
// and resolve endpoints, a WebSocket history store, and Prometheus metrics.
package devserver

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/wayfinder/internal/config"
	"github.com/vango-dev/wayfinder/internal/errors"
	"github.com/vango-dev/wayfinder/pkg/history"
	"github.com/vango-dev/wayfinder/pkg/middleware"
	"github.com/vango-dev/wayfinder/pkg/remote"
	"github.com/vango-dev/wayfinder/pkg/routepath"
	"github.com/vango-dev/wayfinder/pkg/router"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 5 * time.Second
	navigateTimeout = 5 * time.Second
)

// Server is the dev server. It owns an in-memory history that remote
// clients share over /ws.
type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	history  *history.MemoryHistory
	sched    history.Scheduler
	coord    *history.Coordinator
	router   *router.Router
	handler  http.Handler
	stop     func()
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the Prometheus registry served on /metrics.
// Default: a fresh registry with Go and process collectors.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// New builds a Server for cfg.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
		s.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	s.history = history.NewMemoryHistory(cfg.Initial)
	s.sched = cfg.NewScheduler(s.logger)
	coordOpts := []history.Option{
		history.WithScheduler(s.sched),
		history.WithLogger(s.logger),
	}
	routerOpts := []router.Option{
		router.WithLogger(s.logger),
		router.WithNotFound(router.HandlerFunc(func(ctx context.Context, props router.Props) (any, error) {
			return matchResult{Name: cfg.NotFound, Params: props.Params}, nil
		})),
	}
	if cfg.Metrics.Enabled {
		coordOpts = append(coordOpts, history.WithMetrics(history.NewMetrics(
			history.WithNamespace(cfg.Metrics.Namespace),
			history.WithRegistry(s.registry),
		)))
		routerOpts = append(routerOpts, router.WithMiddleware(middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(s.registry),
		)))
	}
	routerOpts = append(routerOpts, router.WithMiddleware(middleware.OpenTelemetry()))

	s.coord = history.NewCoordinator(s.history, coordOpts...)
	routerOpts = append(routerOpts, router.WithNavigator(s.coord))

	r, err := router.New(cfg.RouteTable(routeHandler), routerOpts...)
	if err != nil {
		s.Close()
		return nil, errors.New(errors.CodeInvalidPattern).Wrap(err)
	}
	s.router = r

	s.stop = s.coord.Subscribe(func(loc history.Location) {
		s.logger.Info("location changed", "href", loc.Href(), "key", loc.Key)
	})

	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/match", s.handleMatch)
		r.Get("/resolve", s.handleResolve)
		r.Get("/routes", s.handleRoutes)
		r.Get("/location", s.handleLocation)
		r.Post("/navigate", s.handleNavigate)
	})

	r.Handle("/ws", remote.NewHandler(s.history,
		remote.WithLogger(s.logger),
		remote.WithConnectHook(s.connectGauge()),
	))
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) connectGauge() func(int) {
	if !s.cfg.Metrics.Enabled {
		return nil
	}
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: s.cfg.Metrics.Namespace,
		Subsystem: "remote",
		Name:      "clients",
		Help:      "Connected remote history clients",
	})
	s.registry.MustRegister(gauge)
	return func(delta int) {
		gauge.Add(float64(delta))
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Coordinator returns the coordinator over the served history.
func (s *Server) Coordinator() *history.Coordinator {
	return s.coord
}

// ListenAndServe serves on the configured address until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("dev server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("dev server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close stops the coordinator and its scheduler.
func (s *Server) Close() {
	if s.stop != nil {
		s.stop()
	}
	s.coord.Close()
	if closer, ok := s.sched.(interface{ Close() }); ok {
		closer.Close()
	}
}

type matchResult struct {
	Matched  bool              `json:"matched"`
	Name     string            `json:"name"`
	Pattern  string            `json:"pattern,omitempty"`
	Params   map[string]string `json:"params"`
	URI      string            `json:"uri,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
}

func routeHandler(rc config.RouteConfig) router.Handler {
	return router.HandlerFunc(func(ctx context.Context, props router.Props) (any, error) {
		if rc.Redirect != "" {
			return nil, props.Redirect(rc.Redirect)
		}
		return matchResult{
			Matched: true,
			Name:    rc.Name,
			Pattern: props.Match.Route.Path,
			Params:  props.Params,
			URI:     props.URI,
		}, nil
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, errors.Newf(errors.CategoryRouting, "missing path parameter"))
		return
	}
	if _, err := routepath.Canonicalize(path); err != nil {
		writeError(w, http.StatusBadRequest, errors.Newf(errors.CategoryRouting, "invalid path %q", path).Wrap(err))
		return
	}

	result, err := s.router.Dispatch(r.Context(), history.NewLocation(path, nil, ""))
	if redirect, ok := router.AsRedirect(err); ok {
		m, _ := s.router.Match(r.Context(), path)
		writeJSON(w, http.StatusOK, matchResult{
			Matched:  true,
			Name:     m.Route.Name,
			Pattern:  m.Route.Path,
			Params:   m.Params,
			URI:      m.URI,
			Redirect: redirect.URI,
		})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.FromError(err, errors.CodeNavigationFailed))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type resolveResult struct {
	To       string `json:"to"`
	Base     string `json:"base"`
	Resolved string `json:"resolved"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to, base := q.Get("to"), q.Get("base")
	if base == "" {
		base = "/"
	}
	writeJSON(w, http.StatusOK, resolveResult{
		To:       to,
		Base:     base,
		Resolved: routepath.Resolve(to, base),
	})
}

type routeInfo struct {
	Pattern string `json:"pattern"`
	Name    string `json:"name,omitempty"`
	Rank    string `json:"rank"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.router.Routes()
	router.SortBySpecificity(routes)

	out := make([]routeInfo, len(routes))
	for i, route := range routes {
		out[i] = routeInfo{
			Pattern: route.Path,
			Name:    route.Name,
			Rank:    strconv.FormatInt(routepath.RankPattern(route.Path), 8),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type locationResult struct {
	Href string `json:"href"`
	Key  string `json:"key"`
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	loc := s.coord.Location()
	writeJSON(w, http.StatusOK, locationResult{Href: loc.Href(), Key: loc.Key})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	to := q.Get("to")
	var opts []history.NavigateOption
	if replace, _ := strconv.ParseBool(q.Get("replace")); replace {
		opts = append(opts, history.WithReplace())
	}

	ctx, cancel := context.WithTimeout(r.Context(), navigateTimeout)
	defer cancel()
	h := s.coord.Navigate(ctx, to, opts...)
	if err := h.Wait(ctx); err != nil {
		writeError(w, http.StatusUnprocessableEntity, errors.New(errors.CodeNavigationFailed).Wrap(err))
		return
	}

	loc := s.coord.Location()
	writeJSON(w, http.StatusOK, locationResult{Href: loc.Href(), Key: loc.Key})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.Error) {
	writeJSON(w, status, map[string]any{"error": err})
}

// requestLogger logs each request through slog with chi's request ID.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", chimw.GetReqID(r.Context()),
			)
		})
	}
}
