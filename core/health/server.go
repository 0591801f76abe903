// Package health serves the liveness page and Prometheus metrics over HTTP.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/m3rciful/marketbot/core/buildinfo"
	"github.com/m3rciful/marketbot/core/logger"
	"github.com/m3rciful/marketbot/core/metrics"
)

// ServiceName is reported by the /health endpoint.
const ServiceName = "telegram-bot"

// Status is the /health response body.
type Status struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// Server is the liveness HTTP listener.
type Server struct {
	srv       *http.Server
	startedAt time.Time
	errs      chan error
}

// New builds a server listening on addr. It does not start listening.
func New(addr string) *Server {
	s := &Server{startedAt: time.Now(), errs: make(chan error, 1)}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}
	return s
}

// Routes returns the router serving /, /health and /metrics.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(countRequests)

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	return r
}

func (s *Server) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	uptime := time.Since(s.startedAt).Truncate(time.Second)
	_, _ = fmt.Fprintf(w, "Marketplace bot is running.\nversion: %s\nuptime: %s\n", buildinfo.String(), uptime)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(Status{Status: "healthy", Service: ServiceName})
}

// Start binds the listener and serves in the background.
// Bind errors are returned synchronously.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		logger.Health.Error("health listen failed",
			slog.String("event", "health.listen"),
			slog.String("status", "fail"),
			slog.String("listen", s.srv.Addr),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("health listen: %w", err)
	}
	logger.Health.Info("health listening",
		slog.String("event", "health.listen"),
		slog.String("status", "ok"),
		slog.String("listen", ln.Addr().String()),
	)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Health.Error("health server stopped",
				slog.String("event", "health.serve"),
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
			s.errs <- err
		}
		close(s.errs)
	}()
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	logger.Health.Info("health stopped",
		slog.String("event", "health.shutdown"),
		slog.String("status", logger.Status(err)),
	)
	return err
}

// Errors delivers a serve failure, if any, and is closed once serving ends.
func (s *Server) Errors() <-chan error {
	return s.errs
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		path := "other"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	})
}
