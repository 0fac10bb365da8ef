// Package api serves the dashboard REST endpoints over the local store.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/metrics"
)

const (
	defaultActivitiesLimit = 100
	weeklyStatsLimit       = 12
	syncLogsLimit          = 50
	summaryDays            = 7
	shutdownTimeout        = 10 * time.Second
)

// Syncer queues a background sync and answers report.SyncStarted or
// report.SyncRunning.
type Syncer interface {
	Trigger() string
}

// Options configure a Server. Syncer may be nil when background sync is
// disabled; Gatherer may be nil to leave /metrics out.
type Options struct {
	Queries  *db.Queries
	Syncer   Syncer
	Metrics  *metrics.Manager
	Gatherer prometheus.Gatherer
	Location *time.Location
	Now      func() time.Time
}

type Server struct {
	queries  *db.Queries
	syncer   Syncer
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
	loc      *time.Location
	now      func() time.Time
}

func NewServer(opts Options) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		queries:  opts.Queries,
		syncer:   opts.Syncer,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		loc:      opts.Location,
		now:      opts.Now,
	}
}

// Router returns the routes with logging, metrics and recovery middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/summary", s.handleSummary).Methods(http.MethodGet).Name("summary")
	r.HandleFunc("/api/activities", s.handleActivities).Methods(http.MethodGet).Name("activities")
	r.HandleFunc("/api/weekly-stats", s.handleWeeklyStats).Methods(http.MethodGet).Name("weekly-stats")
	r.HandleFunc("/api/sync-logs", s.handleSyncLogs).Methods(http.MethodGet).Name("sync-logs")
	r.HandleFunc("/api/sync", s.handleSync).Methods(http.MethodPost).Name("sync")
	r.HandleFunc("/api/export/{format}", s.handleExport).Methods(http.MethodGet).Name("export")

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet).Name("metrics")
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found", "")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	})

	r.Use(PanicRecovery(s.metrics))
	r.Use(LogRequest())
	r.Use(RequestMetrics(s.metrics))
	r.Use(Cors())
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logging.Logger
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("REST server listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down REST server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errc
	return nil
}
