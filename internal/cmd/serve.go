package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/api"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/auth"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/config"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/db"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/mcpserver"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/metrics"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/strava"
	syncsvc "github.com/Pavlovskyi-Andrii/sub5-project/internal/sync"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/workers"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	listenAddr           string
	syncInterval         time.Duration
	tokenRefreshInterval time.Duration
	daysToSync           int
	noSync               bool
	mcpPort              int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the backend: REST API, background Strava sync and metrics",
	Long: `Run the backend the dashboard talks to.

The server runs with:
- REST endpoints under /api and Prometheus metrics on /metrics
- Periodic activity sync from Strava, also started by POST /api/sync
- Background token refresh to keep authentication valid
- Optionally an MCP endpoint for AI assistants (--mcp-port)

Use --no-sync to serve the stored data without contacting Strava.
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := cfg.Server
		flags := cmd.Flags()
		if flags.Changed("listen") {
			sc.Listen = listenAddr
		}
		if flags.Changed("sync-interval") {
			sc.SyncInterval = syncInterval
		}
		if flags.Changed("token-refresh-interval") {
			sc.TokenRefreshInterval = tokenRefreshInterval
		}
		if flags.Changed("days") {
			sc.DaysToSync = daysToSync
		}
		if flags.Changed("no-sync") {
			sc.NoSync = noSync
		}
		if flags.Changed("mcp-port") {
			sc.MCPPort = mcpPort
		}
		if sc.SyncInterval <= 0 || sc.TokenRefreshInterval <= 0 || sc.DaysToSync <= 0 {
			return errors.New("intervals and --days must be positive")
		}
		return runServe(cmd.Context(), sc)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "REST listen address (overrides server.listen)")
	serveCmd.Flags().DurationVar(&syncInterval, "sync-interval", 0, "interval between activity syncs")
	serveCmd.Flags().DurationVar(&tokenRefreshInterval, "token-refresh-interval", 0, "interval between token refresh checks")
	serveCmd.Flags().IntVar(&daysToSync, "days", 0, "number of days fetched by each sync")
	serveCmd.Flags().BoolVar(&noSync, "no-sync", false, "serve stored data only without Strava API sync (offline mode)")
	serveCmd.Flags().IntVarP(&mcpPort, "mcp-port", "p", 0, "also serve MCP over HTTP on this port (0 disables)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, sc config.Server) error {
	log := logging.Logger

	log.Info().
		Str("listen", sc.Listen).
		Str("db_path", sc.DBPath).
		Bool("no_sync", sc.NoSync).
		Int("days_to_sync", sc.DaysToSync).
		Dur("sync_interval", sc.SyncInterval).
		Dur("token_refresh_interval", sc.TokenRefreshInterval).
		Int("mcp_port", sc.MCPPort).
		Msg("starting sub5 backend")

	sqlDB, err := db.Open(ctx, sc.DBPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	queries := db.New(sqlDB)
	workers.LogDatabaseStats(ctx, queries)

	reg := metrics.NewRegistry()
	m := metrics.NewManager(reg)

	// Workers and servers share one lifetime; the first failure stops all.
	g, gCtx := errgroup.WithContext(ctx)

	syncer, err := startWorkers(gCtx, g, queries, sc, m)
	if err != nil {
		return err
	}

	srv := api.NewServer(api.Options{
		Queries:  queries,
		Syncer:   syncer,
		Metrics:  m,
		Gatherer: reg,
		Location: time.Local,
	})
	g.Go(func() error {
		return srv.ListenAndServe(gCtx, sc.Listen)
	})

	if sc.MCPPort > 0 {
		mcpSrv := mcpserver.New(queries, mcpserver.Options{Location: time.Local})
		g.Go(func() error {
			return runMCPHTTP(gCtx, mcpSrv.Handler(), sc.MCPPort)
		})
	}

	err = g.Wait()
	workers.LogDatabaseStats(context.WithoutCancel(ctx), queries)
	if err != nil {
		return err
	}
	log.Info().Msg("all workers shut down gracefully")
	return nil
}

// startWorkers starts the sync and token workers unless sync is disabled or
// no Strava login is stored. The returned syncer is nil in those cases.
func startWorkers(ctx context.Context, g *errgroup.Group, queries *db.Queries, sc config.Server, m *metrics.Manager) (api.Syncer, error) {
	log := logging.Logger

	if sc.NoSync {
		log.Info().Msg("running in offline mode (--no-sync), skipping Strava API sync")
		return nil, nil
	}

	storage := auth.NewStorage(queries, auth.StravaProvider)
	if _, err := storage.Token(ctx); err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			log.Warn().Err(err).Msg("background sync disabled")
			return nil, nil
		}
		return nil, fmt.Errorf("authentication: %w", err)
	}

	svc := syncsvc.NewService(queries, syncsvc.StravaSource{
		Tokens:  storage,
		Options: strava.Options{Retry: strava.DefaultRetryConfig()},
	}, syncsvc.Options{
		DaysToSync: sc.DaysToSync,
		Location:   time.Local,
	})

	log.Info().Msg("starting background workers")

	tokenRefresher := workers.NewTokenRefresher(storage, sc.TokenRefreshInterval, m)
	g.Go(func() error {
		tokenRefresher.Run(ctx)
		return nil
	})

	activitySyncer := workers.NewActivitySyncer(svc, sc.SyncInterval, true, m)
	g.Go(func() error {
		activitySyncer.Run(ctx)
		return nil
	})
	return activitySyncer, nil
}

// runMCPHTTP serves the MCP streamable HTTP transport until ctx is done.
func runMCPHTTP(ctx context.Context, handler http.Handler, port int) error {
	log := logging.Logger

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", addr).
			Str("endpoint", fmt.Sprintf("http://localhost%s", addr)).
			Msg("MCP server running via HTTP")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// openQueries opens the configured database for the commands that work on it
// directly.
func openQueries(ctx context.Context) (*sql.DB, *db.Queries, error) {
	sqlDB, err := db.Open(ctx, cfg.Server.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, db.New(sqlDB), nil
}
