package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Pavlovskyi-Andrii/sub5-project/internal/client"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/config"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/dashboard"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/logging"
	"github.com/Pavlovskyi-Andrii/sub5-project/internal/render"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	verbosity  int
	configPath string
	baseURL    string
	locale     string
	dbPath     string

	// cfg is loaded before any command runs; flags override file values.
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sub5",
	Short: "Training dashboard for cycling and running activities",
	Long: `sub5 shows weekly cycling and running volume from a training backend.

Run without a subcommand to open the terminal dashboard:
  1-4 / tab   switch tabs
  r           reload the current tab
  s           start a sync
  /           edit filters on the activities tab
  q           quit

The backend itself runs with 'sub5 serve'. It syncs activities from Strava
into a local SQLite database. Authorize it once with 'sub5 auth login'.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = loadConfig(cmd)
		if err != nil {
			return err
		}

		opts := logging.Options{Level: logging.Level(verbosity)}
		if cmd == cmd.Root() {
			// The dashboard owns the terminal.
			opts.File = cfg.Dashboard.LogFile
		}
		logging.Setup(opts)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDashboard(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug, -vv for trace with HTTP headers)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "sub5.toml", "path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "backend URL (overrides dashboard.base_url)")
	rootCmd.PersistentFlags().StringVar(&locale, "locale", "", "interface language: ru or en (overrides dashboard.locale)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database file (overrides server.db_path)")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		c.Dashboard.BaseURL = baseURL
	}
	if flags.Changed("locale") {
		c.Dashboard.Locale = locale
	}
	if flags.Changed("db") {
		c.Server.DBPath = dbPath
	}
	if err := c.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid settings: %w", err)
	}
	return c, nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newClient() (*client.Client, error) {
	d := cfg.Dashboard
	return client.New(client.Options{
		BaseURL: d.BaseURL,
		Timeout: d.RequestTimeout,
		Retries: d.Retries,
	})
}

func messages() render.Messages {
	return render.Locale(cfg.Dashboard.Locale)
}

func runDashboard(ctx context.Context) error {
	log := logging.Logger

	c, err := newClient()
	if err != nil {
		return err
	}
	defer c.Close()

	d := cfg.Dashboard
	log.Info().
		Str("base_url", c.BaseURL()).
		Str("locale", d.Locale).
		Dur("refresh_interval", d.RefreshInterval).
		Msg("starting dashboard")

	model := dashboard.New(c, dashboard.Options{
		Messages:        messages(),
		RefreshInterval: d.RefreshInterval,
		SyncReloadDelay: d.SyncReloadDelay,
		NotificationTTL: d.NotificationTTL,
		OverviewLimit:   d.OverviewLimit,
		ActivitiesLimit: d.ActivitiesLimit,
		Location:        time.Local,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if m, ok := final.(dashboard.Model); ok {
		m.Charts().DestroyAll()
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	log.Info().Msg("dashboard closed")
	return nil
}
