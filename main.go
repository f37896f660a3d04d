// psxscraper captures the KSE100 index summary and its constituents from the
// Pakistan Stock Exchange data portal into CSV files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"psxscraper/config"
	"psxscraper/server"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg    *config.Config
	logger *log.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "psxscraper",
	Short: "Scrape the KSE100 index and its constituents from dps.psx.com.pk",
	Long: `psxscraper renders the PSX indices page, extracts the KSE100 index
summary and constituents table, prints a short report and appends the rows to
kse100_index.csv and kse100_constituents.csv.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if err := applyFlags(cmd, cfg); err != nil {
			return err
		}

		logger, err = newLogger(cfg.Log.Level)
		return err
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		spin := startSpinner(cfg.Progress, " Loading "+cfg.URL)
		res := app.svc.Scrape(cmd.Context())
		spin.Stop()

		app.svc.Publish(res)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/psxscraper.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("renderer", "", "page renderer override (browser, http)")
	rootCmd.PersistentFlags().String("output-dir", "", "directory for the CSV files")
	rootCmd.PersistentFlags().String("url", "", "indices page URL")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

// applyFlags overrides loaded settings with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("renderer") {
		cfg.Renderer, _ = flags.GetString("renderer")
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("url") {
		cfg.URL, _ = flags.GetString("url")
	}
	return cfg.Validate()
}

func newLogger(level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
	}), nil
}

// startSpinner shows progress on stderr when enabled and stderr is a terminal
func startSpinner(enabled bool, suffix string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = suffix
	if enabled && isTerminal(os.Stderr) {
		s.Start()
	}
	return s
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Serve the saved CSV rows and trigger scrape cycles over HTTP.",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := server.New(app.svc, app.store, server.Options{
			Host:             cfg.Server.Host,
			Port:             cfg.Server.Port,
			ShutdownTimeout:  cfg.Server.ShutdownTimeout,
			IndexFile:        cfg.IndexFile,
			ConstituentsFile: cfg.ConstituentsFile,
			AccessLog:        logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}).Writer(),
			Logger:           logger,
		})
		return srv.ListenAndServe(cmd.Context())
	},
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("psxscraper %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}
