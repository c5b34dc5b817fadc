package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/MarkitIt/markitit-xc475/internal/browser"
	"github.com/MarkitIt/markitit-xc475/internal/config"
	"github.com/MarkitIt/markitit-xc475/internal/dedupe"
	"github.com/MarkitIt/markitit-xc475/internal/logger"
	"github.com/MarkitIt/markitit-xc475/internal/observability"
	"github.com/MarkitIt/markitit-xc475/internal/pacing"
	"github.com/MarkitIt/markitit-xc475/internal/pipeline"
	"github.com/MarkitIt/markitit-xc475/internal/source"
	"github.com/MarkitIt/markitit-xc475/internal/store"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

var (
	flagFormat  string
	flagSources []string
	flagSort    string
	flagYes     bool

	// set by a scrape run that persisted at least one new event
	scrapeFoundNew bool
)

// Execute runs the CLI and returns the process exit code. A scrape that
// persisted at least one new event exits with ExitNewEvents so cron jobs can
// trigger follow-up work on it.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	if scrapeFoundNew {
		return ExitNewEvents
	}
	return ExitSuccess
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "markitit-scraper",
		Short: "Scrape pop-up market events into the event store",
		Long: `Scrapes event listings from the configured sites, normalizes them into
canonical events, drops the ones already stored, and persists the rest in a
single batch per run.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "Output format: text or json")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newClearCmd())
	return cmd
}

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run the scraping pipeline once",
		RunE:  runScrape,
	}
	cmd.Flags().StringSliceVar(&flagSources, "sources", nil, "Source identifiers to scrape (default: configured enabled_sources)")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "List the events currently in the store",
		RunE:  runCheck,
	}
	cmd.Flags().StringVar(&flagSort, "sort", "name", "Sort order: name, city, or date")
	return cmd
}

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored event",
		RunE:  runClear,
	}
	cmd.Flags().BoolVar(&flagYes, "yes", false, "Confirm the deletion")
	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	metrics := observability.NewMetrics()
	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer srv.Shutdown(context.Background())
	}

	gov := pacing.New(nil)
	sources, err := source.BuildAll(cfg, source.Options{
		Governor:  gov,
		PaceMin:   cfg.PaceMin(),
		PaceMax:   cfg.PaceMax(),
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.HTTPTimeout(),
		Launcher:  browser.NewChromeLauncher(cfg.UserAgent),
	})
	if err != nil {
		return fmt.Errorf("building sources: %w", err)
	}

	ids := flagSources
	if len(ids) == 0 {
		ids = cfg.EnabledSources
	}

	pipe := pipeline.New(sources, dedupe.NewChecker(st), st, metrics, nil)
	report, err := pipe.Run(ctx, ids)
	if err != nil {
		return err
	}

	if report.New > 0 {
		scrapeFoundNew = true
	}
	return writeReport(cmd.OutOrStdout(), report, format)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	format, err := parseFormat(flagFormat)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(flagSort)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var docs []store.Document
	err = st.Stream(ctx, func(doc store.Document) error {
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading store: %w", err)
	}

	sortDocuments(docs, order)
	return writeDocuments(cmd.OutOrStdout(), docs, format)
}

func runClear(cmd *cobra.Command, args []string) error {
	if !flagYes {
		return fmt.Errorf("clear deletes every stored event; re-run with --yes to confirm")
	}

	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	var ids []string
	err = st.Stream(ctx, func(doc store.Document) error {
		ids = append(ids, doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading store: %w", err)
	}

	for _, id := range ids {
		if err := st.Delete(ctx, id); err != nil {
			return fmt.Errorf("deleting %s: %w", id, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d events.\n", len(ids))
	return nil
}

// setup loads configuration and points the default logger at stderr with the
// configured level.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger.SetDefault(logger.New(logger.ParseLevel(cfg.LogLevel), os.Stderr))
	return cfg, nil
}

// openStore picks Postgres when a DSN is configured, otherwise the
// file-backed store.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.PostgresDSN != "" {
		return store.NewPostgresStore(ctx, cfg.PostgresDSN)
	}
	return store.NewFileStore(cfg.DataDir)
}

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(s))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", logger.Fields{
				"addr":  addr,
				"error": err.Error(),
			})
		}
	}()
	return srv
}
