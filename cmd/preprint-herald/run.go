// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/preprint-herald/internal/config"
	"github.com/pdiddy/preprint-herald/internal/listing"
	"github.com/pdiddy/preprint-herald/internal/logger"
	"github.com/pdiddy/preprint-herald/internal/metadata"
	"github.com/pdiddy/preprint-herald/internal/notify"
	"github.com/pdiddy/preprint-herald/internal/pipeline"
	"github.com/pdiddy/preprint-herald/internal/report"
	"github.com/pdiddy/preprint-herald/internal/schedule"
	"github.com/pdiddy/preprint-herald/internal/store"
	"github.com/pdiddy/preprint-herald/internal/summarize"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Fetch the listing and announce unseen preprints",
	Long: `Run fetches this month's listing for the configured category, looks up
metadata in groups of at most ten identifiers, filters out identifiers already
in storage, and for each remaining preprint summarizes, stores and posts it.

Without --every the command performs one run and exits. With --every it
repeats on that interval until interrupted, skipping a tick while the previous
run is still going.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().Duration("every", 0, "repeat on this interval instead of running once (e.g. 24h)")
	runCmd.Flags().String("category", "", "arXiv category to watch (default q-fin.PM)")
	runCmd.Flags().String("parser", "", "listing parser: regex or dom")
	runCmd.Flags().Bool("dry-run", false, "log what would be posted without storing or posting")
	runCmd.Flags().Bool("no-summary", false, "post the abstract instead of an AI summary")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	_ = viper.BindPFlag("schedule.interval", runCmd.Flags().Lookup("every"))
	_ = viper.BindPFlag("listing.category", runCmd.Flags().Lookup("category"))
	_ = viper.BindPFlag("listing.parser", runCmd.Flags().Lookup("parser"))
	_ = viper.BindPFlag("pipeline.dry_run", runCmd.Flags().Lookup("dry-run"))
	_ = viper.BindPFlag("schedule.metrics_addr", runCmd.Flags().Lookup("metrics-addr"))

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	noSummary, _ := cmd.Flags().GetBool("no-summary")
	dryRun := viper.GetBool("pipeline.dry_run")

	scope := runScope(dryRun, noSummary)
	cfg, err := loadConfig(scope)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	driver, err := buildDriver(cfg, scope, log, pipeline.NewMetrics(reg))
	if err != nil {
		return err
	}

	if cfg.Schedule.Interval == 0 {
		summary, err := driver.Run(ctx)
		if err != nil {
			return err
		}
		report.FormatSummary(summary, os.Stdout)
		return nil
	}

	if cfg.Schedule.MetricsAddr != "" {
		srv := serveMetrics(cfg.Schedule.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sched, err := schedule.New(driver, cfg.Schedule.Interval, log)
	if err != nil {
		return err
	}
	sched.RunImmediately = true
	return sched.Run(ctx)
}

// runScope returns the boundaries a run must have credentials for.
func runScope(dryRun, noSummary bool) config.Scope {
	if dryRun {
		return config.Scope{Storage: true}
	}
	scope := config.ScopeRun
	scope.Summarizer = !noSummary
	return scope
}

// buildDriver wires the pipeline stages from cfg. The summarizer is only
// attached when scope requires it.
func buildDriver(cfg types.Config, scope config.Scope, log logger.Logger, m *pipeline.Metrics) (*pipeline.Driver, error) {
	parser, err := listing.New(cfg.Listing.Parser)
	if err != nil {
		return nil, err
	}

	meta, err := metadata.NewClient(newHTTPClient(cfg.Metadata.HTTPConfig), cfg.Metadata)
	if err != nil {
		return nil, err
	}

	d := &pipeline.Driver{
		Listing:  &listing.Fetcher{Client: newHTTPClient(cfg.Listing.HTTPConfig), Config: cfg.Listing},
		Parser:   parser,
		Metadata: meta,
		OpenStore: func(ctx context.Context) (pipeline.SeenStore, error) {
			return store.Open(ctx, cfg.Storage)
		},
		Notifier:        &notify.Telegram{Client: newHTTPClient(cfg.Notifier.HTTPConfig), Config: cfg.Notifier},
		Config:          cfg.Pipeline,
		ExistsBatchSize: cfg.Storage.ExistsBatchSize,
		Logger:          log,
		Metrics:         m,
	}
	if scope.Summarizer {
		d.Summarizer = summarize.NewAnthropic(cfg.Summarizer, nil)
	}
	return d, nil
}

// serveMetrics exposes reg on addr in the background.
func serveMetrics(addr string, reg *prometheus.Registry, log logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info("Serving metrics", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", logger.Error(err))
		}
	}()
	return srv
}
