// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one pass of listing, metadata lookup, novelty
// filtering and per-item delivery.
//
// A run moves through IDLE, FETCHING_LISTING, PARSING, BATCH_QUERYING,
// FILTERING_NOVEL and PER_ITEM_PROCESSING before returning to IDLE. Faults
// before PER_ITEM_PROCESSING abort the run. Faults on one item are recorded
// and the run moves on to the next item.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/pdiddy/preprint-herald/internal/listing"
	"github.com/pdiddy/preprint-herald/internal/logger"
	"github.com/pdiddy/preprint-herald/internal/notify"
	"github.com/pdiddy/preprint-herald/internal/novelty"
	"github.com/pdiddy/preprint-herald/internal/record"
	"github.com/pdiddy/preprint-herald/internal/summarize"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

// ErrRunInProgress is returned when Run is called while another run holds
// the driver.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// ListingSource returns the raw listing document for a yymm period.
type ListingSource interface {
	Fetch(ctx context.Context, period string) (string, error)
}

// MetadataFetcher returns one detail record per identifier, in order.
type MetadataFetcher interface {
	Fetch(ctx context.Context, ids []string) ([]types.DetailRecord, error)
}

// SeenStore is the part of the persistence boundary a run needs.
type SeenStore interface {
	Existing(ctx context.Context, ids []string) (map[string]bool, error)
	InsertIfAbsent(ctx context.Context, rec types.CanonicalRecord) (bool, error)
	Close() error
}

// StoreOpener acquires a store handle for the duration of one run.
type StoreOpener func(ctx context.Context) (SeenStore, error)

// Driver sequences one run. The zero value is not usable; Listing, Parser,
// Metadata, OpenStore and Notifier must be set. Summarizer may be nil, in
// which case records are posted with their abstract.
type Driver struct {
	Listing    ListingSource
	Parser     listing.Parser
	Metadata   MetadataFetcher
	OpenStore  StoreOpener
	Summarizer summarize.Summarizer
	Notifier   notify.Notifier

	Config          types.PipelineConfig
	ExistsBatchSize int

	Logger  logger.Logger
	Metrics *Metrics

	// Now returns the clock used to pick the listing period.
	Now func() time.Time

	mu    sync.Mutex
	state atomic.Int32
}

// State returns the current state.
func (d *Driver) State() State { return State(d.state.Load()) }

func (d *Driver) setState(log logger.Logger, s State) {
	prev := State(d.state.Swap(int32(s)))
	if prev != s {
		log.Debug("State transition", logger.String("from", prev.String()), logger.String("to", s.String()))
	}
}

// Run executes one pass. It returns an error only for whole-run faults;
// per-item faults are reported in the summary. A run that finds an empty
// listing succeeds with zero counts.
func (d *Driver) Run(ctx context.Context) (RunSummary, error) {
	if !d.mu.TryLock() {
		return RunSummary{}, ErrRunInProgress
	}
	defer d.mu.Unlock()

	if d.Logger == nil {
		d.Logger = logger.NewNop()
	}
	if d.Metrics == nil {
		d.Metrics = NewMetrics(prometheus.NewRegistry())
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	summary := RunSummary{RunID: uuid.NewString(), StartedAt: d.Now().UTC()}
	log := d.Logger.With(logger.String("run_id", summary.RunID))
	start := time.Now()

	log.Info("Run started")
	err := d.run(ctx, log, &summary)
	d.setState(log, StateIdle)
	summary.Duration = time.Since(start)

	d.Metrics.RunDuration.Observe(summary.Duration.Seconds())
	switch {
	case err != nil:
		d.Metrics.RunsTotal.WithLabelValues(ResultFailed).Inc()
		log.Error("Run failed", logger.Error(err), logger.Duration("duration", summary.Duration))
		return summary, err
	case summary.Listed == 0:
		d.Metrics.RunsTotal.WithLabelValues(ResultEmpty).Inc()
	default:
		d.Metrics.RunsTotal.WithLabelValues(ResultSuccess).Inc()
	}
	d.Metrics.LastSuccessSeconds.SetToCurrentTime()

	log.Info("Run finished",
		logger.Int("listed", summary.Listed),
		logger.Int("novel", summary.Novel),
		logger.Int("persisted", summary.Persisted),
		logger.Int("notified", summary.Notified),
		logger.Int("failed", summary.Failed),
		logger.Duration("duration", summary.Duration),
	)
	return summary, nil
}

func (d *Driver) run(ctx context.Context, log logger.Logger, summary *RunSummary) error {
	d.setState(log, StateFetchingListing)
	period := listing.Period(d.Now())
	doc, err := d.Listing.Fetch(ctx, period)
	if err != nil {
		return fmt.Errorf("fetching listing for %s: %w", period, err)
	}

	d.setState(log, StateParsing)
	parsed, err := d.Parser.Parse(doc)
	if err != nil {
		return fmt.Errorf("parsing listing: %w", err)
	}
	summary.Listed = parsed.Len()
	if parsed.Total >= 0 && parsed.Total != parsed.Len() {
		log.Warn("Listing count differs from page total",
			logger.Int("parsed", parsed.Len()), logger.Int("total", parsed.Total))
	}
	if parsed.Len() == 0 {
		log.Warn("Listing is empty", logger.Error(listing.ErrNoEntries), logger.String("period", period))
		return nil
	}

	d.setState(log, StateBatchQuerying)
	ids := parsed.IDs()
	details, err := d.Metadata.Fetch(ctx, ids)
	if err != nil {
		return fmt.Errorf("fetching metadata: %w", err)
	}
	recs, err := record.Merge(parsed.ByID(), details, ids)
	if err != nil {
		return fmt.Errorf("merging records: %w", err)
	}

	d.setState(log, StateFilteringNovel)
	st, err := d.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Warn("Closing store", logger.Error(cerr))
		}
	}()

	unseen, err := novelty.FilterUnseen(ctx, ids, st.Existing, d.ExistsBatchSize)
	if err != nil {
		return fmt.Errorf("filtering seen records: %w", err)
	}
	novel := novelty.FilterRecords(recs, unseen)
	summary.Novel = len(novel)
	d.Metrics.NovelItems.Set(float64(len(novel)))
	log.Info("Novel records selected", logger.Int("listed", len(ids)), logger.Int("novel", len(novel)))

	if d.Config.DryRun {
		for _, rec := range novel {
			log.Info("Would post", logger.String("id", rec.ID), logger.String("title", rec.Title))
			d.Metrics.ItemsTotal.WithLabelValues(OutcomeDryRun).Inc()
		}
		return nil
	}

	d.setState(log, StatePerItemProcessing)
	pace := rate.NewLimiter(rate.Every(d.Config.ItemDelay), 1)
	for _, rec := range novel {
		if err := pace.Wait(ctx); err != nil {
			return fmt.Errorf("waiting before %s: %w", rec.ID, err)
		}
		outcome, err := d.processItem(ctx, st, rec)
		d.Metrics.ItemsTotal.WithLabelValues(outcome).Inc()
		summary.record(rec.ID, outcome, err)
		if d.Summarizer != nil && outcome != OutcomeSummarizeFailed {
			summary.Summarized++
		}

		itemLog := log.With(logger.String("id", rec.ID), logger.String("outcome", outcome))
		if err != nil {
			itemLog.Error("Item failed", logger.Error(err))
			continue
		}
		itemLog.Info("Item processed")
	}
	return nil
}

// processItem summarizes, persists and posts one record. The returned
// outcome names the step that decided the item's fate.
func (d *Driver) processItem(ctx context.Context, st SeenStore, rec types.CanonicalRecord) (string, error) {
	if d.Summarizer != nil {
		text, err := d.Summarizer.Summarize(ctx, rec.Summary)
		if err != nil {
			return OutcomeSummarizeFailed, fmt.Errorf("summarizing: %w", err)
		}
		rec.AISummary = text
	}

	inserted, err := st.InsertIfAbsent(ctx, rec)
	if err != nil {
		return OutcomePersistFailed, fmt.Errorf("persisting: %w", err)
	}
	if !inserted {
		return OutcomeAlreadyPresent, nil
	}

	// The record is now seen; a failed post is not retried.
	if err := d.Notifier.Notify(ctx, rec); err != nil {
		return OutcomeNotifyFailed, fmt.Errorf("notifying: %w", err)
	}
	return OutcomeNotified, nil
}
