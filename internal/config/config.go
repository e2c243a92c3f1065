// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads service settings from viper and validates them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/preprint-herald/internal/secrets"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

// EnvPrefix prefixes every environment variable read through AutomaticEnv,
// e.g. PREPRINT_HERALD_LISTING_CATEGORY.
const EnvPrefix = "PREPRINT_HERALD"

// ErrMissing reports required settings with no value.
var ErrMissing = errors.New("missing required configuration")

// Default values.
const (
	DefaultCategory        = "q-fin.PM"
	DefaultListingBaseURL  = "https://export.arxiv.org/list"
	DefaultAPIBaseURL      = "https://export.arxiv.org/api/query"
	DefaultBatchSize       = 10
	DefaultBatchDelay      = 3 * time.Second
	DefaultExistsBatchSize = 1000
	DefaultItemDelay       = 2 * time.Second
	DefaultTimeout         = 60 * time.Second
	DefaultUserAgent       = "preprint-herald/0.1"
	DefaultModel           = "claude-3-5-haiku-latest"
	DefaultMaxTokens       = 512
	DefaultSQLitePath      = "data/preprints.db"
	DefaultTable           = "arxiv_articles"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listing.category", DefaultCategory)
	v.SetDefault("listing.base_url", DefaultListingBaseURL)
	v.SetDefault("listing.parser", "regex")
	v.SetDefault("http.timeout", DefaultTimeout)
	v.SetDefault("http.user_agent", DefaultUserAgent)
	v.SetDefault("metadata.base_url", DefaultAPIBaseURL)
	v.SetDefault("metadata.batch_size", DefaultBatchSize)
	v.SetDefault("metadata.batch_delay", DefaultBatchDelay)
	v.SetDefault("storage.driver", string(types.DriverSQLite))
	v.SetDefault("storage.path", DefaultSQLitePath)
	v.SetDefault("storage.port", 5432)
	v.SetDefault("storage.sslmode", "disable")
	v.SetDefault("storage.table", DefaultTable)
	v.SetDefault("storage.exists_batch_size", DefaultExistsBatchSize)
	v.SetDefault("summarizer.model", DefaultModel)
	v.SetDefault("summarizer.max_tokens", DefaultMaxTokens)
	v.SetDefault("summarizer.max_retries", 3)
	v.SetDefault("summarizer.timeout", DefaultTimeout)
	v.SetDefault("notifier.base_url", "https://api.telegram.org")
	v.SetDefault("pipeline.item_delay", DefaultItemDelay)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_paths", []string{"stdout"})
}

// legacyEnv maps keys to the unprefixed variable names older deployments
// export. The prefixed name always takes precedence.
var legacyEnv = map[string]string{
	"storage.host":        "POSTGRES_HOST",
	"storage.port":        "POSTGRES_PORT",
	"storage.database":    "POSTGRES_DB",
	"storage.user":        "POSTGRES_USERNAME",
	"storage.password":    "POSTGRES_PASSWORD",
	"storage.table":       "POSTGRES_TABLE",
	"summarizer.api_key":  "ANTHROPIC_API_KEY",
	"notifier.token":      "TELEGRAM_BOT_TOKEN",
	"notifier.channel_id": "TELEGRAM_CHANNEL_ID",
}

// BindEnv enables environment overrides on v.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// Load builds a Config from v. Credentials left empty fall back to sec.
func Load(v *viper.Viper, sec secrets.Secrets) types.Config {
	httpCfg := types.HTTPConfig{
		Timeout:   v.GetDuration("http.timeout"),
		UserAgent: v.GetString("http.user_agent"),
	}

	return types.Config{
		Listing: types.ListingConfig{
			HTTPConfig: httpCfg,
			Category:   v.GetString("listing.category"),
			BaseURL:    v.GetString("listing.base_url"),
			Parser:     v.GetString("listing.parser"),
		},
		Metadata: types.MetadataConfig{
			HTTPConfig: httpCfg,
			BaseURL:    v.GetString("metadata.base_url"),
			BatchSize:  v.GetInt("metadata.batch_size"),
			BatchDelay: v.GetDuration("metadata.batch_delay"),
		},
		Storage: types.StorageConfig{
			Driver:          types.StorageDriver(v.GetString("storage.driver")),
			Path:            v.GetString("storage.path"),
			Host:            v.GetString("storage.host"),
			Port:            v.GetInt("storage.port"),
			Database:        v.GetString("storage.database"),
			User:            v.GetString("storage.user"),
			Password:        sec.Or(secrets.PostgresPassword, v.GetString("storage.password")),
			SSLMode:         v.GetString("storage.sslmode"),
			Table:           v.GetString("storage.table"),
			ExistsBatchSize: v.GetInt("storage.exists_batch_size"),
		},
		Summarizer: types.SummarizerConfig{
			AIConfig: types.AIConfig{
				Model:      v.GetString("summarizer.model"),
				APIKey:     sec.Or(secrets.AnthropicAPIKey, v.GetString("summarizer.api_key")),
				MaxRetries: v.GetInt("summarizer.max_retries"),
			},
			MaxTokens: v.GetInt("summarizer.max_tokens"),
			BaseURL:   v.GetString("summarizer.base_url"),
			Timeout:   v.GetDuration("summarizer.timeout"),
		},
		Notifier: types.NotifierConfig{
			HTTPConfig: httpCfg,
			Token:      sec.Or(secrets.TelegramBotToken, v.GetString("notifier.token")),
			ChannelID:  v.GetString("notifier.channel_id"),
			BaseURL:    v.GetString("notifier.base_url"),
		},
		Pipeline: types.PipelineConfig{
			ItemDelay: v.GetDuration("pipeline.item_delay"),
			DryRun:    v.GetBool("pipeline.dry_run"),
		},
		Schedule: types.ScheduleConfig{
			Interval:    v.GetDuration("schedule.interval"),
			MetricsAddr: v.GetString("schedule.metrics_addr"),
		},
		Log: types.LogConfig{
			Level:       v.GetString("log.level"),
			OutputPaths: v.GetStringSlice("log.output_paths"),
		},
	}
}

// Scope selects which boundaries a command needs.
type Scope struct {
	Storage    bool
	Summarizer bool
	Notifier   bool
}

// ScopeRun covers every boundary a pipeline run touches.
var ScopeRun = Scope{Storage: true, Summarizer: true, Notifier: true}

// Validate reports every required setting in scope that has no value, in
// one error wrapping ErrMissing.
func Validate(cfg types.Config, scope Scope) error {
	var missing []string
	need := func(ok bool, key string) {
		if !ok {
			missing = append(missing, key)
		}
	}

	need(cfg.Listing.Category != "", "listing.category")
	need(cfg.Metadata.BatchSize > 0, "metadata.batch_size")

	if scope.Storage {
		need(cfg.Storage.Table != "", "storage.table")
		switch cfg.Storage.Driver {
		case types.DriverSQLite:
			need(cfg.Storage.Path != "", "storage.path")
		case types.DriverPostgres:
			need(cfg.Storage.Host != "", "storage.host")
			need(cfg.Storage.Port > 0, "storage.port")
			need(cfg.Storage.Database != "", "storage.database")
			need(cfg.Storage.User != "", "storage.user")
			need(cfg.Storage.Password != "", "storage.password")
		default:
			return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
		}
	}
	if scope.Summarizer {
		need(cfg.Summarizer.APIKey != "", "summarizer.api_key")
	}
	if scope.Notifier {
		need(cfg.Notifier.Token != "", "notifier.token")
		need(cfg.Notifier.ChannelID != "", "notifier.channel_id")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	return nil
}
