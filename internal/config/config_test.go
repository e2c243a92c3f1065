// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/preprint-herald/internal/secrets"
	"github.com/pdiddy/preprint-herald/pkg/types"
)

func newViper(t *testing.T) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	require.NoError(t, BindEnv(v))
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(newViper(t), nil)

	assert.Equal(t, DefaultCategory, cfg.Listing.Category)
	assert.Equal(t, DefaultListingBaseURL, cfg.Listing.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Listing.Timeout)
	assert.Equal(t, DefaultUserAgent, cfg.Metadata.UserAgent)
	assert.Equal(t, DefaultAPIBaseURL, cfg.Metadata.BaseURL)
	assert.Equal(t, 10, cfg.Metadata.BatchSize)
	assert.Equal(t, 3*time.Second, cfg.Metadata.BatchDelay)
	assert.Equal(t, types.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, DefaultSQLitePath, cfg.Storage.Path)
	assert.Equal(t, DefaultTable, cfg.Storage.Table)
	assert.Equal(t, 1000, cfg.Storage.ExistsBatchSize)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.ItemDelay)
	assert.Equal(t, DefaultModel, cfg.Summarizer.Model)
	assert.Equal(t, 512, cfg.Summarizer.MaxTokens)
	assert.Equal(t, []string{"stdout"}, cfg.Log.OutputPaths)
	assert.Zero(t, cfg.Schedule.Interval)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preprint-herald.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listing:
  category: q-fin.RM
  parser: dom
metadata:
  batch_delay: 5s
storage:
  driver: postgres
  host: db.local
  database: arxiv
  user: herald
notifier:
  channel_id: "@herald"
schedule:
  interval: 6h
`), 0o644))

	v := newViper(t)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := Load(v, secrets.Secrets{secrets.PostgresPassword: "from-file"})
	assert.Equal(t, "q-fin.RM", cfg.Listing.Category)
	assert.Equal(t, "dom", cfg.Listing.Parser)
	assert.Equal(t, 5*time.Second, cfg.Metadata.BatchDelay)
	assert.Equal(t, types.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, 5432, cfg.Storage.Port)
	assert.Equal(t, "from-file", cfg.Storage.Password)
	assert.Equal(t, "@herald", cfg.Notifier.ChannelID)
	assert.Equal(t, 6*time.Hour, cfg.Schedule.Interval)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PREPRINT_HERALD_LISTING_CATEGORY", "q-fin.TR")
	t.Setenv("POSTGRES_HOST", "legacy-host")
	t.Setenv("POSTGRES_TABLE", "papers")
	t.Setenv("PREPRINT_HERALD_STORAGE_TABLE", "preferred")
	t.Setenv("ANTHROPIC_API_KEY", "sk-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:env")

	cfg := Load(newViper(t), secrets.Secrets{
		secrets.AnthropicAPIKey:  "sk-file",
		secrets.TelegramBotToken: "123:file",
	})
	assert.Equal(t, "q-fin.TR", cfg.Listing.Category)
	assert.Equal(t, "legacy-host", cfg.Storage.Host)
	assert.Equal(t, "preferred", cfg.Storage.Table)
	assert.Equal(t, "sk-env", cfg.Summarizer.APIKey, "explicit value wins over secrets")
	assert.Equal(t, "123:env", cfg.Notifier.Token)
}

func TestLoad_SecretsFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	cfg := Load(newViper(t), secrets.Secrets{
		secrets.AnthropicAPIKey:  "sk-file",
		secrets.TelegramBotToken: "123:file",
	})
	assert.Equal(t, "sk-file", cfg.Summarizer.APIKey)
	assert.Equal(t, "123:file", cfg.Notifier.Token)
}

func validConfig() types.Config {
	return types.Config{
		Listing:    types.ListingConfig{Category: "q-fin.PM"},
		Metadata:   types.MetadataConfig{BatchSize: 10},
		Storage:    types.StorageConfig{Driver: types.DriverSQLite, Path: "x.db", Table: "t"},
		Summarizer: types.SummarizerConfig{AIConfig: types.AIConfig{APIKey: "sk"}},
		Notifier:   types.NotifierConfig{Token: "tok", ChannelID: "@c"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.Config)
		scope   Scope
		missing []string
	}{
		{"complete", func(*types.Config) {}, ScopeRun, nil},
		{"no credentials", func(c *types.Config) {
			c.Summarizer.APIKey = ""
			c.Notifier.Token = ""
			c.Notifier.ChannelID = ""
		}, ScopeRun, []string{"summarizer.api_key", "notifier.token", "notifier.channel_id"}},
		{"credentials out of scope", func(c *types.Config) {
			c.Summarizer.APIKey = ""
			c.Notifier.Token = ""
		}, Scope{Storage: true}, nil},
		{"postgres coordinates", func(c *types.Config) {
			c.Storage.Driver = types.DriverPostgres
		}, ScopeRun, []string{"storage.host", "storage.port", "storage.database", "storage.user", "storage.password"}},
		{"no category", func(c *types.Config) { c.Listing.Category = "" }, Scope{}, []string{"listing.category"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := Validate(cfg, tt.scope)
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrMissing)
			for _, key := range tt.missing {
				assert.Contains(t, err.Error(), key)
			}
		})
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "mongo"
	err := Validate(cfg, ScopeRun)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissing)
}
