package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "preprint-herald/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ListingConfig holds settings for fetching the monthly category listing.
type ListingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Category is the arXiv subject class to watch (e.g. "q-fin.PM").
	Category string `json:"category" yaml:"category"`

	// BaseURL is the listing endpoint; the category and yymm period are
	// appended as path segments.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Parser selects the listing parser: "regex" or "dom".
	Parser string `json:"parser" yaml:"parser"`
}

// MetadataConfig holds settings for the batched metadata API client.
type MetadataConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the Atom query endpoint.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// BatchSize is the number of identifiers per request (at most 10).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// BatchDelay is the minimum spacing between the starts of consecutive
	// batch requests (default 3s). A response slower than BatchDelay is
	// followed by the next request at once.
	BatchDelay time.Duration `json:"batch_delay" yaml:"batch_delay"`
}

// StorageDriver selects the persistence backend.
type StorageDriver string

const (
	DriverSQLite   StorageDriver = "sqlite"
	DriverPostgres StorageDriver = "postgres"
)

// StorageConfig holds connection settings for the seen-set table.
type StorageConfig struct {
	Driver StorageDriver `json:"driver" yaml:"driver"`

	// Path is the SQLite database file (sqlite driver only).
	Path string `json:"path,omitempty" yaml:"path,omitempty"`

	Host     string `json:"host,omitempty" yaml:"host,omitempty"`
	Port     int    `json:"port,omitempty" yaml:"port,omitempty"`
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	User     string `json:"user,omitempty" yaml:"user,omitempty"`
	Password string `json:"-" yaml:"-"`
	SSLMode  string `json:"sslmode,omitempty" yaml:"sslmode,omitempty"`

	// Table is the name of the table holding processed records.
	Table string `json:"table" yaml:"table"`

	// ExistsBatchSize bounds the number of ids per existence query (default 1000).
	ExistsBatchSize int `json:"exists_batch_size" yaml:"exists_batch_size"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"-" yaml:"-"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SummarizerConfig holds settings for abstract summarization.
type SummarizerConfig struct {
	AIConfig `yaml:",inline"`

	// MaxTokens caps the length of the generated summary.
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// BaseURL overrides the API endpoint; empty uses the SDK default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// NotifierConfig holds settings for channel delivery.
type NotifierConfig struct {
	HTTPConfig `yaml:",inline"`

	// Token is the bot token.
	Token string `json:"-" yaml:"-"`

	// ChannelID is the target chat (e.g. "@my_channel" or "-100123456").
	ChannelID string `json:"channel_id" yaml:"channel_id"`

	// BaseURL is the Bot API root (default "https://api.telegram.org").
	BaseURL string `json:"base_url" yaml:"base_url"`
}

// PipelineConfig holds driver settings for one run.
type PipelineConfig struct {
	// ItemDelay is the pause between per-item deliveries (default 2s).
	ItemDelay time.Duration `json:"item_delay" yaml:"item_delay"`

	// DryRun stops after novelty filtering and only logs what would be posted.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// ScheduleConfig controls periodic mode.
type ScheduleConfig struct {
	// Interval between run starts; zero means single-shot.
	Interval time.Duration `json:"interval" yaml:"interval"`

	// MetricsAddr serves Prometheus metrics when non-empty (periodic mode only).
	MetricsAddr string `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string   `json:"level" yaml:"level"`
	OutputPaths []string `json:"output_paths" yaml:"output_paths"`
}

// Config groups all stage configurations for the service.
type Config struct {
	Listing    ListingConfig    `json:"listing" yaml:"listing"`
	Metadata   MetadataConfig   `json:"metadata" yaml:"metadata"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	Summarizer SummarizerConfig `json:"summarizer" yaml:"summarizer"`
	Notifier   NotifierConfig   `json:"notifier" yaml:"notifier"`
	Pipeline   PipelineConfig   `json:"pipeline" yaml:"pipeline"`
	Schedule   ScheduleConfig   `json:"schedule" yaml:"schedule"`
	Log        LogConfig        `json:"log" yaml:"log"`
}
