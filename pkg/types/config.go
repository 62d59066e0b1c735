package types

import "time"

// StoreConfig locates the SQLite artifact database.
type StoreConfig struct {
	// Path is the database file (default "artifacts/artifacts.db").
	Path string `json:"path" yaml:"path" mapstructure:"path" validate:"required"`

	// CacheSize is the number of documents kept in the read cache (default 256).
	CacheSize int `json:"cache_size" yaml:"cache_size" mapstructure:"cache_size" validate:"gte=0"`
}

// AIProvider selects the generative backend.
type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderGemini AIProvider = "gemini"
)

// PromptSchema selects how the format example is written in the prompt and
// how the reply is read back.
type PromptSchema string

const (
	// SchemaMarkdown asks for one "## Field" block per field.
	SchemaMarkdown PromptSchema = "markdown"
	// SchemaJSON asks for a single JSON object keyed by field name.
	SchemaJSON PromptSchema = "json"
)

// AIConfig holds shared settings for the generation and merge callbacks.
type AIConfig struct {
	// Provider is claude or gemini.
	Provider AIProvider `json:"provider" yaml:"provider" mapstructure:"provider" validate:"oneof=claude gemini"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed or unparsable
	// responses (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0,lte=10"`

	// Timeout bounds a single backend call.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// PromptSchema is markdown (default) or json.
	PromptSchema PromptSchema `json:"prompt_schema" yaml:"prompt_schema" mapstructure:"prompt_schema" validate:"oneof=markdown json"`
}

// PipelineConfig holds the incremental pipeline settings.
type PipelineConfig struct {
	// UpstreamRoot is the store root read for changed upstream documents
	// (default "docs/system_design").
	UpstreamRoot string `json:"upstream_root" yaml:"upstream_root" mapstructure:"upstream_root" validate:"required"`

	// DerivedRoot is the store root derived documents are written to
	// (default "docs/tasks").
	DerivedRoot string `json:"derived_root" yaml:"derived_root" mapstructure:"derived_root" validate:"required,nefield=UpstreamRoot"`

	// AggregateRoot and AggregateFile name the side aggregation document
	// (default "." and "requirements.txt"). AggregateRoot must differ from
	// both pipeline roots, otherwise the aggregation file enters the change
	// set as a document with no upstream.
	AggregateRoot string `json:"aggregate_root" yaml:"aggregate_root" mapstructure:"aggregate_root" validate:"omitempty,nefield=UpstreamRoot,nefield=DerivedRoot"`
	AggregateFile string `json:"aggregate_file" yaml:"aggregate_file" mapstructure:"aggregate_file"`

	// AggregateKey is the structured field whose list feeds the aggregation
	// document (default "Required Go modules").
	AggregateKey string `json:"aggregate_key" yaml:"aggregate_key" mapstructure:"aggregate_key"`

	// ContinueOnError keeps processing the batch after a file fails.
	ContinueOnError bool `json:"continue_on_error" yaml:"continue_on_error" mapstructure:"continue_on_error"`

	// Concurrency is the number of files generated in parallel (default 1).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency" validate:"gte=0,lte=32"`
}

// ExportKind selects the secondary export sink.
type ExportKind string

const (
	ExportNone ExportKind = "none"
	ExportFS   ExportKind = "fs"
	ExportS3   ExportKind = "s3"
)

// S3Config holds settings for an S3-compatible export bucket.
type S3Config struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Region    string `json:"region" yaml:"region" mapstructure:"region"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl" mapstructure:"use_ssl"`
}

// ExportConfig holds the secondary export sink settings.
type ExportConfig struct {
	Kind ExportKind `json:"kind" yaml:"kind" mapstructure:"kind" validate:"oneof=none fs s3"`

	// Root is the directory (fs) or key prefix (s3) exports go under
	// (default "docs/export").
	Root string `json:"root" yaml:"root" mapstructure:"root"`

	// Suffix replaces the document's extension (default ".md").
	Suffix string `json:"suffix" yaml:"suffix" mapstructure:"suffix"`

	S3 S3Config `json:"s3" yaml:"s3" mapstructure:"s3"`
}

// LogConfig selects the zap logger settings.
type LogConfig struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all settings for one invocation.
type Config struct {
	Store    StoreConfig    `json:"store" yaml:"store" mapstructure:"store"`
	AI       AIConfig       `json:"ai" yaml:"ai" mapstructure:"ai"`
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	Export   ExportConfig   `json:"export" yaml:"export" mapstructure:"export"`
	Log      LogConfig      `json:"log" yaml:"log" mapstructure:"log"`
}
