// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads artifact-engine settings from a YAML file, the
// environment, and .env, applies defaults, and validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Name is the config file base name and the user config directory name.
const Name = "artifact-engine"

// EnvPrefix prefixes every environment override, e.g.
// ARTIFACT_ENGINE_AI_API_KEY for ai.api_key.
const EnvPrefix = "ARTIFACT_ENGINE"

// Default model identifiers per provider.
const (
	DefaultClaudeModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel = "gemini-2.5-flash"
)

// SetDefaults registers a default for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.path", "artifacts/artifacts.db")
	v.SetDefault("store.cache_size", 256)

	v.SetDefault("ai.provider", string(types.ProviderClaude))
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.max_retries", 3)
	v.SetDefault("ai.timeout", 5*time.Minute)
	v.SetDefault("ai.prompt_schema", string(types.SchemaMarkdown))

	v.SetDefault("pipeline.upstream_root", "docs/system_design")
	v.SetDefault("pipeline.derived_root", "docs/tasks")
	v.SetDefault("pipeline.aggregate_root", ".")
	v.SetDefault("pipeline.aggregate_file", "requirements.txt")
	v.SetDefault("pipeline.aggregate_key", "Required Go modules")
	v.SetDefault("pipeline.continue_on_error", false)
	v.SetDefault("pipeline.concurrency", 1)

	v.SetDefault("export.kind", string(types.ExportFS))
	v.SetDefault("export.root", "docs/export")
	v.SetDefault("export.suffix", ".md")
	v.SetDefault("export.s3.endpoint", "")
	v.SetDefault("export.s3.region", "")
	v.SetDefault("export.s3.access_key", "")
	v.SetDefault("export.s3.secret_key", "")
	v.SetDefault("export.s3.bucket", "")
	v.SetDefault("export.s3.use_ssl", true)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Setup points v at the config file and the environment. An explicit file
// wins; otherwise artifact-engine.yaml is searched for in the working
// directory and ~/.config/artifact-engine.
func Setup(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", Name))
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// Read loads .env (best effort) and the config file. A missing config file
// is not an error; it returns the file used, or "" when none was found.
func Read(v *viper.Viper) (string, error) {
	_ = godotenv.Load()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("reading config: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Decode unmarshals v into a Config, fills provider-dependent defaults,
// and validates it.
func Decode(v *viper.Viper) (*types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = DefaultModel(cfg.AI.Provider)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load runs Setup, Read, and Decode on a fresh viper instance.
func Load(file string) (*types.Config, error) {
	v := viper.New()
	Setup(v, file)
	if _, err := Read(v); err != nil {
		return nil, err
	}
	return Decode(v)
}

// DefaultModel returns the model used when ai.model is unset.
func DefaultModel(p types.AIProvider) string {
	if p == types.ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultClaudeModel
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags on cfg and reports every failing field.
func Validate(cfg *types.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
