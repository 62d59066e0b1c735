// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
//
// Supported key files: anthropic-api-key, gemini-api-key, s3-access-key, s3-secret-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Key file names.
const (
	AnthropicAPIKey = "anthropic-api-key"
	GeminiAPIKey    = "gemini-api-key"
	S3AccessKey     = "s3-access-key"
	S3SecretKey     = "s3-secret-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged as warnings but do not abort.
func Load(dir string, log *zap.Logger) (map[string]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills credentials the configuration left empty. Values already set
// by the config file or environment win.
func Apply(cfg *types.Config, secrets map[string]string) {
	if cfg.AI.APIKey == "" {
		switch cfg.AI.Provider {
		case types.ProviderGemini:
			cfg.AI.APIKey = secrets[GeminiAPIKey]
		default:
			cfg.AI.APIKey = secrets[AnthropicAPIKey]
		}
	}
	if cfg.Export.S3.AccessKey == "" {
		cfg.Export.S3.AccessKey = secrets[S3AccessKey]
	}
	if cfg.Export.S3.SecretKey == "" {
		cfg.Export.S3.SecretKey = secrets[S3SecretKey]
	}
}
