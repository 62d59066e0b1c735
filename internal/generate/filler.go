// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/artifact-engine/internal/parse"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

// ErrMissingFields is returned when no reply contained every required field.
var ErrMissingFields = errors.New("model reply is missing required fields")

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

const defaultMaxRetries = 3

// Filler fills a Node from a prompt context. Its Generate and Merge methods
// match the pipeline callback signature.
type Filler struct {
	Backend Backend
	Node    *Node

	// MaxRetries bounds additional attempts after a failed call or a reply
	// missing required fields. Negative means no retries; zero selects the
	// default (3).
	MaxRetries int

	// StripStrings enables parse.ParseStr on string fields.
	StripStrings bool

	// Schema selects the prompt format and reply parser; empty means
	// markdown.
	Schema types.PromptSchema

	Logger *zap.Logger
}

// Generate fills the node from an upstream document.
func (f *Filler) Generate(ctx context.Context, input string) (types.GenResult, error) {
	return f.Fill(ctx, input)
}

// Merge fills the node from a legacy/new merge context. The prompt is the
// same as Generate's; the context carries both versions.
func (f *Filler) Merge(ctx context.Context, input string) (types.GenResult, error) {
	return f.Fill(ctx, input)
}

// Fill compiles the prompt, calls the backend with exponential backoff, and
// parses the reply. Content is the parsed fields as a JSON object in schema
// order.
func (f *Filler) Fill(ctx context.Context, input string) (types.GenResult, error) {
	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("node", f.Node.Key))

	prompt, err := f.Node.CompileAs(input, f.Schema)
	if err != nil {
		return types.GenResult{}, err
	}
	schema := f.Node.Schema()
	mapper := parse.Mapper{Mode: parse.Lenient, StripStrings: f.StripStrings, Logger: log}

	maxRetries := f.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			log.Debug("retrying fill", zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return types.GenResult{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		reply, err := f.Backend.Complete(ctx, prompt)
		if err != nil {
			lastErr = err
			continue
		}

		var fields map[string]any
		if f.Schema == types.SchemaJSON {
			fields, err = mapper.ParseJSONWithSchema(reply, schema)
		} else {
			fields, err = mapper.ParseWithSchema(reply, schema)
		}
		if err != nil {
			lastErr = err
			continue
		}
		if missing := missingFields(fields, f.Node.Required()); len(missing) > 0 {
			lastErr = fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
			log.Warn("incomplete reply", zap.Strings("missing", missing))
			continue
		}

		content, err := encodeFields(schema, fields)
		if err != nil {
			return types.GenResult{}, fmt.Errorf("encoding %s result: %w", f.Node.Key, err)
		}
		return types.GenResult{Content: content, Structured: fields}, nil
	}
	return types.GenResult{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func missingFields(fields map[string]any, required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
