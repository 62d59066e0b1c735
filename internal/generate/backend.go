// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns an upstream document into structured derived
// content by prompting a model with a node of typed fields and parsing the
// reply back into those fields.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"github.com/pdiddy/artifact-engine/internal/httputil"
	"github.com/pdiddy/artifact-engine/pkg/types"
)

// Backend abstracts the model API so tests can supply a mock.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ErrEmptyResponse is returned when a model reply carries no text.
var ErrEmptyResponse = errors.New("model returned no text")

// NewBackend builds the backend cfg selects.
func NewBackend(ctx context.Context, cfg types.AIConfig, log *zap.Logger) (Backend, error) {
	switch cfg.Provider {
	case types.ProviderGemini:
		g, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return g, nil
	case types.ProviderClaude, "":
		if cfg.APIKey == "" {
			return nil, errors.New("no Claude API key: set ai.api_key, ARTIFACT_ENGINE_AI_API_KEY, or .secrets/anthropic-api-key")
		}
		return &ClaudeBackend{
			APIKey: cfg.APIKey,
			Model:  cfg.Model,
			Client: &http.Client{Timeout: cfg.Timeout},
			Logger: log,
		}, nil
	}
	return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
}

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

const claudeMaxTokens = 8192

// ClaudeBackend calls the Claude Messages API.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client
	Logger *zap.Logger
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Complete sends prompt as a single user message and returns the text of
// the reply. Throttled responses are retried by httputil.Retrier.
func (c *ClaudeBackend) Complete(ctx context.Context, prompt string) (string, error) {
	bodyBytes, err := json.Marshal(claudeRequest{
		Model:     c.Model,
		MaxTokens: claudeMaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := httputil.Retrier{Client: c.Client, Logger: c.Logger}.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	var buf bytes.Buffer
	for _, block := range cResp.Content {
		if block.Type == "text" {
			buf.WriteString(block.Text)
		}
	}
	if buf.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return buf.String(), nil
}

// GeminiBackend calls the Gemini API through the genai client.
type GeminiBackend struct {
	cli   *genai.Client
	model string
}

// NewGeminiBackend creates a client for model. An empty apiKey lets the
// genai client read GEMINI_API_KEY or GOOGLE_API_KEY from the environment.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return &GeminiBackend{cli: cli, model: model}, nil
}

// Complete returns the concatenated text parts of the first candidate.
func (g *GeminiBackend) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{ResponseMIMEType: "text/plain"},
	)
	if err != nil {
		return "", fmt.Errorf("calling Gemini API: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var buf bytes.Buffer
	for _, p := range resp.Candidates[0].Content.Parts {
		buf.WriteString(p.Text)
	}
	if buf.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return buf.String(), nil
}
