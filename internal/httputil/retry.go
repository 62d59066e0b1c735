// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the HTTP retry loop used by model backends.
package httputil

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// throttled responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// StatusOverloaded is the non-standard status model APIs use when they shed
// load.
const StatusOverloaded = 529

// Retryable reports whether a response status means "try again later".
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, StatusOverloaded:
		return true
	}
	return false
}

// Retrier executes requests and retries throttled responses with
// exponential backoff starting at RetryBaseDelay.
type Retrier struct {
	Client *http.Client

	// MaxRetries of 0 selects the default (5).
	MaxRetries int

	Logger *zap.Logger
}

// Do sends req. On a Retryable status the body is drained and closed and the
// request is sent again, with its body rewound through GetBody, after 1, 2, 4, ... times RetryBaseDelay. After
// exhausting retries the last response is returned so the caller can inspect
// it. If ctx is cancelled during a wait Do returns ctx.Err().
func (r Retrier) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := r.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		out := req.Clone(ctx)
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			out.Body = body
		}
		resp, err := client.Do(out)
		if err != nil {
			return nil, err
		}

		if !Retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		log.Info("throttled, retrying",
			zap.String("host", req.URL.Host),
			zap.Int("status", resp.StatusCode),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// DoWithRetry is Retrier{Client: client, MaxRetries: maxRetries}.Do.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	return Retrier{Client: client, MaxRetries: maxRetries}.Do(ctx, req)
}
