// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	RetryBaseDelay = time.Millisecond
}

// scripted answers with statuses in order, repeating the last one, and
// records every request body it saw.
type scripted struct {
	mu       sync.Mutex
	statuses []int
	bodies   []string
}

func (s *scripted) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	n := len(s.bodies)
	s.bodies = append(s.bodies, string(body))
	s.mu.Unlock()

	status := s.statuses[len(s.statuses)-1]
	if n < len(s.statuses) {
		status = s.statuses[n]
	}
	w.WriteHeader(status)
}

func (s *scripted) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func TestRetrier_Do(t *testing.T) {
	tests := []struct {
		name       string
		statuses   []int
		maxRetries int
		wantStatus int
		wantCalls  int
	}{
		{"first try", []int{200}, 5, 200, 1},
		{"throttled twice", []int{429, 429, 200}, 5, 200, 3},
		{"overloaded then unavailable", []int{529, 503, 200}, 3, 200, 3},
		{"exhausted", []int{429}, 3, 429, 4},
		{"default retries", []int{529}, 0, 529, 6},
		{"server error is final", []int{500, 200}, 5, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &scripted{statuses: tt.statuses}
			ts := httptest.NewServer(srv)
			defer ts.Close()

			req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
			require.NoError(t, err)

			resp, err := Retrier{Client: ts.Client(), MaxRetries: tt.maxRetries}.Do(context.Background(), req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantCalls, srv.calls())
		})
	}
}

func TestRetrier_ReplaysBody(t *testing.T) {
	srv := &scripted{statuses: []int{429, 529, 200}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL, strings.NewReader(`{"prompt":"tasks"}`))
	require.NoError(t, err)

	resp, err := DoWithRetry(context.Background(), ts.Client(), req, 3)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{`{"prompt":"tasks"}`, `{"prompt":"tasks"}`, `{"prompt":"tasks"}`}, srv.bodies)
}

func TestRetrier_LogsEachRetry(t *testing.T) {
	srv := &scripted{statuses: []int{529, 503, 200}}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	core, logs := observer.New(zapcore.InfoLevel)
	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	resp, err := Retrier{Client: ts.Client(), Logger: zap.New(core)}.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	entries := logs.FilterMessage("throttled, retrying").All()
	require.Len(t, entries, 2)
	assert.EqualValues(t, StatusOverloaded, entries[0].ContextMap()["status"])
	assert.EqualValues(t, http.StatusServiceUnavailable, entries[1].ContextMap()["status"])
}

func TestRetrier_CancelledWhileWaiting(t *testing.T) {
	ts := httptest.NewServer(&scripted{statuses: []int{429}})
	defer ts.Close()

	old := RetryBaseDelay
	RetryBaseDelay = 500 * time.Millisecond
	defer func() { RetryBaseDelay = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)

	_, err = Retrier{Client: ts.Client()}.Do(ctx, req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRetryable(t *testing.T) {
	for _, s := range []int{429, 503, 529} {
		assert.True(t, Retryable(s), s)
	}
	for _, s := range []int{200, 400, 500, 502} {
		assert.False(t, Retryable(s), s)
	}
}
