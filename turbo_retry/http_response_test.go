package turbo_retry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPCall_RetriesAgainstServer(t *testing.T) {
	var hits atomic.Int32
	var bodies []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))

		if hits.Add(1) <= 2 {
			w.Header().Set(rate_limit.HeaderRetryAfter, "0")
			w.Header().Set(rate_limit.HeaderTokensRemaining, "0")
			w.WriteHeader(http.StatusTooManyRequests)
			io.WriteString(w, `{"type":"error","error":{"type":"rate_limit_error"}}`)
			return
		}
		io.WriteString(w, `{"id":"msg_1"}`)
	}))
	defer server.Close()

	tr, err := New(Options{Logger: logger.NewNoopLogger()})
	require.NoError(t, err)

	call := HTTPCall(server.Client(), func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, server.URL, strings.NewReader(`{"prompt":"hi"}`))
	})

	start := time.Now()
	resp, err := tr.Execute(context.Background(), call, "messages.create")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "a zero Retry-After hint means no wait")

	text, err := resp.Text(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"id":"msg_1"}`, text)

	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, []string{`{"prompt":"hi"}`, `{"prompt":"hi"}`, `{"prompt":"hi"}`}, bodies, "every attempt sends a fresh body")

	httpResp, ok := resp.(*HTTPResponse)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, httpResp.Raw().StatusCode)
}

func TestHTTPCall_UpstreamErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, "invalid x-api-key")
	}))
	defer server.Close()

	tr, err := New(Options{Logger: logger.NewNoopLogger()})
	require.NoError(t, err)

	call := HTTPCall(nil, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	})

	_, err = tr.Execute(context.Background(), call, "")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.EqualError(t, err, "API error: 401 invalid x-api-key")
}

func TestHTTPCall_RequestBuildFailure(t *testing.T) {
	call := HTTPCall(nil, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, "BAD METHOD", "http://example.invalid", nil)
	})

	resp, err := call(context.Background())
	assert.Nil(t, resp)
	assert.ErrorContains(t, err, "build request")
}

func TestHTTPResponse_NilBody(t *testing.T) {
	resp := NewHTTPResponse(&http.Response{StatusCode: http.StatusNoContent})

	text, err := resp.Text(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, text)
	assert.NoError(t, resp.Close())
	assert.Nil(t, resp.Headers())
}
