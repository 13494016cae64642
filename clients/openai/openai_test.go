package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FrenchMajesty/turbo-retry/turbo_retry"
	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completionBody = `{"id":"chatcmpl-1","object":"chat.completion","created":1700000000,"model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":"pong"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":5,"completion_tokens":1,"total_tokens":6}}`

func newRetry(t *testing.T) *turbo_retry.TurboRetry {
	t.Helper()
	tr, err := turbo_retry.New(turbo_retry.Options{
		Logger: logger.NewNoopLogger(),
		Sleep:  func(ctx context.Context, _ time.Duration) error { return ctx.Err() },
	})
	require.NoError(t, err)
	return tr
}

func TestMiddleware_ReplaysBody(t *testing.T) {
	var bodies []string
	statuses := []int{http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusOK}

	next := func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(body))

		status := statuses[len(bodies)-1]
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("ok")),
		}, nil
	}

	req, err := http.NewRequest(http.MethodPost, "http://localhost/v1/chat/completions", strings.NewReader(`{"model":"x"}`))
	require.NoError(t, err)

	resp, err := Middleware(newRetry(t))(req, next)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{`{"model":"x"}`, `{"model":"x"}`, `{"model":"x"}`}, bodies)
}

func TestMiddleware_PropagatesUpstreamError(t *testing.T) {
	next := func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader("bad key")),
		}, nil
	}

	req, err := http.NewRequest(http.MethodGet, "http://localhost/v1/models", nil)
	require.NoError(t, err)

	_, err = Middleware(newRetry(t))(req, next)
	assert.ErrorIs(t, err, turbo_retry.ErrUpstream)
}

func TestNewClient_ChatCompletion(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("retry-after", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("content-type", "application/json")
		io.WriteString(w, completionBody)
	}))
	defer server.Close()

	client := NewClient(newRetry(t), option.WithBaseURL(server.URL), option.WithAPIKey("sk-test"))

	completion, err := client.Chat.Completions.New(context.Background(), openai.ChatCompletionNewParams{
		Model:    openai.ChatModelGPT4oMini,
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage("ping")},
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), hits.Load(), "the SDK's own retries are disabled")
	require.Len(t, completion.Choices, 1)
	assert.Equal(t, "pong", completion.Choices[0].Message.Content)
}
