package turbo_retry

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
	"github.com/stretchr/testify/assert"
)

func TestAPIError(t *testing.T) {
	limited := &APIError{StatusCode: http.StatusTooManyRequests, Body: "slow", Attempts: 4, MaxRetries: 3}
	assert.EqualError(t, limited, "API rate limited after 3 retries: 429 slow")
	assert.ErrorIs(t, limited, ErrRateLimitExhausted)
	assert.ErrorIs(t, limited, ErrRetryExhausted)
	assert.NotErrorIs(t, limited, ErrUpstream)

	upstream := &APIError{StatusCode: http.StatusBadRequest, Body: "bad"}
	assert.EqualError(t, upstream, "API error: 400 bad")
	assert.ErrorIs(t, upstream, ErrUpstream)
	assert.NotErrorIs(t, upstream, ErrRetryExhausted)

	wrapped := fmt.Errorf("create message: %w", upstream)
	var apiErr *APIError
	assert.ErrorAs(t, wrapped, &apiErr)
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection reset")

	err := &TransportError{Attempt: 2, Err: cause}
	assert.EqualError(t, err, "transport failure on attempt 2: connection reset")
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRetryExhausted)

	err.Exhausted = true
	assert.ErrorIs(t, err, ErrRetryExhausted)
	assert.Contains(t, err.Error(), "retries exhausted")
}

func TestIsRateLimited(t *testing.T) {
	assert.False(t, IsRateLimited(nil))
	assert.False(t, IsRateLimited(errors.New("HTTP 429 from proxy")))
	assert.True(t, IsRateLimited(ErrRateLimited))
	assert.True(t, IsRateLimited(fmt.Errorf("stream: %w", ErrRateLimited)))
	assert.True(t, IsRateLimited(fmt.Errorf("wrapped: %w", rateLimitedErr{limited: true})))
	assert.False(t, IsRateLimited(rateLimitedErr{limited: false}))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		resp      Response
		err       error
		kind      OutcomeKind
		retryable bool
	}{
		{name: "ok", resp: respond(200, ""), kind: OutcomeSuccess},
		{name: "created", resp: respond(201, ""), kind: OutcomeSuccess},
		{name: "429", resp: respond(429, ""), kind: OutcomeRateLimited},
		{name: "redirect", resp: respond(302, ""), kind: OutcomeUpstreamError},
		{name: "overloaded", resp: respond(529, ""), kind: OutcomeUpstreamError},
		{name: "transport", err: errors.New("eof"), kind: OutcomeTransportFailure},
		{name: "rate limited transport", err: ErrRateLimited, kind: OutcomeTransportFailure, retryable: true},
		{name: "nothing", kind: OutcomeTransportFailure},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.resp, tc.err)
			assert.Equal(t, tc.kind, got.Kind)
			assert.Equal(t, tc.retryable, got.Retryable)
		})
	}
}

type brokenHeaders struct{ fakeResponse }

func (b *brokenHeaders) Headers() rate_limit.HeaderGetter { panic("headers gone") }

func TestClassify_BrokenHeaders(t *testing.T) {
	resp := &brokenHeaders{fakeResponse{status: 429}}

	var got AttemptOutcome
	assert.NotPanics(t, func() { got = classify(resp, nil) })
	assert.Equal(t, OutcomeRateLimited, got.Kind)
	assert.True(t, got.Snapshot.IsEmpty())
	assert.Equal(t, "", got.RetryAfter())
}

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "rate_limited", OutcomeRateLimited.String())
	assert.Equal(t, "unknown", OutcomeKind(42).String())
}
