package rate_limit

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type brokenHeaders struct{}

func (*brokenHeaders) Get(name string) string {
	panic("header access unavailable")
}

func TestParse_AllHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Anthropic-Ratelimit-Requests-Limit", "50")
	h.Set("anthropic-ratelimit-tokens-limit", "40000")
	h.Set("ANTHROPIC-RATELIMIT-REQUESTS-REMAINING", "0")
	h.Set("anthropic-ratelimit-tokens-remaining", "1200")
	h.Set("anthropic-ratelimit-requests-reset", "2025-03-01T12:00:30Z")
	h.Set("anthropic-ratelimit-tokens-reset", "2025-03-01T12:00:10Z")
	h.Set("Retry-After", "12")

	s := Parse(h)

	assert.Equal(t, Snapshot{
		RequestsLimit:     "50",
		TokensLimit:       "40000",
		RequestsRemaining: "0",
		TokensRemaining:   "1200",
		RequestsReset:     "2025-03-01T12:00:30Z",
		TokensReset:       "2025-03-01T12:00:10Z",
		RetryAfter:        "12",
	}, s)
	assert.False(t, s.IsEmpty())
}

func TestParse_NoRecognizedHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Content-Type", "application/json")

	s := Parse(h)
	assert.True(t, s.IsEmpty())

	// Parsing is idempotent
	assert.Equal(t, s, Parse(h))
}

func TestParse_RetryAfterFallsBackToVendorHint(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderResetTokens, "Sat, 01 Mar 2025 12:00:10 GMT")

	assert.Equal(t, "Sat, 01 Mar 2025 12:00:10 GMT", Parse(h).RetryAfter)

	h.Set(HeaderRetryAfter, "3")
	assert.Equal(t, "3", Parse(h).RetryAfter, "retry-after wins over the vendor hint")
}

func TestParse_EmptyValuesAreAbsent(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderRetryAfter, "  ")
	h.Set(HeaderResetTokens, "5")
	h.Set(HeaderTokensRemaining, "")

	s := Parse(h)
	assert.Equal(t, "5", s.RetryAfter)
	assert.Empty(t, s.TokensRemaining)
}

func TestParse_MissingHeaderCapability(t *testing.T) {
	assert.True(t, Parse(nil).IsEmpty())

	var nilHeader http.Header
	assert.True(t, Parse(nilHeader).IsEmpty())

	var broken *brokenHeaders
	assert.NotPanics(t, func() {
		assert.True(t, Parse(broken).IsEmpty())
	})
}
