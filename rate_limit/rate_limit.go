package rate_limit

// Rate limit headers sent by the Anthropic API
const (
	HeaderRequestsLimit     = "anthropic-ratelimit-requests-limit"
	HeaderTokensLimit       = "anthropic-ratelimit-tokens-limit"
	HeaderRequestsRemaining = "anthropic-ratelimit-requests-remaining"
	HeaderTokensRemaining   = "anthropic-ratelimit-tokens-remaining"
	HeaderRequestsReset     = "anthropic-ratelimit-requests-reset"
	HeaderTokensReset       = "anthropic-ratelimit-tokens-reset"
	HeaderRetryAfter        = "retry-after"
	// HeaderResetTokens is the vendor hint used when retry-after is absent
	HeaderResetTokens = "anthropic-ratelimit-reset-tokens"
)

// Snapshot is the rate limit metadata carried by one response.
// Every field is optional: an empty string means the header was absent.
// Values are kept verbatim since their format is server-defined.
type Snapshot struct {
	RequestsLimit     string `json:"requests_limit,omitempty"`
	TokensLimit       string `json:"tokens_limit,omitempty"`
	RequestsRemaining string `json:"requests_remaining,omitempty"`
	TokensRemaining   string `json:"tokens_remaining,omitempty"`
	RequestsReset     string `json:"requests_reset,omitempty"`
	TokensReset       string `json:"tokens_reset,omitempty"`
	RetryAfter        string `json:"retry_after,omitempty"`
}

// IsEmpty reports whether no rate limit header was present
func (s Snapshot) IsEmpty() bool {
	return s == Snapshot{}
}
