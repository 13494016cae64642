package turbo_retry

import (
	"github.com/FrenchMajesty/turbo-retry/rate_limit"
	"go.uber.org/zap/zapcore"
)

// snapshotMarshaler logs only the fields that were present on the response
type snapshotMarshaler rate_limit.Snapshot

func (s snapshotMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	add := func(key, value string) {
		if value != "" {
			enc.AddString(key, value)
		}
	}
	add("requests_limit", s.RequestsLimit)
	add("requests_remaining", s.RequestsRemaining)
	add("requests_reset", s.RequestsReset)
	add("tokens_limit", s.TokensLimit)
	add("tokens_remaining", s.TokensRemaining)
	add("tokens_reset", s.TokensReset)
	add("retry_after", s.RetryAfter)
	return nil
}
