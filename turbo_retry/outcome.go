package turbo_retry

import (
	"github.com/FrenchMajesty/turbo-retry/rate_limit"
)

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRateLimited
	OutcomeUpstreamError
	OutcomeTransportFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeUpstreamError:
		return "upstream_error"
	case OutcomeTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// AttemptOutcome is the classification of a single attempt
type AttemptOutcome struct {
	Kind       OutcomeKind
	Response   Response
	StatusCode int

	// Snapshot is only parsed for rate limited responses
	Snapshot rate_limit.Snapshot

	// Err and Retryable are only set for transport failures
	Err       error
	Retryable bool
}

// RetryAfter returns the server hint carried by the snapshot, if any
func (o AttemptOutcome) RetryAfter() string {
	return o.Snapshot.RetryAfter
}

// classify decides what one call result means for the retry loop
func classify(resp Response, err error) AttemptOutcome {
	if err != nil {
		return AttemptOutcome{
			Kind:      OutcomeTransportFailure,
			Err:       err,
			Retryable: IsRateLimited(err),
		}
	}
	if resp == nil {
		return AttemptOutcome{Kind: OutcomeTransportFailure, Err: errNilResponse}
	}

	status := resp.StatusCode()
	switch {
	case isRateLimitStatus(status):
		return AttemptOutcome{
			Kind:       OutcomeRateLimited,
			Response:   resp,
			StatusCode: status,
			Snapshot:   rate_limit.Parse(headersOf(resp)),
		}
	case !isSuccess(status):
		return AttemptOutcome{Kind: OutcomeUpstreamError, Response: resp, StatusCode: status}
	default:
		return AttemptOutcome{Kind: OutcomeSuccess, Response: resp, StatusCode: status}
	}
}

// headersOf tolerates responses whose header access is itself broken
func headersOf(resp Response) (headers rate_limit.HeaderGetter) {
	defer func() {
		if r := recover(); r != nil {
			headers = nil
		}
	}()
	return resp.Headers()
}
