package rate_limit

import "strings"

// HeaderGetter looks up a header by name, case-insensitively, returning "" when absent.
// http.Header satisfies it.
type HeaderGetter interface {
	Get(name string) string
}

// Parse extracts a Snapshot from response headers. It never fails: missing headers,
// and a nil getter, leave the corresponding fields empty.
func Parse(headers HeaderGetter) (snapshot Snapshot) {
	if headers == nil {
		return Snapshot{}
	}

	// A typed nil getter with a pointer receiver may panic on access
	defer func() {
		if r := recover(); r != nil {
			snapshot = Snapshot{}
		}
	}()

	get := func(name string) string {
		return strings.TrimSpace(headers.Get(name))
	}

	snapshot = Snapshot{
		RequestsLimit:     get(HeaderRequestsLimit),
		TokensLimit:       get(HeaderTokensLimit),
		RequestsRemaining: get(HeaderRequestsRemaining),
		TokensRemaining:   get(HeaderTokensRemaining),
		RequestsReset:     get(HeaderRequestsReset),
		TokensReset:       get(HeaderTokensReset),
		RetryAfter:        get(HeaderRetryAfter),
	}
	if snapshot.RetryAfter == "" {
		snapshot.RetryAfter = get(HeaderResetTokens)
	}

	return snapshot
}
