package turbo_retry

import (
	"context"
	"io"
	"net/http"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
)

// Response is what a transport call hands back to the orchestrator.
type Response interface {
	// StatusCode returns the HTTP status code
	StatusCode() int
	// Headers returns the header lookup. It may be nil.
	Headers() rate_limit.HeaderGetter
	// Text reads the whole body
	Text(ctx context.Context) (string, error)
}

// Call issues one attempt against the remote API.
// It is invoked once per attempt and must build a fresh request each time.
type Call func(ctx context.Context) (Response, error)

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// discard releases a response the orchestrator will not hand back
func discard(resp Response) {
	if c, ok := resp.(io.Closer); ok {
		c.Close()
	}
}

func isRateLimitStatus(status int) bool {
	return status == http.StatusTooManyRequests
}
