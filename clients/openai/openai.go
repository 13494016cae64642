// Package openai routes openai-go SDK requests through a TurboRetry.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/FrenchMajesty/turbo-retry/turbo_retry"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Middleware retries every SDK request on 429. The body is buffered once and replayed
// on each attempt.
func Middleware(tr *turbo_retry.TurboRetry) option.Middleware {
	return func(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		var body []byte
		if req.Body != nil {
			var err error
			body, err = io.ReadAll(req.Body)
			req.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to buffer request body: %w", err)
			}
		}

		call := func(ctx context.Context) (turbo_retry.Response, error) {
			attempt := req.Clone(ctx)
			if body != nil {
				attempt.Body = io.NopCloser(bytes.NewReader(body))
				attempt.ContentLength = int64(len(body))
				attempt.GetBody = func() (io.ReadCloser, error) {
					return io.NopCloser(bytes.NewReader(body)), nil
				}
			}

			resp, err := next(attempt)
			if err != nil {
				return nil, err
			}
			return turbo_retry.NewHTTPResponse(resp), nil
		}

		resp, err := tr.Execute(req.Context(), call, req.Method+" "+req.URL.Path)
		if err != nil {
			return nil, err
		}
		return resp.(*turbo_retry.HTTPResponse).Raw(), nil
	}
}

// NewClient returns an SDK client whose own retries are disabled in favor of tr
func NewClient(tr *turbo_retry.TurboRetry, opts ...option.RequestOption) openai.Client {
	opts = append(opts,
		option.WithMaxRetries(0),
		option.WithMiddleware(Middleware(tr)),
	)
	return openai.NewClient(opts...)
}
