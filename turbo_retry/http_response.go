package turbo_retry

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
)

// maxBodySize caps how much of an error body is read into memory
const maxBodySize = 10 * 1024 * 1024 // 10 MB

// HTTPResponse adapts an *http.Response to Response
type HTTPResponse struct {
	raw *http.Response
}

var _ Response = (*HTTPResponse)(nil)

// NewHTTPResponse wraps resp
func NewHTTPResponse(resp *http.Response) *HTTPResponse {
	return &HTTPResponse{raw: resp}
}

// HTTPCall turns a request factory and client into a Call. newRequest runs once per attempt.
func HTTPCall(client *http.Client, newRequest func(ctx context.Context) (*http.Request, error)) Call {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) (Response, error) {
		req, err := newRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		return NewHTTPResponse(resp), nil
	}
}

// Raw returns the wrapped response
func (r *HTTPResponse) Raw() *http.Response {
	return r.raw
}

func (r *HTTPResponse) StatusCode() int {
	return r.raw.StatusCode
}

func (r *HTTPResponse) Headers() rate_limit.HeaderGetter {
	if r.raw.Header == nil {
		return nil
	}
	return r.raw.Header
}

// Text reads and closes the body
func (r *HTTPResponse) Text(ctx context.Context) (string, error) {
	if r.raw.Body == nil {
		return "", nil
	}
	defer r.raw.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.raw.Body, maxBodySize))
	if err != nil {
		return string(body), fmt.Errorf("read response body: %w", err)
	}
	return string(body), nil
}

// Close drains and closes the body so the connection can be reused
func (r *HTTPResponse) Close() error {
	if r.raw.Body == nil {
		return nil
	}
	io.Copy(io.Discard, io.LimitReader(r.raw.Body, maxBodySize))
	return r.raw.Body.Close()
}
