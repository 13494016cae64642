package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/FrenchMajesty/turbo-retry/turbo_retry"
	"github.com/FrenchMajesty/turbo-retry/utils/logger"
	"github.com/FrenchMajesty/turbo-retry/utils/token_counter"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	APIVersion     = "2023-06-01"

	messagesPath        = "/v1/messages"
	messagesDescription = "messages.create"
)

type AnthropicClientInterface interface {
	MessagesCall(req MessagesRequest) turbo_retry.Call
	CreateMessage(ctx context.Context, req MessagesRequest) (*MessagesResponse, error)
}

var _ AnthropicClientInterface = (*Client)(nil)

// Client talks to the Messages API. Every call goes through a TurboRetry.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	retry        *turbo_retry.TurboRetry
	tokenCounter token_counter.TokenCounterInterface
	logger       logger.Logger
}

type Option func(*Client)

func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTokenCounter logs the estimated input size of every request
func WithTokenCounter(counter token_counter.TokenCounterInterface) Option {
	return func(c *Client) {
		c.tokenCounter = counter
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client that sends requests through tr
func NewClient(apiKey string, tr *turbo_retry.TurboRetry, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		retry:      tr,
		logger:     logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MessagesCall returns a single-attempt call. The body is encoded once and a new
// request is built for every attempt.
func (c *Client) MessagesCall(req MessagesRequest) turbo_retry.Call {
	body, marshalErr := json.Marshal(req)

	return turbo_retry.HTTPCall(c.httpClient, func(ctx context.Context) (*http.Request, error) {
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", marshalErr)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("anthropic-version", APIVersion)
		httpReq.Header.Set("content-type", "application/json")
		return httpReq, nil
	})
}

// CreateMessage sends req and decodes the response
func (c *Client) CreateMessage(ctx context.Context, req MessagesRequest) (*MessagesResponse, error) {
	c.LogEstimate(req)

	resp, err := c.retry.Execute(ctx, c.MessagesCall(req), messagesDescription)
	if err != nil {
		return nil, err
	}
	return DecodeMessagesResponse(ctx, resp)
}

// DecodeMessagesResponse reads a successful Messages API response
func DecodeMessagesResponse(ctx context.Context, resp turbo_retry.Response) (*MessagesResponse, error) {
	text, err := resp.Text(ctx)
	if err != nil {
		return nil, err
	}

	var out MessagesResponse
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

// LogEstimate logs the estimated input size of req when a token counter is configured
func (c *Client) LogEstimate(req MessagesRequest) {
	if c.tokenCounter == nil {
		return
	}

	messages := make([]token_counter.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, token_counter.Message{Role: "system", Content: req.System})
	}
	for _, msg := range req.Messages {
		messages = append(messages, token_counter.Message{Role: string(msg.Role), Content: msg.Content})
	}

	c.logger.Printf("[%s] model=%s estimated_input_tokens=%d max_tokens=%d",
		messagesDescription, req.Model, c.tokenCounter.CountMessagesTokens(messages), req.MaxTokens)
}
