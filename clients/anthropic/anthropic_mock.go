package anthropic

import (
	"context"

	"github.com/FrenchMajesty/turbo-retry/turbo_retry"
	"github.com/stretchr/testify/mock"
)

type MockAnthropicClient struct {
	mock.Mock
}

// Ensure MockAnthropicClient implements AnthropicClientInterface
var _ AnthropicClientInterface = (*MockAnthropicClient)(nil)

func NewMockAnthropicClient() *MockAnthropicClient {
	return &MockAnthropicClient{}
}

func (m *MockAnthropicClient) MessagesCall(req MessagesRequest) turbo_retry.Call {
	args := m.Called(req)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(turbo_retry.Call)
}

func (m *MockAnthropicClient) CreateMessage(ctx context.Context, req MessagesRequest) (*MessagesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessagesResponse), args.Error(1)
}
