package turbo_retry

import (
	"context"

	"github.com/FrenchMajesty/turbo-retry/rate_limit"
	"github.com/stretchr/testify/mock"
)

type MockResponse struct {
	mock.Mock
}

// Ensure MockResponse implements Response
var _ Response = (*MockResponse)(nil)

func NewMockResponse() *MockResponse {
	return &MockResponse{}
}

func (m *MockResponse) StatusCode() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockResponse) Headers() rate_limit.HeaderGetter {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(rate_limit.HeaderGetter)
}

func (m *MockResponse) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
