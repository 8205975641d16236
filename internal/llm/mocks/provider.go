// Package mocks provides a testify mock of the llm.Provider interface.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"searchhub/backend/internal/llm"
)

type MockProvider struct {
	mock.Mock
}

type mockConstructorTestingT interface {
	mock.TestingT
	Cleanup(func())
}

func NewMockProvider(t mockConstructorTestingT) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.Completion, error) {
	args := m.Called(ctx, req)
	var resp *llm.Completion
	if args.Get(0) != nil {
		resp = args.Get(0).(*llm.Completion)
	}
	return resp, args.Error(1)
}

func (m *MockProvider) StreamCompletion(ctx context.Context, req *llm.CompletionRequest, ch chan<- llm.StreamDelta) error {
	args := m.Called(ctx, req, ch)
	return args.Error(0)
}
