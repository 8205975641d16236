// Package mocks provides testify mocks for the service interfaces, used by
// the API layer tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"searchhub/backend/internal/answers/units"
	"searchhub/backend/internal/currency"
	"searchhub/backend/internal/model"
	"searchhub/backend/internal/service"
)

type mockConstructorTestingT interface {
	mock.TestingT
	Cleanup(func())
}

type MockChatService struct {
	mock.Mock
}

func NewMockChatService(t mockConstructorTestingT) *MockChatService {
	m := &MockChatService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockChatService) UpdateChatTitle(ctx context.Context, chatID, newTitle string) error {
	return m.Called(ctx, chatID, newTitle).Error(0)
}

func (m *MockChatService) DeleteChat(ctx context.Context, chatID string) error {
	return m.Called(ctx, chatID).Error(0)
}

func (m *MockChatService) ListChats(ctx context.Context) ([]*model.Chat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Chat), args.Error(1)
}

func (m *MockChatService) GetFullChat(ctx context.Context, chatID string) (*model.FullChat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FullChat), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, req *service.CreateMessageRequest, streamChan chan<- model.StreamChunk) {
	m.Called(ctx, req, streamChan)
}

func (m *MockChatService) Regenerate(ctx context.Context, chatID, messageID string, streamChan chan<- model.StreamChunk) {
	m.Called(ctx, chatID, messageID, streamChan)
}

func (m *MockChatService) Continue(ctx context.Context, chatID, messageID string, streamChan chan<- model.StreamChunk) {
	m.Called(ctx, chatID, messageID, streamChan)
}

func (m *MockChatService) Stop(chatID string) bool {
	return m.Called(chatID).Bool(0)
}

type MockAnswerService struct {
	mock.Mock
}

func NewMockAnswerService(t mockConstructorTestingT) *MockAnswerService {
	m := &MockAnswerService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockAnswerService) Answer(ctx context.Context, query string) *model.Answer {
	return m.Called(ctx, query).Get(0).(*model.Answer)
}

func (m *MockAnswerService) Calculate(expression string) (float64, error) {
	args := m.Called(expression)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockAnswerService) ConvertUnits(value float64, from, to string, category string) (units.Result, error) {
	args := m.Called(value, from, to, category)
	return args.Get(0).(units.Result), args.Error(1)
}

func (m *MockAnswerService) ConvertCurrency(ctx context.Context, amount float64, from, to string) (float64, error) {
	args := m.Called(ctx, amount, from, to)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockAnswerService) Currencies(ctx context.Context) map[string]currency.Currency {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]currency.Currency)
}

type MockSettingsService struct {
	mock.Mock
}

func NewMockSettingsService(t mockConstructorTestingT) *MockSettingsService {
	m := &MockSettingsService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSettingsService) Get(ctx context.Context) (*service.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Settings), args.Error(1)
}

func (m *MockSettingsService) Save(ctx context.Context, settings *service.Settings) error {
	return m.Called(ctx, settings).Error(0)
}
