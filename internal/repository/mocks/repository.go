// Package mocks provides a testify mock of the repository.Repository interface.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"searchhub/backend/internal/model"
)

type MockRepository struct {
	mock.Mock
}

type mockConstructorTestingT interface {
	mock.TestingT
	Cleanup(func())
}

func NewMockRepository(t mockConstructorTestingT) *MockRepository {
	m := &MockRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository) CreateChat(ctx context.Context, chat *model.Chat) error {
	return m.Called(ctx, chat).Error(0)
}

func (m *MockRepository) GetChat(ctx context.Context, chatID string) (*model.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat *model.Chat
	if args.Get(0) != nil {
		chat = args.Get(0).(*model.Chat)
	}
	return chat, args.Error(1)
}

func (m *MockRepository) GetChats(ctx context.Context, userID string) ([]*model.Chat, error) {
	args := m.Called(ctx, userID)
	var chats []*model.Chat
	if args.Get(0) != nil {
		chats = args.Get(0).([]*model.Chat)
	}
	return chats, args.Error(1)
}

func (m *MockRepository) UpdateChatTitle(ctx context.Context, chatID, newTitle string) error {
	return m.Called(ctx, chatID, newTitle).Error(0)
}

func (m *MockRepository) DeleteChat(ctx context.Context, chatID string) error {
	return m.Called(ctx, chatID).Error(0)
}

func (m *MockRepository) AddMessage(ctx context.Context, message *model.Message, chatID string) error {
	return m.Called(ctx, message, chatID).Error(0)
}

func (m *MockRepository) GetActiveMessagesByChatID(ctx context.Context, chatID string) ([]model.Message, error) {
	args := m.Called(ctx, chatID)
	var messages []model.Message
	if args.Get(0) != nil {
		messages = args.Get(0).([]model.Message)
	}
	return messages, args.Error(1)
}

func (m *MockRepository) DeactivateMessage(ctx context.Context, messageID string) error {
	return m.Called(ctx, messageID).Error(0)
}

func (m *MockRepository) AppendMessageContent(ctx context.Context, messageID, extra string) error {
	return m.Called(ctx, messageID, extra).Error(0)
}
