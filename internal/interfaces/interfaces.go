package interfaces

import (
	"context"

	"searchhub/backend/internal/answers/units"
	"searchhub/backend/internal/currency"
	"searchhub/backend/internal/model"
	"searchhub/backend/internal/service"
)

// This file defines the interfaces for our core services.
// Depending on these interfaces, instead of concrete implementations, allows
// for decoupling (e.g., API layer from Service layer) and easier testing via
// mocking.

// ChatService defines the contract for chat-related business logic.
type ChatService interface {
	UpdateChatTitle(ctx context.Context, chatID, newTitle string) error
	DeleteChat(ctx context.Context, chatID string) error
	ListChats(ctx context.Context) ([]*model.Chat, error)
	GetFullChat(ctx context.Context, chatID string) (*model.FullChat, error)
	SendMessage(ctx context.Context, req *service.CreateMessageRequest, streamChan chan<- model.StreamChunk)
	Regenerate(ctx context.Context, chatID, messageID string, streamChan chan<- model.StreamChunk)
	Continue(ctx context.Context, chatID, messageID string, streamChan chan<- model.StreamChunk)
	Stop(chatID string) bool
}

// AnswerService defines the contract for the instant-answer engines behind
// the search surface.
type AnswerService interface {
	Answer(ctx context.Context, query string) *model.Answer
	Calculate(expression string) (float64, error)
	ConvertUnits(value float64, from, to string, category string) (units.Result, error)
	ConvertCurrency(ctx context.Context, amount float64, from, to string) (float64, error)
	Currencies(ctx context.Context) map[string]currency.Currency
}

// SettingsService defines the contract for managing application settings.
type SettingsService interface {
	Get(ctx context.Context) (*service.Settings, error)
	Save(ctx context.Context, settings *service.Settings) error
}
