package repository

import (
	"context"

	"searchhub/backend/internal/model"
)

// Repository defines the interface for chat persistence. The service layer
// only depends on this interface, so the storage backend can be swapped.
type Repository interface {
	CreateChat(ctx context.Context, chat *model.Chat) error
	GetChat(ctx context.Context, chatID string) (*model.Chat, error)
	GetChats(ctx context.Context, userID string) ([]*model.Chat, error)
	UpdateChatTitle(ctx context.Context, chatID, newTitle string) error
	DeleteChat(ctx context.Context, chatID string) error

	AddMessage(ctx context.Context, message *model.Message, chatID string) error
	GetActiveMessagesByChatID(ctx context.Context, chatID string) ([]model.Message, error)

	// DeactivateMessage hides a message from the active history; regenerating
	// an assistant message deactivates the old one instead of deleting it.
	DeactivateMessage(ctx context.Context, messageID string) error

	// AppendMessageContent concatenates extra content onto an existing
	// message, used by the "continue" operation.
	AppendMessageContent(ctx context.Context, messageID, extra string) error
}
