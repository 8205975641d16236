package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	app_errors "searchhub/backend/internal/errors"
	"searchhub/backend/internal/llm"
	"searchhub/backend/internal/model"
	"searchhub/backend/internal/repository"
	"searchhub/backend/internal/thinking"
)

const defaultUserID = "default-user"

// titleFallbackLimit is how much of the first user message becomes the
// provisional chat title before the generated one arrives.
const titleFallbackLimit = 30

// continuePrompt is appended to the request payload by Continue. It is
// transient: never persisted and never part of the visible history.
const continuePrompt = "Please continue."

// ChatService owns the lifecycle of chat turns: submission, streaming
// consumption, thinking/response splitting, cancellation and persistence
// ordering. At most one turn may be in flight per chat.
type ChatService struct {
	repo           repository.Repository
	llm            llm.Provider
	settings       *SettingsService
	nonStreamModel string

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// CreateMessageRequest is the structure for a new message request from the
// client. Empty fields fall back to the stored settings.
type CreateMessageRequest struct {
	ChatID       string `json:"chat_id"`
	Content      string `json:"content"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	SupportModel string `json:"support_model"`
}

func NewChatService(repo repository.Repository, provider llm.Provider, settings *SettingsService, nonStreamModel string) *ChatService {
	return &ChatService{
		repo:           repo,
		llm:            provider,
		settings:       settings,
		nonStreamModel: nonStreamModel,
		inflight:       make(map[string]context.CancelFunc),
	}
}

// UpdateChatTitle handles the logic for manually updating a chat's title.
func (s *ChatService) UpdateChatTitle(ctx context.Context, chatID, newTitle string) error {
	if newTitle == "" {
		return fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}
	if err := s.repo.UpdateChatTitle(ctx, chatID, newTitle); err != nil {
		if err == repository.ErrNotFound {
			return app_errors.ErrNotFound
		}
		return err
	}
	return nil
}

// DeleteChat deletes a chat and all its messages.
func (s *ChatService) DeleteChat(ctx context.Context, chatID string) error {
	return s.repo.DeleteChat(ctx, chatID)
}

// ListChats retrieves all chats, most recently updated first.
func (s *ChatService) ListChats(ctx context.Context) ([]*model.Chat, error) {
	return s.repo.GetChats(ctx, defaultUserID)
}

// GetFullChat retrieves a chat's metadata and its active messages.
func (s *ChatService) GetFullChat(ctx context.Context, chatID string) (*model.FullChat, error) {
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, app_errors.ErrNotFound
		}
		return nil, fmt.Errorf("could not get chat: %w", err)
	}
	messages, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("could not get messages: %w", err)
	}
	return &model.FullChat{Chat: *chat, Messages: messages}, nil
}

// Stop cancels the in-flight turn for a chat, if any. Cancellation is
// cooperative: the streaming loop observes it at the next chunk boundary and
// ends without appending an assistant message. Not an error state.
func (s *ChatService) Stop(chatID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.inflight[chatID]
	if ok {
		cancel()
	}
	return ok
}

// SendMessage runs one full chat turn and streams it into ch, which is closed
// when the turn reaches a terminal state. Ordering within the turn is fixed:
// the user message is persisted before the completion request goes out, and
// the assistant message is appended only after the stream is fully consumed.
func (s *ChatService) SendMessage(ctx context.Context, req *CreateMessageRequest, ch chan<- model.StreamChunk) {
	defer close(ch)

	if strings.TrimSpace(req.Content) == "" {
		ch <- model.StreamChunk{Error: "Message content cannot be empty"}
		return
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		slog.Error("Could not load application settings", "error", err)
		ch <- model.StreamChunk{Error: "Could not load application settings"}
		return
	}
	modelName := firstNonEmpty(req.Model, settings.MainModel)
	systemPrompt := firstNonEmpty(req.SystemPrompt, settings.SystemPrompt)
	supportModel := firstNonEmpty(req.SupportModel, settings.SupportModel, modelName)

	isNewChat := req.ChatID == ""
	chatID := req.ChatID
	if isNewChat {
		chatID = uuid.NewString()
		now := time.Now()
		chat := &model.Chat{
			ID:        chatID,
			UserID:    defaultUserID,
			Title:     truncate(req.Content, titleFallbackLimit),
			Model:     modelName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateChat(ctx, chat); err != nil {
			slog.Error("Error creating chat", "error", err)
			ch <- model.StreamChunk{Error: "Could not create chat"}
			return
		}
	} else {
		if _, err := s.repo.GetChat(ctx, chatID); err != nil {
			slog.Error("Error getting chat", "chat_id", chatID, "error", err)
			ch <- model.StreamChunk{Error: "Could not find chat"}
			return
		}
	}

	turnCtx, err := s.acquire(ctx, chatID)
	if err != nil {
		ch <- model.StreamChunk{Error: "A response is already being generated for this chat"}
		return
	}
	defer s.release(chatID)

	userMessage := &model.Message{
		ID:        uuid.NewString(),
		Role:      "user",
		Content:   req.Content,
		Timestamp: time.Now(),
	}
	if err := s.repo.AddMessage(ctx, userMessage, chatID); err != nil {
		slog.Error("Error adding user message", "chat_id", chatID, "error", err)
	}

	history, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		slog.Error("Error getting message history", "chat_id", chatID, "error", err)
		history = []model.Message{*userMessage}
	}

	think, response, ok := s.runCompletion(turnCtx, modelName, buildPayload(systemPrompt, history), ch)
	if !ok {
		// Error already streamed; the partial buffer is discarded but the
		// user message stays in history so a retry can reuse it.
		return
	}
	if turnCtx.Err() != nil {
		ch <- model.StreamChunk{Done: true, Canceled: true}
		return
	}

	assistantMessage := &model.Message{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   response,
		Thinking:  think,
		Model:     &modelName,
		Timestamp: time.Now(),
	}
	if err := s.repo.AddMessage(ctx, assistantMessage, chatID); err != nil {
		// Non-fatal: the content already streamed to the client, the chat
		// just loses persistence for this turn.
		slog.Error("Failed to save assistant message", "chat_id", chatID, "error", err)
	}
	ch <- model.StreamChunk{Done: true}

	if isNewChat {
		go s.generateTitle(context.Background(), chatID, supportModel, req.Content, response)
	}
}

// Regenerate re-issues the completion using the history up to (but excluding)
// the target assistant message and replaces it on success.
func (s *ChatService) Regenerate(ctx context.Context, chatID, messageID string, ch chan<- model.StreamChunk) {
	defer close(ch)

	settings, err := s.settings.Get(ctx)
	if err != nil {
		ch <- model.StreamChunk{Error: "Could not load application settings"}
		return
	}
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		ch <- model.StreamChunk{Error: "Could not find chat"}
		return
	}
	modelName := firstNonEmpty(chat.Model, settings.MainModel)

	history, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		ch <- model.StreamChunk{Error: "Could not load message history"}
		return
	}
	idx := findAssistantMessage(history, messageID)
	if idx < 0 {
		ch <- model.StreamChunk{Error: "Assistant message not found"}
		return
	}

	turnCtx, err := s.acquire(ctx, chatID)
	if err != nil {
		ch <- model.StreamChunk{Error: "A response is already being generated for this chat"}
		return
	}
	defer s.release(chatID)

	think, response, ok := s.runCompletion(turnCtx, modelName, buildPayload(settings.SystemPrompt, history[:idx]), ch)
	if !ok {
		return
	}
	if turnCtx.Err() != nil {
		ch <- model.StreamChunk{Done: true, Canceled: true}
		return
	}

	// The old message is only replaced once a full new one exists; a failed
	// or canceled regeneration leaves the original answer intact.
	if err := s.repo.DeactivateMessage(ctx, messageID); err != nil {
		slog.Error("Failed to deactivate old assistant message", "message_id", messageID, "error", err)
		ch <- model.StreamChunk{Error: "Could not replace the old response"}
		return
	}
	assistantMessage := &model.Message{
		ID:        uuid.NewString(),
		Role:      "assistant",
		Content:   response,
		Thinking:  think,
		Model:     &modelName,
		Timestamp: time.Now(),
	}
	if err := s.repo.AddMessage(ctx, assistantMessage, chatID); err != nil {
		slog.Error("Failed to save regenerated message", "chat_id", chatID, "error", err)
	}
	ch <- model.StreamChunk{Done: true}
}

// Continue asks the model to keep going and concatenates the new tokens onto
// the target assistant message instead of creating a new one. The synthetic
// "please continue" user turn exists only in the request payload.
func (s *ChatService) Continue(ctx context.Context, chatID, messageID string, ch chan<- model.StreamChunk) {
	defer close(ch)

	settings, err := s.settings.Get(ctx)
	if err != nil {
		ch <- model.StreamChunk{Error: "Could not load application settings"}
		return
	}
	chat, err := s.repo.GetChat(ctx, chatID)
	if err != nil {
		ch <- model.StreamChunk{Error: "Could not find chat"}
		return
	}
	modelName := firstNonEmpty(chat.Model, settings.MainModel)

	history, err := s.repo.GetActiveMessagesByChatID(ctx, chatID)
	if err != nil {
		ch <- model.StreamChunk{Error: "Could not load message history"}
		return
	}
	idx := findAssistantMessage(history, messageID)
	if idx < 0 {
		ch <- model.StreamChunk{Error: "Assistant message not found"}
		return
	}

	turnCtx, err := s.acquire(ctx, chatID)
	if err != nil {
		ch <- model.StreamChunk{Error: "A response is already being generated for this chat"}
		return
	}
	defer s.release(chatID)

	payload := buildPayload(settings.SystemPrompt, history[:idx+1])
	payload = append(payload, llm.Message{Role: "user", Content: continuePrompt})

	_, response, ok := s.runCompletion(turnCtx, modelName, payload, ch)
	if !ok {
		return
	}
	if turnCtx.Err() != nil {
		ch <- model.StreamChunk{Done: true, Canceled: true}
		return
	}

	if response != "" {
		if err := s.repo.AppendMessageContent(ctx, messageID, response); err != nil {
			slog.Error("Failed to append continuation", "message_id", messageID, "error", err)
		}
	}
	ch <- model.StreamChunk{Done: true}
}

// runCompletion issues one completion request and forwards deltas into ch.
// For the configured non-streaming model it performs a plain request/response
// call and treats the body as already complete. Returns the extracted thinking
// and response segments; ok is false if an error chunk was already emitted.
func (s *ChatService) runCompletion(ctx context.Context, modelName string, messages []llm.Message, ch chan<- model.StreamChunk) (think, response string, ok bool) {
	req := &llm.CompletionRequest{Model: modelName, Messages: messages}

	if s.nonStreamModel != "" && modelName == s.nonStreamModel {
		resp, err := s.llm.Complete(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", true
			}
			slog.Error("Completion request failed", "model", modelName, "error", err)
			ch <- model.StreamChunk{Error: "The model did not return a response"}
			return "", "", false
		}
		think, response = thinking.Extract(resp.Content)
		ch <- model.StreamChunk{Content: response, Thinking: think}
		return think, response, true
	}

	deltaCh := make(chan llm.StreamDelta)
	go func() {
		_ = s.llm.StreamCompletion(ctx, req, deltaCh)
	}()

	var full strings.Builder
	for delta := range deltaCh {
		if delta.Error != "" {
			slog.Error("Stream error from completion endpoint", "model", modelName, "error", delta.Error)
			ch <- model.StreamChunk{Error: delta.Error}
			return "", "", false
		}
		if delta.Content == "" {
			continue
		}
		full.WriteString(delta.Content)
		// Re-extract on every chunk so the client can render the thinking
		// block while it is still being produced.
		thinkNow, _ := thinking.ExtractPartial(full.String())
		ch <- model.StreamChunk{Content: delta.Content, Thinking: thinkNow}
	}

	think, response = thinking.Extract(full.String())
	return think, response, true
}

// generateTitle asks the support model for a short chat title. Best-effort and
// fire-and-forget: it runs after the turn is already displayed and saved, and
// any failure leaves the provisional truncated title in place.
func (s *ChatService) generateTitle(ctx context.Context, chatID, supportModel, userQuery, assistantResponse string) {
	messages := []llm.Message{
		{
			Role:    "system",
			Content: "You are an expert at creating short, concise titles for conversations. Respond with a title of 2 to 4 words, and nothing else.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf("Based on the following conversation, what would be a good title?\n\n---\nUser: %s\n\nAssistant: %s\n---",
				truncate(userQuery, 150),
				truncate(assistantResponse, 200),
			),
		},
	}

	newTitle := ""
	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{Model: supportModel, Messages: messages})
	if err != nil {
		slog.Warn("Failed to generate chat title", "chat_id", chatID, "error", err)
	} else {
		newTitle = strings.Trim(strings.TrimSpace(resp.Content), `"'`)
	}
	if len([]rune(newTitle)) < 2 {
		newTitle = truncate(userQuery, titleFallbackLimit)
	}

	if err := s.repo.UpdateChatTitle(ctx, chatID, newTitle); err != nil {
		slog.Warn("Failed to update chat title", "chat_id", chatID, "error", err)
	}
}

// acquire registers an in-flight turn for a chat; at most one may exist. The
// in-flight table is the explicit synchronization the single-threaded source
// got for free from its event loop.
func (s *ChatService) acquire(ctx context.Context, chatID string) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[chatID]; busy {
		return nil, app_errors.ErrBusy
	}
	turnCtx, cancel := context.WithCancel(ctx)
	s.inflight[chatID] = cancel
	return turnCtx, nil
}

func (s *ChatService) release(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.inflight[chatID]; ok {
		cancel()
		delete(s.inflight, chatID)
	}
}

// buildPayload assembles the completion request messages: the system prompt
// followed by the visible history. Thinking segments never go back to the
// model.
func buildPayload(systemPrompt string, history []model.Message) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	}
	for _, msg := range history {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	return messages
}

func findAssistantMessage(history []model.Message, messageID string) int {
	for i, msg := range history {
		if msg.ID == messageID && msg.Role == "assistant" {
			return i
		}
	}
	return -1
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncate shortens a string to a specified number of runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
