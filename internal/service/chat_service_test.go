package service_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"searchhub/backend/internal/llm"
	mock_llm "searchhub/backend/internal/llm/mocks"
	"searchhub/backend/internal/model"
	mock_repo "searchhub/backend/internal/repository/mocks"
	"searchhub/backend/internal/service"
)

type Mocks struct {
	repo   *mock_repo.MockRepository
	llm    *mock_llm.MockProvider
	db     *sql.DB
	mockDB sqlmock.Sqlmock
}

func setupChatService(t *testing.T) (*service.ChatService, Mocks) {
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mocks := Mocks{
		repo:   mock_repo.NewMockRepository(t),
		llm:    mock_llm.NewMockProvider(t),
		db:     db,
		mockDB: mockDB,
	}

	settingsService := service.NewSettingsService(mocks.db)
	chatService := service.NewChatService(mocks.repo, mocks.llm, settingsService, "")

	return chatService, mocks
}

func expectSettings(mockDB sqlmock.Sqlmock) {
	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("system_prompt", "system").
		AddRow("main_model", "test-model").
		AddRow("support_model", "support-model")
	mockDB.ExpectQuery("SELECT key, value FROM settings").WillReturnRows(rows)
}

func collect(ch chan model.StreamChunk) []model.StreamChunk {
	var chunks []model.StreamChunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func TestSendMessageNewChat(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)

	expectSettings(mocks.mockDB)

	var savedMessages []*model.Message
	mocks.repo.On("CreateChat", ctx, mock.AnythingOfType("*model.Chat")).Return(nil).Once()
	mocks.repo.On("AddMessage", ctx, mock.AnythingOfType("*model.Message"), mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) {
			savedMessages = append(savedMessages, args.Get(1).(*model.Message))
		}).
		Return(nil).Twice()
	mocks.repo.On("GetActiveMessagesByChatID", ctx, mock.AnythingOfType("string")).
		Return([]model.Message{{Role: "user", Content: "Hello"}}, nil).Once()

	mocks.llm.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(chan<- llm.StreamDelta)
			out <- llm.StreamDelta{Content: "<thinking>A</thinking>"}
			out <- llm.StreamDelta{Content: "B"}
			out <- llm.StreamDelta{Done: true}
			close(out)
		}).
		Return(nil).Once()

	// Title generation is fire-and-forget; synchronize on the final update so
	// the test can assert it without racing.
	titleDone := make(chan struct{})
	mocks.llm.On("Complete", mock.Anything, mock.MatchedBy(func(req *llm.CompletionRequest) bool {
		return req.Model == "support-model"
	})).Return(&llm.Completion{Content: `"Friendly Greeting"`}, nil).Once()
	mocks.repo.On("UpdateChatTitle", mock.Anything, mock.AnythingOfType("string"), "Friendly Greeting").
		Run(func(mock.Arguments) { close(titleDone) }).
		Return(nil).Once()

	streamChan := make(chan model.StreamChunk, 16)
	chatService.SendMessage(ctx, &service.CreateMessageRequest{Content: "Hello"}, streamChan)

	chunks := collect(streamChan)
	require.NotEmpty(t, chunks)
	final := chunks[len(chunks)-1]
	assert.True(t, final.Done)
	assert.False(t, final.Canceled)
	assert.Empty(t, final.Error)

	// User message persisted before the assistant one, thinking split out.
	require.Len(t, savedMessages, 2)
	assert.Equal(t, "user", savedMessages[0].Role)
	assert.Equal(t, "Hello", savedMessages[0].Content)
	assert.Equal(t, "assistant", savedMessages[1].Role)
	assert.Equal(t, "B", savedMessages[1].Content)
	assert.Equal(t, "A", savedMessages[1].Thinking)

	select {
	case <-titleDone:
	case <-time.After(2 * time.Second):
		t.Fatal("title generation did not run")
	}

	require.NoError(t, mocks.mockDB.ExpectationsWereMet())
}

func TestSendMessageEmptyContent(t *testing.T) {
	chatService, _ := setupChatService(t)

	streamChan := make(chan model.StreamChunk, 1)
	chatService.SendMessage(context.Background(), &service.CreateMessageRequest{Content: "   "}, streamChan)

	chunks := collect(streamChan)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "empty")
}

func TestSendMessageSettingsFailure(t *testing.T) {
	chatService, mocks := setupChatService(t)
	mocks.mockDB.ExpectQuery("SELECT key, value FROM settings").WillReturnError(errors.New("db error"))

	streamChan := make(chan model.StreamChunk, 1)
	chatService.SendMessage(context.Background(), &service.CreateMessageRequest{Content: "Hello"}, streamChan)

	chunks := collect(streamChan)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "settings")
	require.NoError(t, mocks.mockDB.ExpectationsWereMet())
}

func TestSendMessageStop(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	chat := &model.Chat{ID: "chat1", Model: "test-model"}

	expectSettings(mocks.mockDB)
	mocks.repo.On("GetChat", ctx, "chat1").Return(chat, nil).Once()
	// Only the user message is ever persisted: a canceled turn appends no
	// assistant message.
	mocks.repo.On("AddMessage", ctx, mock.AnythingOfType("*model.Message"), "chat1").Return(nil).Once()
	mocks.repo.On("GetActiveMessagesByChatID", ctx, "chat1").
		Return([]model.Message{{Role: "user", Content: "Hello"}}, nil).Once()

	mocks.llm.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			turnCtx := args.Get(0).(context.Context)
			out := args.Get(2).(chan<- llm.StreamDelta)
			out <- llm.StreamDelta{Content: "partial "}
			<-turnCtx.Done()
			close(out)
		}).
		Return(nil).Once()

	streamChan := make(chan model.StreamChunk)
	go chatService.SendMessage(ctx, &service.CreateMessageRequest{ChatID: "chat1", Content: "Hello"}, streamChan)

	first := <-streamChan
	assert.Equal(t, "partial ", first.Content)

	assert.True(t, chatService.Stop("chat1"))

	chunks := collect(streamChan)
	require.NotEmpty(t, chunks)
	final := chunks[len(chunks)-1]
	assert.True(t, final.Done)
	assert.True(t, final.Canceled)
	assert.Empty(t, final.Error)

	// The controller is not stuck: stopping an idle chat reports false.
	assert.False(t, chatService.Stop("chat1"))
}

func TestSendMessageRejectsConcurrentTurn(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	chat := &model.Chat{ID: "chat1", Model: "test-model"}

	expectSettings(mocks.mockDB)
	expectSettings(mocks.mockDB)
	mocks.repo.On("GetChat", ctx, "chat1").Return(chat, nil).Twice()
	mocks.repo.On("AddMessage", ctx, mock.Anything, "chat1").Return(nil).Once()
	mocks.repo.On("GetActiveMessagesByChatID", ctx, "chat1").
		Return([]model.Message{{Role: "user", Content: "Hello"}}, nil).Once()

	started := make(chan struct{})
	mocks.llm.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			turnCtx := args.Get(0).(context.Context)
			out := args.Get(2).(chan<- llm.StreamDelta)
			close(started)
			<-turnCtx.Done()
			close(out)
		}).
		Return(nil).Once()

	firstChan := make(chan model.StreamChunk, 16)
	go chatService.SendMessage(ctx, &service.CreateMessageRequest{ChatID: "chat1", Content: "Hello"}, firstChan)
	<-started

	secondChan := make(chan model.StreamChunk, 1)
	chatService.SendMessage(ctx, &service.CreateMessageRequest{ChatID: "chat1", Content: "Again"}, secondChan)
	chunks := collect(secondChan)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "already being generated")

	chatService.Stop("chat1")
	collect(firstChan)
}

func TestRegenerate(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	chat := &model.Chat{ID: "chat1", Model: "test-model"}
	history := []model.Message{
		{ID: "u1", Role: "user", Content: "Question?"},
		{ID: "a1", Role: "assistant", Content: "Old answer"},
	}

	expectSettings(mocks.mockDB)
	mocks.repo.On("GetChat", ctx, "chat1").Return(chat, nil).Once()
	mocks.repo.On("GetActiveMessagesByChatID", ctx, "chat1").Return(history, nil).Once()

	var payload *llm.CompletionRequest
	mocks.llm.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			payload = args.Get(1).(*llm.CompletionRequest)
			out := args.Get(2).(chan<- llm.StreamDelta)
			out <- llm.StreamDelta{Content: "New answer"}
			out <- llm.StreamDelta{Done: true}
			close(out)
		}).
		Return(nil).Once()

	mocks.repo.On("DeactivateMessage", ctx, "a1").Return(nil).Once()
	var added *model.Message
	mocks.repo.On("AddMessage", ctx, mock.AnythingOfType("*model.Message"), "chat1").
		Run(func(args mock.Arguments) { added = args.Get(1).(*model.Message) }).
		Return(nil).Once()

	streamChan := make(chan model.StreamChunk, 16)
	chatService.Regenerate(ctx, "chat1", "a1", streamChan)

	chunks := collect(streamChan)
	final := chunks[len(chunks)-1]
	assert.True(t, final.Done)

	// The old assistant message is excluded from the payload; the preceding
	// user message appears exactly once.
	require.NotNil(t, payload)
	userTurns := 0
	for _, msg := range payload.Messages {
		assert.NotEqual(t, "Old answer", msg.Content)
		if msg.Role == "user" {
			userTurns++
		}
	}
	assert.Equal(t, 1, userTurns)

	require.NotNil(t, added)
	assert.Equal(t, "assistant", added.Role)
	assert.Equal(t, "New answer", added.Content)
}

func TestRegenerateUnknownMessage(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)

	expectSettings(mocks.mockDB)
	mocks.repo.On("GetChat", ctx, "chat1").Return(&model.Chat{ID: "chat1"}, nil).Once()
	mocks.repo.On("GetActiveMessagesByChatID", ctx, "chat1").
		Return([]model.Message{{ID: "u1", Role: "user", Content: "hi"}}, nil).Once()

	streamChan := make(chan model.StreamChunk, 1)
	chatService.Regenerate(ctx, "chat1", "missing", streamChan)

	chunks := collect(streamChan)
	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0].Error, "not found")
}

func TestContinue(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	chat := &model.Chat{ID: "chat1", Model: "test-model"}
	history := []model.Message{
		{ID: "u1", Role: "user", Content: "Tell me a story"},
		{ID: "a1", Role: "assistant", Content: "Once upon a time"},
	}

	expectSettings(mocks.mockDB)
	mocks.repo.On("GetChat", ctx, "chat1").Return(chat, nil).Once()
	mocks.repo.On("GetActiveMessagesByChatID", ctx, "chat1").Return(history, nil).Once()

	var payload *llm.CompletionRequest
	mocks.llm.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			payload = args.Get(1).(*llm.CompletionRequest)
			out := args.Get(2).(chan<- llm.StreamDelta)
			out <- llm.StreamDelta{Content: ", there was a dragon."}
			out <- llm.StreamDelta{Done: true}
			close(out)
		}).
		Return(nil).Once()

	// The continuation lands on the existing message; no new row is created.
	mocks.repo.On("AppendMessageContent", ctx, "a1", ", there was a dragon.").Return(nil).Once()

	streamChan := make(chan model.StreamChunk, 16)
	chatService.Continue(ctx, "chat1", "a1", streamChan)

	chunks := collect(streamChan)
	assert.True(t, chunks[len(chunks)-1].Done)

	// The synthetic continue turn is in the payload but never persisted.
	require.NotNil(t, payload)
	last := payload.Messages[len(payload.Messages)-1]
	assert.Equal(t, "user", last.Role)
	assert.Equal(t, "Please continue.", last.Content)
}

func TestSendMessageStreamError(t *testing.T) {
	ctx := context.Background()
	chatService, mocks := setupChatService(t)
	chat := &model.Chat{ID: "chat1", Model: "test-model"}

	expectSettings(mocks.mockDB)
	mocks.repo.On("GetChat", ctx, "chat1").Return(chat, nil).Once()
	mocks.repo.On("AddMessage", ctx, mock.Anything, "chat1").Return(nil).Once()
	mocks.repo.On("GetActiveMessagesByChatID", ctx, "chat1").
		Return([]model.Message{{Role: "user", Content: "Hello"}}, nil).Once()

	mocks.llm.On("StreamCompletion", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(chan<- llm.StreamDelta)
			out <- llm.StreamDelta{Content: "partial"}
			out <- llm.StreamDelta{Error: "connection reset"}
			close(out)
		}).
		Return(errors.New("connection reset")).Once()

	streamChan := make(chan model.StreamChunk, 16)
	chatService.SendMessage(ctx, &service.CreateMessageRequest{ChatID: "chat1", Content: "Hello"}, streamChan)

	chunks := collect(streamChan)
	final := chunks[len(chunks)-1]
	assert.Contains(t, final.Error, "connection reset")
	assert.False(t, final.Done)

	// The controller is reusable after a failure.
	assert.False(t, chatService.Stop("chat1"))
}

func TestNonStreamingModelVariant(t *testing.T) {
	ctx := context.Background()
	db, mockDB, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := mock_repo.NewMockRepository(t)
	provider := mock_llm.NewMockProvider(t)
	chatService := service.NewChatService(repo, provider, service.NewSettingsService(db), "instant-model")

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow("system_prompt", "system").
		AddRow("main_model", "instant-model").
		AddRow("support_model", "support-model")
	mockDB.ExpectQuery("SELECT key, value FROM settings").WillReturnRows(rows)

	chat := &model.Chat{ID: "chat1", Model: "instant-model"}
	repo.On("GetChat", ctx, "chat1").Return(chat, nil).Once()

	var saved []*model.Message
	repo.On("AddMessage", ctx, mock.AnythingOfType("*model.Message"), "chat1").
		Run(func(args mock.Arguments) { saved = append(saved, args.Get(1).(*model.Message)) }).
		Return(nil).Twice()
	repo.On("GetActiveMessagesByChatID", ctx, "chat1").
		Return([]model.Message{{Role: "user", Content: "Hello"}}, nil).Once()

	// The whole body arrives at once and still goes through extraction;
	// StreamCompletion is never called.
	provider.On("Complete", mock.Anything, mock.MatchedBy(func(req *llm.CompletionRequest) bool {
		return req.Model == "instant-model"
	})).Return(&llm.Completion{Content: "<think>fast</think>done"}, nil).Once()

	streamChan := make(chan model.StreamChunk, 16)
	chatService.SendMessage(ctx, &service.CreateMessageRequest{ChatID: "chat1", Content: "Hello"}, streamChan)

	chunks := collect(streamChan)
	require.Len(t, chunks, 2)
	assert.Equal(t, "done", chunks[0].Content)
	assert.Equal(t, "fast", chunks[0].Thinking)
	assert.True(t, chunks[1].Done)

	require.Len(t, saved, 2)
	assert.Equal(t, "done", saved[1].Content)
	assert.Equal(t, "fast", saved[1].Thinking)
}
