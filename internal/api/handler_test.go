package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"searchhub/backend/internal/api"
	app_errors "searchhub/backend/internal/errors"
	"searchhub/backend/internal/interfaces/mocks"
	"searchhub/backend/internal/model"
	"searchhub/backend/internal/service"
)

func setupChatHandler(t *testing.T) (*api.ChatHandler, *mocks.MockChatService, *mocks.MockSettingsService) {
	mockChatSvc := mocks.NewMockChatService(t)
	mockSettingsSvc := mocks.NewMockSettingsService(t)
	handler := api.NewChatHandler(mockChatSvc, mockSettingsSvc)
	return handler, mockChatSvc, mockSettingsSvc
}

// addChiURLParams simulates how the chi router injects URL parameters into the
// request context; without it chi.URLParam returns "".
func addChiURLParams(req *http.Request, params map[string]string) *http.Request {
	chiCtx := chi.NewRouteContext()
	for key, value := range params {
		chiCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, chiCtx))
}

func TestChatHandler_GetChats(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		mockChatSvc.On("ListChats", mock.Anything).
			Return([]*model.Chat{{ID: "c1", Title: "First"}}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
		rr := httptest.NewRecorder()
		handler.GetChats(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var chats []*model.Chat
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chats))
		require.Len(t, chats, 1)
		assert.Equal(t, "First", chats[0].Title)
	})

	t.Run("EmptyListIsNotNull", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		mockChatSvc.On("ListChats", mock.Anything).Return(nil, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil)
		rr := httptest.NewRecorder()
		handler.GetChats(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]", strings.TrimSpace(rr.Body.String()))
	})
}

func TestChatHandler_GetChat(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		mockChatSvc.On("GetFullChat", mock.Anything, "missing").
			Return(nil, app_errors.ErrNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/chats/missing", nil)
		req = addChiURLParams(req, map[string]string{"chatID": "missing"})
		rr := httptest.NewRecorder()
		handler.GetChat(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestChatHandler_UpdateChatTitle(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		mockChatSvc.On("UpdateChatTitle", mock.Anything, "c1", "New Title").Return(nil).Once()

		body := strings.NewReader(`{"title": "New Title"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/chats/c1/title", body)
		req = addChiURLParams(req, map[string]string{"chatID": "c1"})
		rr := httptest.NewRecorder()
		handler.UpdateChatTitle(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("EmptyTitleRejected", func(t *testing.T) {
		handler, _, _ := setupChatHandler(t)

		body := strings.NewReader(`{"title": ""}`)
		req := httptest.NewRequest(http.MethodPut, "/api/v1/chats/c1/title", body)
		req = addChiURLParams(req, map[string]string{"chatID": "c1"})
		rr := httptest.NewRecorder()
		handler.UpdateChatTitle(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestChatHandler_UpdateSettings(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, _, mockSettingsSvc := setupChatHandler(t)
		mockSettingsSvc.On("Save", mock.Anything, &service.Settings{
			SystemPrompt: "p", MainModel: "m", SupportModel: "s",
		}).Return(nil).Once()

		body := strings.NewReader(`{"system_prompt":"p","main_model":"m","support_model":"s"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/settings", body)
		rr := httptest.NewRecorder()
		handler.UpdateSettings(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("MissingMainModel", func(t *testing.T) {
		handler, _, _ := setupChatHandler(t)

		body := strings.NewReader(`{"system_prompt":"p"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/settings", body)
		rr := httptest.NewRecorder()
		handler.UpdateSettings(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestChatHandler_HandleStreamMessage(t *testing.T) {
	handler, mockChatSvc, _ := setupChatHandler(t)

	mockChatSvc.On("SendMessage", mock.Anything, mock.MatchedBy(func(req *service.CreateMessageRequest) bool {
		return req.Content == "Hello"
	}), mock.Anything).
		Run(func(args mock.Arguments) {
			ch := args.Get(2).(chan<- model.StreamChunk)
			ch <- model.StreamChunk{Content: "Hi"}
			ch <- model.StreamChunk{Done: true}
			close(ch)
		}).Once()

	body := strings.NewReader(`{"content": "Hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/messages", body)
	rr := httptest.NewRecorder()
	handler.HandleStreamMessage(rr, req)

	assert.Equal(t, "text/event-stream", rr.Header().Get("Content-Type"))
	respBody := rr.Body.String()
	assert.Contains(t, respBody, `data: {"content":"Hi","done":false}`)
	assert.Contains(t, respBody, `"done":true`)
}

func TestChatHandler_HandleStreamMessageBadBody(t *testing.T) {
	handler, _, _ := setupChatHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/messages", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.HandleStreamMessage(rr, req)

	assert.Contains(t, rr.Body.String(), "event: error")
}

func TestChatHandler_HandleRegenerateMessage(t *testing.T) {
	handler, mockChatSvc, _ := setupChatHandler(t)

	mockChatSvc.On("Regenerate", mock.Anything, "c1", "m1", mock.Anything).
		Run(func(args mock.Arguments) {
			ch := args.Get(3).(chan<- model.StreamChunk)
			ch <- model.StreamChunk{Content: "Again"}
			ch <- model.StreamChunk{Done: true}
			close(ch)
		}).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/c1/messages/m1/regenerate", nil)
	req = addChiURLParams(req, map[string]string{"chatID": "c1", "messageID": "m1"})
	rr := httptest.NewRecorder()
	handler.HandleRegenerateMessage(rr, req)

	assert.Contains(t, rr.Body.String(), "Again")
}

func TestChatHandler_HandleStop(t *testing.T) {
	t.Run("ActiveTurn", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		mockChatSvc.On("Stop", "c1").Return(true).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/c1/stop", nil)
		req = addChiURLParams(req, map[string]string{"chatID": "c1"})
		rr := httptest.NewRecorder()
		handler.HandleStop(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "stopped")
	})

	t.Run("IdleChat", func(t *testing.T) {
		handler, mockChatSvc, _ := setupChatHandler(t)
		mockChatSvc.On("Stop", "c1").Return(false).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/chats/c1/stop", nil)
		req = addChiURLParams(req, map[string]string{"chatID": "c1"})
		rr := httptest.NewRecorder()
		handler.HandleStop(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "idle")
	})
}
