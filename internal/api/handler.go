package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"searchhub/backend/internal/interfaces"
	"searchhub/backend/internal/model"
	"searchhub/backend/internal/service"
)

// ChatHandler exposes the chat and settings endpoints, including the SSE
// streaming routes.
type ChatHandler struct {
	chats    interfaces.ChatService
	settings interfaces.SettingsService
}

func NewChatHandler(chats interfaces.ChatService, settings interfaces.SettingsService) *ChatHandler {
	return &ChatHandler{chats: chats, settings: settings}
}

// UpdateTitleRequest is the DTO for the manual chat title update endpoint.
type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=100"`
}

func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chats.ListChats(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if chats == nil {
		chats = []*model.Chat{}
	}
	respondWithJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	fullChat, err := h.chats.GetFullChat(r.Context(), chatID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, fullChat)
}

func (h *ChatHandler) UpdateChatTitle(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req UpdateTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.chats.UpdateChatTitle(r.Context(), chatID, req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *ChatHandler) HandleDeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if err := h.chats.DeleteChat(r.Context(), chatID); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "deleted"})
}

func (h *ChatHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, settings)
}

// UpdateSettingsRequest mirrors service.Settings with validation at the API
// boundary; the support model may be blank and then falls back to the main one.
type UpdateSettingsRequest struct {
	SystemPrompt string `json:"system_prompt"`
	MainModel    string `json:"main_model" validate:"required,min=1"`
	SupportModel string `json:"support_model"`
}

func (h *ChatHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	settings := &service.Settings{
		SystemPrompt: req.SystemPrompt,
		MainModel:    req.MainModel,
		SupportModel: req.SupportModel,
	}
	if err := h.settings.Save(r.Context(), settings); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleStreamMessage starts a chat turn and relays its chunks to the client
// as SSE frames. The service owns turn semantics; this handler is only the
// transport loop.
func (h *ChatHandler) HandleStreamMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)

	var req service.CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendStreamError(w, "Invalid request body")
		return
	}

	streamChan := make(chan model.StreamChunk)
	go h.chats.SendMessage(r.Context(), &req, streamChan)
	h.relay(w, r, streamChan)
}

func (h *ChatHandler) HandleRegenerateMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)
	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	streamChan := make(chan model.StreamChunk)
	go h.chats.Regenerate(r.Context(), chatID, messageID, streamChan)
	h.relay(w, r, streamChan)
}

func (h *ChatHandler) HandleContinueMessage(w http.ResponseWriter, r *http.Request) {
	setStreamHeaders(w)
	chatID := chi.URLParam(r, "chatID")
	messageID := chi.URLParam(r, "messageID")

	streamChan := make(chan model.StreamChunk)
	go h.chats.Continue(r.Context(), chatID, messageID, streamChan)
	h.relay(w, r, streamChan)
}

// HandleStop cancels the in-flight turn for a chat. Stopping an idle chat is
// not an error; the response says whether anything was actually canceled.
func (h *ChatHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if h.chats.Stop(chatID) {
		respondWithJSON(w, http.StatusOK, StatusResponse{Status: "stopped"})
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "idle"})
}

// relay forwards stream chunks to the client until the service closes the
// channel. If the client disconnects first, it keeps draining so the service
// goroutine never blocks on a send; the disconnect also cancels the turn
// context, so the turn ends on its canceled path.
func (h *ChatHandler) relay(w http.ResponseWriter, r *http.Request, streamChan <-chan model.StreamChunk) {
	clientGone := false
	for chunk := range streamChan {
		if clientGone {
			continue
		}
		if r.Context().Err() != nil {
			slog.Info("Client disconnected mid-stream")
			clientGone = true
			continue
		}
		if err := writeStreamEvent(w, chunk); err != nil {
			slog.Info("Stream write failed, draining remaining chunks", "error", err)
			clientGone = true
		}
	}
}

func setStreamHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
}
