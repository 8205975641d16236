package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	app_errors "searchhub/backend/internal/errors"
	"searchhub/backend/internal/interfaces"
)

// AnswersHandler exposes the instant-answer engines: intent classification,
// the calculator, and the unit/currency converters.
type AnswersHandler struct {
	answers interfaces.AnswerService
}

func NewAnswersHandler(answers interfaces.AnswerService) *AnswersHandler {
	return &AnswersHandler{answers: answers}
}

// Classify returns the rendering decision for a free-text query: the intent
// plus an instant answer when the query carried enough to compute one.
func (h *AnswersHandler) Classify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, fmt.Errorf("%w: query parameter 'q' is required", app_errors.ErrValidation))
		return
	}
	respondWithJSON(w, http.StatusOK, h.answers.Answer(r.Context(), query))
}

type CalculateRequest struct {
	Expression string `json:"expression" validate:"required,min=1"`
}

type CalculateResponse struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

func (h *AnswersHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	result, err := h.answers.Calculate(req.Expression)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CalculateResponse{Expression: req.Expression, Result: result})
}

type UnitsRequest struct {
	Value    float64 `json:"value"`
	From     string  `json:"from" validate:"required"`
	To       string  `json:"to" validate:"required"`
	Category string  `json:"category" validate:"required,oneof=distance weight temperature volume"`
}

type UnitsResponse struct {
	Result    float64 `json:"result"`
	Formatted string  `json:"formatted"`
}

func (h *AnswersHandler) Units(w http.ResponseWriter, r *http.Request) {
	var req UnitsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	result, err := h.answers.ConvertUnits(req.Value, req.From, req.To, req.Category)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, UnitsResponse{Result: result.Value, Formatted: result.Formatted})
}

type CurrencyRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	From   string  `json:"from" validate:"required,len=3"`
	To     string  `json:"to" validate:"required,len=3"`
}

type CurrencyResponse struct {
	Amount float64 `json:"amount"`
	From   string  `json:"from"`
	To     string  `json:"to"`
	Result float64 `json:"result"`
}

func (h *AnswersHandler) Currency(w http.ResponseWriter, r *http.Request) {
	var req CurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload"})
		return
	}
	if err := validateRequest(req); err != nil {
		respondWithError(w, err)
		return
	}

	result, err := h.answers.ConvertCurrency(r.Context(), req.Amount, req.From, req.To)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, CurrencyResponse{
		Amount: req.Amount,
		From:   req.From,
		To:     req.To,
		Result: result,
	})
}

// Currencies lists the currency catalogue for the picker. Never fails: the
// converter degrades to a static fallback when the rate API is unreachable.
func (h *AnswersHandler) Currencies(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.answers.Currencies(r.Context()))
}
