package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"searchhub/backend/internal/answers/units"
	"searchhub/backend/internal/api"
	app_errors "searchhub/backend/internal/errors"
	"searchhub/backend/internal/interfaces/mocks"
	"searchhub/backend/internal/model"
)

func setupAnswersHandler(t *testing.T) (*api.AnswersHandler, *mocks.MockAnswerService) {
	mockSvc := mocks.NewMockAnswerService(t)
	return api.NewAnswersHandler(mockSvc), mockSvc
}

func TestAnswersHandler_Classify(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupAnswersHandler(t)
		mockSvc.On("Answer", mock.Anything, "2+2").
			Return(&model.Answer{Query: "2+2", Intent: "calculator", Calc: &model.CalcAnswer{Expression: "2+2", Result: 4}}).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/answers/classify?q=2%2B2", nil)
		rr := httptest.NewRecorder()
		handler.Classify(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var answer model.Answer
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &answer))
		assert.Equal(t, "calculator", answer.Intent)
		require.NotNil(t, answer.Calc)
		assert.InDelta(t, 4.0, answer.Calc.Result, 1e-9)
	})

	t.Run("MissingQuery", func(t *testing.T) {
		handler, _ := setupAnswersHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/answers/classify", nil)
		rr := httptest.NewRecorder()
		handler.Classify(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAnswersHandler_Calculate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupAnswersHandler(t)
		mockSvc.On("Calculate", "2+2*3").Return(8.0, nil).Once()

		body := strings.NewReader(`{"expression": "2+2*3"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/calculate", body)
		rr := httptest.NewRecorder()
		handler.Calculate(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp api.CalculateResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.InDelta(t, 8.0, resp.Result, 1e-9)
	})

	t.Run("BadExpression", func(t *testing.T) {
		handler, mockSvc := setupAnswersHandler(t)
		mockSvc.On("Calculate", "2+").Return(0.0, app_errors.ErrValidation).Once()

		body := strings.NewReader(`{"expression": "2+"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/calculate", body)
		rr := httptest.NewRecorder()
		handler.Calculate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("EmptyExpression", func(t *testing.T) {
		handler, _ := setupAnswersHandler(t)

		body := strings.NewReader(`{"expression": ""}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/calculate", body)
		rr := httptest.NewRecorder()
		handler.Calculate(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAnswersHandler_Units(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupAnswersHandler(t)
		mockSvc.On("ConvertUnits", 5.0, "kilometers", "miles", "distance").
			Return(units.Result{Value: 3.106855, Formatted: "3.1069"}, nil).Once()

		body := strings.NewReader(`{"value": 5, "from": "kilometers", "to": "miles", "category": "distance"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/units", body)
		rr := httptest.NewRecorder()
		handler.Units(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp api.UnitsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "3.1069", resp.Formatted)
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		handler, _ := setupAnswersHandler(t)

		body := strings.NewReader(`{"value": 5, "from": "a", "to": "b", "category": "bananas"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/units", body)
		rr := httptest.NewRecorder()
		handler.Units(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAnswersHandler_Currency(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		handler, mockSvc := setupAnswersHandler(t)
		mockSvc.On("ConvertCurrency", mock.Anything, 150.0, "USD", "EUR").Return(128.51, nil).Once()

		body := strings.NewReader(`{"amount": 150, "from": "USD", "to": "EUR"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/currency", body)
		rr := httptest.NewRecorder()
		handler.Currency(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var resp api.CurrencyResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.InDelta(t, 128.51, resp.Result, 1e-9)
	})

	t.Run("UpstreamDown", func(t *testing.T) {
		handler, mockSvc := setupAnswersHandler(t)
		mockSvc.On("ConvertCurrency", mock.Anything, 1.0, "USD", "EUR").
			Return(0.0, app_errors.ErrUnavailable).Once()

		body := strings.NewReader(`{"amount": 1, "from": "USD", "to": "EUR"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/currency", body)
		rr := httptest.NewRecorder()
		handler.Currency(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})

	t.Run("BadCode", func(t *testing.T) {
		handler, _ := setupAnswersHandler(t)

		body := strings.NewReader(`{"amount": 1, "from": "US", "to": "EUR"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/answers/currency", body)
		rr := httptest.NewRecorder()
		handler.Currency(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
