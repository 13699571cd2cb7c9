package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Nzyazin/currency/internal/core/logger"
	"github.com/Nzyazin/currency/internal/core/models"
	"github.com/Nzyazin/currency/internal/core/repository"
	"github.com/Nzyazin/currency/internal/core/usecase"
	"github.com/Nzyazin/currency/pkg/money"
	"github.com/gorilla/mux"
)

// statusClientClosedRequest is reported when the caller went away mid-conversion.
const statusClientClosedRequest = 499

var ErrUnsupportedCurrency = errors.New("unsupported currency")

type CurrencyHandler struct {
	usecase    usecase.ConversionUsecase
	currencies repository.CurrencyRepository
	log        logger.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewCurrencyHandler(usecase usecase.ConversionUsecase, currencies repository.CurrencyRepository, log logger.Logger) *CurrencyHandler {
	return &CurrencyHandler{usecase: usecase, currencies: currencies, log: log}
}

func (h *CurrencyHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/_healthz", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/supported", h.SupportedCurrencies).Methods(http.MethodGet)
	router.HandleFunc("/currencies/{code}", h.GetCurrency).Methods(http.MethodGet)
	router.HandleFunc("/convert", h.Convert).Methods(http.MethodPost)
}

func (h *CurrencyHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("SERVING"))
}

func (h *CurrencyHandler) SupportedCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.currencies.List(r.Context())
	if err != nil {
		h.log.Error("Failed to list currencies", logger.ErrorField("error", err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list currencies")
		return
	}

	codes := make([]string, 0, len(currencies))
	for _, c := range currencies {
		codes = append(codes, c.Code)
	}
	respondWithJSON(w, http.StatusOK, models.SupportedCurrencies{CurrencyCodes: codes})
}

func (h *CurrencyHandler) GetCurrency(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(mux.Vars(r)["code"])

	currency, err := h.currencies.GetByCode(r.Context(), code)
	switch {
	case errors.Is(err, repository.ErrCurrencyNotFound):
		respondWithError(w, http.StatusNotFound, "Currency not found")
	case err != nil:
		h.log.Error("Failed to get currency", logger.StringField("code", code), logger.ErrorField("error", err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get currency")
	default:
		respondWithJSON(w, http.StatusOK, currency)
	}
}

func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(w, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.validateRequest(r.Context(), req); err != nil {
		h.log.Warn("Invalid conversion request",
			logger.AnyField("from", req.From),
			logger.StringField("to", req.To),
			logger.ErrorField("error", err))
		h.handleConversionError(w, req, err)
		return
	}

	result, err := h.usecase.Convert(r.Context(), req.From, req.To)
	if err != nil {
		h.handleConversionError(w, req, err)
		return
	}

	h.log.Info("Conversion request successful",
		logger.StringField("from", req.From.String()),
		logger.StringField("to", result.String()))
	respondWithJSON(w, http.StatusOK, result)
}

func (h *CurrencyHandler) decodeRequest(w http.ResponseWriter, r *http.Request) (*models.ConversionRequest, error) {
	var req models.ConversionRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("Failed to decode request body", logger.ErrorField("error", err))
		return nil, fmt.Errorf("invalid request payload")
	}
	req.To = strings.ToUpper(strings.TrimSpace(req.To))
	return &req, nil
}

// validateRequest checks the amount and that both currencies are supported.
func (h *CurrencyHandler) validateRequest(ctx context.Context, req *models.ConversionRequest) error {
	if err := req.From.Validate(); err != nil {
		return err
	}
	if err := money.ValidateCode(req.To); err != nil {
		return err
	}
	for _, code := range []string{req.From.CurrencyCode, req.To} {
		if _, err := h.currencies.GetByCode(ctx, code); err != nil {
			if errors.Is(err, repository.ErrCurrencyNotFound) {
				return fmt.Errorf("%w: %s", ErrUnsupportedCurrency, code)
			}
			return err
		}
	}
	return nil
}

func (h *CurrencyHandler) handleConversionError(w http.ResponseWriter, req *models.ConversionRequest, err error) {
	switch {
	case errors.Is(err, money.ErrInvalidCurrencyCode), errors.Is(err, usecase.ErrInvalidAmount), errors.Is(err, ErrUnsupportedCurrency):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, usecase.ErrRateUnavailable):
		h.log.Warn("Rate unavailable",
			logger.StringField("from", req.From.CurrencyCode),
			logger.StringField("to", req.To))
		respondWithError(w, http.StatusUnprocessableEntity, "Exchange rate unavailable")
	case errors.Is(err, usecase.ErrProviderUnreachable):
		w.Header().Set("Retry-After", "1")
		respondWithError(w, http.StatusServiceUnavailable, "Rate provider unreachable")
	case errors.Is(err, usecase.ErrConversionCancelled):
		h.log.Info("Conversion cancelled by client",
			logger.StringField("from", req.From.CurrencyCode),
			logger.StringField("to", req.To))
		respondWithError(w, statusClientClosedRequest, "Conversion cancelled")
	default:
		h.log.Error("Conversion request failed",
			logger.AnyField("from", req.From),
			logger.StringField("to", req.To),
			logger.ErrorField("error", err))
		respondWithError(w, http.StatusInternalServerError, "Failed to convert")
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal Server Error"}`)) // Fallback response
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
