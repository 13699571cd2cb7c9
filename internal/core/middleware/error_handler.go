package middleware

import (
	"net/http"

	"github.com/Nzyazin/currency/internal/core/logger"
)

const internalErrorBody = `{"error":"Internal Server Error"}`

// ErrorHandler turns a panic escaping the handler chain into a JSON 500.
type ErrorHandler struct {
	handler http.Handler
	log     logger.Logger
}

func WithErrorHandler(log logger.Logger) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return &ErrorHandler{handler: h, log: log}
	}
}

func (eh *ErrorHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if err := recover(); err != nil {
			eh.log.Error("request processing failed",
				logger.StringField("method", r.Method),
				logger.StringField("path", r.URL.Path),
				logger.StringField("request_id", RequestIDFromContext(r.Context())),
				logger.AnyField("error", err),
			)
			writeInternalError(w)
		}
	}()

	eh.handler.ServeHTTP(w, r)
}

func writeInternalError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(internalErrorBody))
}
