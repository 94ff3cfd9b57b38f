package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/lojas/internal/domain"
)

// ============================================================================
// MIDDLEWARE ERROR RESPONSE HELPERS
// ============================================================================
//
// These mirror handler.ErrorResponse but are self-contained, since handler
// imports middleware for GetLogger and GetRequestID.

// respondWithError writes a JSON error response for a status the middleware
// decided on its own.
func respondWithError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	logger := GetLogger(r.Context())

	attrs := []any{
		slog.String("code", code),
		slog.Int("status", status),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("middleware error", attrs...)
	} else {
		logger.Info("middleware error", attrs...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// respondTooLarge is a convenience wrapper for 413 errors.
func respondTooLarge(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, http.StatusRequestEntityTooLarge, domain.EINVALID, "Request body too large")
}

// respondInternalError returns a generic 500 response.
func respondInternalError(w http.ResponseWriter, r *http.Request) {
	respondWithError(w, r, http.StatusInternalServerError, domain.EINTERNAL, domain.ErrorMessage(domain.Internal(nil, "", "")))
}

// Recovery turns a panic into a logged 500 response.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				GetLogger(r.Context()).Error("panic recovered", slog.Any("panic", rec))
				respondInternalError(w, r)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
