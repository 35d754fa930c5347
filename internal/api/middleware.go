package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cloudsqlconsole/internal/core"
	"cloudsqlconsole/internal/logger"
)

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		rw := &responseWriter{w, http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		logger.Info.Printf("%s %s %d %v", r.Method, r.URL.Path, rw.status, duration)
	})
}

// Custom response writer to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Context keys
type key int

const (
	userKey key = iota
)

// CurrentUser returns the authenticated account attached by RequireAuth, or
// nil.
func CurrentUser(r *http.Request) *core.UserAccount {
	user, _ := r.Context().Value(userKey).(*core.UserAccount)
	return user
}

func withUser(r *http.Request, user *core.UserAccount) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userKey, user))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("Failed to encode response: %v", err)
	}
}

// writeError maps coded errors onto HTTP statuses and a stable JSON body so
// clients can branch on the code without matching prose.
func writeError(w http.ResponseWriter, err error) {
	ce := core.AsCoded(err)
	if ce == nil {
		logger.Error.Printf("Unhandled error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]string{"code": "INTERNAL", "message": "internal server error"},
		})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Code {
	case core.CodeAuthRequired, core.CodeInvalidCredentials:
		status = http.StatusUnauthorized
	case core.CodeInsufficientPerms, core.CodeReadOnlyRequired:
		status = http.StatusForbidden
	case core.CodeInvalidPagination, core.CodeQueryExecutionFailed:
		status = http.StatusBadRequest
	case core.CodeConnectionNotFound:
		status = http.StatusNotFound
	case core.CodeSchemaFetchFailed:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]string{"code": ce.Code, "message": ce.Message},
	})
}
