package utils

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/raushankrgupta/wardrobe-stylist/apierr"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON envelope of every failed request
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already sent; main installs the process logger as the zap global
		zap.S().Errorw("encode JSON response", "error", err)
	}
}

// RespondError maps err to its HTTP status and writes the error envelope.
// Messages of internal errors are replaced when hideInternal is set.
func RespondError(w http.ResponseWriter, log *zap.SugaredLogger, err error, hideInternal bool) {
	apiErr := apierr.From(err)
	if log != nil {
		if apiErr.Status >= http.StatusInternalServerError {
			log.Errorw("request failed", "status", apiErr.Status, "error", err)
		} else {
			log.Infow("request rejected", "status", apiErr.Status, "error", err)
		}
	}

	msg := apiErr.Error()
	if apiErr.Status >= http.StatusInternalServerError {
		if hideInternal || apiErr.Err == nil {
			msg = "internal server error"
		} else {
			msg = apiErr.Err.Error()
		}
	}
	RespondJSON(w, apiErr.Status, ErrorResponse{Error: msg, Code: apiErr.Code, Fields: apiErr.Fields})
}

// RequestLogger logs method, path, status and duration of each request
func RequestLogger(log *zap.SugaredLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)

		fields := []interface{}{
			"method", strings.ToUpper(r.Method),
			"path", r.URL.Path,
			"status", m.Code,
			"duration_ms", m.Duration.Milliseconds(),
		}
		switch {
		case m.Code >= 500:
			log.Errorw("HTTP request", fields...)
		case m.Code >= 400:
			log.Warnw("HTTP request", fields...)
		default:
			log.Infow("HTTP request", fields...)
		}
	})
}

// CORS allows browser clients from any origin
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
