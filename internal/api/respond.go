package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// writeJSON renders v with the given status. Encode failures after the
// header is out can only be logged by the caller's middleware.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err's envelope. Anything that is not an *Error is
// treated as an internal failure. Server-side failures log with their
// full cause; the response stays opaque.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = Internal(err)
	}

	status := apiErr.Status()
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("tag", apiErr.Tag),
			zap.Error(apiErr))
	}

	writeJSON(w, status, apiErr.envelope())
}
