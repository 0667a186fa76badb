package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mesh-intelligence/appendable/pkg/types"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    types.Code `json:"code"`
	Message string     `json:"message"`
}

// writeJSON writes JSON responses with a consistent content type.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	_ = encoder.Encode(payload)
}

// writeError maps err onto its status code and the error envelope. Errors
// without a kind are logged and reported as internal.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var kinded *types.Error
	if !errors.As(err, &kinded) {
		s.logger.Error("unclassified error", slog.String("path", r.URL.Path), slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: errorDetail{
			Code:    "INTERNAL",
			Message: "internal error",
		}})
		return
	}

	status := kinded.Code.HTTPStatus()
	message := kinded.Message
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	} else {
		s.logger.Debug("request rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	if message == "" {
		message = string(kinded.Code)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: kinded.Code, Message: message}})
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.NewError(types.CodeBadRequest, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return types.WrapError(types.CodeBadRequest, "malformed JSON body", err)
	}
	return nil
}
