package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"leadhunt-engine/internal/store"
)

// Error codes shared with the UI.
const (
	codeInvalidJSON = "invalid_json"
	codeInvalidID   = "invalid_id"
	codeNotFound    = "not_found"
	codeStore       = "store_error"
)

type APIError struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeStoreError maps a store failure to 404 or a logged 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if errors.Is(err, store.ErrNotFound) {
		WriteError(w, r, http.StatusNotFound, codeNotFound, "contact not found")
		return
	}
	zap.L().Error("http: store", zap.String("op", op), zap.String("request_id", RequestIDFrom(r.Context())), zap.Error(err))
	WriteError(w, r, http.StatusInternalServerError, codeStore, "could not "+op)
}
