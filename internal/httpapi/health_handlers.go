package httpapi

import (
	"net/http"
	"time"

	"leadhunt-engine/internal/intake"
)

type HealthHandler struct {
	Pipeline *intake.Current
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	}
	if h.Pipeline != nil {
		resp["locale"] = h.Pipeline.Load().Locale.Name
	}
	WriteJSON(w, http.StatusOK, resp)
}
