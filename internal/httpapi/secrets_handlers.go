package httpapi

import (
	"encoding/json"
	"net/http"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/secrets"
)

type SecretsHandler struct {
	Cfg config.InboxConfig
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, codeInvalidJSON, "invalid json")
		return
	}
	if err := secrets.SetIMAPPassword(h.Cfg, req.Password); err != nil {
		WriteError(w, r, http.StatusBadRequest, "secret_rejected", "failed to store password: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
