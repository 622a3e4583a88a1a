package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"leadhunt-engine/internal/store"
)

type DBHandler struct {
	Store store.Store
}

// Cleanup deletes contacts older than ?days=N (default 90). Loopback only.
func (h DBHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	days := 90
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, r, http.StatusBadRequest, "invalid_days", "days must be a positive integer")
			return
		}
		days = n
	}

	n, err := h.Store.CleanupOldContacts(r.Context(), time.Now().AddDate(0, 0, -days))
	if err != nil {
		writeStoreError(w, r, err, "clean up contacts")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": n, "days": days})
}
