package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"leadhunt-engine/internal/events"
	"leadhunt-engine/internal/inbox"
)

type InboxHandler struct {
	Runner *inbox.Runner
	Hub    *events.Hub
}

func (h InboxHandler) Status(w http.ResponseWriter, r *http.Request) {
	if h.Runner == nil {
		WriteJSON(w, http.StatusOK, inbox.Status{})
		return
	}
	WriteJSON(w, http.StatusOK, h.Runner.Status())
}

// Run starts one inbox poll in the background.
func (h InboxHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Runner == nil || !h.Runner.Cfg.Enabled {
		WriteError(w, r, http.StatusConflict, "inbox_disabled", "inbox is not enabled")
		return
	}
	if h.Runner.Status().Running {
		WriteError(w, r, http.StatusConflict, "already_running", "an inbox run is already in progress")
		return
	}

	reqID := RequestIDFrom(r.Context())
	go func() {
		sum, err := h.Runner.RunOnce(context.Background())
		if err != nil {
			zap.L().Warn("inbox: run failed", zap.String("request_id", reqID), zap.Error(err))
		}
		if h.Hub != nil {
			h.Hub.Publish(events.New(events.TypeInboxRun, sum).WithRequest(reqID))
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
