package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/events"
	"leadhunt-engine/internal/intake"
)

type LocaleHandler struct {
	Pipeline    *intake.Current
	PipelineCfg config.PipelineConfig
	Path        string
	Hub         *events.Hub
}

func (h LocaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Pipeline.Load().Locale)
}

// Put validates a full locale, saves it and swaps the running pipeline.
func (h LocaleHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var incoming config.Locale
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, codeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, codeInvalidJSON, "invalid JSON: trailing data")
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		// structured errors so the UI can show them
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}

	if h.Path != "" {
		if err := config.SaveLocaleAtomic(h.Path, normalized); err != nil {
			zap.L().Error("http: save locale", zap.String("path", h.Path), zap.Error(err))
			WriteError(w, r, http.StatusInternalServerError, "save_failed", "could not save locale")
			return
		}
	}

	h.Pipeline.Store(h.Pipeline.Load().WithLocale(normalized, h.PipelineCfg))
	zap.L().Info("locale updated", zap.String("name", normalized.Name), zap.Strings("warnings", vr.Warnings))

	if h.Hub != nil {
		h.Hub.Publish(events.LocaleUpdated(normalized.Name).WithRequest(RequestIDFrom(r.Context())))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"locale": normalized, "warnings": vr.Warnings})
}
