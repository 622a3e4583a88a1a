package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/intake"
)

const maxDecodeBody = 16 << 20

type DecodeHandler struct {
	Pipeline *intake.Current
}

type decodeReq struct {
	HTML      string    `json:"html"`
	URL       string    `json:"url"`
	Timestamp time.Time `json:"timestamp"`
}

// Decode runs one document through the pipeline. ?store=false is a dry run.
func (h DecodeHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req decodeReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDecodeBody)).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, codeInvalidJSON, "invalid JSON: "+err.Error())
		return
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	doc := domain.RawDocument{HTML: req.HTML, SourceURL: req.URL, FetchedAt: req.Timestamp}

	var res intake.Result
	if r.URL.Query().Get("store") == "false" {
		res = h.Pipeline.Decode(r.Context(), doc)
	} else {
		res = h.Pipeline.ProcessAndStore(r.Context(), doc)
	}
	if res.Leads == nil {
		res.Leads = []domain.ExtractedLead{}
	}
	WriteJSON(w, http.StatusOK, res)
}
