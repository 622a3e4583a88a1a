package httpapi

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadhunt-engine/internal/events"
	"leadhunt-engine/internal/export"
	"leadhunt-engine/internal/store"
)

type ContactsHandler struct {
	Store store.Store
	Hub   *events.Hub
}

func listOpts(r *http.Request) store.ListOpts {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	return store.ListOpts{Sort: q.Get("sort"), Window: q.Get("window"), Limit: limit}
}

func (h ContactsHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.Store.ListContacts(r.Context(), listOpts(r))
	if err != nil {
		writeStoreError(w, r, err, "list contacts")
		return
	}
	WriteJSON(w, http.StatusOK, contacts)
}

func contactID(r *http.Request) string {
	return strings.Trim(strings.TrimPrefix(r.URL.Path, "/contacts/"), "/")
}

func (h ContactsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := contactID(r)
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, codeInvalidID, "invalid id")
		return
	}
	c, err := h.Store.GetContact(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, err, "load contact")
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

func (h ContactsHandler) DeleteByPath(w http.ResponseWriter, r *http.Request) {
	id := contactID(r)
	if id == "" {
		WriteError(w, r, http.StatusBadRequest, codeInvalidID, "invalid id")
		return
	}
	if err := h.Store.DeleteContact(r.Context(), id); err != nil {
		writeStoreError(w, r, err, "delete contact")
		return
	}

	if h.Hub != nil {
		h.Hub.Publish(events.ContactDeleted(id).WithRequest(RequestIDFrom(r.Context())))
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// Export streams the listed contacts as an xlsx workbook.
func (h ContactsHandler) Export(w http.ResponseWriter, r *http.Request) {
	opts := listOpts(r)
	if opts.Limit == 0 {
		opts.Limit = 1 << 30 // capped by the store
	}
	contacts, err := h.Store.ListContacts(r.Context(), opts)
	if err != nil {
		writeStoreError(w, r, err, "list contacts")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteContactsXLSX(&buf, contacts); err != nil {
		zap.L().Error("http: write workbook", zap.Error(err))
		WriteError(w, r, http.StatusInternalServerError, "export_error", "could not build workbook")
		return
	}

	name := "contacts-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
