package httpapi

import "net/http"

// NewMux wires every route. Callers wrap it with Handler for middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{Pipeline: d.Pipeline}.Health,
	}))

	// Decode
	dh := DecodeHandler{Pipeline: d.Pipeline}
	mux.HandleFunc("/decode", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Decode,
	}))

	// Contacts
	ch := ContactsHandler{Store: d.Store, Hub: d.Hub}
	mux.HandleFunc("/contacts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.List,
	}))
	mux.HandleFunc("/contacts/export.xlsx", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Export,
	}))
	mux.HandleFunc("/contacts/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet:    ch.GetByPath, // expects /contacts/{id}
		http.MethodDelete: ch.DeleteByPath,
	}))
	mux.HandleFunc("/db/cleanup", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: DBHandler{Store: d.Store}.Cleanup,
	}))

	// Locale
	lh := LocaleHandler{Pipeline: d.Pipeline, PipelineCfg: d.PipelineCfg, Path: d.LocalePath, Hub: d.Hub}
	mux.HandleFunc("/locale", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.Get,
		http.MethodPut: lh.Put,
	}))

	// Inbox
	ih := InboxHandler{Runner: d.Inbox, Hub: d.Hub}
	mux.HandleFunc("/inbox/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ih.Status,
	}))
	mux.HandleFunc("/inbox/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: ih.Run,
	}))

	// Secrets
	sh := SecretsHandler{Cfg: d.InboxCfg}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}

	return mux
}

// Handler returns the mux behind the standard middleware chain.
func Handler(d Deps) http.Handler {
	return Chain(NewMux(d),
		RequestID,
		Recover,
		AccessLog,
		Metrics(d.Metrics),
		Cors,
	)
}
