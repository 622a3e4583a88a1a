package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/zalando/go-keyring"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/events"
	"leadhunt-engine/internal/inbox"
	"leadhunt-engine/internal/intake"
	"leadhunt-engine/internal/metrics"
	"leadhunt-engine/internal/store"
)

const sarahCard = `<div class="provider-card">
  <h3 class="provider-name">Sarah Thompson</h3>
  <div class="business-name">Thompson Marketing Solutions</div>
  <div class="category">Digital Marketing</div>
  <div class="location">Manchester, UK</div>
  <div class="rating" data-rating="4.9">4.9</div>
  <span class="review-count">47 reviews</span>
  <span class="verified-badge">Verified</span>
  <ul class="services"><li>SEO</li><li>PPC</li><li>Social Media</li><li>Email</li></ul>
  <div>Mobile: <a href="tel:+447812345678">+44 78 1234 5678</a></div>
  <a href="mailto:sarah@thompsonmarketing.co.uk">Email</a>
</div>`

type testEnv struct {
	deps    Deps
	handler http.Handler
	store   *store.SQLiteStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	st, err := store.OpenSQLite(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	loc, ok := config.BuiltinLocale("uk")
	require.True(t, ok)
	pc := config.PipelineConfig{Source: "bark", Locale: "uk", ExtractWorkers: 2}
	m := metrics.New()
	hub := events.NewHub()

	p := intake.NewPipeline(loc, pc, st, m)
	p.OnStored = func(c domain.Contact) {
		hub.Publish(events.ContactCreated(c))
	}

	d := Deps{
		Store:       st,
		Pipeline:    intake.NewCurrent(p),
		PipelineCfg: pc,
		LocalePath:  filepath.Join(dir, "locale.yml"),
		Hub:         hub,
		Metrics:     m,
		InboxCfg:    config.InboxConfig{Username: "leads@example.com", IMAPHost: "imap.example.com"},
	}
	d.Inbox = inbox.NewRunner(d.InboxCfg, d.Pipeline, m, nil)
	return &testEnv{deps: d, handler: Handler(d), store: st}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "uk", body["locale"])

	assert.Equal(t, 1.0, testutil.ToFloat64(e.deps.Metrics.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")))
}

func TestDecode_StoresAndDedupes(t *testing.T) {
	e := newTestEnv(t)
	sub := e.deps.Hub.Subscribe()
	defer e.deps.Hub.Unsubscribe(sub)

	req := map[string]any{"html": sarahCard, "url": "https://bark.example/list"}
	rec := e.do(t, http.MethodPost, "/decode", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeBody[intake.Result](t, rec)
	require.Len(t, res.Leads, 1)
	assert.GreaterOrEqual(t, res.Leads[0].LeadScore, 90)
	assert.True(t, strings.HasPrefix(res.Leads[0].EstimatedValue, "£"))
	assert.Equal(t, 1, res.StoredCount)

	select {
	case msg := <-sub:
		assert.Contains(t, msg, events.TypeContactCreated)
	default:
		t.Fatal("expected a contact_created event")
	}

	rec = e.do(t, http.MethodPost, "/decode", req)
	res = decodeBody[intake.Result](t, rec)
	assert.Zero(t, res.StoredCount)
	assert.Equal(t, 1, res.Duplicates)
}

func TestDecode_DryRunAndBadInput(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/decode?store=false", map[string]any{"html": sarahCard})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[intake.Result](t, rec)
	assert.Len(t, res.Leads, 1)
	assert.Zero(t, res.StoredCount)

	all, err := e.store.ListContacts(context.Background(), store.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, all)

	rec = e.do(t, http.MethodPost, "/decode", map[string]any{"html": "<p>nothing here"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, mustField(t, rec, "leads"))

	req := httptest.NewRequest(http.MethodPost, "/decode", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	apiErr := decodeBody[APIError](t, rr)
	assert.Equal(t, "invalid_json", apiErr.Error.Code)
	assert.NotEmpty(t, apiErr.Error.RequestID)

	rec = e.do(t, http.MethodGet, "/decode", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func mustField(t *testing.T, rec *httptest.ResponseRecorder, key string) string {
	t.Helper()
	m := decodeBody[map[string]json.RawMessage](t, rec)
	return string(m[key])
}

func TestContacts_ListGetDeleteExport(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	c, err := e.store.CreateContact(ctx, domain.ContactFields{FirstName: "Ann", LastName: "Lee", SourceID: "a", LeadScore: 70})
	require.NoError(t, err)

	rec := e.do(t, http.MethodGet, "/contacts?sort=date&window=7d", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]domain.Contact](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	rec = e.do(t, http.MethodGet, "/contacts/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann", decodeBody[domain.Contact](t, rec).FirstName)

	rec = e.do(t, http.MethodGet, "/contacts/export.xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	f, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, f.Sheets[0].Rows, 2)

	sub := e.deps.Hub.Subscribe()
	defer e.deps.Hub.Unsubscribe(sub)
	rec = e.do(t, http.MethodDelete, "/contacts/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, <-sub, events.TypeContactDeleted)

	rec = e.do(t, http.MethodGet, "/contacts/"+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = e.do(t, http.MethodDelete, "/contacts/"+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.deps.Metrics.HTTPRequestsTotal.WithLabelValues("GET", "/contacts/{id}", "404")))
}

func TestLocale_GetAndPut(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/locale", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loc := decodeBody[config.Locale](t, rec)
	assert.Equal(t, "£", loc.CurrencySymbol)

	bad := loc
	bad.BaseValue = 0
	rec = e.do(t, http.MethodPut, "/locale", bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	vr := decodeBody[config.Validation](t, rec)
	assert.NotEmpty(t, vr.Errors)

	loc.CurrencySymbol = "€"
	rec = e.do(t, http.MethodPut, "/locale", loc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	_, err := os.Stat(e.deps.LocalePath)
	require.NoError(t, err)

	rec = e.do(t, http.MethodPost, "/decode?store=false", map[string]any{"html": sarahCard})
	res := decodeBody[intake.Result](t, rec)
	require.Len(t, res.Leads, 1)
	assert.True(t, strings.HasPrefix(res.Leads[0].EstimatedValue, "€"), res.Leads[0].EstimatedValue)
}

func TestLocale_RejectsUnknownFields(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodPut, "/locale", map[string]any{"nope": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInbox_StatusAndDisabledRun(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/inbox/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[inbox.Status](t, rec)
	assert.False(t, st.Enabled)

	rec = e.do(t, http.MethodPost, "/inbox/run", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSecrets_SetIMAPPassword(t *testing.T) {
	keyring.MockInit()
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/api/secrets/imap", map[string]string{"password": "app-pw"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/secrets/imap", map[string]string{"password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDBCleanup_LoopbackOnly(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/db/cleanup?days=1", nil)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/db/cleanup?days=1", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	rec = httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":0,"days":1}`, rec.Body.String())
}

func TestCorsPreflight(t *testing.T) {
	e := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/contacts", nil)
	req.Header.Set("Origin", "tauri://localhost")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "tauri://localhost", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), RequestID, Recover)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decodeBody[APIError](t, rec).Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodPost, "/decode?store=false", map[string]any{"html": sarahCard})
	rec := e.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/contacts/{id}", routeLabel("/contacts/abc"))
	assert.Equal(t, "/contacts/export.xlsx", routeLabel("/contacts/export.xlsx"))
	assert.Equal(t, "other", routeLabel("/wp-admin"))
}
