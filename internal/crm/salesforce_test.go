package crm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

func newTestSink(t *testing.T, handler http.Handler) *SalesforceSink {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	return newSink(sf, config.SalesforceConfig{})
}

func leadFields() domain.ContactFields {
	return domain.ContactFields{
		FirstName: "Sarah",
		LastName:  "Thompson",
		Email:     "sarah@thompsonmarketing.co.uk",
		Phone:     "+44 7812 345678",
		Company:   "Thompson Marketing Solutions",
		Role:      domain.ContactRoleOwner,
		Source:    "bark",
		Status:    domain.ContactStatusNew,
		Notes:     "Rating: 4.9/5 (47 reviews)",
		Tags:      []string{"Digital Marketing", "bark"},
		SourceID:  "abc",
	}
}

func queryResponse(w http.ResponseWriter, ids ...string) {
	recs := []map[string]any{}
	for _, id := range ids {
		recs = append(recs, map[string]any{"attributes": map[string]any{"type": "Lead"}, "Id": id})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"totalSize": len(ids), "done": true, "records": recs})
}

func TestSalesforceSink_CreateContact(t *testing.T) {
	var posted map[string]any
	sink := newTestSink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/query") {
			assert.Contains(t, r.URL.Query().Get("q"), "Email = 'sarah@thompsonmarketing.co.uk'")
			queryResponse(w)
			return
		}
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&posted)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "00Q1", "success": true, "errors": []any{}})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	c, err := sink.CreateContact(context.Background(), leadFields())
	require.NoError(t, err)
	assert.Equal(t, "00Q1", c.ID)
	assert.Equal(t, "Thompson Marketing Solutions", c.Company)

	require.NotNil(t, posted)
	assert.Equal(t, "Sarah", posted["FirstName"])
	assert.Equal(t, "Open - Not Contacted", posted["Status"])
	assert.Equal(t, "bark", posted["LeadSource"])
	assert.Contains(t, posted["Description"], "Tags: Digital Marketing, bark")
}

func TestSalesforceSink_Duplicate(t *testing.T) {
	var inserts atomic.Int32
	sink := newTestSink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/query") {
			queryResponse(w, "00Qexisting")
			return
		}
		inserts.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))

	_, err := sink.CreateContact(context.Background(), leadFields())
	assert.ErrorIs(t, err, domain.ErrDuplicateContact)
	assert.Zero(t, inserts.Load())
}

func TestSalesforceSink_InsertFailure(t *testing.T) {
	sink := newTestSink(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/query") {
			queryResponse(w)
			return
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "", "success": false,
			"errors": []map[string]any{{"message": "required field missing"}},
		})
	}))

	_, err := sink.CreateContact(context.Background(), leadFields())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert lead")
}

func TestLeadRecord(t *testing.T) {
	f := leadFields()
	f.Company = ""
	f.Email = ""
	rec := leadRecord(f, "Working")
	assert.Equal(t, "Sarah Thompson", rec["Company"])
	assert.Equal(t, "Working", rec["Status"])
	assert.NotContains(t, rec, "Email")
	assert.Equal(t, "+44 7812 345678", rec["Phone"])
}

func TestSoqlEscape(t *testing.T) {
	assert.Equal(t, `O\'Brien`, soqlEscape("O'Brien"))
	assert.Equal(t, `a\\b`, soqlEscape(`a\b`))
}

type fakeLocal struct {
	created   []domain.ContactFields
	deleted   []string
	deleteErr error
	err       error
}

func (f *fakeLocal) CreateContact(_ context.Context, fields domain.ContactFields) (domain.Contact, error) {
	if f.err != nil {
		return domain.Contact{}, f.err
	}
	f.created = append(f.created, fields)
	return domain.Contact{ID: "local-1", FirstName: fields.FirstName}, nil
}

func (f *fakeLocal) DeleteContact(ctx context.Context, id string) error {
	f.deleteErr = ctx.Err()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRemote struct {
	err    error
	cancel context.CancelFunc
}

func (f fakeRemote) CreateContact(context.Context, domain.ContactFields) (domain.Contact, error) {
	if f.cancel != nil {
		f.cancel()
	}
	return domain.Contact{ID: "remote"}, f.err
}

func TestMirror(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		local := &fakeLocal{}
		c, err := (&Mirror{Local: local, Remote: fakeRemote{}}).CreateContact(ctx, leadFields())
		require.NoError(t, err)
		assert.Equal(t, "local-1", c.ID)
		assert.Empty(t, local.deleted)
	})

	t.Run("local duplicate skips remote", func(t *testing.T) {
		local := &fakeLocal{err: domain.ErrDuplicateContact}
		_, err := (&Mirror{Local: local, Remote: fakeRemote{err: errors.New("unreached")}}).CreateContact(ctx, leadFields())
		assert.ErrorIs(t, err, domain.ErrDuplicateContact)
	})

	t.Run("remote duplicate keeps local", func(t *testing.T) {
		local := &fakeLocal{}
		_, err := (&Mirror{Local: local, Remote: fakeRemote{err: domain.ErrDuplicateContact}}).CreateContact(ctx, leadFields())
		require.NoError(t, err)
		assert.Empty(t, local.deleted)
	})

	t.Run("remote failure rolls back", func(t *testing.T) {
		local := &fakeLocal{}
		_, err := (&Mirror{Local: local, Remote: fakeRemote{err: errors.New("503")}}).CreateContact(ctx, leadFields())
		require.Error(t, err)
		assert.Equal(t, []string{"local-1"}, local.deleted)
	})

	t.Run("rollback outlives cancelled caller", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		local := &fakeLocal{}
		remote := fakeRemote{err: context.Canceled, cancel: cancel}
		_, err := (&Mirror{Local: local, Remote: remote}).CreateContact(cctx, leadFields())
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"local-1"}, local.deleted)
		assert.NoError(t, local.deleteErr)
	})
}
