package inbox

import (
	"context"
	"strings"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/intake"
	"leadhunt-engine/internal/metrics"
)

const leadHTML = `<html><body><div class="provider-card">
<span class="provider-name">Ann Lee</span>
<div class="location">Leeds</div>
<a href="mailto:ann@example.com">Email</a>
</div></body></html>`

func multipartMessage(subject, html string) []byte {
	return []byte(strings.ReplaceAll(`From: Bark <noreply@bark.example>
To: leads@example.com
Subject: `+subject+`
Message-ID: <m1@bark.example>
Date: Mon, 02 Mar 2026 10:00:00 +0000
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/plain; charset=utf-8

You have a new lead.
--b1
Content-Type: text/html; charset=utf-8

`+html+`
--b1--
`, "\n", "\r\n"))
}

func TestParseMessage_Multipart(t *testing.T) {
	p, err := ParseMessage(multipartMessage("New lead: Ann", `<p class="x">hi</p>`), "")
	require.NoError(t, err)
	assert.Equal(t, "New lead: Ann", p.Subject)
	assert.Equal(t, "m1@bark.example", p.MessageID)
	assert.Equal(t, 2026, p.Date.Year())
	assert.Contains(t, p.Plain, "You have a new lead.")
	assert.Contains(t, p.HTML, `<p class="x">hi</p>`)
}

func TestParseMessage_QuotedPrintable(t *testing.T) {
	raw := []byte("Subject: New lead\r\nContent-Type: text/html; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n\r\n<div class=3D\"provider-card\">caf=C3=A9</div>\r\n")
	p, err := ParseMessage(raw, "")
	require.NoError(t, err)
	assert.Contains(t, p.HTML, `<div class="provider-card">café</div>`)
}

func TestParseMessage_SinglePartAndEncodedSubject(t *testing.T) {
	raw := []byte("Subject: =?utf-8?q?Nouveau_lead?=\r\nContent-Type: text/html; charset=utf-8\r\nContent-Transfer-Encoding: base64\r\n\r\nPGI+aGk8L2I+\r\n")
	p, err := ParseMessage(raw, "fallback")
	require.NoError(t, err)
	assert.Equal(t, "Nouveau lead", p.Subject)
	assert.Equal(t, "<b>hi</b>", p.HTML)
	assert.Empty(t, p.Plain)
}

func TestParseMessage_Empty(t *testing.T) {
	p, err := ParseMessage(nil, " subj ")
	require.NoError(t, err)
	assert.Equal(t, "subj", p.Subject)
}

type memStore struct{ created []domain.ContactFields }

func (s *memStore) CreateContact(_ context.Context, f domain.ContactFields) (domain.Contact, error) {
	s.created = append(s.created, f)
	return domain.Contact{ID: "c"}, nil
}

func newRunner(t *testing.T, store intake.ContactCreator) *Runner {
	t.Helper()
	loc, ok := config.BuiltinLocale("uk")
	require.True(t, ok)
	m := metrics.New()
	p := intake.NewPipeline(loc, config.PipelineConfig{Source: "inbox", ExtractWorkers: 1}, store, m)
	cfg := config.InboxConfig{
		Enabled:          true,
		IMAPHost:         "imap.example.com",
		Username:         "leads@example.com",
		SearchSubjectAny: []string{"new lead"},
	}
	return NewRunner(cfg, p, m, nil)
}

func TestRunner_Process(t *testing.T) {
	store := &memStore{}
	r := newRunner(t, store)

	msgs := []EmailMessage{
		{UID: 10, RawMessage: multipartMessage("New lead: Ann Lee", leadHTML)},
		{UID: 11, RawMessage: multipartMessage("Your invoice", leadHTML)},
		{UID: 12, RawMessage: []byte("Subject: New lead\r\nContent-Type: text/plain\r\n\r\nno html here\r\n")},
	}

	seen, sum := r.Process(context.Background(), msgs)
	assert.Equal(t, []imap.UID{10, 12}, seen)
	assert.Equal(t, 3, sum.Messages)
	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 1, sum.Leads)
	assert.Equal(t, 1, sum.Stored)

	require.Len(t, store.created, 1)
	assert.Equal(t, "inbox", store.created[0].Source)
	assert.Equal(t, "imap://leads%40example.com@imap.example.com/INBOX/10", store.created[0].SourceURL)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.InboxMessages.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.InboxMessages.WithLabelValues("no_html")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.InboxMessages.WithLabelValues("processed")))
}

func TestRunner_DisabledAndStatus(t *testing.T) {
	r := newRunner(t, &memStore{})
	r.Cfg.Enabled = false
	sum, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum)

	r.Cfg.Enabled = true
	r.Cfg.IMAPHost = ""
	_, err = r.RunOnce(context.Background())
	require.Error(t, err)
	st := r.Status()
	assert.False(t, st.Running)
	assert.Contains(t, st.LastError, "missing imap_host")
	assert.False(t, st.LastRunAt.IsZero())
}

func TestRunner_AlreadyRunning(t *testing.T) {
	r := newRunner(t, &memStore{})
	require.True(t, r.begin())
	_, err := r.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
}

func TestRunner_Addr(t *testing.T) {
	r := &Runner{Cfg: config.InboxConfig{IMAPHost: "imap.example.com"}}
	assert.Equal(t, "imap.example.com:993", r.addr())
	r.Cfg.IMAPPort = 1143
	assert.Equal(t, "imap.example.com:1143", r.addr())
	r.Cfg.IMAPHost = "localhost:2993"
	assert.Equal(t, "localhost:2993", r.addr())
	assert.Equal(t, "INBOX", r.mailbox())
}
