package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
	"leadhunt-engine/internal/metrics"
	"leadhunt-engine/internal/rank"
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

// fakeStore records creates and fails on demand.
type fakeStore struct {
	created []domain.ContactFields
	seen    map[string]bool
	failOn  map[int]error // call index -> error
	panicOn map[int]bool
	calls   int
}

func (s *fakeStore) CreateContact(_ context.Context, f domain.ContactFields) (domain.Contact, error) {
	i := s.calls
	s.calls++
	if s.panicOn[i] {
		panic("boom")
	}
	if err := s.failOn[i]; err != nil {
		return domain.Contact{}, err
	}
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[f.SourceID] {
		return domain.Contact{}, domain.ErrDuplicateContact
	}
	s.seen[f.SourceID] = true
	s.created = append(s.created, f)
	return domain.Contact{ID: fmt.Sprintf("c%d", i), FirstName: f.FirstName, LastName: f.LastName}, nil
}

func newPipeline(t *testing.T, locale string, store ContactCreator) *Pipeline {
	t.Helper()
	loc, ok := config.BuiltinLocale(locale)
	require.True(t, ok)
	return NewPipeline(loc, config.PipelineConfig{Source: "bark", ExtractWorkers: 2}, store, nil)
}

func card(first, last string) string {
	return fmt.Sprintf(`<div class="provider-card"><span class="provider-name">%s %s</span>
<div class="location">Leeds</div><a href="mailto:%s@example.com">mail</a></div>`, first, last, strings.ToLower(first))
}

func TestProcessAndStore_SampleScenario(t *testing.T) {
	store := &fakeStore{}
	p := newPipeline(t, "uk", store)
	m := metrics.New()
	p.Metrics = m

	var hooked []domain.Contact
	p.OnStored = func(c domain.Contact) { hooked = append(hooked, c) }

	res := p.ProcessAndStore(context.Background(), domain.RawDocument{HTML: sarahCard, SourceURL: "https://bark.example/list"})

	require.Len(t, res.Leads, 1)
	lead := res.Leads[0]
	assert.True(t, IsValid(lead, p.Locale.Placeholders))
	assert.GreaterOrEqual(t, lead.LeadScore, 90)
	assert.NotEmpty(t, lead.EstimatedValue)
	assert.Equal(t, 1, res.StoredCount)
	assert.Len(t, hooked, 1)

	require.Len(t, store.created, 1)
	f := store.created[0]
	assert.Equal(t, "Sarah", f.FirstName)
	assert.Equal(t, "Thompson", f.LastName)
	assert.Equal(t, "Thompson Marketing Solutions", f.Company)
	assert.Equal(t, "+44 7812 345678", f.Phone)
	assert.Equal(t, domain.ContactRoleOwner, f.Role)
	assert.Equal(t, domain.ContactStatusNew, f.Status)
	assert.Equal(t, "bark", f.Source)
	assert.Equal(t, []string{"Digital Marketing", "bark", "verified", "SEO", "PPC", "Social Media"}, f.Tags)
	assert.Contains(t, f.Notes, "Rating: 4.9/5 (47 reviews)")
	assert.Contains(t, f.Notes, "Services: SEO, PPC, Social Media, Email")
	assert.Contains(t, f.Notes, "Verification: Verified")
	assert.Contains(t, f.Notes, "Location: Manchester, UK")
	assert.Contains(t, f.Notes, "Phone region: Mobile")
	assert.Len(t, f.SourceID, 40)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContactsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal))
}

func TestProcessAndStore_BatchIsolation(t *testing.T) {
	html := card("Ann", "Lee") + card("Bob", "Ray") + card("Cy", "Tan")

	t.Run("error", func(t *testing.T) {
		store := &fakeStore{failOn: map[int]error{1: errors.New("db down")}}
		res := newPipeline(t, "us", store).ProcessAndStore(context.Background(), domain.RawDocument{HTML: html})

		assert.Len(t, res.Leads, 3)
		assert.Equal(t, 2, res.StoredCount)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, "Ann", store.created[0].FirstName)
		assert.Equal(t, "Cy", store.created[1].FirstName)
	})

	t.Run("panic", func(t *testing.T) {
		store := &fakeStore{panicOn: map[int]bool{1: true}}
		p := newPipeline(t, "us", store)

		var res Result
		require.NotPanics(t, func() {
			res = p.ProcessAndStore(context.Background(), domain.RawDocument{HTML: html})
		})
		assert.Equal(t, 2, res.StoredCount)
		assert.Equal(t, 1, res.Failed)
	})
}

func TestProcessAndStore_DuplicatesAndRejects(t *testing.T) {
	html := card("Ann", "Lee") + card("Ann", "Lee") +
		`<div class="provider-card"><span>empty</span></div>` +
		`<div class="provider-card"><span class="provider-name">Bob Ray</span><div class="location">Leeds</div></div>`

	store := &fakeStore{}
	p := newPipeline(t, "us", store)
	p.Metrics = metrics.New()

	res := p.ProcessAndStore(context.Background(), domain.RawDocument{HTML: html})
	assert.Len(t, res.Leads, 4)
	assert.Equal(t, 1, res.StoredCount)
	assert.Equal(t, 1, res.Duplicates)
	assert.Equal(t, 2, res.Rejected)
	assert.LessOrEqual(t, res.StoredCount, len(res.Leads))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics.LeadsRejected.WithLabelValues(ReasonDefaultName)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics.LeadsRejected.WithLabelValues(ReasonNoContact)))
}

func TestProcessAndStore_DryRunAndEmpty(t *testing.T) {
	p := newPipeline(t, "us", nil)
	res := p.ProcessAndStore(context.Background(), domain.RawDocument{HTML: card("Ann", "Lee")})
	assert.Len(t, res.Leads, 1)
	assert.Zero(t, res.StoredCount)

	p = newPipeline(t, "us", &fakeStore{})
	res = p.ProcessAndStore(context.Background(), domain.RawDocument{HTML: ""})
	assert.Empty(t, res.Leads)
	assert.Zero(t, res.StoredCount)
}

func TestProcessAndStore_CancelledContext(t *testing.T) {
	store := &fakeStore{}
	p := newPipeline(t, "us", store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := p.ProcessAndStore(ctx, domain.RawDocument{HTML: card("Ann", "Lee")})
	assert.Zero(t, res.StoredCount)
	assert.Empty(t, store.created)
}

// stopAfterFirst ends the decode once the first card has been scored.
type stopAfterFirst struct {
	rank.Scorer
	cancel context.CancelFunc
}

func (s stopAfterFirst) Score(l domain.ExtractedLead) (int, []string) {
	s.cancel()
	return s.Scorer.Score(l)
}

func TestDecode_KeepsLeadsFinishedBeforeCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := newPipeline(t, "us", nil)
	p.Decoder.Workers = 1
	p.Decoder.Scorer = stopAfterFirst{Scorer: p.Decoder.Scorer, cancel: cancel}

	res := p.Decode(ctx, domain.RawDocument{HTML: card("Ann", "Lee") + card("Bob", "Ray") + card("Cy", "Tan")})
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Ann", res.Leads[0].PersonName.FirstName)
}

func TestCheck(t *testing.T) {
	ph := config.Placeholders{Location: "Location not specified"}
	valid := domain.ExtractedLead{
		PersonName:   domain.PersonName{FirstName: "Ann", LastName: "Lee"},
		BusinessName: "Lee Plumbing",
		Email:        "ann@example.com",
		Location:     "Leeds",
	}
	ok, why := Check(valid, ph)
	assert.True(t, ok)
	assert.Empty(t, why)

	tests := []struct {
		name   string
		mutate func(l *domain.ExtractedLead)
		reason string
	}{
		{"default name", func(l *domain.ExtractedLead) {
			l.PersonName = domain.PersonName{FirstName: "Unknown", LastName: "Provider"}
		}, ReasonDefaultName},
		{"short business", func(l *domain.ExtractedLead) { l.BusinessName = " AB " }, ReasonBusinessName},
		{"no contact", func(l *domain.ExtractedLead) {
			l.Email = ""
			l.Phones = domain.Phones{Mobile: "+1 (555) 123-4567"}
		}, ReasonNoContact},
		{"placeholder location", func(l *domain.ExtractedLead) { l.Location = "Location not specified" }, ReasonLocation},
		{"empty location", func(l *domain.ExtractedLead) { l.Location = "  " }, ReasonLocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid
			tt.mutate(&l)
			ok, why := Check(l, ph)
			assert.False(t, ok)
			assert.Equal(t, tt.reason, why)
			assert.False(t, IsValid(l, ph))
		})
	}

	// the default pair is rejected whatever else is present
	full := valid
	full.PersonName = domain.PersonName{FirstName: "Unknown", LastName: "Provider"}
	full.Phones.Primary = "+1 (555) 123-4567"
	assert.False(t, IsValid(full, ph))
}

func TestSourceID_Stable(t *testing.T) {
	a := domain.ExtractedLead{PersonName: domain.PersonName{FirstName: "Ann", LastName: "Lee"}, Email: "A@x.com"}
	b := a
	b.Email = " a@x.com "
	b.Description = "different description"
	assert.Equal(t, SourceID("bark", a), SourceID("bark", b))
	assert.NotEqual(t, SourceID("bark", a), SourceID("inbox", a))
}
