package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	DocumentsTotal    prometheus.Counter
	CardsTotal        prometheus.Counter
	LeadsRejected     *prometheus.CounterVec
	ContactsStored    prometheus.Counter
	ContactsDuplicate prometheus.Counter
	ContactsFailed    prometheus.Counter
	LeadScore         prometheus.Histogram

	InboxMessages *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		DocumentsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "leadhunt_documents_total",
			Help: "Documents decoded.",
		}),
		CardsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "leadhunt_cards_total",
			Help: "Provider cards found across all documents.",
		}),
		LeadsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadhunt_leads_rejected_total",
			Help: "Leads dropped by validation.",
		}, []string{"reason"}),
		ContactsStored: f.NewCounter(prometheus.CounterOpts{
			Name: "leadhunt_contacts_stored_total",
			Help: "Contacts created from accepted leads.",
		}),
		ContactsDuplicate: f.NewCounter(prometheus.CounterOpts{
			Name: "leadhunt_contacts_duplicate_total",
			Help: "Accepted leads skipped because the contact already exists.",
		}),
		ContactsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "leadhunt_contacts_failed_total",
			Help: "Contact writes that failed.",
		}),
		LeadScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadhunt_lead_score",
			Help:    "Score of stored leads.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		InboxMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadhunt_inbox_messages_total",
			Help: "Inbox messages handled.",
		}, []string{"status"}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadhunt_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leadhunt_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) DocumentDecoded(cards int) {
	if m == nil {
		return
	}
	m.DocumentsTotal.Inc()
	m.CardsTotal.Add(float64(cards))
}

func (m *Metrics) LeadRejected(reason string) {
	if m == nil {
		return
	}
	m.LeadsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ContactStored(score int) {
	if m == nil {
		return
	}
	m.ContactsStored.Inc()
	m.LeadScore.Observe(float64(score))
}

func (m *Metrics) ContactDuplicate() {
	if m == nil {
		return
	}
	m.ContactsDuplicate.Inc()
}

func (m *Metrics) ContactFailed() {
	if m == nil {
		return
	}
	m.ContactsFailed.Inc()
}

func (m *Metrics) InboxMessage(status string) {
	if m == nil {
		return
	}
	m.InboxMessages.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(seconds)
}
