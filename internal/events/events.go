package events

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"leadhunt-engine/internal/domain"
)

const (
	TypePing           = "ping"
	TypeContactCreated = "contact_created"
	TypeContactDeleted = "contact_deleted"
	TypeInboxRun       = "inbox_run"
	TypeLocaleUpdated  = "locale_updated"
)

// schemaVersion is bumped when a payload changes shape.
const schemaVersion = 1

// Event is the JSON envelope every SSE message carries.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func New(typ string, data any) Event {
	e := Event{Type: typ, Version: schemaVersion, At: time.Now().UTC()}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			zap.L().Warn("events: payload dropped", zap.String("type", typ), zap.Error(err))
		} else {
			e.Data = b
		}
	}
	return e
}

func (e Event) WithRequest(id string) Event {
	e.RequestID = id
	return e
}

func (e Event) String() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// ContactSummary is the payload of contact events.
type ContactSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	Company        string `json:"company,omitempty"`
	LeadScore      int    `json:"leadScore,omitempty"`
	EstimatedValue string `json:"estimatedValue,omitempty"`
}

func ContactCreated(c domain.Contact) Event {
	return New(TypeContactCreated, ContactSummary{
		ID:             c.ID,
		Name:           strings.TrimSpace(c.FirstName + " " + c.LastName),
		Company:        c.Company,
		LeadScore:      c.LeadScore,
		EstimatedValue: c.EstimatedValue,
	})
}

func ContactDeleted(id string) Event {
	return New(TypeContactDeleted, ContactSummary{ID: id})
}

func LocaleUpdated(name string) Event {
	return New(TypeLocaleUpdated, map[string]string{"name": name})
}
