package domain

import (
	"errors"
	"time"
)

// ErrDuplicateContact is returned by contact sinks when a contact with the
// same SourceID already exists.
var ErrDuplicateContact = errors.New("contact already exists")

const (
	ContactRoleOwner = "Business Owner"
	ContactStatusNew = "new"
)

// ContactFields is what the pipeline hands to a contact store.
type ContactFields struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	Company        string
	Role           string
	Source         string
	Status         string
	Notes          string
	Tags           []string
	LeadScore      int
	EstimatedValue string
	SourceURL      string
	SourceID       string
}

// Contact is a persisted CRM record.
type Contact struct {
	ID             string    `json:"id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company"`
	Role           string    `json:"role"`
	Source         string    `json:"source"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes"`
	Tags           []string  `json:"tags"`
	LeadScore      int       `json:"leadScore"`
	EstimatedValue string    `json:"estimatedValue"`
	SourceURL      string    `json:"sourceUrl"`
	SourceID       string    `json:"sourceId"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (c Contact) Name() string {
	return PersonName{FirstName: c.FirstName, LastName: c.LastName}.Full()
}
