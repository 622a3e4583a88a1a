package domain

import "time"

// RawDocument is one HTML page (or email body) handed to the decoder.
type RawDocument struct {
	HTML      string    `json:"html"`
	SourceURL string    `json:"url"`
	FetchedAt time.Time `json:"timestamp"`
}

const (
	VerificationVerified   = "Verified"
	VerificationUnverified = "Unverified"
)

type PersonName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func (n PersonName) Full() string {
	switch {
	case n.FirstName == "":
		return n.LastName
	case n.LastName == "":
		return n.FirstName
	}
	return n.FirstName + " " + n.LastName
}

// Phones holds canonical numbers; "" means the slot was not found.
type Phones struct {
	Primary  string `json:"primary,omitempty"`
	Mobile   string `json:"mobile,omitempty"`
	Landline string `json:"landline,omitempty"`
}

func (p Phones) Any() bool {
	return p.Primary != "" || p.Mobile != "" || p.Landline != ""
}

// Best returns primary, falling back to mobile then landline.
func (p Phones) Best() string {
	switch {
	case p.Primary != "":
		return p.Primary
	case p.Mobile != "":
		return p.Mobile
	}
	return p.Landline
}

// ExtractedLead is a provider listing decoded from one card.
// LeadScore and EstimatedValue are derived from the other fields and are set
// exactly once, right after extraction.
type ExtractedLead struct {
	PersonName         PersonName `json:"personName"`
	BusinessName       string     `json:"businessName"`
	Phones             Phones     `json:"phones"`
	Email              string     `json:"email,omitempty"`
	Location           string     `json:"location"`
	Category           string     `json:"category"`
	Rating             float64    `json:"rating"`
	ReviewCount        int        `json:"reviewCount"`
	Description        string     `json:"description"`
	Services           []string   `json:"services"`
	ResponseTime       string     `json:"responseTime,omitempty"`
	VerificationStatus string     `json:"verificationStatus"`
	JoinedDate         string     `json:"joinedDate,omitempty"`

	LeadScore      int    `json:"leadScore"`
	EstimatedValue string `json:"estimatedValue"`

	SourceURL string `json:"sourceUrl"`
	CardIndex int    `json:"cardIndex"`
}

func (l ExtractedLead) Verified() bool {
	return l.VerificationStatus == VerificationVerified
}
