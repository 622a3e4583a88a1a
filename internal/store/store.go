package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"leadhunt-engine/internal/domain"
)

var (
	ErrNotFound         = errors.New("contact not found")
	ErrDuplicateContact = domain.ErrDuplicateContact
)

// Store is a contact store. Both the sqlite and postgres stores implement it.
type Store interface {
	Migrate(ctx context.Context) error
	CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error)
	GetContact(ctx context.Context, id string) (domain.Contact, error)
	ListContacts(ctx context.Context, opts ListOpts) ([]domain.Contact, error)
	DeleteContact(ctx context.Context, id string) error
	CleanupOldContacts(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

type ListOpts struct {
	Sort   string // score | date | company | name
	Window string // 24h | 7d | all
	Limit  int
}

const (
	defaultListLimit = 500
	maxListLimit     = 2000
)

// orderBy whitelists sort keys so they can be spliced into SQL.
func (o ListOpts) orderBy() string {
	switch o.Sort {
	case "date":
		return "created_at DESC"
	case "company":
		return "company ASC, created_at DESC"
	case "name":
		return "last_name ASC, first_name ASC"
	default:
		return "lead_score DESC, created_at DESC"
	}
}

// since returns the window cutoff, or zero for "all".
func (o ListOpts) since(now time.Time) time.Time {
	switch o.Window {
	case "24h":
		return now.Add(-24 * time.Hour)
	case "7d":
		return now.Add(-7 * 24 * time.Hour)
	default:
		return time.Time{}
	}
}

func (o ListOpts) limit() int {
	if o.Limit <= 0 {
		return defaultListLimit
	}
	if o.Limit > maxListLimit {
		return maxListLimit
	}
	return o.Limit
}

func normalizeFields(f domain.ContactFields) domain.ContactFields {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.TrimSpace(f.Email)
	f.Company = strings.TrimSpace(f.Company)
	if f.Role == "" {
		f.Role = domain.ContactRoleOwner
	}
	if f.Status == "" {
		f.Status = domain.ContactStatusNew
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}
	f.SourceID = strings.TrimSpace(f.SourceID)
	return f
}

func contactFromFields(id string, f domain.ContactFields, created time.Time) domain.Contact {
	return domain.Contact{
		ID:             id,
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		Email:          f.Email,
		Phone:          f.Phone,
		Company:        f.Company,
		Role:           f.Role,
		Source:         f.Source,
		Status:         f.Status,
		Notes:          f.Notes,
		Tags:           f.Tags,
		LeadScore:      f.LeadScore,
		EstimatedValue: f.EstimatedValue,
		SourceURL:      f.SourceURL,
		SourceID:       f.SourceID,
		CreatedAt:      created,
	}
}

const contactColumns = `id, first_name, last_name, email, phone, company, role, source, status, notes, tags, lead_score, estimated_value, source_url, source_id, created_at`
