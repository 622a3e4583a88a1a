// Package crm pushes accepted leads to an external CRM.
package crm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/domain"
)

const (
	leadObject       = "Lead"
	maxDescription   = 32000
	defaultLeadState = "Open - Not Contacted"
)

// SalesforceSink creates Salesforce Lead records from contact fields.
//
// go-salesforce does not take a context, so ctx only bounds the rate limiter
// wait.
type SalesforceSink struct {
	sf         *salesforce.Salesforce
	limiter    *rate.Limiter
	leadStatus string
}

// NewSalesforceSink authenticates with the JWT bearer flow.
func NewSalesforceSink(cfg config.SalesforceConfig) (*SalesforceSink, error) {
	if cfg.ClientID == "" {
		return nil, eris.New("salesforce: client_id is required")
	}
	pemData, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "salesforce: read JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.LoginURL,
		Username:       cfg.Username,
		ConsumerKey:    cfg.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "salesforce: init")
	}
	return newSink(sf, cfg), nil
}

func newSink(sf *salesforce.Salesforce, cfg config.SalesforceConfig) *SalesforceSink {
	s := &SalesforceSink{sf: sf, leadStatus: cfg.LeadStatus}
	if s.leadStatus == "" {
		s.leadStatus = defaultLeadState
	}
	if cfg.RatePerSec > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(int(cfg.RatePerSec), 1))
	}
	return s
}

func (s *SalesforceSink) wait(ctx context.Context) error {
	if s.limiter == nil {
		return ctx.Err()
	}
	return s.limiter.Wait(ctx)
}

type leadRow struct {
	ID string `json:"Id" salesforce:"Id"`
}

// CreateContact inserts a Lead. A Lead with the same email (or, without an
// email, the same name and company) is reported as domain.ErrDuplicateContact.
func (s *SalesforceSink) CreateContact(ctx context.Context, f domain.ContactFields) (domain.Contact, error) {
	dup, err := s.exists(ctx, f)
	if err != nil {
		return domain.Contact{}, err
	}
	if dup {
		return domain.Contact{}, domain.ErrDuplicateContact
	}

	if err := s.wait(ctx); err != nil {
		return domain.Contact{}, eris.Wrap(err, "salesforce: rate limit")
	}
	res, err := s.sf.InsertOne(leadObject, leadRecord(f, s.leadStatus))
	if err != nil {
		return domain.Contact{}, eris.Wrap(err, "salesforce: insert lead")
	}
	if !res.Success {
		return domain.Contact{}, eris.New(fmt.Sprintf("salesforce: insert lead failed: %v", res.Errors))
	}

	return domain.Contact{
		ID:             res.Id,
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
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func (s *SalesforceSink) exists(ctx context.Context, f domain.ContactFields) (bool, error) {
	var where string
	switch {
	case f.Email != "":
		where = fmt.Sprintf("Email = '%s'", soqlEscape(f.Email))
	case f.Company != "":
		where = fmt.Sprintf("LastName = '%s' AND Company = '%s'", soqlEscape(f.LastName), soqlEscape(f.Company))
	default:
		return false, nil
	}

	if err := s.wait(ctx); err != nil {
		return false, eris.Wrap(err, "salesforce: rate limit")
	}
	var rows []leadRow
	if err := s.sf.Query("SELECT Id FROM Lead WHERE "+where+" LIMIT 1", &rows); err != nil {
		return false, eris.Wrap(err, "salesforce: query lead")
	}
	return len(rows) > 0, nil
}

func leadRecord(f domain.ContactFields, status string) map[string]any {
	company := f.Company
	if company == "" {
		company = f.FirstName + " " + f.LastName
	}
	desc := f.Notes
	if len(f.Tags) > 0 {
		desc += "\nTags: " + strings.Join(f.Tags, ", ")
	}
	if len(desc) > maxDescription {
		desc = desc[:maxDescription]
	}

	rec := map[string]any{
		"FirstName":   f.FirstName,
		"LastName":    f.LastName,
		"Company":     company,
		"Title":       f.Role,
		"LeadSource":  f.Source,
		"Status":      status,
		"Description": desc,
	}
	if f.Email != "" {
		rec["Email"] = f.Email
	}
	if f.Phone != "" {
		rec["Phone"] = f.Phone
	}
	if f.SourceURL != "" {
		rec["Website"] = f.SourceURL
	}
	return rec
}

var soqlReplacer = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func soqlEscape(s string) string { return soqlReplacer.Replace(s) }
