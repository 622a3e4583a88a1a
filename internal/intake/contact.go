package intake

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/decode"
	"leadhunt-engine/internal/domain"
)

const maxTagServices = 3

// ContactFromLead maps an accepted lead onto contact fields.
func ContactFromLead(lead domain.ExtractedLead, source string, loc config.Locale) domain.ContactFields {
	return domain.ContactFields{
		FirstName:      lead.PersonName.FirstName,
		LastName:       lead.PersonName.LastName,
		Email:          strings.TrimSpace(lead.Email),
		Phone:          lead.Phones.Best(),
		Company:        lead.BusinessName,
		Role:           domain.ContactRoleOwner,
		Source:         source,
		Status:         domain.ContactStatusNew,
		Notes:          contactNotes(lead, loc),
		Tags:           contactTags(lead, source),
		LeadScore:      lead.LeadScore,
		EstimatedValue: lead.EstimatedValue,
		SourceURL:      lead.SourceURL,
		SourceID:       SourceID(source, lead),
	}
}

// SourceID is the dedupe key for a lead: the same person, business and
// contact details from the same source hash to the same id.
func SourceID(source string, lead domain.ExtractedLead) string {
	parts := []string{
		"lead",
		source,
		lead.PersonName.FirstName,
		lead.PersonName.LastName,
		lead.BusinessName,
		lead.Phones.Best(),
		lead.Email,
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return hashString(strings.Join(parts, "|"))
}

func contactNotes(lead domain.ExtractedLead, loc config.Locale) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	if d := strings.TrimSpace(lead.Description); d != "" {
		add("Description: %s", d)
	}
	add("Rating: %.1f/5 (%d reviews)", lead.Rating, lead.ReviewCount)
	if len(lead.Services) > 0 {
		add("Services: %s", strings.Join(lead.Services, ", "))
	}
	add("Verification: %s", lead.VerificationStatus)
	add("Location: %s", lead.Location)

	if lead.Phones.Any() {
		var ph []string
		for _, slot := range []struct{ label, num string }{
			{"primary", lead.Phones.Primary},
			{"mobile", lead.Phones.Mobile},
			{"landline", lead.Phones.Landline},
		} {
			if slot.num != "" {
				ph = append(ph, slot.label+" "+slot.num)
			}
		}
		add("Phones: %s", strings.Join(ph, ", "))

		if region := loc.AreaRegion(decode.NationalNumber(lead.Phones.Best(), loc.Phone)); region != "" {
			add("Phone region: %s", region)
		}
	}

	if lead.ResponseTime != "" {
		add("Response time: %s", lead.ResponseTime)
	}
	if lead.JoinedDate != "" {
		add("Member since: %s", lead.JoinedDate)
	}
	add("Lead score: %d | Estimated value: %s", lead.LeadScore, lead.EstimatedValue)
	if lead.SourceURL != "" {
		add("Source: %s", lead.SourceURL)
	}
	return strings.Join(lines, "\n")
}

func contactTags(lead domain.ExtractedLead, source string) []string {
	tags := []string{lead.Category, source, strings.ToLower(lead.VerificationStatus)}
	for i, s := range lead.Services {
		if i == maxTagServices {
			break
		}
		tags = append(tags, s)
	}

	out := tags[:0]
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func hashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
