package intake

import (
	"strings"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/decode"
	"leadhunt-engine/internal/domain"
)

// Rejection reasons, also used as metric labels.
const (
	ReasonDefaultName  = "default_name"
	ReasonBusinessName = "business_name"
	ReasonNoContact    = "no_contact"
	ReasonLocation     = "location"
)

// Check reports whether a lead looks like a real listing, and if not, why.
func Check(lead domain.ExtractedLead, ph config.Placeholders) (ok bool, reason string) {
	// 1) extraction fell through to the placeholder name
	if decode.IsDefaultName(lead.PersonName) {
		return false, ReasonDefaultName
	}

	// 2) business name must say something
	if len([]rune(strings.TrimSpace(lead.BusinessName))) <= 2 {
		return false, ReasonBusinessName
	}

	// 3) someone has to be reachable
	if lead.Phones.Primary == "" && strings.TrimSpace(lead.Email) == "" {
		return false, ReasonNoContact
	}

	// 4) a real location, not the placeholder
	loc := strings.TrimSpace(lead.Location)
	if loc == "" || strings.EqualFold(loc, ph.Location) {
		return false, ReasonLocation
	}

	return true, ""
}

func IsValid(lead domain.ExtractedLead, ph config.Placeholders) bool {
	ok, _ := Check(lead, ph)
	return ok
}
