package decode

import (
	"strings"

	"leadhunt-engine/internal/domain"
)

const (
	DefaultFirstName = "Unknown"
	DefaultLastName  = "Provider"
)

var honorifics = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
}

var businessSuffixes = map[string]bool{
	"ltd": true, "inc": true, "llc": true, "corp": true, "co": true,
	"company": true, "services": true, "solutions": true, "group": true,
}

func nameKey(tok string) string {
	return strings.ToLower(strings.Trim(tok, ".,;:"))
}

// SplitFullName decomposes a display name into first and last name after
// dropping honorifics and business suffixes. "Dr. John A. Smith Ltd" gives
// John / "A. Smith".
func SplitFullName(full string) domain.PersonName {
	var toks []string
	for _, tok := range strings.Fields(CleanText(full)) {
		k := nameKey(tok)
		if k == "" || honorifics[k] || businessSuffixes[k] {
			continue
		}
		toks = append(toks, strings.TrimRight(tok, ",;:"))
	}

	switch len(toks) {
	case 0:
		return domain.PersonName{FirstName: DefaultFirstName, LastName: DefaultLastName}
	case 1:
		return domain.PersonName{FirstName: toks[0], LastName: DefaultLastName}
	default:
		return domain.PersonName{FirstName: toks[0], LastName: strings.Join(toks[1:], " ")}
	}
}

// IsDefaultName reports whether extraction fell through to the placeholder pair.
func IsDefaultName(n domain.PersonName) bool {
	return n.FirstName == DefaultFirstName && n.LastName == DefaultLastName
}
