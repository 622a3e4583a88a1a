package config

import (
	"strings"
)

// Locale parameterizes the decoder for one market: phone shape, currency and
// the lookup tables used by scoring and valuation.
type Locale struct {
	Name           string  `yaml:"name" json:"name"`
	Language       string  `yaml:"language" json:"language"` // BCP 47, drives digit grouping
	CurrencySymbol string  `yaml:"currency_symbol" json:"currencySymbol"`
	BaseValue      float64 `yaml:"base_value" json:"baseValue"`

	Phone PhoneFormat `yaml:"phone" json:"phone"`

	// First matching keyword wins, so order matters.
	CategoryMultipliers []CategoryMultiplier `yaml:"category_multipliers" json:"categoryMultipliers"`
	HighValueCategories []string             `yaml:"high_value_categories" json:"highValueCategories"`

	// AreaCodes maps a national-number prefix to a region label used in contact notes.
	AreaCodes map[string]string `yaml:"area_codes" json:"areaCodes"`

	Placeholders Placeholders `yaml:"placeholders" json:"placeholders"`
}

type PhoneFormat struct {
	CountryCode    string `yaml:"country_code" json:"countryCode"`
	NationalLength int    `yaml:"national_length" json:"nationalLength"`
	TrunkPrefix    string `yaml:"trunk_prefix" json:"trunkPrefix"`
	// Layout has one '#' per national digit, e.g. "+1 (###) ###-####".
	Layout string `yaml:"layout" json:"layout"`
}

type CategoryMultiplier struct {
	Keyword    string  `yaml:"keyword" json:"keyword"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// Placeholders are the defaults the extractor falls back to.
type Placeholders struct {
	Location string  `yaml:"location" json:"location"`
	Category string  `yaml:"category" json:"category"`
	Business string  `yaml:"business" json:"business"`
	Rating   float64 `yaml:"rating" json:"rating"`
}

// AreaRegion returns the region for the longest matching prefix of a
// national number, or "".
func (l Locale) AreaRegion(national string) string {
	for n := 5; n >= 1; n-- {
		if len(national) < n {
			continue
		}
		if r, ok := l.AreaCodes[national[:n]]; ok {
			return r
		}
	}
	return ""
}

var defaultPlaceholders = Placeholders{
	Location: "Location not specified",
	Category: "General Services",
	Business: "Unknown Business",
	Rating:   3.0,
}

func defaultMultipliers() []CategoryMultiplier {
	return []CategoryMultiplier{
		{Keyword: "legal", Multiplier: 1.8},
		{Keyword: "accounting", Multiplier: 1.6},
		{Keyword: "financial", Multiplier: 1.6},
		{Keyword: "software", Multiplier: 1.6},
		{Keyword: "it services", Multiplier: 1.5},
		{Keyword: "consult", Multiplier: 1.5},
		{Keyword: "business services", Multiplier: 1.5},
		{Keyword: "professional services", Multiplier: 1.5},
		{Keyword: "marketing", Multiplier: 1.4},
		{Keyword: "web design", Multiplier: 1.3},
		{Keyword: "construction", Multiplier: 1.3},
		{Keyword: "home improvement", Multiplier: 1.2},
		{Keyword: "photography", Multiplier: 0.9},
		{Keyword: "cleaning", Multiplier: 0.8},
		{Keyword: "fitness", Multiplier: 0.8},
		{Keyword: "tutoring", Multiplier: 0.7},
	}
}

func defaultHighValue() []string {
	return []string{"business services", "marketing", "consultancy", "consulting", "professional services"}
}

// BuiltinLocale returns a fresh copy of a bundled locale ("us" or "uk").
func BuiltinLocale(name string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "us", "en-us":
		return Locale{
			Name:           "us",
			Language:       "en-US",
			CurrencySymbol: "$",
			BaseValue:      1500,
			Phone: PhoneFormat{
				CountryCode:    "1",
				NationalLength: 10,
				Layout:         "+1 (###) ###-####",
			},
			CategoryMultipliers: defaultMultipliers(),
			HighValueCategories: defaultHighValue(),
			AreaCodes: map[string]string{
				"206": "Seattle, WA",
				"212": "New York, NY",
				"213": "Los Angeles, CA",
				"214": "Dallas, TX",
				"305": "Miami, FL",
				"312": "Chicago, IL",
				"404": "Atlanta, GA",
				"415": "San Francisco, CA",
				"512": "Austin, TX",
				"602": "Phoenix, AZ",
				"617": "Boston, MA",
				"702": "Las Vegas, NV",
			},
			Placeholders: defaultPlaceholders,
		}, true
	case "uk", "gb", "en-gb":
		return Locale{
			Name:           "uk",
			Language:       "en-GB",
			CurrencySymbol: "£",
			BaseValue:      1000,
			Phone: PhoneFormat{
				CountryCode:    "44",
				NationalLength: 10,
				TrunkPrefix:    "0",
				Layout:         "+44 #### ######",
			},
			CategoryMultipliers: defaultMultipliers(),
			HighValueCategories: defaultHighValue(),
			AreaCodes: map[string]string{
				"20":  "London",
				"113": "Leeds",
				"117": "Bristol",
				"121": "Birmingham",
				"131": "Edinburgh",
				"141": "Glasgow",
				"151": "Liverpool",
				"161": "Manchester",
				"7":   "Mobile",
			},
			Placeholders: defaultPlaceholders,
		}, true
	}
	return Locale{}, false
}
