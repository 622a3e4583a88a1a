package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of the locale plus the
// problems found in it.
func NormalizeAndValidate(loc Locale) (Locale, Validation) {
	var out = loc
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.ToLower(strings.TrimSpace(x))
			if x == "" || seen[x] {
				continue
			}
			seen[x] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Name = strings.ToLower(strings.TrimSpace(out.Name))
	out.CurrencySymbol = strings.TrimSpace(out.CurrencySymbol)
	out.HighValueCategories = trimList(out.HighValueCategories)

	// keep priority order, drop blanks and repeated keywords
	seen := map[string]bool{}
	mults := make([]CategoryMultiplier, 0, len(out.CategoryMultipliers))
	for i, m := range out.CategoryMultipliers {
		kw := strings.ToLower(strings.TrimSpace(m.Keyword))
		if kw == "" {
			res.addErr("category_multipliers[%d].keyword cannot be empty", i)
			continue
		}
		if m.Multiplier <= 0 {
			res.addErr("category_multipliers[%d].multiplier must be > 0", i)
		} else if m.Multiplier > 5 {
			res.addWarn("category_multipliers[%d] (%s) multiplier %.2f is unusually high", i, kw, m.Multiplier)
		}
		if seen[kw] {
			res.addWarn("category keyword %q listed twice; the first entry wins", kw)
			continue
		}
		seen[kw] = true
		mults = append(mults, CategoryMultiplier{Keyword: kw, Multiplier: m.Multiplier})
	}
	out.CategoryMultipliers = mults

	codes := make(map[string]string, len(out.AreaCodes))
	for k, v := range out.AreaCodes {
		k = strings.TrimSpace(k)
		if k == "" || strings.Trim(k, "0123456789") != "" {
			res.addErr("area_codes key %q must be digits", k)
			continue
		}
		codes[k] = strings.TrimSpace(v)
	}
	out.AreaCodes = codes

	// ---- Validation rules ----

	if out.Name == "" {
		res.addErr("name is required")
	}
	if out.CurrencySymbol == "" {
		res.addErr("currency_symbol is required")
	}
	if out.BaseValue <= 0 {
		res.addErr("base_value must be > 0")
	}

	p := out.Phone
	if p.CountryCode == "" || strings.Trim(p.CountryCode, "0123456789") != "" {
		res.addErr("phone.country_code must be digits")
	}
	if p.NationalLength < 6 || p.NationalLength > 12 {
		res.addErr("phone.national_length must be 6..12")
	}
	if n := strings.Count(p.Layout, "#"); n != p.NationalLength {
		res.addErr("phone.layout has %d digit slots, national_length is %d", n, p.NationalLength)
	}
	if p.TrunkPrefix != "" && strings.Trim(p.TrunkPrefix, "0123456789") != "" {
		res.addErr("phone.trunk_prefix must be digits")
	}

	if strings.TrimSpace(out.Placeholders.Location) == "" {
		res.addErr("placeholders.location is required")
	}
	if strings.TrimSpace(out.Placeholders.Category) == "" {
		res.addErr("placeholders.category is required")
	}
	if strings.TrimSpace(out.Placeholders.Business) == "" {
		res.addErr("placeholders.business is required")
	}
	if out.Placeholders.Rating < 0 || out.Placeholders.Rating > 5 {
		res.addErr("placeholders.rating must be 0..5")
	}

	if len(out.CategoryMultipliers) == 0 {
		res.addWarn("category_multipliers is empty; every lead is valued at the base value.")
	}
	if len(out.HighValueCategories) == 0 {
		res.addWarn("high_value_categories is empty; no category bonus will be scored.")
	}

	return out, res
}
