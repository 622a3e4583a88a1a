// config/overlay.go
package config

import (
	"errors"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// OverlayLocale applies the keys present in a locale YAML file on top of loc.
func OverlayLocale(loc *Locale, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		// Missing locale file should not kill startup
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return eris.Wrapf(err, "config: read locale %s", path)
	}

	if err := yaml.Unmarshal(b, loc); err != nil {
		return eris.Wrapf(err, "config: parse locale %s", path)
	}
	return nil
}

// LoadLocale starts from the named built-in locale, overlays the file at
// path (if any) and validates the result.
func LoadLocale(name, path string) (Locale, error) {
	loc, ok := BuiltinLocale(name)
	if !ok {
		return Locale{}, eris.Errorf("config: unknown locale %q", name)
	}
	if path != "" {
		if err := OverlayLocale(&loc, path); err != nil {
			return Locale{}, err
		}
	}

	normalized, vr := NormalizeAndValidate(loc)
	if !vr.OK() {
		return Locale{}, eris.New("locale validation failed:\n- " + joinLines(vr.Errors))
	}
	return normalized, nil
}
