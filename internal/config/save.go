package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Validate checks the settings the engine cannot start without.
func Validate(cfg Config) error {
	var errs []string

	switch cfg.Store.Driver {
	case "sqlite":
		if strings.TrimSpace(cfg.Store.Path) == "" {
			errs = append(errs, "store.path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(cfg.Store.DatabaseURL) == "" {
			errs = append(errs, "store.database_url is required for the postgres driver")
		}
	case "salesforce":
		if cfg.Salesforce.ClientID == "" || cfg.Salesforce.Username == "" || cfg.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.client_id, username and key_path are required for the salesforce driver")
		}
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or salesforce")
	}

	if cfg.Pipeline.ExtractWorkers < 1 {
		errs = append(errs, "pipeline.extract_workers must be >= 1")
	}
	if cfg.Pipeline.DocumentTimeoutSecs < 0 {
		errs = append(errs, "pipeline.document_timeout_secs must be >= 0")
	}
	if strings.TrimSpace(cfg.Pipeline.Source) == "" {
		errs = append(errs, "pipeline.source is required")
	}
	if _, ok := BuiltinLocale(cfg.Pipeline.Locale); !ok {
		errs = append(errs, "pipeline.locale must be us or uk")
	}
	if cfg.Pipeline.PhoneProximity < 0 {
		errs = append(errs, "pipeline.phone_proximity must be >= 0")
	}

	if cfg.Inbox.Enabled {
		if strings.TrimSpace(cfg.Inbox.IMAPHost) == "" {
			errs = append(errs, "inbox.imap_host is required when inbox.enabled=true")
		}
		if strings.TrimSpace(cfg.Inbox.Username) == "" {
			errs = append(errs, "inbox.username is required when inbox.enabled=true")
		}
		if cfg.Inbox.PollSeconds <= 0 {
			errs = append(errs, "inbox.poll_seconds must be > 0")
		}
	}

	if cfg.Fetch.RatePerSec < 0 {
		errs = append(errs, "fetch.rate_per_sec must be >= 0")
	}

	if len(errs) > 0 {
		return eris.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

// SaveLocaleAtomic validates and writes a locale file, keeping the previous
// version as path.bak.
func SaveLocaleAtomic(path string, loc Locale) error {
	normalized, vr := NormalizeAndValidate(loc)
	if !vr.OK() {
		return eris.New("locale validation failed:\n- " + joinLines(vr.Errors))
	}

	b, err := yaml.Marshal(&normalized)
	if err != nil {
		return eris.Wrap(err, "config: marshal locale")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "config: mkdir %s", dir)
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return eris.Wrap(err, "config: write locale")
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return eris.Wrap(os.Rename(tmp, path), "config: replace locale")
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n- ")
}
