package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"leadhunt-engine/internal/config"
	"leadhunt-engine/internal/crm"
	"leadhunt-engine/internal/intake"
	"leadhunt-engine/internal/metrics"
	"leadhunt-engine/internal/store"
)

func dataDir() (string, error) {
	dir := cfg.App.DataDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "create data dir %s", dir)
	}
	return dir, nil
}

// openStore opens and migrates the contact store for the configured driver.
// The salesforce driver keeps a local sqlite copy that dedupes before leads
// are pushed.
func openStore(ctx context.Context, dir string) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		st, err = store.OpenSQLite(config.ResolvePath(dir, cfg.Store.Path))
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// contactSink returns where the pipeline writes accepted leads.
func contactSink(st store.Store) (intake.ContactCreator, error) {
	if cfg.Store.Driver != "salesforce" {
		return st, nil
	}
	sf, err := crm.NewSalesforceSink(cfg.Salesforce)
	if err != nil {
		return nil, err
	}
	zap.L().Info("engine: mirroring contacts to salesforce", zap.String("user", cfg.Salesforce.Username))
	return &crm.Mirror{Local: st, Remote: sf}, nil
}

// loadLocale makes sure an editable locale file exists and loads it. A
// non-empty override skips the file and uses that built-in locale as is.
func loadLocale(dir, override string) (config.Locale, string, error) {
	if override != "" {
		loc, err := config.LoadLocale(override, "")
		return loc, "", err
	}
	name := cfg.Pipeline.Locale
	path := config.ResolvePath(dir, cfg.Pipeline.LocaleFile)
	if path != "" {
		if _, err := config.EnsureLocaleFile(path, name); err != nil {
			return config.Locale{}, "", err
		}
	}
	loc, err := config.LoadLocale(name, path)
	if err != nil {
		return config.Locale{}, "", err
	}
	return loc, path, nil
}

func newPipeline(loc config.Locale, sink intake.ContactCreator, m *metrics.Metrics) *intake.Pipeline {
	return intake.NewPipeline(loc, cfg.Pipeline, sink, m)
}
