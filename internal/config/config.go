// internal/config/config.go
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the engine configuration.
type Config struct {
	App        AppConfig        `yaml:"app" mapstructure:"app"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Inbox      InboxConfig      `yaml:"inbox" mapstructure:"inbox"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
}

type AppConfig struct {
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// StoreConfig selects where accepted leads end up.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres | salesforce
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

type PipelineConfig struct {
	Source              string   `yaml:"source" mapstructure:"source"`
	Locale              string   `yaml:"locale" mapstructure:"locale"`
	LocaleFile          string   `yaml:"locale_file" mapstructure:"locale_file"`
	ExtractWorkers      int      `yaml:"extract_workers" mapstructure:"extract_workers"`
	DocumentTimeoutSecs int      `yaml:"document_timeout_secs" mapstructure:"document_timeout_secs"`
	CardMarkers         []string `yaml:"card_markers" mapstructure:"card_markers"`
	// PhoneProximity > 0 scopes mobile/office keywords to that many characters
	// before a number instead of the whole card.
	PhoneProximity int `yaml:"phone_proximity" mapstructure:"phone_proximity"`
}

// InboxConfig configures the IMAP lead-notification intake.
type InboxConfig struct {
	Enabled          bool     `yaml:"enabled" mapstructure:"enabled"`
	IMAPHost         string   `yaml:"imap_host" mapstructure:"imap_host"`
	IMAPPort         int      `yaml:"imap_port" mapstructure:"imap_port"`
	Username         string   `yaml:"username" mapstructure:"username"`
	Mailbox          string   `yaml:"mailbox" mapstructure:"mailbox"`
	AppPassword      string   `yaml:"app_password" mapstructure:"app_password"`
	SearchSubjectAny []string `yaml:"search_subject_any" mapstructure:"search_subject_any"`
	MaxMessages      int      `yaml:"max_messages" mapstructure:"max_messages"`
	PollSeconds      int      `yaml:"poll_seconds" mapstructure:"poll_seconds"`
}

type FetchConfig struct {
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
	MaxBytes    int64   `yaml:"max_bytes" mapstructure:"max_bytes"`
	Render      bool    `yaml:"render" mapstructure:"render"`
}

// SalesforceConfig holds Salesforce JWT auth settings for the salesforce store driver.
type SalesforceConfig struct {
	ClientID   string  `yaml:"client_id" mapstructure:"client_id"`
	Username   string  `yaml:"username" mapstructure:"username"`
	KeyPath    string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL   string  `yaml:"login_url" mapstructure:"login_url"`
	LeadStatus string  `yaml:"lead_status" mapstructure:"lead_status"`
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// DefaultCardMarkers are the class tokens that mark a provider card.
var DefaultCardMarkers = []string{"provider-card", "pro-card", "provider-listing", "service-provider"}

// Load reads configuration from an optional file and the environment.
// An empty path searches for config.yaml in the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("LEADHUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.data_dir", ".")
	v.SetDefault("app.addr", "127.0.0.1:38471")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "leadhunt.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("pipeline.source", "bark")
	v.SetDefault("pipeline.locale", "us")
	v.SetDefault("pipeline.locale_file", "locale.yml")
	v.SetDefault("pipeline.extract_workers", 4)
	v.SetDefault("pipeline.document_timeout_secs", 60)
	v.SetDefault("pipeline.card_markers", DefaultCardMarkers)
	v.SetDefault("pipeline.phone_proximity", 0)
	v.SetDefault("inbox.enabled", false)
	v.SetDefault("inbox.imap_host", "imap.gmail.com")
	v.SetDefault("inbox.imap_port", 993)
	v.SetDefault("inbox.username", "")
	v.SetDefault("inbox.mailbox", "INBOX")
	v.SetDefault("inbox.app_password", "")
	v.SetDefault("inbox.search_subject_any", []string{"new lead", "bark"})
	v.SetDefault("inbox.max_messages", 200)
	v.SetDefault("inbox.poll_seconds", 300)
	v.SetDefault("fetch.timeout_secs", 20)
	v.SetDefault("fetch.user_agent", "LeadHunt/1.0 (+local)")
	v.SetDefault("fetch.rate_per_sec", 1.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.max_bytes", 8<<20)
	v.SetDefault("fetch.render", false)
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.lead_status", "Open - Not Contacted")
	v.SetDefault("salesforce.rate_per_sec", 5.0)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
