package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix            = "WAYPOINT"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultDatabasePath  = "waypoint.db"
	defaultLogLevel      = "info"
	defaultSessionIssuer = "waypoint-auth"
	defaultTokenTTLMin   = 30
	defaultShareBaseURL  = "https://app.waypoint.example"
	defaultAutosaveMs    = 1500
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress       string
	DatabasePath      string
	LogLevel          string
	SessionSigningKey string
	SessionIssuer     string
	TokenSigningKey   string
	TokenTTL          time.Duration
	ShareBaseURL      string
	AutosaveDelay     time.Duration
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("session.issuer", defaultSessionIssuer)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMin)
	configViper.SetDefault("share.base_url", defaultShareBaseURL)
	configViper.SetDefault("autosave.delay_ms", defaultAutosaveMs)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:       configViper.GetString("http.address"),
		DatabasePath:      configViper.GetString("database.path"),
		LogLevel:          configViper.GetString("log.level"),
		SessionSigningKey: configViper.GetString("session.signing_secret"),
		SessionIssuer:     configViper.GetString("session.issuer"),
		TokenSigningKey:   configViper.GetString("token.signing_secret"),
		TokenTTL:          time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		ShareBaseURL:      configViper.GetString("share.base_url"),
		AutosaveDelay:     time.Duration(configViper.GetInt("autosave.delay_ms")) * time.Millisecond,
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSigningKey) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.TokenSigningKey) == "" {
		return fmt.Errorf("token.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.ShareBaseURL) == "" {
		return fmt.Errorf("share.base_url is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	if c.AutosaveDelay <= 0 {
		return fmt.Errorf("autosave.delay_ms must be positive")
	}
	return nil
}
