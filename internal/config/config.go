package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/swe-students-fall2025/5-final-superfunteam/internal/domain"
)

const (
	envPrefix            = "CROWDSTATUS"
	defaultHTTPAddress   = "0.0.0.0:8080"
	defaultEnvironment   = EnvironmentDevelopment
	defaultVariant       = "printers"
	defaultDatabaseDSN   = "crowdstatus.db"
	defaultLogLevel      = "info"
	defaultCookieName    = "crowdstatus_session"
	defaultSessionTTL    = 720
	defaultSSOAllowed    = "nyu.edu"
	defaultReportRate    = 1.0
	defaultReportBurst   = 5
	defaultMaxOpenConns  = 10
	defaultMaxIdleConns  = 5
	defaultConnLifetime  = 30
	defaultSSOIssuer     = "https://shibboleth.nyu.edu"
	defaultSSOReplayTTL  = 10
	minimumSecretLength  = 16
	developmentSecretKey = "dev-secret-key-change-in-production"
)

const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

// AppConfig captures runtime configuration for the API server and tools.
type AppConfig struct {
	HTTPAddress    string
	Environment    string
	Variant        domain.Variant
	AllowedOrigins []string
	ReportRate     float64
	ReportBurst    int

	DatabaseDSN            string
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeMinutes int

	SessionSecret   string
	CookieName      string
	SessionTTL      time.Duration
	RequireIdentity bool
	AuthDebug       bool

	SSOJWKSURL       string
	SSOAudience      string
	SSOIssuers       []string
	SSOStrict        bool
	SSOAllowedDomain string
	SSOReplayTTL     time.Duration

	LogLevel string
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
	configViper.SetDefault("http.allowed_origins", []string{"*"})
	configViper.SetDefault("http.report_rate_per_sec", defaultReportRate)
	configViper.SetDefault("http.report_burst", defaultReportBurst)
	configViper.SetDefault("app.env", defaultEnvironment)
	configViper.SetDefault("app.variant", defaultVariant)
	configViper.SetDefault("database.dsn", defaultDatabaseDSN)
	configViper.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	configViper.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	configViper.SetDefault("database.conn_max_lifetime_minutes", defaultConnLifetime)
	configViper.SetDefault("auth.cookie_name", defaultCookieName)
	configViper.SetDefault("auth.session_ttl_minutes", defaultSessionTTL)
	configViper.SetDefault("auth.debug", false)
	configViper.SetDefault("auth.sso.issuers", []string{defaultSSOIssuer})
	configViper.SetDefault("auth.sso.strict", true)
	configViper.SetDefault("auth.sso.allowed_domain", defaultSSOAllowed)
	configViper.SetDefault("auth.sso.replay_ttl_minutes", defaultSSOReplayTTL)
	configViper.SetDefault("log.level", defaultLogLevel)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	variant, err := domain.ParseVariant(configViper.GetString("app.variant"))
	if err != nil {
		return AppConfig{}, fmt.Errorf("app.variant: %w", err)
	}

	requireIdentity := !variant.AnonymousReportsByDefault()
	if configViper.IsSet("auth.require_identity") {
		requireIdentity = configViper.GetBool("auth.require_identity")
	}

	cfg := AppConfig{
		HTTPAddress:    configViper.GetString("http.address"),
		Environment:    strings.ToLower(strings.TrimSpace(configViper.GetString("app.env"))),
		Variant:        variant,
		AllowedOrigins: configViper.GetStringSlice("http.allowed_origins"),
		ReportRate:     configViper.GetFloat64("http.report_rate_per_sec"),
		ReportBurst:    configViper.GetInt("http.report_burst"),

		DatabaseDSN:            configViper.GetString("database.dsn"),
		MaxOpenConns:           configViper.GetInt("database.max_open_conns"),
		MaxIdleConns:           configViper.GetInt("database.max_idle_conns"),
		ConnMaxLifetimeMinutes: configViper.GetInt("database.conn_max_lifetime_minutes"),

		SessionSecret:   configViper.GetString("auth.session_secret"),
		CookieName:      configViper.GetString("auth.cookie_name"),
		SessionTTL:      time.Duration(configViper.GetInt("auth.session_ttl_minutes")) * time.Minute,
		RequireIdentity: requireIdentity,
		AuthDebug:       configViper.GetBool("auth.debug"),

		SSOJWKSURL:       configViper.GetString("auth.sso.jwks_url"),
		SSOAudience:      configViper.GetString("auth.sso.audience"),
		SSOIssuers:       configViper.GetStringSlice("auth.sso.issuers"),
		SSOStrict:        configViper.GetBool("auth.sso.strict"),
		SSOAllowedDomain: configViper.GetString("auth.sso.allowed_domain"),
		SSOReplayTTL:     time.Duration(configViper.GetInt("auth.sso.replay_ttl_minutes")) * time.Minute,

		LogLevel: configViper.GetString("log.level"),
	}

	if strings.TrimSpace(cfg.SessionSecret) == "" && !cfg.IsProduction() {
		cfg.SessionSecret = developmentSecretKey
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the deployment runs in production mode.
func (c AppConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// DevLoginEnabled reports whether the debug login endpoint may be mounted.
func (c AppConfig) DevLoginEnabled() bool {
	return c.AuthDebug && !c.IsProduction()
}

// SSOEnabled reports whether enough SSO settings exist to verify assertions.
func (c AppConfig) SSOEnabled() bool {
	return strings.TrimSpace(c.SSOJWKSURL) != "" && strings.TrimSpace(c.SSOAudience) != ""
}

func (c AppConfig) validate() error {
	switch c.Environment {
	case EnvironmentDevelopment, EnvironmentProduction, EnvironmentTest:
	default:
		return fmt.Errorf("app.env must be one of development, production, test")
	}
	if strings.TrimSpace(c.HTTPAddress) == "" {
		return fmt.Errorf("http.address is required")
	}
	if strings.TrimSpace(c.DatabaseDSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if strings.TrimSpace(c.CookieName) == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl_minutes must be positive")
	}
	if c.IsProduction() {
		if len(strings.TrimSpace(c.SessionSecret)) < minimumSecretLength {
			return fmt.Errorf("auth.session_secret must be at least %d characters in production", minimumSecretLength)
		}
		if c.SessionSecret == developmentSecretKey {
			return fmt.Errorf("auth.session_secret must not use the development default in production")
		}
	}
	if c.ReportRate <= 0 {
		return fmt.Errorf("http.report_rate_per_sec must be positive")
	}
	if c.ReportBurst <= 0 {
		return fmt.Errorf("http.report_burst must be positive")
	}
	if c.SSOStrict && strings.TrimSpace(c.SSOAllowedDomain) == "" {
		return fmt.Errorf("auth.sso.allowed_domain is required when auth.sso.strict is set")
	}
	return nil
}
