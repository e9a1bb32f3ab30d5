package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Backend   BackendConfig
	Auth      AuthConfig
	OIDC      OIDCConfig
	Session   SessionConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Telemetry TelemetryConfig
	Cart      CartConfig
	Pricing   PricingConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name       string
	Env        string
	Port       string
	APIVersion string
	// PublicURL is where shoppers reach the storefront; used for post-login redirects
	PublicURL string
}

// BackendConfig describes the remote REST backend
type BackendConfig struct {
	BaseURL          string
	Timeout          time.Duration
	MaxResponseBytes int64
}

// AuthConfig holds the dual-auth settings
type AuthConfig struct {
	DefaultMode    string // demo or oidc
	DemoEnabled    bool
	DemoUsersFile  string
	WatchDemoUsers bool
}

// OIDCConfig holds the identity provider client settings
type OIDCConfig struct {
	Issuer                string
	ClientID              string
	ClientSecret          string
	RedirectURL           string
	PostLogoutRedirectURL string
	Scopes                []string
	LoginStateTTL         time.Duration
}

// Enabled reports whether OIDC login can be offered
func (o OIDCConfig) Enabled() bool {
	return o.ClientID != "" && o.Issuer != ""
}

// SessionConfig holds session token and cookie settings
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	Issuer       string
	CookieName   string
	CookieDomain string
	CookiePath   string
	CookieSecure bool
	SameSite     string // strict, lax, none
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout           time.Duration
	WriteTimeout          time.Duration
	IdleTimeout           time.Duration
	MaxHeaderBytes        int
	MaxBodySize           int64
	RateLimitEnabled      bool
	RateLimitRequests     int
	RateLimitWindow       time.Duration
	AuthRateLimitEnabled  bool
	AuthRateLimitRequests int
	AuthRateLimitWindow   time.Duration
	CORSAllowOrigins      []string
	CORSAllowMethods      []string
	CORSAllowHeaders      []string
	TrustedProxies        []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // development only
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool // export zap logs over OTLP
	DBTracing         bool
	Profiling         ProfilingConfig
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled              bool
	ServerAddress        string // e.g. "http://localhost:4040"
	ApplicationName      string
	BasicAuthUser        string
	BasicAuthPassword    string
	ProfileTypes         []string // cpu, alloc_objects, alloc_space, inuse_objects, inuse_space, goroutines, mutex_*, block_*
	MutexProfileFraction int
	BlockProfileRate     int
	SpanProfiles         bool // link CPU profiles to trace spans
}

// CartConfig holds cart storage settings
type CartConfig struct {
	TTL time.Duration
}

// PricingConfig holds the checkout pricing rules
type PricingConfig struct {
	TaxRate               float64
	ShippingFee           float64
	FreeShippingThreshold float64
	Currency              string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with STOREFRONT_ prefix (e.g., STOREFRONT_OIDC_CLIENT_ID)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/storefront")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans that default to true need an explicit viper default so "false" can be told apart
	v.SetDefault("auth.demo_enabled", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("http.auth_rate_limit_enabled", true)

	cfg := &Config{
		App: AppConfig{
			Name:       v.GetString("app.name"),
			Env:        v.GetString("app.env"),
			Port:       v.GetString("app.port"),
			APIVersion: v.GetString("app.api_version"),
			PublicURL:  v.GetString("app.public_url"),
		},
		Backend: BackendConfig{
			BaseURL:          v.GetString("backend.base_url"),
			Timeout:          v.GetDuration("backend.timeout"),
			MaxResponseBytes: v.GetInt64("backend.max_response_bytes"),
		},
		Auth: AuthConfig{
			DefaultMode:    v.GetString("auth.default_mode"),
			DemoEnabled:    v.GetBool("auth.demo_enabled"),
			DemoUsersFile:  v.GetString("auth.demo_users_file"),
			WatchDemoUsers: v.GetBool("auth.watch_demo_users"),
		},
		OIDC: OIDCConfig{
			Issuer:                v.GetString("oidc.issuer"),
			ClientID:              v.GetString("oidc.client_id"),
			ClientSecret:          v.GetString("oidc.client_secret"),
			RedirectURL:           v.GetString("oidc.redirect_url"),
			PostLogoutRedirectURL: v.GetString("oidc.post_logout_redirect_url"),
			Scopes:                v.GetStringSlice("oidc.scopes"),
			LoginStateTTL:         v.GetDuration("oidc.login_state_ttl"),
		},
		Session: SessionConfig{
			Secret:       v.GetString("session.secret"),
			TTL:          v.GetDuration("session.ttl"),
			Issuer:       v.GetString("session.issuer"),
			CookieName:   v.GetString("session.cookie_name"),
			CookieDomain: v.GetString("session.cookie_domain"),
			CookiePath:   v.GetString("session.cookie_path"),
			CookieSecure: v.GetBool("session.cookie_secure"),
			SameSite:     v.GetString("session.same_site"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:           v.GetDuration("http.read_timeout"),
			WriteTimeout:          v.GetDuration("http.write_timeout"),
			IdleTimeout:           v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:        v.GetInt("http.max_header_bytes"),
			MaxBodySize:           v.GetInt64("http.max_body_size"),
			RateLimitEnabled:      v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:     v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:       v.GetDuration("http.rate_limit_window"),
			AuthRateLimitEnabled:  v.GetBool("http.auth_rate_limit_enabled"),
			AuthRateLimitRequests: v.GetInt("http.auth_rate_limit_requests"),
			AuthRateLimitWindow:   v.GetDuration("http.auth_rate_limit_window"),
			CORSAllowOrigins:      v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:      v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:      v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:        v.GetStringSlice("http.trusted_proxies"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTracing:         v.GetBool("telemetry.db_tracing"),
			Profiling: ProfilingConfig{
				Enabled:              v.GetBool("telemetry.profiling.enabled"),
				ServerAddress:        v.GetString("telemetry.profiling.server_address"),
				ApplicationName:      v.GetString("telemetry.profiling.application_name"),
				BasicAuthUser:        v.GetString("telemetry.profiling.basic_auth_user"),
				BasicAuthPassword:    v.GetString("telemetry.profiling.basic_auth_password"),
				ProfileTypes:         v.GetStringSlice("telemetry.profiling.profile_types"),
				MutexProfileFraction: v.GetInt("telemetry.profiling.mutex_profile_fraction"),
				BlockProfileRate:     v.GetInt("telemetry.profiling.block_profile_rate"),
				SpanProfiles:         v.GetBool("telemetry.profiling.span_profiles"),
			},
		},
		Cart: CartConfig{
			TTL: v.GetDuration("cart.ttl"),
		},
		Pricing: PricingConfig{
			TaxRate:               v.GetFloat64("pricing.tax_rate"),
			ShippingFee:           v.GetFloat64("pricing.shipping_fee"),
			FreeShippingThreshold: v.GetFloat64("pricing.free_shipping_threshold"),
			Currency:              v.GetString("pricing.currency"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.APIVersion == "" {
		cfg.App.APIVersion = "v1"
	}
	if cfg.App.PublicURL == "" {
		cfg.App.PublicURL = "http://localhost:3000"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:8081"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Backend.MaxResponseBytes == 0 {
		cfg.Backend.MaxResponseBytes = 10 << 20 // 10MB
	}
	if cfg.Auth.DefaultMode == "" {
		cfg.Auth.DefaultMode = "demo"
		if cfg.OIDC.Enabled() && !cfg.Auth.DemoEnabled {
			cfg.Auth.DefaultMode = "oidc"
		}
	}
	if cfg.Auth.DemoUsersFile == "" {
		cfg.Auth.DemoUsersFile = "configs/demo_users.yaml"
	}
	if len(cfg.OIDC.Scopes) == 0 {
		cfg.OIDC.Scopes = []string{"openid", "profile", "email"}
	}
	if cfg.OIDC.LoginStateTTL == 0 {
		cfg.OIDC.LoginStateTTL = 10 * time.Minute
	}
	if cfg.OIDC.RedirectURL == "" {
		cfg.OIDC.RedirectURL = "http://localhost:" + cfg.App.Port + "/api/" + cfg.App.APIVersion + "/auth/oidc/callback"
	}
	if cfg.OIDC.PostLogoutRedirectURL == "" {
		cfg.OIDC.PostLogoutRedirectURL = cfg.App.PublicURL
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.Session.Issuer == "" {
		cfg.Session.Issuer = cfg.App.Name
	}
	if cfg.Session.Secret == "" && cfg.App.Env != "production" {
		cfg.Session.Secret = "development-only-session-secret-change-me"
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "storefront_session"
	}
	if cfg.Session.CookiePath == "" {
		cfg.Session.CookiePath = "/"
	}
	if cfg.Session.SameSite == "" {
		cfg.Session.SameSite = "lax"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "storefront.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.AuthRateLimitRequests == 0 {
		cfg.HTTP.AuthRateLimitRequests = 5
	}
	if cfg.HTTP.AuthRateLimitWindow == 0 {
		cfg.HTTP.AuthRateLimitWindow = time.Minute
	}
	// An empty origin list allows no cross-origin requests.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.Profiling.ServerAddress == "" {
		cfg.Telemetry.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Telemetry.Profiling.ApplicationName == "" {
		cfg.Telemetry.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
	if cfg.Cart.TTL == 0 {
		cfg.Cart.TTL = 30 * 24 * time.Hour
	}
	if cfg.Pricing.TaxRate == 0 {
		cfg.Pricing.TaxRate = 0.08
	}
	if cfg.Pricing.ShippingFee == 0 {
		cfg.Pricing.ShippingFee = 9.99
	}
	if cfg.Pricing.FreeShippingThreshold == 0 {
		cfg.Pricing.FreeShippingThreshold = 100
	}
	if cfg.Pricing.Currency == "" {
		cfg.Pricing.Currency = "USD"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'postgres' or 'sqlite', got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend.base_url must be an absolute http(s) URL, got %q", c.Backend.BaseURL)
	}

	switch c.Auth.DefaultMode {
	case "demo":
		if !c.Auth.DemoEnabled {
			return fmt.Errorf("auth.default_mode is 'demo' but auth.demo_enabled is false")
		}
	case "oidc":
		if !c.OIDC.Enabled() {
			return fmt.Errorf("auth.default_mode is 'oidc' but oidc.issuer and oidc.client_id are not set")
		}
	default:
		return fmt.Errorf("auth.default_mode must be 'demo' or 'oidc', got %q", c.Auth.DefaultMode)
	}

	switch c.Session.SameSite {
	case "strict", "lax", "none":
	default:
		return fmt.Errorf("session.same_site must be strict, lax or none")
	}
	if c.Session.SameSite == "none" && !c.Session.CookieSecure {
		return fmt.Errorf("session.same_site=none requires session.cookie_secure=true")
	}
	// The identity provider redirects cross-site; a strict cookie would not reach the callback
	if c.Session.SameSite == "strict" && c.OIDC.Enabled() {
		return fmt.Errorf("session.same_site=strict cannot be used with OIDC sign-in")
	}

	if c.App.Env == "production" {
		if c.Session.Secret == "" {
			return fmt.Errorf("session.secret is required in production")
		}
		if len(c.Session.Secret) < 32 {
			return fmt.Errorf("session.secret must be at least 32 characters in production")
		}
		if !c.Session.CookieSecure {
			return fmt.Errorf("session.cookie_secure must be true in production")
		}
		if c.Database.Driver == "postgres" && c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Pricing.TaxRate < 0 || c.Pricing.ShippingFee < 0 || c.Pricing.FreeShippingThreshold < 0 {
		return fmt.Errorf("pricing values cannot be negative")
	}

	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
