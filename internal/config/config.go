package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/portfolio/pkg"
)

// DefaultSecretKey is the placeholder the service refuses to run with in production.
const DefaultSecretKey = "change-me"

const envPrefix = "PORTFOLIO_"

var ErrInsecureSecretKey = errors.New("secret key not set or left at its default value")

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// telemetry
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// storage
	DatabaseURL string `toml:"database_url"`
	RedisHost   string `toml:"redis_host"`
	RedisPort   string `toml:"redis_port"`

	// rate limits, requests per minute per client ip
	LoginRateLimitAllowedPerMin     int `toml:"login_rate_limit_allowed_per_min"`
	UploadRateLimitAllowedPerMin    int `toml:"upload_rate_limit_allowed_per_min"`
	PublicAPIRateLimitAllowedPerMin int `toml:"public_api_rate_limit_allowed_per_min"`

	// session
	SessionMaxAgeSeconds int  `toml:"session_max_age"`
	SecureCookies        bool `toml:"secure_cookies"`

	AllowedOrigins []string `toml:"allowed_origins"`
	// honour X-Forwarded-For / X-Real-Ip, only when behind a reverse proxy
	TrustProxyHeaders bool `toml:"trust_proxy_headers"`

	// media
	S3Endpoint         string `toml:"s3_endpoint_url"`
	S3Bucket           string `toml:"s3_bucket_name"`
	S3Region           string `toml:"s3_region"`
	CDNBaseURL         string `toml:"cdn_base_url"`
	MediaURLTTLSeconds int    `toml:"media_url_ttl"`

	// secrets, env only
	SecretKey         string `toml:"-"`
	S3AccessKeyID     string `toml:"-"`
	S3SecretAccessKey string `toml:"-"`
	AdminEmail        string `toml:"-"`
	AdminPassword     string `toml:"-"`
	RedisPassword     string `toml:"-"`
	SentryDSN         string `toml:"-"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg = t.Development
		env = "development"
	case "prod", "production":
		cfg = t.Production
		env = "production"
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}
	cfg.Environment = env
	return cfg, nil
}

// Load reads the TOML file, picks the section for env and applies env var overrides.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.setDefaults()

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeSeconds) * time.Second
}

func (c *Config) MediaURLTTL() time.Duration {
	return time.Duration(c.MediaURLTTLSeconds) * time.Second
}

// Validate refuses configurations that must never reach production.
func (c *Config) Validate() error {
	if c.IsProduction() && (c.SecretKey == "" || c.SecretKey == DefaultSecretKey) {
		return ErrInsecureSecretKey
	}
	if c.SessionMaxAgeSeconds <= 0 {
		return fmt.Errorf("invalid session max age: %d", c.SessionMaxAgeSeconds)
	}
	if c.DatabaseURL == "" {
		return errors.New("database url not set")
	}
	return nil
}

// lookup checks PORTFOLIO_<NAME> first, then the bare <NAME> older deployments set.
func lookup(name string) (string, bool) {
	return pkg.LookupEnv(envPrefix+name, name)
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"SECRET_KEY":           &c.SecretKey,
		"DATABASE_URL":         &c.DatabaseURL,
		"S3_ENDPOINT_URL":      &c.S3Endpoint,
		"S3_ACCESS_KEY_ID":     &c.S3AccessKeyID,
		"S3_SECRET_ACCESS_KEY": &c.S3SecretAccessKey,
		"S3_BUCKET_NAME":       &c.S3Bucket,
		"S3_REGION":            &c.S3Region,
		"CDN_BASE_URL":         &c.CDNBaseURL,
		"ADMIN_EMAIL":          &c.AdminEmail,
		"ADMIN_PASSWORD":       &c.AdminPassword,
		"REDIS_HOST":           &c.RedisHost,
		"REDIS_PORT":           &c.RedisPort,
		"REDIS_PASSWORD":       &c.RedisPassword,
		"SENTRY_DSN":           &c.SentryDSN,
	}
	for name, dst := range strVars {
		if val, ok := lookup(name); ok {
			*dst = val
		}
	}

	if val, ok := lookup("SESSION_MAX_AGE"); ok {
		maxAge, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parse SESSION_MAX_AGE [%s]: %w", val, err)
		}
		c.SessionMaxAgeSeconds = maxAge
	}

	if val, ok := lookup("TRUST_PROXY_HEADERS"); ok {
		trust, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parse TRUST_PROXY_HEADERS [%s]: %w", val, err)
		}
		c.TrustProxyHeaders = trust
	}

	if val, ok := lookup("ALLOWED_ORIGINS"); ok {
		c.AllowedOrigins = splitOrigins(val)
	}

	// APP_ENV only confirms what -env selected
	if val, ok := lookup("APP_ENV"); ok && !strings.EqualFold(val, c.Environment) {
		log.Warnf("APP_ENV [%s] differs from selected env [%s], using the latter", val, c.Environment)
	}

	c.DatabaseURL = NormalizeDatabaseURL(c.DatabaseURL)
	return nil
}

func (c *Config) setDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.SessionMaxAgeSeconds == 0 {
		c.SessionMaxAgeSeconds = int((7 * 24 * time.Hour).Seconds())
	}
	if c.MediaURLTTLSeconds == 0 {
		c.MediaURLTTLSeconds = int(time.Hour.Seconds())
	}
	if c.LoginRateLimitAllowedPerMin == 0 {
		c.LoginRateLimitAllowedPerMin = 5
	}
	if c.UploadRateLimitAllowedPerMin == 0 {
		c.UploadRateLimitAllowedPerMin = 30
	}
	if c.PublicAPIRateLimitAllowedPerMin == 0 {
		c.PublicAPIRateLimitAllowedPerMin = 60
	}
	if c.S3Bucket == "" {
		c.S3Bucket = "portfolio-media"
	}
	if c.S3Region == "" {
		c.S3Region = "auto"
	}
	if c.SecretKey == "" && !c.IsProduction() {
		c.SecretKey = DefaultSecretKey
	}
	if c.IsProduction() {
		c.SecureCookies = true
	}
}

// NormalizeDatabaseURL turns driver-qualified URLs like postgresql+asyncpg://
// into plain postgres:// ones pgx understands.
func NormalizeDatabaseURL(url string) string {
	scheme, rest, found := strings.Cut(url, "://")
	if !found {
		return url
	}
	if base, _, qualified := strings.Cut(scheme, "+"); qualified {
		scheme = base
	}
	if scheme == "postgresql" {
		scheme = "postgres"
	}
	return scheme + "://" + rest
}

func splitOrigins(val string) []string {
	var origins []string
	for _, o := range strings.Split(val, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
