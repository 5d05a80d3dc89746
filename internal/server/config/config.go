// Package config handles configuration for the server component.
//
// Values are layered, later sources winning: built-in defaults, an optional
// .env file, environment variables, an optional JSON file (-c/-config) and
// finally command-line flags. The result is checked by Validate.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/facultyreview/internal/common"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"

	minSecretKeyLen = 16
)

// Config holds runtime settings for the faculty review server.
type Config struct {
	HTTPAddr        string        `env:"HTTP_ADDR"`
	RoutePrefix     string        `env:"ROUTE_PREFIX"`
	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:","`
	CookieSameSite  string        `env:"COOKIE_SAMESITE"`
	CookieSecure    bool          `env:"COOKIE_SECURE"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	LogLevel        string        `env:"LOG_LEVEL"`
	SeedFile        string        `env:"SEED_FILE"`

	DBBackend     string `env:"DB_BACKEND"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE"`
	DatabaseDSN   string `env:"DATABASE_DSN"`

	SecretKey  string        `env:"SECRET_KEY"`
	SessionTTL time.Duration `env:"SESSION_TTL"`
	OTPTTL     time.Duration `env:"OTP_TTL"`
	BcryptCost int           `env:"BCRYPT_COST"`

	MailerEnabled bool   `env:"MAILER_ENABLED"`
	SMTPHost      string `env:"SMTP_HOST"`
	SMTPPort      int    `env:"SMTP_PORT"`
	SMTPUsername  string `env:"SMTP_USERNAME"`
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	SMTPFrom      string `env:"SMTP_FROM"`

	S3RootUser     string `env:"S3_ROOT_USER"`
	S3RootPassword string `env:"S3_ROOT_PASSWORD"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
}

// LoadDefaults populates Config with development defaults. No secrets are
// defaulted: SecretKey and the SMTP credentials must come from the
// environment, a config file or flags.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.RoutePrefix = ""
	c.AllowedOrigins = []string{"http://localhost:5173"}
	c.CookieSameSite = "strict"
	c.CookieSecure = false
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"

	c.DBBackend = BackendMongo
	c.MongoURI = "mongodb://localhost:27017"
	c.MongoDatabase = "facultyreview"

	c.SessionTTL = common.DefaultSessionTTL
	c.OTPTTL = common.DefaultOTPTTL
	c.BcryptCost = 10

	c.MailerEnabled = true
	c.SMTPPort = 587

	c.S3Region = "us-east-1"
}

// LoadConfig builds a Config from defaults, dotenv, environment, JSON file and
// flags, in that order, and validates the result. args are the command-line
// arguments without the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first group of problems that would prevent the
// server from starting safely.
func (c *Config) Validate() error {
	var errs []error

	if len(c.SecretKey) < minSecretKeyLen {
		errs = append(errs, fmt.Errorf("secret key must be at least %d characters", minSecretKeyLen))
	}

	switch c.DBBackend {
	case BackendMongo:
		if c.MongoURI == "" || c.MongoDatabase == "" {
			errs = append(errs, errors.New("mongo backend requires uri and database"))
		}
	case BackendPostgres:
		if c.DatabaseDSN == "" {
			errs = append(errs, errors.New("postgres backend requires database dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown db backend %q", c.DBBackend))
	}

	if c.SessionTTL <= 0 || c.OTPTTL <= 0 {
		errs = append(errs, errors.New("session and otp ttl must be positive"))
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("bcrypt cost %d out of range 4..31", c.BcryptCost))
	}

	sameSite, ok := parseSameSite(c.CookieSameSite)
	if !ok {
		errs = append(errs, fmt.Errorf("unknown cookie samesite %q", c.CookieSameSite))
	} else if sameSite == http.SameSiteNoneMode && !c.CookieSecure {
		errs = append(errs, errors.New("samesite=none requires secure cookies"))
	}

	if c.MailerEnabled {
		if c.SMTPHost == "" || c.SMTPPort <= 0 || c.SMTPFrom == "" {
			errs = append(errs, errors.New("mailer enabled but smtp host, port or from is missing"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// SameSite returns the cookie SameSite mode. Unknown values map to strict.
func (c *Config) SameSite() http.SameSite {
	mode, ok := parseSameSite(c.CookieSameSite)
	if !ok {
		return http.SameSiteStrictMode
	}
	return mode
}

// S3Enabled reports whether review image uploads are configured.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func parseSameSite(s string) (http.SameSite, bool) {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode, true
	case "lax":
		return http.SameSiteLaxMode, true
	case "none":
		return http.SameSiteNoneMode, true
	default:
		return 0, false
	}
}
