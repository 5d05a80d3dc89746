package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/facultyreview/internal/flagx"
	"github.com/dmitrijs2005/facultyreview/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Pointer
// fields distinguish "absent" from a zero value so that a partial file only
// overrides what it mentions.
type JsonConfig struct {
	HTTPAddr        *string         `json:"http_addr"`
	RoutePrefix     *string         `json:"route_prefix"`
	AllowedOrigins  []string        `json:"allowed_origins"`
	CookieSameSite  *string         `json:"cookie_samesite"`
	CookieSecure    *bool           `json:"cookie_secure"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	LogLevel        *string         `json:"log_level"`
	SeedFile        *string         `json:"seed_file"`

	DBBackend     *string `json:"db_backend"`
	MongoURI      *string `json:"mongo_uri"`
	MongoDatabase *string `json:"mongo_database"`
	DatabaseDSN   *string `json:"database_dsn"`

	SecretKey  *string         `json:"secret_key"`
	SessionTTL *timex.Duration `json:"session_ttl"`
	OTPTTL     *timex.Duration `json:"otp_ttl"`
	BcryptCost *int            `json:"bcrypt_cost"`

	MailerEnabled *bool   `json:"mailer_enabled"`
	SMTPHost      *string `json:"smtp_host"`
	SMTPPort      *int    `json:"smtp_port"`
	SMTPUsername  *string `json:"smtp_username"`
	SMTPPassword  *string `json:"smtp_password"`
	SMTPFrom      *string `json:"smtp_from"`

	S3RootUser     *string `json:"s3_root_user"`
	S3RootPassword *string `json:"s3_root_password"`
	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFile(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.RoutePrefix, c.RoutePrefix)
	if c.AllowedOrigins != nil {
		config.AllowedOrigins = c.AllowedOrigins
	}
	setString(&config.CookieSameSite, c.CookieSameSite)
	setBool(&config.CookieSecure, c.CookieSecure)
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.SeedFile, c.SeedFile)

	setString(&config.DBBackend, c.DBBackend)
	setString(&config.MongoURI, c.MongoURI)
	setString(&config.MongoDatabase, c.MongoDatabase)
	setString(&config.DatabaseDSN, c.DatabaseDSN)

	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTTL != nil {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.OTPTTL != nil {
		config.OTPTTL = c.OTPTTL.Duration
	}
	setInt(&config.BcryptCost, c.BcryptCost)

	setBool(&config.MailerEnabled, c.MailerEnabled)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
