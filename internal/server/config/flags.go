package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/facultyreview/internal/flagx"
)

var serverFlags = []string{
	"-a", "-prefix", "-origins", "-backend", "-m", "-mdb", "-d", "-s",
	"-t", "-o", "-l", "-seed", "-u", "-p", "-b", "-g", "-e",
}

// parseFlags overlays command-line flags onto config.
//
//	-a string        HTTP bind address (e.g. ":3000")
//	-prefix string   route prefix (e.g. "/api")
//	-origins string  comma separated CORS origins
//	-backend string  "mongo" or "postgres"
//	-m string        MongoDB URI
//	-mdb string      MongoDB database name
//	-d string        PostgreSQL DSN
//	-s string        JWT HMAC secret key
//	-t duration      session lifetime
//	-o duration      OTP lifetime
//	-l string        log level
//	-seed string     JSON file with faculty records to load at startup
//	-u, -p, -b, -g, -e  S3 user, password, bucket, region, endpoint
//
// Only the flags listed above are looked at, so -c/-config and -env-file
// handled elsewhere do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.RoutePrefix, "prefix", config.RoutePrefix, "route prefix")
	origins := fs.String("origins", strings.Join(config.AllowedOrigins, ","), "allowed CORS origins")
	fs.StringVar(&config.DBBackend, "backend", config.DBBackend, "database backend (mongo|postgres)")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "mongodb uri")
	fs.StringVar(&config.MongoDatabase, "mdb", config.MongoDatabase, "mongodb database")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "postgres DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.SessionTTL, "t", config.SessionTTL, "session token lifetime")
	fs.DurationVar(&config.OTPTTL, "o", config.OTPTTL, "otp lifetime")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.SeedFile, "seed", config.SeedFile, "faculty seed file")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AllowedOrigins = splitList(*origins)
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
