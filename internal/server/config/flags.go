package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   token HMAC secret key
//	-t int      token validity, minutes
//	-rt int     request timeout, seconds
//	-bc int     bcrypt cost
//	-mc int     max open DB connections
//	-l string   log level
//	-bp string  comma-separated bypass paths
//	-o string   comma-separated CORS origins
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-rt", "-bc", "-mc", "-l", "-bp", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")
	requestTimeout := fs.Int("rt", int(config.RequestTimeout.Seconds()), "request_timeout (in seconds)")

	fs.IntVar(&config.BcryptCost, "bc", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.MaxOpenConns, "mc", config.MaxOpenConns, "max open DB connections")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	bypass := fs.String("bp", strings.Join(config.BypassPaths, ","), "comma-separated paths served without authentication")
	origins := fs.String("o", strings.Join(config.AllowedOrigins, ","), "comma-separated CORS origins")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	config.BypassPaths = flagx.SplitList(*bypass)
	config.AllowedOrigins = flagx.SplitList(*origins)
}
