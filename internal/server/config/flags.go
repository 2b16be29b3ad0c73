package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/issuedesk/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-m", "-p", "-s", "-t", "-b", "-e"}

// parseFlags overrides selected Config fields from the command line.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-d string   storage driver: mongo, postgres or memory
//	-m string   MongoDB connection URI
//	-p string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-b bool     enable the insecure admin bypass (use -b or -b=true)
//	-e string   environment name
//
// Arguments not in this list are ignored so other components can define
// their own flags.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("issuedesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Server.Addr, "a", config.Server.Addr, "address and port to run server")
	fs.StringVar(&config.Storage.Driver, "d", config.Storage.Driver, "storage driver")
	fs.StringVar(&config.Storage.MongoURI, "m", config.Storage.MongoURI, "mongo uri")
	fs.StringVar(&config.Storage.PostgresDSN, "p", config.Storage.PostgresDSN, "postgres dsn")
	fs.StringVar(&config.Auth.SecretKey, "s", config.Auth.SecretKey, "secret key")
	tokenHours := fs.Int("t", int(config.Auth.TokenValidity.Hours()), "token validity (in hours)")
	fs.BoolVar(&config.Auth.AllowInsecureBypass, "b", config.Auth.AllowInsecureBypass, "allow insecure admin bypass")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment")

	// "-b true" leaves "true" as a positional and stops parsing; skip it
	// and keep going.
	rest := flagx.FilterArgs(args, knownFlags)
	for {
		if err := fs.Parse(rest); err != nil {
			return fmt.Errorf("parse flags: %w", err)
		}
		if fs.NArg() == 0 {
			break
		}
		rest = fs.Args()[1:]
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.Auth.TokenValidity = time.Duration(*tokenHours) * time.Hour
		}
	})

	return nil
}
