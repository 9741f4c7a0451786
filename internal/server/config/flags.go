package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/attendkeeper/internal/flagx"
)

// parseFlags overlays config with command-line flags.
//
//	-a string   HTTP bind address (e.g. ":3000")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret
//	-t int      session token validity, minutes
//	-g string   AWS region
//	-u string   AWS access key
//	-p string   AWS secret key
//	-e string   AWS endpoint override
//	-i string   reference image path
//	-b string   reference image S3 bucket
//	-l string   liveness command line
//	-m int      max concurrent liveness/match calls
//	-f string   attendance ledger file
//
// Only these flags are taken from os.Args (see flagx.FilterArgs), so -c and
// other components' flags do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-g", "-u", "-p", "-e", "-i", "-b", "-l", "-m", "-f",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token validity (in minutes)")
	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.AWSAccessKey, "u", config.AWSAccessKey, "AWS access key")
	fs.StringVar(&config.AWSSecretKey, "p", config.AWSSecretKey, "AWS secret key")
	fs.StringVar(&config.AWSEndpoint, "e", config.AWSEndpoint, "AWS endpoint override")
	fs.StringVar(&config.ReferenceImagePath, "i", config.ReferenceImagePath, "reference image path")
	fs.StringVar(&config.ReferenceBucket, "b", config.ReferenceBucket, "reference image S3 bucket")
	fs.StringVar(&config.LivenessCommand, "l", config.LivenessCommand, "liveness command")
	fs.Int64Var(&config.MaxConcurrentChecks, "m", config.MaxConcurrentChecks, "max concurrent checks")
	fs.StringVar(&config.LedgerPath, "f", config.LedgerPath, "attendance ledger file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
