package config

import (
	"flag"
	"os"
	"time"

	"github.com/iudp/ledger/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-m string   gRPC health bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, minutes
//	-k string   Redis address
//	-u string   S3 access key id
//	-p string   S3 secret access key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   log level
//
// Only the flags listed here are kept from os.Args via flagx.FilterArgs, so
// the JSON config flag (-c) does not collide with this set.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-m", "-d", "-s", "-t", "-k", "-u", "-p", "-b", "-g", "-e", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "m", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "token validity (in minutes)")

	fs.StringVar(&config.RedisAddr, "k", config.RedisAddr, "Redis address")
	fs.StringVar(&config.S3AccessKeyID, "u", config.S3AccessKeyID, "S3 access key id")
	fs.StringVar(&config.S3SecretAccessKey, "p", config.S3SecretAccessKey, "S3 secret access key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
}
