package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":5000")
//	-b string   backend: memory, postgres, mongo, dynamodb
//	-d string   PostgreSQL DSN
//	-m string   MongoDB URI
//	-o string   object store: s3, local
//	-k string   S3 bucket
//	-g string   AWS region for S3 and DynamoDB
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-s string   secret key for session tokens
//	-t int      session validity, minutes
//	-l string   log format: zap, slog
//
// The function first filters args to the flags it recognizes using
// flagx.FilterArgs, so -c and -env can share the command line.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-b", "-d", "-m", "-o", "-k", "-g", "-e", "-s", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.Backend, "b", config.Backend, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.ObjectStore, "o", config.ObjectStore, "object store")
	fs.StringVar(&config.S3Bucket, "k", config.S3Bucket, "S3 bucket")
	region := fs.String("g", "", "AWS region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionValidity := fs.Int("t", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	fs.StringVar(&config.LogFormat, "l", config.LogFormat, "log format")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *region != "" {
		config.S3Region = *region
		config.DynamoRegion = *region
	}
	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
}
