package config

import (
	"errors"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/photogallery/internal/flagx"
)

const defaultEnvFile = ".env"

// loadDotEnv reads the file given by -env, or ./.env when present, into the
// process environment. Variables already set are not overridden. An explicit
// file that cannot be read panics, like an unreadable JSON config.
func loadDotEnv(args []string) {
	path := flagx.EnvFileFlag(args)
	if path == "" {
		if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
		return
	}
	if err := godotenv.Load(path); err != nil {
		panic(err)
	}
}

// parseEnv overlays values from environment variables. Each field accepts a
// PHOTOGALLERY_* name; several also accept the short names used by existing
// deployments. The first name found wins.
func parseEnv(c *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, names ...string) {
		for _, n := range names {
			if v, ok := lookup(n); ok && v != "" {
				*dst = v
				return
			}
		}
	}
	dur := func(dst *time.Duration, name string) {
		if v, ok := lookup(name); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str(&c.HTTPAddr, "PHOTOGALLERY_ADDR")
	if port, ok := lookup("PORT"); ok && port != "" && c.HTTPAddr == ":5000" {
		c.HTTPAddr = ":" + port
	}
	str(&c.Backend, "PHOTOGALLERY_BACKEND")
	str(&c.DatabaseDSN, "PHOTOGALLERY_DATABASE_DSN", "DATABASE_DSN")
	str(&c.MongoURI, "PHOTOGALLERY_MONGODB_URI", "MONGODB_URI")
	str(&c.MongoDatabase, "PHOTOGALLERY_MONGO_DB_NAME", "MONGO_DB_NAME")
	str(&c.MongoPhotosCollection, "PHOTOGALLERY_MONGO_PHOTOS_COLLECTION", "MONGO_PHOTOS_COLLECTION")
	str(&c.MongoUsersCollection, "PHOTOGALLERY_MONGO_USERS_COLLECTION", "MONGO_USERS_COLLECTION")
	str(&c.DynamoRegion, "PHOTOGALLERY_DYNAMO_REGION", "AWS_REGION")
	str(&c.DynamoEndpoint, "PHOTOGALLERY_DYNAMO_ENDPOINT")
	str(&c.DynamoPhotosTable, "PHOTOGALLERY_DYNAMO_PHOTOS_TABLE")
	str(&c.DynamoUsersTable, "PHOTOGALLERY_DYNAMO_USERS_TABLE")
	str(&c.ObjectStore, "PHOTOGALLERY_OBJECT_STORE")
	str(&c.AWSAccessKey, "PHOTOGALLERY_AWS_KEY", "AWS_KEY")
	str(&c.AWSSecretKey, "PHOTOGALLERY_AWS_SECRET", "AWS_SECRET")
	str(&c.S3Bucket, "PHOTOGALLERY_BUCKET_NAME", "BUCKET_NAME")
	str(&c.S3Region, "PHOTOGALLERY_S3_REGION", "AWS_REGION")
	str(&c.S3BaseEndpoint, "PHOTOGALLERY_S3_ENDPOINT")
	str(&c.S3PublicBaseURL, "PHOTOGALLERY_S3_PUBLIC_URL")
	str(&c.LocalUploadDir, "PHOTOGALLERY_UPLOAD_DIR")
	str(&c.LocalURLPrefix, "PHOTOGALLERY_MEDIA_PREFIX")
	str(&c.SecretKey, "PHOTOGALLERY_SECRET_KEY", "SECRET_KEY")
	dur(&c.SessionValidityDuration, "PHOTOGALLERY_SESSION_VALIDITY")
	dur(&c.RequestTimeout, "PHOTOGALLERY_REQUEST_TIMEOUT")
	if v, ok := lookup("PHOTOGALLERY_MAX_UPLOAD_BYTES"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxUploadBytes = n
		}
	}
	str(&c.LogFormat, "PHOTOGALLERY_LOG_FORMAT")
}
