package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/photogallery/internal/flagx"
	"github.com/dmitrijs2005/photogallery/internal/timex"
)

// JsonConfig is the JSON file shape. Durations accept "10s" or integer
// nanoseconds. Fields left out of the file keep their previous values.
type JsonConfig struct {
	HTTPAddr                string         `json:"http_addr"`
	Backend                 string         `json:"backend"`
	DatabaseDSN             string         `json:"database_dsn"`
	MongoURI                string         `json:"mongodb_uri"`
	MongoDatabase           string         `json:"mongo_db_name"`
	MongoPhotosCollection   string         `json:"mongo_photos_collection"`
	MongoUsersCollection    string         `json:"mongo_users_collection"`
	DynamoRegion            string         `json:"dynamo_region"`
	DynamoEndpoint          string         `json:"dynamo_endpoint"`
	DynamoPhotosTable       string         `json:"dynamo_photos_table"`
	DynamoUsersTable        string         `json:"dynamo_users_table"`
	ObjectStore             string         `json:"object_store"`
	AWSAccessKey            string         `json:"aws_key"`
	AWSSecretKey            string         `json:"aws_secret"`
	S3Bucket                string         `json:"bucket_name"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	S3PublicBaseURL         string         `json:"s3_public_base_url"`
	LocalUploadDir          string         `json:"local_upload_dir"`
	LocalURLPrefix          string         `json:"local_url_prefix"`
	SecretKey               string         `json:"secret_key"`
	SessionValidityDuration timex.Duration `json:"session_validity_duration"`
	RequestTimeout          timex.Duration `json:"request_timeout"`
	MaxUploadBytes          int64          `json:"max_upload_bytes"`
	LogFormat               string         `json:"log_format"`
}

// parseJson loads the file named by -c/-config into config. Without the
// flag nothing is loaded. An unreadable file or invalid JSON panics.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&config.HTTPAddr, c.HTTPAddr)
	set(&config.Backend, c.Backend)
	set(&config.DatabaseDSN, c.DatabaseDSN)
	set(&config.MongoURI, c.MongoURI)
	set(&config.MongoDatabase, c.MongoDatabase)
	set(&config.MongoPhotosCollection, c.MongoPhotosCollection)
	set(&config.MongoUsersCollection, c.MongoUsersCollection)
	set(&config.DynamoRegion, c.DynamoRegion)
	set(&config.DynamoEndpoint, c.DynamoEndpoint)
	set(&config.DynamoPhotosTable, c.DynamoPhotosTable)
	set(&config.DynamoUsersTable, c.DynamoUsersTable)
	set(&config.ObjectStore, c.ObjectStore)
	set(&config.AWSAccessKey, c.AWSAccessKey)
	set(&config.AWSSecretKey, c.AWSSecretKey)
	set(&config.S3Bucket, c.S3Bucket)
	set(&config.S3Region, c.S3Region)
	set(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	set(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	set(&config.LocalUploadDir, c.LocalUploadDir)
	set(&config.LocalURLPrefix, c.LocalURLPrefix)
	set(&config.SecretKey, c.SecretKey)
	set(&config.LogFormat, c.LogFormat)

	if c.SessionValidityDuration.Duration > 0 {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.RequestTimeout.Duration > 0 {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
}
