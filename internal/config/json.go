package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tarput-io/tarput/internal/flagx"
	"github.com/tarput-io/tarput/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for the timeout field, which
// allows parsing both string values such as "30s" and integer
// nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into
// the runtime Config struct.
type JsonConfig struct {
	Backend     string         `json:"backend"`
	StoreURL    string         `json:"store_url"`
	Account     string         `json:"account"`
	KeyFile     string         `json:"key_file"`
	Parallelism int            `json:"parallelism"`
	Copies      int            `json:"copies"`
	Headers     []string       `json:"headers"`
	HTTPTimeout timex.Duration `json:"http_timeout"`

	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// parseJson loads configuration values from a JSON file into the
// provided Config instance.
//
// The JSON file path comes from the -c or -config command-line flags; if
// neither is set, no file is loaded. Only fields present in the file
// override the config. If the file cannot be read or contains invalid
// JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Backend != "" {
		config.Backend = c.Backend
	}
	if c.StoreURL != "" {
		config.StoreURL = c.StoreURL
	}
	if c.Account != "" {
		config.Account = c.Account
	}
	if c.KeyFile != "" {
		config.KeyFile = c.KeyFile
	}
	if c.Parallelism != 0 {
		config.Parallelism = c.Parallelism
	}
	if c.Copies != 0 {
		config.Copies = c.Copies
	}
	if len(c.Headers) != 0 {
		config.Headers = c.Headers
	}
	if c.HTTPTimeout.Duration != 0 {
		config.HTTPTimeout = time.Duration(c.HTTPTimeout.Duration)
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3Endpoint != "" {
		config.S3Endpoint = c.S3Endpoint
	}
	if c.S3AccessKey != "" {
		config.S3AccessKey = c.S3AccessKey
	}
	if c.S3SecretKey != "" {
		config.S3SecretKey = c.S3SecretKey
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		config.LogFormat = c.LogFormat
	}
}
