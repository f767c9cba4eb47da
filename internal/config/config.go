// Package config handles configuration for the uploader, including
// defaults, JSON overlay, environment variables, and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	BackendManta = "manta"
	BackendS3    = "s3"
)

// Config holds runtime settings for one upload run.
//
// Fields:
//   - Backend: which store to talk to, "manta" or "s3".
//   - StoreURL / Account / KeyFile: endpoint and http-signature identity
//     for the manta backend.
//   - Parallelism: number of concurrent upload workers.
//   - Copies: replica count requested per object (manta durability).
//   - Headers: extra request headers, each in "Name: value" form.
//   - HTTPTimeout: overall per-request timeout, zero means none.
//   - DryRun: resolve and print destinations without uploading.
//   - S3Bucket / S3Region / S3Endpoint / S3AccessKey / S3SecretKey:
//     settings for the s3 backend.
//   - LogLevel / LogFormat: log verbosity ("debug".."error") and encoding
//     ("text" or "json").
//   - ArchivePath / DestinationPrefix: the two positional arguments, the
//     tar file to read and the remote directory to upload into.
type Config struct {
	Backend     string
	StoreURL    string
	Account     string
	KeyFile     string
	Parallelism int
	Copies      int
	Headers     []string
	HTTPTimeout time.Duration
	DryRun      bool

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	LogLevel  string
	LogFormat string

	ArchivePath       string
	DestinationPrefix string
}

// LoadDefaults populates Config with the standard defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendManta
	c.Parallelism = 10
	c.Copies = 2
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, environment variables, and finally
// command-line flags. The two positional arguments become ArchivePath and
// DestinationPrefix.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// Validate reports the first problem that would prevent a run.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendManta:
		if c.StoreURL == "" {
			return fmt.Errorf("store url is required (flag -u or MANTA_URL)")
		}
		if c.Account == "" {
			return fmt.Errorf("account is required (flag -a or MANTA_USER)")
		}
		if c.KeyFile == "" {
			return fmt.Errorf("key file is required (flag -k or MANTA_KEY_FILE)")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("s3 bucket is required (flag -s3-bucket)")
		}
	default:
		return fmt.Errorf("unknown backend %q: want %q or %q", c.Backend, BackendManta, BackendS3)
	}

	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", c.Parallelism)
	}
	if c.Copies < 1 {
		return fmt.Errorf("copies must be at least 1, got %d", c.Copies)
	}
	if _, err := c.HeaderMap(); err != nil {
		return err
	}

	if c.ArchivePath == "" {
		return fmt.Errorf("usage: tarput [options] <archive.tar> </destination/prefix>")
	}
	if c.DestinationPrefix == "" {
		return fmt.Errorf("destination prefix is required")
	}
	if !strings.HasPrefix(c.DestinationPrefix, "/") {
		return fmt.Errorf("destination prefix %q must be absolute", c.DestinationPrefix)
	}

	return nil
}

// HeaderMap parses the raw "Name: value" header entries into a map.
func (c *Config) HeaderMap() (map[string]string, error) {
	if len(c.Headers) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(c.Headers))
	for _, h := range c.Headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("malformed header %q: want \"Name: value\"", h)
		}
		m[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return m, nil
}
