package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"tarput"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadConfig_Defaults(t *testing.T) {
	setArgs(t)
	t.Setenv("AWS_REGION", "")

	c := LoadConfig()
	require.NotNil(t, c)

	assert.Equal(t, BackendManta, c.Backend)
	assert.Equal(t, 10, c.Parallelism)
	assert.Equal(t, 2, c.Copies)
	assert.Equal(t, "us-east-1", c.S3Region)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.False(t, c.DryRun)
	assert.Zero(t, c.HTTPTimeout)
}

func TestLoadConfig_FlagsAndPositionals(t *testing.T) {
	setArgs(t,
		"-u", "https://store.example.com",
		"-a", "alice",
		"-k", "~/.ssh/id_rsa",
		"-p", "4",
		"-r", "3",
		"-H", "m-origin: backup",
		"-H", "m-team: infra",
		"-t", "30s",
		"-n",
		"backup.tar", "/alice/stor/out",
	)

	c := LoadConfig()

	assert.Equal(t, "https://store.example.com", c.StoreURL)
	assert.Equal(t, "alice", c.Account)
	assert.Equal(t, "~/.ssh/id_rsa", c.KeyFile)
	assert.Equal(t, 4, c.Parallelism)
	assert.Equal(t, 3, c.Copies)
	assert.Equal(t, []string{"m-origin: backup", "m-team: infra"}, c.Headers)
	assert.Equal(t, 30*time.Second, c.HTTPTimeout)
	assert.True(t, c.DryRun)
	assert.Equal(t, "backup.tar", c.ArchivePath)
	assert.Equal(t, "/alice/stor/out", c.DestinationPrefix)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"backend": "s3",
		"parallelism": 8,
		"http_timeout": "45s",
		"s3_bucket": "backups",
		"s3_endpoint": "http://127.0.0.1:9000/"
	}`), 0o600))

	setArgs(t, "-config", path, "backup.tar", "/out")

	c := LoadConfig()

	assert.Equal(t, BackendS3, c.Backend)
	assert.Equal(t, 8, c.Parallelism)
	assert.Equal(t, 45*time.Second, c.HTTPTimeout)
	assert.Equal(t, "backups", c.S3Bucket)
	assert.Equal(t, "http://127.0.0.1:9000/", c.S3Endpoint)
	assert.Equal(t, 2, c.Copies, "fields absent from the file keep their defaults")
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"parallelism": 8}`), 0o600))

	setArgs(t, "-c", path, "-p", "2", "backup.tar", "/out")

	c := LoadConfig()
	assert.Equal(t, 2, c.Parallelism)
}

func TestLoadConfig_InvalidJsonPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{ this is not valid json`), 0o600))

	setArgs(t, "-config", path)

	assert.Panics(t, func() { LoadConfig() })
}

func TestLoadConfig_EnvOverlay(t *testing.T) {
	setArgs(t, "backup.tar", "/out")
	t.Setenv("MANTA_URL", "https://env.example.com")
	t.Setenv("MANTA_USER", "bob")
	t.Setenv("TARPUT_PARALLELISM", "6")

	c := LoadConfig()

	assert.Equal(t, "https://env.example.com", c.StoreURL)
	assert.Equal(t, "bob", c.Account)
	assert.Equal(t, 6, c.Parallelism)
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	setArgs(t, "-a", "alice", "backup.tar", "/out")
	t.Setenv("MANTA_USER", "bob")

	c := LoadConfig()
	assert.Equal(t, "alice", c.Account)
}

func validManta() *Config {
	c := &Config{}
	c.LoadDefaults()
	c.StoreURL = "https://store.example.com"
	c.Account = "alice"
	c.KeyFile = "~/.ssh/id_rsa"
	c.ArchivePath = "backup.tar"
	c.DestinationPrefix = "/alice/stor/out"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid manta", func(c *Config) {}, ""},
		{"valid s3", func(c *Config) {
			c.Backend = BackendS3
			c.S3Bucket = "backups"
		}, ""},
		{"unknown backend", func(c *Config) { c.Backend = "ftp" }, "unknown backend"},
		{"manta without url", func(c *Config) { c.StoreURL = "" }, "store url"},
		{"manta without account", func(c *Config) { c.Account = "" }, "account"},
		{"manta without key", func(c *Config) { c.KeyFile = "" }, "key file"},
		{"s3 without bucket", func(c *Config) { c.Backend = BackendS3 }, "s3 bucket"},
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }, "parallelism"},
		{"zero copies", func(c *Config) { c.Copies = 0 }, "copies"},
		{"malformed header", func(c *Config) { c.Headers = []string{"no-colon"} }, "malformed header"},
		{"missing archive", func(c *Config) { c.ArchivePath = "" }, "usage"},
		{"missing prefix", func(c *Config) { c.DestinationPrefix = "" }, "destination prefix"},
		{"relative prefix", func(c *Config) { c.DestinationPrefix = "out" }, "absolute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validManta()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestHeaderMap(t *testing.T) {
	c := &Config{Headers: []string{"m-origin: backup", "m-empty:"}}
	m, err := c.HeaderMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"m-origin": "backup", "m-empty": ""}, m)

	c = &Config{}
	m, err = c.HeaderMap()
	require.NoError(t, err)
	assert.Nil(t, m)
}
