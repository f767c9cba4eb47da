package config

import (
	"github.com/tarput-io/tarput/internal/flagx"
)

// parseEnv overlays Config with values from the environment. The MANTA_*
// names match what other tools for the same store family use; TARPUT_*
// names are this tool's own.
func parseEnv(config *Config) {
	flagx.EnvString(&config.Backend, "TARPUT_BACKEND")
	flagx.EnvString(&config.StoreURL, "MANTA_URL", "TARPUT_URL")
	flagx.EnvString(&config.Account, "MANTA_USER", "TARPUT_ACCOUNT")
	flagx.EnvString(&config.KeyFile, "MANTA_KEY_FILE", "TARPUT_KEY_FILE")
	flagx.EnvInt(&config.Parallelism, "TARPUT_PARALLELISM")
	flagx.EnvInt(&config.Copies, "TARPUT_COPIES")

	flagx.EnvString(&config.S3Bucket, "TARPUT_S3_BUCKET")
	flagx.EnvString(&config.S3Region, "TARPUT_S3_REGION", "AWS_REGION")
	flagx.EnvString(&config.S3Endpoint, "TARPUT_S3_ENDPOINT")
	flagx.EnvString(&config.S3AccessKey, "TARPUT_S3_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	flagx.EnvString(&config.S3SecretKey, "TARPUT_S3_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")

	flagx.EnvString(&config.LogLevel, "TARPUT_LOG_LEVEL")
	flagx.EnvString(&config.LogFormat, "TARPUT_LOG_FORMAT")
}
