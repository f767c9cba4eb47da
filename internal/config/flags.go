package config

import (
	"flag"
	"os"

	"github.com/tarput-io/tarput/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags
// and picks up the two positional arguments.
//
// Supported flags (short forms):
//
//	-b string     backend, "manta" or "s3"
//	-u string     store base URL (e.g., "https://us-central.store.example.com")
//	-a string     account owning the destination tree
//	-k string     private key file for request signing
//	-p int        number of concurrent upload workers
//	-r int        replica count requested per object
//	-H string     extra header "Name: value", repeatable
//	-t duration   per-request HTTP timeout (e.g., "30s")
//	-n            dry run: print destinations without uploading
//	-l string     log level (debug, info, warn, error)
//	-f string     log format (text or json)
//
// S3 settings use long flags: -s3-bucket, -s3-region, -s3-endpoint,
// -s3-access-key, -s3-secret-key.
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes
//     using flagx.FilterArgs, avoiding collisions with the -c/-config
//     flags owned by the JSON overlay.
//   - The -H flag appends; headers given on the command line add to any
//     from the JSON file.
func parseFlags(config *Config) {
	flagNames := []string{
		"-b", "-u", "-a", "-k", "-p", "-r", "-H", "-t", "-n", "-l", "-f",
		"-s3-bucket", "-s3-region", "-s3-endpoint", "-s3-access-key", "-s3-secret-key",
	}
	args := flagx.FilterArgs(os.Args[1:], flagNames)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Backend, "b", config.Backend, "storage backend (manta or s3)")
	fs.StringVar(&config.StoreURL, "u", config.StoreURL, "store base URL")
	fs.StringVar(&config.Account, "a", config.Account, "account name")
	fs.StringVar(&config.KeyFile, "k", config.KeyFile, "private key file for request signing")
	fs.IntVar(&config.Parallelism, "p", config.Parallelism, "number of concurrent upload workers")
	fs.IntVar(&config.Copies, "r", config.Copies, "number of replicas per object")
	fs.Func("H", "extra header \"Name: value\" (repeatable)", func(v string) error {
		config.Headers = append(config.Headers, v)
		return nil
	})
	fs.DurationVar(&config.HTTPTimeout, "t", config.HTTPTimeout, "per-request HTTP timeout")
	fs.BoolVar(&config.DryRun, "n", config.DryRun, "dry run, print destinations without uploading")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format (text or json)")

	fs.StringVar(&config.S3Bucket, "s3-bucket", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "s3-region", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Endpoint, "s3-endpoint", config.S3Endpoint, "S3 base endpoint")
	fs.StringVar(&config.S3AccessKey, "s3-access-key", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "s3-secret-key", config.S3SecretKey, "S3 secret key")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	positionals := flagx.Positionals(os.Args[1:], []string{"-n"})
	if len(positionals) > 0 {
		config.ArchivePath = positionals[0]
	}
	if len(positionals) > 1 {
		config.DestinationPrefix = positionals[1]
	}
}
