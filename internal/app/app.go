// Package app initializes and runs the uploader: it builds the storage
// client for the configured backend, wires the archive scanners to the
// upload dispatcher, handles interrupt signals, and reports the final
// summary.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/tarput-io/tarput/internal/archive"
	"github.com/tarput-io/tarput/internal/config"
	"github.com/tarput-io/tarput/internal/distribute"
	"github.com/tarput-io/tarput/internal/logging"
	"github.com/tarput-io/tarput/internal/netx"
	"github.com/tarput-io/tarput/internal/storage"
	"github.com/tarput-io/tarput/internal/storage/manta"
	"github.com/tarput-io/tarput/internal/storage/s3"
	"github.com/tarput-io/tarput/internal/upload"
)

// ErrEntriesFailed reports a run that finished but left entries behind.
var ErrEntriesFailed = errors.New("some entries failed to upload")

type App struct {
	config *config.Config
	logger logging.Logger

	// client overrides the backend built from config; tests use it.
	client storage.Client

	out    io.Writer
	errOut io.Writer
	outMu  sync.Mutex
}

func NewApp(c *config.Config) *App {
	return &App{
		config: c,
		logger: logging.NewSlogLogger(newSlog(c)),
		out:    os.Stdout,
		errOut: os.Stderr,
	}
}

func newSlog(c *config.Config) *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) newClient(ctx context.Context) (storage.Client, error) {
	if app.client != nil {
		return app.client, nil
	}

	switch app.config.Backend {
	case config.BackendManta:
		signer, err := manta.LoadSigner(app.config.Account, app.config.KeyFile, manta.TerminalPrompt)
		if err != nil {
			return nil, err
		}
		return manta.New(manta.Config{
			URL:        app.config.StoreURL,
			Signer:     signer,
			HTTPClient: netx.NewHTTPClient(app.config.HTTPTimeout),
		})
	case config.BackendS3:
		return s3.New(ctx, s3.Config{
			Bucket:       app.config.S3Bucket,
			Region:       app.config.S3Region,
			AccessKey:    app.config.S3AccessKey,
			SecretKey:    app.config.S3SecretKey,
			BaseEndpoint: app.config.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("unknown backend %q", app.config.Backend)
	}
}

// printResult writes one entry's terminal outcome: successful paths to
// stdout, failures to stderr. Called concurrently from the scanners.
func (app *App) printResult(r upload.Result) {
	app.outMu.Lock()
	defer app.outMu.Unlock()
	if r.Err != nil {
		fmt.Fprintf(app.errOut, "tarput: %s: %v\n", r.Path, r.Err)
		return
	}
	fmt.Fprintln(app.out, r.Path)
}

// Run executes one upload session and blocks until it finishes. It
// returns ErrEntriesFailed when the run completed but some entries did
// not make it, or the scan-level failure that ended the run early.
func (app *App) Run(ctx context.Context) error {
	if err := app.config.Validate(); err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	app.initSignalHandler(cancelFunc)

	headers, err := app.config.HeaderMap()
	if err != nil {
		return err
	}

	client, err := app.newClient(ctx)
	if err != nil {
		return err
	}

	src := archive.NewSource(app.config.ArchivePath)
	dispatcher := upload.NewDispatcher(client, upload.Options{
		Prefix:  app.config.DestinationPrefix,
		Copies:  app.config.Copies,
		Headers: headers,
		DryRun:  app.config.DryRun,
	}, app.logger, app.printResult)

	dist := distribute.New(func() (distribute.Scan, error) {
		return src.NewScan()
	}, dispatcher, app.config.Parallelism, app.logger)

	app.logger.Info(ctx, "starting upload",
		"archive", app.config.ArchivePath,
		"destination", app.config.DestinationPrefix,
		"backend", app.config.Backend,
		"parallelism", app.config.Parallelism)

	start := time.Now()
	runErr := dist.Run(ctx)
	s := dispatcher.Summary()

	app.logger.Info(ctx, "upload finished",
		"uploaded", s.Uploaded,
		"failed", s.Failed,
		"bytes", s.Bytes,
		"elapsed", time.Since(start).Round(time.Millisecond).String())

	if runErr != nil {
		return runErr
	}
	if s.Failed > 0 {
		return ErrEntriesFailed
	}
	return nil
}
