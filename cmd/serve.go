package cmd

import (
	"fmt"
	"net/url"
	"path"
	"time"

	leveldb "github.com/ipfs/go-ds-leveldb"
	"github.com/urfave/cli/v2"

	"github.com/storacha/todos/internal/telemetry"
	"github.com/storacha/todos/pkg/config"
	"github.com/storacha/todos/pkg/server"
	"github.com/storacha/todos/pkg/service/blobs"
	"github.com/storacha/todos/pkg/service/todos"
)

// uploadAccessKeyID identifies the local server in signed upload URLs.
const uploadAccessKeyID = "todos"

var ServeCmd = &cli.Command{
	Name:  "serve",
	Usage: "Start a local to-do server with on-disk storage.",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to configuration file.",
			EnvVars: []string{"TODOS_CONFIG"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Value:   config.DefaultServicePort,
			Usage:   "Port to bind the server to.",
			EnvVars: []string{"TODOS_PORT"},
			Action: func(c *cli.Context, v int) error {
				if v <= 0 || v > 65535 {
					return fmt.Errorf("invalid port: must be between 1 and 65535")
				}
				return nil
			},
		},
		&cli.StringFlag{
			Name:    "public-url",
			Aliases: []string{"u"},
			Usage:   "URL the server is publicly accessible at. Attachment URLs are built from it.",
			EnvVars: []string{"TODOS_PUBLIC_URL"},
		},
		&cli.StringFlag{
			Name:    "upload-secret",
			Usage:   "Secret used to sign attachment upload URLs. A random secret is used when not set.",
			EnvVars: []string{"TODOS_UPLOAD_SECRET"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Root directory to store data in.",
			EnvVars: []string{"TODOS_DATA_DIR"},
		},
		&cli.Uint64Flag{
			Name:    "url-expiration",
			Value:   todos.DefaultURLExpiration,
			Usage:   "Number of seconds signed upload URLs are valid for.",
			EnvVars: []string{"TODOS_SIGNED_URL_EXPIRATION", "SIGNED_URL_EXPIRATION"},
		},
		&cli.Uint64Flag{
			Name:    "max-upload-size",
			Value:   blobs.DefaultMaxUploadSize,
			Usage:   "Largest attachment in bytes accepted by the local upload endpoint.",
			EnvVars: []string{"TODOS_MAX_UPLOAD_SIZE"},
		},
		&cli.BoolFlag{
			Name:    "skip-ownership-check",
			Usage:   "Issue upload URLs without checking the item belongs to the caller.",
			EnvVars: []string{"TODOS_SKIP_OWNERSHIP_CHECK"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level for the todos and blobs subsystems.",
			EnvVars: []string{"TODOS_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "sentry-dsn",
			Usage:   "Sentry DSN to report errors to.",
			EnvVars: []string{"SENTRY_DSN"},
		},
		&cli.StringFlag{
			Name:    "sentry-environment",
			Usage:   "Environment name errors are reported under.",
			Value:   "local",
			EnvVars: []string{"SENTRY_ENVIRONMENT"},
		},
	},
	Action: func(cCtx *cli.Context) error {
		cfg, err := config.LoadConfig(cCtx)
		if err != nil {
			return err
		}

		telemetry.SetupErrorReporting(cCtx.String("sentry-dsn"), cCtx.String("sentry-environment"))
		defer telemetry.Flush()

		pubURL, err := url.Parse(cfg.Core.PublicURL)
		if err != nil {
			return fmt.Errorf("parsing public URL: %w", err)
		}

		uploadSecret := cfg.Core.UploadSecret
		if uploadSecret == "" {
			log.Warn("Upload secret is not configured, generating one. Upload URLs will not survive a restart.")
			uploadSecret, err = randomSecret()
			if err != nil {
				return err
			}
		}

		// Set up datastores
		todosDir, err := mkdirp(cfg.Directories.DataDir, "todos")
		if err != nil {
			return err
		}
		todosDs, err := leveldb.NewDatastore(todosDir, nil)
		if err != nil {
			return err
		}
		defer todosDs.Close()

		logLevel := cCtx.String("log-level")
		blobService, err := blobs.New(
			blobs.WithLogLevel(logLevel),
			blobs.WithFsBlobstore(path.Join(cfg.Directories.DataDir, "blobs")),
			blobs.WithPublicURLPresigner(uploadAccessKeyID, uploadSecret, *pubURL),
			blobs.WithMaxUploadSize(cfg.Attachments.MaxUploadSize),
		)
		if err != nil {
			return fmt.Errorf("creating blob service: %w", err)
		}

		opts := []todos.Option{
			todos.WithLogLevel(logLevel),
			todos.WithDSTodoStore(todosDs),
			todos.WithPublicURLAccess(*pubURL),
			todos.WithUploadSigner(blobService.Presigner()),
			todos.WithURLExpiration(cfg.Attachments.URLExpiration),
		}
		if cfg.Attachments.SkipOwnershipCheck {
			log.Warn("Upload URL ownership check is disabled")
			opts = append(opts, todos.WithoutOwnershipCheck())
		}
		todoService, err := todos.New(opts...)
		if err != nil {
			return fmt.Errorf("creating todos service: %w", err)
		}

		go func() {
			time.Sleep(time.Millisecond * 50)
			PrintHero(pubURL.String())
		}()

		return server.ListenAndServe(
			cCtx.Context,
			fmt.Sprintf(":%d", cfg.Core.ServerPort),
			server.WithTodos(todoService),
			server.WithBlobs(blobService),
		)
	},
}
