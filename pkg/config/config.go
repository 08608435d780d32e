package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/storacha/todos/pkg/service/blobs"
	"github.com/storacha/todos/pkg/service/todos"
)

const DefaultServicePort = 3000

// CoreConfig contains the core settings for the local server
type CoreConfig struct {
	ServerPort   int    `toml:"port" json:"port" mapstructure:"port" validate:"min=1,max=65535" flag:"port"`
	PublicURL    string `toml:"public_url" json:"public_url" mapstructure:"public_url" validate:"required,url" flag:"public-url"`
	UploadSecret string `toml:"upload_secret" json:"upload_secret" mapstructure:"upload_secret" flag:"upload-secret"`
}

// DirectoriesConfig contains file system paths for the local server
type DirectoriesConfig struct {
	DataDir string `toml:"data_dir" json:"data_dir" mapstructure:"data_dir" validate:"required" flag:"data-dir"`
}

// AttachmentsConfig contains settings for attachment uploads
type AttachmentsConfig struct {
	URLExpiration uint64 `toml:"url_expiration" json:"url_expiration" mapstructure:"url_expiration" validate:"min=1" flag:"url-expiration"`
	MaxUploadSize uint64 `toml:"max_upload_size" json:"max_upload_size" mapstructure:"max_upload_size" flag:"max-upload-size"`
	// SkipOwnershipCheck issues upload URLs without checking the item exists
	// and belongs to the caller.
	SkipOwnershipCheck bool `toml:"skip_ownership_check" json:"skip_ownership_check" mapstructure:"skip_ownership_check" flag:"skip-ownership-check"`
}

// Node represents the full configuration for a local to-do server
type Node struct {
	// Core settings
	Core CoreConfig `toml:"core" json:"core" mapstructure:"core"`

	// Data storage locations
	Directories DirectoriesConfig `toml:"directories" json:"directories" mapstructure:"directories"`

	// Attachment upload configuration
	Attachments AttachmentsConfig `toml:"attachments" json:"attachments" mapstructure:"attachments"`
}

// LoadConfig is a comprehensive method that handles the entire configuration loading process
// flags > environment variables > config file > defaults
// It takes care of:
// 1. Loading defaults specified in code
// 2. Loading config from file if provided via --config
// 3. Setting up default directories if they are not provided
// 4. Applying CLI flag overrides to config state
// 5. Validating the final configuration
func LoadConfig(cCtx *cli.Context) (*Node, error) {
	// Start with defaults
	cfg := newDefault()

	// load from config file if specified
	configPath := cCtx.String("config")
	if configPath != "" {
		loadedCfg, err := load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from file: %w", err)
		}
		cfg = loadedCfg
	}

	// Set up default directories (creates them if they don't exist)
	if err := setupDefaultDirectories(cfg); err != nil {
		return nil, fmt.Errorf("failed to set up default directories: %w", err)
	}

	// Apply CLI flags and environment variable overrides
	fromCLI(cCtx, cfg)

	// Validate the final configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate performs validation on the configuration values and returns any errors.
// This can be called before using the configuration to ensure all required values are set.
func (cfg *Node) Validate() error {
	var errs error
	for _, section := range []any{&cfg.Core, &cfg.Directories, &cfg.Attachments} {
		if err := validateSection(section); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	if cfg.Core.PublicURL != "" {
		if u, err := url.Parse(cfg.Core.PublicURL); err == nil && u.Path != "" && u.Path != "/" {
			errs = multierror.Append(errs, fmt.Errorf("public URL must not have a path: %s", cfg.Core.PublicURL))
		}
	}

	if cfg.Core.UploadSecret != "" && len(cfg.Core.UploadSecret) < 16 {
		errs = multierror.Append(errs, fmt.Errorf("upload secret must be at least 16 characters"))
	}

	return errs
}

// load reads the configuration from the given path and returns a Node.
// It binds and loads values from environment variables.
// It preserves default values for fields not specified in the config file, flags or env vars
func load(path string) (*Node, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("config file path cannot be empty")
	}
	if stat, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file path does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file at path %s: %w", path, err)
	} else if stat.IsDir() {
		return nil, fmt.Errorf("config file path points to a directory: %s", path)
	}

	// Initialize viper with defaults
	v, err := setupViperWithDefaults()
	if err != nil {
		return nil, err
	}

	// Read the configuration file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal into our config struct
	cfg := new(Node)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}

	return cfg, nil
}

// newDefault creates a new configuration with pure default values.
// This only sets defaults that are not dependent on platform-specific logic.
// Application code should handle platform-specific defaults like file paths.
func newDefault() *Node {
	return &Node{
		Core: CoreConfig{
			PublicURL:  fmt.Sprintf("http://localhost:%d", DefaultServicePort),
			ServerPort: DefaultServicePort,
		},
		Attachments: AttachmentsConfig{
			URLExpiration: todos.DefaultURLExpiration,
			MaxUploadSize: blobs.DefaultMaxUploadSize,
		},
	}
}

// fromCLI loads configuration values from CLI flags
func fromCLI(ctx *cli.Context, cfg *Node) {
	// Core settings
	if ctx.IsSet("port") {
		cfg.Core.ServerPort = ctx.Int("port")
	}
	if ctx.IsSet("public-url") {
		cfg.Core.PublicURL = ctx.String("public-url")
	}
	if ctx.IsSet("upload-secret") {
		cfg.Core.UploadSecret = ctx.String("upload-secret")
	}

	// Directory settings
	if ctx.IsSet("data-dir") {
		cfg.Directories.DataDir = ctx.String("data-dir")
	}

	// Attachment settings
	if ctx.IsSet("url-expiration") {
		cfg.Attachments.URLExpiration = ctx.Uint64("url-expiration")
	}
	if ctx.IsSet("max-upload-size") {
		cfg.Attachments.MaxUploadSize = ctx.Uint64("max-upload-size")
	}
	if ctx.IsSet("skip-ownership-check") {
		cfg.Attachments.SkipOwnershipCheck = ctx.Bool("skip-ownership-check")
	}
}

// setupViperWithDefaults creates a new Viper instance with default values and environment bindings
func setupViperWithDefaults() (*viper.Viper, error) {
	v := viper.New()

	// Set up environment variable binding
	v.SetEnvPrefix("TODOS")
	v.AutomaticEnv()

	// Define specific environment variable mappings
	envMappings := map[string]string{
		// Core
		"core.port":          "PORT",
		"core.public_url":    "PUBLIC_URL",
		"core.upload_secret": "UPLOAD_SECRET",

		// Directories
		"directories.data_dir": "DATA_DIR",

		// Attachments
		"attachments.url_expiration":       "SIGNED_URL_EXPIRATION",
		"attachments.max_upload_size":      "MAX_UPLOAD_SIZE",
		"attachments.skip_ownership_check": "SKIP_OWNERSHIP_CHECK",
	}

	// Create the aliases for environment variables
	for key, envVar := range envMappings {
		if err := v.BindEnv(key, "TODOS_"+envVar); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", key, err)
		}
	}

	// Start with default values
	defaultCfg := newDefault()

	// Set default values in Viper
	v.SetDefault("core.port", defaultCfg.Core.ServerPort)
	v.SetDefault("core.public_url", defaultCfg.Core.PublicURL)
	v.SetDefault("attachments.url_expiration", defaultCfg.Attachments.URLExpiration)
	v.SetDefault("attachments.max_upload_size", defaultCfg.Attachments.MaxUploadSize)

	return v, nil
}

// setupDefaultDirectories configures default directories if they are not already set
func setupDefaultDirectories(cfg *Node) error {
	if cfg.Directories.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting user home directory: %w", err)
		}

		dataDir := filepath.Join(homeDir, ".todos")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("creating default data directory %s: %w", dataDir, err)
		}
		cfg.Directories.DataDir = dataDir
	}

	return nil
}
