// Package config manages the CrawlnChat service configuration. Values are
// layered: defaults, then the config file, then CRAWLNCHAT_-prefixed
// environment variables.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/localrivet/configurator"
)

// Global configuration instance
var (
	// Global is the global configuration instance
	Global *Config
	// initOnce ensures initialization happens only once
	initOnce sync.Once
)

// InitGlobal initializes the global configuration
func InitGlobal(configPath string) (*Config, error) {
	var err error
	initOnce.Do(func() {
		Global, err = LoadConfigWithPath(configPath)
	})
	return Global, err
}

// Config represents the CrawlnChat configuration
type Config struct {
	// API contains protocol handshake metadata.
	API struct {
		// Title is the display name reported to clients.
		Title string `json:"title" env:"API_TITLE"`

		// Description summarizes the service for clients.
		Description string `json:"description" env:"API_DESCRIPTION"`

		// Version is the service version string.
		Version string `json:"version" env:"API_VERSION"`
	} `json:"api"`

	// Server contains frontend transport configuration.
	Server struct {
		// MCPName is the server name announced during the MCP handshake.
		MCPName string `json:"mcp_name" env:"MCP_NAME"`

		// HTTPPort is the port for the HTTP frontend.
		HTTPPort int `json:"http_port" env:"HTTP_PORT" validate:"min:1"`
	} `json:"server"`

	// Store contains storage-related configuration.
	Store struct {
		// SQLitePath is the path to the SQLite database file.
		SQLitePath string `json:"sqlite_path" env:"SQLITE_PATH" validate:"required"`
	} `json:"store"`

	// Embedder contains embedding-related configuration.
	Embedder struct {
		// Provider is the name of the embedding provider ("openai" or "mock").
		Provider string `json:"provider" env:"EMBEDDER_PROVIDER"`

		// Model is the embedding model identifier.
		Model string `json:"model" env:"EMBEDDER_MODEL"`

		// Dimensions is the number of dimensions for the embeddings.
		Dimensions int `json:"dimensions" env:"EMBEDDER_DIMENSIONS" validate:"min:1"`

		// ApiKey is the API key for the embedding provider.
		ApiKey string `json:"api_key" env:"EMBEDDER_API_KEY"`
	} `json:"embedder"`

	// LLM contains answer-generation configuration.
	LLM struct {
		// Provider is the primary provider name.
		Provider string `json:"provider" env:"LLM_PROVIDER"`

		// Model is the model identifier for the primary provider.
		Model string `json:"model" env:"LLM_MODEL"`

		// ApiKey is the API key for the primary provider.
		ApiKey string `json:"api_key" env:"LLM_API_KEY"`

		// FallbackOrder lists provider names to try when the primary fails.
		FallbackOrder []string `json:"fallback_order" env:"LLM_FALLBACK_ORDER"`
	} `json:"llm"`

	// Crawl contains crawling configuration.
	Crawl struct {
		// RateLimit is the maximum number of concurrent page fetches.
		RateLimit int `json:"rate_limit" env:"CRAWL_RATE_LIMIT" validate:"min:1"`

		// UserAgent identifies the crawler to target sites.
		UserAgent string `json:"user_agent" env:"CRAWL_USER_AGENT"`

		// WebsitesFile is the path to the website definitions file.
		WebsitesFile string `json:"websites_file" env:"CRAWL_WEBSITES_FILE"`
	} `json:"crawl"`

	// Logging contains logging-related configuration.
	Logging struct {
		// Level is the minimum log level to display ("debug", "info", "warn", "error").
		Level string `json:"level" env:"LOG_LEVEL" validate:"required"`

		// Format is the log format to use ("text", "json").
		Format string `json:"format" env:"LOG_FORMAT"`

		// FilePath is an optional log file that stays verbose when console
		// output is suppressed for the stdio transport.
		FilePath string `json:"file_path" env:"LOG_FILE"`
	} `json:"logging"`

	// Internal state (not saved to config file)
	configPath     string       `json:"-"`
	mutex          sync.RWMutex `json:"-"`
	lastModifiedAt time.Time    `json:"-"`
}

// Default configuration values
const (
	DefaultConfigFilename = ".crawlnchatconfig"
	DefaultSQLitePath     = ".crawlnchat.db"
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
	DefaultLogFile        = "logs/crawlnchat.log"
	DefaultHTTPPort       = 8000
	DefaultMCPName        = "crawlnchat"
	DefaultAPITitle       = "Crawl n Chat API"
	DefaultAPIDescription = "API for chatting with website content"
	DefaultAPIVersion     = "0.1.0"
	DefaultRateLimit      = 5
	DefaultUserAgent      = "CrawlnChat/1.0 (+https://github.com/joejoinerr/CrawlnChat)"
)

// NewConfig creates a new Config instance with default values
func NewConfig() *Config {
	config := &Config{}
	config.API.Title = DefaultAPITitle
	config.API.Description = DefaultAPIDescription
	config.API.Version = DefaultAPIVersion
	config.Server.MCPName = DefaultMCPName
	config.Server.HTTPPort = DefaultHTTPPort
	config.Store.SQLitePath = DefaultSQLitePath
	config.Embedder.Provider = "mock"
	config.Embedder.Model = "text-embedding-3-small"
	config.Embedder.Dimensions = 1536
	config.LLM.Provider = "openai"
	config.LLM.Model = "gpt-4"
	config.LLM.FallbackOrder = []string{"anthropic", "google", "xai"}
	config.Crawl.RateLimit = DefaultRateLimit
	config.Crawl.UserAgent = DefaultUserAgent
	config.Logging.Level = DefaultLogLevel
	config.Logging.Format = DefaultLogFormat
	config.Logging.FilePath = DefaultLogFile
	return config
}

// LoadConfig loads the configuration from the default path
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath(DefaultConfigFilename)
}

// LoadConfigWithPath loads the configuration from a specific path
func LoadConfigWithPath(configPath string) (*Config, error) {
	// Create a default logger for configuration loading
	stdLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create default configuration
	cfg := NewConfig()

	// Try to find config file if path is default
	if configPath == DefaultConfigFilename {
		foundPath, err := configurator.FindConfigFile(configPath)
		if err == nil {
			configPath = foundPath
			stdLogger.Debug("Found config file at " + foundPath)
		}
	}

	// Check if the file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// File doesn't exist, return default config
		stdLogger.Info("Config file not found, using default configuration", "path", configPath)
		cfg.configPath = configPath
		cfg.lastModifiedAt = time.Now()
		return cfg, nil
	}

	stdLogger.Info("Loading configuration", "path", configPath)

	// Create configurator instance
	config := configurator.New(stdLogger).
		WithProvider(configurator.NewDefaultProvider()).
		WithProvider(configurator.NewFileProvider(configPath)).
		WithProvider(configurator.NewEnvProvider("CRAWLNCHAT")).
		WithValidator(configurator.NewDefaultValidator())

	// Load configuration
	ctx := context.Background()
	if err := config.Load(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Store the config path for future operations
	cfg.configPath = configPath
	cfg.lastModifiedAt = time.Now()

	return cfg, nil
}

// SaveToFile saves the configuration to the specified file
func (c *Config) SaveToFile(path string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Create directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Save using configurator's SaveToFile function
	if err := configurator.SaveToFile(c, path, configurator.FormatJSON); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Update internal state
	c.configPath = path
	c.lastModifiedAt = time.Now()

	return nil
}

// Save saves the configuration to the last used file path
func (c *Config) Save() error {
	if c.configPath == "" {
		c.configPath = DefaultConfigFilename
	}
	return c.SaveToFile(c.configPath)
}

// GetConfigPath returns the path of the currently loaded configuration file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// ProviderAPIKey resolves the API key for a provider, falling back to the
// conventional environment variables when the config carries none.
func (c *Config) ProviderAPIKey(providerName string) string {
	if providerName == c.LLM.Provider && c.LLM.ApiKey != "" {
		return c.LLM.ApiKey
	}

	switch providerName {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "google":
		return os.Getenv("GOOGLE_API_KEY")
	case "xai":
		return os.Getenv("XAI_API_KEY")
	default:
		return ""
	}
}
