// Package crawlnchat wires the CrawlnChat service together: it crawls
// configured websites into a local content store and answers questions about
// them over an MCP stdio tool server or an HTTP API.
package crawlnchat

import (
	"context"
	"os"
	"time"

	"github.com/joejoinerr/CrawlnChat/internal/config"
	"github.com/joejoinerr/CrawlnChat/internal/contentstore"
	"github.com/joejoinerr/CrawlnChat/internal/crawler"
	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/llm"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
	"github.com/joejoinerr/CrawlnChat/internal/router"
	"github.com/joejoinerr/CrawlnChat/internal/server"
	"github.com/joejoinerr/CrawlnChat/internal/vector"
	"github.com/joejoinerr/CrawlnChat/internal/web"
)

// shutdownTimeout bounds how long Stop waits for in-flight HTTP requests.
const shutdownTimeout = 10 * time.Second

// Config represents the configuration for the CrawlnChat service.
type Config = config.Config

// WebsiteConfig defines one website to crawl.
type WebsiteConfig = config.WebsiteConfig

// NewConfig returns a configuration populated with defaults.
func NewConfig() *Config {
	return config.NewConfig()
}

// Server represents the CrawlnChat service.
type Server struct {
	config     *config.Config
	websites   []config.WebsiteConfig
	store      contentstore.ContentStore
	embedder   vector.Embedder
	engine     router.QueryEngine
	processor  *crawler.Processor
	scheduler  *crawler.Scheduler
	toolServer *server.MCPChatToolServer
	frontend   *web.Frontend
	log        *logger.Logger
}

// ServerOptions defines the options for creating a new Server.
type ServerOptions struct {
	Config       *Config // Pre-filled config. If nil, ConfigPath is used.
	ConfigPath   string  // Path to config file. Used if Config is nil.
	WebsitesPath string  // Path to the websites file. Empty tries the default locations.

	// Engine is an optional pre-built query engine. When nil, one is
	// constructed from the configured store, embedder, and LLM providers.
	Engine router.QueryEngine
}

// NewServer creates a new CrawlnChat Server with the given options.
func NewServer(opts ServerOptions) (*Server, error) {
	var cfg *Config
	var err error

	if opts.Config != nil {
		cfg = opts.Config
	} else if opts.ConfigPath != "" {
		cfg, err = config.LoadConfigWithPath(opts.ConfigPath)
		if err != nil {
			return nil, errortypes.ConfigError(err, "failed to load configuration from "+opts.ConfigPath)
		}
	} else {
		cfg, err = config.LoadConfig()
		if err != nil {
			return nil, errortypes.ConfigError(err, "failed to load configuration")
		}
	}

	log := configureLogging(cfg)

	websitesPath := opts.WebsitesPath
	if websitesPath == "" {
		websitesPath = cfg.Crawl.WebsitesFile
	}
	websites, err := config.LoadWebsiteConfigs(websitesPath)
	if err != nil {
		return nil, err
	}

	store, embedder, err := CreateComponents(cfg)
	if err != nil {
		return nil, err
	}

	engine := opts.Engine
	if engine == nil {
		engine, err = buildQueryEngine(cfg, store, embedder)
		if err != nil {
			return nil, err
		}
	}

	processor := crawler.NewProcessor(store, embedder, cfg.Crawl.RateLimit, cfg.Crawl.UserAgent)
	scheduler := crawler.NewScheduler(processor, store, websites, "")

	toolServer := server.NewChatToolServer(server.Options{
		Name:        cfg.Server.MCPName,
		Version:     cfg.API.Version,
		Description: cfg.API.Description,
		Engine:      engine,
	})
	if err := toolServer.Initialize(); err != nil {
		return nil, errortypes.ConfigError(err, "failed to initialize MCP chat tool server")
	}

	s := &Server{
		config:     cfg,
		websites:   websites,
		store:      store,
		embedder:   embedder,
		engine:     engine,
		processor:  processor,
		scheduler:  scheduler,
		toolServer: toolServer,
		log:        log,
	}
	s.frontend = web.NewFrontend(func() router.QueryEngine { return s.toolServer.Handle().Get() },
		cfg.API.Title, cfg.API.Version)

	log.Info("CrawlnChat server initialized with %d configured websites", len(websites))
	return s, nil
}

// configureLogging applies the logging config to the default logger.
func configureLogging(cfg *Config) *logger.Logger {
	log := logger.New(&logger.Config{
		Level:    logger.ParseLevel(cfg.Logging.Level),
		Format:   logger.ParseFormat(cfg.Logging.Format),
		FilePath: cfg.Logging.FilePath,
	})
	logger.SetDefaultLogger(log)
	return log
}

// buildQueryEngine assembles the provider chain and router from config.
func buildQueryEngine(cfg *Config, store contentstore.ContentStore, embedder vector.Embedder) (router.QueryEngine, error) {
	providerConfigs := make(map[string]llm.Config)

	providerConfigs[cfg.LLM.Provider] = llm.Config{
		APIKey:  cfg.ProviderAPIKey(cfg.LLM.Provider),
		ModelID: cfg.LLM.Model,
	}
	for _, name := range cfg.LLM.FallbackOrder {
		if _, exists := providerConfigs[name]; exists {
			continue
		}
		providerConfigs[name] = llm.Config{APIKey: cfg.ProviderAPIKey(name)}
	}

	factory := llm.NewProviderFactory(providerConfigs)
	chain := factory.GetProviderChain(append([]string{cfg.LLM.Provider}, cfg.LLM.FallbackOrder...))
	if len(chain) == 0 {
		return nil, errortypes.ConfigError(nil, "no LLM provider has an API key configured")
	}

	return router.NewAgentRouter(router.Options{
		Store:     store,
		Embedder:  embedder,
		Providers: chain,
	})
}

// CreateComponents creates and initializes the content store and embedder
// without creating a server instance.
func CreateComponents(cfg *Config) (contentstore.ContentStore, vector.Embedder, error) {
	store := contentstore.NewSQLiteContentStore()
	if err := store.Initialize(cfg.Store.SQLitePath); err != nil {
		return nil, nil, errortypes.DatabaseError(err, "failed to initialize SQLite content store")
	}

	var embedder vector.Embedder
	switch cfg.Embedder.Provider {
	case "openai":
		apiKey := cfg.Embedder.ApiKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		embedder = vector.NewOpenAIEmbedder(apiKey, cfg.Embedder.Model)
	case "mock", "":
		dimensions := cfg.Embedder.Dimensions
		if dimensions <= 0 {
			dimensions = vector.DefaultEmbeddingDimensions
		}
		embedder = vector.NewMockEmbedder(dimensions)
	default:
		return nil, nil, errortypes.ConfigError(nil, "unknown embedder provider: "+cfg.Embedder.Provider)
	}

	if err := embedder.Initialize(); err != nil {
		return nil, nil, errortypes.ConfigError(err, "failed to initialize embedder")
	}

	return store, embedder, nil
}

// Crawl crawls every configured website. With recrawl set, existing
// namespaces are rebuilt instead of skipped.
func (s *Server) Crawl(ctx context.Context, recrawl bool) []*crawler.CrawlStats {
	return s.processor.ProcessWebsites(ctx, s.websites, recrawl)
}

// StartMCP blocks serving the MCP stdio transport. It initializes the
// engine handle, suppresses console logging, and runs the transport loop.
func (s *Server) StartMCP() error {
	s.log.Info("Starting CrawlnChat MCP server")
	if err := s.scheduler.Start(context.Background()); err != nil {
		return err
	}
	return s.toolServer.Start()
}

// StartHTTP blocks serving the HTTP frontend. The engine handle is
// initialized first so requests can be answered immediately.
func (s *Server) StartHTTP() error {
	s.log.Info("Starting CrawlnChat HTTP frontend")
	if _, err := s.toolServer.Handle().Initialize(s.engine, nil); err != nil {
		return err
	}
	if err := s.scheduler.Start(context.Background()); err != nil {
		return err
	}
	return s.frontend.ListenAndServe(s.config.Server.HTTPPort)
}

// ProcessQuery answers a single question directly, without a transport.
func (s *Server) ProcessQuery(ctx context.Context, query string) (*router.Result, error) {
	return s.engine.ProcessQuery(ctx, query)
}

// Stop stops the CrawlnChat service.
func (s *Server) Stop() error {
	s.log.Info("Stopping CrawlnChat service")
	s.scheduler.Stop()

	if err := s.toolServer.Stop(); err != nil {
		s.log.Error("Error stopping tool server: %v", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.frontend.Shutdown(ctx); err != nil {
		s.log.Error("Error stopping HTTP frontend: %v", err)
		return err
	}

	if err := s.store.Close(); err != nil {
		s.log.Error("Failed to close content store: %v", err)
		return err
	}

	s.log.Info("CrawlnChat service stopped")
	return nil
}

// Websites returns the configured websites.
func (s *Server) Websites() []config.WebsiteConfig {
	return s.websites
}

// GetStore returns the content store instance used by the server.
func (s *Server) GetStore() contentstore.ContentStore {
	return s.store
}

// GetEmbedder returns the embedder instance used by the server.
func (s *Server) GetEmbedder() vector.Embedder {
	return s.embedder
}
