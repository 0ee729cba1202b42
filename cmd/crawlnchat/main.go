// Command crawlnchat crawls configured websites and serves questions about
// their content over an MCP stdio transport or an HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	crawlnchat "github.com/joejoinerr/CrawlnChat"
	"github.com/joejoinerr/CrawlnChat/internal/errortypes"
	"github.com/joejoinerr/CrawlnChat/internal/logger"
)

const (
	frontendMCP  = "mcp"
	frontendHTTP = "http"
)

var (
	configPath   string
	websitesPath string
	frontendName string
	recrawl      bool
	crawlOnly    bool
	debug        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crawlnchat",
		Short: "Chat with website content over MCP or HTTP",
		Long: `CrawlnChat crawls websites listed in a configuration file, indexes their
content locally, and answers questions about it. The answer engine is exposed
either as an MCP stdio tool server or as an HTTP API.`,
		RunE:          runServe,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the service configuration file")
	rootCmd.PersistentFlags().StringVar(&websitesPath, "websites", "", "path to the websites file (JSON or YAML)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging (default: error level)")
	rootCmd.Flags().BoolVar(&recrawl, "recrawl", false, "recrawl websites even if already indexed")
	rootCmd.Flags().StringVar(&frontendName, "frontend", frontendHTTP, "frontend to run (mcp or http)")
	rootCmd.Flags().BoolVar(&crawlOnly, "crawl-only", false, "only crawl websites, don't start a server")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a single question from the indexed content",
		Args:  cobra.ExactArgs(1),
		RunE:  runAsk,
	}
	rootCmd.AddCommand(askCmd)

	if err := rootCmd.Execute(); err != nil {
		errortypes.LogError(nil, err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newServer() (*crawlnchat.Server, error) {
	srv, err := crawlnchat.NewServer(crawlnchat.ServerOptions{
		ConfigPath:   configPath,
		WebsitesPath: websitesPath,
	})
	if err != nil {
		return nil, err
	}

	// The console stays quiet unless debugging; the file sink, when
	// configured, keeps the full record either way.
	if debug {
		logger.GetDefaultLogger().SetLevel(logger.DEBUG)
		logger.Debug("Debug logging enabled")
	} else {
		logger.GetDefaultLogger().SetLevel(logger.ERROR)
	}

	return srv, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	srv, err := newServer()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandler(cancel, srv)

	srv.Crawl(ctx, recrawl)

	if crawlOnly {
		return srv.Stop()
	}

	switch frontendName {
	case frontendMCP:
		return srv.StartMCP()
	case frontendHTTP:
		return srv.StartHTTP()
	default:
		return fmt.Errorf("unknown frontend type: %s", frontendName)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	srv, err := newServer()
	if err != nil {
		return err
	}
	defer srv.Stop()

	result, err := srv.ProcessQuery(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Println(result.Response)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range result.Sources {
			fmt.Println("  -", source)
		}
	} else {
		fmt.Println("\nNo sources used")
	}
	return nil
}

// setupSignalHandler stops the service on SIGINT or SIGTERM.
func setupSignalHandler(cancel context.CancelFunc, srv *crawlnchat.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("Shutting down servers...")
		cancel()
		srv.Stop()
		os.Exit(0)
	}()
}
