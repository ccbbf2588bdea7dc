// scout-apm-mcp exposes the ScoutAPM monitoring API as MCP tools over
// stdio, for use by AI agents and MCP-capable editors.
//
// Installation:
//
//	go build -o scout-apm-mcp ./cmd/scout-apm-mcp
//	mv scout-apm-mcp /usr/local/bin/
//
// Usage:
//
//	SCOUT_APM_API_KEY=... scout-apm-mcp
//	scout-apm-mcp --api-key ...
//	scout-apm-mcp version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/amkisko/scout-apm-mcp/internal/apikey"
	"github.com/amkisko/scout-apm-mcp/internal/cache"
	"github.com/amkisko/scout-apm-mcp/internal/mcpserver"
	"github.com/amkisko/scout-apm-mcp/internal/scout"
	"github.com/amkisko/scout-apm-mcp/internal/version"
)

type runConfig struct {
	APIKey   string
	APIURL   string
	CAFile   string
	NoCache  bool
	CacheTTL time.Duration
	Debug    bool
}

func main() {
	cfg := runConfig{}

	rootCmd := &cobra.Command{
		Use:   "scout-apm-mcp",
		Short: "MCP server for the ScoutAPM monitoring API",
		Long: `scout-apm-mcp is an MCP server that exposes ScoutAPM application
performance data (metrics, endpoints, traces, error groups and insights)
as tools over stdio.

The API key is resolved from --api-key, the SCOUT_APM_API_KEY or
SCOUT_API_KEY environment variables, or a 1Password secret reference in
SCOUT_APM_OP_ENTRY, in that order.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := buildLogger(cfg.Debug)
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Sync()
			return run(cmd.Context(), cfg, logger)
		},
	}

	rootCmd.Flags().StringVar(&cfg.APIKey, "api-key", "", "ScoutAPM API key. Overrides environment variables.")
	rootCmd.Flags().StringVar(&cfg.APIURL, "api-url", scout.DefaultBaseURL, "Base URL of the ScoutAPM API.")
	rootCmd.Flags().StringVar(&cfg.CAFile, "ca-file", "", "Path to a PEM bundle of additional trusted CA certificates. Overrides SCOUT_APM_CA_FILE.")
	rootCmd.Flags().BoolVar(&cfg.NoCache, "no-cache", false, "Disable response caching.")
	rootCmd.Flags().DurationVar(&cfg.CacheTTL, "cache-ttl", cache.DefaultTTL, "How long cached API responses stay fresh.")
	rootCmd.Flags().BoolVar(&cfg.Debug, "debug", false, "Enable debug logging.")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger creates a stderr logger. Stdout carries the MCP wire
// protocol and must stay clean.
func buildLogger(debug bool) (*zap.Logger, error) {
	logConfig := zap.NewProductionConfig()
	logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConfig.OutputPaths = []string{"stderr"}
	logConfig.ErrorOutputPaths = []string{"stderr"}
	if debug {
		logConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return logConfig.Build()
}

// run contains the main application logic, separated from main() for testability.
func run(ctx context.Context, cfg runConfig, logger *zap.Logger) error {
	key, err := apikey.Resolve(cfg.APIKey, apikey.ResolverOptions{Logger: logger})
	if err != nil {
		return err
	}

	var responseCache *cache.ResponseCache
	if !cfg.NoCache {
		responseCache, err = cache.New(cache.Options{
			TTL:    cfg.CacheTTL,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("create response cache: %w", err)
		}
		defer responseCache.Close()
	}

	client, err := scout.NewClient(scout.ClientOptions{
		APIKey:  key,
		BaseURL: cfg.APIURL,
		CAFile:  cfg.CAFile,
		Cache:   responseCache,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("create API client: %w", err)
	}

	server := mcpserver.NewServer(client, mcpserver.ServerOptions{
		Version: version.Version,
		Logger:  logger,
	})

	logger.Info("Starting scout-apm-mcp",
		zap.String("version", version.Version),
		zap.String("api_url", cfg.APIURL),
		zap.Bool("cache", !cfg.NoCache),
	)

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	logger.Info("Shutting down")
	return nil
}
