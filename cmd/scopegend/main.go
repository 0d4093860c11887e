// Scopegend is the document ingestion and scope generation daemon.
//
// It accepts client requirement documents over HTTP, gates short
// submissions behind a clarification question, and generates structured
// scope documents via an LLM provider with a heuristic fallback.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	scopegend
//
//	# Configure via environment
//	SERVER_PORT=8081 GEMINI_API_KEY=... scopegend
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/scopegen/internal/config"
	"github.com/fyrsmithlabs/scopegen/internal/document"
	"github.com/fyrsmithlabs/scopegen/internal/export"
	"github.com/fyrsmithlabs/scopegen/internal/httpapi"
	"github.com/fyrsmithlabs/scopegen/internal/llm"
	"github.com/fyrsmithlabs/scopegen/internal/logging"
	"github.com/fyrsmithlabs/scopegen/internal/rag"
	"github.com/fyrsmithlabs/scopegen/internal/textextract"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  scopegend           Start the scopegend daemon\n")
			fmt.Fprintf(os.Stderr, "  scopegend version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("scopegend by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the scopegend server and blocks until the context is
// cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logging.Sync(logger) }()

	logger.Info("starting scopegend",
		zap.String("version", version),
		zap.String("strategy", cfg.Scope.Strategy),
	)

	generator, cleanup, err := buildGenerator(cfg, logger)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	service := document.NewService(
		document.Config{
			ClarificationMinLength: cfg.Clarification.MinLength,
			ClarificationTimeout:   cfg.ClarificationTimeout(),
			Strategy:               document.Strategy(cfg.Scope.Strategy),
		},
		document.NewStore(),
		document.Deps{
			Generator:   generator,
			Extract:     textextract.FromBytes,
			RenderExcel: export.ToExcel,
			RenderPDF:   export.ToPDF,
		},
		logger,
	)

	server, err := httpapi.NewServer(service, logger, &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}

// buildGenerator wires the LLM generator and, when example directories
// are configured, the few-shot retriever. A missing provider key is not
// fatal: the service falls back to the heuristic parser.
func buildGenerator(cfg *config.Config, logger *zap.Logger) (document.ScopeGenerator, func(), error) {
	llmCfg := llm.Config{
		Gemini: llm.ProviderConfig{
			APIKey:  cfg.Gemini.APIKey.Value(),
			Model:   cfg.Gemini.Model,
			BaseURL: cfg.Gemini.BaseURL,
		},
		OpenAI: llm.ProviderConfig{
			APIKey:  cfg.OpenAI.APIKey.Value(),
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
		},
		Groq: llm.ProviderConfig{
			APIKey:  cfg.Groq.APIKey.Value(),
			Model:   cfg.Groq.Model,
			BaseURL: cfg.Groq.BaseURL,
		},
	}

	var retriever llm.ExampleRetriever
	var cleanup func()
	if cfg.RAG.InputDir != "" {
		embedder, err := rag.NewFastEmbedder(rag.FastEmbedConfig{
			Model:    cfg.RAG.Model,
			CacheDir: cfg.RAG.CacheDir,
		})
		if err != nil {
			logger.Warn("embedding model unavailable, disabling few-shot retrieval", zap.Error(err))
		} else {
			retriever = rag.NewRetriever(
				cfg.RAG.InputDir,
				cfg.RAG.OutputDir,
				cfg.RAG.TopK,
				embedder,
				textextract.FromBytes,
				logger,
			)
			cleanup = func() { _ = embedder.Close() }
		}
	}

	generator, err := llm.NewGenerator(llmCfg, retriever, logger)
	if err != nil {
		if errors.Is(err, llm.ErrNoProvider) {
			logger.Warn("no llm provider configured, using heuristic parser only")
			return nil, cleanup, nil
		}
		return nil, cleanup, fmt.Errorf("creating llm generator: %w", err)
	}
	return generator, cleanup, nil
}
