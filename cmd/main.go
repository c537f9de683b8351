package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"docs-query/internal/config"
	"docs-query/internal/helper"
	"docs-query/internal/llmservice"
	"docs-query/internal/loader"
	"docs-query/internal/parser"
	"docs-query/internal/rag"
	"docs-query/internal/server"
)

const (
	configFilePath = "./configs/config.yaml"
	envFilePath    = ".env"
)

func main() {
	helper.SetupLogger(os.Stdout, "debug", true)

	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	envFile := flag.String("env-file", envFilePath, "Path to a .env file")
	query := flag.String("query", "", "Answer a single query and exit instead of serving HTTP")
	dryRun := flag.Bool("dry-run", false, "With -query, print the chunks and prompt without calling the model")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	helper.SetupLogger(os.Stdout, cfg.Log.Level, cfg.Log.Pretty)

	if err := helper.CreateFolder(cfg.Docs.Dir); err != nil {
		log.Fatal().Err(err).Msg("Error creating docs folder")
	}
	log.Info().Str("docs_dir", cfg.Docs.Dir).Msg("Docs folder ready")

	chunker, err := parser.NewChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating chunker")
	}
	var opts []loader.Option
	if cfg.Cache.Enabled {
		opts = append(opts, loader.WithMemo(cfg.Cache.TTL))
	}
	docLoader := loader.New(chunker, opts...)

	ctx := context.Background()

	if *query != "" && *dryRun {
		printPrompt(ctx, cfg, docLoader, *query)
		return
	}

	generator, err := llmservice.NewFromConfig(ctx, &cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing LLM")
	}
	r := rag.NewRAG(docLoader, generator, cfg.Docs.Dir, cfg.RAG.Separator)

	if *query != "" {
		performRAG(ctx, r, *query)
		return
	}

	if err := serve(cfg, r); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}

func performRAG(ctx context.Context, r *rag.RAG, query string) {
	response, err := r.Query(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", query)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

func printPrompt(ctx context.Context, cfg *config.Config, docLoader *loader.Loader, query string) {
	runID, err := helper.GenerateUUID()
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating run id")
	}

	chunks, err := docLoader.Load(ctx, cfg.Docs.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading docs")
	}
	log.Info().Str("run_id", runID).Int("chunks", len(chunks)).Msg("Parsed content")
	helper.PrettyPrint(os.Stdout, chunks)

	log.Info().Msg("Prompt: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", rag.BuildPrompt(chunks, query, cfg.RAG.Separator))
}

// serve runs the HTTP server until SIGINT/SIGTERM, then shuts it down gracefully
func serve(cfg *config.Config, r *rag.RAG) error {
	srv, err := server.NewServer(r, cfg.Addr())
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
