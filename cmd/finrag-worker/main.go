package main

import (
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"finrag/internal/chunker"
	"finrag/internal/config"
	"finrag/internal/domain"
	"finrag/internal/embedding/gemini"
	"finrag/internal/embedding/local"
	"finrag/internal/extractor"
	"finrag/internal/generator"
	"finrag/internal/pipeline"
	"finrag/internal/vectorstore/memory"
	"finrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	gen, err := generator.NewClient(generator.Config{
		BaseURL:   cfg.Generator.Gemini.BaseURL,
		APIKeyEnv: cfg.Generator.Gemini.APIKeyEnv,
		Model:     cfg.Generator.Model,
		Timeout:   time.Duration(cfg.Generator.Gemini.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("generator init failed")
	}

	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "gemini":
		emb, err = gemini.NewClient(gemini.Config{
			BaseURL:   cfg.Embedder.Gemini.BaseURL,
			APIKeyEnv: cfg.Embedder.Gemini.APIKeyEnv,
			Model:     cfg.Embedder.Model,
			Dimension: cfg.Embedder.Dimension,
			Timeout:   time.Duration(cfg.Embedder.Gemini.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("embedder init failed")
		}
	case "local":
		emb = local.NewEmbedder(cfg.Embedder.Dimension)
	default:
		log.Fatal().Str("type", cfg.Embedder.Type).Msg("unknown embedder")
	}

	var store domain.VectorStore
	switch cfg.VectorStore.Type {
	case "qdrant":
		store = qdrant.NewStorage(qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	case "memory":
		store = memory.NewStorage()
	default:
		log.Fatal().Str("type", cfg.VectorStore.Type).Msg("unknown vector store")
	}

	split := chunker.NewTokenSplitter(cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	extract := extractor.NewDispatcher(extractor.NewPDF(), extractor.NewImage(gen))
	acts := pipeline.NewActivities(extract, split, emb, store, gen)

	log.Info().
		Str("address", cfg.Temporal.Address).
		Str("namespace", cfg.Temporal.Namespace).
		Str("queue", cfg.Temporal.TaskQueue).
		Msg("starting worker")

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.Address,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Temporal client")
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(pipeline.IngestFileWorkflow, workflow.RegisterOptions{Name: pipeline.IngestFileWorkflowName})
	w.RegisterWorkflowWithOptions(pipeline.QueryWorkflow, workflow.RegisterOptions{Name: pipeline.QueryWorkflowName})
	w.RegisterActivity(acts)

	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal().Err(err).Msg("worker failed")
	}
}
