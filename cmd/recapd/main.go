package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/ai"
	"github.com/recapd/recapd/internal/config"
	"github.com/recapd/recapd/internal/db"
	"github.com/recapd/recapd/internal/embedcache"
	"github.com/recapd/recapd/internal/filestore"
	"github.com/recapd/recapd/internal/handler"
	"github.com/recapd/recapd/internal/job"
	"github.com/recapd/recapd/internal/middleware"
	"github.com/recapd/recapd/internal/repo"
	"github.com/recapd/recapd/internal/schedule"
	"github.com/recapd/recapd/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "recapd",
		Short: "recapd meeting transcript QA server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run recapd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			database, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(database); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, database)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func buildAI(cfg config.AIConfig) (ai.IGenerator, ai.IEmbedder, error) {
	generators := make([]ai.GeneratorEntry, 0, len(cfg.Providers))
	embedders := make([]ai.EmbedderEntry, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("init ai provider %s: %w", pc.Provider, err)
		}
		if pc.ChatModel != "" {
			generators = append(generators, ai.GeneratorEntry{
				Name:      pc.Provider,
				Generator: ai.NewGenerator(provider, pc.ChatModel),
			})
		}
		if pc.EmbedModel != "" {
			embedders = append(embedders, ai.EmbedderEntry{
				Name:     pc.Provider,
				Embedder: ai.NewEmbedder(provider, pc.EmbedModel),
			})
		}
	}
	generator := ai.NewGroupGenerator(generators)
	embedder := ai.NewGroupEmbedder(embedders)
	if generator == nil || embedder == nil {
		return nil, nil, fmt.Errorf("at least one chat model and one embed model are required")
	}
	return generator, embedder, nil
}

func runServer(cfg *config.Config, database *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
	)

	transcriptRepo := repo.NewTranscriptRepo(database)
	chunkRepo := repo.NewChunkRepo(database)

	generator, rawEmbedder, err := buildAI(cfg.AI)
	if err != nil {
		return err
	}
	cachedEmbedder := embedcache.WrapLruCacheToEmbedder(
		rawEmbedder,
		cfg.AI.EmbedCacheSize,
		time.Duration(cfg.AI.EmbedCacheTTLMinutes)*time.Minute,
	)
	batchEmbedder := ai.NewBatchEmbedder(cachedEmbedder, time.Duration(cfg.AI.EmbedBatchDelayMS)*time.Millisecond)

	ingestService := service.NewIngestService(transcriptRepo, chunkRepo, batchEmbedder, cfg.Ingest.MaxChunkLen, cfg.Ingest.ChunkOverlap)
	searchService := service.NewSearchService(chunkRepo)
	retrievalService := service.NewRetrievalService(batchEmbedder, chunkRepo, searchService, cfg.Retrieval)
	answerManager := ai.NewManager(generator, ai.ManagerConfig{
		Timeout: time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	})
	chatService := service.NewChatService(retrievalService, answerManager)

	storeArgs := cfg.FileStore.Data
	if storeArgs == nil {
		storeArgs = map[string]interface{}{"dir": cfg.FileStore.Dir}
	}
	archive, err := filestore.New(cfg.FileStore.Type, storeArgs)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	transcriptService := service.NewTranscriptService(transcriptRepo, archive, ingestService)

	deps := handler.RouterDeps{
		Transcripts:   handler.NewTranscriptHandler(transcriptService),
		Embeddings:    handler.NewEmbeddingHandler(ingestService),
		Chat:          handler.NewChatHandler(chatService),
		ChatRateLimit: time.Duration(cfg.ChatRateLimitMS) * time.Millisecond,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	backfill := job.NewEmbeddingBackfillJob(transcriptRepo, ingestService, cfg.Jobs.BackfillBatch)
	if err := scheduler.AddJob(backfill, cfg.Jobs.BackfillSpec); err != nil {
		return fmt.Errorf("schedule backfill: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
