package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ndrandal/tradesignal-core/internal/chatsource"
	"github.com/ndrandal/tradesignal-core/internal/config"
	"github.com/ndrandal/tradesignal-core/internal/distribution"
	"github.com/ndrandal/tradesignal-core/internal/extract"
	"github.com/ndrandal/tradesignal-core/internal/extract/ai"
	"github.com/ndrandal/tradesignal-core/internal/httpapi"
	"github.com/ndrandal/tradesignal-core/internal/lifecycle"
	"github.com/ndrandal/tradesignal-core/internal/queuestore"
	"github.com/ndrandal/tradesignal-core/internal/repository"
)

func main() {
	cfg := config.Load()

	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)
	log.Println("tradesignal starting")

	if cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_KEY is required")
	}

	logger := newLogger(cfg.Production)

	// Context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	// Repository (MongoDB)
	repo, err := repository.NewStore(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer repo.Close(context.Background())

	if cfg.CreateTablesOnStartup {
		if err := repo.Migrate(ctx); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}

	// Queue store (Redis)
	queue, err := queuestore.New(ctx, queuestore.Config{
		Addr:      cfg.RedisAddr,
		Password:  cfg.RedisPassword,
		DB:        cfg.RedisDB,
		Namespace: cfg.RedisNamespace,
	}, logger)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer queue.Close()

	// Extraction pipeline
	aiClient := ai.NewClient(cfg.OpenAIKey, cfg.OpenAIModel)
	pipeline := extract.NewPipeline(aiClient, logger)

	// Distribution engine
	engine := distribution.NewEngine(repo, queue, logger)

	// HTTP API (also the ops-stream notifier)
	apiServer := httpapi.NewServer(repo, queue, logger)
	engine.Notifier = apiServer

	// Lifecycle: chat event state machine + tracked background tasks
	processor := lifecycle.NewProcessor(repo, pipeline, engine, logger)
	tasks := lifecycle.NewTaskSet(ctx, processor, logger)

	source, err := newChatSource(cfg, logger)
	if err != nil {
		log.Fatalf("chat source init failed: %v", err)
	}
	defer source.Close()

	go tasks.Run(source)

	// Trade candidate retention pruner
	go repo.RunRetention(ctx, cfg.TradeRetentionDays)

	// Cold-storage archiver (opt-in)
	if cfg.S3Bucket != "" {
		archiver, err := newArchiver(ctx, cfg, repo)
		if err != nil {
			log.Printf("warning: archiver disabled: %v", err)
		} else {
			go archiver.Run(ctx)
		}
	}

	// HTTP server
	mux := http.NewServeMux()
	apiServer.Register(mux)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		log.Println("draining in-flight event tasks...")
		if !tasks.Shutdown(cfg.ShutdownDrainTimeout) {
			log.Println("warning: drain timeout exceeded, some tasks may not have finished")
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("HTTP server listening on http://%s", addr)
	log.Printf("Health check: http://%s/health", addr)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}

	log.Println("tradesignal stopped")
}

func newLogger(production bool) *slog.Logger {
	level := slog.LevelDebug
	if production {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func newChatSource(cfg *config.Config, logger *slog.Logger) (chatsource.Source, error) {
	if cfg.UseMemoryChatSource || cfg.ChatBotToken == "" {
		logger.Warn("using in-process memory chat source; no live chat events will arrive")
		return chatsource.NewMemorySource(256), nil
	}
	return chatsource.NewTelegramSource(cfg.ChatBotToken, logger)
}

func newArchiver(ctx context.Context, cfg *config.Config, repo *repository.Store) (*repository.Archiver, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	s3Client := s3.NewFromConfig(awsCfg)
	interval := time.Duration(cfg.ArchiveIntervalHours) * time.Hour
	maxAge := time.Duration(cfg.ArchiveAfterHours) * time.Hour
	return repository.NewArchiver(repo, s3Client, cfg.S3Bucket, cfg.S3Prefix, interval, maxAge), nil
}
