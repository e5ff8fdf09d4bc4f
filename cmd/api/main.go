package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/leadboard/leadboard/cmd/mainconfig"
	"github.com/leadboard/leadboard/internal/api/router"
	"github.com/leadboard/leadboard/internal/chat"
	appconfig "github.com/leadboard/leadboard/internal/config"
	"github.com/leadboard/leadboard/internal/conversations"
	"github.com/leadboard/leadboard/internal/leads"
	"github.com/leadboard/leadboard/internal/observability/metrics"
	"github.com/leadboard/leadboard/internal/users"
	"github.com/leadboard/leadboard/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting leadboard API server", "env", cfg.Env, "port", cfg.Port)

	if cfg.SessionJWTSecret == "" {
		logger.Error("SESSION_JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	sqlDB := openSQLDB(cfg.DatabaseURL, logger)
	if sqlDB != nil {
		defer func() { _ = sqlDB.Close() }()
	}

	var leadsRepo leads.Repository
	var usersRepo users.Repository
	if pool != nil {
		leadsRepo = leads.NewPostgresRepository(pool)
		usersRepo = users.NewPostgresRepository(pool)
	} else {
		logger.Warn("no DATABASE_URL, using in-memory repositories")
		leadsRepo = leads.NewInMemoryRepository()
		usersRepo = users.NewInMemoryRepository()
	}

	var convs *conversations.Store
	if sqlDB != nil {
		convs = conversations.NewStore(sqlDB)
	}

	rdb := connectRedis(cfg)
	tracer := otel.Tracer("leadboard/chat")
	state := chat.NewSessionState(rdb, tracer)

	chatMetrics := metrics.NewChatMetrics(nil)

	llm := newLLMClient(ctx, cfg, logger)
	modelID := cfg.GeminiModelID
	if cfg.GeminiAPIKey == "" && cfg.BedrockModelID != "" {
		modelID = cfg.BedrockModelID
	}
	executor := chat.NewExecutor(leadsRepo, state.Pending, logger)
	orchestratorOpts := []chat.OrchestratorOption{
		chat.WithChatMetrics(chatMetrics),
		chat.WithLLMTimeout(cfg.LLMTimeout),
		chat.WithModelParams(modelID, int32(cfg.LLMMaxTokens), float32(cfg.LLMTemperature)),
	}
	if convs != nil {
		orchestratorOpts = append(orchestratorOpts, chat.WithConversationStore(convs))
	}
	orchestrator := chat.NewOrchestrator(llm, leadsRepo, executor, state, logger, orchestratorOpts...)

	var (
		jobs      chat.JobRecorder
		publisher *chat.Publisher
		worker    *chat.Worker
	)
	if cfg.UseMemoryQueue {
		// Single-process mode: the turn worker runs inside the API binary.
		queue := chat.NewMemoryQueue(0)
		if pool != nil {
			jobs = chat.NewPGJobStore(pool)
		} else {
			jobs = chat.NewMemoryJobStore()
		}
		publisher = chat.NewPublisher(queue, logger)
		worker = chat.NewWorker(orchestrator, queue, jobs.(chat.JobUpdater), logger,
			chat.WithWorkerCount(cfg.WorkerCount))
	} else {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		queue := chat.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.ChatQueueURL)
		jobs = chat.NewJobStore(dynamodb.NewFromConfig(awsCfg), cfg.ChatJobsTable, logger)
		publisher = chat.NewPublisher(queue, logger)
	}

	leadsHandler := leads.NewHandler(leadsRepo, logger)
	usersHandler := users.NewHandler(usersRepo, cfg.SessionJWTSecret, cfg.SessionTTL, state, logger)
	chatHandler := chat.NewHandler(jobs, publisher, state, convs, logger)
	var convsHandler *conversations.Handler
	if convs != nil {
		convsHandler = conversations.NewHandler(convs, logger)
	}

	r := router.New(&router.Config{
		Logger:               logger,
		LeadsHandler:         leadsHandler,
		UsersHandler:         usersHandler,
		ChatHandler:          chatHandler,
		ConversationsHandler: convsHandler,
		SessionSecret:        cfg.SessionJWTSecret,
		MetricsHandler:       promhttp.Handler(),
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if worker != nil {
		worker.Start(workerCtx)
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	stopWorker()
	if worker != nil {
		worker.Wait()
	}

	logger.Info("server stopped")
}

// connectPostgresPool opens a pgx pool, or returns nil when no URL is
// configured so the server can fall back to in-memory storage.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}
	return pool
}

func openSQLDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if databaseURL == "" {
		return nil
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("failed to open database/sql handle", "error", err)
		os.Exit(1)
	}
	return db
}

func connectRedis(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// newLLMClient prefers Gemini, with Bedrock Converse as a fallback when
// both are configured.
func newLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) chat.LLMClient {
	var gemini chat.LLMClient
	if cfg.GeminiAPIKey != "" {
		client, err := chat.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		gemini = client
	}

	var bedrock chat.LLMClient
	if cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for bedrock", "error", err)
			os.Exit(1)
		}
		bedrock = chat.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg))
	}

	switch {
	case gemini != nil && bedrock != nil:
		return chat.NewFallbackLLMClient(gemini, bedrock, logger.Logger)
	case gemini != nil:
		return gemini
	case bedrock != nil:
		return bedrock
	default:
		logger.Error("no LLM configured: set GEMINI_API_KEY or BEDROCK_MODEL_ID")
		os.Exit(1)
		return nil
	}
}
