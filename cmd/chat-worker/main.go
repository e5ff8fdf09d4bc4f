package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/leadboard/leadboard/cmd/mainconfig"
	"github.com/leadboard/leadboard/internal/chat"
	appconfig "github.com/leadboard/leadboard/internal/config"
	"github.com/leadboard/leadboard/internal/conversations"
	"github.com/leadboard/leadboard/internal/leads"
	"github.com/leadboard/leadboard/internal/observability/metrics"
	"github.com/leadboard/leadboard/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting chat worker", "env", cfg.Env)

	ctx := context.Background()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := chat.NewSQSQueue(sqs.NewFromConfig(awsConfig), cfg.ChatQueueURL)
	jobStore := chat.NewJobStore(dynamodb.NewFromConfig(awsConfig), cfg.ChatJobsTable, logger)

	var leadsRepo leads.Repository
	var convs *conversations.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create postgres pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		leadsRepo = leads.NewPostgresRepository(pool)

		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database/sql handle", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		convs = conversations.NewStore(db)
	} else {
		logger.Warn("no DATABASE_URL, using in-memory lead repository")
		leadsRepo = leads.NewInMemoryRepository()
	}

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	state := chat.NewSessionState(redis.NewClient(redisOpts), otel.Tracer("leadboard/chat"))

	llm := newLLMClient(ctx, cfg, awsConfig, logger)
	modelID := cfg.GeminiModelID
	if cfg.GeminiAPIKey == "" && cfg.BedrockModelID != "" {
		modelID = cfg.BedrockModelID
	}

	executor := chat.NewExecutor(leadsRepo, state.Pending, logger)
	orchestratorOpts := []chat.OrchestratorOption{
		chat.WithChatMetrics(metrics.NewChatMetrics(nil)),
		chat.WithLLMTimeout(cfg.LLMTimeout),
		chat.WithModelParams(modelID, int32(cfg.LLMMaxTokens), float32(cfg.LLMTemperature)),
	}
	if convs != nil {
		orchestratorOpts = append(orchestratorOpts, chat.WithConversationStore(convs))
	}
	orchestrator := chat.NewOrchestrator(llm, leadsRepo, executor, state, logger, orchestratorOpts...)

	worker := chat.NewWorker(
		orchestrator,
		queue,
		jobStore,
		logger,
		chat.WithWorkerCount(cfg.WorkerCount),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	worker.Start(runCtx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down chat worker")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("chat worker stopped")
	case <-doneCtx.Done():
		logger.Error("chat worker shutdown timed out", "error", doneCtx.Err())
	}
}

func newLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) chat.LLMClient {
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
