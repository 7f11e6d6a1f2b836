package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/ignite/outreach-monitor/internal/agent"
	"github.com/ignite/outreach-monitor/internal/api"
	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/ignite/outreach-monitor/internal/config"
	"github.com/ignite/outreach-monitor/internal/outreach"
	"github.com/ignite/outreach-monitor/internal/pkg/awsutil"
	"github.com/ignite/outreach-monitor/internal/pkg/distlock"
	"github.com/ignite/outreach-monitor/internal/pkg/logger"
	"github.com/ignite/outreach-monitor/internal/storage"
	"github.com/ignite/outreach-monitor/internal/tasks"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

const refreshLockKey = "outreach-monitor:refresh"

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from a stub API occupying the port.
func checkPortAvailable(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("address %s is already in use: %v\n"+
			"  Hint: Run 'lsof -i :PORT' to find the blocking process", addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  Outreach Monitor (cmd/server/main.go)                    ║")
	log.Println("║  Client classification, tasks and operational queries     ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.RedactPII)
	defer logger.Sync()

	if cfg.Outreach.APIKey == "" {
		logger.Warn("OUTREACH_API_KEY not set, platform requests will be rejected")
	}

	addr := cfg.Server.Addr()
	if err := checkPortAvailable(addr); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisClient := connectRedis(ctx, cfg.Redis)
	db := connectDatabase(ctx, cfg.Database)

	completions, err := newCompletionStore(ctx, cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to initialize completion store: %v", err)
	}

	archive, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot archive: %v", err)
	}

	responder, err := newResponder(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize responder: %v", err)
	}
	responder = agent.WithTimeout(responder, cfg.Responder.Timeout())

	cls := classifier.New(cfg.Benchmarks, classifier.WithWeights(cfg.HealthWeights))
	builder := outreach.NewBuilder(cls, tasks.NewGenerator(time.Now), cfg.Polling.TrendDropPct)
	lock := distlock.NewLock(redisClient, db, refreshLockKey, cfg.Polling.LockTTL())
	collector := outreach.NewCollector(outreach.NewClient(cfg.Outreach), builder, archive, lock, cfg.Polling)
	go collector.Start(ctx)

	handlers := api.NewHandlers(collector, completions, agent.NewRouter(responder))
	handlers.SetBenchmarks(cfg.Benchmarks, cfg.HealthWeights)
	handlers.SetQueryTimeout(cfg.Server.QueryTimeoutDuration())

	// A snapshot older than three polling intervals means refreshes are failing.
	health := api.NewHealthChecker(db, redisClient, collector, 3*cfg.Polling.Interval())
	server := api.NewServer(cfg.Server, handlers, health)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	logger.Info("all services initialized, server is ready",
		"completion_store", cfg.Tasks.CompletionStore,
		"archive", cfg.Storage.Type,
		"responder", cfg.Responder.Provider)

	<-done
	logger.Info("shutting down")

	// Cancel background tasks
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info("server stopped")
}

// connectRedis returns nil when Redis is not configured or unreachable;
// callers fall back to PostgreSQL or process-local locking.
func connectRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.URL == "" {
		logger.Info("redis not configured")
		return nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, continuing without it", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected", "addr", opts.Addr)
	return client
}

// connectDatabase opens the PostgreSQL pool used for advisory refresh
// locks. It returns nil when no DSN is configured or the ping fails.
func connectDatabase(ctx context.Context, cfg config.DatabaseConfig) *sql.DB {
	if cfg.URL == "" {
		return nil
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		logger.Warn("failed to open database", "error", err)
		return nil
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database ping failed, continuing without it", "error", err)
		db.Close()
		return nil
	}
	logger.Info("database connected")
	return db
}

func newCompletionStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (tasks.CompletionStore, error) {
	switch cfg.Tasks.CompletionStore {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("completion_store redis needs a reachable redis")
		}
		return tasks.NewRedisStore(redisClient, cfg.Tasks.RedisKey), nil
	case "dynamodb":
		awsCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
			Region:  cfg.Storage.AWSRegion,
			Profile: cfg.Storage.GetAWSProfile(),
		})
		if err != nil {
			return nil, err
		}
		return tasks.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.Tasks.DynamoDBTable), nil
	default:
		return tasks.NewMemoryStore(), nil
	}
}

// newResponder returns nil for provider "none"; unmatched queries then get
// the capability list.
func newResponder(ctx context.Context, cfg *config.Config) (agent.Responder, error) {
	rc := cfg.Responder
	switch rc.Provider {
	case "openai":
		return agent.NewOpenAIResponder(rc.APIKey, rc.Model, rc.MaxTokens), nil
	case "bedrock":
		awsCfg, err := awsutil.LoadConfig(ctx, awsutil.Options{
			Region:  cfg.Storage.AWSRegion,
			Profile: cfg.Storage.GetAWSProfile(),
		})
		if err != nil {
			return nil, err
		}
		return agent.NewBedrockResponderFromConfig(awsCfg, rc.BedrockModelID, rc.MaxTokens), nil
	default:
		return nil, nil
	}
}
