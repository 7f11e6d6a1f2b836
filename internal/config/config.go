package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ignite/outreach-monitor/internal/classifier"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig          `yaml:"server"`
	Outreach      OutreachConfig        `yaml:"outreach"`
	Polling       PollingConfig         `yaml:"polling"`
	Benchmarks    classifier.Benchmarks `yaml:"benchmarks"`
	HealthWeights classifier.Weights    `yaml:"health_weights"`
	Tasks         TasksConfig           `yaml:"tasks"`
	Storage       StorageConfig         `yaml:"storage"`
	Responder     ResponderConfig       `yaml:"responder"`
	Redis         RedisConfig           `yaml:"redis"`
	Database      DatabaseConfig        `yaml:"database"`
	Log           LogConfig             `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           int      `yaml:"port"`
	Host           string   `yaml:"host"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	QueryTimeout   int      `yaml:"query_timeout_seconds"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for the listener.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// QueryTimeoutDuration bounds a single /api/query request.
func (c ServerConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(c.QueryTimeout) * time.Second
}

// OutreachConfig holds the outreach platform API configuration
type OutreachConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PageSize       int    `yaml:"page_size"`
	MaxRetries     int    `yaml:"max_retries"`
}

// Timeout returns the configured timeout as a duration
func (c OutreachConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollingConfig holds polling configuration
type PollingConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	TrendWeeks      int     `yaml:"trend_weeks"`
	TrendDropPct    float64 `yaml:"trend_drop_pct"`
	LockTTLSeconds  int     `yaml:"lock_ttl_seconds"`
}

// Interval returns the polling interval as a duration
func (c PollingConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LockTTL returns how long a refresh lock is held before it expires.
func (c PollingConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// TasksConfig selects where task completions are persisted.
type TasksConfig struct {
	CompletionStore string `yaml:"completion_store"` // memory, redis or dynamodb
	RedisKey        string `yaml:"redis_key"`
	DynamoDBTable   string `yaml:"dynamodb_table"`
}

// StorageConfig holds snapshot archive configuration
type StorageConfig struct {
	Type       string `yaml:"type"` // local, aws or none
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return ""
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// ResponderConfig configures the fallback generative responder for
// queries no intent matches.
type ResponderConfig struct {
	Provider       string `yaml:"provider"` // openai, bedrock or none
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	BedrockModelID string `yaml:"bedrock_model_id"`
	MaxTokens      int    `yaml:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the responder call timeout.
func (c ResponderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL string `yaml:"url"`
}

// DatabaseConfig holds the PostgreSQL DSN used for the advisory refresh lock.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII bool   `yaml:"redact_pii"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Benchmarks are seeded before decoding so that a threshold written as 0
	// stays 0 instead of being taken for unset.
	cfg := Config{Benchmarks: classifier.DefaultBenchmarks()}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every default applied, for
// running without a config file.
func Default() *Config {
	cfg := Config{Benchmarks: classifier.DefaultBenchmarks()}
	cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"*"}
	}
	if cfg.Server.QueryTimeout == 0 {
		cfg.Server.QueryTimeout = 30
	}
	if cfg.Outreach.BaseURL == "" {
		cfg.Outreach.BaseURL = "https://api.instantly.ai/api/v2"
	}
	if cfg.Outreach.TimeoutSeconds == 0 {
		cfg.Outreach.TimeoutSeconds = 30
	}
	if cfg.Outreach.PageSize == 0 {
		cfg.Outreach.PageSize = 100
	}
	if cfg.Outreach.MaxRetries == 0 {
		cfg.Outreach.MaxRetries = 3
	}
	if cfg.Polling.IntervalSeconds == 0 {
		cfg.Polling.IntervalSeconds = 900
	}
	if cfg.Polling.TrendWeeks == 0 {
		cfg.Polling.TrendWeeks = 8
	}
	if cfg.Polling.TrendDropPct == 0 {
		cfg.Polling.TrendDropPct = 10
	}
	if cfg.Polling.LockTTLSeconds == 0 {
		cfg.Polling.LockTTLSeconds = 300
	}
	if cfg.Benchmarks == (classifier.Benchmarks{}) {
		cfg.Benchmarks = classifier.DefaultBenchmarks()
	}
	if cfg.HealthWeights.IsZero() {
		cfg.HealthWeights = classifier.DefaultWeights()
	}
	if cfg.Tasks.CompletionStore == "" {
		cfg.Tasks.CompletionStore = "memory"
	}
	if cfg.Tasks.RedisKey == "" {
		cfg.Tasks.RedisKey = "outreach:task-completions"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data/snapshots"
	}
	if cfg.Storage.S3Prefix == "" {
		cfg.Storage.S3Prefix = "snapshots/"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Responder.Provider == "" {
		cfg.Responder.Provider = "none"
	}
	if cfg.Responder.Model == "" {
		cfg.Responder.Model = "gpt-4o"
	}
	if cfg.Responder.BedrockModelID == "" {
		cfg.Responder.BedrockModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	}
	if cfg.Responder.MaxTokens == 0 {
		cfg.Responder.MaxTokens = 800
	}
	if cfg.Responder.TimeoutSeconds == 0 {
		cfg.Responder.TimeoutSeconds = 20
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks cross-field constraints that defaults cannot repair.
func (cfg *Config) Validate() error {
	if err := cfg.validateRanges(); err != nil {
		return err
	}
	if err := cfg.Benchmarks.Validate(); err != nil {
		return err
	}
	if err := cfg.HealthWeights.Validate(); err != nil {
		return err
	}
	switch cfg.Tasks.CompletionStore {
	case "memory":
	case "redis":
		if cfg.Redis.URL == "" {
			return fmt.Errorf("tasks: completion_store redis requires redis.url")
		}
	case "dynamodb":
		if cfg.Tasks.DynamoDBTable == "" {
			return fmt.Errorf("tasks: completion_store dynamodb requires dynamodb_table")
		}
	default:
		return fmt.Errorf("tasks: unknown completion_store %q", cfg.Tasks.CompletionStore)
	}
	switch cfg.Storage.Type {
	case "local", "none":
	case "aws":
		if cfg.Storage.S3Bucket == "" {
			return fmt.Errorf("storage: type aws requires s3_bucket")
		}
	default:
		return fmt.Errorf("storage: unknown type %q", cfg.Storage.Type)
	}
	switch cfg.Responder.Provider {
	case "none", "bedrock":
	case "openai":
		if cfg.Responder.APIKey == "" {
			return fmt.Errorf("responder: provider openai requires an api key")
		}
	default:
		return fmt.Errorf("responder: unknown provider %q", cfg.Responder.Provider)
	}
	return nil
}

// validateRanges rejects negative values, which applyDefaults leaves in place
// since it only fills zeros. A non-positive polling interval would panic the
// collector's ticker.
func (cfg *Config) validateRanges() error {
	positive := []struct {
		name  string
		value int
	}{
		{"server.port", cfg.Server.Port},
		{"server.query_timeout_seconds", cfg.Server.QueryTimeout},
		{"outreach.timeout_seconds", cfg.Outreach.TimeoutSeconds},
		{"outreach.page_size", cfg.Outreach.PageSize},
		{"outreach.max_retries", cfg.Outreach.MaxRetries},
		{"polling.interval_seconds", cfg.Polling.IntervalSeconds},
		{"polling.trend_weeks", cfg.Polling.TrendWeeks},
		{"polling.lock_ttl_seconds", cfg.Polling.LockTTLSeconds},
		{"responder.max_tokens", cfg.Responder.MaxTokens},
		{"responder.timeout_seconds", cfg.Responder.TimeoutSeconds},
	}
	for _, f := range positive {
		if f.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", f.name, f.value)
		}
	}
	if cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", cfg.Server.Port)
	}
	if cfg.Polling.TrendDropPct <= 0 || cfg.Polling.TrendDropPct > 100 {
		return fmt.Errorf("polling.trend_drop_pct must be in (0, 100], got %v", cfg.Polling.TrendDropPct)
	}
	return nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (cfg *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OUTREACH_API_KEY"); v != "" {
		cfg.Outreach.APIKey = v
	}
	if v := os.Getenv("OUTREACH_BASE_URL"); v != "" {
		cfg.Outreach.BaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Responder.APIKey = v
	}
	if v := os.Getenv("RESPONDER_PROVIDER"); v != "" {
		cfg.Responder.Provider = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("SNAPSHOT_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
