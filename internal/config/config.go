package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"committrack/internal/generator"
	"committrack/internal/scheduler"
	"committrack/internal/store/dynamo"
	"committrack/pkg/config"
)

// Store drivers.
const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StoreConfig struct {
	Driver   string          `yaml:"driver"`
	Dynamo   dynamo.Config   `yaml:"dynamo"`
	Postgres config.DBConfig `yaml:"postgres"`
}

type BreakerConfig struct {
	FailureThreshold    int `yaml:"failure_threshold"`
	SuccessThreshold    int `yaml:"success_threshold"`
	TimeoutSeconds      int `yaml:"timeout_seconds"`
	HalfOpenMaxRequests int `yaml:"half_open_max_requests"`
}

type EnrichmentConfig struct {
	Concurrency    int           `yaml:"concurrency"`
	UpdateRetries  int           `yaml:"update_retries"`
	RetryBackoffMS int           `yaml:"retry_backoff_ms"`
	LockTTLSeconds int           `yaml:"lock_ttl_seconds"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

type Config struct {
	Server     config.ServerConfig     `yaml:"server"`
	Store      StoreConfig             `yaml:"store"`
	Bedrock    generator.BedrockConfig `yaml:"bedrock"`
	Enrichment EnrichmentConfig        `yaml:"enrichment"`
	Scheduler  scheduler.Config        `yaml:"scheduler"`
	Redis      config.RedisConfig      `yaml:"redis"`
	MQ         config.MQConfig         `yaml:"mq"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	cfgData, err := yaml.Marshal(cfgMap)
	if err != nil {
		log.Fatalf("failed to marshal config: %v", err)
	}
	if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	// environment overrides win over files
	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideDBFromEnv(&cfg.Store.Postgres)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideMQFromEnv(&cfg.MQ)
	overrideStoreFromEnv(&cfg.Store)
	overrideBedrockFromEnv(&cfg.Bedrock)
	if cronExpr := os.Getenv("SCHEDULER_CRON"); cronExpr != "" {
		cfg.Scheduler.Cron = cronExpr
	}

	return &cfg
}

func overrideStoreFromEnv(cfg *StoreConfig) {
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.Driver = driver
	}
	if table := os.Getenv("DYNAMO_TABLE"); table != "" {
		cfg.Dynamo.Table = table
	}
	if index := os.Getenv("DYNAMO_USER_INDEX"); index != "" {
		cfg.Dynamo.UserIndex = index
	}
	if region := os.Getenv("DYNAMO_REGION"); region != "" {
		cfg.Dynamo.Region = region
	}
	if endpoint := os.Getenv("DYNAMO_ENDPOINT"); endpoint != "" {
		cfg.Dynamo.Endpoint = endpoint
	}
}

func overrideBedrockFromEnv(cfg *generator.BedrockConfig) {
	if region := os.Getenv("BEDROCK_REGION"); region != "" {
		cfg.Region = region
	}
	if modelID := os.Getenv("BEDROCK_MODEL_ID"); modelID != "" {
		cfg.ModelID = modelID
	}
}
