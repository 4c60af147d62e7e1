package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"carddeps/pkg/utils"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreMemory   = "memory"
	StoreDynamoDB = "dynamodb"
	StoreRedis    = "redis"
)

// Lock modes
const (
	LockNone     = "none"
	LockLocal    = "local"
	LockDynamoDB = "dynamodb"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address" validate:"required"`
	Environment   string `yaml:"environment" validate:"oneof=development staging production test"`

	// Storage
	StoreBackend  string `yaml:"store_backend" validate:"oneof=memory dynamodb redis"`
	AWSRegion     string `yaml:"aws_region"`
	DynamoDBTable string `yaml:"dynamodb_table" validate:"required_if=StoreBackend dynamodb"`
	RedisAddr     string `yaml:"redis_addr" validate:"required_if=StoreBackend redis"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db" validate:"min=0"`
	RedisPrefix   string `yaml:"redis_prefix"`

	// Locking
	LockMode        string        `yaml:"lock_mode" validate:"oneof=none local dynamodb"`
	LockTTL         time.Duration `yaml:"lock_ttl" validate:"gte=0"`
	LockWaitTimeout time.Duration `yaml:"lock_wait_timeout" validate:"gte=0"`

	// Staging sessions
	SessionTTL time.Duration `yaml:"session_ttl" validate:"gte=0"`

	// Events
	EnableEvents bool   `yaml:"enable_events"`
	EventBusName string `yaml:"event_bus_name"`

	// Circuit breaker around the store
	EnableBreaker           bool          `yaml:"enable_breaker"`
	BreakerMaxRequests      int           `yaml:"breaker_max_requests" validate:"gte=0"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout" validate:"gte=0"`
	BreakerFailureThreshold float64       `yaml:"breaker_failure_threshold" validate:"gte=0,lte=1"`

	// Logging and features
	LogLevel        string `yaml:"log_level" validate:"oneof=debug info warn error"`
	EnableMetrics   bool   `yaml:"enable_metrics"`
	EnableCORS      bool   `yaml:"enable_cors"`
	CheckReferences bool   `yaml:"check_references"`

	// Authentication
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Links rendered in summaries
	ItemBaseURL string `yaml:"item_base_url" validate:"omitempty,url"`

	// Lambda configuration
	IsLambda bool `yaml:"-"`
}

// defaults returns the configuration used when nothing is set
func defaults() *Config {
	return &Config{
		ServerAddress:           ":8080",
		Environment:             "development",
		StoreBackend:            StoreMemory,
		AWSRegion:               "us-west-2",
		DynamoDBTable:           "carddeps",
		RedisPrefix:             "carddeps",
		LockMode:                LockLocal,
		LockTTL:                 10 * time.Second,
		LockWaitTimeout:         5 * time.Second,
		SessionTTL:              30 * time.Minute,
		EventBusName:            "carddeps-events",
		EnableBreaker:           true,
		BreakerMaxRequests:      5,
		BreakerTimeout:          60 * time.Second,
		BreakerFailureThreshold: 0.8,
		LogLevel:                "info",
		EnableCORS:              true,
		CheckReferences:         true,
		JWTIssuer:               "carddeps",
		ItemBaseURL:             "https://trello.com",
	}
}

// LoadConfig loads configuration from defaults, then the optional YAML file
// named by CONFIG_FILE, then environment variables.
func LoadConfig() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.loadEnvironmentVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnvironmentVariables() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)

	c.StoreBackend = strings.ToLower(getEnv("STORE_BACKEND", c.StoreBackend))
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisPrefix = getEnv("REDIS_PREFIX", c.RedisPrefix)

	c.LockMode = strings.ToLower(getEnv("LOCK_MODE", c.LockMode))
	c.LockTTL = getEnvDuration("LOCK_TTL", c.LockTTL)
	c.LockWaitTimeout = getEnvDuration("LOCK_WAIT_TIMEOUT", c.LockWaitTimeout)
	c.SessionTTL = getEnvDuration("SESSION_TTL", c.SessionTTL)

	c.EnableEvents = getEnvBool("ENABLE_EVENTS", c.EnableEvents)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.EnableBreaker = getEnvBool("ENABLE_BREAKER", c.EnableBreaker)
	c.BreakerMaxRequests = getEnvInt("BREAKER_MAX_REQUESTS", c.BreakerMaxRequests)
	c.BreakerTimeout = getEnvDuration("BREAKER_TIMEOUT", c.BreakerTimeout)
	c.BreakerFailureThreshold = getEnvFloat("BREAKER_FAILURE_THRESHOLD", c.BreakerFailureThreshold)

	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CheckReferences = getEnvBool("CHECK_REFERENCES", c.CheckReferences)

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.ItemBaseURL = strings.TrimRight(getEnv("ITEM_BASE_URL", c.ItemBaseURL), "/")

	c.IsLambda = getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")
}

// Validate checks field values and the production requirements
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.LockMode == LockDynamoDB && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb lock mode")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.StoreBackend == StoreMemory {
			return fmt.Errorf("the memory store cannot be used in production")
		}
		if c.EnableEvents && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AuthEnabled reports whether requests must carry a JWT
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
