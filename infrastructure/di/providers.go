package di

import (
	"context"
	"fmt"

	"carddeps/application/ports"
	"carddeps/application/queries"
	"carddeps/application/services"
	"carddeps/infrastructure/config"
	"carddeps/infrastructure/messaging"
	"carddeps/infrastructure/messaging/eventbridge"
	"carddeps/infrastructure/observability"
	"carddeps/infrastructure/persistence/dynamodb"
	"carddeps/infrastructure/persistence/memory"
	"carddeps/infrastructure/persistence/redis"
	"carddeps/infrastructure/persistence/resilient"
	"carddeps/pkg/auth"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = level

	return zapCfg.Build()
}

// ProvideMetrics creates the metrics collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("carddeps")
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideRedisClient connects to redis when it is the configured backend.
// Other backends get a nil client.
func ProvideRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*goredis.Client, func(), error) {
	if cfg.StoreBackend != config.StoreRedis {
		return nil, func() {}, nil
	}

	client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideRelationStore builds the configured backend and wraps it with the
// circuit breaker and metrics decorators
func ProvideRelationStore(
	cfg *config.Config,
	ddb *awsdynamodb.Client,
	rdb *goredis.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) (ports.RelationStore, error) {
	var store ports.RelationStore
	switch cfg.StoreBackend {
	case config.StoreMemory:
		store = memory.NewRelationStore()
	case config.StoreDynamoDB:
		store = dynamodb.NewRelationStore(ddb, cfg.DynamoDBTable, logger)
	case config.StoreRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis client not initialized")
		}
		store = redis.NewRelationStore(rdb, cfg.RedisPrefix, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if cfg.EnableBreaker {
		breaker := resilient.DefaultBreakerConfig("relation-store")
		breaker.MaxRequests = uint32(cfg.BreakerMaxRequests)
		breaker.Timeout = cfg.BreakerTimeout
		breaker.FailureThreshold = cfg.BreakerFailureThreshold
		store = resilient.NewRelationStore(store, breaker, logger)
	}

	if cfg.EnableMetrics {
		store = observability.NewInstrumentedStore(store, metrics)
	}

	logger.Info("Relation store ready",
		zap.String("backend", cfg.StoreBackend),
		zap.Bool("breaker", cfg.EnableBreaker),
	)
	return store, nil
}

// ProvideItemRegistry creates the in-memory item directory the host feeds
func ProvideItemRegistry() ports.ItemRegistry {
	return memory.NewItemDirectory()
}

// ProvideItemDirectory exposes the read side of the registry
func ProvideItemDirectory(registry ports.ItemRegistry) ports.ItemDirectory {
	return registry
}

// ProvideItemLocker returns the configured lock, or nil when locking is off
func ProvideItemLocker(cfg *config.Config, ddb *awsdynamodb.Client, logger *zap.Logger) ports.ItemLocker {
	switch cfg.LockMode {
	case config.LockLocal:
		return memory.NewKeyedLocker()
	case config.LockDynamoDB:
		return dynamodb.NewDistributedLock(ddb, cfg.DynamoDBTable, cfg.LockTTL, cfg.LockWaitTimeout, logger)
	default:
		return nil
	}
}

// ProvideEventPublisher returns the configured publisher, or nil when events are off
func ProvideEventPublisher(
	cfg *config.Config,
	client *awseventbridge.Client,
	metrics *observability.Collector,
	logger *zap.Logger,
) ports.EventPublisher {
	if !cfg.EnableEvents {
		return nil
	}

	var publisher ports.EventPublisher
	if cfg.EventBusName != "" && !cfg.IsDevelopment() {
		publisher = eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	} else {
		publisher = messaging.NewLogPublisher(logger)
	}

	if cfg.EnableMetrics {
		publisher = observability.NewInstrumentedPublisher(publisher, metrics)
	}
	return publisher
}

// ProvideDependencyGraphService creates the graph service
func ProvideDependencyGraphService(
	store ports.RelationStore,
	locker ports.ItemLocker,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *services.DependencyGraphService {
	return services.NewDependencyGraphService(store, locker, publisher, logger)
}

// ProvideReconciler creates the reconciler. Reference checks need the directory.
func ProvideReconciler(
	graph *services.DependencyGraphService,
	directory ports.ItemDirectory,
	cfg *config.Config,
	logger *zap.Logger,
) *services.Reconciler {
	var refs ports.ItemDirectory
	if cfg.CheckReferences {
		refs = directory
	}
	return services.NewReconciler(graph, refs, logger)
}

// ProvideSettingsService creates the board settings service
func ProvideSettingsService(store ports.RelationStore, logger *zap.Logger) *services.SettingsService {
	return services.NewSettingsService(store, logger)
}

// ProvideSessionManager creates the staging session manager
func ProvideSessionManager(graph *services.DependencyGraphService, cfg *config.Config, logger *zap.Logger) (*services.SessionManager, func()) {
	manager := services.NewSessionManager(graph, cfg.SessionTTL, logger)
	return manager, manager.Stop
}

// ProvideSummaryService creates the summary query service
func ProvideSummaryService(
	graph *services.DependencyGraphService,
	directory ports.ItemDirectory,
	settings *services.SettingsService,
	cfg *config.Config,
	logger *zap.Logger,
) *queries.SummaryService {
	return queries.NewSummaryService(graph, directory, settings, cfg.ItemBaseURL, logger)
}

// ProvideCandidateService creates the candidate query service. Selecting
// unknown items is refused when reference checking is on.
func ProvideCandidateService(directory ports.ItemDirectory, cfg *config.Config) *queries.CandidateService {
	return queries.NewCandidateService(directory).RequireKnown(cfg.CheckReferences)
}

// ProvideJWTValidator returns a validator when a secret is configured.
// A nil validator leaves the API unauthenticated.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if !cfg.AuthEnabled() {
		return nil, nil
	}
	return auth.NewJWTValidator(auth.JWTConfig{
		SecretKey: cfg.JWTSecret,
		Issuer:    cfg.JWTIssuer,
	})
}
