package di

import (
	"context"
	"testing"

	"carddeps/application/ports"
	"carddeps/domain/core/entities"
	"carddeps/domain/core/valueobjects"
	"carddeps/infrastructure/config"
	"carddeps/infrastructure/messaging"
	"carddeps/infrastructure/observability"
	"carddeps/infrastructure/persistence/memory"
	"carddeps/infrastructure/persistence/resilient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func devConfig() *config.Config {
	return &config.Config{
		ServerAddress:           ":0",
		Environment:             "development",
		StoreBackend:            config.StoreMemory,
		LockMode:                config.LockLocal,
		EnableBreaker:           true,
		BreakerMaxRequests:      5,
		BreakerFailureThreshold: 0.8,
		LogLevel:                "debug",
		ItemBaseURL:             "https://trello.com",
		CheckReferences:         true,
	}
}

func TestProvideRelationStore_Decorators(t *testing.T) {
	cfg := devConfig()
	metrics := observability.NewCollector("test")

	store, err := ProvideRelationStore(cfg, nil, nil, metrics, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &resilient.RelationStore{}, store)

	cfg.EnableMetrics = true
	store, err = ProvideRelationStore(cfg, nil, nil, metrics, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &observability.InstrumentedStore{}, store)

	cfg.EnableBreaker = false
	cfg.EnableMetrics = false
	store, err = ProvideRelationStore(cfg, nil, nil, metrics, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &memory.RelationStore{}, store)
}

func TestProvideRelationStore_RedisWithoutClient(t *testing.T) {
	cfg := devConfig()
	cfg.StoreBackend = config.StoreRedis

	_, err := ProvideRelationStore(cfg, nil, nil, observability.NewCollector("test"), zap.NewNop())
	assert.Error(t, err)
}

func TestProvideItemLocker(t *testing.T) {
	cfg := devConfig()
	assert.IsType(t, &memory.KeyedLocker{}, ProvideItemLocker(cfg, nil, zap.NewNop()))

	cfg.LockMode = config.LockNone
	assert.Nil(t, ProvideItemLocker(cfg, nil, zap.NewNop()))
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := devConfig()
	metrics := observability.NewCollector("test")

	assert.Nil(t, ProvideEventPublisher(cfg, nil, metrics, zap.NewNop()))

	cfg.EnableEvents = true
	cfg.EventBusName = "bus"
	assert.IsType(t, &messaging.LogPublisher{}, ProvideEventPublisher(cfg, nil, metrics, zap.NewNop()))
}

func TestProvideReconciler_ReferenceCheckToggle(t *testing.T) {
	cfg := devConfig()
	registry := ProvideItemRegistry()
	store := memory.NewRelationStore()
	graph := ProvideDependencyGraphService(store, nil, nil, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, graph.AddDependency(ctx, "A", "ghost"))
	require.NoError(t, registry.Upsert(ctx, itemNamed("A")))

	withRefs := ProvideReconciler(graph, ProvideItemDirectory(registry), cfg, zap.NewNop())
	report, err := withRefs.CheckConsistency(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, report.Issues, 1)

	cfg.CheckReferences = false
	withoutRefs := ProvideReconciler(graph, ProvideItemDirectory(registry), cfg, zap.NewNop())
	report, err = withoutRefs.CheckConsistency(ctx, "A")
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}

func TestInitializeContainer_Memory(t *testing.T) {
	cfg := devConfig()
	cfg.EnableEvents = true

	container, cleanup, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, container.Graph.AddDependency(ctx, "A", "B"))

	edges, err := container.Graph.GetEdges(ctx, "B")
	require.NoError(t, err)
	assert.True(t, edges.Blocks.Contains(valueobjects.ItemID("A")))
	assert.NoError(t, container.Ready(ctx))
	assert.Nil(t, container.Auth)

	var _ ports.ItemDirectory = container.Items
}

func itemNamed(id string) entities.Item {
	return entities.Item{ID: valueobjects.ItemID(id), Name: id}
}
