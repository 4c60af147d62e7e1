package messaging

import (
	"context"
	"testing"
	"time"

	"carddeps/domain/core/valueobjects"
	"carddeps/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogPublisher(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	p := NewLogPublisher(zap.New(core))

	batch := []events.DomainEvent{
		events.NewDependencyAdded("A", "B", "", time.Now()),
		events.NewDependencyRemoved("A", "C", "", time.Now()),
		events.NewEdgesRepaired(valueobjects.ItemID("A"), []string{"missing_blocks A.dependsOn -> B"}, time.Now()),
	}
	require.NoError(t, p.PublishBatch(context.Background(), batch))

	entries := logs.FilterMessage("Domain event").All()
	require.Len(t, entries, 3)
	assert.Equal(t, events.TypeDependencyAdded, entries[0].ContextMap()["eventType"])
	assert.Equal(t, events.TypeEdgesRepaired, entries[2].ContextMap()["eventType"])
}
