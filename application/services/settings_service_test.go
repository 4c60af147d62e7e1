package services

import (
	"context"
	"testing"

	"carddeps/application/ports"
	"carddeps/domain/core/valueobjects"
	"carddeps/infrastructure/persistence/memory"
	apperrors "carddeps/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsService_DisplayMode(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRelationStore()
	svc := NewSettingsService(store, zap.NewNop())

	mode, err := svc.GetDisplayMode(ctx, "board-1")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.DisplayModeNext, mode)

	mode, err = svc.SetDisplayMode(ctx, "board-1", "upcoming")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.DisplayModeUpcoming, mode)

	mode, err = svc.GetDisplayMode(ctx, "board-1")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.DisplayModeUpcoming, mode)

	values, found, _ := store.Get(ctx, ports.SharedSlot("board:board-1", ports.KeyChecklistDisplayMode))
	assert.True(t, found)
	assert.Equal(t, []string{"upcoming"}, values)
}

func TestSettingsService_RejectsUnknownMode(t *testing.T) {
	svc := NewSettingsService(memory.NewRelationStore(), zap.NewNop())

	_, err := svc.SetDisplayMode(context.Background(), "board-1", "sometimes")
	assert.ErrorIs(t, err, apperrors.ErrInvalidDisplayMode)

	_, err = svc.SetDisplayMode(context.Background(), "", "all")
	assert.True(t, apperrors.IsValidation(err))
}

func TestSettingsService_IgnoresCorruptValue(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRelationStore()
	require.NoError(t, store.Put(ctx, ports.BoardSlot("board-1", ports.KeyChecklistDisplayMode), []string{"bogus"}))

	mode, err := NewSettingsService(store, zap.NewNop()).GetDisplayMode(ctx, "board-1")
	require.NoError(t, err)
	assert.Equal(t, valueobjects.DefaultDisplayMode, mode)
}

func TestSettingsService_StoreFailure(t *testing.T) {
	store := &faultyStore{
		RelationStore: memory.NewRelationStore(),
		failGet:       func(ports.SlotKey) bool { return true },
	}

	_, err := NewSettingsService(store, zap.NewNop()).GetDisplayMode(context.Background(), "board-1")
	assert.True(t, apperrors.IsStoreUnavailable(err))
}
