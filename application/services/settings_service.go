package services

import (
	"context"
	"strings"

	"carddeps/application/ports"
	"carddeps/domain/core/valueobjects"
	apperrors "carddeps/pkg/errors"

	"go.uber.org/zap"
)

// SettingsService stores board level preferences in the relation store
type SettingsService struct {
	store  ports.RelationStore
	logger *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(store ports.RelationStore, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, logger: logger}
}

// GetDisplayMode returns the checklist display mode of a board.
// Unset or unreadable values fall back to the default mode.
func (s *SettingsService) GetDisplayMode(ctx context.Context, boardID string) (valueobjects.DisplayMode, error) {
	if strings.TrimSpace(boardID) == "" {
		return valueobjects.DefaultDisplayMode, nil
	}

	values, found, err := s.store.Get(ctx, ports.BoardSlot(boardID, ports.KeyChecklistDisplayMode))
	if err != nil {
		return "", storeError("get "+ports.KeyChecklistDisplayMode, err)
	}
	if !found || len(values) == 0 {
		return valueobjects.DefaultDisplayMode, nil
	}

	mode, err := valueobjects.ParseDisplayMode(values[0])
	if err != nil {
		s.logger.Warn("Ignoring stored display mode",
			zap.String("boardID", boardID),
			zap.String("value", values[0]),
		)
		return valueobjects.DefaultDisplayMode, nil
	}
	return mode, nil
}

// SetDisplayMode validates and stores the checklist display mode of a board
func (s *SettingsService) SetDisplayMode(ctx context.Context, boardID string, raw string) (valueobjects.DisplayMode, error) {
	if strings.TrimSpace(boardID) == "" {
		return "", apperrors.NewValidationError("board id is required")
	}
	mode, err := valueobjects.ParseDisplayMode(raw)
	if err != nil {
		return "", apperrors.ErrInvalidDisplayMode.WithCause(err)
	}

	if err := s.store.Put(ctx, ports.BoardSlot(boardID, ports.KeyChecklistDisplayMode), []string{mode.String()}); err != nil {
		return "", storeError("put "+ports.KeyChecklistDisplayMode, err)
	}
	return mode, nil
}
