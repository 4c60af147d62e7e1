package handlers

import (
	"net/http"

	"carddeps/application/services"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsHandler handles board settings requests
type SettingsHandler struct {
	settings *services.SettingsService
	errors   *apperrors.ErrorHandler
	logger   *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settings *services.SettingsService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, errors: errorHandler, logger: logger}
}

// SettingsRequest updates board settings
type SettingsRequest struct {
	ChecklistDisplayMode string `json:"checklist_display_mode" validate:"required,oneof=all upcoming next"`
}

// SettingsResponse is the current board settings
type SettingsResponse struct {
	BoardID              string `json:"board_id"`
	ChecklistDisplayMode string `json:"checklist_display_mode"`
}

// GetSettings handles GET /boards/{boardID}/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardID")

	mode, err := h.settings.GetDisplayMode(r.Context(), boardID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, SettingsResponse{BoardID: boardID, ChecklistDisplayMode: mode.String()})
}

// PutSettings handles PUT /boards/{boardID}/settings
func (h *SettingsHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardID")

	var req SettingsRequest
	if err := decodeRequest(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	mode, err := h.settings.SetDisplayMode(r.Context(), boardID, req.ChecklistDisplayMode)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, SettingsResponse{BoardID: boardID, ChecklistDisplayMode: mode.String()})
}
