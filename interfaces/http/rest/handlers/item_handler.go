package handlers

import (
	"net/http"

	"carddeps/application/ports"
	"carddeps/application/queries"
	"carddeps/domain/core/entities"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"

	"go.uber.org/zap"
)

// ItemHandler receives item metadata from the host and serves summaries
type ItemHandler struct {
	items     ports.ItemRegistry
	summaries *queries.SummaryService
	errors    *apperrors.ErrorHandler
	logger    *zap.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(items ports.ItemRegistry, summaries *queries.SummaryService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		items:     items,
		summaries: summaries,
		errors:    errorHandler,
		logger:    logger,
	}
}

// PutItemRequest is the metadata the host knows about an item
type PutItemRequest struct {
	Name       string               `json:"name" validate:"max=16384"`
	ShortLink  string               `json:"short_link" validate:"max=64"`
	URL        string               `json:"url" validate:"omitempty,url"`
	Checklists []entities.Checklist `json:"checklists"`
}

// PutItem handles PUT /items/{itemID}
func (h *ItemHandler) PutItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r, "itemID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req PutItemRequest
	if err := decodeRequest(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	item := entities.Item{
		ID:         itemID,
		Name:       req.Name,
		ShortLink:  req.ShortLink,
		URL:        req.URL,
		Checklists: req.Checklists,
	}
	if err := h.items.Upsert(r.Context(), item); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Debug("Item metadata updated",
		zap.String("itemID", itemID.String()),
		zap.Int("checklists", len(req.Checklists)),
	)

	common.RespondJSON(w, http.StatusOK, item)
}

// GetSummary handles GET /items/{itemID}/summary?board=
func (h *ItemHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r, "itemID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	summary, err := h.summaries.GetSummary(r.Context(), queries.GetSummaryQuery{
		ItemID:  itemID.String(),
		BoardID: r.URL.Query().Get("board"),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, summary)
}
