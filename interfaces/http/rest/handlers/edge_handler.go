package handlers

import (
	"net/http"
	"strconv"

	"carddeps/application/queries"
	"carddeps/application/services"
	"carddeps/domain/core/aggregates"
	"carddeps/domain/core/valueobjects"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"

	"go.uber.org/zap"
)

// IssueRecorder counts consistency issues found by reconcile requests
type IssueRecorder interface {
	RecordReconcileIssue(kind string)
}

// EdgeHandler handles dependency edge HTTP requests
type EdgeHandler struct {
	graph      *services.DependencyGraphService
	reconciler *services.Reconciler
	candidates *queries.CandidateService
	issues     IssueRecorder
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewEdgeHandler creates a new edge handler. issues may be nil.
func NewEdgeHandler(
	graph *services.DependencyGraphService,
	reconciler *services.Reconciler,
	candidates *queries.CandidateService,
	issues IssueRecorder,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *EdgeHandler {
	return &EdgeHandler{
		graph:      graph,
		reconciler: reconciler,
		candidates: candidates,
		issues:     issues,
		errors:     errorHandler,
		logger:     logger,
	}
}

// EdgesResponse is the wire form of an item's edge sets
type EdgesResponse struct {
	ItemID    string   `json:"item_id"`
	DependsOn []string `json:"depends_on"`
	Blocks    []string `json:"blocks"`
}

func newEdgesResponse(edges aggregates.EdgeSet) EdgesResponse {
	return EdgesResponse{
		ItemID:    edges.ItemID.String(),
		DependsOn: edges.DependsOn.Strings(),
		Blocks:    edges.Blocks.Strings(),
	}
}

// AddDependencyRequest names the prerequisite by id or by pasted item URL
type AddDependencyRequest struct {
	TargetID  string `json:"target_id" validate:"required_without=TargetURL,max=256"`
	TargetURL string `json:"target_url" validate:"omitempty,url"`
}

// GetEdges handles GET /items/{itemID}/edges
func (h *EdgeHandler) GetEdges(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r, "itemID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	edges, err := h.graph.GetEdges(r.Context(), itemID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, newEdgesResponse(edges))
}

// AddDependency handles POST /items/{itemID}/dependencies
func (h *EdgeHandler) AddDependency(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r, "itemID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req AddDependencyRequest
	if err := decodeRequest(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var targetID valueobjects.ItemID
	if req.TargetID != "" {
		targetID, err = valueobjects.NewItemID(req.TargetID)
	} else {
		targetID, err = h.candidates.ResolveReference(r.Context(), req.TargetURL)
	}
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	if err := h.graph.AddDependency(r.Context(), itemID, targetID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondEdges(w, r, itemID, http.StatusCreated)
}

// RemoveDependency handles DELETE /items/{itemID}/dependencies/{targetID}
func (h *EdgeHandler) RemoveDependency(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r, "itemID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	targetID, err := itemIDParam(r, "targetID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.graph.RemoveDependency(r.Context(), itemID, targetID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.respondEdges(w, r, itemID, http.StatusOK)
}

// Reconcile handles POST /items/{itemID}/reconcile?repair=true
func (h *EdgeHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r, "itemID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	repair := false
	if raw := r.URL.Query().Get("repair"); raw != "" {
		if repair, err = strconv.ParseBool(raw); err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("repair must be true or false"))
			return
		}
	}

	var report services.ConsistencyReport
	if repair {
		report, err = h.reconciler.Repair(r.Context(), itemID)
	} else {
		report, err = h.reconciler.CheckConsistency(r.Context(), itemID)
	}
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if h.issues != nil {
		for _, issue := range report.Issues {
			h.issues.RecordReconcileIssue(string(issue.Kind))
		}
	}

	common.RespondJSON(w, http.StatusOK, report)
}

func (h *EdgeHandler) respondEdges(w http.ResponseWriter, r *http.Request, itemID valueobjects.ItemID, status int) {
	edges, err := h.graph.GetEdges(r.Context(), itemID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, newEdgesResponse(edges))
}
