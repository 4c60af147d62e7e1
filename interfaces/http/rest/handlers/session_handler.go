package handlers

import (
	"net/http"
	"strconv"
	"time"

	"carddeps/application/queries"
	"carddeps/application/services"
	"carddeps/domain/core/valueobjects"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CommitRecorder counts staging session commits
type CommitRecorder interface {
	RecordSessionCommit(ok bool)
}

// SessionHandler drives staging sessions over HTTP
type SessionHandler struct {
	sessions   *services.SessionManager
	candidates *queries.CandidateService
	commits    CommitRecorder
	errors     *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler. commits may be nil.
func NewSessionHandler(
	sessions *services.SessionManager,
	candidates *queries.CandidateService,
	commits CommitRecorder,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		candidates: candidates,
		commits:    commits,
		errors:     errorHandler,
		logger:     logger,
	}
}

// SessionResponse is the state of a staging session
type SessionResponse struct {
	SessionID  string              `json:"session_id"`
	ItemID     string              `json:"item_id"`
	OpenedAt   time.Time           `json:"opened_at"`
	Baseline   []string            `json:"baseline"`
	Selection  []string            `json:"selection"`
	ToAdd      []string            `json:"to_add"`
	ToRemove   []string            `json:"to_remove"`
	Candidates []queries.Candidate `json:"candidates,omitempty"`
}

func newSessionResponse(id string, session *services.StagingSession) SessionResponse {
	toAdd, toRemove := session.Pending()
	return SessionResponse{
		SessionID: id,
		ItemID:    session.CurrentID().String(),
		OpenedAt:  session.OpenedAt(),
		Baseline:  session.Baseline().Strings(),
		Selection: session.EffectiveSelection().Strings(),
		ToAdd:     toAdd.Strings(),
		ToRemove:  toRemove.Strings(),
	}
}

// ToggleRequest flips a candidate, or forces it when Selected is set
type ToggleRequest struct {
	ID       string `json:"id" validate:"required,max=256"`
	Selected *bool  `json:"selected,omitempty"`
}

// ToggleResponse is the candidate state after a toggle
type ToggleResponse struct {
	ID       string `json:"id"`
	Selected bool   `json:"selected"`
}

// CommitFailure is one edit that did not go through
type CommitFailure struct {
	ID    string `json:"id"`
	Op    string `json:"op"`
	Error string `json:"error"`
}

// CommitResponse reports the outcome of a commit
type CommitResponse struct {
	Committed bool            `json:"committed"`
	Added     []string        `json:"added"`
	Removed   []string        `json:"removed"`
	Failed    []CommitFailure `json:"failed"`
}

// OpenSession handles POST /items/{itemID}/sessions
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	itemID, err := itemIDParam(r, "itemID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	id, session, err := h.sessions.Open(r.Context(), itemID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, newSessionResponse(id, session))
}

// GetSession handles GET /sessions/{sessionID}?q=&limit=
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	session, err := h.sessions.Get(id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			h.errors.Handle(w, r, apperrors.NewValidationError("limit must be a number"))
			return
		}
	}

	candidates, err := h.candidates.ListCandidates(r.Context(), queries.ListCandidatesQuery{
		ItemID: session.CurrentID().String(),
		Filter: r.URL.Query().Get("q"),
		Limit:  limit,
	}, session)
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	resp := newSessionResponse(id, session)
	resp.Candidates = candidates
	common.RespondJSON(w, http.StatusOK, resp)
}

// Toggle handles POST /sessions/{sessionID}/toggle
func (h *SessionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	var req ToggleRequest
	if err := decodeRequest(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	candidateID, err := valueobjects.NewItemID(req.ID)
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	// The target state is resolved once and Set applies exactly what was verified
	selecting := !session.IsSelected(candidateID)
	if req.Selected != nil {
		selecting = *req.Selected
	}
	if selecting {
		if err := h.candidates.VerifyReference(r.Context(), candidateID); err != nil {
			h.errors.Handle(w, r, err)
			return
		}
	}

	selected, err := session.Set(candidateID, selecting)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, ToggleResponse{ID: candidateID.String(), Selected: selected})
}

// Commit handles POST /sessions/{sessionID}/commit.
// A partial commit answers 207 and keeps the session open for a retry.
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	result, err := h.sessions.Commit(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if h.commits != nil {
		h.commits.RecordSessionCommit(result.OK())
	}

	resp := CommitResponse{
		Committed: result.OK(),
		Added:     idStrings(result.Added),
		Removed:   idStrings(result.Removed),
		Failed:    make([]CommitFailure, 0, len(result.Failed)),
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, CommitFailure{ID: f.ID.String(), Op: string(f.Op), Error: f.Err.Error()})
	}

	status := http.StatusOK
	if !result.OK() {
		h.logger.Warn("Partial session commit",
			zap.String("sessionID", id),
			zap.Int("failed", len(result.Failed)),
		)
		status = http.StatusMultiStatus
	}
	common.RespondJSON(w, status, resp)
}

// CloseSession handles DELETE /sessions/{sessionID}
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func idStrings(ids []valueobjects.ItemID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
