package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/platform/apperr"
)

type optionRequest struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
}

type createBallotRequest struct {
	Title              string          `json:"title"`
	Description        *string         `json:"description"`
	QuestionType       string          `json:"question_type"`
	Options            []optionRequest `json:"options"`
	OpenAt             time.Time       `json:"open_at"`
	CloseAt            time.Time       `json:"close_at"`
	QuorumPct          *int            `json:"quorum_pct"`
	LinkedInitiativeID *string         `json:"linked_initiative_id"`
}

type updateBallotRequest struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	Options            []optionRequest `json:"options"`
	OpenAt             *time.Time      `json:"open_at"`
	CloseAt            *time.Time      `json:"close_at"`
	QuorumPct          *int            `json:"quorum_pct"`
	ClearQuorum        bool            `json:"clear_quorum"`
	LinkedInitiativeID *string         `json:"linked_initiative_id"`
}

// ballotResponse renders a ballot with its resolved option set, so yes_no
// ballots expose their fixed yes/no options.
type ballotResponse struct {
	*ballot.Ballot
	Options []ballot.Option `json:"options"`
}

func toBallotResponse(b *ballot.Ballot) ballotResponse {
	return ballotResponse{Ballot: b, Options: b.Selectable()}
}

func toOptions(in []optionRequest) []ballot.Option {
	if in == nil {
		return nil
	}
	out := make([]ballot.Option, 0, len(in))
	for _, o := range in {
		out = append(out, ballot.Option{ID: o.ID, Label: o.Label})
	}
	return out
}

// @Summary     Create ballot
// @Tags        ballots
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      createBallotRequest  true  "Ballot payload"
// @Success     201      {object}  ballotResponse
// @Failure     400      {object}  map[string]string  "validation failed"
// @Failure     401      {object}  map[string]string  "unauthorized"
// @Failure     403      {object}  map[string]string  "forbidden"
// @Router      /api/v1/ballots [post]
func (h *Handler) handleCreateBallot(w http.ResponseWriter, r *http.Request) {
	var req createBallotRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	p := principalFromCtx(r)
	b, err := h.ballotSvc.Create(r.Context(), ballot.CreateInput{
		TenantID:           p.TenantID,
		Title:              req.Title,
		Description:        req.Description,
		QuestionType:       ballot.QuestionType(req.QuestionType),
		Options:            toOptions(req.Options),
		OpenAt:             req.OpenAt,
		CloseAt:            req.CloseAt,
		QuorumPct:          req.QuorumPct,
		LinkedInitiativeID: req.LinkedInitiativeID,
		CreatedBy:          p.MemberID,
	})
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBallotResponse(b))
}

// @Summary     List ballots
// @Tags        ballots
// @Security    BearerAuth
// @Produce     json
// @Param       status  query     string  false  "draft, open, closed or results_published"
// @Success     200     {array}   ballotResponse
// @Failure     400     {object}  map[string]string  "unknown status"
// @Failure     401     {object}  map[string]string  "unauthorized"
// @Router      /api/v1/ballots [get]
func (h *Handler) handleListBallots(w http.ResponseWriter, r *http.Request) {
	var status *ballot.Status
	if v := r.URL.Query().Get("status"); v != "" {
		s := ballot.Status(v)
		status = &s
	}

	p := principalFromCtx(r)
	list, err := h.ballotSvc.List(r.Context(), p.TenantID, status)
	if err != nil {
		errorResponse(w, err)
		return
	}

	res := make([]ballotResponse, 0, len(list))
	for i := range list {
		if !p.isAdmin() && list[i].Status == ballot.StatusDraft {
			continue
		}
		res = append(res, toBallotResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary     Get ballot
// @Tags        ballots
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Ballot ID"
// @Success     200  {object}  ballotResponse
// @Failure     401  {object}  map[string]string  "unauthorized"
// @Failure     404  {object}  map[string]string  "not found"
// @Router      /api/v1/ballots/{id} [get]
func (h *Handler) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	b, ok := h.visibleBallot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toBallotResponse(b))
}

// @Summary     Edit draft ballot
// @Tags        ballots
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      string               true  "Ballot ID"
// @Param       request  body      updateBallotRequest  true  "Fields to change"
// @Success     200      {object}  ballotResponse
// @Failure     400      {object}  map[string]string  "validation failed"
// @Failure     404      {object}  map[string]string  "not found"
// @Failure     409      {object}  map[string]string  "ballot is not a draft"
// @Router      /api/v1/ballots/{id} [patch]
func (h *Handler) handleUpdateBallot(w http.ResponseWriter, r *http.Request) {
	var req updateBallotRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	p := principalFromCtx(r)
	b, err := h.ballotSvc.Update(r.Context(), p.TenantID, chi.URLParam(r, "id"), ballot.UpdateInput{
		Title:              req.Title,
		Description:        req.Description,
		Options:            toOptions(req.Options),
		OpenAt:             req.OpenAt,
		CloseAt:            req.CloseAt,
		QuorumPct:          req.QuorumPct,
		ClearQuorum:        req.ClearQuorum,
		LinkedInitiativeID: req.LinkedInitiativeID,
	})
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBallotResponse(b))
}

// @Summary     Delete draft ballot
// @Tags        ballots
// @Security    BearerAuth
// @Param       id   path  string  true  "Ballot ID"
// @Success     204
// @Failure     404  {object}  map[string]string  "not found"
// @Failure     409  {object}  map[string]string  "ballot is not a draft"
// @Router      /api/v1/ballots/{id} [delete]
func (h *Handler) handleDeleteBallot(w http.ResponseWriter, r *http.Request) {
	p := principalFromCtx(r)
	if err := h.ballotSvc.Delete(r.Context(), p.TenantID, chi.URLParam(r, "id")); err != nil {
		errorResponse(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// @Summary     Open ballot for voting
// @Tags        lifecycle
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Ballot ID"
// @Success     200  {object}  ballotResponse
// @Failure     404  {object}  map[string]string  "not found"
// @Failure     409  {object}  map[string]string  "invalid state"
// @Router      /api/v1/ballots/{id}/open [post]
func (h *Handler) handleOpenBallot(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ballotSvc.Open)
}

// @Summary     Close voting
// @Tags        lifecycle
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Ballot ID"
// @Success     200  {object}  ballotResponse
// @Failure     404  {object}  map[string]string  "not found"
// @Failure     409  {object}  map[string]string  "invalid state"
// @Router      /api/v1/ballots/{id}/close [post]
func (h *Handler) handleCloseBallot(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ballotSvc.Close)
}

// @Summary     Publish results
// @Tags        lifecycle
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Ballot ID"
// @Success     200  {object}  ballotResponse
// @Failure     404  {object}  map[string]string  "not found"
// @Failure     409  {object}  map[string]string  "invalid state"
// @Router      /api/v1/ballots/{id}/publish [post]
func (h *Handler) handlePublishBallot(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.ballotSvc.Publish)
}

type transitionFunc func(ctx context.Context, tenantID, id string) (*ballot.Ballot, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
	p := principalFromCtx(r)
	b, err := fn(r.Context(), p.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBallotResponse(b))
}

// visibleBallot loads the path ballot for the caller. Drafts are only
// visible to admins.
func (h *Handler) visibleBallot(w http.ResponseWriter, r *http.Request) (*ballot.Ballot, bool) {
	p := principalFromCtx(r)
	b, err := h.ballotSvc.Get(r.Context(), p.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return nil, false
	}
	if !p.isAdmin() && b.Status == ballot.StatusDraft {
		errorResponse(w, ballot.ErrNotFound)
		return nil, false
	}
	return b, true
}
