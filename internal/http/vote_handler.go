package api

import (
	"net/http"

	"condo-ballots/internal/platform/apperr"
)

type castVoteRequest struct {
	SelectedOptions []string `json:"selected_options"`
}

// @Summary     Cast vote
// @Tags        votes
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id       path      string           true  "Ballot ID"
// @Param       request  body      castVoteRequest  true  "Selected option ids"
// @Success     201      {object}  vote.Vote
// @Failure     400      {object}  map[string]string  "invalid selection"
// @Failure     401      {object}  map[string]string  "unauthorized"
// @Failure     404      {object}  map[string]string  "not found"
// @Failure     409      {object}  map[string]string  "already voted or ballot not open"
// @Failure     429      {object}  map[string]string  "rate limited"
// @Failure     503      {object}  map[string]string  "storage unavailable"
// @Router      /api/v1/ballots/{id}/votes [post]
func (h *Handler) handleCastVote(w http.ResponseWriter, r *http.Request) {
	var req castVoteRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	b, ok := h.visibleBallot(w, r)
	if !ok {
		return
	}

	p := principalFromCtx(r)
	v, err := h.voteSvc.CastVote(r.Context(), p.TenantID, b.ID, p.MemberID, req.SelectedOptions)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// @Summary     Caller's vote
// @Tags        votes
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Ballot ID"
// @Success     200  {object}  vote.Vote
// @Failure     401  {object}  map[string]string  "unauthorized"
// @Failure     404  {object}  map[string]string  "ballot or vote not found"
// @Router      /api/v1/ballots/{id}/my-vote [get]
func (h *Handler) handleMyVote(w http.ResponseWriter, r *http.Request) {
	b, ok := h.visibleBallot(w, r)
	if !ok {
		return
	}

	p := principalFromCtx(r)
	v, err := h.voteSvc.MyVote(r.Context(), p.TenantID, b.ID, p.MemberID)
	if err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
