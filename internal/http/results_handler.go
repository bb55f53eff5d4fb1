package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/tally"
)

// @Summary     Ballot results
// @Description Admins see live tallies of open ballots; members only see published results.
// @Tags        results
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Ballot ID"
// @Success     200  {object}  tally.Result
// @Failure     401  {object}  map[string]string  "unauthorized"
// @Failure     403  {object}  map[string]string  "results withheld"
// @Failure     404  {object}  map[string]string  "not found"
// @Failure     409  {object}  map[string]string  "ballot still a draft"
// @Router      /api/v1/ballots/{id}/results [get]
func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	p := principalFromCtx(r)
	res, err := h.tally.Evaluate(r.Context(), p.TenantID, chi.URLParam(r, "id"))
	if err != nil {
		errorResponse(w, err)
		return
	}
	if !p.isAdmin() && res.Status == ballot.StatusDraft {
		errorResponse(w, ballot.ErrNotFound)
		return
	}
	if err := tally.CheckVisible(res.Status, p.isAdmin()); err != nil {
		errorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// @Summary     Export votes as CSV
// @Description One row per vote. Aggregates are returned in X-Total-Votes, X-Eligible-Voters and X-Quorum-Met.
// @Tags        results
// @Security    BearerAuth
// @Produce     text/csv
// @Param       id   path      string  true  "Ballot ID"
// @Success     200  {string}  string  "CSV document"
// @Failure     404  {object}  map[string]string  "not found"
// @Failure     409  {object}  map[string]string  "ballot not closed"
// @Router      /api/v1/ballots/{id}/export.csv [get]
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	p := principalFromCtx(r)
	id := chi.URLParam(r, "id")

	b, err := h.ballotSvc.Get(r.Context(), p.TenantID, id)
	if err != nil {
		errorResponse(w, err)
		return
	}
	if err := tally.CheckExportable(b.Status); err != nil {
		errorResponse(w, err)
		return
	}

	votes, err := h.voteSvc.List(r.Context(), p.TenantID, b.ID)
	if err != nil {
		errorResponse(w, err)
		return
	}
	ids := make([]string, 0, len(votes))
	for _, v := range votes {
		ids = append(ids, v.VoterID)
	}
	people, err := h.members.Identities(r.Context(), p.TenantID, ids)
	if err != nil {
		errorResponse(w, err)
		return
	}
	res, err := h.tally.Summarize(r.Context(), b, votes)
	if err != nil {
		errorResponse(w, err)
		return
	}

	var buf bytes.Buffer
	if err := tally.WriteCSV(&buf, tally.BuildRows(b, votes, people)); err != nil {
		errorResponse(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="ballot-%s.csv"`, b.ID))
	w.Header().Set("X-Total-Votes", strconv.FormatInt(res.TotalVotes, 10))
	w.Header().Set("X-Eligible-Voters", strconv.FormatInt(res.EligibleVoters, 10))
	if res.QuorumMet != nil {
		w.Header().Set("X-Quorum-Met", strconv.FormatBool(*res.QuorumMet))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
