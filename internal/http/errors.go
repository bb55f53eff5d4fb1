package api

import (
	"errors"
	"net/http"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/tally"
	"condo-ballots/internal/domain/vote"
	"condo-ballots/internal/platform/apperr"
)

func errorResponse(w http.ResponseWriter, err error) {
	appErr := mapError(err)
	if appErr.StatusCode() >= http.StatusInternalServerError {
		slogLogger.Error("request failed", "error", err)
	}
	writeJSON(w, appErr.StatusCode(), map[string]string{
		"error":   appErr.Code,
		"message": appErr.Message,
	})
}

func mapError(err error) *apperr.AppError {
	if err == nil {
		return apperr.Internal("internal_error", "internal server error", nil)
	}

	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validation *ballot.ValidationError
	var state *ballot.InvalidStateError
	switch {
	case errors.As(err, &validation):
		return apperr.BadRequest("validation_failed", validation.Error(), err)
	case errors.Is(err, ballot.ErrValidation):
		return apperr.BadRequest("validation_failed", err.Error(), err)
	case errors.Is(err, ballot.ErrNotFound):
		return apperr.NotFound("ballot_not_found", "ballot not found", err)
	case errors.Is(err, vote.ErrVoteNotFound):
		return apperr.NotFound("vote_not_found", "no vote cast on this ballot", err)
	case errors.Is(err, vote.ErrDuplicateVote):
		return apperr.Conflict("already_voted", "member already voted on this ballot", err)
	case errors.As(err, &state):
		return apperr.Conflict("invalid_state", state.Error(), err)
	case errors.Is(err, tally.ErrResultsWithheld):
		return apperr.Forbidden("results_withheld", "results are not published yet", err)
	case errors.Is(err, ballot.ErrUnavailable):
		return apperr.ServiceUnavailable("unavailable", "storage temporarily unavailable, retry later", err)
	default:
		return apperr.Internal("internal_error", http.StatusText(http.StatusInternalServerError), err)
	}
}
