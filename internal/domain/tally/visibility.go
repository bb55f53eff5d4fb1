package tally

import "condo-ballots/internal/domain/ballot"

// CheckVisible applies the tally visibility policy: admins see live tallies
// once voting has started, members only after publication.
func CheckVisible(status ballot.Status, isAdmin bool) error {
	if isAdmin {
		if status == ballot.StatusDraft {
			return ballot.StateError("view results of", status)
		}
		return nil
	}
	if status != ballot.StatusPublished {
		return ErrResultsWithheld
	}
	return nil
}

// CheckExportable allows exporting only once voting has ended.
func CheckExportable(status ballot.Status) error {
	if status == ballot.StatusClosed || status == ballot.StatusPublished {
		return nil
	}
	return ballot.StateError("export", status)
}
