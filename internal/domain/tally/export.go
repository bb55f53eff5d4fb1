package tally

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/member"
	"condo-ballots/internal/domain/vote"
)

var exportHeader = []string{"name", "email", "selected_options", "voted_at"}

type ExportRow struct {
	Name            string
	Email           string
	SelectedOptions []string
	VotedAt         time.Time
}

// BuildRows pairs every vote with the voter's display identity and the
// labels of the options it selected, preserving vote order.
func BuildRows(b *ballot.Ballot, votes []vote.Vote, people map[string]member.Member) []ExportRow {
	labels := make(map[string]string)
	for _, o := range b.Selectable() {
		labels[o.ID] = o.Label
	}

	rows := make([]ExportRow, 0, len(votes))
	for _, v := range votes {
		row := ExportRow{VotedAt: v.VotedAt}
		if m, ok := people[v.VoterID]; ok {
			row.Name = m.Name
			row.Email = m.Email
		}
		for _, id := range v.SelectedOptions {
			label, ok := labels[id]
			if !ok {
				label = id
			}
			row.SelectedOptions = append(row.SelectedOptions, label)
		}
		rows = append(rows, row)
	}
	return rows
}

func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Name,
			r.Email,
			strings.Join(r.SelectedOptions, "; "),
			r.VotedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
