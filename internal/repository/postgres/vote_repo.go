package postgres

import (
	"context"
	"database/sql"
	"errors"

	"condo-ballots/internal/domain/vote"
	"condo-ballots/internal/repository"
)

type VoteRepo struct {
	db *sql.DB
}

func NewVoteRepo(db *sql.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

// Insert attaches the vote only to a ballot that is open. The share lock
// makes a concurrent close wait for in-flight votes and re-check the status.
func (r *VoteRepo) Insert(ctx context.Context, v *vote.Vote) error {
	sel, err := repository.EncodeSelection(v.SelectedOptions)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO votes (id, ballot_id, voter_id, selected_options, voted_at)
        SELECT $1::text, b.id, $3::text, $4::jsonb, $5::timestamptz
        FROM ballots b
        WHERE b.id = $2 AND b.status = 'open'
        FOR SHARE OF b
    `, v.ID, v.BallotID, v.VoterID, sel, v.VotedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return vote.ErrDuplicateVote
		}
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return vote.ErrBallotNotOpen
	}
	return nil
}

func (r *VoteRepo) GetByVoter(ctx context.Context, ballotID, voterID string) (*vote.Vote, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, ballot_id, voter_id, selected_options, voted_at
        FROM votes WHERE ballot_id = $1 AND voter_id = $2
    `, ballotID, voterID)
	v, err := scanVote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vote.ErrVoteNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return v, nil
}

func (r *VoteRepo) ListByBallot(ctx context.Context, ballotID string) ([]vote.Vote, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, ballot_id, voter_id, selected_options, voted_at
        FROM votes WHERE ballot_id = $1
        ORDER BY voted_at, id
    `, ballotID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var res []vote.Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *v)
	}
	return res, storageErr(rows.Err())
}

func scanVote(s scanner) (*vote.Vote, error) {
	var (
		v   vote.Vote
		raw []byte
	)
	if err := s.Scan(&v.ID, &v.BallotID, &v.VoterID, &raw, &v.VotedAt); err != nil {
		return nil, err
	}
	sel, err := repository.DecodeSelection(raw)
	if err != nil {
		return nil, err
	}
	v.SelectedOptions = sel
	return &v, nil
}
