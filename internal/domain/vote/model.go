package vote

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateVote is returned when the (ballot, voter) uniqueness
	// constraint rejected an insert.
	ErrDuplicateVote = errors.New("voter already voted on this ballot")
	// ErrBallotNotOpen is returned by repositories when the conditional insert
	// found no open ballot to attach the vote to.
	ErrBallotNotOpen = errors.New("ballot is not open")
	ErrVoteNotFound  = errors.New("vote not found")
)

type Vote struct {
	ID              string    `json:"id"`
	BallotID        string    `json:"ballot_id"`
	VoterID         string    `json:"voter_id"`
	SelectedOptions []string  `json:"selected_options"`
	VotedAt         time.Time `json:"voted_at"`
}

type Repository interface {
	// Insert stores v only while its ballot is open. The store enforces one
	// row per (ballot_id, voter_id).
	Insert(ctx context.Context, v *Vote) error
	GetByVoter(ctx context.Context, ballotID, voterID string) (*Vote, error)
	ListByBallot(ctx context.Context, ballotID string) ([]Vote, error)
}
