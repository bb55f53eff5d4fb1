package tally

import (
	"context"
	"errors"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/vote"
)

// ErrResultsWithheld is returned to non-admins before results are published.
var ErrResultsWithheld = errors.New("results are not published yet")

type BallotReader interface {
	GetByID(ctx context.Context, tenantID, id string) (*ballot.Ballot, error)
}

type VoteReader interface {
	ListByBallot(ctx context.Context, ballotID string) ([]vote.Vote, error)
}

type EligibleCounter interface {
	CountEligible(ctx context.Context, tenantID string) (int64, error)
}

type OptionResult struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// Result is derived from the committed votes on every call and never cached.
type Result struct {
	BallotID         string           `json:"ballot_id"`
	Status           ballot.Status    `json:"status"`
	PerOption        map[string]int64 `json:"per_option"`
	Options          []OptionResult   `json:"options"`
	TotalVotes       int64            `json:"total_votes"`
	EligibleVoters   int64            `json:"eligible_voters"`
	ParticipationPct float64          `json:"participation_pct"`
	QuorumPct        *int             `json:"quorum_pct,omitempty"`
	QuorumMet        *bool            `json:"quorum_met"`
}

type Evaluator struct {
	ballots BallotReader
	votes   VoteReader
	members EligibleCounter
}

func NewEvaluator(ballots BallotReader, votes VoteReader, members EligibleCounter) *Evaluator {
	return &Evaluator{ballots: ballots, votes: votes, members: members}
}

// ComputeTally aggregates the ballot's votes against eligible voters.
func (e *Evaluator) ComputeTally(ctx context.Context, tenantID, ballotID string, eligible int64) (*Result, error) {
	b, err := e.ballots.GetByID(ctx, tenantID, ballotID)
	if err != nil {
		return nil, err
	}
	votes, err := e.votes.ListByBallot(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return Compute(b, votes, eligible), nil
}

// Evaluate computes the tally using the eligible-voter count captured at
// close, or the live membership count while the ballot is still open.
func (e *Evaluator) Evaluate(ctx context.Context, tenantID, ballotID string) (*Result, error) {
	b, err := e.ballots.GetByID(ctx, tenantID, ballotID)
	if err != nil {
		return nil, err
	}
	votes, err := e.votes.ListByBallot(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return e.Summarize(ctx, b, votes)
}

// Summarize tallies votes already loaded by the caller.
func (e *Evaluator) Summarize(ctx context.Context, b *ballot.Ballot, votes []vote.Vote) (*Result, error) {
	eligible, err := e.eligibleFor(ctx, b)
	if err != nil {
		return nil, err
	}
	return Compute(b, votes, eligible), nil
}

func (e *Evaluator) eligibleFor(ctx context.Context, b *ballot.Ballot) (int64, error) {
	if b.EligibleVoters != nil {
		return *b.EligibleVoters, nil
	}
	if e.members == nil {
		return 0, nil
	}
	return e.members.CountEligible(ctx, b.TenantID)
}

// Compute is the pure aggregation step. A multi_choice vote increments
// every option it selects; percentages are relative to TotalVotes.
func Compute(b *ballot.Ballot, votes []vote.Vote, eligible int64) *Result {
	options := b.Selectable()
	res := &Result{
		BallotID:       b.ID,
		Status:         b.Status,
		PerOption:      make(map[string]int64, len(options)),
		Options:        make([]OptionResult, 0, len(options)),
		TotalVotes:     int64(len(votes)),
		EligibleVoters: eligible,
		QuorumPct:      b.QuorumPct,
	}
	for _, o := range options {
		res.PerOption[o.ID] = 0
	}
	for _, v := range votes {
		for _, id := range v.SelectedOptions {
			res.PerOption[id]++
		}
	}
	for _, o := range options {
		n := res.PerOption[o.ID]
		res.Options = append(res.Options, OptionResult{
			ID:         o.ID,
			Label:      o.Label,
			Votes:      n,
			Percentage: percent(n, res.TotalVotes),
		})
	}

	res.ParticipationPct = percent(res.TotalVotes, eligible)
	if b.QuorumPct != nil {
		// integer comparison keeps the boundary exact
		met := eligible > 0 && res.TotalVotes*100 >= int64(*b.QuorumPct)*eligible
		res.QuorumMet = &met
	}
	return res
}

func percent(n, of int64) float64 {
	if of <= 0 {
		return 0
	}
	return float64(n) * 100 / float64(of)
}
