package vote

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/metrics"
	"condo-ballots/internal/retry"
)

type BallotReader interface {
	GetByID(ctx context.Context, tenantID, id string) (*ballot.Ballot, error)
}

type Service struct {
	ballots    BallotReader
	repo       Repository
	logger     *slog.Logger
	attempts   int
	retryDelay time.Duration
	now        func() time.Time
}

func NewService(ballots BallotReader, repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ballots:    ballots,
		repo:       repo,
		logger:     logger,
		attempts:   1,
		retryDelay: 50 * time.Millisecond,
		now:        time.Now,
	}
}

// WithRetry sets how many times an insert that failed with
// ballot.ErrUnavailable is attempted.
func (s *Service) WithRetry(attempts int, delay time.Duration) *Service {
	if attempts > 0 {
		s.attempts = attempts
	}
	if delay > 0 {
		s.retryDelay = delay
	}
	return s
}

// CastVote records the voter's one vote on an open ballot.
func (s *Service) CastVote(ctx context.Context, tenantID, ballotID, voterID string, selected []string) (*Vote, error) {
	if voterID == "" {
		return nil, &ballot.ValidationError{Field: "voter_id", Message: "required"}
	}
	b, err := s.ballots.GetByID(ctx, tenantID, ballotID)
	if err != nil {
		return nil, err
	}
	if !b.Status.Allows(ballot.ActionVote) {
		return nil, ballot.StateError(ballot.ActionVote, b.Status)
	}
	if err := checkSelection(b, selected); err != nil {
		return nil, err
	}

	// Fast path only; the unique constraint is what guarantees one vote.
	if _, err := s.repo.GetByVoter(ctx, ballotID, voterID); err == nil {
		metrics.IncVote("duplicate")
		return nil, ErrDuplicateVote
	} else if !errors.Is(err, ErrVoteNotFound) {
		return nil, err
	}

	v := &Vote{
		ID:              uuid.NewString(),
		BallotID:        ballotID,
		VoterID:         voterID,
		SelectedOptions: slices.Clone(selected),
		VotedAt:         s.now().UTC(),
	}

	var stored *Vote
	err = retry.DoWithRetry(ctx, s.attempts, s.retryDelay, func(attempt int) error {
		err := s.repo.Insert(ctx, v)
		switch {
		case err == nil:
			stored = v
			return nil
		case errors.Is(err, ErrDuplicateVote) && attempt > 0:
			// An earlier ambiguous attempt may have committed this very vote.
			prev, getErr := s.repo.GetByVoter(ctx, ballotID, voterID)
			if getErr == nil && slices.Equal(prev.SelectedOptions, v.SelectedOptions) {
				stored = prev
				return nil
			}
			return retry.Permanent(err)
		case errors.Is(err, ballot.ErrUnavailable):
			return err
		default:
			return retry.Permanent(err)
		}
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateVote):
			metrics.IncVote("duplicate")
		case errors.Is(err, ErrBallotNotOpen):
			metrics.IncVote("closed")
			return nil, s.notOpen(ctx, tenantID, ballotID)
		default:
			metrics.IncVote("error")
		}
		return nil, err
	}

	metrics.IncVote("accepted")
	s.logger.InfoContext(ctx, "vote cast",
		"tenant_id", tenantID, "ballot_id", ballotID, "voter_id", voterID)
	return stored, nil
}

// MyVote returns the vote the voter cast on the ballot.
func (s *Service) MyVote(ctx context.Context, tenantID, ballotID, voterID string) (*Vote, error) {
	if _, err := s.ballots.GetByID(ctx, tenantID, ballotID); err != nil {
		return nil, err
	}
	return s.repo.GetByVoter(ctx, ballotID, voterID)
}

// List returns every vote of a ballot in the order they were cast.
func (s *Service) List(ctx context.Context, tenantID, ballotID string) ([]Vote, error) {
	if _, err := s.ballots.GetByID(ctx, tenantID, ballotID); err != nil {
		return nil, err
	}
	return s.repo.ListByBallot(ctx, ballotID)
}

func (s *Service) notOpen(ctx context.Context, tenantID, ballotID string) error {
	b, err := s.ballots.GetByID(ctx, tenantID, ballotID)
	if err != nil {
		return err
	}
	return ballot.StateError(ballot.ActionVote, b.Status)
}

func checkSelection(b *ballot.Ballot, selected []string) error {
	if len(selected) == 0 {
		return &ballot.ValidationError{Field: "selected_options", Message: "at least one option is required"}
	}
	options := b.Selectable()
	if limit := ballot.MaxSelections(b.QuestionType, options); len(selected) > limit {
		if limit == 1 {
			return &ballot.ValidationError{Field: "selected_options", Message: "exactly one option must be selected"}
		}
		return &ballot.ValidationError{Field: "selected_options", Message: "too many options selected"}
	}

	valid := make(map[string]struct{}, len(options))
	for _, o := range options {
		valid[o.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := valid[id]; !ok {
			return &ballot.ValidationError{Field: "selected_options", Message: "unknown option " + id}
		}
		if _, dup := seen[id]; dup {
			return &ballot.ValidationError{Field: "selected_options", Message: "option " + id + " selected twice"}
		}
		seen[id] = struct{}{}
	}
	return nil
}
