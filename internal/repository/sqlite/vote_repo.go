package sqlite

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"condo-ballots/internal/domain/vote"
	"condo-ballots/internal/repository"
)

type VoteRepo struct {
	db *gorm.DB
}

func NewVoteRepo(db *gorm.DB) *VoteRepo {
	return &VoteRepo{db: db}
}

// Insert stores the vote only while its ballot is open. The open check
// and the write happen in one statement.
func (r *VoteRepo) Insert(ctx context.Context, v *vote.Vote) error {
	sel, err := repository.EncodeSelection(v.SelectedOptions)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Exec(`
        INSERT INTO votes (id, ballot_id, voter_id, selected_options, voted_at)
        SELECT ?, id, ?, ?, ? FROM ballots WHERE id = ? AND status = 'open'
    `, v.ID, v.VoterID, string(sel), v.VotedAt.UTC(), v.BallotID)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return vote.ErrDuplicateVote
		}
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return vote.ErrBallotNotOpen
	}
	return nil
}

func (r *VoteRepo) GetByVoter(ctx context.Context, ballotID, voterID string) (*vote.Vote, error) {
	var row voteRow
	err := r.db.WithContext(ctx).
		Where("ballot_id = ? AND voter_id = ?", ballotID, voterID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, vote.ErrVoteNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	v, err := row.toEntity()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VoteRepo) ListByBallot(ctx context.Context, ballotID string) ([]vote.Vote, error) {
	var rows []voteRow
	err := r.db.WithContext(ctx).
		Where("ballot_id = ?", ballotID).
		Order("voted_at").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr(err)
	}
	res := make([]vote.Vote, 0, len(rows))
	for _, row := range rows {
		v, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}
