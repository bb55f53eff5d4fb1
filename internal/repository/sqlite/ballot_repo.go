package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/repository"
)

type BallotRepo struct {
	db *gorm.DB
}

func NewBallotRepo(db *gorm.DB) *BallotRepo {
	return &BallotRepo{db: db}
}

func (r *BallotRepo) Create(ctx context.Context, b *ballot.Ballot) error {
	row, err := ballotRowFromEntity(b)
	if err != nil {
		return err
	}
	return storageErr(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *BallotRepo) GetByID(ctx context.Context, tenantID, id string) (*ballot.Ballot, error) {
	var row ballotRow
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ballot.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return row.toEntity()
}

func (r *BallotRepo) List(ctx context.Context, tenantID string, status *ballot.Status) ([]ballot.Ballot, error) {
	q := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}

	var rows []ballotRow
	if err := q.Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}

	res := make([]ballot.Ballot, 0, len(rows))
	for _, row := range rows {
		b, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		res = append(res, *b)
	}
	return res, nil
}

func (r *BallotRepo) UpdateDraft(ctx context.Context, b *ballot.Ballot) error {
	opts, err := repository.EncodeOptions(b.Options)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&ballotRow{}).
		Where("tenant_id = ? AND id = ? AND status = ?", b.TenantID, b.ID, string(ballot.StatusDraft)).
		Updates(map[string]any{
			"title":                b.Title,
			"description":          b.Description,
			"options":              string(opts),
			"open_at":              b.OpenAt.UTC(),
			"close_at":             b.CloseAt.UTC(),
			"quorum_pct":           b.QuorumPct,
			"linked_initiative_id": b.LinkedInitiativeID,
			"updated_at":           b.UpdatedAt.UTC(),
		})
	return affectedOne(res)
}

func (r *BallotRepo) Transition(ctx context.Context, t ballot.Transition) error {
	at := t.At.UTC()
	fields := map[string]any{
		"status":     string(t.To),
		"updated_at": at,
	}
	switch t.To {
	case ballot.StatusOpen:
		fields["opened_at"] = at
	case ballot.StatusClosed:
		fields["closed_at"] = at
	case ballot.StatusPublished:
		fields["published_at"] = at
	default:
		return fmt.Errorf("unsupported transition target %q", t.To)
	}
	if t.EligibleVoters != nil {
		fields["eligible_voters"] = *t.EligibleVoters
	}

	res := r.db.WithContext(ctx).Model(&ballotRow{}).
		Where("tenant_id = ? AND id = ? AND status = ?", t.TenantID, t.BallotID, string(t.From)).
		Updates(fields)
	return affectedOne(res)
}

func (r *BallotRepo) DeleteDraft(ctx context.Context, tenantID, id string) error {
	res := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ? AND status = ?", tenantID, id, string(ballot.StatusDraft)).
		Delete(&ballotRow{})
	return affectedOne(res)
}

func affectedOne(res *gorm.DB) error {
	if res.Error != nil {
		return storageErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ballot.ErrStaleStatus
	}
	return nil
}
