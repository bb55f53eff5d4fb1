package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/repository"
)

const ballotColumns = `id, tenant_id, title, description, question_type, options, open_at, close_at,
        quorum_pct, linked_initiative_id, status, eligible_voters, created_by,
        created_at, updated_at, opened_at, closed_at, published_at`

type BallotRepo struct {
	db *sql.DB
}

func NewBallotRepo(db *sql.DB) *BallotRepo {
	return &BallotRepo{db: db}
}

func (r *BallotRepo) Create(ctx context.Context, b *ballot.Ballot) error {
	opts, err := repository.EncodeOptions(b.Options)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO ballots (id, tenant_id, title, description, question_type, options,
            open_at, close_at, quorum_pct, linked_initiative_id, status, created_by,
            created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    `,
		b.ID, b.TenantID, b.Title, b.Description, string(b.QuestionType), opts,
		b.OpenAt, b.CloseAt, b.QuorumPct, b.LinkedInitiativeID, string(b.Status), b.CreatedBy,
		b.CreatedAt, b.UpdatedAt,
	)
	return storageErr(err)
}

func (r *BallotRepo) GetByID(ctx context.Context, tenantID, id string) (*ballot.Ballot, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+ballotColumns+`
        FROM ballots WHERE tenant_id = $1 AND id = $2
    `, tenantID, id)
	b, err := scanBallot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ballot.ErrNotFound
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return b, nil
}

func (r *BallotRepo) List(ctx context.Context, tenantID string, status *ballot.Status) ([]ballot.Ballot, error) {
	query := `
        SELECT ` + ballotColumns + `
        FROM ballots WHERE tenant_id = $1
    `
	var rows *sql.Rows
	var err error

	if status != nil {
		query += " AND status = $2 ORDER BY created_at DESC, id"
		rows, err = r.db.QueryContext(ctx, query, tenantID, string(*status))
	} else {
		query += " ORDER BY created_at DESC, id"
		rows, err = r.db.QueryContext(ctx, query, tenantID)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var res []ballot.Ballot
	for rows.Next() {
		b, err := scanBallot(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *b)
	}
	return res, storageErr(rows.Err())
}

func (r *BallotRepo) UpdateDraft(ctx context.Context, b *ballot.Ballot) error {
	opts, err := repository.EncodeOptions(b.Options)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
        UPDATE ballots
        SET title = $1, description = $2, options = $3, open_at = $4, close_at = $5,
            quorum_pct = $6, linked_initiative_id = $7, updated_at = $8
        WHERE tenant_id = $9 AND id = $10 AND status = 'draft'
    `,
		b.Title, b.Description, opts, b.OpenAt, b.CloseAt,
		b.QuorumPct, b.LinkedInitiativeID, b.UpdatedAt,
		b.TenantID, b.ID,
	)
	return affectedOne(res, err)
}

func (r *BallotRepo) Transition(ctx context.Context, t ballot.Transition) error {
	var stampColumn string
	switch t.To {
	case ballot.StatusOpen:
		stampColumn = "opened_at"
	case ballot.StatusClosed:
		stampColumn = "closed_at"
	case ballot.StatusPublished:
		stampColumn = "published_at"
	default:
		return fmt.Errorf("unsupported transition target %q", t.To)
	}

	res, err := r.db.ExecContext(ctx, `
        UPDATE ballots
        SET status = $1, `+stampColumn+` = $2, updated_at = $2,
            eligible_voters = COALESCE($3, eligible_voters)
        WHERE tenant_id = $4 AND id = $5 AND status = $6
    `, string(t.To), t.At, t.EligibleVoters, t.TenantID, t.BallotID, string(t.From))
	return affectedOne(res, err)
}

func (r *BallotRepo) DeleteDraft(ctx context.Context, tenantID, id string) error {
	res, err := r.db.ExecContext(ctx, `
        DELETE FROM ballots WHERE tenant_id = $1 AND id = $2 AND status = 'draft'
    `, tenantID, id)
	return affectedOne(res, err)
}

// affectedOne turns a conditional write that matched nothing into
// ballot.ErrStaleStatus.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return storageErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if n == 0 {
		return ballot.ErrStaleStatus
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBallot(s scanner) (*ballot.Ballot, error) {
	var (
		b       ballot.Ballot
		qtype   string
		status  string
		rawOpts []byte
		quorum  sql.NullInt32
		elig    sql.NullInt64
	)
	err := s.Scan(
		&b.ID, &b.TenantID, &b.Title, &b.Description, &qtype, &rawOpts, &b.OpenAt, &b.CloseAt,
		&quorum, &b.LinkedInitiativeID, &status, &elig, &b.CreatedBy,
		&b.CreatedAt, &b.UpdatedAt, &b.OpenedAt, &b.ClosedAt, &b.PublishedAt,
	)
	if err != nil {
		return nil, err
	}

	b.QuestionType = ballot.QuestionType(qtype)
	b.Status = ballot.Status(status)
	if !b.QuestionType.Valid() || !b.Status.Valid() {
		return nil, errors.New("ballot row has unknown question type or status")
	}
	if b.Options, err = repository.DecodeOptions(rawOpts); err != nil {
		return nil, err
	}
	if quorum.Valid {
		q := int(quorum.Int32)
		b.QuorumPct = &q
	}
	if elig.Valid {
		b.EligibleVoters = &elig.Int64
	}
	return &b, nil
}
