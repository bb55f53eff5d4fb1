package sqlite

import (
	"time"

	"gorm.io/gorm"

	"condo-ballots/internal/domain/ballot"
	"condo-ballots/internal/domain/member"
	"condo-ballots/internal/domain/vote"
	"condo-ballots/internal/repository"
)

type memberRow struct {
	ID        string    `gorm:"primaryKey"`
	TenantID  string    `gorm:"not null;index"`
	Name      string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Role      string    `gorm:"not null"`
	IsActive  bool      `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (memberRow) TableName() string { return "members" }

type ballotRow struct {
	ID                 string    `gorm:"primaryKey"`
	TenantID           string    `gorm:"not null;index:idx_ballots_tenant_status,priority:1"`
	Title              string    `gorm:"not null"`
	Description        *string
	QuestionType       string    `gorm:"not null"`
	Options            string    `gorm:"not null"`
	OpenAt             time.Time `gorm:"not null"`
	CloseAt            time.Time `gorm:"not null"`
	QuorumPct          *int
	LinkedInitiativeID *string
	Status             string `gorm:"not null;index:idx_ballots_tenant_status,priority:2"`
	EligibleVoters     *int64
	CreatedBy          string    `gorm:"not null"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
	OpenedAt           *time.Time
	ClosedAt           *time.Time
	PublishedAt        *time.Time
}

func (ballotRow) TableName() string { return "ballots" }

type voteRow struct {
	ID              string    `gorm:"primaryKey"`
	BallotID        string    `gorm:"not null;uniqueIndex:idx_votes_ballot_voter,priority:1"`
	VoterID         string    `gorm:"not null;uniqueIndex:idx_votes_ballot_voter,priority:2"`
	SelectedOptions string    `gorm:"not null"`
	VotedAt         time.Time `gorm:"not null"`
}

func (voteRow) TableName() string { return "votes" }

// Migrate creates or updates the tables used by the embedded store.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&memberRow{}, &ballotRow{}, &voteRow{})
}

func ballotRowFromEntity(b *ballot.Ballot) (ballotRow, error) {
	opts, err := repository.EncodeOptions(b.Options)
	if err != nil {
		return ballotRow{}, err
	}
	return ballotRow{
		ID:                 b.ID,
		TenantID:           b.TenantID,
		Title:              b.Title,
		Description:        b.Description,
		QuestionType:       string(b.QuestionType),
		Options:            string(opts),
		OpenAt:             b.OpenAt.UTC(),
		CloseAt:            b.CloseAt.UTC(),
		QuorumPct:          b.QuorumPct,
		LinkedInitiativeID: b.LinkedInitiativeID,
		Status:             string(b.Status),
		EligibleVoters:     b.EligibleVoters,
		CreatedBy:          b.CreatedBy,
		CreatedAt:          b.CreatedAt.UTC(),
		UpdatedAt:          b.UpdatedAt.UTC(),
		OpenedAt:           b.OpenedAt,
		ClosedAt:           b.ClosedAt,
		PublishedAt:        b.PublishedAt,
	}, nil
}

func (r ballotRow) toEntity() (*ballot.Ballot, error) {
	opts, err := repository.DecodeOptions([]byte(r.Options))
	if err != nil {
		return nil, err
	}
	b := &ballot.Ballot{
		ID:                 r.ID,
		TenantID:           r.TenantID,
		Title:              r.Title,
		Description:        r.Description,
		QuestionType:       ballot.QuestionType(r.QuestionType),
		Options:            opts,
		OpenAt:             r.OpenAt.UTC(),
		CloseAt:            r.CloseAt.UTC(),
		QuorumPct:          r.QuorumPct,
		LinkedInitiativeID: r.LinkedInitiativeID,
		Status:             ballot.Status(r.Status),
		EligibleVoters:     r.EligibleVoters,
		CreatedBy:          r.CreatedBy,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
		OpenedAt:           r.OpenedAt,
		ClosedAt:           r.ClosedAt,
		PublishedAt:        r.PublishedAt,
	}
	if !b.QuestionType.Valid() || !b.Status.Valid() {
		return nil, errUnknownEnum
	}
	return b, nil
}

func (r voteRow) toEntity() (vote.Vote, error) {
	sel, err := repository.DecodeSelection([]byte(r.SelectedOptions))
	if err != nil {
		return vote.Vote{}, err
	}
	return vote.Vote{
		ID:              r.ID,
		BallotID:        r.BallotID,
		VoterID:         r.VoterID,
		SelectedOptions: sel,
		VotedAt:         r.VotedAt.UTC(),
	}, nil
}

func (r memberRow) toEntity() member.Member {
	return member.Member{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Email:     r.Email,
		Role:      r.Role,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}
