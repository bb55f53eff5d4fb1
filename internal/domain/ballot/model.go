package ballot

import (
	"context"
	"time"
)

type QuestionType string

const (
	YesNo        QuestionType = "yes_no"
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
)

func (t QuestionType) Valid() bool {
	switch t {
	case YesNo, SingleChoice, MultiChoice:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusPublished Status = "results_published"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusOpen, StatusClosed, StatusPublished:
		return true
	}
	return false
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Ballot struct {
	ID                 string       `json:"id"`
	TenantID           string       `json:"tenant_id"`
	Title              string       `json:"title"`
	Description        *string      `json:"description,omitempty"`
	QuestionType       QuestionType `json:"question_type"`
	Options            []Option     `json:"options"`
	OpenAt             time.Time    `json:"open_at"`
	CloseAt            time.Time    `json:"close_at"`
	QuorumPct          *int         `json:"quorum_pct,omitempty"`
	LinkedInitiativeID *string      `json:"linked_initiative_id,omitempty"`
	Status             Status       `json:"status"`
	// EligibleVoters is the membership count captured when the ballot closed.
	EligibleVoters *int64     `json:"eligible_voters,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	OpenedAt       *time.Time `json:"opened_at,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

// Selectable returns the options presented to voters and tally consumers.
func (b *Ballot) Selectable() []Option {
	return ResolveOptions(b.QuestionType, b.Options)
}

// Transition describes a conditional status write.
type Transition struct {
	TenantID string
	BallotID string
	From     Status
	To       Status
	At       time.Time
	// EligibleVoters is stored alongside the transition when set.
	EligibleVoters *int64
}

type Repository interface {
	Create(ctx context.Context, b *Ballot) error
	GetByID(ctx context.Context, tenantID, id string) (*Ballot, error)
	List(ctx context.Context, tenantID string, status *Status) ([]Ballot, error)
	// UpdateDraft persists editable fields only while the stored status is draft.
	UpdateDraft(ctx context.Context, b *Ballot) error
	// Transition moves the ballot from t.From to t.To and returns
	// ErrStaleStatus when no row with status t.From matched.
	Transition(ctx context.Context, t Transition) error
	// DeleteDraft removes the ballot only while it is a draft.
	DeleteDraft(ctx context.Context, tenantID, id string) error
}
