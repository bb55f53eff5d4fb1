package ballot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"condo-ballots/internal/metrics"
	"condo-ballots/internal/notify"
)

// EligibleCounter supplies the number of members entitled to vote.
type EligibleCounter interface {
	CountEligible(ctx context.Context, tenantID string) (int64, error)
}

type CreateInput struct {
	TenantID           string
	Title              string
	Description        *string
	QuestionType       QuestionType
	Options            []Option
	OpenAt             time.Time
	CloseAt            time.Time
	QuorumPct          *int
	LinkedInitiativeID *string
	CreatedBy          string
}

// UpdateInput carries draft edits; nil fields are left unchanged.
type UpdateInput struct {
	Title              *string
	Description        *string
	Options            []Option
	OpenAt             *time.Time
	CloseAt            *time.Time
	QuorumPct          *int
	ClearQuorum        bool
	LinkedInitiativeID *string
}

type Service struct {
	repo    Repository
	members EligibleCounter
	events  notify.Publisher
	baseURL string
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(repo Repository, members EligibleCounter, events notify.Publisher, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		members: members,
		events:  events,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
	}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Ballot, error) {
	if in.TenantID == "" {
		return nil, invalid("tenant_id", "required")
	}
	if in.CreatedBy == "" {
		return nil, invalid("created_by", "required")
	}
	if !in.QuestionType.Valid() {
		return nil, invalid("question_type", "must be yes_no, single_choice or multi_choice")
	}

	opts, err := NormalizeOptions(in.QuestionType, in.Options)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &Ballot{
		ID:                 uuid.NewString(),
		TenantID:           in.TenantID,
		Title:              strings.TrimSpace(in.Title),
		Description:        in.Description,
		QuestionType:       in.QuestionType,
		Options:            opts,
		OpenAt:             in.OpenAt.UTC(),
		CloseAt:            in.CloseAt.UTC(),
		QuorumPct:          in.QuorumPct,
		LinkedInitiativeID: in.LinkedInitiativeID,
		Status:             StatusDraft,
		CreatedBy:          in.CreatedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := validate(b); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, tenantID, id string) (*Ballot, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *Service) List(ctx context.Context, tenantID string, status *Status) ([]Ballot, error) {
	if status != nil && !status.Valid() {
		return nil, invalid("status", "unknown status "+string(*status))
	}
	return s.repo.List(ctx, tenantID, status)
}

func (s *Service) Update(ctx context.Context, tenantID, id string, in UpdateInput) (*Ballot, error) {
	b, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.Allows(ActionEdit) {
		return nil, StateError(ActionEdit, b.Status)
	}

	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		b.Description = in.Description
	}
	if in.Options != nil {
		opts, err := NormalizeOptions(b.QuestionType, in.Options)
		if err != nil {
			return nil, err
		}
		b.Options = opts
	}
	if in.OpenAt != nil {
		b.OpenAt = in.OpenAt.UTC()
	}
	if in.CloseAt != nil {
		b.CloseAt = in.CloseAt.UTC()
	}
	if in.ClearQuorum {
		b.QuorumPct = nil
	} else if in.QuorumPct != nil {
		b.QuorumPct = in.QuorumPct
	}
	if in.LinkedInitiativeID != nil {
		b.LinkedInitiativeID = in.LinkedInitiativeID
	}
	if err := validate(b); err != nil {
		return nil, err
	}
	b.UpdatedAt = s.now().UTC()

	if err := s.repo.UpdateDraft(ctx, b); err != nil {
		if errors.Is(err, ErrStaleStatus) {
			return nil, s.rejection(ctx, tenantID, id, ActionEdit)
		}
		return nil, err
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, tenantID, id string) error {
	err := s.repo.DeleteDraft(ctx, tenantID, id)
	if errors.Is(err, ErrStaleStatus) {
		return s.rejection(ctx, tenantID, id, ActionDelete)
	}
	return err
}

// Open moves a draft ballot to open and emits a ballot_open notification.
func (s *Service) Open(ctx context.Context, tenantID, id string) (*Ballot, error) {
	b, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.Allows(ActionOpen) {
		return nil, StateError(ActionOpen, b.Status)
	}
	if err := validate(b); err != nil {
		return nil, err
	}

	b, err = s.transition(ctx, b, ActionOpen, nil)
	if err != nil {
		return nil, err
	}

	ev := notify.Event{
		Type:        notify.TypeBallotOpen,
		TenantID:    b.TenantID,
		BallotID:    b.ID,
		BallotTitle: b.Title,
		CloseAt:     b.CloseAt,
		TargetURL:   s.baseURL + "/ballots/" + b.ID,
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "publish ballot_open failed",
				"tenant_id", b.TenantID, "ballot_id", b.ID, "error", err)
		}
	}
	return b, nil
}

// Close moves an open ballot to closed and snapshots the eligible-voter
// count used by every later tally of this ballot.
func (s *Service) Close(ctx context.Context, tenantID, id string) (*Ballot, error) {
	b, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.Allows(ActionClose) {
		return nil, StateError(ActionClose, b.Status)
	}

	var eligible *int64
	if s.members != nil {
		n, err := s.members.CountEligible(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		eligible = &n
	}
	return s.transition(ctx, b, ActionClose, eligible)
}

func (s *Service) Publish(ctx context.Context, tenantID, id string) (*Ballot, error) {
	b, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.Allows(ActionPublish) {
		return nil, StateError(ActionPublish, b.Status)
	}
	return s.transition(ctx, b, ActionPublish, nil)
}

func (s *Service) transition(ctx context.Context, b *Ballot, a Action, eligible *int64) (*Ballot, error) {
	from, to, _ := Target(a)
	at := s.now().UTC()
	err := s.repo.Transition(ctx, Transition{
		TenantID:       b.TenantID,
		BallotID:       b.ID,
		From:           from,
		To:             to,
		At:             at,
		EligibleVoters: eligible,
	})
	if err != nil {
		metrics.IncTransition(string(to), "rejected")
		if errors.Is(err, ErrStaleStatus) {
			return nil, s.rejection(ctx, b.TenantID, b.ID, a)
		}
		return nil, err
	}
	metrics.IncTransition(string(to), "applied")

	b.Status = to
	b.UpdatedAt = at
	switch to {
	case StatusOpen:
		b.OpenedAt = &at
	case StatusClosed:
		b.ClosedAt = &at
		b.EligibleVoters = eligible
	case StatusPublished:
		b.PublishedAt = &at
	}
	s.logger.InfoContext(ctx, "ballot transition",
		"tenant_id", b.TenantID, "ballot_id", b.ID, "from", from, "to", to)
	return b, nil
}

// rejection re-reads the ballot after a conditional write lost and reports
// the state that blocked it.
func (s *Service) rejection(ctx context.Context, tenantID, id string, a Action) error {
	cur, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	return StateError(a, cur.Status)
}

func validate(b *Ballot) error {
	if b.Title == "" {
		return invalid("title", "required")
	}
	if b.OpenAt.IsZero() || b.CloseAt.IsZero() {
		return invalid("schedule", "open_at and close_at are required")
	}
	if !b.CloseAt.After(b.OpenAt) {
		return invalid("close_at", "must be after open_at")
	}
	if b.QuorumPct != nil && (*b.QuorumPct < 1 || *b.QuorumPct > 100) {
		return invalid("quorum_pct", "must be between 1 and 100")
	}
	return checkOptionCount(b.QuestionType, b.Options)
}
