package ballot

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"condo-ballots/internal/notify"
)

type memoryBallotRepo struct {
	mu      sync.Mutex
	ballots map[string]*Ballot
}

func newMemoryBallotRepo() *memoryBallotRepo {
	return &memoryBallotRepo{ballots: make(map[string]*Ballot)}
}

func (r *memoryBallotRepo) Create(ctx context.Context, b *Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.ballots[b.ID] = &cp
	return nil
}

func (r *memoryBallotRepo) GetByID(ctx context.Context, tenantID, id string) (*Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.ballots[id]
	if !ok || b.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memoryBallotRepo) List(ctx context.Context, tenantID string, status *Status) ([]Ballot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := []Ballot{}
	for _, b := range r.ballots {
		if b.TenantID != tenantID || (status != nil && b.Status != *status) {
			continue
		}
		res = append(res, *b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *memoryBallotRepo) UpdateDraft(ctx context.Context, b *Ballot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.ballots[b.ID]
	if !ok || cur.TenantID != b.TenantID || cur.Status != StatusDraft {
		return ErrStaleStatus
	}
	cp := *b
	r.ballots[b.ID] = &cp
	return nil
}

func (r *memoryBallotRepo) Transition(ctx context.Context, t Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.ballots[t.BallotID]
	if !ok || cur.TenantID != t.TenantID || cur.Status != t.From {
		return ErrStaleStatus
	}
	cur.Status = t.To
	cur.UpdatedAt = t.At
	if t.EligibleVoters != nil {
		n := *t.EligibleVoters
		cur.EligibleVoters = &n
	}
	return nil
}

func (r *memoryBallotRepo) DeleteDraft(ctx context.Context, tenantID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.ballots[id]
	if !ok || cur.TenantID != tenantID || cur.Status != StatusDraft {
		return ErrStaleStatus
	}
	delete(r.ballots, id)
	return nil
}

type fixedCounter int64

func (c fixedCounter) CountEligible(ctx context.Context, tenantID string) (int64, error) {
	return int64(c), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev notify.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

const tenant = "tenant-1"

func newTestService() (*Service, *memoryBallotRepo, *recordingPublisher) {
	repo := newMemoryBallotRepo()
	pub := &recordingPublisher{}
	return NewService(repo, fixedCounter(10), pub, "https://condo.example/", nil), repo, pub
}

func singleChoiceInput() CreateInput {
	open := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return CreateInput{
		TenantID:     tenant,
		Title:        "Pick a contractor",
		QuestionType: SingleChoice,
		Options:      []Option{{ID: "a", Label: "Acme"}, {ID: "b", Label: "Bolt"}},
		OpenAt:       open,
		CloseAt:      open.Add(72 * time.Hour),
		CreatedBy:    "admin-1",
	}
}

func TestCreateStartsInDraft(t *testing.T) {
	svc, _, _ := newTestService()
	b, err := svc.Create(context.Background(), singleChoiceInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Status != StatusDraft {
		t.Fatalf("expected draft, got %s", b.Status)
	}
	if b.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	cases := map[string]func(in *CreateInput){
		"empty title":       func(in *CreateInput) { in.Title = "  " },
		"close before open": func(in *CreateInput) { in.CloseAt = in.OpenAt.Add(-time.Hour) },
		"unknown type":      func(in *CreateInput) { in.QuestionType = "ranked" },
		"one option":        func(in *CreateInput) { in.Options = in.Options[:1] },
		"duplicate option":  func(in *CreateInput) { in.Options[1].ID = "a" },
		"quorum zero":       func(in *CreateInput) { q := 0; in.QuorumPct = &q },
		"quorum above 100":  func(in *CreateInput) { q := 101; in.QuorumPct = &q },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := singleChoiceInput()
			mutate(&in)
			if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestYesNoIgnoresSubmittedOptions(t *testing.T) {
	svc, _, _ := newTestService()
	in := singleChoiceInput()
	in.QuestionType = YesNo
	in.Options = []Option{{ID: "maybe", Label: "Maybe"}}

	b, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got := b.Selectable()
	if len(got) != 2 || got[0].ID != OptionYes || got[1].ID != OptionNo {
		t.Fatalf("unexpected yes/no options: %+v", got)
	}
}

func TestLifecycleForwardOnly(t *testing.T) {
	svc, _, pub := newTestService()
	ctx := context.Background()
	b, err := svc.Create(ctx, singleChoiceInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Close(ctx, tenant, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("close from draft: expected invalid state, got %v", err)
	}
	if _, err := svc.Publish(ctx, tenant, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("publish from draft: expected invalid state, got %v", err)
	}

	opened, err := svc.Open(ctx, tenant, b.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if opened.Status != StatusOpen || opened.OpenedAt == nil {
		t.Fatalf("unexpected opened ballot: %+v", opened)
	}
	if _, err := svc.Open(ctx, tenant, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reopen: expected invalid state, got %v", err)
	}

	closed, err := svc.Close(ctx, tenant, b.ID)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.EligibleVoters == nil || *closed.EligibleVoters != 10 {
		t.Fatalf("expected eligible snapshot of 10, got %v", closed.EligibleVoters)
	}
	if _, err := svc.Open(ctx, tenant, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("open from closed: expected invalid state, got %v", err)
	}

	if _, err := svc.Publish(ctx, tenant, b.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for _, fn := range []func(context.Context, string, string) (*Ballot, error){svc.Open, svc.Close, svc.Publish} {
		if _, err := fn(ctx, tenant, b.ID); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("transition from published: expected invalid state, got %v", err)
		}
	}

	if len(pub.events) != 1 {
		t.Fatalf("expected one notification, got %d", len(pub.events))
	}
	ev := pub.events[0]
	if ev.Type != notify.TypeBallotOpen || ev.BallotTitle != "Pick a contractor" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.TargetURL != "https://condo.example/ballots/"+b.ID {
		t.Fatalf("unexpected target url %q", ev.TargetURL)
	}
}

func TestInvalidStateReportsCurrentStatus(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	b, _ := svc.Create(ctx, singleChoiceInput())

	_, err := svc.Publish(ctx, tenant, b.ID)
	var stateErr *InvalidStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if stateErr.Current != StatusDraft || stateErr.Action != string(ActionPublish) {
		t.Fatalf("unexpected state error: %+v", stateErr)
	}
}

func TestOpenSucceedsWhenPublishFails(t *testing.T) {
	svc, _, pub := newTestService()
	pub.err = errors.New("queue full")
	ctx := context.Background()
	b, _ := svc.Create(ctx, singleChoiceInput())

	if _, err := svc.Open(ctx, tenant, b.ID); err != nil {
		t.Fatalf("Open should not fail on publish error: %v", err)
	}
}

func TestEditAndDeleteOnlyInDraft(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	b, _ := svc.Create(ctx, singleChoiceInput())

	title := "Pick a roofer"
	updated, err := svc.Update(ctx, tenant, b.ID, UpdateInput{
		Title:   &title,
		Options: []Option{{Label: "Roofs R Us"}, {Label: "Top Cover"}, {Label: "  "}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || len(updated.Options) != 2 {
		t.Fatalf("unexpected update result: %+v", updated)
	}
	for _, o := range updated.Options {
		if o.ID == "" {
			t.Fatalf("expected generated option id, got %+v", o)
		}
	}

	if _, err := svc.Open(ctx, tenant, b.ID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := svc.Update(ctx, tenant, b.ID, UpdateInput{Title: &title}); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("edit open ballot: expected invalid state, got %v", err)
	}
	if err := svc.Delete(ctx, tenant, b.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("delete open ballot: expected invalid state, got %v", err)
	}

	draft, _ := svc.Create(ctx, singleChoiceInput())
	if err := svc.Delete(ctx, tenant, draft.ID); err != nil {
		t.Fatalf("Delete draft: %v", err)
	}
	if _, err := svc.Get(ctx, tenant, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestOtherTenantCannotSeeBallot(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	b, _ := svc.Create(ctx, singleChoiceInput())

	if _, err := svc.Get(ctx, "tenant-2", b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Open(ctx, "tenant-2", b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentCloseHasOneWinner(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	b, _ := svc.Create(ctx, singleChoiceInput())
	if _, err := svc.Open(ctx, tenant, b.ID); err != nil {
		t.Fatalf("Open: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Close(ctx, tenant, b.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, rejected int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvalidState):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || rejected != n-1 {
		t.Fatalf("expected 1 winner and %d rejections, got %d/%d", n-1, ok, rejected)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()
	s := Status("archived")
	if _, err := svc.List(context.Background(), tenant, &s); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
