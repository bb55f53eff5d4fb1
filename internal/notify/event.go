package notify

import (
	"context"
	"time"
)

const TypeBallotOpen = "ballot_open"

// Event is the payload handed to the notification fan-out collaborator.
type Event struct {
	Type        string    `json:"type"`
	TenantID    string    `json:"tenantId"`
	BallotID    string    `json:"ballotId"`
	BallotTitle string    `json:"ballotTitle"`
	CloseAt     time.Time `json:"closeAt"`
	TargetURL   string    `json:"targetUrl"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Sink delivers a single event to its final destination.
type Sink interface {
	Deliver(ctx context.Context, ev Event) error
}
