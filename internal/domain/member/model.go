package member

import (
	"context"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Member is a tenant resident as seen by the ballot engine. Membership
// itself is managed elsewhere.
type Member struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	CountActive(ctx context.Context, tenantID string) (int64, error)
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]Member, error)
}
