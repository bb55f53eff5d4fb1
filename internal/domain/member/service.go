package member

import (
	"context"
	"errors"
)

var ErrTenantRequired = errors.New("tenant id required")

type Directory struct {
	repo Repository
}

func NewDirectory(repo Repository) *Directory {
	return &Directory{repo: repo}
}

// CountEligible returns a point-in-time count of members entitled to vote.
func (d *Directory) CountEligible(ctx context.Context, tenantID string) (int64, error) {
	if tenantID == "" {
		return 0, ErrTenantRequired
	}
	return d.repo.CountActive(ctx, tenantID)
}

// Identities resolves display identities for the given member ids. Unknown
// ids are absent from the result.
func (d *Directory) Identities(ctx context.Context, tenantID string, ids []string) (map[string]Member, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	res := make(map[string]Member, len(ids))
	if len(ids) == 0 {
		return res, nil
	}
	members, err := d.repo.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		res[m.ID] = m
	}
	return res, nil
}
