package sqlite

import (
	"context"
	"time"

	"gorm.io/gorm"

	"condo-ballots/internal/domain/member"
)

type MemberRepo struct {
	db *gorm.DB
}

func NewMemberRepo(db *gorm.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) CountActive(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&memberRow{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Count(&n).Error
	return n, storageErr(err)
}

func (r *MemberRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]member.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []memberRow
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, storageErr(err)
	}
	res := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		res = append(res, row.toEntity())
	}
	return res, nil
}

// Save inserts or replaces a member record.
func (r *MemberRepo) Save(ctx context.Context, m member.Member) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	if m.Role == "" {
		m.Role = member.RoleUser
	}
	row := memberRow{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Email:     m.Email,
		Role:      m.Role,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt.UTC(),
	}
	return storageErr(r.db.WithContext(ctx).Save(&row).Error)
}
