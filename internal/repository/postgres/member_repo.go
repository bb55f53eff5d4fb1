package postgres

import (
	"context"
	"database/sql"

	"condo-ballots/internal/domain/member"
)

type MemberRepo struct {
	db *sql.DB
}

func NewMemberRepo(db *sql.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

func (r *MemberRepo) CountActive(ctx context.Context, tenantID string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM members WHERE tenant_id = $1 AND is_active
    `, tenantID).Scan(&n)
	return n, storageErr(err)
}

func (r *MemberRepo) ListByIDs(ctx context.Context, tenantID string, ids []string) ([]member.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, tenant_id, name, email, role, is_active, created_at
        FROM members
        WHERE tenant_id = $1 AND id = ANY($2)
        ORDER BY id
    `, tenantID, ids)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var res []member.Member
	for rows.Next() {
		var m member.Member
		if err := rows.Scan(&m.ID, &m.TenantID, &m.Name, &m.Email, &m.Role, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, storageErr(rows.Err())
}

// Save inserts or replaces a member record.
func (r *MemberRepo) Save(ctx context.Context, m member.Member) error {
	if m.Role == "" {
		m.Role = member.RoleUser
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO members (id, tenant_id, name, email, role, is_active)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE
        SET tenant_id = EXCLUDED.tenant_id, name = EXCLUDED.name, email = EXCLUDED.email,
            role = EXCLUDED.role, is_active = EXCLUDED.is_active
    `, m.ID, m.TenantID, m.Name, m.Email, m.Role, m.IsActive)
	return storageErr(err)
}
