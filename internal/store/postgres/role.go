package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
)

type UserRoleRepo struct {
	pool *pgxpool.Pool
}

func NewUserRoleRepo(pool *pgxpool.Pool) *UserRoleRepo {
	return &UserRoleRepo{pool: pool}
}

func (r *UserRoleRepo) Assign(ctx context.Context, role *domain.UserRole) error {
	_, err := q(ctx, r.pool).Exec(ctx,
		`INSERT INTO user_roles (id, tenant_id, user_id, role, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		role.ID, role.TenantID, role.UserID, role.Role, role.IsActive, role.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("userRoleRepo.Assign: %w", err)
	}

	return nil
}

func (r *UserRoleRepo) Revoke(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE user_roles SET is_active = false WHERE tenant_id = $1 AND id = $2 AND is_active = true`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("userRoleRepo.Revoke: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRoleRepo.Revoke: %w", domain.ErrNotFound)
	}

	return nil
}

// ListActorsByRole joins against users so deactivated accounts never
// receive approval slots.
func (r *UserRoleRepo) ListActorsByRole(ctx context.Context, tenantID uuid.UUID, role string) ([]uuid.UUID, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT ur.user_id
		 FROM user_roles ur
		 JOIN users u ON u.tenant_id = ur.tenant_id AND u.id = ur.user_id
		 WHERE ur.tenant_id = $1 AND ur.role = $2 AND ur.is_active = true AND u.is_active = true
		 ORDER BY ur.created_at`,
		tenantID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("userRoleRepo.ListActorsByRole: %w", err)
	}
	defer rows.Close()

	var actors []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("userRoleRepo.ListActorsByRole: scan: %w", err)
		}
		actors = append(actors, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("userRoleRepo.ListActorsByRole: rows: %w", err)
	}

	return actors, nil
}

func (r *UserRoleRepo) ListByUser(ctx context.Context, tenantID, userID uuid.UUID) ([]*domain.UserRole, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, user_id, role, is_active, created_at
		 FROM user_roles WHERE tenant_id = $1 AND user_id = $2
		 ORDER BY created_at`,
		tenantID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("userRoleRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var roles []*domain.UserRole
	for rows.Next() {
		var role domain.UserRole
		if err := rows.Scan(&role.ID, &role.TenantID, &role.UserID, &role.Role, &role.IsActive, &role.CreatedAt); err != nil {
			return nil, fmt.Errorf("userRoleRepo.ListByUser: scan: %w", err)
		}
		roles = append(roles, &role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("userRoleRepo.ListByUser: rows: %w", err)
	}

	return roles, nil
}
