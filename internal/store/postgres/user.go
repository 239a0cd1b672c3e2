package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := q(ctx, r.pool).Exec(ctx,
		`INSERT INTO users (id, tenant_id, email, password_hash, name, role, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.TenantID, u.Email, u.PasswordHash, u.Name, u.Role,
		u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Create: %w", err)
	}

	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT id, tenant_id, email, password_hash, name, role, is_active, created_at, updated_at
		 FROM users WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	u, err := scanUserRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByID: %w", err)
	}

	return u, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*domain.User, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT id, tenant_id, email, password_hash, name, role, is_active, created_at, updated_at
		 FROM users WHERE tenant_id = $1 AND email = $2`,
		tenantID, email,
	)

	u, err := scanUserRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("userRepo.GetByEmail: %w", err)
	}

	return u, nil
}

func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE users SET email = $1, password_hash = $2, name = $3, role = $4, is_active = $5, updated_at = now()
		 WHERE tenant_id = $6 AND id = $7`,
		u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive, u.TenantID, u.ID,
	)
	if err != nil {
		return fmt.Errorf("userRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("userRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *UserRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.User, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, email, password_hash, name, role, is_active, created_at, updated_at
		 FROM users WHERE tenant_id = $1
		 ORDER BY created_at
		 LIMIT 1000`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("userRepo.List: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("userRepo.List: scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("userRepo.List: rows: %w", err)
	}

	return users, nil
}

func scanUserRow(row pgx.Row) (*domain.User, error) {
	var u domain.User

	err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}
