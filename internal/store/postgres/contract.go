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

type ContractRepo struct {
	pool *pgxpool.Pool
}

func NewContractRepo(pool *pgxpool.Pool) *ContractRepo {
	return &ContractRepo{pool: pool}
}

func (r *ContractRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Contract, error) {
	var c domain.Contract

	err := q(ctx, r.pool).QueryRow(ctx,
		`SELECT id, tenant_id, title, contract_type, value, currency, status,
		        department, counterparty, created_by, created_at, updated_at
		 FROM contracts WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&c.ID, &c.TenantID, &c.Title, &c.ContractType, &c.Value, &c.Currency,
		&c.Status, &c.Department, &c.Counterparty, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("contractRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("contractRepo.GetByID: %w", err)
	}

	return &c, nil
}

func (r *ContractRepo) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.ContractStatus) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE contracts SET status = $1, updated_at = now() WHERE tenant_id = $2 AND id = $3`,
		status, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("contractRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contractRepo.UpdateStatus: %w", domain.ErrNotFound)
	}

	return nil
}
