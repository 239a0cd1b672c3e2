package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: marshal metadata: %w", err)
	}

	_, err = q(ctx, r.pool).Exec(ctx,
		`INSERT INTO audit_log (id, tenant_id, actor_id, action, resource_type, resource_id, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TenantID, entry.ActorID, entry.Action,
		entry.ResourceType, entry.ResourceID, metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, actor_id, action, resource_type, resource_id, metadata, created_at
		 FROM audit_log WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		tenantID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByTenant: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListByTenant")
}

func (r *AuditRepo) ListByResource(ctx context.Context, tenantID uuid.UUID, resourceType string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, actor_id, action, resource_type, resource_id, metadata, created_at
		 FROM audit_log WHERE tenant_id = $1 AND resource_type = $2 AND resource_id = $3
		 ORDER BY created_at DESC`,
		tenantID, resourceType, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByResource: %w", err)
	}
	defer rows.Close()

	return scanAuditEntries(rows, "auditRepo.ListByResource")
}

func scanAuditEntries(rows pgx.Rows, caller string) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		var metadata []byte

		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.ActorID, &e.Action,
			&e.ResourceType, &e.ResourceID, &metadata, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("%s: unmarshal metadata: %w", caller, err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return entries, nil
}
