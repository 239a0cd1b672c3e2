package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/rules"
)

type DefinitionRepo struct {
	pool *pgxpool.Pool
}

func NewDefinitionRepo(pool *pgxpool.Pool) *DefinitionRepo {
	return &DefinitionRepo{pool: pool}
}

func (r *DefinitionRepo) Create(ctx context.Context, d *domain.WorkflowDefinition) error {
	conditions, stages, err := marshalDefinitionDocs(d)
	if err != nil {
		return fmt.Errorf("definitionRepo.Create: %w", err)
	}

	_, err = q(ctx, r.pool).Exec(ctx,
		`INSERT INTO workflow_definitions
		   (id, tenant_id, name, description, contract_types, trigger_conditions, stages,
		    priority, is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.TenantID, d.Name, d.Description, d.ContractTypes, conditions, stages,
		d.Priority, d.IsActive, d.CreatedBy, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("definitionRepo.Create: %w", err)
	}

	return nil
}

func (r *DefinitionRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowDefinition, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT id, tenant_id, name, description, contract_types, trigger_conditions, stages,
		        priority, is_active, created_by, created_at, updated_at
		 FROM workflow_definitions WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	d, err := scanDefinitionRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("definitionRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("definitionRepo.GetByID: %w", err)
	}

	return d, nil
}

// ListActive returns candidates in matcher order. The ordering here is the
// contract the matcher depends on for deterministic selection.
func (r *DefinitionRepo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, name, description, contract_types, trigger_conditions, stages,
		        priority, is_active, created_by, created_at, updated_at
		 FROM workflow_definitions WHERE tenant_id = $1 AND is_active = true
		 ORDER BY priority DESC, created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("definitionRepo.ListActive: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows, "definitionRepo.ListActive")
}

func (r *DefinitionRepo) List(ctx context.Context, tenantID uuid.UUID) ([]*domain.WorkflowDefinition, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, name, description, contract_types, trigger_conditions, stages,
		        priority, is_active, created_by, created_at, updated_at
		 FROM workflow_definitions WHERE tenant_id = $1
		 ORDER BY priority DESC, created_at DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("definitionRepo.List: %w", err)
	}
	defer rows.Close()

	return scanDefinitions(rows, "definitionRepo.List")
}

func (r *DefinitionRepo) Update(ctx context.Context, d *domain.WorkflowDefinition) error {
	conditions, stages, err := marshalDefinitionDocs(d)
	if err != nil {
		return fmt.Errorf("definitionRepo.Update: %w", err)
	}

	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE workflow_definitions
		 SET name = $1, description = $2, contract_types = $3, trigger_conditions = $4,
		     stages = $5, priority = $6, is_active = $7, updated_at = now()
		 WHERE tenant_id = $8 AND id = $9`,
		d.Name, d.Description, d.ContractTypes, conditions, stages,
		d.Priority, d.IsActive, d.TenantID, d.ID,
	)
	if err != nil {
		return fmt.Errorf("definitionRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("definitionRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *DefinitionRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`DELETE FROM workflow_definitions WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("definitionRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("definitionRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func marshalDefinitionDocs(d *domain.WorkflowDefinition) (conditions, stages []byte, err error) {
	conditions, err = rules.MarshalConditionDoc(d.TriggerConditions)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal trigger conditions: %w", err)
	}
	stages, err = json.Marshal(d.Stages)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal stages: %w", err)
	}
	return conditions, stages, nil
}

func scanDefinitionRow(row pgx.Row) (*domain.WorkflowDefinition, error) {
	var d domain.WorkflowDefinition
	var conditions, stages []byte

	err := row.Scan(
		&d.ID, &d.TenantID, &d.Name, &d.Description, &d.ContractTypes,
		&conditions, &stages, &d.Priority, &d.IsActive, &d.CreatedBy,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.TriggerConditions, err = rules.ParseConditionDoc(conditions)
	if err != nil {
		return nil, fmt.Errorf("parse trigger conditions: %w", err)
	}
	if err := json.Unmarshal(stages, &d.Stages); err != nil {
		return nil, fmt.Errorf("unmarshal stages: %w", err)
	}

	return &d, nil
}

func scanDefinitions(rows pgx.Rows, caller string) ([]*domain.WorkflowDefinition, error) {
	var defs []*domain.WorkflowDefinition
	for rows.Next() {
		d, err := scanDefinitionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return defs, nil
}
