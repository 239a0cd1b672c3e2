package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
)

const uniqueViolation = "23505"

type InstanceRepo struct {
	pool *pgxpool.Pool
}

func NewInstanceRepo(pool *pgxpool.Pool) *InstanceRepo {
	return &InstanceRepo{pool: pool}
}

// Create inserts the instance. The table carries a partial unique index on
// (tenant_id, contract_id) WHERE status IN ('active', 'paused'); a paused
// run still owns its contract, so starting over it fails the same way a
// concurrent start does, and resuming it can never collide with the index.
func (r *InstanceRepo) Create(ctx context.Context, inst *domain.WorkflowInstance) error {
	metadata, err := json.Marshal(inst.Metadata)
	if err != nil {
		return fmt.Errorf("instanceRepo.Create: marshal metadata: %w", err)
	}

	_, err = q(ctx, r.pool).Exec(ctx,
		`INSERT INTO workflow_instances
		   (id, tenant_id, contract_id, workflow_definition_id, current_stage_seq,
		    current_stage_name, status, started_at, completed_at, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inst.ID, inst.TenantID, inst.ContractID, inst.WorkflowDefinitionID,
		inst.CurrentStageSeq, inst.CurrentStageName, inst.Status,
		inst.StartedAt, inst.CompletedAt, metadata,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("instanceRepo.Create: %w", domain.ErrInstanceAlreadyActive)
		}
		return fmt.Errorf("instanceRepo.Create: %w", err)
	}

	return nil
}

func (r *InstanceRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT id, tenant_id, contract_id, workflow_definition_id, current_stage_seq,
		        current_stage_name, status, started_at, completed_at, metadata
		 FROM workflow_instances WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	inst, err := scanInstanceRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("instanceRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("instanceRepo.GetByID: %w", err)
	}

	return inst, nil
}

// Lock re-reads the instance row FOR UPDATE. Under READ COMMITTED a plain
// read inside one transaction never sees another transaction's uncommitted
// approval resolutions; taking the row lock first forces racing approvals
// on the same run to queue, so whichever transaction runs second observes
// the first one's commit before counting pending approvals.
func (r *InstanceRepo) Lock(ctx context.Context, tenantID, id uuid.UUID) (*domain.WorkflowInstance, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT id, tenant_id, contract_id, workflow_definition_id, current_stage_seq,
		        current_stage_name, status, started_at, completed_at, metadata
		 FROM workflow_instances WHERE tenant_id = $1 AND id = $2
		 FOR UPDATE`,
		tenantID, id,
	)

	inst, err := scanInstanceRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("instanceRepo.Lock: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("instanceRepo.Lock: %w", err)
	}

	return inst, nil
}

func (r *InstanceRepo) GetActiveByContract(ctx context.Context, tenantID, contractID uuid.UUID) (*domain.WorkflowInstance, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT id, tenant_id, contract_id, workflow_definition_id, current_stage_seq,
		        current_stage_name, status, started_at, completed_at, metadata
		 FROM workflow_instances
		 WHERE tenant_id = $1 AND contract_id = $2 AND status = 'active'`,
		tenantID, contractID,
	)

	inst, err := scanInstanceRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("instanceRepo.GetActiveByContract: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("instanceRepo.GetActiveByContract: %w", err)
	}

	return inst, nil
}

func (r *InstanceRepo) ListByContract(ctx context.Context, tenantID, contractID uuid.UUID) ([]*domain.WorkflowInstance, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, contract_id, workflow_definition_id, current_stage_seq,
		        current_stage_name, status, started_at, completed_at, metadata
		 FROM workflow_instances WHERE tenant_id = $1 AND contract_id = $2
		 ORDER BY started_at DESC`,
		tenantID, contractID,
	)
	if err != nil {
		return nil, fmt.Errorf("instanceRepo.ListByContract: %w", err)
	}
	defer rows.Close()

	return scanInstances(rows, "instanceRepo.ListByContract")
}

func (r *InstanceRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, status domain.InstanceStatus) ([]*domain.WorkflowInstance, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, contract_id, workflow_definition_id, current_stage_seq,
		        current_stage_name, status, started_at, completed_at, metadata
		 FROM workflow_instances WHERE tenant_id = $1 AND status = $2
		 ORDER BY started_at DESC
		 LIMIT 1000`,
		tenantID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("instanceRepo.ListByStatus: %w", err)
	}
	defer rows.Close()

	return scanInstances(rows, "instanceRepo.ListByStatus")
}

// AdvanceStage moves an active instance forward only when the target stage
// is ahead of the current one. A zero-row update means another worker
// already advanced past stageSeq, reported as ErrConflict.
func (r *InstanceRepo) AdvanceStage(ctx context.Context, tenantID, id uuid.UUID, stageSeq int, stageName string) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE workflow_instances
		 SET current_stage_seq = $1, current_stage_name = $2
		 WHERE tenant_id = $3 AND id = $4 AND status = 'active' AND current_stage_seq < $1`,
		stageSeq, stageName, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("instanceRepo.AdvanceStage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instanceRepo.AdvanceStage: %w", domain.ErrConflict)
	}

	return nil
}

// TransitionStatus performs the conditional status update keyed on `from`.
func (r *InstanceRepo) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.InstanceStatus, completedAt *time.Time) error {
	if !from.ValidTransition(to) {
		return fmt.Errorf("instanceRepo.TransitionStatus: %s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}

	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE workflow_instances
		 SET status = $1, completed_at = COALESCE($2, completed_at)
		 WHERE tenant_id = $3 AND id = $4 AND status = $5`,
		to, completedAt, tenantID, id, from,
	)
	if err != nil {
		return fmt.Errorf("instanceRepo.TransitionStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instanceRepo.TransitionStatus: %s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}

	return nil
}

func scanInstanceRow(row pgx.Row) (*domain.WorkflowInstance, error) {
	var inst domain.WorkflowInstance
	var metadata []byte

	err := row.Scan(
		&inst.ID, &inst.TenantID, &inst.ContractID, &inst.WorkflowDefinitionID,
		&inst.CurrentStageSeq, &inst.CurrentStageName, &inst.Status,
		&inst.StartedAt, &inst.CompletedAt, &metadata,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &inst.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}

	return &inst, nil
}

func scanInstances(rows pgx.Rows, caller string) ([]*domain.WorkflowInstance, error) {
	var instances []*domain.WorkflowInstance
	for rows.Next() {
		inst, err := scanInstanceRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return instances, nil
}
