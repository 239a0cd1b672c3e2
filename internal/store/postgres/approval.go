package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
)

type ApprovalRepo struct {
	pool *pgxpool.Pool
}

func NewApprovalRepo(pool *pgxpool.Pool) *ApprovalRepo {
	return &ApprovalRepo{pool: pool}
}

const approvalColumns = `id, tenant_id, workflow_instance_id, stage_seq, stage_name,
		        approver_id, approver_role, status, is_required, requested_at, due_at,
		        responded_at, comments, delegated_to`

func (r *ApprovalRepo) Create(ctx context.Context, a *domain.StageApproval) error {
	_, err := q(ctx, r.pool).Exec(ctx,
		`INSERT INTO stage_approvals
		   (id, tenant_id, workflow_instance_id, stage_seq, stage_name, approver_id,
		    approver_role, status, is_required, requested_at, due_at, responded_at,
		    comments, delegated_to)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.TenantID, a.WorkflowInstanceID, a.StageSeq, a.StageName,
		a.ApproverID, a.ApproverRole, a.Status, a.IsRequired, a.RequestedAt,
		a.DueAt, a.RespondedAt, a.Comments, a.DelegatedTo,
	)
	if err != nil {
		return fmt.Errorf("approvalRepo.Create: %w", err)
	}

	return nil
}

func (r *ApprovalRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.StageApproval, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT `+approvalColumns+`
		 FROM stage_approvals WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	a, err := scanApprovalRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("approvalRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("approvalRepo.GetByID: %w", err)
	}

	return a, nil
}

func (r *ApprovalRepo) ListByInstance(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*domain.StageApproval, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT `+approvalColumns+`
		 FROM stage_approvals WHERE tenant_id = $1 AND workflow_instance_id = $2
		 ORDER BY stage_seq, requested_at`,
		tenantID, instanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("approvalRepo.ListByInstance: %w", err)
	}
	defer rows.Close()

	return scanApprovals(rows, "approvalRepo.ListByInstance")
}

func (r *ApprovalRepo) ListByStage(ctx context.Context, tenantID, instanceID uuid.UUID, stageSeq int) ([]*domain.StageApproval, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT `+approvalColumns+`
		 FROM stage_approvals
		 WHERE tenant_id = $1 AND workflow_instance_id = $2 AND stage_seq = $3
		 ORDER BY requested_at`,
		tenantID, instanceID, stageSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("approvalRepo.ListByStage: %w", err)
	}
	defer rows.Close()

	return scanApprovals(rows, "approvalRepo.ListByStage")
}

func (r *ApprovalRepo) ListPendingByApprover(ctx context.Context, tenantID, approverID uuid.UUID) ([]*domain.StageApproval, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT `+approvalColumns+`
		 FROM stage_approvals
		 WHERE tenant_id = $1 AND approver_id = $2 AND status = 'pending'
		 ORDER BY due_at`,
		tenantID, approverID,
	)
	if err != nil {
		return nil, fmt.Errorf("approvalRepo.ListPendingByApprover: %w", err)
	}
	defer rows.Close()

	return scanApprovals(rows, "approvalRepo.ListPendingByApprover")
}

// ListOverdue spans tenants: the SLA scan runs once for the whole system.
func (r *ApprovalRepo) ListOverdue(ctx context.Context, now time.Time) ([]*domain.StageApproval, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT `+approvalColumns+`
		 FROM stage_approvals
		 WHERE status = 'pending' AND due_at < $1
		 ORDER BY due_at
		 LIMIT 1000`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("approvalRepo.ListOverdue: %w", err)
	}
	defer rows.Close()

	return scanApprovals(rows, "approvalRepo.ListOverdue")
}

// Resolve flips a pending approval to its final status. The status guard in
// the WHERE clause is what makes concurrent resolutions settle to exactly
// one winner.
func (r *ApprovalRepo) Resolve(ctx context.Context, tenantID, id uuid.UUID, status domain.ApprovalStatus, respondedAt time.Time, comments string, delegatedTo *uuid.UUID) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE stage_approvals
		 SET status = $1, responded_at = $2, comments = $3, delegated_to = $4
		 WHERE tenant_id = $5 AND id = $6 AND status = 'pending'`,
		status, respondedAt, comments, delegatedTo, tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("approvalRepo.Resolve: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("approvalRepo.Resolve: %w", domain.ErrApprovalNotPending)
	}

	return nil
}

func scanApprovalRow(row pgx.Row) (*domain.StageApproval, error) {
	var a domain.StageApproval

	err := row.Scan(
		&a.ID, &a.TenantID, &a.WorkflowInstanceID, &a.StageSeq, &a.StageName,
		&a.ApproverID, &a.ApproverRole, &a.Status, &a.IsRequired,
		&a.RequestedAt, &a.DueAt, &a.RespondedAt, &a.Comments, &a.DelegatedTo,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func scanApprovals(rows pgx.Rows, caller string) ([]*domain.StageApproval, error) {
	var approvals []*domain.StageApproval
	for rows.Next() {
		a, err := scanApprovalRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return approvals, nil
}
