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

type SLARuleRepo struct {
	pool *pgxpool.Pool
}

func NewSLARuleRepo(pool *pgxpool.Pool) *SLARuleRepo {
	return &SLARuleRepo{pool: pool}
}

const slaRuleColumns = `id, tenant_id, name, description, workflow_definition_id, stage_name,
		        sla_hours, escalation_enabled, escalation_users, escalation_message,
		        is_active, created_by, created_at, updated_at`

func (r *SLARuleRepo) Create(ctx context.Context, rule *domain.SLARule) error {
	_, err := q(ctx, r.pool).Exec(ctx,
		`INSERT INTO sla_rules
		   (id, tenant_id, name, description, workflow_definition_id, stage_name,
		    sla_hours, escalation_enabled, escalation_users, escalation_message,
		    is_active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rule.ID, rule.TenantID, rule.Name, rule.Description,
		rule.WorkflowDefinitionID, rule.StageName, rule.SLAHours,
		rule.EscalationEnabled, rule.EscalationUsers, rule.EscalationMessage,
		rule.IsActive, rule.CreatedBy, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("slaRuleRepo.Create: %w", err)
	}

	return nil
}

func (r *SLARuleRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.SLARule, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT `+slaRuleColumns+`
		 FROM sla_rules WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	rule, err := scanSLARuleRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("slaRuleRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("slaRuleRepo.GetByID: %w", err)
	}

	return rule, nil
}

func (r *SLARuleRepo) ListActive(ctx context.Context, tenantID uuid.UUID) ([]*domain.SLARule, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT `+slaRuleColumns+`
		 FROM sla_rules WHERE tenant_id = $1 AND is_active = true
		 ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("slaRuleRepo.ListActive: %w", err)
	}
	defer rows.Close()

	return scanSLARules(rows, "slaRuleRepo.ListActive")
}

func (r *SLARuleRepo) Update(ctx context.Context, rule *domain.SLARule) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE sla_rules
		 SET name = $1, description = $2, workflow_definition_id = $3, stage_name = $4,
		     sla_hours = $5, escalation_enabled = $6, escalation_users = $7,
		     escalation_message = $8, is_active = $9, updated_at = now()
		 WHERE tenant_id = $10 AND id = $11`,
		rule.Name, rule.Description, rule.WorkflowDefinitionID, rule.StageName,
		rule.SLAHours, rule.EscalationEnabled, rule.EscalationUsers,
		rule.EscalationMessage, rule.IsActive, rule.TenantID, rule.ID,
	)
	if err != nil {
		return fmt.Errorf("slaRuleRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slaRuleRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SLARuleRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`DELETE FROM sla_rules WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return fmt.Errorf("slaRuleRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slaRuleRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func scanSLARuleRow(row pgx.Row) (*domain.SLARule, error) {
	var rule domain.SLARule

	err := row.Scan(
		&rule.ID, &rule.TenantID, &rule.Name, &rule.Description,
		&rule.WorkflowDefinitionID, &rule.StageName, &rule.SLAHours,
		&rule.EscalationEnabled, &rule.EscalationUsers, &rule.EscalationMessage,
		&rule.IsActive, &rule.CreatedBy, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &rule, nil
}

func scanSLARules(rows pgx.Rows, caller string) ([]*domain.SLARule, error) {
	var out []*domain.SLARule
	for rows.Next() {
		rule, err := scanSLARuleRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return out, nil
}

type SLABreachRepo struct {
	pool *pgxpool.Pool
}

func NewSLABreachRepo(pool *pgxpool.Pool) *SLABreachRepo {
	return &SLABreachRepo{pool: pool}
}

const slaBreachColumns = `id, tenant_id, workflow_instance_id, stage_approval_id, sla_rule_id,
		        breach_time, expected_completion, actual_completion, breach_duration_hours,
		        status, escalated, escalation_sent_at, resolution_notes`

// CreateIfAbsent inserts the breach unless an active one already covers the
// same stage approval. Relies on a partial unique index on
// (stage_approval_id) WHERE status = 'active'.
func (r *SLABreachRepo) CreateIfAbsent(ctx context.Context, b *domain.SLABreach) (bool, error) {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`INSERT INTO sla_breaches
		   (id, tenant_id, workflow_instance_id, stage_approval_id, sla_rule_id,
		    breach_time, expected_completion, actual_completion, breach_duration_hours,
		    status, escalated, escalation_sent_at, resolution_notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (stage_approval_id) WHERE status = 'active' DO NOTHING`,
		b.ID, b.TenantID, b.WorkflowInstanceID, b.StageApprovalID, b.SLARuleID,
		b.BreachTime, b.ExpectedCompletion, b.ActualCompletion,
		b.BreachDurationHours, b.Status, b.Escalated, b.EscalationSentAt,
		b.ResolutionNotes,
	)
	if err != nil {
		return false, fmt.Errorf("slaBreachRepo.CreateIfAbsent: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (r *SLABreachRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.SLABreach, error) {
	row := q(ctx, r.pool).QueryRow(ctx,
		`SELECT `+slaBreachColumns+`
		 FROM sla_breaches WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)

	b, err := scanSLABreachRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("slaBreachRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("slaBreachRepo.GetByID: %w", err)
	}

	return b, nil
}

func (r *SLABreachRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, status domain.BreachStatus) ([]*domain.SLABreach, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT `+slaBreachColumns+`
		 FROM sla_breaches WHERE tenant_id = $1 AND status = $2
		 ORDER BY breach_time DESC
		 LIMIT 1000`,
		tenantID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("slaBreachRepo.ListByStatus: %w", err)
	}
	defer rows.Close()

	return scanSLABreaches(rows, "slaBreachRepo.ListByStatus")
}

func (r *SLABreachRepo) ListByInstance(ctx context.Context, tenantID, instanceID uuid.UUID) ([]*domain.SLABreach, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT `+slaBreachColumns+`
		 FROM sla_breaches WHERE tenant_id = $1 AND workflow_instance_id = $2
		 ORDER BY breach_time DESC`,
		tenantID, instanceID,
	)
	if err != nil {
		return nil, fmt.Errorf("slaBreachRepo.ListByInstance: %w", err)
	}
	defer rows.Close()

	return scanSLABreaches(rows, "slaBreachRepo.ListByInstance")
}

func (r *SLABreachRepo) MarkEscalated(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE sla_breaches SET escalated = true, escalation_sent_at = $1 WHERE id = $2`,
		sentAt, id,
	)
	if err != nil {
		return fmt.Errorf("slaBreachRepo.MarkEscalated: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slaBreachRepo.MarkEscalated: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SLABreachRepo) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.BreachStatus, notes string, actualCompletion *time.Time) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE sla_breaches
		 SET status = $1, resolution_notes = $2,
		     actual_completion = COALESCE($3, actual_completion)
		 WHERE tenant_id = $4 AND id = $5 AND status = $6`,
		to, notes, actualCompletion, tenantID, id, from,
	)
	if err != nil {
		return fmt.Errorf("slaBreachRepo.TransitionStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("slaBreachRepo.TransitionStatus: %s -> %s: %w", from, to, domain.ErrConflict)
	}

	return nil
}

func scanSLABreachRow(row pgx.Row) (*domain.SLABreach, error) {
	var b domain.SLABreach

	err := row.Scan(
		&b.ID, &b.TenantID, &b.WorkflowInstanceID, &b.StageApprovalID,
		&b.SLARuleID, &b.BreachTime, &b.ExpectedCompletion, &b.ActualCompletion,
		&b.BreachDurationHours, &b.Status, &b.Escalated, &b.EscalationSentAt,
		&b.ResolutionNotes,
	)
	if err != nil {
		return nil, err
	}

	return &b, nil
}

func scanSLABreaches(rows pgx.Rows, caller string) ([]*domain.SLABreach, error) {
	var out []*domain.SLABreach
	for rows.Next() {
		b, err := scanSLABreachRow(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return out, nil
}
