package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vk93102/clm-backend/internal/domain"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Enqueue(ctx context.Context, n *domain.Notification) error {
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("notificationRepo.Enqueue: marshal metadata: %w", err)
	}

	_, err = q(ctx, r.pool).Exec(ctx,
		`INSERT INTO notifications
		   (id, tenant_id, recipient_id, subject, body, priority, contract_id,
		    workflow_instance_id, status, metadata, created_at, sent_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.TenantID, n.RecipientID, n.Subject, n.Body, n.Priority,
		n.ContractID, n.WorkflowInstanceID, n.Status, metadata,
		n.CreatedAt, n.SentAt,
	)
	if err != nil {
		return fmt.Errorf("notificationRepo.Enqueue: %w", err)
	}

	return nil
}

// ListPending returns pending rows highest priority first, oldest first
// within a priority.
func (r *NotificationRepo) ListPending(ctx context.Context, limit int) ([]*domain.Notification, error) {
	rows, err := q(ctx, r.pool).Query(ctx,
		`SELECT id, tenant_id, recipient_id, subject, body, priority, contract_id,
		        workflow_instance_id, status, metadata, created_at, sent_at
		 FROM notifications WHERE status = 'pending'
		 ORDER BY priority DESC, created_at
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("notificationRepo.ListPending: %w", err)
	}
	defer rows.Close()

	return scanNotifications(rows, "notificationRepo.ListPending")
}

func (r *NotificationRepo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET status = 'sent', sent_at = $1 WHERE id = $2 AND status = 'pending'`,
		sentAt, id,
	)
	if err != nil {
		return fmt.Errorf("notificationRepo.MarkSent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notificationRepo.MarkSent: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *NotificationRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	tag, err := q(ctx, r.pool).Exec(ctx,
		`UPDATE notifications SET status = 'failed' WHERE id = $1 AND status = 'pending'`,
		id,
	)
	if err != nil {
		return fmt.Errorf("notificationRepo.MarkFailed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notificationRepo.MarkFailed: %w", domain.ErrNotFound)
	}

	return nil
}

func scanNotifications(rows pgx.Rows, caller string) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var metadata []byte

		if err := rows.Scan(
			&n.ID, &n.TenantID, &n.RecipientID, &n.Subject, &n.Body, &n.Priority,
			&n.ContractID, &n.WorkflowInstanceID, &n.Status, &metadata,
			&n.CreatedAt, &n.SentAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("%s: unmarshal metadata: %w", caller, err)
			}
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return out, nil
}
