package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is one queued message to an actor. The workflow core only
// enqueues; delivery (email/SMS rendering) is a separate consumer reading
// pending rows.
type Notification struct {
	ID                 uuid.UUID
	TenantID           uuid.UUID
	RecipientID        uuid.UUID
	Subject            string
	Body               string
	Priority           int // higher delivers first; escalations use 10
	ContractID         *uuid.UUID
	WorkflowInstanceID *uuid.UUID
	Status             NotificationStatus
	Metadata           map[string]any
	CreatedAt          time.Time
	SentAt             *time.Time
}

type NotificationRepository interface {
	Enqueue(ctx context.Context, n *Notification) error
	ListPending(ctx context.Context, limit int) ([]*Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}
