// Package notify persists outbound notifications and delivers them out of
// band. The workflow engine and SLA monitor only enqueue; a Worker drains
// the queue and hands each message to a channel-specific Sender.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
)

// Metadata keys recognized by the dispatcher. Callers may set them on the
// meta map passed to Enqueue; they are lifted into queue columns.
const (
	MetaPriority   = "priority"
	MetaChannel    = "channel"
	MetaContractID = "contract_id"
	MetaInstanceID = "instance_id"
)

// Dispatcher writes notifications to the persistent queue. It satisfies the
// Notifier dependency of both the workflow engine and the SLA monitor.
type Dispatcher struct {
	queue domain.NotificationRepository
}

func NewDispatcher(queue domain.NotificationRepository) *Dispatcher {
	return &Dispatcher{queue: queue}
}

// Enqueue records one pending notification. Priority and resource links are
// extracted from meta when present; everything else is stored verbatim for
// the delivery worker.
func (d *Dispatcher) Enqueue(ctx context.Context, tenantID, recipient uuid.UUID, subject, body string, meta map[string]any) error {
	n := &domain.Notification{
		ID:          uuid.New(),
		TenantID:    tenantID,
		RecipientID: recipient,
		Subject:     subject,
		Body:        body,
		Priority:    priorityFrom(meta),
		Status:      domain.NotificationStatusPending,
		Metadata:    meta,
		CreatedAt:   time.Now().UTC(),
	}
	if id, ok := uuidFrom(meta, MetaContractID); ok {
		n.ContractID = &id
	}
	if id, ok := uuidFrom(meta, MetaInstanceID); ok {
		n.WorkflowInstanceID = &id
	}

	if err := d.queue.Enqueue(ctx, n); err != nil {
		return fmt.Errorf("notify.Dispatcher.Enqueue: %w", err)
	}
	return nil
}

func priorityFrom(meta map[string]any) int {
	if meta == nil {
		return 0
	}
	switch v := meta[MetaPriority].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func uuidFrom(meta map[string]any, key string) (uuid.UUID, bool) {
	if meta == nil {
		return uuid.Nil, false
	}
	s, ok := meta[key].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
