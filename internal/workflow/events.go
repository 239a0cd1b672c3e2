package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vk93102/clm-backend/internal/domain"
)

// Event types published to the per-instance pub/sub channel.
const (
	EventWorkflowStarted   = "workflow_started"
	EventWorkflowCompleted = "workflow_completed"
	EventWorkflowRejected  = "workflow_rejected"
	EventWorkflowCancelled = "workflow_cancelled"
	EventStageAdvanced     = "stage_advanced"
	EventApprovalApproved  = "approval_approved"
	EventApprovalRejected  = "approval_rejected"
	EventApprovalDelegated = "approval_delegated"
)

// Event is the wire shape streamed to watchers of a workflow instance.
type Event struct {
	Type       string         `json:"type"`
	TenantID   string         `json:"tenant_id"`
	InstanceID string         `json:"instance_id"`
	ContractID string         `json:"contract_id"`
	Status     string         `json:"status"`
	Stage      string         `json:"stage"`
	Detail     map[string]any `json:"detail,omitempty"`
	At         time.Time      `json:"at"`
}

// InstanceChannel returns the pub/sub channel for one workflow instance.
func InstanceChannel(instanceID string) string {
	return "workflow:" + instanceID
}

// publishEvent pushes an event to the instance channel. Publish failures
// are logged; event delivery is best-effort and never affects the state
// transition that produced it.
func (e *Engine) publishEvent(ctx context.Context, inst *domain.WorkflowInstance, eventType string, detail map[string]any) {
	if e.pubsub == nil {
		return
	}

	evt := Event{
		Type:       eventType,
		TenantID:   inst.TenantID.String(),
		InstanceID: inst.ID.String(),
		ContractID: inst.ContractID.String(),
		Status:     string(inst.Status),
		Stage:      inst.CurrentStageName,
		Detail:     detail,
		At:         time.Now(),
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		return
	}

	channel := InstanceChannel(inst.ID.String())
	if pubErr := e.pubsub.Publish(ctx, channel, payload); pubErr != nil {
		log.Error().Err(pubErr).Str("channel", channel).Msg("failed to publish workflow event")
	}
}
