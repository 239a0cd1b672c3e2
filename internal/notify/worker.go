package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vk93102/clm-backend/internal/domain"
)

const defaultBatchSize = 100

// PubSubPublisher pushes delivery events onto the tenant event stream.
type PubSubPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// tenantChannel must agree with the channel the websocket hub subscribes
// tenant watchers to.
func tenantChannel(tenantID uuid.UUID) string {
	return "tenant:" + tenantID.String()
}

// Worker drains the notification queue and delivers each message through
// the sender registered for its channel. Delivery failures mark the row
// failed; they never stall the batch.
type Worker struct {
	queue    domain.NotificationRepository
	registry *Registry
	pubsub   PubSubPublisher // nil disables delivery events
	fallback string
	batch    int
}

func NewWorker(queue domain.NotificationRepository, registry *Registry) *Worker {
	return &Worker{
		queue:    queue,
		registry: registry,
		fallback: "log",
		batch:    defaultBatchSize,
	}
}

// WithPubSub enables tenant-stream delivery events.
func (w *Worker) WithPubSub(ps PubSubPublisher) *Worker {
	w.pubsub = ps
	return w
}

// WithBatchSize overrides the per-drain batch limit.
func (w *Worker) WithBatchSize(n int) *Worker {
	if n > 0 {
		w.batch = n
	}
	return w
}

// Run drains the queue on a fixed interval until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("notification worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("notification worker stopped")
			return
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				log.Error().Err(err).Msg("notification drain failed")
			}
		}
	}
}

// DrainOnce delivers up to one batch of pending notifications.
func (w *Worker) DrainOnce(ctx context.Context) error {
	pending, err := w.queue.ListPending(ctx, w.batch)
	if err != nil {
		return err
	}

	for _, n := range pending {
		sender, ok := w.registry.Get(w.channelFor(n))
		if !ok {
			sender, ok = w.registry.Get(w.fallback)
			if !ok {
				log.Error().Str("notification_id", n.ID.String()).Msg("no sender registered, dropping")
				if markErr := w.queue.MarkFailed(ctx, n.ID); markErr != nil {
					log.Error().Err(markErr).Str("notification_id", n.ID.String()).Msg("mark failed errored")
				}
				continue
			}
		}

		if err := sender.Deliver(ctx, n); err != nil {
			log.Error().Err(err).
				Str("notification_id", n.ID.String()).
				Str("channel", sender.Channel()).
				Msg("notification delivery failed")
			if markErr := w.queue.MarkFailed(ctx, n.ID); markErr != nil {
				log.Error().Err(markErr).Str("notification_id", n.ID.String()).Msg("mark failed errored")
			}
			continue
		}

		if err := w.queue.MarkSent(ctx, n.ID, time.Now().UTC()); err != nil {
			log.Error().Err(err).Str("notification_id", n.ID.String()).Msg("mark sent errored")
		}

		w.publishDelivered(ctx, n)
	}

	return nil
}

// publishDelivered emits a best-effort event to the tenant stream. Failures
// are logged and never affect queue state.
func (w *Worker) publishDelivered(ctx context.Context, n *domain.Notification) {
	if w.pubsub == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"type":            "notification_sent",
		"notification_id": n.ID.String(),
		"recipient_id":    n.RecipientID.String(),
		"subject":         n.Subject,
		"priority":        n.Priority,
	})
	if err != nil {
		return
	}

	if pubErr := w.pubsub.Publish(ctx, tenantChannel(n.TenantID), payload); pubErr != nil {
		log.Debug().Err(pubErr).Str("notification_id", n.ID.String()).Msg("delivery event publish failed")
	}
}

func (w *Worker) channelFor(n *domain.Notification) string {
	if n.Metadata != nil {
		if ch, ok := n.Metadata[MetaChannel].(string); ok && ch != "" {
			return ch
		}
	}
	return w.fallback
}
