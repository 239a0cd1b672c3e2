package notify

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/vk93102/clm-backend/internal/domain"
)

// Sender delivers one notification over a concrete channel.
type Sender interface {
	Deliver(ctx context.Context, n *domain.Notification) error
	Channel() string
}

// Registry is a map-based sender lookup keyed by channel name.
type Registry struct {
	senders map[string]Sender
}

func NewRegistry() *Registry {
	return &Registry{senders: make(map[string]Sender)}
}

func (r *Registry) Register(s Sender) {
	r.senders[s.Channel()] = s
}

// Get returns the sender for the given channel, or false if not registered.
func (r *Registry) Get(channel string) (Sender, bool) {
	s, ok := r.senders[channel]
	return s, ok
}

// LogSender records deliveries in the application log. It backs the default
// channel so the queue always drains even with no external channel wired.
type LogSender struct{}

func (LogSender) Channel() string { return "log" }

func (LogSender) Deliver(_ context.Context, n *domain.Notification) error {
	log.Info().
		Str("notification_id", n.ID.String()).
		Str("recipient_id", n.RecipientID.String()).
		Str("subject", n.Subject).
		Int("priority", n.Priority).
		Msg("notification delivered")
	return nil
}
