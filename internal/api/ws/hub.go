package ws

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/server/middleware"
	redisstore "github.com/vk93102/clm-backend/internal/store/redis"
)

// Hub manages WebSocket connections backed by Redis pub/sub.
type Hub struct {
	pubsub *redisstore.PubSub
}

// NewHub creates a new WebSocket hub.
func NewHub(pubsub *redisstore.PubSub) *Hub {
	return &Hub{pubsub: pubsub}
}

// ServeWorkflow streams workflow events for one instance. Subscribes to
// Redis channel "workflow:<instanceID>" and forwards the engine's JSON
// event payloads to the connected client.
func (h *Hub) ServeWorkflow(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.TenantIDFromContext(r.Context()); !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	instanceIDStr := chi.URLParam(r, "instanceID")
	instanceID, err := uuid.Parse(instanceIDStr)
	if err != nil {
		http.Error(w, "invalid instance id", http.StatusBadRequest)
		return
	}

	h.stream(w, r, redisstore.WorkflowChannel(instanceID))
}

// ServeTenant streams tenant-wide notification events. Subscribes to Redis
// channel "tenant:<tenantID>".
func (h *Hub) ServeTenant(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := middleware.TenantIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing tenant", http.StatusBadRequest)
		return
	}

	h.stream(w, r, redisstore.TenantChannel(tenantID))
}

func (h *Hub) stream(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	messages, cleanup, err := h.pubsub.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
		return
	}
	defer cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
