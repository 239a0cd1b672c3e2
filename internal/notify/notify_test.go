package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk93102/clm-backend/internal/domain"
)

type fakeQueue struct {
	mu         sync.Mutex
	rows       map[uuid.UUID]*domain.Notification
	enqueueErr error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{rows: make(map[uuid.UUID]*domain.Notification)}
}

func (q *fakeQueue) Enqueue(_ context.Context, n *domain.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	cp := *n
	q.rows[n.ID] = &cp
	return nil
}

func (q *fakeQueue) ListPending(_ context.Context, limit int) ([]*domain.Notification, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*domain.Notification
	for _, n := range q.rows {
		if n.Status == domain.NotificationStatusPending && len(out) < limit {
			cp := *n
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (q *fakeQueue) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	n, ok := q.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Status = domain.NotificationStatusSent
	n.SentAt = &sentAt
	return nil
}

func (q *fakeQueue) MarkFailed(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	n, ok := q.rows[id]
	if !ok {
		return domain.ErrNotFound
	}
	n.Status = domain.NotificationStatusFailed
	return nil
}

func (q *fakeQueue) byStatus(status domain.NotificationStatus) []*domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*domain.Notification
	for _, n := range q.rows {
		if n.Status == status {
			out = append(out, n)
		}
	}
	return out
}

type fakeSender struct {
	mu        sync.Mutex
	channel   string
	delivered []*domain.Notification
	err       error
}

func (s *fakeSender) Channel() string { return s.channel }

func (s *fakeSender) Deliver(_ context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, n)
	return nil
}

func TestDispatcher_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("lifts metadata into columns", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		tenantID, recipient := uuid.New(), uuid.New()
		contractID, instanceID := uuid.New(), uuid.New()

		err := d.Enqueue(context.Background(), tenantID, recipient, "Approval requested", "Please review.", map[string]any{
			MetaPriority:   10,
			MetaContractID: contractID.String(),
			MetaInstanceID: instanceID.String(),
		})
		require.NoError(t, err)

		pending := queue.byStatus(domain.NotificationStatusPending)
		require.Len(t, pending, 1)
		n := pending[0]
		assert.Equal(t, tenantID, n.TenantID)
		assert.Equal(t, recipient, n.RecipientID)
		assert.Equal(t, "Approval requested", n.Subject)
		assert.Equal(t, 10, n.Priority)
		require.NotNil(t, n.ContractID)
		assert.Equal(t, contractID, *n.ContractID)
		require.NotNil(t, n.WorkflowInstanceID)
		assert.Equal(t, instanceID, *n.WorkflowInstanceID)
	})

	t.Run("nil meta defaults", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)

		err := d.Enqueue(context.Background(), uuid.New(), uuid.New(), "s", "b", nil)
		require.NoError(t, err)

		pending := queue.byStatus(domain.NotificationStatusPending)
		require.Len(t, pending, 1)
		assert.Zero(t, pending[0].Priority)
		assert.Nil(t, pending[0].ContractID)
	})

	t.Run("queue failure surfaces", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		queue.enqueueErr = errors.New("insert failed")
		d := NewDispatcher(queue)

		err := d.Enqueue(context.Background(), uuid.New(), uuid.New(), "s", "b", nil)
		require.Error(t, err)
	})
}

func TestWorker_DrainOnce(t *testing.T) {
	t.Parallel()

	enqueue := func(t *testing.T, d *Dispatcher, meta map[string]any) {
		t.Helper()
		require.NoError(t, d.Enqueue(context.Background(), uuid.New(), uuid.New(), "subject", "body", meta))
	}

	t.Run("routes by channel and marks sent", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		enqueue(t, d, map[string]any{MetaChannel: "slack"})
		enqueue(t, d, nil) // falls back to log

		slackSender := &fakeSender{channel: "slack"}
		logSender := &fakeSender{channel: "log"}
		reg := NewRegistry()
		reg.Register(slackSender)
		reg.Register(logSender)

		w := NewWorker(queue, reg)
		require.NoError(t, w.DrainOnce(context.Background()))

		assert.Len(t, slackSender.delivered, 1)
		assert.Len(t, logSender.delivered, 1)
		assert.Len(t, queue.byStatus(domain.NotificationStatusSent), 2)
		assert.Empty(t, queue.byStatus(domain.NotificationStatusPending))
	})

	t.Run("delivery failure marks row failed without stalling batch", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		enqueue(t, d, map[string]any{MetaChannel: "slack"})
		enqueue(t, d, nil)

		reg := NewRegistry()
		reg.Register(&fakeSender{channel: "slack", err: errors.New("rate limited")})
		reg.Register(&fakeSender{channel: "log"})

		w := NewWorker(queue, reg)
		require.NoError(t, w.DrainOnce(context.Background()))

		assert.Len(t, queue.byStatus(domain.NotificationStatusFailed), 1)
		assert.Len(t, queue.byStatus(domain.NotificationStatusSent), 1)
	})

	t.Run("unknown channel falls back to log sender", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		enqueue(t, d, map[string]any{MetaChannel: "pager"})

		logSender := &fakeSender{channel: "log"}
		reg := NewRegistry()
		reg.Register(logSender)

		w := NewWorker(queue, reg)
		require.NoError(t, w.DrainOnce(context.Background()))
		assert.Len(t, logSender.delivered, 1)
	})

	t.Run("drained twice delivers once", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		enqueue(t, d, nil)

		logSender := &fakeSender{channel: "log"}
		reg := NewRegistry()
		reg.Register(logSender)

		w := NewWorker(queue, reg)
		require.NoError(t, w.DrainOnce(context.Background()))
		require.NoError(t, w.DrainOnce(context.Background()))
		assert.Len(t, logSender.delivered, 1)
	})
}

type fakeSlackAPI struct {
	channelID string
	texts     []string
	err       error
}

func (f *fakeSlackAPI) PostMessageContext(_ context.Context, channelID string, _ ...slacklib.MsgOption) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	f.channelID = channelID
	f.texts = append(f.texts, "posted")
	return channelID, "1234.5678", nil
}

func TestSlackSender_Deliver(t *testing.T) {
	t.Parallel()

	t.Run("posts to configured channel", func(t *testing.T) {
		t.Parallel()
		api := &fakeSlackAPI{}
		s := NewSlackSender(api, "C123")

		err := s.Deliver(context.Background(), &domain.Notification{
			ID:      uuid.New(),
			Subject: "SLA Breach",
			Body:    "overdue",
		})
		require.NoError(t, err)
		assert.Equal(t, "C123", api.channelID)
		assert.Len(t, api.texts, 1)
	})

	t.Run("api failure surfaces", func(t *testing.T) {
		t.Parallel()
		api := &fakeSlackAPI{err: errors.New("invalid_auth")}
		s := NewSlackSender(api, "C123")

		err := s.Deliver(context.Background(), &domain.Notification{ID: uuid.New()})
		require.Error(t, err)
	})
}

type fakePub struct {
	mu       sync.Mutex
	messages map[string][][]byte
	err      error
}

func (p *fakePub) Publish(_ context.Context, channel string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = make(map[string][][]byte)
	}
	p.messages[channel] = append(p.messages[channel], payload)
	return nil
}

func TestWorker_DeliveryEvents(t *testing.T) {
	t.Parallel()

	t.Run("sent notification is published to the tenant stream", func(t *testing.T) {
		t.Parallel()
		tenantID := uuid.New()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		require.NoError(t, d.Enqueue(context.Background(), tenantID, uuid.New(), "subject", "body", nil))

		reg := NewRegistry()
		reg.Register(&fakeSender{channel: "log"})
		pub := &fakePub{}

		w := NewWorker(queue, reg).WithPubSub(pub)
		require.NoError(t, w.DrainOnce(context.Background()))

		msgs := pub.messages["tenant:"+tenantID.String()]
		require.Len(t, msgs, 1)
		assert.Contains(t, string(msgs[0]), "notification_sent")
	})

	t.Run("publish failure does not affect queue state", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		require.NoError(t, d.Enqueue(context.Background(), uuid.New(), uuid.New(), "subject", "body", nil))

		reg := NewRegistry()
		reg.Register(&fakeSender{channel: "log"})

		w := NewWorker(queue, reg).WithPubSub(&fakePub{err: errors.New("redis down")})
		require.NoError(t, w.DrainOnce(context.Background()))

		assert.Len(t, queue.byStatus(domain.NotificationStatusSent), 1)
	})

	t.Run("failed delivery emits no event", func(t *testing.T) {
		t.Parallel()
		queue := newFakeQueue()
		d := NewDispatcher(queue)
		require.NoError(t, d.Enqueue(context.Background(), uuid.New(), uuid.New(), "subject", "body", map[string]any{MetaChannel: "slack"}))

		reg := NewRegistry()
		reg.Register(&fakeSender{channel: "slack", err: errors.New("rate limited")})
		reg.Register(&fakeSender{channel: "log"})
		pub := &fakePub{}

		w := NewWorker(queue, reg).WithPubSub(pub)
		require.NoError(t, w.DrainOnce(context.Background()))

		assert.Empty(t, pub.messages)
	})
}
