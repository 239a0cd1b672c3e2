package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"

	"github.com/vk93102/clm-backend/internal/domain"
)

// SlackAPI abstracts the subset of the Slack client used by SlackSender.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackSender posts notifications to a single Slack channel. Recipient
// resolution to Slack user IDs is out of scope; the message body carries
// the context a human needs.
type SlackSender struct {
	api       SlackAPI
	channelID string
}

var _ Sender = (*SlackSender)(nil) //nolint:gochecknoglobals // compile-time check

func NewSlackSender(api SlackAPI, channelID string) *SlackSender {
	return &SlackSender{api: api, channelID: channelID}
}

func (s *SlackSender) Channel() string { return "slack" }

func (s *SlackSender) Deliver(ctx context.Context, n *domain.Notification) error {
	text := fmt.Sprintf("*%s*\n%s", n.Subject, n.Body)
	_, _, err := s.api.PostMessageContext(ctx, s.channelID, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.SlackSender.Deliver: %w", err)
	}
	return nil
}
