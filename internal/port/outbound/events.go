package outbound

import (
	"context"
	"time"

	"github.com/novix-hq/channelgate/internal/domain/message"
)

// MessageEvent is the envelope published to the event broker for every
// normalized inbound message, so other Novix services (analytics, CRM sync)
// can react without polling the store.
type MessageEvent struct {
	EventID     string              `json:"eventId"`
	ClientID    string              `json:"clientId"`
	Channel     message.ChannelType `json:"channel"`
	ExternalID  string              `json:"externalId"`
	SenderKey   string              `json:"senderKey"`
	SenderName  string              `json:"senderName"`
	ContentType message.ContentType `json:"contentType"`
	Content     string              `json:"content"`
	MediaURL    string              `json:"mediaUrl,omitempty"`
	ReceivedAt  time.Time           `json:"receivedAt"`
}

// EventPublisher is the outbound port for the platform event broker.
// Publishing is best-effort: a broker outage must never fail webhook
// processing.
type EventPublisher interface {
	// Publish emits one event under the given routing key.
	Publish(ctx context.Context, routingKey string, event MessageEvent) error

	// Close releases the broker connection.
	Close() error
}
