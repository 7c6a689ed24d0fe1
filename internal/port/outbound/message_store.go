// Package outbound defines the outbound port interfaces for the external
// collaborators the gateway calls: the message store, the conversational
// bot, and the event broker.
package outbound

import (
	"context"
	"time"

	"github.com/novix-hq/channelgate/internal/domain/message"
)

// SaveMessageInput is the persistence collaborator's contract: one
// normalized message together with the owning client (tenant) id.
type SaveMessageInput struct {
	ClientID string
	Message  *message.InboundMessage
}

// Conversation is a stored conversation summary, as the admin API reads it.
type Conversation struct {
	ID            string
	ClientID      string
	Channel       message.ChannelType
	ContactName   string
	ContactKey    string
	LastMessageAt time.Time
}

// StoredMessage is a persisted message row, as the admin API reads it.
type StoredMessage struct {
	ID             string
	ConversationID string
	ExternalID     string
	ContentType    message.ContentType
	Content        string
	MediaURL       string
	ReceivedAt     time.Time
}

// MessageStore is the outbound port for message persistence. Implementations
// own idempotency: saving the same provider message twice must not create a
// second row. The gateway only logs store failures, it never retries.
type MessageStore interface {
	// SaveMessage upserts contact, conversation, and message for one
	// normalized inbound message.
	SaveMessage(ctx context.Context, in SaveMessageInput) error

	// ListConversations returns the most recently active conversations.
	ListConversations(ctx context.Context, limit int) ([]Conversation, error)

	// ListMessages returns a conversation's messages, oldest first.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]StoredMessage, error)

	// Close releases the underlying storage handle.
	Close() error
}
