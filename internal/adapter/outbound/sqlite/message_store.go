// Package sqlite implements the MessageStore port on an embedded SQLite
// database. It owns the idempotency contract: the same provider message
// saved twice results in one row.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/novix-hq/channelgate/internal/domain/message"
	"github.com/novix-hq/channelgate/internal/port/outbound"
)

const schema = `
CREATE TABLE IF NOT EXISTS contacts (
	id          TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL,
	channel     TEXT NOT NULL,
	contact_key TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	UNIQUE (client_id, channel, contact_key)
);

CREATE TABLE IF NOT EXISTS conversations (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL,
	contact_id      TEXT NOT NULL REFERENCES contacts(id),
	channel         TEXT NOT NULL,
	last_message_at TIMESTAMP NOT NULL,
	UNIQUE (client_id, contact_id, channel)
);

CREATE TABLE IF NOT EXISTS messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	dedup_key       TEXT NOT NULL,
	external_id     TEXT NOT NULL DEFAULT '',
	content_type    TEXT NOT NULL,
	content         TEXT NOT NULL,
	media_url       TEXT NOT NULL DEFAULT '',
	received_at     TIMESTAMP NOT NULL,
	UNIQUE (conversation_id, dedup_key)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation
	ON messages (conversation_id, received_at);
`

// Store is a SQLite-backed MessageStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Compile-time check that Store implements the port.
var _ outbound.MessageStore = (*Store)(nil)

// Open opens (and migrates) the database at path. Use ":memory:" for an
// ephemeral store in tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// modernc sqlite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent webhook deliveries.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// SaveMessage upserts contact, conversation, and message inside one
// transaction. A duplicate (conversation, dedup key) pair is a no-op.
func (s *Store) SaveMessage(ctx context.Context, in outbound.SaveMessageInput) error {
	msg := in.Message
	if msg == nil {
		return fmt.Errorf("save message: nil message")
	}
	contactKey := msg.Sender.Key()
	if contactKey == "" {
		return fmt.Errorf("save message: empty sender identity")
	}

	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	contactID, err := s.upsertContact(ctx, tx, in.ClientID, msg, contactKey, now)
	if err != nil {
		return err
	}
	conversationID, err := s.upsertConversation(ctx, tx, in.ClientID, contactID, msg.Channel, now)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, dedup_key, external_id, content_type, content, media_url, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (conversation_id, dedup_key) DO NOTHING`,
		uuid.NewString(), conversationID, dedupKey(msg, now), msg.ExternalID,
		msg.ContentType.String(), msg.Content, msg.MediaURL, now,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		s.logger.Debug("duplicate message ignored",
			"conversation_id", conversationID, "external_id", msg.ExternalID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

// upsertContact inserts the contact or refreshes its display name. An empty
// incoming name never overwrites a known one.
func (s *Store) upsertContact(ctx context.Context, tx *sql.Tx, clientID string, msg *message.InboundMessage, contactKey string, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO contacts (id, client_id, channel, contact_key, name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (client_id, channel, contact_key) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE contacts.name END
		RETURNING id`,
		uuid.NewString(), clientID, msg.Channel.String(), contactKey, msg.SenderName, now,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert contact: %w", err)
	}
	return id, nil
}

func (s *Store) upsertConversation(ctx context.Context, tx *sql.Tx, clientID, contactID string, channel message.ChannelType, now time.Time) (string, error) {
	var id string
	err := tx.QueryRowContext(ctx, `
		INSERT INTO conversations (id, client_id, contact_id, channel, last_message_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (client_id, contact_id, channel) DO UPDATE SET
			last_message_at = excluded.last_message_at
		RETURNING id`,
		uuid.NewString(), clientID, contactID, channel.String(), now,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert conversation: %w", err)
	}
	return id, nil
}

// dedupKey is the provider message id when present. Providers that omit it
// (WAHA sometimes does) fall back to a content hash scoped to the delivery
// day, so a retried delivery collapses but a genuinely repeated text the
// next day does not.
func dedupKey(msg *message.InboundMessage, now time.Time) string {
	if msg.ExternalID != "" {
		return msg.ExternalID
	}
	h := xxhash.New()
	_, _ = h.WriteString(msg.Channel.String())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(msg.Sender.Key())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(msg.Content)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(now.Format("2006-01-02"))
	return "xxh:" + strconv.FormatUint(h.Sum64(), 16)
}

// ListConversations returns the most recently active conversations.
func (s *Store) ListConversations(ctx context.Context, limit int) ([]outbound.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.client_id, c.channel, ct.name, ct.contact_key, c.last_message_at
		FROM conversations c
		JOIN contacts ct ON ct.id = c.contact_id
		ORDER BY c.last_message_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []outbound.Conversation
	for rows.Next() {
		var conv outbound.Conversation
		var channel string
		if err := rows.Scan(&conv.ID, &conv.ClientID, &channel, &conv.ContactName, &conv.ContactKey, &conv.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conv.Channel = message.ChannelType(channel)
		out = append(out, conv)
	}
	return out, rows.Err()
}

// ListMessages returns a conversation's messages, oldest first.
func (s *Store) ListMessages(ctx context.Context, conversationID string, limit int) ([]outbound.StoredMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, external_id, content_type, content, media_url, received_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY received_at ASC
		LIMIT ?`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []outbound.StoredMessage
	for rows.Next() {
		var m outbound.StoredMessage
		var contentType string
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.ExternalID, &contentType, &m.Content, &m.MediaURL, &m.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ContentType = message.ContentType(contentType)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Ping verifies the database handle, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
