package sqlite

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/novix-hq/channelgate/internal/domain/message"
	"github.com/novix-hq/channelgate/internal/port/outbound"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := Open(":memory:", logger)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func whatsappInput(externalID, phone, name, content string) outbound.SaveMessageInput {
	return outbound.SaveMessageInput{
		ClientID: "client-1",
		Message: &message.InboundMessage{
			Channel:     message.ChannelWhatsApp,
			ExternalID:  externalID,
			Sender:      message.PhoneIdentity(phone),
			SenderName:  name,
			ContentType: message.ContentText,
			Content:     content,
		},
	}
}

func TestStore_SaveMessageCreatesContactConversationMessage(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveMessage(ctx, whatsappInput("wamid.1", "81999998888", "Ana", "Oi")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	convs, err := store.ListConversations(ctx, 10)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 1 {
		t.Fatalf("ListConversations() returned %d, want 1", len(convs))
	}
	if convs[0].ContactName != "Ana" {
		t.Errorf("ContactName = %q, want %q", convs[0].ContactName, "Ana")
	}
	if convs[0].ContactKey != "81999998888" {
		t.Errorf("ContactKey = %q, want %q", convs[0].ContactKey, "81999998888")
	}
	if convs[0].Channel != message.ChannelWhatsApp {
		t.Errorf("Channel = %q, want %q", convs[0].Channel, message.ChannelWhatsApp)
	}

	msgs, err := store.ListMessages(ctx, convs[0].ID, 10)
	if err != nil {
		t.Fatalf("ListMessages() error = %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("ListMessages() returned %d, want 1", len(msgs))
	}
	if msgs[0].Content != "Oi" {
		t.Errorf("Content = %q, want %q", msgs[0].Content, "Oi")
	}
	if msgs[0].ExternalID != "wamid.1" {
		t.Errorf("ExternalID = %q, want %q", msgs[0].ExternalID, "wamid.1")
	}
}

func TestStore_DuplicateExternalIDIsIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	in := whatsappInput("wamid.dup", "81999998888", "Ana", "Oi")
	if err := store.SaveMessage(ctx, in); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if err := store.SaveMessage(ctx, in); err != nil {
		t.Fatalf("SaveMessage() second call error = %v", err)
	}

	convs, _ := store.ListConversations(ctx, 10)
	if len(convs) != 1 {
		t.Fatalf("ListConversations() returned %d, want 1", len(convs))
	}
	msgs, _ := store.ListMessages(ctx, convs[0].ID, 10)
	if len(msgs) != 1 {
		t.Errorf("ListMessages() returned %d after duplicate save, want 1", len(msgs))
	}
}

func TestStore_EmptyExternalIDFallsBackToContentHash(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// Same content, no provider id: second save collapses.
	if err := store.SaveMessage(ctx, whatsappInput("", "81999998888", "", "Oi")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if err := store.SaveMessage(ctx, whatsappInput("", "81999998888", "", "Oi")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	// Different content is a new row.
	if err := store.SaveMessage(ctx, whatsappInput("", "81999998888", "", "Tudo bem?")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	convs, _ := store.ListConversations(ctx, 10)
	msgs, _ := store.ListMessages(ctx, convs[0].ID, 10)
	if len(msgs) != 2 {
		t.Errorf("ListMessages() returned %d, want 2 (duplicate collapsed)", len(msgs))
	}
}

func TestStore_EmptyNameDoesNotOverwriteKnownName(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveMessage(ctx, whatsappInput("m1", "81999998888", "Ana", "Oi")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	if err := store.SaveMessage(ctx, whatsappInput("m2", "81999998888", "", "De novo")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	convs, _ := store.ListConversations(ctx, 10)
	if convs[0].ContactName != "Ana" {
		t.Errorf("ContactName = %q, want %q preserved", convs[0].ContactName, "Ana")
	}
}

func TestStore_SeparateChannelsSeparateConversations(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.SaveMessage(ctx, whatsappInput("m1", "81999998888", "Ana", "Oi")); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}
	igInput := outbound.SaveMessageInput{
		ClientID: "client-1",
		Message: &message.InboundMessage{
			Channel:     message.ChannelInstagram,
			ExternalID:  "m.ig1",
			Sender:      message.InstagramIdentity("IGUSER1"),
			ContentType: message.ContentText,
			Content:     "tem no tamanho M?",
		},
	}
	if err := store.SaveMessage(ctx, igInput); err != nil {
		t.Fatalf("SaveMessage() error = %v", err)
	}

	convs, err := store.ListConversations(ctx, 10)
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if len(convs) != 2 {
		t.Errorf("ListConversations() returned %d, want 2", len(convs))
	}
}

func TestStore_RejectsEmptySenderIdentity(t *testing.T) {
	store := testStore(t)

	err := store.SaveMessage(context.Background(), outbound.SaveMessageInput{
		ClientID: "client-1",
		Message:  &message.InboundMessage{Channel: message.ChannelWhatsApp, ContentType: message.ContentText},
	})
	if err == nil {
		t.Error("SaveMessage() expected error for empty sender identity")
	}
}
