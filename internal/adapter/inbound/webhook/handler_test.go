package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/novix-hq/channelgate/internal/port/outbound"
	"github.com/novix-hq/channelgate/internal/service"
)

type recordingStore struct {
	mu    sync.Mutex
	saved []outbound.SaveMessageInput
}

func (r *recordingStore) SaveMessage(_ context.Context, in outbound.SaveMessageInput) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, in)
	return nil
}

func (r *recordingStore) ListConversations(context.Context, int) ([]outbound.Conversation, error) {
	return nil, nil
}

func (r *recordingStore) ListMessages(context.Context, string, int) ([]outbound.StoredMessage, error) {
	return nil, nil
}

func (r *recordingStore) Close() error { return nil }

func (r *recordingStore) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func testHandler(t *testing.T, opts ...HandlerOption) (*Handler, *recordingStore) {
	t.Helper()
	store := &recordingStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ingest := service.NewIngestService("client-1", store, logger)
	return NewHandler(ingest, "cloud-secret", "meta-secret", "PAGE123", opts...), store
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	h.Routes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestVerifyHandshake_EchoesChallenge(t *testing.T) {
	h, _ := testHandler(t)

	query := url.Values{
		"hub.mode":         {"subscribe"},
		"hub.verify_token": {"meta-secret"},
		"hub.challenge":    {"challenge-42"},
	}
	req := httptest.NewRequest(http.MethodGet, "/webhooks/meta?"+query.Encode(), nil)
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "challenge-42" {
		t.Errorf("body = %q, want the challenge echoed verbatim", body)
	}
}

func TestVerifyHandshake_RejectsBadToken(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
	}{
		{"wrong token", url.Values{"hub.mode": {"subscribe"}, "hub.verify_token": {"nope"}, "hub.challenge": {"c"}}},
		{"missing mode", url.Values{"hub.verify_token": {"meta-secret"}, "hub.challenge": {"c"}}},
		{"empty query", url.Values{}},
	}

	h, _ := testHandler(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhooks/meta?"+tt.query.Encode(), nil)
			rec := serve(h, req)
			if rec.Code != http.StatusForbidden {
				t.Errorf("status = %d, want 403", rec.Code)
			}
		})
	}
}

func TestWAHADelivery_AcksAndPersists(t *testing.T) {
	h, store := testHandler(t)

	payload := `{"event":"message","payload":{"from":"5581999998888@c.us","body":"Oi","notifyName":"Ana"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/waha", strings.NewReader(payload))
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var ack map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack["ok"] {
		t.Errorf("ack = %v, want {\"ok\":true}", ack)
	}
	if store.count() != 1 {
		t.Errorf("store received %d messages, want 1", store.count())
	}
}

func TestWAHADelivery_APIKeyEnforced(t *testing.T) {
	h, store := testHandler(t, WithWAHAAPIKey("waha-key"))

	payload := `{"event":"message","payload":{"from":"5581999998888@c.us","body":"Oi"}}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/waha", strings.NewReader(payload))
	rec := serve(h, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status without key = %d, want 403", rec.Code)
	}
	if store.count() != 0 {
		t.Errorf("store received %d messages from rejected delivery, want 0", store.count())
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/waha", strings.NewReader(payload))
	req.Header.Set("X-Api-Key", "waha-key")
	rec = serve(h, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}
	if store.count() != 1 {
		t.Errorf("store received %d messages, want 1", store.count())
	}
}

func TestDelivery_MalformedBodyStillAcks(t *testing.T) {
	h, store := testHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(`{broken`))
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even for malformed payloads", rec.Code)
	}
	if store.count() != 0 {
		t.Errorf("store received %d messages, want 0", store.count())
	}
}

func TestCloudDelivery_Persists(t *testing.T) {
	h, store := testHandler(t)

	payload := `{"object":"whatsapp_business_account","entry":[{"id":"W1","changes":[{"field":"messages","value":{"contacts":[{"wa_id":"558199","profile":{"name":"Ana"}}],"messages":[{"from":"558199","id":"wamid.1","type":"text","text":{"body":"Oi"}}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(payload))
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.count() != 1 {
		t.Fatalf("store received %d messages, want 1", store.count())
	}
	if got := store.saved[0].Message.SenderName; got != "Ana" {
		t.Errorf("persisted SenderName = %q, want %q", got, "Ana")
	}
}

func TestMetaDelivery_RoutesChannelByEntryID(t *testing.T) {
	h, store := testHandler(t)

	payload := `{"object":"instagram","entry":[{"id":"IG9","messaging":[{"sender":{"id":"U1"},"message":{"mid":"m.1","text":"oi"}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/meta", strings.NewReader(payload))
	rec := serve(h, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if store.count() != 1 {
		t.Fatalf("store received %d messages, want 1", store.count())
	}
	if got := store.saved[0].Message.Channel; got != "instagram" {
		t.Errorf("persisted Channel = %q, want instagram (entry id differs from page id)", got)
	}
}
