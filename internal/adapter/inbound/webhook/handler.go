package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/novix-hq/channelgate/internal/domain/message"
	"github.com/novix-hq/channelgate/internal/service"
)

// maxPayloadSize bounds webhook bodies. Provider payloads are small; 1MB
// leaves generous headroom while preventing unbounded reads.
const maxPayloadSize = 1 << 20

// Handler exposes the webhook endpoints for all three provider dialects.
type Handler struct {
	ingest  *service.IngestService
	waha    message.Normalizer
	cloud   message.Normalizer
	meta    message.Normalizer
	metrics *Metrics

	wahaAPIKey       string // optional; empty disables the header check
	cloudVerifyToken string
	metaVerifyToken  string

	wahaEnabled  bool
	cloudEnabled bool
	metaEnabled  bool
}

// HandlerOption is a functional option for configuring Handler.
type HandlerOption func(*Handler)

// WithWAHAAPIKey enables X-Api-Key checking on the WAHA endpoint.
func WithWAHAAPIKey(key string) HandlerOption {
	return func(h *Handler) {
		h.wahaAPIKey = key
	}
}

// WithMetrics attaches transport metrics.
func WithMetrics(m *Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithEnabledChannels limits which provider endpoints Routes registers.
// All three are enabled by default.
func WithEnabledChannels(waha, cloud, meta bool) HandlerOption {
	return func(h *Handler) {
		h.wahaEnabled = waha
		h.cloudEnabled = cloud
		h.metaEnabled = meta
	}
}

// NewHandler creates the webhook handler. The verify tokens guard the Meta
// style GET handshakes of the Cloud API and Meta endpoints; pageID feeds the
// Meta normalizer's facebook/instagram disambiguation.
func NewHandler(ingest *service.IngestService, cloudVerifyToken, metaVerifyToken, pageID string, opts ...HandlerOption) *Handler {
	h := &Handler{
		ingest:           ingest,
		waha:             message.NewWAHANormalizer(),
		cloud:            message.NewCloudNormalizer(),
		meta:             message.NewMetaNormalizer(pageID),
		cloudVerifyToken: cloudVerifyToken,
		metaVerifyToken:  metaVerifyToken,
		wahaEnabled:      true,
		cloudEnabled:     true,
		metaEnabled:      true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the webhook endpoints for the enabled channels on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	if h.wahaEnabled {
		mux.HandleFunc("POST /webhooks/waha", h.handleWAHA)
	}
	if h.cloudEnabled {
		mux.HandleFunc("GET /webhooks/whatsapp", h.verifyHandler("whatsapp_cloud", h.cloudVerifyToken))
		mux.HandleFunc("POST /webhooks/whatsapp", h.deliveryHandler(h.cloud))
	}
	if h.metaEnabled {
		mux.HandleFunc("GET /webhooks/meta", h.verifyHandler("meta", h.metaVerifyToken))
		mux.HandleFunc("POST /webhooks/meta", h.deliveryHandler(h.meta))
	}
}

// handleWAHA checks the optional API key, then runs the shared delivery path.
func (h *Handler) handleWAHA(w http.ResponseWriter, r *http.Request) {
	if h.wahaAPIKey != "" {
		provided := r.Header.Get("X-Api-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.wahaAPIKey)) != 1 {
			if h.metrics != nil {
				h.metrics.Deliveries.WithLabelValues("waha", "rejected").Inc()
			}
			http.Error(w, "invalid api key", http.StatusForbidden)
			return
		}
	}
	h.deliveryHandler(h.waha)(w, r)
}

// deliveryHandler builds the POST handler for one provider dialect. The
// response is always 200 {"ok":true} once the body is read: a non-200 would
// make the provider redeliver the whole batch, turning one bad message into
// a retry storm. Processing errors are logged and counted instead.
func (h *Handler) deliveryHandler(normalizer message.Normalizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := LoggerFromContext(r.Context()).With("provider", normalizer.Provider())

		body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize))
		if err != nil {
			logger.Error("failed to read webhook body", "error", err)
			h.recordDelivery(normalizer.Provider(), "malformed", start)
			h.ack(w)
			return
		}

		if err := h.ingest.Ingest(r.Context(), normalizer, body); err != nil {
			logger.Warn("webhook payload not processed", "error", err)
			h.recordDelivery(normalizer.Provider(), "malformed", start)
			h.ack(w)
			return
		}

		h.recordDelivery(normalizer.Provider(), "ok", start)
		h.ack(w)
	}
}

// verifyHandler builds the Meta-style GET handshake for one endpoint: echo
// the challenge verbatim on token match, 403 otherwise.
func (h *Handler) verifyHandler(provider, verifyToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mode := r.URL.Query().Get("hub.mode")
		token := r.URL.Query().Get("hub.verify_token")
		challenge := r.URL.Query().Get("hub.challenge")

		if mode != "subscribe" || verifyToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) != 1 {
			if h.metrics != nil {
				h.metrics.VerifyAttempts.WithLabelValues(provider, "denied").Inc()
			}
			http.Error(w, "verification failed", http.StatusForbidden)
			return
		}

		if h.metrics != nil {
			h.metrics.VerifyAttempts.WithLabelValues(provider, "ok").Inc()
		}
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge))
	}
}

func (h *Handler) recordDelivery(provider, outcome string, start time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.Deliveries.WithLabelValues(provider, outcome).Inc()
	h.metrics.RequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// ack writes the unconditional success acknowledgement.
func (h *Handler) ack(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}
