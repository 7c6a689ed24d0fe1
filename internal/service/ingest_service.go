// Package service contains the orchestration layer between inbound webhook
// adapters and the outbound collaborators (store, bot, event broker).
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/novix-hq/channelgate/internal/domain/message"
	"github.com/novix-hq/channelgate/internal/port/outbound"
)

// IngestMetrics counts ingest outcomes. Register once per process and share.
type IngestMetrics struct {
	MessagesNormalized *prometheus.CounterVec
	MalformedPayloads  *prometheus.CounterVec
	PersistFailures    prometheus.Counter
	BotDispatches      *prometheus.CounterVec
	EventsPublished    *prometheus.CounterVec
}

// NewIngestMetrics creates and registers the ingest metrics.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	return &IngestMetrics{
		MessagesNormalized: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "channelgate",
				Name:      "messages_normalized_total",
				Help:      "Canonical messages produced from webhook payloads",
			},
			[]string{"channel"},
		),
		MalformedPayloads: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "channelgate",
				Name:      "malformed_payloads_total",
				Help:      "Webhook payloads rejected as structurally invalid",
			},
			[]string{"provider"},
		),
		PersistFailures: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "channelgate",
				Name:      "persist_failures_total",
				Help:      "Message store upserts that returned an error",
			},
		),
		BotDispatches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "channelgate",
				Name:      "bot_dispatches_total",
				Help:      "Forwards to the conversation bot",
			},
			[]string{"status"}, // status=ok/error
		),
		EventsPublished: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "channelgate",
				Name:      "events_published_total",
				Help:      "Normalized-message events published to the broker",
			},
			[]string{"status"}, // status=ok/error
		),
	}
}

// IngestService runs the per-delivery pipeline: normalize, persist, publish,
// and (WhatsApp text only) forward to the bot. Collaborator failures are
// logged and swallowed per message so one bad entry never blocks the batch
// acknowledgement — a non-200 would make the provider redeliver everything.
type IngestService struct {
	clientID string
	store    outbound.MessageStore
	bot      outbound.BotDispatcher
	events   outbound.EventPublisher
	metrics  *IngestMetrics
	logger   *slog.Logger
	now      func() time.Time
}

// IngestOption is a functional option for configuring IngestService.
type IngestOption func(*IngestService)

// WithBotDispatcher enables forwarding of WhatsApp text messages to the bot.
func WithBotDispatcher(bot outbound.BotDispatcher) IngestOption {
	return func(s *IngestService) {
		s.bot = bot
	}
}

// WithEventPublisher enables publishing of normalized-message events.
func WithEventPublisher(events outbound.EventPublisher) IngestOption {
	return func(s *IngestService) {
		s.events = events
	}
}

// WithIngestMetrics attaches Prometheus counters.
func WithIngestMetrics(m *IngestMetrics) IngestOption {
	return func(s *IngestService) {
		s.metrics = m
	}
}

// NewIngestService creates an IngestService for one client workspace.
func NewIngestService(clientID string, store outbound.MessageStore, logger *slog.Logger, opts ...IngestOption) *IngestService {
	s := &IngestService{
		clientID: clientID,
		store:    store,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest normalizes one webhook body and runs the dispatch pipeline for each
// resulting message. The returned error is non-nil only for a malformed
// envelope; callers log it and acknowledge the delivery regardless.
func (s *IngestService) Ingest(ctx context.Context, normalizer message.Normalizer, body []byte) error {
	msgs, err := normalizer.Normalize(body)
	if err != nil {
		if s.metrics != nil {
			s.metrics.MalformedPayloads.WithLabelValues(normalizer.Provider()).Inc()
		}
		return err
	}

	for _, msg := range msgs {
		s.processOne(ctx, msg)
	}
	return nil
}

// processOne persists, publishes, and optionally bot-forwards one message.
// Every collaborator failure is contained here.
func (s *IngestService) processOne(ctx context.Context, msg *message.InboundMessage) {
	logger := s.logger.With(
		"channel", msg.Channel.String(),
		"external_id", msg.ExternalID,
	)

	if s.metrics != nil {
		s.metrics.MessagesNormalized.WithLabelValues(msg.Channel.String()).Inc()
	}

	if err := s.store.SaveMessage(ctx, outbound.SaveMessageInput{ClientID: s.clientID, Message: msg}); err != nil {
		if s.metrics != nil {
			s.metrics.PersistFailures.Inc()
		}
		logger.Error("message persistence failed", "error", err)
	}

	s.publishEvent(ctx, logger, msg)
	s.dispatchBot(ctx, logger, msg)
}

func (s *IngestService) publishEvent(ctx context.Context, logger *slog.Logger, msg *message.InboundMessage) {
	if s.events == nil {
		return
	}

	event := outbound.MessageEvent{
		EventID:     uuid.NewString(),
		ClientID:    s.clientID,
		Channel:     msg.Channel,
		ExternalID:  msg.ExternalID,
		SenderKey:   msg.Sender.Key(),
		SenderName:  msg.SenderName,
		ContentType: msg.ContentType,
		Content:     msg.Content,
		MediaURL:    msg.MediaURL,
		ReceivedAt:  s.now().UTC(),
	}
	routingKey := "channels." + msg.Channel.String() + ".message.received"

	if err := s.events.Publish(ctx, routingKey, event); err != nil {
		if s.metrics != nil {
			s.metrics.EventsPublished.WithLabelValues("error").Inc()
		}
		logger.Error("event publish failed", "routing_key", routingKey, "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues("ok").Inc()
	}
}

// dispatchBot forwards WhatsApp messages with non-empty trimmed text to the
// conversation bot. Other channels and empty/placeholder-free media never
// reach the bot.
func (s *IngestService) dispatchBot(ctx context.Context, logger *slog.Logger, msg *message.InboundMessage) {
	if s.bot == nil || msg.Channel != message.ChannelWhatsApp {
		return
	}
	if strings.TrimSpace(msg.Content) == "" {
		return
	}

	err := s.bot.Dispatch(ctx, outbound.BotMessage{
		Phone:       msg.Sender.Phone,
		Message:     msg.Content,
		ContactName: msg.SenderName,
		ChannelType: message.ChannelWhatsApp.String(),
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.BotDispatches.WithLabelValues("error").Inc()
		}
		logger.Error("bot dispatch failed", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.BotDispatches.WithLabelValues("ok").Inc()
	}
}
