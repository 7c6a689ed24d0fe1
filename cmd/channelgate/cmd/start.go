package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/novix-hq/channelgate/internal/adapter/inbound/admin"
	"github.com/novix-hq/channelgate/internal/adapter/inbound/webhook"
	"github.com/novix-hq/channelgate/internal/adapter/outbound/bot"
	"github.com/novix-hq/channelgate/internal/adapter/outbound/events"
	"github.com/novix-hq/channelgate/internal/adapter/outbound/sqlite"
	"github.com/novix-hq/channelgate/internal/config"
	"github.com/novix-hq/channelgate/internal/domain/rbac"
	"github.com/novix-hq/channelgate/internal/service"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway server",
	Long: `Start the channel gateway server.

The server listens for webhook deliveries on the configured channels,
normalizes and persists every inbound message, and dispatches WhatsApp
text messages to the bot.

Examples:
  # Start with config file settings
  channelgate start

  # Start with a specific config file
  channelgate --config /path/to/config.yaml start`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Signal context for graceful shutdown.
	// stop() restores default signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("channelgate stopped")
	return nil
}

// run wires all components together and serves until the context is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	// Shared metrics registry with Go runtime collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Message store.
	store, err := sqlite.Open(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open message store: %w", err)
	}
	defer func() { _ = store.Close() }()
	logger.Info("message store opened", "path", cfg.Storage.Path)

	// Ingest service with optional collaborators.
	ingestOpts := []service.IngestOption{
		service.WithIngestMetrics(service.NewIngestMetrics(registry)),
	}

	botEnabled := cfg.Bot.URL != ""
	if botEnabled {
		timeout, err := time.ParseDuration(cfg.Bot.Timeout)
		if err != nil {
			timeout = 10 * time.Second
			logger.Warn("invalid bot timeout, using default",
				"value", cfg.Bot.Timeout, "default", "10s")
		}
		botClient := bot.NewHTTPClient(cfg.Bot.URL, bot.WithTimeout(timeout))
		ingestOpts = append(ingestOpts, service.WithBotDispatcher(botClient))
		logger.Info("bot dispatch enabled", "url", cfg.Bot.URL)
	}

	eventsEnabled := cfg.Events.URL != ""
	if eventsEnabled {
		publisher, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, logger)
		if err != nil {
			return fmt.Errorf("failed to connect event broker: %w", err)
		}
		defer func() { _ = publisher.Close() }()
		ingestOpts = append(ingestOpts, service.WithEventPublisher(publisher))
		logger.Info("event publishing enabled", "exchange", cfg.Events.Exchange)
	}

	ingest := service.NewIngestService(cfg.ClientID, store, logger, ingestOpts...)

	// Webhook handler for the enabled channels.
	handlerOpts := []webhook.HandlerOption{
		webhook.WithMetrics(webhook.NewMetrics(registry)),
		webhook.WithEnabledChannels(
			cfg.Channels.WAHA.Enabled,
			cfg.Channels.WhatsAppCloud.Enabled,
			cfg.Channels.Meta.Enabled,
		),
	}
	if cfg.Channels.WAHA.APIKey != "" {
		handlerOpts = append(handlerOpts, webhook.WithWAHAAPIKey(cfg.Channels.WAHA.APIKey))
	}
	handler := webhook.NewHandler(
		ingest,
		cfg.Channels.WhatsAppCloud.VerifyToken,
		cfg.Channels.Meta.VerifyToken,
		cfg.Channels.Meta.PageID,
		handlerOpts...,
	)

	// Transport with health, metrics, and the optional admin API.
	transportOpts := []webhook.Option{
		webhook.WithAddr(cfg.Server.HTTPAddr),
		webhook.WithLogger(logger),
		webhook.WithRegistry(registry),
		webhook.WithHealthChecker(webhook.NewHealthChecker(store, botEnabled, eventsEnabled, Version)),
	}
	if len(cfg.Admin.APIKeys) > 0 {
		adminHandler := admin.NewHandler(adminKeys(cfg), store, logger)
		transportOpts = append(transportOpts, webhook.WithAdminHandler(adminHandler.Handler()))
		logger.Info("admin API enabled", "keys", len(cfg.Admin.APIKeys))
	}

	transport := webhook.NewHTTPTransport(handler, transportOpts...)
	return transport.Start(ctx)
}

// adminKeys converts configured admin credentials to the adapter's key type.
func adminKeys(cfg *config.Config) []admin.APIKey {
	keys := make([]admin.APIKey, 0, len(cfg.Admin.APIKeys))
	for _, k := range cfg.Admin.APIKeys {
		keys = append(keys, admin.APIKey{
			Name: k.Name,
			Hash: k.KeyHash,
			Role: rbac.Role(k.Role),
		})
	}
	return keys
}

// parseLogLevel converts a config log level string to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
