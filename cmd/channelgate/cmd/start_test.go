package cmd

import (
	"log/slog"
	"testing"

	"github.com/novix-hq/channelgate/internal/config"
	"github.com/novix-hq/channelgate/internal/domain/rbac"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAdminKeys(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Admin: config.AdminConfig{
			APIKeys: []config.AdminKeyConfig{
				{Name: "ops", KeyHash: "sha256:abc", Role: "shop_admin"},
				{Name: "audit", KeyHash: "$argon2id$x", Role: "auditor"},
			},
		},
	}

	keys := adminKeys(cfg)
	if len(keys) != 2 {
		t.Fatalf("len(keys) = %d, want 2", len(keys))
	}
	if keys[0].Role != rbac.RoleShopAdmin {
		t.Errorf("keys[0].Role = %q, want shop_admin", keys[0].Role)
	}
	if keys[1].Name != "audit" || keys[1].Hash != "$argon2id$x" {
		t.Errorf("unexpected key: %+v", keys[1])
	}
}
