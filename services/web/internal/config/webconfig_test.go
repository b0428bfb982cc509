package config

import (
	"testing"
	"time"
)

func TestLoadWeb_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("FORUM_HTTP_URL", "http://forum:8080")
	if _, err := LoadWeb(); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}

func TestLoadWeb_RequiresForum(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("FORUM_HTTP_URL", "")
	t.Setenv("FORUM_GRPC_ADDR", "")
	if _, err := LoadWeb(); err == nil {
		t.Fatal("expected error without a forum address")
	}
}

func TestLoadWeb_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("FORUM_HTTP_URL", "http://forum:8080/")
	t.Setenv("FORUM_GRPC_ADDR", "")
	t.Setenv("SIGNING_SECRET", "")
	t.Setenv("INTERACTION_IDLE_TTL", "")

	cfg, err := LoadWeb()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ForumHTTPURL != "http://forum:8080" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.ForumHTTPURL)
	}
	if cfg.SigningSecret != "s" {
		t.Fatalf("signing secret should default to JWT secret, got %q", cfg.SigningSecret)
	}
	if cfg.InteractionIdleTTL != 30*time.Minute {
		t.Fatalf("unexpected idle ttl %s", cfg.InteractionIdleTTL)
	}
	if cfg.UseGRPC() {
		t.Fatal("expected HTTP transport")
	}
}

func TestLoadWeb_GRPCWins(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("FORUM_HTTP_URL", "http://forum:8080")
	t.Setenv("FORUM_GRPC_ADDR", "forum:9090")
	cfg, err := LoadWeb()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.UseGRPC() {
		t.Fatal("expected gRPC transport")
	}
}
