package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/example/forum-platform/internal/platform/config"
)

type WebConfig struct {
	JWTSecret          []byte
	SigningSecret      string
	ForumHTTPURL       string
	ForumGRPCAddr      string
	PublicBaseURL      string
	RateLimitRPS       float64
	RateLimitBurst     int
	InteractionIdleTTL time.Duration
	SavedCacheTTL      time.Duration
	NATSURL            string
}

// UseGRPC reports whether the forum should be reached over gRPC.
func (c WebConfig) UseGRPC() bool { return c.ForumGRPCAddr != "" }

func LoadWeb() (WebConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return WebConfig{}, errors.New("JWT_SECRET is required")
	}
	cfg := WebConfig{
		JWTSecret:          []byte(secret),
		SigningSecret:      config.String("SIGNING_SECRET", secret),
		ForumHTTPURL:       strings.TrimRight(config.String("FORUM_HTTP_URL", ""), "/"),
		ForumGRPCAddr:      config.String("FORUM_GRPC_ADDR", ""),
		PublicBaseURL:      strings.TrimRight(config.String("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		RateLimitRPS:       config.Float("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     config.Int("RATE_LIMIT_BURST", 40),
		InteractionIdleTTL: config.Duration("INTERACTION_IDLE_TTL", 30*time.Minute),
		SavedCacheTTL:      config.Duration("SAVED_CACHE_TTL", time.Minute),
		NATSURL:            config.String("NATS_URL", ""),
	}
	if cfg.ForumHTTPURL == "" && cfg.ForumGRPCAddr == "" {
		return WebConfig{}, errors.New("FORUM_HTTP_URL or FORUM_GRPC_ADDR is required")
	}
	return cfg, nil
}
