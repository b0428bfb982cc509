package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/example/forum-platform/internal/platform/config"
)

type ForumConfig struct {
	JWTSecret              []byte
	AccessTokenTTL         time.Duration
	DatabaseURL            string
	MigrateOnStart         bool
	GRPCAddr               string
	NATSURL                string
	BootstrapAdminUsername string
}

func LoadForum() (ForumConfig, error) {
	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		return ForumConfig{}, errors.New("JWT_SECRET is required")
	}
	return ForumConfig{
		JWTSecret:              []byte(secret),
		AccessTokenTTL:         config.Duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		DatabaseURL:            config.String("DATABASE_URL", ""),
		MigrateOnStart:         config.Bool("MIGRATE_ON_START", true),
		GRPCAddr:               config.String("GRPC_ADDR", ":9090"),
		NATSURL:                config.String("NATS_URL", ""),
		BootstrapAdminUsername: config.String("BOOTSTRAP_ADMIN_USERNAME", ""),
	}, nil
}
