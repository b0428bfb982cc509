package main

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/internal/platform/config"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/internal/platform/logging"
	"github.com/example/forum-platform/internal/platform/natsconn"
	"github.com/example/forum-platform/internal/platform/run"
	"github.com/example/forum-platform/internal/platform/signing"
	webconfig "github.com/example/forum-platform/services/web/internal/config"
	"github.com/example/forum-platform/services/web/internal/handlers"
	webhttp "github.com/example/forum-platform/services/web/internal/http"
	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/metrics"
	"github.com/example/forum-platform/services/web/internal/refresh"
	"github.com/example/forum-platform/services/web/internal/remote"
	"github.com/example/forum-platform/services/web/internal/view"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	webCfg, err := webconfig.LoadWeb()
	if err != nil {
		log.Error("load web config", zap.Error(err))
		run.Exit(1)
	}

	var forum remote.Client
	if webCfg.UseGRPC() {
		gc, err := remote.NewGRPCClient(webCfg.ForumGRPCAddr)
		if err != nil {
			log.Error("init forum grpc client", zap.Error(err))
			run.Exit(1)
		}
		defer gc.Close()
		forum = gc
		log.Info("forum client", zap.String("transport", "grpc"), zap.String("addr", webCfg.ForumGRPCAddr))
	} else {
		forum = remote.NewHTTPClient(webCfg.ForumHTTPURL, nil)
		log.Info("forum client", zap.String("transport", "http"), zap.String("url", webCfg.ForumHTTPURL))
	}

	var nc *nats.Conn
	if webCfg.NATSURL != "" {
		nc, err = natsconn.Connect(natsconn.Options{URL: webCfg.NATSURL, Name: cfg.ServiceName})
		if err != nil {
			if cfg.IsProduction() {
				log.Error("nats connect", zap.Error(err))
				run.Exit(1)
			}
			log.Warn("nats unavailable, refresh stays local", zap.Error(err))
			nc = nil
		} else {
			defer nc.Close()
		}
	}

	bus := refresh.NewBus()
	defer bus.Close()
	bridge := refresh.NewBridge(bus, nc, logging.Component(log, "refresh"))
	if err := bridge.Start(); err != nil {
		log.Error("start refresh bridge", zap.Error(err))
		run.Exit(1)
	}
	defer bridge.Stop()

	m := metrics.New()
	engine := interaction.NewEngine(forum, bridge, logging.Component(log, "interaction"), interaction.WithObserver(m))
	pages := view.NewAssembler(forum, engine, m, logging.Component(log, "view"))
	saved := view.NewSavedList(forum, webCfg.SavedCacheTTL, logging.Component(log, "saved"))
	limiter := webhttp.NewRateLimiter(webCfg.RateLimitRPS, webCfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		if nc != nil && !nc.IsConnected() {
			return errors.New("nats disconnected")
		}
		return nil
	}})
	handlers.Mount(r, handlers.Deps{
		Verifier:      auth.JWTVerifier{Secret: webCfg.JWTSecret},
		Forum:         forum,
		Interactions:  engine,
		Pages:         pages,
		Saved:         saved,
		Bus:           bus,
		Notifier:      bridge,
		Signer:        signing.New(webCfg.SigningSecret),
		PublicBaseURL: webCfg.PublicBaseURL,
		RateLimit:     limiter.Middleware,
		Metrics:       m.Handler(),
		Log:           log,
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		return run.Group(ctx,
			func(context.Context) error { return srv.Start(log) },
			func(ctx context.Context) error {
				runner.Graceful(ctx, srv.Shutdown)
				return nil
			},
			func(ctx context.Context) error {
				return engine.RunSweeper(ctx, time.Minute, webCfg.InteractionIdleTTL)
			},
			func(ctx context.Context) error { return saved.Follow(ctx, bus.Watch) },
			func(ctx context.Context) error { return m.CountRefreshes(ctx, bus.Watch) },
			func(ctx context.Context) error {
				t := time.NewTicker(5 * time.Minute)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-t.C:
						limiter.Sweep(10 * time.Minute)
					}
				}
			},
		)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
