package main

import (
	"context"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/forum-platform/internal/forumv1"
	"github.com/example/forum-platform/internal/platform/analytics"
	"github.com/example/forum-platform/internal/platform/auth"
	"github.com/example/forum-platform/internal/platform/config"
	"github.com/example/forum-platform/internal/platform/db"
	"github.com/example/forum-platform/internal/platform/httpserver"
	"github.com/example/forum-platform/internal/platform/logging"
	"github.com/example/forum-platform/internal/platform/natsconn"
	"github.com/example/forum-platform/internal/platform/run"
	"github.com/example/forum-platform/services/forum/internal/app"
	forumconfig "github.com/example/forum-platform/services/forum/internal/config"
	"github.com/example/forum-platform/services/forum/internal/events"
	"github.com/example/forum-platform/services/forum/internal/grpcapi"
	"github.com/example/forum-platform/services/forum/internal/handlers"
	"github.com/example/forum-platform/services/forum/internal/store"
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

	forumCfg, err := forumconfig.LoadForum()
	if err != nil {
		log.Error("load forum config", zap.Error(err))
		run.Exit(1)
	}

	st, closeStore := initStore(cfg, forumCfg, log)
	if closeStore != nil {
		defer closeStore()
	}
	if forumCfg.BootstrapAdminUsername != "" {
		// The account may not exist yet; Register promotes it then.
		if err := st.SetRole(context.Background(), forumCfg.BootstrapAdminUsername, store.RoleAdmin); err == nil {
			log.Info("bootstrap admin ensured", zap.String("username", forumCfg.BootstrapAdminUsername))
		}
	}

	nc, ap := initNATS(cfg, forumCfg, log)
	if nc != nil {
		defer nc.Close()
	}

	verifier := auth.JWTVerifier{Secret: forumCfg.JWTSecret}
	forum := app.New(app.Options{
		Store:          st,
		Tokens:         auth.Issuer{Secret: forumCfg.JWTSecret, TTL: forumCfg.AccessTokenTTL},
		Events:         events.New(nc, ap, logging.Component(log, "events")),
		BootstrapAdmin: forumCfg.BootstrapAdminUsername,
		Log:            logging.Component(log, "app"),
	})

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{ReadyFunc: func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return forum.Ready(ctx)
	}})
	handlers.Mount(r, forum, verifier)

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	lis, err := net.Listen("tcp", forumCfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	grpcSrv := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.UnaryAuth(verifier, logging.Component(log, "grpc"))))
	forumv1.RegisterForumServer(grpcSrv, &grpcapi.ForumService{Forum: forum})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		return run.Group(ctx,
			func(context.Context) error { return srv.Start(log) },
			func(ctx context.Context) error {
				runner.Graceful(ctx, srv.Shutdown)
				return nil
			},
			func(context.Context) error {
				log.Info("grpc server starting", zap.String("addr", forumCfg.GRPCAddr))
				return grpcSrv.Serve(lis)
			},
			func(ctx context.Context) error {
				<-ctx.Done()
				stopped := make(chan struct{})
				go func() {
					grpcSrv.GracefulStop()
					close(stopped)
				}()
				select {
				case <-stopped:
				case <-time.After(10 * time.Second):
					grpcSrv.Stop()
				}
				return nil
			},
		)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStore selects the Store backend. In production a working Postgres is
// required; elsewhere an empty or unreachable DATABASE_URL falls back to memory.
func initStore(cfg config.AppConfig, fc forumconfig.ForumConfig, log *zap.Logger) (store.Store, func()) {
	if fc.DatabaseURL == "" {
		if cfg.IsProduction() {
			log.Error("DATABASE_URL is required in production")
			run.Exit(1)
		}
		log.Warn("DATABASE_URL not set, using in-memory store (development only)")
		return store.NewInMemory(), nil
	}

	if fc.MigrateOnStart {
		if err := db.Migrate(fc.DatabaseURL, store.Migrations, store.MigrationsDir, log); err != nil {
			if cfg.IsProduction() {
				log.Error("migrate", zap.Error(err))
				run.Exit(1)
			}
			log.Warn("migrations failed, falling back to in-memory store", zap.Error(err))
			return store.NewInMemory(), nil
		}
	}

	pool, err := db.Open(context.Background(), fc.DatabaseURL)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory store", zap.Error(err))
		return store.NewInMemory(), nil
	}
	log.Info("forum store: postgres")
	return store.NewPostgres(pool), pool.Close
}

// initNATS connects for change broadcasts and analytics. Without NATS the
// forum still serves; clients only miss cross-process refreshes.
func initNATS(cfg config.AppConfig, fc forumconfig.ForumConfig, log *zap.Logger) (*nats.Conn, *analytics.Publisher) {
	nc, err := natsconn.Connect(natsconn.Options{URL: fc.NATSURL, Name: cfg.ServiceName})
	if err != nil {
		if cfg.IsProduction() {
			log.Error("nats connect", zap.Error(err))
			run.Exit(1)
		}
		log.Warn("nats unavailable, change events disabled", zap.Error(err))
		return nil, analytics.New(nil, log)
	}

	js, err := nc.JetStream()
	if err == nil {
		err = events.EnsureStream(js)
	}
	if err != nil {
		log.Warn("analytics stream unavailable", zap.Error(err))
		return nc, analytics.New(nil, log)
	}
	return nc, analytics.New(js, logging.Component(log, "analytics"))
}
