package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"garagedesk/internal/api"
	"garagedesk/internal/audit"
	"garagedesk/internal/config"
	"garagedesk/internal/domain"
	"garagedesk/internal/events"
	"garagedesk/internal/logging"
	"garagedesk/internal/metrics"
	"garagedesk/internal/ops"
	"garagedesk/internal/service"
	"garagedesk/internal/session"
	"garagedesk/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	store, redisClient := initSessionStore(ctx, cfg, logger)

	client := api.NewClient(cfg.API, store, logging.Component(logger, "api"))
	if redisClient != nil && cfg.API.CacheTTL > 0 {
		client.UseRedisCache(redisClient, time.Duration(cfg.API.CacheTTL)*time.Second)
	}

	bus := events.NewBus()
	store.OnExpire(func() {
		_ = bus.PublishJSON(events.EventSessionExpired, nil)
	})

	if cfg.Audit.Enabled {
		trail, err := audit.NewTrail(cfg.Audit.Path, logging.Component(logger, "audit"))
		if err != nil {
			return err
		}
		defer trail.Close()
		trail.SubscribeTo(bus)
	}

	desk := service.NewBookingDesk(client, bus, logging.Component(logger, "desk"))

	if err := login(ctx, client, store, logger); err != nil {
		return err
	}

	if err := desk.LoadAll(ctx); err != nil {
		// A cold start with the backend down is still a running desk; the
		// refresher keeps retrying.
		logger.Error().Err(err).Msg("initial load incomplete")
	}

	if cfg.Refresh.Enabled {
		refresher := worker.NewRefresher(desk, cfg.Refresh.Interval(), worker.BackoffPolicy{
			InitialDelay:  2 * time.Second,
			MaxDelay:      time.Minute,
			BackoffFactor: 2,
		}, logging.Component(logger, "refresh"))
		refresher.SubscribeTo(bus)
		go refresher.Run(ctx)
	}

	var opsServer *ops.Server
	if cfg.Monitoring.Enabled {
		opsServer = ops.NewServer(cfg.Monitoring.Port, desk, store, logging.Component(logger, "ops"))
		go func() {
			if err := opsServer.Start(); err != nil {
				logger.Error().Err(err).Msg("ops server error")
			}
		}()
	}

	logger.Info().Str("workshop", cfg.Workshop.Name).Msg("desk started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = opsServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("desk stopped")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, closer, nil
}

// initSessionStore prefers redis (the token survives restarts) with an
// in-memory fallback when redis is unreachable.
func initSessionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (domain.SessionStore, *redis.Client) {
	memory := session.NewMemoryStore()
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, session kept in memory")
		return memory, nil
	}

	redisClient := session.NewRedisClient(cfg.Redis)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := session.Ping(pingCtx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis unreachable, session kept in memory")
		return memory, nil
	}

	primary := session.NewRedisStore(redisClient, cfg.Session.TTL())
	return session.NewFailoverStore(primary, memory, logging.Component(logger, "session")), redisClient
}

// login reuses a stored session token when one survives in redis; otherwise
// it signs in with the credentials from the environment.
func login(ctx context.Context, client *api.Client, store domain.SessionStore, logger *zerolog.Logger) error {
	if token, err := store.Token(ctx); err == nil && token != "" {
		logger.Info().Msg("reusing stored session token")
		return nil
	}

	email := os.Getenv("MECHANIC_EMAIL")
	password := os.Getenv("MECHANIC_PASSWORD")
	if email == "" || password == "" {
		return errors.New("MECHANIC_EMAIL and MECHANIC_PASSWORD are required when no session is stored")
	}

	result, err := client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	logger.Info().Str("workshop", result.WorkshopName).Msg("signed in")
	return nil
}
