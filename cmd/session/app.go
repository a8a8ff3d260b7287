package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/jrsteele09/go-booklet-session/account"
	"github.com/jrsteele09/go-booklet-session/authclient"
	"github.com/jrsteele09/go-booklet-session/authmodel"
	"github.com/jrsteele09/go-booklet-session/credstore"
	"github.com/jrsteele09/go-booklet-session/credstore/redisstore"
	"github.com/jrsteele09/go-booklet-session/events"
	"github.com/jrsteele09/go-booklet-session/internal/config"
	autherrors "github.com/jrsteele09/go-booklet-session/internal/errors"
	"github.com/jrsteele09/go-booklet-session/metrics"
	"github.com/jrsteele09/go-booklet-session/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type app struct {
	manager   *session.Manager
	accounts  *account.Service
	publisher message.Publisher
	redis     *redis.Client
	registry  *prometheus.Registry
	metrics   *http.Server
	logger    zerolog.Logger
}

func newApp(c config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{
		registry: prometheus.NewRegistry(),
		logger:   logger,
	}
	wmLogger := watermill.NewStdLogger(false, false)

	var repo credstore.Repo
	switch c.GetStorage() {
	case config.RedisStorage:
		opts, err := redis.ParseURL(c.GetRedisURL())
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		a.redis = redis.NewClient(opts)
		repo = redisstore.New(a.redis, c.GetRedisKeyPrefix())
		a.publisher, err = redisstream.NewPublisher(redisstream.PublisherConfig{Client: a.redis}, wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis publisher: %w", err)
		}
	default:
		repo = credstore.NewInMemoryRepo(time.Now)
		a.publisher = gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
	}

	client := authclient.New(c.GetAuthServiceURL(),
		authclient.WithTimeout(c.GetRequestTimeout()),
		authclient.WithLogger(logger),
	)

	manager, err := session.NewManager(client,
		session.WithConfig(c),
		session.WithRepo(repo),
		session.WithLogger(logger),
		session.WithListener(events.NewPublisher(a.publisher, events.WithLogger(logger))),
		session.WithListener(metrics.NewCollector(a.registry)),
	)
	if err != nil {
		return nil, err
	}
	a.manager = manager
	a.accounts = account.NewService(client, manager, account.WithLogger(logger))
	return a, nil
}

// login signs in with the identity from the command line. Nothing happens without one.
func (a *app) login(ctx context.Context, f flags) error {
	switch {
	case f.identity == "":
		return nil
	case f.otp != "":
		_, err := a.accounts.LoginWithOTP(ctx, f.identity, f.otp)
		return err
	case f.password != "":
		_, err := a.accounts.LoginWithPassword(ctx, f.identity, f.password)
		if errors.Is(err, autherrors.ErrMFARequired) {
			if sendErr := a.accounts.SendOTP(ctx, f.identity, authmodel.PurposeMultiFactorLogin); sendErr != nil {
				return sendErr
			}
			return fmt.Errorf("a second factor is required; rerun with -login %s -otp <code>: %w", f.identity, err)
		}
		return err
	default:
		return fmt.Errorf("-login needs -password or -otp")
	}
}

func (a *app) sendLoginOTP(ctx context.Context, identity string) error {
	if identity == "" {
		return fmt.Errorf("-send-otp needs -login")
	}
	if err := a.accounts.SendOTP(ctx, identity, authmodel.PurposeLogin); err != nil {
		return err
	}
	a.logger.Info().Msg("Login code sent")
	return nil
}

func (a *app) startMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func(server *http.Server) {
		a.logger.Info().Str("addr", addr).Msg("Metrics listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}(a.metrics)
}

func (a *app) shutdown(logout bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if logout {
		a.manager.Logout(ctx)
	}
	if a.metrics != nil {
		if err := a.metrics.Shutdown(ctx); err != nil {
			return fmt.Errorf("metrics.Shutdown: %w", err)
		}
	}
	return nil
}

func (a *app) close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close event publisher")
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
