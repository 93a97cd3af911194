package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/4DevsO/qtut-b4a/internal/application/services"
	"github.com/4DevsO/qtut-b4a/internal/config"
	"github.com/4DevsO/qtut-b4a/internal/delivery/messaging"
	"github.com/4DevsO/qtut-b4a/internal/delivery/rpc"
	"github.com/4DevsO/qtut-b4a/internal/infrastructure"
	natsconn "github.com/4DevsO/qtut-b4a/internal/messaging"
)

func serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeWithTimeout(st.close, log, "database")

	redisClient, err := infrastructure.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	redisService := infrastructure.NewRedisService(redisClient)
	defer func() {
		if err := redisService.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()

	mailer, err := infrastructure.NewMailer(cfg.Mail.Provider, cfg.Mail.APIKey, cfg.Mail.Sender, log)
	if err != nil {
		return err
	}

	resetLimiter := infrastructure.NewRateLimiter(cfg.Auth.ResetRateWindow, cfg.Auth.ResetRateLimit)
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	go resetLimiter.Run(limiterCtx)

	dispatcher := rpc.NewDispatcher(
		services.NewUserService(st.users, redisService,
			infrastructure.NewJWTService(cfg.Auth.SecretKey, cfg.Auth.SessionTTL),
			mailer, resetLimiter, cfg.Auth.ResetTokenTTL, log),
		services.NewProductService(st.products, st.users),
		services.NewSaleService(st.sales, st.products, st.users),
		log,
	)

	opts := messaging.Options{
		HandlerTimeout:        cfg.Server.HandlerTimeout,
		RateLimit:             cfg.Server.RateLimit,
		RateBurst:             cfg.Server.RateBurst,
		MaxConcurrentRequests: cfg.Server.MaxConcurrentRequests,
	}
	checks := map[string]messaging.HealthCheck{
		"database": st.ping,
		"redis":    redisService.Ping,
	}

	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = natsconn.Connect(natsconn.DefaultConfig(cfg.NATS.URL), log)
		if err != nil {
			return err
		}
		defer natsconn.Close(nc, log)

		natsHandler := messaging.NewNATSHandler(dispatcher, opts, cfg.NATS.SubjectPrefix, cfg.NATS.QueueGroup, log)
		if err := natsHandler.Subscribe(nc); err != nil {
			return err
		}
		defer natsHandler.Drain()

		checks["nats"] = func(context.Context) error {
			if !nc.IsConnected() {
				return errors.New(nc.Status().String())
			}
			return nil
		}
	}

	if cfg.Server.TCPAddr != "" {
		tcpHandler := messaging.NewTCPHandler(dispatcher, opts, log)
		if err := tcpHandler.Start(cfg.Server.TCPAddr); err != nil {
			return err
		}
		defer func() {
			if err := tcpHandler.Stop(); err != nil {
				log.Warn().Err(err).Msg("error stopping TCP server")
			}
		}()
	}

	wsHandler := messaging.NewWSHandler(dispatcher, opts, log)
	defer wsHandler.Close()
	httpHandler := messaging.NewHTTPHandler(dispatcher, opts, checks, wsHandler, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpHandler.Start(cfg.Server.HTTPAddr)
	}()

	log.Info().
		Str("env", cfg.Primary.Env).
		Str("driver", cfg.Database.Driver).
		Strs("methods", dispatcher.Methods()).
		Msg("gateway started")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpHandler.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer closeWithTimeout(st.close, log, "database")

	if err := st.migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", cfg.Database.Driver, err)
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("migration complete")
	return nil
}

func closeWithTimeout(closeFn func(context.Context) error, log zerolog.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		log.Warn().Err(err).Str("resource", name).Msg("error closing")
	}
}
