// Package messaging owns the NATS connection the gateway subscribes with.
package messaging

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

type Config struct {
	URL               string
	Name              string
	ConnectionTimeout time.Duration
	ReconnectWait     time.Duration
	MaxReconnects     int
	DrainTimeout      time.Duration
}

func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		Name:              "qtut-gateway",
		ConnectionTimeout: 5 * time.Second,
		ReconnectWait:     time.Second,
		MaxReconnects:     10,
		DrainTimeout:      10 * time.Second,
	}
}

// Connect dials NATS with reconnect handling and connection-state logging.
func Connect(cfg Config, logger zerolog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.Timeout(cfg.ConnectionTimeout),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.DrainTimeout(cfg.DrainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			ev := logger.Error().Err(err)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}
			ev.Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.URL, err)
	}
	logger.Info().Str("url", nc.ConnectedUrl()).Msg("connected to NATS")
	return nc, nil
}

// Close drains nc so pending replies are flushed before the connection ends.
func Close(nc *nats.Conn, logger zerolog.Logger) {
	if nc == nil || nc.IsClosed() {
		return
	}
	if err := nc.Drain(); err != nil {
		logger.Warn().Err(err).Msg("error draining NATS connection")
		nc.Close()
		return
	}
	logger.Info().Msg("NATS connection closed")
}
