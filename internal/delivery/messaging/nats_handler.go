package messaging

import (
	"context"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/4DevsO/qtut-b4a/internal/delivery/rpc"
)

// NATSHandler answers request/reply messages on <prefix>.<method>. Queue
// subscriptions spread load across instances in the same group.
type NATSHandler struct {
	gate       *gate
	prefix     string
	queueGroup string
	subs       []*nats.Subscription
	logger     zerolog.Logger
}

func NewNATSHandler(d *rpc.Dispatcher, opts Options, prefix, queueGroup string, logger zerolog.Logger) *NATSHandler {
	return &NATSHandler{
		gate:       newGate(d, opts),
		prefix:     prefix,
		queueGroup: queueGroup,
		logger:     logger,
	}
}

// Subscribe registers the operation and health subjects on nc.
func (h *NATSHandler) Subscribe(nc *nats.Conn) error {
	sub, err := nc.QueueSubscribe(h.prefix+".*", h.queueGroup, h.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s.*: %w", h.prefix, err)
	}
	h.subs = append(h.subs, sub)

	health, err := nc.Subscribe(h.prefix+".health.check", func(msg *nats.Msg) {
		_ = msg.Respond([]byte(`{"status":"healthy"}`))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to health check: %w", err)
	}
	h.subs = append(h.subs, health)

	h.logger.Info().Str("subject", h.prefix+".*").Str("queue", h.queueGroup).Msg("NATS handler subscribed")
	return nil
}

// Drain stops delivery and lets in-flight messages finish.
func (h *NATSHandler) Drain() {
	for _, sub := range h.subs {
		if err := sub.Drain(); err != nil {
			h.logger.Warn().Err(err).Str("subject", sub.Subject).Msg("error draining subscription")
		}
	}
}

func (h *NATSHandler) handleMessage(msg *nats.Msg) {
	req := &rpc.Request{
		Method: h.method(msg.Subject),
		Params: msg.Data,
	}
	if msg.Header != nil {
		req.SessionToken = msg.Header.Get(SessionTokenHeader)
	}

	resp, _ := h.gate.handle(context.Background(), req)
	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(encodeEnvelope(resp)); err != nil {
		h.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("error responding")
	}
}

func (h *NATSHandler) method(subject string) string {
	return strings.TrimPrefix(subject, h.prefix+".")
}
