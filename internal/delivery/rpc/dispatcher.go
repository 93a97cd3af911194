// Package rpc routes named gateway operations to the application services.
// Every transport decodes its own framing and hands the method name and the
// JSON parameters to a Dispatcher.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/4DevsO/qtut-b4a/internal/application/interfaces"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

// Request is one operation call.
type Request struct {
	Method string
	Params json.RawMessage
	// SessionToken comes from transport metadata; params may carry one too.
	SessionToken string
}

// Response is the envelope every transport writes back.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func Success(data any) Response {
	return Response{Status: "success", Code: http.StatusOK, Data: data}
}

func Failure(err error) Response {
	e := errs.From(err)
	return Response{Status: "error", Code: e.Code, Message: e.Message}
}

type HandlerFunc func(ctx context.Context, req *Request) (any, error)

type Dispatcher struct {
	methods map[string]HandlerFunc
	metrics *Metrics
	logger  zerolog.Logger
}

func NewDispatcher(
	users interfaces.UserService,
	products interfaces.ProductService,
	sales interfaces.SaleService,
	logger zerolog.Logger,
) *Dispatcher {
	d := &Dispatcher{
		methods: make(map[string]HandlerFunc),
		metrics: NewMetrics(),
		logger:  logger,
	}
	d.Register("ping", handlePing)
	registerUserMethods(d, users)
	registerProductMethods(d, products)
	registerSaleMethods(d, sales)
	return d
}

func (d *Dispatcher) Register(method string, h HandlerFunc) {
	d.methods[method] = h
}

// Methods lists the registered method names in order.
func (d *Dispatcher) Methods() []string {
	names := make([]string, 0, len(d.methods))
	for name := range d.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Dispatch runs the handler registered for req.Method.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) (any, error) {
	h, ok := d.methods[req.Method]
	if !ok {
		return nil, errs.Newf(errs.CodeInvalidFunction, "Invalid function: %q", req.Method)
	}
	return h(ctx, req)
}

// Handle dispatches req and wraps the outcome in the response envelope,
// along with the HTTP status that matches it.
func (d *Dispatcher) Handle(ctx context.Context, req *Request) (Response, int) {
	start := time.Now()
	d.metrics.begin()

	data, err := d.Dispatch(ctx, req)
	latency := time.Since(start)
	d.metrics.end(err == nil, latency)

	if err != nil {
		e := errs.From(err)
		status := e.HTTPStatus()
		ev := d.logger.Warn()
		if status >= http.StatusInternalServerError {
			ev = d.logger.Error().Err(err)
		}
		ev.Str("method", req.Method).Int("code", e.Code).Dur("latency", latency).Msg(e.Message)
		return Failure(e), status
	}

	d.logger.Debug().Str("method", req.Method).Dur("latency", latency).Msg("handled")
	return Success(data), http.StatusOK
}

// decode unmarshals the request parameters into v. Missing parameters
// decode as an empty object.
func decode(params json.RawMessage, v any) error {
	params = bytes.TrimSpace(params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		params = []byte("{}")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return errs.Wrap(errs.CodeInvalidJSON, err)
	}
	return nil
}

// sessionToken prefers the transport token and falls back to params.
func sessionToken(req *Request) string {
	if req.SessionToken != "" {
		return req.SessionToken
	}
	var p struct {
		SessionToken string `json:"sessionToken"`
	}
	if decode(req.Params, &p) != nil {
		return ""
	}
	return p.SessionToken
}

func handlePing(_ context.Context, _ *Request) (any, error) {
	return struct {
		Pong int64 `json:"pong"`
	}{
		Pong: time.Now().UnixMilli(),
	}, nil
}
