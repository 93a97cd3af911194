package messaging

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/4DevsO/qtut-b4a/internal/delivery/rpc"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

const (
	SessionTokenHeader = "X-Parse-Session-Token"
	RequestIDHeader    = "X-Request-ID"
	requestIDKey       = "request_id"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// HTTPHandler serves gateway operations as JSON over HTTP.
type HTTPHandler struct {
	gate   *gate
	echo   *echo.Echo
	checks map[string]HealthCheck
	logger zerolog.Logger
}

// NewHTTPHandler builds the router. ws may be nil to disable the WebSocket
// endpoint.
func NewHTTPHandler(d *rpc.Dispatcher, opts Options, checks map[string]HealthCheck, ws *WSHandler, logger zerolog.Logger) *HTTPHandler {
	h := &HTTPHandler{
		gate:   newGate(d, opts),
		echo:   echo.New(),
		checks: checks,
		logger: logger,
	}

	e := h.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestIDMiddleware())
	e.Use(h.requestLogger())

	e.POST("/functions/:method", h.handleFunction)
	e.GET("/health", h.handleHealth)
	e.GET("/metrics", h.handleMetrics)
	if ws != nil {
		e.GET("/ws", echo.WrapHandler(ws))
	}
	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.echo.ServeHTTP(w, r)
}

func (h *HTTPHandler) Start(address string) error {
	h.logger.Info().Str("address", address).Msg("HTTP server listening")
	if err := h.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *HTTPHandler) Shutdown(ctx context.Context) error {
	return h.echo.Shutdown(ctx)
}

func (h *HTTPHandler) handleFunction(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		e := errs.Wrap(errs.CodeInvalidJSON, err)
		return c.JSON(e.HTTPStatus(), rpc.Failure(e))
	}

	resp, status := h.gate.handle(c.Request().Context(), &rpc.Request{
		Method:       c.Param("method"),
		Params:       body,
		SessionToken: c.Request().Header.Get(SessionTokenHeader),
	})
	return c.JSON(status, resp)
}

func (h *HTTPHandler) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	return c.JSON(status, map[string]any{
		"status":    state,
		"timestamp": time.Now().UTC(),
		"checks":    results,
	})
}

func (h *HTTPHandler) handleMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.gate.dispatcher.Metrics().Snapshot())
}

func requestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(requestIDKey, id)
			c.Response().Header().Set(RequestIDHeader, id)
			return next(c)
		}
	}
}

// requestLogger writes one log line per request, leveled by status.
func (h *HTTPHandler) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogMethod:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			statusCode := v.Status
			var echoErr *echo.HTTPError
			if v.Error != nil && errors.As(v.Error, &echoErr) {
				statusCode = echoErr.Code
			}

			var e *zerolog.Event
			switch {
			case statusCode >= 500:
				e = h.logger.Error().Err(v.Error)
			case statusCode >= 400:
				e = h.logger.Warn()
			default:
				e = h.logger.Info()
			}

			if id, ok := c.Get(requestIDKey).(string); ok {
				e = e.Str("request_id", id)
			}
			e.Dur("latency", v.Latency).
				Int("status", statusCode).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("ip", c.RealIP()).
				Msg("API")
			return nil
		},
	})
}
