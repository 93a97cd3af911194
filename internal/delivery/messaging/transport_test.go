package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4DevsO/qtut-b4a/internal/delivery/rpc"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

type envelope struct {
	Status  string          `json:"status"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// newTestDispatcher registers an echo method that reports the session token
// it was called with. The entity methods are never reached here.
func newTestDispatcher() *rpc.Dispatcher {
	d := rpc.NewDispatcher(nil, nil, nil, zerolog.Nop())
	d.Register("whoami", func(_ context.Context, req *rpc.Request) (any, error) {
		return map[string]string{"sessionToken": req.SessionToken}, nil
	})
	d.Register("fail", func(_ context.Context, _ *rpc.Request) (any, error) {
		return nil, errs.NotFound("Product was not found for %s", "X")
	})
	d.Register("slow", func(ctx context.Context, _ *rpc.Request) (any, error) {
		<-ctx.Done()
		return nil, errs.Wrap(errs.CodeConnectionFailed, ctx.Err())
	})
	return d
}

func decodeEnvelope(t *testing.T, data []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env), string(data))
	return env
}

func TestHTTPFunctionRoutes(t *testing.T) {
	h := NewHTTPHandler(newTestDispatcher(), DefaultOptions(), nil, nil, zerolog.Nop())

	tests := []struct {
		name       string
		method     string
		body       string
		token      string
		wantStatus int
		wantCode   int
		wantMsg    string
	}{
		{name: "ping", method: "ping", wantStatus: http.StatusOK, wantCode: 200},
		{name: "session header", method: "whoami", token: "r:abc", wantStatus: http.StatusOK, wantCode: 200},
		{name: "not found", method: "fail", wantStatus: http.StatusNotFound, wantCode: 404, wantMsg: "Product was not found for X"},
		{name: "unknown", method: "nope", wantStatus: http.StatusBadRequest, wantCode: 141, wantMsg: `Invalid function: "nope"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/functions/"+tt.method, strings.NewReader(tt.body))
			if tt.token != "" {
				req.Header.Set(SessionTokenHeader, tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
			env := decodeEnvelope(t, rec.Body.Bytes())
			assert.Equal(t, tt.wantCode, env.Code)
			assert.Equal(t, tt.wantMsg, env.Message)
			if tt.token != "" {
				assert.JSONEq(t, `{"sessionToken":"`+tt.token+`"}`, string(env.Data))
			}
		})
	}
}

func TestHTTPHandlerTimeout(t *testing.T) {
	opts := DefaultOptions()
	opts.HandlerTimeout = 20 * time.Millisecond
	h := NewHTTPHandler(newTestDispatcher(), opts, nil, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/functions/slow", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errs.CodeConnectionFailed, decodeEnvelope(t, rec.Body.Bytes()).Code)
}

func TestHTTPRateLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.RateLimit = 0.001
	opts.RateBurst = 1
	h := NewHTTPHandler(newTestDispatcher(), opts, nil, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/functions/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/functions/ping", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, errs.CodeRequestLimit, decodeEnvelope(t, rec.Body.Bytes()).Code)
}

func TestHTTPHealthAndMetrics(t *testing.T) {
	checks := map[string]HealthCheck{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}
	h := NewHTTPHandler(newTestDispatcher(), DefaultOptions(), checks, nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var health struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "unhealthy", health.Status)
	assert.Equal(t, map[string]string{"db": "ok", "redis": "connection refused"}, health.Checks)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/functions/ping", nil))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var metrics map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.EqualValues(t, 1, metrics["totalRequests"])
}

func TestTCPHandlerAnswersFrames(t *testing.T) {
	h := NewTCPHandler(newTestDispatcher(), DefaultOptions(), zerolog.Nop())
	require.NoError(t, h.Start("127.0.0.1:0"))
	t.Cleanup(func() { _ = h.Stop() })

	conn, err := net.Dial("tcp", h.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	pingID, failID := uuid.New(), uuid.New()
	ping, err := EncodeRequest(pingID, "ping", nil)
	require.NoError(t, err)
	fail, err := EncodeRequest(failID, "fail", []byte(`{}`))
	require.NoError(t, err)

	// Both frames in a single write.
	_, err = conn.Write(append(ping, fail...))
	require.NoError(t, err)

	got := map[uuid.UUID]envelope{}
	for i := 0; i < 2; i++ {
		id, content := readResponse(t, conn)
		got[id] = decodeEnvelope(t, content)
	}

	assert.Equal(t, "success", got[pingID].Status)
	assert.Equal(t, 404, got[failID].Code)
	assert.Equal(t, "Product was not found for X", got[failID].Message)
}

func TestTCPHandlerRejectsBadMagic(t *testing.T) {
	h := NewTCPHandler(newTestDispatcher(), DefaultOptions(), zerolog.Nop())
	require.NoError(t, h.Start("127.0.0.1:0"))
	t.Cleanup(func() { _ = h.Stop() })

	conn, err := net.Dial("tcp", h.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(bytes.Repeat([]byte{'x'}, requestPrefixSize+8))
	require.NoError(t, err)

	_, content := readResponse(t, conn)
	assert.Equal(t, errs.CodeInvalidJSON, decodeEnvelope(t, content).Code)
}

func readResponse(t *testing.T, conn net.Conn) (uuid.UUID, []byte) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	header := make([]byte, responseHeaderSize)
	_, err := io.ReadFull(conn, header)
	require.NoError(t, err)

	contentLen := int(header[responseHeaderSize-4]) |
		int(header[responseHeaderSize-3])<<8 |
		int(header[responseHeaderSize-2])<<16 |
		int(header[responseHeaderSize-1])<<24
	content := make([]byte, contentLen)
	_, err = io.ReadFull(conn, content)
	require.NoError(t, err)

	id, body, err := DecodeResponse(append(header, content...))
	require.NoError(t, err)
	return id, body
}

func TestWebSocketCarriesFrames(t *testing.T) {
	d := newTestDispatcher()
	ws := NewWSHandler(d, DefaultOptions(), zerolog.Nop())
	t.Cleanup(ws.Close)
	srv := httptest.NewServer(NewHTTPHandler(d, DefaultOptions(), nil, ws, zerolog.Nop()))
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set(SessionTokenHeader, "r:ws")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()

	id := uuid.New()
	frame, err := EncodeRequest(id, "whoami", nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, frame))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)

	gotID, content, err := DecodeResponse(data)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	env := decodeEnvelope(t, content)
	assert.Equal(t, "success", env.Status)
	assert.JSONEq(t, `{"sessionToken":"r:ws"}`, string(env.Data))
}

func TestNATSMethodFromSubject(t *testing.T) {
	h := NewNATSHandler(newTestDispatcher(), DefaultOptions(), "gateway", "gateway-workers", zerolog.Nop())

	assert.Equal(t, "saleGetByLocationRadius", h.method("gateway.saleGetByLocationRadius"))
	assert.Equal(t, "ping", h.method("gateway.ping"))
}

func TestNATSHandleMessageWithoutReply(t *testing.T) {
	d := newTestDispatcher()
	h := NewNATSHandler(d, DefaultOptions(), "gateway", "gateway-workers", zerolog.Nop())

	msg := nats.NewMsg("gateway.whoami")
	msg.Header.Set(SessionTokenHeader, "r:nats")
	h.handleMessage(msg)

	assert.EqualValues(t, 1, d.Metrics().Snapshot()["successfulRequests"])
}
