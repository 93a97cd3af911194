package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/4DevsO/qtut-b4a/internal/delivery/rpc"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

// WSHandler carries binary request frames over WebSocket connections.
type WSHandler struct {
	gate     *gate
	upgrader *websocket.Upgrader
	conns    map[*wsConn]struct{}
	connsMu  sync.RWMutex
	logger   zerolog.Logger
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	*websocket.Conn
	writeMu      sync.Mutex
	sessionToken string
}

func NewWSHandler(d *rpc.Dispatcher, opts Options, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		gate: newGate(d, opts),
		upgrader: &websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		conns:  make(map[*wsConn]struct{}),
		logger: logger,
	}
}

// ServeHTTP upgrades the request. A session token sent on the upgrade
// request applies to every frame on the connection.
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("error upgrading connection")
		return
	}

	c := &wsConn{Conn: conn, sessionToken: r.Header.Get(SessionTokenHeader)}
	h.connsMu.Lock()
	h.conns[c] = struct{}{}
	h.connsMu.Unlock()

	go h.handleConnection(c)
}

func (h *WSHandler) handleConnection(conn *wsConn) {
	defer func() {
		h.connsMu.Lock()
		delete(h.conns, conn)
		h.connsMu.Unlock()
		conn.Close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Msg("error reading WebSocket message")
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			h.logger.Debug().Msg("received non-binary message, ignoring")
			continue
		}

		go h.processFrame(conn, data)
	}
}

func (h *WSHandler) processFrame(conn *wsConn, data []byte) {
	frame, err := DecodeFrame(data)
	if err != nil {
		h.send(conn, EncodeResponse(requestID(data), encodeEnvelope(rpc.Failure(errs.Wrap(errs.CodeInvalidJSON, err)))))
		return
	}

	resp, _ := h.gate.handle(context.Background(), &rpc.Request{
		Method:       frame.Method,
		Params:       frame.Content,
		SessionToken: conn.sessionToken,
	})
	h.send(conn, EncodeResponse(frame.RequestID, encodeEnvelope(resp)))
}

func (h *WSHandler) send(conn *wsConn, frame []byte) {
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		h.logger.Warn().Err(err).Msg("error writing response")
	}
}

// Close closes all open connections.
func (h *WSHandler) Close() {
	h.connsMu.RLock()
	defer h.connsMu.RUnlock()

	for conn := range h.conns {
		conn.Close()
	}
}

// encodeEnvelope falls back to an internal error envelope when the result
// cannot be encoded.
func encodeEnvelope(resp rpc.Response) []byte {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(rpc.Failure(errs.Wrap(errs.CodeInternal, err)))
	}
	return data
}
