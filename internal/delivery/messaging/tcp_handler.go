package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/4DevsO/qtut-b4a/internal/delivery/rpc"
	"github.com/4DevsO/qtut-b4a/internal/errs"
)

const (
	// Worker pool settings
	workerPoolSize     = 100
	messageQueueSize   = 1000
	connectionPoolSize = 1000

	readBufferSize = 16384
	readTimeout    = 60 * time.Second
	writeTimeout   = 10 * time.Second
)

// message is a work item for the worker pool.
type message struct {
	conn net.Conn
	data []byte
}

// TCPHandler reads binary request frames from raw TCP connections and
// answers each with a response frame carrying the same request id.
type TCPHandler struct {
	gate                *gate
	bufferPool          sync.Pool
	listener            net.Listener
	done                chan struct{}
	wg                  sync.WaitGroup
	messageQueue        chan message
	connectionSemaphore chan struct{}
	conns               map[net.Conn]struct{}
	connsMu             sync.Mutex
	logger              zerolog.Logger
}

func NewTCPHandler(d *rpc.Dispatcher, opts Options, logger zerolog.Logger) *TCPHandler {
	return &TCPHandler{
		gate: newGate(d, opts),
		bufferPool: sync.Pool{
			New: func() any {
				return make([]byte, 0, 4096)
			},
		},
		done:                make(chan struct{}),
		messageQueue:        make(chan message, messageQueueSize),
		connectionSemaphore: make(chan struct{}, connectionPoolSize),
		conns:               make(map[net.Conn]struct{}),
		logger:              logger,
	}
}

// Start listens on address and returns once the listener is bound.
func (h *TCPHandler) Start(address string) error {
	var err error
	h.listener, err = net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to start TCP listener: %w", err)
	}
	h.logger.Info().Str("address", h.listener.Addr().String()).Msg("TCP server listening")

	numWorkers := runtime.GOMAXPROCS(0) * 2
	if numWorkers < workerPoolSize {
		numWorkers = workerPoolSize
	}
	for i := 0; i < numWorkers; i++ {
		h.wg.Add(1)
		go h.startWorker()
	}

	for i := 0; i < runtime.GOMAXPROCS(0); i++ {
		h.wg.Add(1)
		go h.acceptConnections()
	}
	return nil
}

// Addr is the bound listener address, or nil before Start.
func (h *TCPHandler) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// workers to drain.
func (h *TCPHandler) Stop() error {
	close(h.done)

	var err error
	if h.listener != nil {
		err = h.listener.Close()
	}

	h.connsMu.Lock()
	for conn := range h.conns {
		conn.Close()
	}
	h.connsMu.Unlock()

	h.wg.Wait()
	h.logger.Info().Msg("TCP server stopped")
	if err != nil {
		return fmt.Errorf("error closing listener: %w", err)
	}
	return nil
}

func (h *TCPHandler) acceptConnections() {
	defer h.wg.Done()

	for {
		select {
		case <-h.done:
			return
		case h.connectionSemaphore <- struct{}{}:
			conn, err := h.listener.Accept()
			if err != nil {
				<-h.connectionSemaphore
				select {
				case <-h.done:
					return
				default:
					h.logger.Warn().Err(err).Msg("error accepting connection")
					time.Sleep(10 * time.Millisecond)
					continue
				}
			}

			h.track(conn, true)
			h.wg.Add(1)
			go func() {
				defer h.wg.Done()
				defer func() { <-h.connectionSemaphore }()
				defer h.track(conn, false)
				h.handleConnection(conn)
			}()
		}
	}
}

func (h *TCPHandler) track(conn net.Conn, open bool) {
	h.connsMu.Lock()
	defer h.connsMu.Unlock()
	if open {
		h.conns[conn] = struct{}{}
		return
	}
	delete(h.conns, conn)
}

func (h *TCPHandler) handleConnection(conn net.Conn) {
	defer conn.Close()

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	buffer := h.bufferPool.Get().([]byte)[:0]
	defer func() { h.bufferPool.Put(buffer[:0]) }()
	readBuffer := make([]byte, readBufferSize)

	for {
		select {
		case <-h.done:
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := conn.Read(readBuffer)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				h.logger.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("error reading from connection")
			}
			return
		}

		buffer = append(buffer, readBuffer[:n]...)
		if len(buffer) > maxFrameSize {
			h.logger.Warn().Str("remote", conn.RemoteAddr().String()).Msg("buffer size exceeded")
			return
		}

		processed := 0
		for processed < len(buffer) {
			size, complete, err := FrameSize(buffer[processed:])
			if err != nil {
				h.sendError(conn, buffer[processed:], errs.Wrap(errs.CodeInvalidJSON, err))
				return
			}
			if !complete {
				break
			}

			// Copied so the worker does not race with the next read.
			data := make([]byte, size)
			copy(data, buffer[processed:processed+size])
			processed += size

			select {
			case h.messageQueue <- message{conn: conn, data: data}:
			default:
				h.sendError(conn, data, errs.New(errs.CodeConnectionFailed, "Server busy, try again later"))
			}
		}

		if processed > 0 {
			remaining := copy(buffer, buffer[processed:])
			buffer = buffer[:remaining]
		}
	}
}

func (h *TCPHandler) startWorker() {
	defer h.wg.Done()

	for {
		select {
		case <-h.done:
			return
		case msg := <-h.messageQueue:
			h.process(msg)
		}
	}
}

func (h *TCPHandler) process(msg message) {
	frame, err := DecodeFrame(msg.data)
	if err != nil {
		h.sendError(msg.conn, msg.data, errs.Wrap(errs.CodeInvalidJSON, err))
		return
	}

	resp, _ := h.gate.handle(context.Background(), &rpc.Request{
		Method: frame.Method,
		Params: frame.Content,
	})
	h.write(msg.conn, EncodeResponse(frame.RequestID, encodeEnvelope(resp)))
}

func (h *TCPHandler) sendError(conn net.Conn, data []byte, err error) {
	h.write(conn, EncodeResponse(requestID(data), encodeEnvelope(rpc.Failure(err))))
}

func (h *TCPHandler) write(conn net.Conn, frame []byte) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(frame); err != nil {
		h.logger.Debug().Err(err).Msg("error writing response")
	}
}
