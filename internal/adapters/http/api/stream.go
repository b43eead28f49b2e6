package api

import (
	"context"
	"net/http"
	"time"

	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/CeoatNorthstar/openCern/pkg/metrics"
	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	endOfStream = "end of stream"
)

var errPeerClosed = errors.New("peer closed")

// StreamHandler replays the loaded events over a websocket, one event per
// text message, then closes the connection normally.
type StreamHandler struct {
	doc      *output.Document
	interval time.Duration
	upgrader websocket.Upgrader
	logger   logger.Logger
	base     context.Context
}

// NewStreamHandler creates a handler sending one event every interval.
func NewStreamHandler(doc *output.Document, interval time.Duration, l logger.Logger) *StreamHandler {
	return &StreamHandler{
		doc:      doc,
		interval: interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: l,
		base:   context.Background(),
	}
}

// HandleStream handles GET /stream websocket upgrades.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		metrics.RecordError("stream", "upgrade")
		h.logger.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()

	metrics.AddStreamClients(1)
	defer metrics.AddStreamClients(-1)

	ctx := h.base
	l := h.logger.With(logger.String("remote", r.RemoteAddr))
	l.Info(ctx, "stream client connected", logger.Int("events", len(h.doc.Events)))

	sent, err := h.send(ctx, conn, h.peerGone(conn))
	if err != nil {
		if errors.IsAny(err, errPeerClosed, context.Canceled) {
			l.Info(ctx, "stream ended early", logger.Int("sent", sent), logger.Error(err))
			return
		}
		metrics.RecordError("stream", "write")
		l.Warn(ctx, "stream aborted", logger.Int("sent", sent), logger.Error(err))
		return
	}
	l.Info(ctx, "stream finished", logger.Int("sent", sent))
}

// send writes every event in order, pausing interval between messages.
func (h *StreamHandler) send(ctx context.Context, conn *websocket.Conn, gone <-chan struct{}) (int, error) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for i := range h.doc.Events {
		if i > 0 {
			select {
			case <-ctx.Done():
				h.closeConn(conn, websocket.CloseGoingAway, "server shutting down")
				return i, errors.Mark(ctx.Err(), ErrStream)
			case <-gone:
				return i, errors.Mark(errPeerClosed, ErrStream)
			case <-ticker.C:
			}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(&h.doc.Events[i]); err != nil {
			return i, errors.Mark(errors.Wrapf(err, "write event %d", i), ErrStream)
		}
		metrics.RecordStreamEvent()
	}

	h.closeConn(conn, websocket.CloseNormalClosure, endOfStream)
	return len(h.doc.Events), nil
}

// peerGone drains incoming frames so control messages are handled, and
// closes the returned channel once the peer disconnects.
func (h *StreamHandler) peerGone(conn *websocket.Conn) <-chan struct{} {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return gone
}

func (h *StreamHandler) closeConn(conn *websocket.Conn, code int, text string) {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
}
