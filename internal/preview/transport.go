package preview

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sitebuilder-backend/pkg/logger"
)

var (
	ErrTransportClosed = errors.New("preview transport closed")
	ErrTransportBusy   = errors.New("preview transport send buffer full")
)

// Transport delivers messages to one preview surface. Send must not block on
// the remote peer.
type Transport interface {
	Send(msg Message) error
	Close() error
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBufferSize = 16
)

// WebSocketTransport is a Transport over a gorilla websocket connection.
// Outgoing messages are queued in order and written by a single goroutine.
// The queue holds at most one UPDATE_PREVIEW: a newer snapshot replaces the
// unsent one, so the latest snapshot is always delivered. Other messages are
// dropped when the queue is full.
type WebSocketTransport struct {
	conn *websocket.Conn

	mu    sync.Mutex
	queue []Message
	wake  chan struct{}

	closeOnce sync.Once
	done      chan struct{}
}

// NewWebSocketTransport wraps conn and starts its writer.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	t := &WebSocketTransport{
		conn: conn,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go t.writeLoop()
	return t
}

func (t *WebSocketTransport) Send(msg Message) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}

	t.mu.Lock()
	if msg.Type == MessageUpdatePreview {
		t.queue = withoutUpdates(t.queue)
	} else if len(t.queue) >= sendBufferSize {
		t.mu.Unlock()
		return ErrTransportBusy
	}
	t.queue = append(t.queue, msg)
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

// next pops the oldest queued message.
func (t *WebSocketTransport) next() (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return Message{}, false
	}
	msg := t.queue[0]
	t.queue[0] = Message{}
	t.queue = t.queue[1:]
	return msg, true
}

func withoutUpdates(queue []Message) []Message {
	kept := queue[:0]
	for _, msg := range queue {
		if msg.Type != MessageUpdatePreview {
			kept = append(kept, msg)
		}
	}
	return kept
}

func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.conn.Close()
	})
	return err
}

// ReadLoop decodes incoming frames and hands them to handle until the peer
// disconnects or ctx is cancelled. Malformed frames are logged and skipped.
func (t *WebSocketTransport) ReadLoop(ctx context.Context, handle func(Message)) error {
	t.conn.SetReadLimit(maxMessageSize)
	_ = t.conn.SetReadDeadline(time.Now().Add(pongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		select {
		case <-ctx.Done():
			t.Close()
		case <-t.done:
		}
	}()

	for {
		_, data, err := t.conn.ReadMessage()
		if err != nil {
			t.Close()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			logger.Warn("Malformed preview message", map[string]interface{}{
				"size": len(data),
			})
			continue
		}
		handle(msg)
	}
}

func (t *WebSocketTransport) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-t.wake:
			for {
				msg, ok := t.next()
				if !ok {
					break
				}
				_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := t.conn.WriteJSON(msg); err != nil {
					logger.Debug("Preview write failed", map[string]interface{}{"error": err.Error()})
					t.Close()
					return
				}
			}
		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.Close()
				return
			}
		case <-t.done:
			return
		}
	}
}
