package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/gomoku-backend/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is one connected socket: a gorilla connection plus a buffered send
// channel drained by a single writer goroutine.
type Client struct {
	socketID string
	userID   string
	username string

	conn *websocket.Conn
	send chan []byte

	mutex  sync.Mutex
	closed bool
}

func newClient(socketID, userID string, conn *websocket.Conn) *Client {
	return &Client{
		socketID: socketID,
		userID:   userID,
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
	}
}

// enqueue drops the message if the client's buffer is full; a stalled reader
// must not block room broadcasts. Enqueueing after close is a silent drop, a
// broadcast may still hold the client while its read loop is shutting down.
func (that *Client) enqueue(action string, payload any) bool {
	message := protocol.Message{
		Action:  action,
		Payload: protocol.MustMarshal(payload),
	}

	raw, err := json.Marshal(message)
	if err != nil {
		return false
	}

	that.mutex.Lock()
	defer that.mutex.Unlock()

	if that.closed {
		return false
	}

	select {
	case that.send <- raw:
		return true
	default:
		return false
	}
}

// close shuts the send channel exactly once; writePump sees it and finishes.
func (that *Client) close() {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}

// writePump owns all writes on the connection, including pings.
func (that *Client) writePump(logger *slog.Logger) {
	log := logger.With("method", "writePump", "socketID", that.socketID)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				log.Debug("write failed, closing", "error", err)
				return
			}
		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
