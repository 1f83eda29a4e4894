// Package wsock carries chat events over a websocket connection.
package wsock

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AliShanawar/sitelink/internal/chat"
	"github.com/AliShanawar/sitelink/internal/transport"
)

const sendBuffer = 256

var errClosed = errors.New("wsock: connection closed")

// Conn is a client-side websocket transport. Outgoing frames are queued on
// a buffered channel consumed by a single writer goroutine; incoming frames
// are decoded on a single reader goroutine and handed to the handler, so
// handler calls never overlap.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	log  *zap.Logger
}

// Dialer adapts Dial to the transport.Dialer signature.
func Dialer(log *zap.Logger) transport.Dialer {
	return func(url string, h transport.Handler) (transport.Transport, error) {
		return Dial(url, h, log)
	}
}

// Dial connects to the gateway and starts the pumps. The handler receives a
// synthetic connect event first, then every decoded frame, and finally a
// synthetic disconnect event when the read side ends.
func Dial(url string, h transport.Handler, log *zap.Logger) (*Conn, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	c := &Conn{
		ws:   ws,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		log:  log,
	}
	go c.writePump()
	go c.readPump(h)
	return c, nil
}

// Emit queues one frame. It never blocks: when the writer has fallen behind
// and the buffer is full, the frame is dropped and an error returned.
func (c *Conn) Emit(event string, payload any) error {
	frame, err := chat.EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return errClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return errClosed
	default:
		c.log.Warn("wsock: send buffer full, frame dropped", zap.String("event", event))
		return errors.New("wsock: send buffer full")
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	c.once.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
	return nil
}

func (c *Conn) writePump() {
	for {
		select {
		case frame := <-c.send:
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("wsock: write failed", zap.Error(err))
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Conn) readPump(h transport.Handler) {
	h(transport.EventConnect, nil)
	defer h(transport.EventDisconnect, nil)
	defer c.Close()

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		var frame chat.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			c.log.Warn("wsock: bad frame", zap.Error(err))
			continue
		}
		if frame.Event == "" {
			continue
		}
		h(frame.Event, frame.Data)
	}
}
