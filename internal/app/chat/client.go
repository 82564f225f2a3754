package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
	"chatrelay/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 64 * 1024

	// sendBufferSize is the number of outbound frames queued per client.
	sendBufferSize = 256
)

// ErrClientClosed is returned by Emit once the client's send queue is closed.
var ErrClientClosed = errors.New("client closed")

// ErrSendQueueFull is returned by Emit when the client cannot keep up.
var ErrSendQueueFull = errors.New("client send queue full")

// Client is one WebSocket connection. It implements Conn.
type Client struct {
	id  string
	hub *Hub

	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	mu     sync.Mutex
	closed bool

	logger zerolog.Logger
}

// NewClient wraps an upgraded WebSocket connection.
func NewClient(hub *Hub, wsConn *websocket.Conn) *Client {
	id := randx.ConnectionID()

	return &Client{
		id:     id,
		hub:    hub,
		conn:   wsConn,
		send:   make(chan []byte, sendBufferSize),
		logger: logx.Logger().With().Str("conn_id", id).Logger(),
	}
}

// ID implements Conn.
func (c *Client) ID() string {
	return c.id
}

// Alive implements Conn.
func (c *Client) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return !c.closed
}

// Emit implements Conn. It never blocks.
func (c *Client) Emit(event string, data any) error {
	return c.queue(Envelope{Event: event, Data: data})
}

// Close stops the write loop, which in turn closes the socket and ends ReadPump.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *Client) queue(env Envelope) error {
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", env.Event, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// ReadPump reads frames until the connection fails, dispatching each one to
// the Hub. It unregisters the client on return.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		c.processInboundFrame(frame)
	}
}

func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.Close()
	c.hub.Disconnect(c)

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// processInboundFrame decodes and dispatches one frame. A panic while handling
// it is confined to this frame.
func (c *Client) processInboundFrame(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Recovered from panic while handling frame")
		}
	}()

	var frame inboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.logger.Warn().Err(err).Int("frame_bytes", len(raw)).Msg("Client sent invalid JSON")
		return
	}

	ack, ok := c.hub.Dispatch(c, frame.Event, frame.Data)
	if !ok || frame.Ack == nil {
		return
	}

	if err := c.queue(Envelope{Event: EventAck, Data: ack, Ack: frame.Ack}); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to queue ack")
	}
}

// WritePump writes queued frames and periodic pings to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit so ReadPump unblocks
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame returns false when the write loop should stop.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		c.Close()
		return false
	}

	return true
}

func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Error().Err(err).Msg("Error writing ping")
		c.Close()
		return false
	}

	return true
}
