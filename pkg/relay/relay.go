package relay

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"pitwallrelay/pkg/caster"
	"pitwallrelay/pkg/protocol"
)

// State of the connection to the remote consumer. Owned exclusively by the
// client; everything else only observes it.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "disconnected"
}

// ErrConnectInProgress is returned by Connect when a dial is already in flight.
var ErrConnectInProgress = errors.New("relay: connect already in progress")

// Handler receives one inbound message body. Handlers run on the read
// goroutine, decoupled from the tick loop.
type Handler func(body json.RawMessage)

// Config holds the transport tunables.
type Config struct {
	URL            string
	DialTimeout    time.Duration
	MaxAttempts    int // reconnect attempts before giving up
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultConfig(url string) Config {
	return Config{
		URL:            url,
		DialTimeout:    12 * time.Second,
		MaxAttempts:    10,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
	}
}

// Client owns the WebSocket link to the remote consumer. Emission is
// fire-and-forget: Emit never blocks the caller on network I/O, and a
// mid-session drop triggers background reconnection with exponential backoff.
// Messages produced while disconnected are not queued.
type Client struct {
	cfg   Config
	log   zerolog.Logger
	codec caster.FrameCodec[protocol.Inbound]

	mu         sync.Mutex
	state      State
	conn       *websocket.Conn
	handlers   map[string]Handler
	closed     bool // explicit Disconnect, suppresses reconnection
	dialCancel context.CancelFunc

	outbound   chan []byte
	writerStop chan struct{}
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		log:      log.With().Str("component", "relay").Logger(),
		codec:    caster.JSONFrameCodec[protocol.Inbound]{},
		handlers: make(map[string]Handler),
		outbound: make(chan []byte, 64),
	}
}

// OnMessage registers the handler for one inbound message type. Each inbound
// message is delivered to its handler exactly once.
func (c *Client) OnMessage(msgType string, h Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[msgType] = h
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Connect dials the remote consumer. No-op when already connected. A failed
// or timed-out dial leaves the client disconnected and returns the error.
// Only Connect lifts an explicit Disconnect; the reconnect path never does.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.closed = false
	c.mu.Unlock()
	return c.dial(ctx)
}

func (c *Client) dial(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return nil
	case StateConnecting:
		c.mu.Unlock()
		return ErrConnectInProgress
	}
	if c.closed {
		c.mu.Unlock()
		return errors.New("relay: client closed")
	}
	c.state = StateConnecting
	dialCtx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	c.dialCancel = cancel
	c.mu.Unlock()
	defer cancel()

	dialer := &websocket.Dialer{
		HandshakeTimeout:  c.cfg.DialTimeout,
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(dialCtx, c.cfg.URL, nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialCancel = nil
	if c.closed {
		if conn != nil {
			conn.Close()
		}
		c.state = StateDisconnected
		return errors.New("relay: closed during dial")
	}
	if err != nil {
		c.state = StateDisconnected
		return errors.Wrapf(err, "dialing %s", c.cfg.URL)
	}

	c.conn = conn
	c.state = StateConnected
	c.writerStop = make(chan struct{})
	go c.writeLoop(conn, c.writerStop)
	go c.readLoop(ctx, conn)
	c.log.Info().Str("url", c.cfg.URL).Msg("connected to remote consumer")
	return nil
}

// Emit serializes and sends one message. It fails fast, returning false when
// disconnected, when serialization fails, or when the writer is saturated.
func (c *Client) Emit(msg any) bool {
	if !c.IsConnected() {
		return false
	}
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Warn().Err(err).Msg("dropping unserializable message")
		return false
	}
	select {
	case c.outbound <- data:
		return true
	default:
		c.log.Warn().Msg("outbound writer saturated, dropping message")
		return false
	}
}

// Disconnect tears the link down and suppresses reconnection. Idempotent;
// always leaves the client disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.dialCancel != nil {
		c.dialCancel() // abandon an in-flight dial cleanly
	}
	c.teardownLocked()
}

func (c *Client) teardownLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	if c.writerStop != nil {
		close(c.writerStop)
		c.writerStop = nil
	}
	c.state = StateDisconnected
}

func (c *Client) writeLoop(conn *websocket.Conn, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case data := <-c.outbound:
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Warn().Err(err).Msg("write failed")
				return
			}
		}
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.onDrop(ctx, conn, err)
			return
		}
		c.dispatch(data)
	}
}

func (c *Client) dispatch(data []byte) {
	msg, err := c.codec.Decode(data)
	if err != nil {
		c.log.Warn().Err(err).Msg("undecodable inbound message")
		return
	}

	c.mu.Lock()
	h := c.handlers[msg.Type]
	c.mu.Unlock()
	if h == nil {
		c.log.Debug().Str("type", msg.Type).Msg("no handler for inbound message")
		return
	}

	body := msg.Body
	if body == nil {
		body = data // flat messages carry their fields beside "type"
	}
	h(body)
}

func (c *Client) onDrop(ctx context.Context, conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn != conn {
		// already torn down or replaced
		c.mu.Unlock()
		return
	}
	closed := c.closed
	c.teardownLocked()
	c.mu.Unlock()

	if closed || ctx.Err() != nil {
		return
	}
	c.log.Warn().Err(cause).Msg("connection dropped, reconnecting")
	go c.reconnect(ctx)
}

// reconnect retries the dial with exponentially increasing delay, capped and
// bounded in attempts. Analysis keeps running throughout; messages emitted
// while disconnected are simply not sent. An explicit Disconnect issued at any
// point, including mid-backoff, ends the retries.
func (c *Client) reconnect(ctx context.Context) {
	delay := c.cfg.InitialBackoff
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		c.mu.Lock()
		closed, state := c.closed, c.state
		c.mu.Unlock()
		if closed || state != StateDisconnected {
			return
		}
		err := c.dial(ctx)
		if err == nil {
			return
		}
		c.log.Debug().Err(err).Int("attempt", attempt).Msg("reconnect failed")

		delay *= 2
		if delay > c.cfg.MaxBackoff {
			delay = c.cfg.MaxBackoff
		}
	}
	c.log.Error().Int("attempts", c.cfg.MaxAttempts).Msg("reconnection abandoned")
}
