package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/travelagi/dashboard/internal/model/chat"
)

// Event names delivered by the upstream service.
const (
	EventChatMessage = "chat-message"
	EventUserPersona = "userPersona"
)

// Event is one JSON frame on the real-time channel.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// personaEnvelope wraps the persona delivery; the inner value may be a JSON
// object or a string containing JSON.
type personaEnvelope struct {
	UserPersona json.RawMessage `json:"userPersona"`
}

// Handlers receive decoded events. Nil entries are skipped.
type Handlers struct {
	OnChatMessage func(msg chat.Message)
	OnPersona     func(raw json.RawMessage)
}

// Options tune the connection to the upstream channel endpoint.
type Options struct {
	URL              string
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	ReconnectDelay   time.Duration
	MaxReconnectWait time.Duration
}

// DefaultOptions mirror the timeouts used for the upstream connection.
func DefaultOptions(url string) Options {
	return Options{
		URL:              url,
		HandshakeTimeout: 30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     30 * time.Second,
		PingInterval:     30 * time.Second,
		ReconnectDelay:   time.Second,
		MaxReconnectWait: 30 * time.Second,
	}
}

// Client maintains a websocket subscription to the upstream event service
// and dispatches chat and persona events to the registered handlers. The
// channel is consume-only: nothing is ever sent upstream except pings.
type Client struct {
	opts Options

	mu       sync.RWMutex
	handlers Handlers
	conn     *websocket.Conn
	closed   bool
}

// NewClient registers the handlers and prepares a client; Run starts it.
func NewClient(opts Options, handlers Handlers) *Client {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 30 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 60 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = time.Second
	}
	if opts.MaxReconnectWait <= 0 {
		opts.MaxReconnectWait = 30 * time.Second
	}
	return &Client{opts: opts, handlers: handlers}
}

// Run keeps the subscription alive until the context ends or Close is
// called, reconnecting with a growing delay after connection loss.
func (c *Client) Run(ctx context.Context) error {
	attempt := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if c.isClosed() {
			return nil
		}

		conn, err := c.dial(ctx)
		if err != nil {
			attempt++
			wait := time.Duration(attempt) * c.opts.ReconnectDelay
			if wait > c.opts.MaxReconnectWait {
				wait = c.opts.MaxReconnectWait
			}
			log.Printf("[channel] connect failed (attempt %d): %v", attempt, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		attempt = 0
		log.Printf("[channel] connected to %s", c.opts.URL)

		err = c.readLoop(ctx, conn)
		c.dropConn(conn)
		if ctx.Err() != nil || c.isClosed() {
			return nil
		}
		if err != nil {
			log.Printf("[channel] connection lost: %v", err)
		}
	}
}

// Close tears the subscription down and detaches both handlers so no event
// can arrive after teardown.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	c.handlers = Handlers{}
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := &websocket.Dialer{HandshakeTimeout: c.opts.HandshakeTimeout}

	conn, resp, err := dialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return nil, fmt.Errorf("client closed")
	}
	c.conn = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()
	go c.pingLoop(pingCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		c.dispatch(data)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch decodes one frame and forwards it. Unknown event names and
// undecodable frames are logged and skipped; the subscription stays up.
func (c *Client) dispatch(data []byte) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("[channel] undecodable frame: %v", err)
		return
	}

	c.mu.RLock()
	handlers := c.handlers
	c.mu.RUnlock()

	switch ev.Event {
	case EventChatMessage:
		if handlers.OnChatMessage == nil {
			return
		}
		var msg chat.Message
		if err := json.Unmarshal(ev.Data, &msg); err != nil {
			log.Printf("[channel] bad chat message: %v", err)
			return
		}
		if !chat.ValidRole(msg.Role) {
			log.Printf("[channel] unknown chat role %q", msg.Role)
			return
		}
		handlers.OnChatMessage(msg)
	case EventUserPersona:
		if handlers.OnPersona == nil {
			return
		}
		var envelope personaEnvelope
		if err := json.Unmarshal(ev.Data, &envelope); err != nil {
			log.Printf("[channel] bad persona envelope: %v", err)
			return
		}
		handlers.OnPersona(envelope.UserPersona)
	default:
		// Other event kinds are not ours to handle.
	}
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) dropConn(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}
