// Copyright (c) 2025 Bazarle Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second

	// Reconnect backoff bounds. The delay doubles on every failed dial and
	// resets once a connection is established.
	backoffMin = time.Second
	backoffMax = 30 * time.Second
)

// =============================================================================
// HANDLERS
// =============================================================================

// Handlers receives normalized events from the persistent channel. All
// callbacks run on the client's read goroutine; they must hand work off to
// the UI loop rather than block.
//
// OnConnect fires on every (re)establishment of the connection, which is the
// view's cue to reload history and close any gap created by an outage.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func(err error)
	OnMessage    func(payload *MessagePayload)
	OnSeen       func(by string)
	OnTyping     func(from string)
	OnStopTyping func(from string)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the realtime client.
type ClientConfig struct {
	// URL is the websocket endpoint (default: wss://api.bazarle.com/socket)
	URL string

	// Token is the bearer token presented when dialing.
	Token string

	// TypingRate caps outgoing typing signals. Default: one per 2 seconds,
	// burst 1, so a fast typist does not flood the channel.
	TypingRate rate.Limit
}

// DefaultConfig returns the default realtime client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		URL:        "wss://api.bazarle.com/socket",
		TypingRate: rate.Every(2 * time.Second),
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client owns the physical connection to the persistent channel. It never
// mutates UI state directly - incoming traffic is normalized into Handlers
// callbacks and outgoing traffic is limited to typing signals; message
// persistence goes over the durable channel (api package).
type Client struct {
	config   *ClientConfig
	handlers Handlers

	typingLimiter *rate.Limiter

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
}

// NewClient creates a realtime client. Handlers must be fully populated
// before Run is called; nil callbacks are skipped.
func NewClient(config *ClientConfig, handlers Handlers) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.URL == "" {
		config.URL = "wss://api.bazarle.com/socket"
	}
	if config.TypingRate == 0 {
		config.TypingRate = rate.Every(2 * time.Second)
	}

	return &Client{
		config:        config,
		handlers:      handlers,
		typingLimiter: rate.NewLimiter(config.TypingRate, 1),
	}
}

// Connected reports whether the persistent channel is currently up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// =============================================================================
// CONNECTION LOOP
// =============================================================================

// Run dials the persistent channel and keeps it alive until ctx is
// cancelled, redialing with capped exponential backoff after every drop.
// Call in a goroutine.
func (c *Client) Run(ctx context.Context) {
	delay := backoffMin

	for {
		if ctx.Err() != nil || c.isClosed() {
			return
		}

		conn, err := c.dial(ctx)
		if err != nil {
			log.Printf("realtime: dial failed: %v (retrying in %s)", err, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			delay = nextBackoff(delay)
			continue
		}
		delay = backoffMin

		c.setConn(conn)
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}

		err = c.readLoop(ctx, conn)
		c.setConn(nil)
		if c.handlers.OnDisconnect != nil {
			c.handlers.OnDisconnect(err)
		}
		if ctx.Err() != nil {
			return
		}
		log.Printf("realtime: connection lost: %v", err)
	}
}

// nextBackoff doubles the delay up to the cap.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > backoffMax {
		return backoffMax
	}
	return d
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	header := http.Header{}
	if c.config.Token != "" {
		header.Set("Authorization", c.config.Token)
	}

	conn, _, err := websocket.Dial(dialCtx, c.config.URL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	return conn, err
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.connected = conn != nil
}

// readLoop reads events until the connection drops, pinging on an interval
// to keep intermediaries from closing the idle connection.
func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) error {
	pingCtx, cancelPing := context.WithCancel(ctx)
	defer cancelPing()

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				pctx, cancel := context.WithTimeout(pingCtx, writeWait)
				err := conn.Ping(pctx)
				cancel()
				if err != nil {
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		var event Event
		if err := wsjson.Read(ctx, conn, &event); err != nil {
			return err
		}
		c.dispatch(&event)
	}
}

// Close tears down the connection. The Run loop exits via its context.
func (c *Client) Close() {
	c.mu.Lock()
	conn := c.conn
	c.closed = true
	c.mu.Unlock()
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "client shutting down")
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// dispatch routes one incoming event to its handler. Malformed payloads are
// logged and dropped; an unknown event type is ignored so server-side
// additions do not break older clients.
func (c *Client) dispatch(event *Event) {
	switch event.Type {
	case EventMessageReceived:
		var p MessagePayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			log.Printf("realtime: malformed %s payload: %v", event.Type, err)
			return
		}
		if c.handlers.OnMessage != nil {
			c.handlers.OnMessage(&p)
		}

	case EventMessageSeen:
		var p SeenPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			log.Printf("realtime: malformed %s payload: %v", event.Type, err)
			return
		}
		if c.handlers.OnSeen != nil {
			c.handlers.OnSeen(p.By)
		}

	case EventUserTyping:
		var p TypingPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			log.Printf("realtime: malformed %s payload: %v", event.Type, err)
			return
		}
		if c.handlers.OnTyping != nil {
			c.handlers.OnTyping(p.From)
		}

	case EventUserStopTyping:
		var p TypingPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			log.Printf("realtime: malformed %s payload: %v", event.Type, err)
			return
		}
		if c.handlers.OnStopTyping != nil {
			c.handlers.OnStopTyping(p.From)
		}
	}
}

// =============================================================================
// OUTGOING SIGNALS
// =============================================================================

// SendTyping emits a typing signal to the peer. Signals are rate limited;
// suppressed signals are not an error because the peer's indicator is still
// lit from the previous one.
func (c *Client) SendTyping(ctx context.Context, to, from string) error {
	if !c.typingLimiter.Allow() {
		return nil
	}
	return c.sendEvent(ctx, EventTyping, TypingSignal{To: to, From: from})
}

// SendStopTyping emits a stop-typing signal to the peer. Not rate limited:
// a stop must always reach the peer or their indicator sticks.
func (c *Client) SendStopTyping(ctx context.Context, to, from string) error {
	return c.sendEvent(ctx, EventStopTyping, TypingSignal{To: to, From: from})
}

func (c *Client) sendEvent(ctx context.Context, eventType string, payload any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		// Typing signals are best-effort; dropping them while offline is
		// harmless.
		return nil
	}

	event, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return wsjson.Write(writeCtx, conn, event)
}
