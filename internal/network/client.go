// Package network connects to a running gesturehook event server and
// receives gesture events as a UI consumer would.
package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gesturehook/internal/dispatch"
	"gesturehook/internal/protocol"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = 30 * time.Second
	defaultRetry = 5 * time.Second
)

// Client handles the WebSocket connection to the event server
type Client struct {
	addr  string
	token string
	send  chan protocol.Message

	// Callbacks, invoked on the read goroutine
	OnHello  func(hello protocol.HelloPayload)
	OnCircle func(p dispatch.Payload)

	// RetryDelay is the pause between reconnection attempts
	RetryDelay time.Duration

	mu          sync.Mutex
	isConnected bool
	log         *logrus.Entry
}

// NewClient creates a client for the server listening on addr (host:port)
func NewClient(addr, token string) *Client {
	return &Client{
		addr:       addr,
		token:      token,
		send:       make(chan protocol.Message, 16),
		RetryDelay: defaultRetry,
		log:        logrus.WithFields(logrus.Fields{"component": "client", "addr": addr}),
	}
}

// Run connects and reconnects until ctx is cancelled. Blocking.
func (c *Client) Run(ctx context.Context) error {
	for {
		c.connect(ctx)

		// If connect returns, it means we disconnected. Wait a bit and retry.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryDelay):
			c.log.Debug("Attempting reconnection...")
		}
	}
}

func (c *Client) connect(ctx context.Context) {
	u := url.URL{Scheme: "ws", Host: c.addr, Path: "/ws"}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		c.log.WithError(err).Warn("Connection failed")
		return
	}
	defer conn.Close()

	c.setConnected(true)
	defer c.setConnected(false)
	c.log.Info("Connected to event server")

	// Only gesture events are of interest
	c.Subscribe(dispatch.EventCircle)

	stop := make(chan struct{})
	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		c.writePump(ctx, conn, stop)
	}()

	c.readPump(conn)

	// Ensure write pump stops
	close(stop)
	<-connDone
}

func (c *Client) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(64 * 1024)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("Read error")
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.WithError(err).Debug("Invalid message")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				c.log.WithError(err).Debug("Write error")
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}

		case <-stop:
			return

		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			conn.Close()
			return
		}
	}
}

// decode re-marshals a generic payload into out
func decode(payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (c *Client) handleMessage(msg protocol.Message) {
	switch msg.Type {
	case protocol.TypeHello:
		var hello protocol.HelloPayload
		if err := decode(msg.Payload, &hello); err != nil {
			c.log.WithError(err).Debug("Invalid hello payload")
			return
		}
		c.log.WithFields(logrus.Fields{"version": hello.Version, "enabled": hello.Enabled}).Info("Server hello")
		if c.OnHello != nil {
			c.OnHello(hello)
		}

	case protocol.TypeGestureCircle:
		var p dispatch.Payload
		if err := decode(msg.Payload, &p); err != nil {
			c.log.WithError(err).Debug("Invalid gesture payload")
			return
		}
		if c.OnCircle != nil {
			c.OnCircle(p)
		}
	}
}

// Subscribe limits the events the server sends; no events means all of them
func (c *Client) Subscribe(events ...string) {
	select {
	case c.send <- protocol.Message{Type: protocol.TypeSubscribe, Payload: protocol.SubscribePayload{Events: events}}:
	default:
		c.log.Warn("Send queue full, dropping subscribe")
	}
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = v
}

// IsConnected returns true if client is connected to the server
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isConnected
}
