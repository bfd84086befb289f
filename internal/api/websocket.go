package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gesturehook/internal/dispatch"
	"gesturehook/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// WSManager handles WebSocket connections and broadcasting
type WSManager struct {
	server     *Server
	upgrader   websocket.Upgrader
	clients    map[*WebSocketClient]bool
	clientsMu  sync.RWMutex
	broadcast  chan protocol.Message
	register   chan *WebSocketClient
	unregister chan *WebSocketClient
	replies    chan reply
	shutdown   chan struct{}
	closeOnce  sync.Once
	log        *logrus.Entry
}

// reply is a message addressed to a single client
type reply struct {
	client *WebSocketClient
	data   []byte
}

// WebSocketClient represents a connected UI consumer
type WebSocketClient struct {
	manager *WSManager
	conn    *websocket.Conn
	send    chan []byte
	ip      string

	mu     sync.RWMutex
	events map[string]bool // nil means every event
}

func newWSManager(s *Server) *WSManager {
	m := &WSManager{
		server:     s,
		clients:    make(map[*WebSocketClient]bool),
		broadcast:  make(chan protocol.Message, 16),
		register:   make(chan *WebSocketClient),
		unregister: make(chan *WebSocketClient),
		replies:    make(chan reply, 16),
		shutdown:   make(chan struct{}),
		log:        logrus.WithField("component", "ws"),
	}
	m.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     m.checkOrigin,
	}
	return m
}

func (m *WSManager) start() {
	for {
		select {
		case client := <-m.register:
			m.clientsMu.Lock()
			m.clients[client] = true
			total := len(m.clients)
			m.clientsMu.Unlock()
			m.log.WithFields(logrus.Fields{"remote": client.ip, "clients": total}).Info("WS: New client registered")

		case client := <-m.unregister:
			m.clientsMu.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				m.log.WithFields(logrus.Fields{"remote": client.ip, "clients": len(m.clients)}).Info("WS: Client unregistered")
			}
			m.clientsMu.Unlock()

		case message := <-m.broadcast:
			m.broadcastMessage(message)

		case r := <-m.replies:
			m.clientsMu.RLock()
			if m.clients[r.client] {
				select {
				case r.client.send <- r.data:
				default:
				}
			}
			m.clientsMu.RUnlock()

		case <-m.shutdown:
			m.clientsMu.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				close(client.send)
			}
			m.clientsMu.Unlock()
			return
		}
	}
}

func (m *WSManager) stop() {
	m.closeOnce.Do(func() { close(m.shutdown) })
}

func (m *WSManager) broadcastMessage(message protocol.Message) {
	jsonMsg, err := json.Marshal(message)
	if err != nil {
		m.log.WithError(err).Error("WS: Failed to marshal broadcast message")
		return
	}

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()

	for client := range m.clients {
		if !client.wants(string(message.Type)) {
			continue
		}
		select {
		case client.send <- jsonMsg:
		default:
			// slow consumer
			close(client.send)
			delete(m.clients, client)
		}
	}
}

// Listeners returns the number of connected clients
func (m *WSManager) Listeners() int {
	m.clientsMu.RLock()
	defer m.clientsMu.RUnlock()
	return len(m.clients)
}

// Emit implements dispatch.Emitter
func (m *WSManager) Emit(event string, payload any) error {
	if m.Listeners() == 0 {
		return dispatch.ErrNoListeners
	}
	msg := protocol.Message{Type: protocol.MessageType(event), Payload: payload}
	select {
	case m.broadcast <- msg:
		return nil
	case <-m.shutdown:
		return errServerClosed
	}
}

func (m *WSManager) checkOrigin(r *http.Request) bool {
	if m.server.configMgr.Get().General.AllowAnyOrigin {
		return true
	}
	return sameOrigin(r)
}

func (m *WSManager) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.log.WithError(err).Warn("WS: Failed to upgrade connection")
		return
	}

	client := &WebSocketClient{
		manager: m,
		conn:    conn,
		send:    make(chan []byte, 256),
		ip:      r.RemoteAddr,
	}

	hello, _ := json.Marshal(protocol.Message{
		Type: protocol.TypeHello,
		Payload: protocol.HelloPayload{
			Version: m.server.version,
			Events:  []string{dispatch.EventCircle},
			Enabled: m.server.recognizer.Enabled(),
		},
	})
	client.send <- hello

	select {
	case m.register <- client:
	case <-m.shutdown:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (c *WebSocketClient) wants(event string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events == nil || c.events[event]
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-c.manager.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.manager.log.WithError(err).Debug("WS: Read error")
			}
			break
		}

		c.handleMessage(message)
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WebSocketClient) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.manager.log.WithError(err).Debug("WS: Invalid message format")
		return
	}

	switch msg.Type {
	case protocol.TypeSubscribe:
		var payload protocol.SubscribePayload
		jsonBytes, _ := json.Marshal(msg.Payload)
		if err := json.Unmarshal(jsonBytes, &payload); err != nil {
			c.manager.log.WithError(err).Debug("WS: Invalid subscribe payload")
			return
		}

		c.mu.Lock()
		if len(payload.Events) == 0 {
			c.events = nil
		} else {
			c.events = make(map[string]bool, len(payload.Events))
			for _, e := range payload.Events {
				c.events[e] = true
			}
		}
		c.mu.Unlock()
		c.manager.log.WithFields(logrus.Fields{"remote": c.ip, "events": payload.Events}).Debug("WS: Client subscribed")

	case protocol.TypePing:
		resp, _ := json.Marshal(protocol.Message{Type: protocol.TypePong})
		select {
		case c.manager.replies <- reply{client: c, data: resp}:
		case <-c.manager.shutdown:
		}
	}
}
