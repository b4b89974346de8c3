package runner

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/colorfulnotion/cairotrace/log"
	"github.com/colorfulnotion/cairotrace/telemetry"
	"github.com/gorilla/websocket"
)

const (
	wsModule    = log.WebsocketMonitoring
	wsWriteWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks open websocket connections so they can be closed on shutdown.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]struct{}
}

func newHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
}

// Client is one websocket connection. Messages are handled in order; the
// write mutex serialises replies with keepalive pings.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *Client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteMessage(messageType, data)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(wsModule, "websocket upgrade failed", "err", err)
		return
	}
	c := &Client{conn: conn}
	s.hub.register(c)
	log.Debug(wsModule, "websocket connected", "remote", r.RemoteAddr)

	pongWait := s.cfg.WebsocketPongWait
	done := make(chan struct{})
	go c.pingLoop(done, pongWait*9/10)
	defer func() {
		close(done)
		s.hub.unregister(c)
		conn.Close()
		log.Debug(wsModule, "websocket closed", "remote", r.RemoteAddr)
	}()

	conn.SetReadLimit(s.cfg.MaxBodyBytes)
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// A run can outlast pongWait; pongs queued meanwhile are only seen
		// by the next read.
		conn.SetReadDeadline(time.Now().Add(pongWait))
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn(wsModule, "websocket read failed", "err", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		reply := s.handleMessage(r, message)
		if err := c.write(websocket.TextMessage, reply); err != nil {
			log.Warn(wsModule, "websocket write failed", "err", err)
			return
		}
	}
}

func (s *Server) handleMessage(r *http.Request, message []byte) []byte {
	ctx, span := telemetry.Start(r.Context(), telemetry.SpanWebsocketCall)
	defer span.End()

	payload, rerr := s.svc.DecodePayload(message)
	if rerr == nil {
		var body []byte
		body, rerr = s.svc.Run(ctx, payload)
		if rerr == nil {
			return body
		}
	}
	out, err := json.Marshal(rerr)
	if err != nil {
		log.Error(wsModule, "encode error reply", "err", err)
		return []byte(`{"errors":[]}`)
	}
	return out
}

func (c *Client) pingLoop(done <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
