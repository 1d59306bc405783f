package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/jobconnect-app/models"
	"github.com/yeremiapane/jobconnect-app/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
	sendBuffer     = 256
)

// Client -> satu koneksi websocket milik satu principal. Handle ini ephemeral,
// tidak pernah dipersist, dan hangus saat disconnect.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	principal models.Principal
	rooms     map[uint]bool // diakses di bawah hub.mu

	closeMu sync.Mutex
	closed  bool
}

func NewClient(hub *Hub, conn *websocket.Conn, p models.Principal) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBuffer),
		principal: p,
		rooms:     make(map[uint]bool),
	}
}

func (c *Client) Principal() models.Principal {
	return c.principal
}

// trySend non-blocking: push ke satu handle yang mati/lambat tidak boleh
// menunda push ke handle lain. Buffer penuh berarti pesan di-drop untuk
// handle itu saja (TransientDeliveryFailure, cuma di-log).
func (c *Client) trySend(data []byte) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		utils.ErrorLogger.Printf("realtime: send buffer full, dropping event for %s", c.principal.Key())
	}
}

func (c *Client) closeSend() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// inboundFrame -> pesan kecil dari client: join/leave topic atau typing
type inboundFrame struct {
	Action         string `json:"action"` // join | leave | typing
	ConversationID uint   `json:"conversation_id"`
}

// readPump membaca frame dari client sampai koneksi putus, lalu deregister.
// Disconnect selalu aman walau masih ada operasi lain in flight untuk
// principal yang sama.
func (c *Client) readPump() {
	defer func() {
		c.hub.Deregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			utils.InfoLogger.Printf("realtime: invalid frame from %s: %v", c.principal.Key(), err)
			continue
		}

		switch frame.Action {
		case "join":
			c.hub.JoinRoom(c, frame.ConversationID)
		case "leave":
			c.hub.LeaveRoom(c, frame.ConversationID)
		case "typing":
			// Best-effort dan tidak dipersist; hanya ke room yang sudah
			// di-join (join sudah lewat otorisasi)
			c.hub.sendTyping(c, frame.ConversationID)
		default:
			utils.InfoLogger.Printf("realtime: unknown action %q from %s", frame.Action, c.principal.Key())
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve menjalankan kedua pump; return saat koneksi putus
func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}
