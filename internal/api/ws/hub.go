package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"hidden-quest/internal/config"
)

const sendBuffer = 64

type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	rm       RoomManager
	cfg      config.WebSocketConfig
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// client is one socket. roomCode and playerID are written under Hub.mu once
// the socket is bound to a seat.
type client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	roomCode string
	playerID string
}

type message struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Action string      `json:"action"`
	Data   interface{} `json:"data"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewHub(cfg config.WebSocketConfig, log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*client]struct{}),
		cfg:   cfg,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
	}
}

// SetRoomManager completes the wiring; the manager needs the hub as its
// broadcaster first.
func (h *Hub) SetRoomManager(rm RoomManager) {
	h.rm = rm
}

func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	h.log.Debug("websocket connected", zap.String("conn_id", cl.id))

	go h.writePump(cl)
	h.readPump(cl)
}

func (h *Hub) readPump(cl *client) {
	defer func() {
		code, playerID := h.detach(cl)
		if playerID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), h.cfg.WriteWait)
			if err := h.rm.Disconnect(ctx, code, playerID, cl.id); err != nil {
				h.log.Error("disconnect failed", zap.String("room_code", code), zap.Error(err))
			}
			cancel()
		}
		close(cl.send)
	}()

	cl.conn.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = cl.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		var msg message
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Info("websocket read failed", zap.String("conn_id", cl.id), zap.Error(err))
			}
			return
		}
		h.dispatch(cl, msg)
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()
	for {
		select {
		case b, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// attach binds cl to a seat, leaving any room it was in before.
func (h *Hub) attach(cl *client, code, playerID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cl.roomCode != "" && cl.roomCode != code {
		delete(h.rooms[cl.roomCode], cl)
	}
	if _, ok := h.rooms[code]; !ok {
		h.rooms[code] = make(map[*client]struct{})
	}
	h.rooms[code][cl] = struct{}{}
	cl.roomCode, cl.playerID = code, playerID
}

func (h *Hub) detach(cl *client) (string, string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	code, playerID := cl.roomCode, cl.playerID
	if code != "" {
		delete(h.rooms[code], cl)
		if len(h.rooms[code]) == 0 {
			delete(h.rooms, code)
		}
	}
	cl.roomCode, cl.playerID = "", ""
	return code, playerID
}

func (h *Hub) Broadcast(roomCode string, action string, data interface{}) {
	h.fanout(roomCode, "", action, data)
}

func (h *Hub) SendTo(roomCode, playerID string, action string, data interface{}) {
	h.fanout(roomCode, playerID, action, data)
}

// fanout never blocks: a client whose buffer is full is dropped. Only the
// client's own read loop closes send, after detaching under mu.
func (h *Hub) fanout(roomCode, playerID, action string, data interface{}) {
	b, err := json.Marshal(outbound{Action: action, Data: data})
	if err != nil {
		h.log.Error("encode push failed", zap.String("action", action), zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.rooms[roomCode] {
		if playerID != "" && cl.playerID != playerID {
			continue
		}
		select {
		case cl.send <- b:
		default:
			// closing the socket ends its read loop, which detaches it
			h.log.Warn("dropping slow client", zap.String("conn_id", cl.id), zap.String("room_code", roomCode))
			_ = cl.conn.Close()
		}
	}
}

func (h *Hub) reply(cl *client, action string, data interface{}) {
	b, err := json.Marshal(outbound{Action: action, Data: data})
	if err != nil {
		h.log.Error("encode reply failed", zap.String("action", action), zap.Error(err))
		return
	}
	select {
	case cl.send <- b:
	default:
	}
}

func (h *Hub) fail(cl *client, code, msg string) {
	h.reply(cl, "error", errorBody{Code: code, Message: msg})
}
