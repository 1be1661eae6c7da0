// Package hub bridges websocket transport to the room engine: inbound
// JSON messages become engine operations, committed snapshots fan out to
// every connection subscribed to the room.
package hub

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/pointdeck/pointdeck/internal/app"
	"github.com/pointdeck/pointdeck/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

type RoomHub struct {
	Engine *app.Engine

	ReadLimit int64

	mu   sync.RWMutex
	subs map[string]map[*RoomConn]struct{}
}

func NewRoomHub(engine *app.Engine, readLimit int64) *RoomHub {
	return &RoomHub{
		Engine:    engine,
		ReadLimit: readLimit,
		subs:      make(map[string]map[*RoomConn]struct{}),
	}
}

type RoomConn struct {
	sid  app.ConnID
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *RoomConn) TrySend(frame []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- frame:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *RoomConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

func (h *RoomHub) subscribe(roomID string, c *RoomConn) {
	key := app.RoomKey(roomID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*RoomConn]struct{})
	}
	h.subs[key][c] = struct{}{}
}

func (h *RoomHub) unsubscribe(c *RoomConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for key, conns := range h.subs {
		if _, ok := conns[c]; ok {
			delete(conns, c)
			if len(conns) == 0 {
				delete(h.subs, key)
			}
		}
	}
}

// BroadcastRoom fans a committed snapshot out to every connection
// subscribed to its room.
func (h *RoomHub) BroadcastRoom(state *domain.RoomState) {
	if state == nil {
		return
	}
	key := app.RoomKey(state.RoomID)
	h.mu.RLock()
	conns := make([]*RoomConn, 0, len(h.subs[key]))
	for c := range h.subs[key] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	payload := roomUpdated{Type: "room_updated", Room: state}
	for _, c := range conns {
		h.sendJSON(c, payload)
	}
}

type roomUpdated struct {
	Type string            `json:"type"`
	Room *domain.RoomState `json:"room"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and starts the pumps. The connection
// identity is the client token minted by the router middleware.
func (h *RoomHub) Handle(ctx context.Context, c *gin.Context) {
	sid := app.ConnID(c.GetString("client_token"))
	log.Info().Str("module", "hub").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if h.ReadLimit > 0 {
		ws.SetReadLimit(h.ReadLimit)
	}

	conn := &RoomConn{
		sid:  sid,
		conn: ws,
		send: make(chan []byte, 32),
	}

	go h.writePump(ctx, conn)
	go h.readPump(ctx, conn)
}
