package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (h *RoomHub) writePump(ctx context.Context, c *RoomConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "hub").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Warn().Str("module", "hub").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "hub").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "hub").Msg("writePump write error")
				return
			}
		}
	}
}

func (h *RoomHub) readPump(ctx context.Context, c *RoomConn) {
	defer func() {
		log.Info().Str("module", "hub").Str("sid", string(c.sid)).Msg("readPump closing")
		h.handleDisconnect(c)
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "hub").Str("sid", string(c.sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Error().Err(err).Str("module", "hub").Str("sid", string(c.sid)).Msg("readPump read error")
				return
			}
			h.handleMessage(c, data)
		}
	}
}

func (h *RoomHub) handleMessage(c *RoomConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		h.handleJoin(c, data)
	case "vote":
		h.handleVote(c, data)
	case "update_room":
		h.handleUpdateRoom(c, data)
	case "update_user":
		h.handleUpdateUser(c, data)
	case "reset_votes":
		h.handleResetVotes(c)
	case "request_reset":
		h.handleRequestReset(c)
	case "cancel_reset":
		h.handleCancelReset(c)
	case "remove_user":
		h.handleRemoveUser(c, data)
	case "ping":
		h.handlePing(c)
	default:
		log.Warn().Str("module", "hub").Str("type", env.Type).Msg("unknown message")
	}
}

func (h *RoomHub) sendJSON(c *RoomConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// handleDisconnect feeds the transport-loss notification back into the
// engine and broadcasts the surviving snapshot, if the room survived.
func (h *RoomHub) handleDisconnect(c *RoomConn) {
	h.unsubscribe(c)
	if state := h.Engine.Disconnect(c.sid); state != nil {
		h.BroadcastRoom(state)
	}
}
