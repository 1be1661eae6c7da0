package hub

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pointdeck/pointdeck/internal/domain"
)

func (h *RoomHub) handleJoin(c *RoomConn, data []byte) {
	type joinPayload struct {
		Type string `json:"type"`
		Room string `json:"room"`
		User struct {
			ID     uuid.UUID  `json:"id"`
			Name   string     `json:"name"`
			RoleID *uuid.UUID `json:"roleId,omitempty"`
		} `json:"user"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("bad join payload")
		h.sendError(c, "bad_payload")
		return
	}
	if p.Room == "" || p.User.ID == uuid.Nil {
		h.sendError(c, "bad_payload")
		return
	}

	user, err := domain.NewUser(p.User.ID, p.User.Name)
	if err != nil {
		h.sendError(c, "invalid_name")
		return
	}
	if p.User.RoleID != nil {
		if role := domain.RoleFromID(*p.User.RoleID); role != nil {
			user = user.WithRole(*role)
		}
	}

	state := h.Engine.JoinRoom(p.Room, user, c.sid)
	if state == nil {
		return
	}
	h.subscribe(state.RoomID, c)
	h.BroadcastRoom(state)
}

func (h *RoomHub) handleUpdateRoom(c *RoomConn, data []byte) {
	type updatePayload struct {
		Type    string             `json:"type"`
		Options domain.RoomOptions `json:"options"`
	}
	var p updatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("bad update_room payload")
		h.sendError(c, "bad_payload")
		return
	}
	h.BroadcastRoom(h.Engine.UpdateRoom(p.Options, c.sid))
}

func (h *RoomHub) handleResetVotes(c *RoomConn) {
	h.BroadcastRoom(h.Engine.ResetVotes(c.sid))
}

func (h *RoomHub) handleRequestReset(c *RoomConn) {
	h.BroadcastRoom(h.Engine.RequestResetVotes(c.sid))
}

func (h *RoomHub) handleCancelReset(c *RoomConn) {
	h.BroadcastRoom(h.Engine.CancelResetVotes(c.sid))
}

func (h *RoomHub) sendError(c *RoomConn, msg string) {
	h.sendJSON(c, map[string]any{
		"type":  "error",
		"error": msg,
	})
}
