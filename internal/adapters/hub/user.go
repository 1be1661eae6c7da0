package hub

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pointdeck/pointdeck/internal/domain"
)

func (h *RoomHub) handleVote(c *RoomConn, data []byte) {
	type votePayload struct {
		Type string `json:"type"`
		Vote string `json:"vote"`
	}
	var p votePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("bad vote payload")
		h.sendError(c, "bad_payload")
		return
	}
	h.BroadcastRoom(h.Engine.SubmitVote(p.Vote, c.sid))
}

func (h *RoomHub) handleUpdateUser(c *RoomConn, data []byte) {
	type updatePayload struct {
		Type    string             `json:"type"`
		Options domain.UserOptions `json:"options"`
	}
	var p updatePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("bad update_user payload")
		h.sendError(c, "bad_payload")
		return
	}
	h.BroadcastRoom(h.Engine.UpdateUser(p.Options, c.sid))
}

func (h *RoomHub) handleRemoveUser(c *RoomConn, data []byte) {
	type removePayload struct {
		Type   string    `json:"type"`
		UserID uuid.UUID `json:"userId"`
	}
	var p removePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "hub").Msg("bad remove_user payload")
		h.sendError(c, "bad_payload")
		return
	}
	if p.UserID == uuid.Nil {
		h.sendError(c, "bad_payload")
		return
	}
	h.BroadcastRoom(h.Engine.RemoveUser(p.UserID, c.sid))
}
