package hub

func (h *RoomHub) handlePing(c *RoomConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	h.sendJSON(c, resp)
}
