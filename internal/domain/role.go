package domain

import "github.com/google/uuid"

// Role is a closed enumeration: the three instances below are the only
// ones that exist, compared by ID.
type Role struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

var (
	facilitatorID = uuid.MustParse("5fea7d71-fb62-405c-823c-09752c684bf0")
	teamMemberID  = uuid.MustParse("116b133b-b16d-4a92-a3ce-ae53688e973c")
	observerID    = uuid.MustParse("a0fec1ad-caee-4fa0-8d93-d0ce970f92d7")

	Facilitator = Role{ID: facilitatorID, Name: "Facilitator"}
	TeamMember  = Role{ID: teamMemberID, Name: "Team Member"}
	Observer    = Role{ID: observerID, Name: "Observer"}
)

// RoleFromID resolves a role by its stable identifier, nil for unknown ids.
func RoleFromID(id uuid.UUID) *Role {
	switch id {
	case facilitatorID:
		r := Facilitator
		return &r
	case teamMemberID:
		r := TeamMember
		return &r
	case observerID:
		r := Observer
		return &r
	}
	return nil
}
