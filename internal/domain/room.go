package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoomState is one immutable snapshot of a room. It is the unit of atomic
// commit in the store and the exact payload broadcast to every member.
// RoomID keeps the casing used by whichever connection created the room;
// lookup is case-insensitive and lives in the store.
type RoomState struct {
	RoomID                string     `json:"roomId"`
	Users                 []User     `json:"users"`
	VotesShown            bool       `json:"votesShown"`
	AutoShowVotes         bool       `json:"autoShowVotes"`
	VoteOptions           []string   `json:"voteOptions"`
	VoteStartTime         *time.Time `json:"voteStartTime,omitempty"`
	ResetVotesRequestedAt *time.Time `json:"resetVotesRequestedAt,omitempty"`
	ResetVotesRequestedBy *uuid.UUID `json:"resetVotesRequestedBy,omitempty"`
}

func NewRoomState(roomID string, users []User) RoomState {
	return RoomState{
		RoomID:        roomID,
		Users:         users,
		AutoShowVotes: true,
		VoteOptions:   DefaultVoteOptions,
	}
}

// RoomOptions is a partial overlay for facilitator room updates. Nil
// fields are left untouched; an empty VoteOptions slice is ignored.
type RoomOptions struct {
	VotesShown    *bool    `json:"votesShown,omitempty"`
	AutoShowVotes *bool    `json:"autoShowVotes,omitempty"`
	VoteOptions   []string `json:"voteOptions,omitempty"`
}

func (r RoomState) TeamMembers() []User  { return r.usersByRole(TeamMember) }
func (r RoomState) Facilitators() []User { return r.usersByRole(Facilitator) }
func (r RoomState) Observers() []User    { return r.usersByRole(Observer) }

func (r RoomState) usersByRole(role Role) []User {
	out := make([]User, 0, len(r.Users))
	for _, u := range r.Users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out
}

func (r RoomState) FindUser(id uuid.UUID) (User, bool) {
	for _, u := range r.Users {
		if u.ID == id {
			return u, true
		}
	}
	return User{}, false
}

func (r RoomState) HasValidVoteOption(vote string) bool {
	for _, opt := range r.VoteOptions {
		if opt == vote {
			return true
		}
	}
	return false
}

// WithUsers derives a snapshot with a replacement member list. The slice
// is owned by the new snapshot; callers must not retain it.
func (r RoomState) WithUsers(users []User) RoomState {
	r.Users = users
	return r
}

// MapUsers derives a snapshot with fn applied to every member, preserving
// order.
func (r RoomState) MapUsers(fn func(User) User) RoomState {
	users := make([]User, len(r.Users))
	for i, u := range r.Users {
		users[i] = fn(u)
	}
	r.Users = users
	return r
}

// AllTeamMembersVoted reports whether the team-member view is non-empty
// and every member of it has a vote. Observers and facilitators do not
// count.
func (r RoomState) AllTeamMembersVoted() bool {
	members := r.TeamMembers()
	if len(members) == 0 {
		return false
	}
	for _, u := range members {
		if u.Vote == nil {
			return false
		}
	}
	return true
}
