// Package domain contains the room entities. Values here are immutable:
// "mutation" always derives a fresh copy, published snapshots are never
// written in place.
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxUserNameLen = 40

var ErrUserNameEmpty = errors.New("user name empty")

type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Vote         *string   `json:"vote,omitempty"`
	OriginalVote *string   `json:"originalVote,omitempty"`
}

// NewUser builds a user with the default role. Overlong names are
// truncated rather than rejected.
func NewUser(id uuid.UUID, name string) (User, error) {
	if name == "" {
		return User{}, ErrUserNameEmpty
	}
	return User{ID: id, Name: TruncateName(name), Role: TeamMember}, nil
}

// TruncateName caps a name at MaxUserNameLen characters. Counting runes,
// not bytes, so multi-byte names are never cut mid-rune.
func TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) > MaxUserNameLen {
		return string(runes[:MaxUserNameLen])
	}
	return name
}

// UserOptions is a partial overlay: nil fields are left untouched.
type UserOptions struct {
	Name   *string    `json:"name,omitempty"`
	RoleID *uuid.UUID `json:"roleId,omitempty"`
}

func (u User) WithRole(role Role) User {
	u.Role = role
	return u
}

// WithVote sets the current vote; the original vote is pinned only while
// votes are hidden, so the first vote since the last reveal sticks.
func (u User) WithVote(vote string, votesShown bool) User {
	v := vote
	u.Vote = &v
	if !votesShown {
		u.OriginalVote = &v
	}
	return u
}

func (u User) ClearVote() User {
	u.Vote = nil
	u.OriginalVote = nil
	return u
}

func (u User) Apply(opts UserOptions) User {
	if opts.Name != nil && *opts.Name != "" {
		u.Name = TruncateName(*opts.Name)
	}
	if opts.RoleID != nil {
		if role := RoleFromID(*opts.RoleID); role != nil {
			u.Role = *role
		}
	}
	return u
}
