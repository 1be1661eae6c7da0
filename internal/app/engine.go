package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pointdeck/pointdeck/internal/domain"
)

// Engine implements every room state transition as "read the committed
// snapshot, compute the next one, commit atomically" under the room's
// lock. A nil result means nothing was committed and nothing should be
// broadcast; an unchanged snapshot may come back for rejected privileged
// operations, so unauthorized callers cannot tell a rejection from a
// legitimate no-op.
type Engine struct {
	store      *RoomStore
	resetDelay time.Duration
	now        func() time.Time
}

func NewEngine(store *RoomStore, resetDelay time.Duration) *Engine {
	return &Engine{store: store, resetDelay: resetDelay, now: time.Now}
}

// JoinRoom adds a user to a room, creating the room on first join. The
// first-ever member of a brand-new room is forced to Facilitator; a user
// already present is replaced in place, keeping their position.
func (e *Engine) JoinRoom(roomID string, user domain.User, conn ConnID) *domain.RoomState {
	user.Name = domain.TruncateName(user.Name)
	if user.Role == (domain.Role{}) {
		user.Role = domain.TeamMember
	}

	e.store.Bind(conn, roomID, user.ID)

	var result *domain.RoomState
	_ = e.store.WithRoomLock(roomID, func() error {
		current, ok := e.store.Snapshot(roomID)
		if !ok {
			next := domain.NewRoomState(roomID, []domain.User{user.WithRole(domain.Facilitator)})
			result = e.commit(roomID, nil, next)
			return nil
		}

		users := make([]domain.User, 0, len(current.Users)+1)
		replaced := false
		for _, u := range current.Users {
			if u.ID == user.ID {
				users = append(users, user)
				replaced = true
				continue
			}
			users = append(users, u)
		}
		if !replaced {
			users = append(users, user)
		}
		result = e.commit(roomID, current, current.WithUsers(users))
		return nil
	})
	log.Info().Str("module", "app.engine").Str("room", RoomKey(roomID)).Str("user", user.ID.String()).Msg("user joined")
	return result
}

// Disconnect removes the connection's user from their room. The room is
// deleted the instant its member list becomes empty, in which case nil
// is returned and nothing is broadcast.
func (e *Engine) Disconnect(conn ConnID) *domain.RoomState {
	roomKey, userID, ok := e.store.Unbind(conn)
	if !ok {
		return nil
	}

	var result *domain.RoomState
	_ = e.store.WithRoomLock(roomKey, func() error {
		current, ok := e.store.Snapshot(roomKey)
		if !ok {
			return nil
		}
		users := make([]domain.User, 0, len(current.Users))
		for _, u := range current.Users {
			if u.ID != userID {
				users = append(users, u)
			}
		}
		if len(users) == 0 {
			e.store.CompareAndCommit(roomKey, current, nil)
			return nil
		}
		result = e.commit(roomKey, current, current.WithUsers(users))
		return nil
	})
	return result
}

// SubmitVote records the caller's vote if it is one of the room's vote
// options, then evaluates auto-reveal.
func (e *Engine) SubmitVote(vote string, conn ConnID) *domain.RoomState {
	return e.update(conn, func(current domain.RoomState, actor domain.User) domain.RoomState {
		if !current.HasValidVoteOption(vote) {
			return current
		}
		next := current.MapUsers(func(u domain.User) domain.User {
			if u.ID == actor.ID {
				return u.WithVote(vote, current.VotesShown)
			}
			return u
		})
		return autoReveal(next)
	})
}

// UpdateRoom applies a facilitator's partial room-option overlay.
// Turning VotesShown off while AutoShowVotes is on also turns
// AutoShowVotes off; leaving VotesShown unspecified re-evaluates the
// auto-reveal rule against the new options.
func (e *Engine) UpdateRoom(opts domain.RoomOptions, conn ConnID) *domain.RoomState {
	return e.update(conn, func(current domain.RoomState, actor domain.User) domain.RoomState {
		if actor.Role != domain.Facilitator {
			return current
		}
		next := current
		if opts.AutoShowVotes != nil {
			next.AutoShowVotes = *opts.AutoShowVotes
		}
		if len(opts.VoteOptions) > 0 {
			next.VoteOptions = append([]string(nil), opts.VoteOptions...)
		}
		if opts.VotesShown != nil {
			next.VotesShown = *opts.VotesShown
			if !next.VotesShown && next.AutoShowVotes {
				next.AutoShowVotes = false
			}
		} else {
			next = autoReveal(next)
		}
		return next
	})
}

// UpdateUser applies a partial overlay to the calling user only.
func (e *Engine) UpdateUser(opts domain.UserOptions, conn ConnID) *domain.RoomState {
	return e.update(conn, func(current domain.RoomState, actor domain.User) domain.RoomState {
		return current.MapUsers(func(u domain.User) domain.User {
			if u.ID == actor.ID {
				return u.Apply(opts)
			}
			return u
		})
	})
}

// ResetVotes clears every member's vote, hides votes, stamps the start
// of the new voting round and clears any pending reset request.
// Facilitator only.
func (e *Engine) ResetVotes(conn ConnID) *domain.RoomState {
	return e.update(conn, func(current domain.RoomState, actor domain.User) domain.RoomState {
		if actor.Role != domain.Facilitator {
			return current
		}
		return e.resetTransition(current)
	})
}

func (e *Engine) resetTransition(current domain.RoomState) domain.RoomState {
	next := current.MapUsers(domain.User.ClearVote)
	next.VotesShown = false
	now := e.now()
	next.VoteStartTime = &now
	next.ResetVotesRequestedAt = nil
	next.ResetVotesRequestedBy = nil
	return next
}

// fireElapsedReset performs the reset a countdown was armed for. The
// elapsed check is repeated under the lock because the request may have
// been cancelled between the scheduler's scan and now.
func (e *Engine) fireElapsedReset(roomID string) *domain.RoomState {
	var result *domain.RoomState
	_ = e.store.WithRoomLock(roomID, func() error {
		current, ok := e.store.Snapshot(roomID)
		if !ok || current.ResetVotesRequestedAt == nil {
			return nil
		}
		if e.now().Before(*current.ResetVotesRequestedAt) {
			return nil
		}
		result = e.commit(roomID, current, e.resetTransition(*current))
		return nil
	})
	return result
}

// RequestResetVotes arms the reset countdown: a target completion time
// the scheduler polls, not an immediate reset. Facilitator only.
func (e *Engine) RequestResetVotes(conn ConnID) *domain.RoomState {
	return e.update(conn, func(current domain.RoomState, actor domain.User) domain.RoomState {
		if actor.Role != domain.Facilitator {
			return current
		}
		next := current
		at := e.now().Add(e.resetDelay)
		next.ResetVotesRequestedAt = &at
		by := actor.ID
		next.ResetVotesRequestedBy = &by
		return next
	})
}

// CancelResetVotes disarms a pending reset countdown. Facilitator only.
func (e *Engine) CancelResetVotes(conn ConnID) *domain.RoomState {
	return e.update(conn, func(current domain.RoomState, actor domain.User) domain.RoomState {
		if actor.Role != domain.Facilitator {
			return current
		}
		next := current
		next.ResetVotesRequestedAt = nil
		next.ResetVotesRequestedBy = nil
		return next
	})
}

// RemoveUser demotes the target user to Observer. They stay listed in
// the room; only their vote stops counting. Facilitator only.
func (e *Engine) RemoveUser(target uuid.UUID, conn ConnID) *domain.RoomState {
	return e.update(conn, func(current domain.RoomState, actor domain.User) domain.RoomState {
		if actor.Role != domain.Facilitator {
			return current
		}
		return current.MapUsers(func(u domain.User) domain.User {
			if u.ID == target {
				return u.WithRole(domain.Observer)
			}
			return u
		})
	})
}

// NewUserRole is the default role for a prospective joiner: Facilitator
// if the room does not exist or has no facilitator, TeamMember
// otherwise.
func (e *Engine) NewUserRole(roomID string) domain.Role {
	role := domain.TeamMember
	_ = e.store.WithRoomLock(roomID, func() error {
		current, ok := e.store.Snapshot(roomID)
		if !ok || len(current.Facilitators()) == 0 {
			role = domain.Facilitator
		}
		return nil
	})
	return role
}

// update is the shared transactional protocol: resolve the connection,
// take the room lock, run the pure transition on the committed snapshot,
// commit the result.
func (e *Engine) update(conn ConnID, transition func(domain.RoomState, domain.User) domain.RoomState) *domain.RoomState {
	roomKey, userID, ok := e.store.Lookup(conn)
	if !ok {
		return nil
	}

	var result *domain.RoomState
	_ = e.store.WithRoomLock(roomKey, func() error {
		current, ok := e.store.Snapshot(roomKey)
		if !ok {
			return nil
		}
		actor, ok := current.FindUser(userID)
		if !ok {
			return nil
		}
		result = e.commit(roomKey, current, transition(*current, actor))
		return nil
	})
	return result
}

// commit publishes next as the room's snapshot. Must be called with the
// room lock held.
func (e *Engine) commit(roomID string, expected *domain.RoomState, next domain.RoomState) *domain.RoomState {
	committed := &next
	if !e.store.CompareAndCommit(roomID, expected, committed) {
		log.Warn().Str("module", "app.engine").Str("room", RoomKey(roomID)).Msg("commit lost race")
		return nil
	}
	return committed
}

// autoReveal is the one cross-cutting rule: with auto-show on, the
// moment every team member has voted the votes are forced visible.
func autoReveal(r domain.RoomState) domain.RoomState {
	if r.AutoShowVotes && !r.VotesShown && r.AllTeamMembersVoted() {
		r.VotesShown = true
	}
	return r
}
