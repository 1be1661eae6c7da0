package app

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointdeck/pointdeck/internal/domain"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(NewRoomStore(), 5*time.Second)
}

func join(t *testing.T, e *Engine, roomID, name string, conn ConnID) *domain.RoomState {
	t.Helper()
	user, err := domain.NewUser(uuid.New(), name)
	require.NoError(t, err)
	state := e.JoinRoom(roomID, user, conn)
	require.NotNil(t, state)
	return state
}

func TestJoinRoom_NewRoom_FirstUserIsFacilitator(t *testing.T) {
	e := setupEngine(t)

	state := join(t, e, "room1", "User 1", "conn1")

	assert.Equal(t, "room1", state.RoomID)
	require.Len(t, state.Users, 1)
	assert.Equal(t, domain.Facilitator, state.Users[0].Role)
	assert.True(t, state.AutoShowVotes)
	assert.Equal(t, domain.DefaultVoteOptions, state.VoteOptions)
}

func TestJoinRoom_FirstUserForcedFacilitator_IgnoresRequestedRole(t *testing.T) {
	e := setupEngine(t)

	user, err := domain.NewUser(uuid.New(), "User 1")
	require.NoError(t, err)
	state := e.JoinRoom("room1", user.WithRole(domain.Observer), "conn1")

	require.NotNil(t, state)
	assert.Equal(t, domain.Facilitator, state.Users[0].Role)
}

func TestJoinRoom_ExistingRoom_AppendsTeamMember(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	state := join(t, e, "room1", "User 2", "conn2")

	require.Len(t, state.Users, 2)
	assert.Equal(t, domain.Facilitator, state.Users[0].Role)
	assert.Equal(t, domain.TeamMember, state.Users[1].Role)
	assert.Equal(t, "User 2", state.Users[1].Name)
}

func TestJoinRoom_SameUser_ReplacedInPlace(t *testing.T) {
	e := setupEngine(t)

	first := join(t, e, "room1", "User 1", "conn1")
	_ = join(t, e, "room1", "User 2", "conn2")

	rejoin := first.Users[0]
	rejoin.Name = "Renamed"
	state := e.JoinRoom("room1", rejoin, "conn1")

	require.NotNil(t, state)
	require.Len(t, state.Users, 2)
	assert.Equal(t, "Renamed", state.Users[0].Name)
	assert.Equal(t, first.Users[0].ID, state.Users[0].ID)
}

func TestJoinRoom_CaseInsensitive_PreservesOriginalCasing(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "Room1", "User 1", "conn1")
	state := join(t, e, "ROOM1", "User 2", "conn2")

	assert.Equal(t, "Room1", state.RoomID)
	assert.Len(t, state.Users, 2)
}

func TestJoinRoom_LongName_Truncated(t *testing.T) {
	e := setupEngine(t)

	long := make([]byte, 60)
	for i := range long {
		long[i] = 'a'
	}
	state := join(t, e, "room1", string(long), "conn1")

	assert.Len(t, state.Users[0].Name, domain.MaxUserNameLen)
}

func TestJoinRoom_NoDuplicateUserIDs(t *testing.T) {
	e := setupEngine(t)

	user, err := domain.NewUser(uuid.New(), "User 1")
	require.NoError(t, err)
	_ = e.JoinRoom("room1", user, "conn1")
	// Same user joining again from a new connection.
	state := e.JoinRoom("room1", user, "conn2")

	require.NotNil(t, state)
	assert.Len(t, state.Users, 1)
}

func TestDisconnect_RemovesUserFromRoom(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	second := join(t, e, "room1", "User 2", "conn2")

	state := e.Disconnect("conn1")

	require.NotNil(t, state)
	require.Len(t, state.Users, 1)
	assert.Equal(t, second.Users[1].ID, state.Users[0].ID)
}

func TestDisconnect_LastUser_DeletesRoom(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	state := e.Disconnect("conn1")

	assert.Nil(t, state)
	_, ok := e.store.Snapshot("room1")
	assert.False(t, ok)
	// A subsequent joiner sees a brand-new room.
	assert.Equal(t, domain.Facilitator, e.NewUserRole("room1"))
}

func TestDisconnect_UnknownConnection_IsNoOp(t *testing.T) {
	e := setupEngine(t)

	assert.Nil(t, e.Disconnect("nope"))
}

func TestSubmitVote_SetsVoteAndOriginalVote(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	state := e.SubmitVote("1", "conn1")

	require.NotNil(t, state)
	require.NotNil(t, state.Users[0].Vote)
	require.NotNil(t, state.Users[0].OriginalVote)
	assert.Equal(t, "1", *state.Users[0].Vote)
	assert.Equal(t, "1", *state.Users[0].OriginalVote)
}

func TestSubmitVote_InvalidOption_LeavesVotesUnchanged(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	state := e.SubmitVote("not-an-option", "conn1")

	require.NotNil(t, state)
	assert.Nil(t, state.Users[0].Vote)
	assert.Nil(t, state.Users[0].OriginalVote)
}

func TestSubmitVote_AfterReveal_KeepsOriginalVote(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	_ = e.SubmitVote("1", "conn1")
	shown := true
	_ = e.UpdateRoom(domain.RoomOptions{VotesShown: &shown}, "conn1")

	state := e.SubmitVote("2", "conn1")

	require.NotNil(t, state)
	assert.Equal(t, "2", *state.Users[0].Vote)
	assert.Equal(t, "1", *state.Users[0].OriginalVote)
}

func TestSubmitVote_AfterReset_SetsBothAgain(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	_ = e.SubmitVote("1", "conn1")
	shown := true
	_ = e.UpdateRoom(domain.RoomOptions{VotesShown: &shown}, "conn1")
	_ = e.ResetVotes("conn1")

	state := e.SubmitVote("3", "conn1")

	require.NotNil(t, state)
	assert.Equal(t, "3", *state.Users[0].Vote)
	assert.Equal(t, "3", *state.Users[0].OriginalVote)
}

func TestSubmitVote_UnknownConnection_IsNoOp(t *testing.T) {
	e := setupEngine(t)

	assert.Nil(t, e.SubmitVote("1", "nope"))
}

func TestSubmitVote_AutoReveal_FiresWhenAllTeamMembersVoted(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	_ = join(t, e, "room1", "Member 1", "tm1")
	_ = join(t, e, "room1", "Member 2", "tm2")

	state := e.SubmitVote("1", "tm1")
	require.NotNil(t, state)
	assert.False(t, state.VotesShown)

	state = e.SubmitVote("1", "tm2")
	require.NotNil(t, state)
	assert.True(t, state.VotesShown)
}

func TestSubmitVote_AutoRevealOff_VotesStayHidden(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	_ = join(t, e, "room1", "Member 1", "tm1")
	auto := false
	_ = e.UpdateRoom(domain.RoomOptions{AutoShowVotes: &auto}, "fac")

	state := e.SubmitVote("1", "tm1")

	require.NotNil(t, state)
	assert.False(t, state.VotesShown)
}

func TestUpdateRoom_EnablingAutoShow_RevealsIfAllVoted(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "UserA", "fac")
	_ = join(t, e, "room1", "UserB", "tm1")
	auto := false
	_ = e.UpdateRoom(domain.RoomOptions{AutoShowVotes: &auto}, "fac")

	state := e.SubmitVote("5", "tm1")
	require.NotNil(t, state)
	require.False(t, state.VotesShown)

	auto = true
	state = e.UpdateRoom(domain.RoomOptions{AutoShowVotes: &auto}, "fac")

	require.NotNil(t, state)
	assert.True(t, state.VotesShown)
}

func TestUpdateRoom_ByTeamMember_IsRejectedUnchanged(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	_ = join(t, e, "room1", "Member", "tm1")

	shown := true
	state := e.UpdateRoom(domain.RoomOptions{VotesShown: &shown}, "tm1")

	// Rejection is indistinguishable from a no-op: the unchanged room
	// comes back and is still broadcast.
	require.NotNil(t, state)
	assert.False(t, state.VotesShown)
}

func TestUpdateRoom_HidingVotes_DisablesAutoShow(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	require.True(t, mustSnapshot(t, e, "room1").AutoShowVotes)

	shown := false
	state := e.UpdateRoom(domain.RoomOptions{VotesShown: &shown}, "fac")

	require.NotNil(t, state)
	assert.False(t, state.VotesShown)
	assert.False(t, state.AutoShowVotes)
}

func TestUpdateRoom_EmptyVoteOptions_Ignored(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	state := e.UpdateRoom(domain.RoomOptions{VoteOptions: []string{}}, "fac")

	require.NotNil(t, state)
	assert.Equal(t, domain.DefaultVoteOptions, state.VoteOptions)
}

func TestUpdateRoom_ReplacesVoteOptions(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	state := e.UpdateRoom(domain.RoomOptions{VoteOptions: domain.PresetTShirtSizes}, "fac")

	require.NotNil(t, state)
	assert.Equal(t, domain.PresetTShirtSizes, state.VoteOptions)
}

func TestUpdateUser_RenameAndRole(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	state := join(t, e, "room1", "Member", "tm1")
	memberID := state.Users[1].ID

	name := "Watcher"
	roleID := domain.Observer.ID
	state2 := e.UpdateUser(domain.UserOptions{Name: &name, RoleID: &roleID}, "tm1")

	require.NotNil(t, state2)
	u, ok := state2.FindUser(memberID)
	require.True(t, ok)
	assert.Equal(t, "Watcher", u.Name)
	assert.Equal(t, domain.Observer, u.Role)
	// The other user is untouched.
	assert.Equal(t, domain.Facilitator, state2.Users[0].Role)
}

func TestUpdateUser_UnknownRoleID_Ignored(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "User 1", "conn1")
	bogus := uuid.New()
	state := e.UpdateUser(domain.UserOptions{RoleID: &bogus}, "conn1")

	require.NotNil(t, state)
	assert.Equal(t, domain.Facilitator, state.Users[0].Role)
}

func TestResetVotes_ClearsVotesAndStampsRound(t *testing.T) {
	e := setupEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return start }

	_ = join(t, e, "room1", "Facilitator", "fac")
	state := join(t, e, "room1", "Member", "tm1")
	_ = e.SubmitVote(state.VoteOptions[0], "tm1")
	shown := true
	_ = e.UpdateRoom(domain.RoomOptions{VotesShown: &shown}, "fac")

	reset := e.ResetVotes("fac")

	require.NotNil(t, reset)
	assert.False(t, reset.VotesShown)
	for _, u := range reset.Users {
		assert.Nil(t, u.Vote)
		assert.Nil(t, u.OriginalVote)
	}
	require.NotNil(t, reset.VoteStartTime)
	assert.Equal(t, start, *reset.VoteStartTime)
}

func TestResetVotes_ByTeamMember_IsRejectedUnchanged(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	state := join(t, e, "room1", "Member", "tm1")
	vote := state.VoteOptions[0]
	_ = e.SubmitVote(vote, "tm1")

	rejected := e.ResetVotes("tm1")

	require.NotNil(t, rejected)
	member, ok := rejected.FindUser(state.Users[1].ID)
	require.True(t, ok)
	require.NotNil(t, member.Vote)
	assert.Equal(t, vote, *member.Vote)
}

func TestRequestResetVotes_ArmsCountdown(t *testing.T) {
	e := setupEngine(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return start }

	first := join(t, e, "room1", "Facilitator", "fac")
	state := e.RequestResetVotes("fac")

	require.NotNil(t, state)
	require.NotNil(t, state.ResetVotesRequestedAt)
	assert.Equal(t, start.Add(5*time.Second), *state.ResetVotesRequestedAt)
	require.NotNil(t, state.ResetVotesRequestedBy)
	assert.Equal(t, first.Users[0].ID, *state.ResetVotesRequestedBy)
}

func TestCancelResetVotes_DisarmsCountdown(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	_ = e.RequestResetVotes("fac")
	state := e.CancelResetVotes("fac")

	require.NotNil(t, state)
	assert.Nil(t, state.ResetVotesRequestedAt)
	assert.Nil(t, state.ResetVotesRequestedBy)
}

func TestRequestResetVotes_ByTeamMember_IsRejectedUnchanged(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "Facilitator", "fac")
	_ = join(t, e, "room1", "Member", "tm1")

	state := e.RequestResetVotes("tm1")

	require.NotNil(t, state)
	assert.Nil(t, state.ResetVotesRequestedAt)
}

func TestRemoveUser_DemotesToObserver(t *testing.T) {
	e := setupEngine(t)

	_ = join(t, e, "room1", "UserA", "fac")
	state := join(t, e, "room1", "UserB", "tm1")
	targetID := state.Users[1].ID

	demoted := e.RemoveUser(targetID, "fac")

	require.NotNil(t, demoted)
	// Still listed, no longer a team member.
	require.Len(t, demoted.Users, 2)
	u, ok := demoted.FindUser(targetID)
	require.True(t, ok)
	assert.Equal(t, domain.Observer, u.Role)
	assert.Empty(t, demoted.TeamMembers())
	assert.Len(t, demoted.Observers(), 1)
}

func TestRemoveUser_ByTeamMember_IsRejectedUnchanged(t *testing.T) {
	e := setupEngine(t)

	first := join(t, e, "room1", "UserA", "fac")
	_ = join(t, e, "room1", "UserB", "tm1")

	state := e.RemoveUser(first.Users[0].ID, "tm1")

	require.NotNil(t, state)
	assert.Equal(t, domain.Facilitator, state.Users[0].Role)
}

func TestNewUserRole(t *testing.T) {
	e := setupEngine(t)

	assert.Equal(t, domain.Facilitator, e.NewUserRole("missing"))

	_ = join(t, e, "room1", "User 1", "conn1")
	assert.Equal(t, domain.TeamMember, e.NewUserRole("room1"))

	// Facilitator steps down; the next joiner should take over.
	roleID := domain.Observer.ID
	_ = e.UpdateUser(domain.UserOptions{RoleID: &roleID}, "conn1")
	assert.Equal(t, domain.Facilitator, e.NewUserRole("room1"))
}

func mustSnapshot(t *testing.T, e *Engine, roomID string) *domain.RoomState {
	t.Helper()
	state, ok := e.store.Snapshot(roomID)
	require.True(t, ok)
	return state
}
