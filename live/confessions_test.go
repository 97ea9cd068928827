package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unihive/unihive/model"
)

func TestConfessionsAddAndLoad(t *testing.T) {
	env := newTestEnv(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.True(t, board.Loading())
	assert.Nil(t, board.Load())
	assert.False(t, board.Loading())
	assert.Empty(t, board.Confessions())

	assert.Nil(t, board.Add("signed confession", false))
	assert.Nil(t, board.Add("anonymous confession", true))

	list := board.Confessions()
	assert.Equal(t, 2, len(list))
	assert.Equal(t, 2, len(env.notifier.Successes))
	assert.Empty(t, env.notifier.Errors)
}

func TestConfessionAnonymityHoldsAcrossReload(t *testing.T) {
	env := newTestEnv(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())
	assert.Nil(t, board.Add("my secret", true))

	// The local view never carries the author.
	for _, v := range board.Confessions() {
		assert.True(t, v.IsAnonymous)
		assert.Empty(t, v.Author)
	}

	// Neither does the stored row: there is no author reference to recover.
	rows, err := env.store.ListConfessions()
	assert.Nil(t, err)
	assert.Equal(t, 1, len(rows))
	assert.Nil(t, rows[0].AuthorID)

	assert.Nil(t, board.Load())
	assert.Empty(t, board.Confessions()[0].Author)
}

func TestConfessionSignedCarriesNickname(t *testing.T) {
	env := newTestEnv(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())
	assert.Nil(t, board.Add("hello campus", false))

	assert.Equal(t, "self", board.Confessions()[0].Author)

	assert.Nil(t, board.Load())
	assert.Equal(t, "self", board.Confessions()[0].Author)
}

func TestToggleUpvoteRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())
	assert.Nil(t, board.Add("upvote me", false))
	id := board.Confessions()[0].Id

	assert.Nil(t, board.ToggleUpvote(id))
	v := board.Confessions()[0]
	assert.True(t, v.HasUpvoted)
	assert.Equal(t, 1, v.Upvotes)

	// Reload agrees with the optimistic state.
	assert.Nil(t, board.Load())
	v = board.Confessions()[0]
	assert.True(t, v.HasUpvoted)
	assert.Equal(t, 1, v.Upvotes)

	assert.Nil(t, board.ToggleUpvote(id))
	v = board.Confessions()[0]
	assert.False(t, v.HasUpvoted)
	assert.Equal(t, 0, v.Upvotes)
}

func TestToggleUpvoteRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())
	assert.Nil(t, board.Add("contested", false))
	id := board.Confessions()[0].Id

	// Sneak the join row in behind the cache's back so the optimistic
	// insert collides with the primary key and the backend write fails.
	assert.Nil(t, env.store.DB.Create(&model.ConfessionUpvote{
		ConfessionID: id,
		UserID:       self,
	}).Error)

	var states []MutationState
	err := board.toggleUpvote(id, func(s MutationState) { states = append(states, s) })
	assert.NotNil(t, err)
	assert.True(t, IsNetworkError(err))

	assert.Equal(t, []MutationState{
		MutationActing,
		MutationRollingBack,
		MutationUnacted,
	}, states)

	// Local state is back to the pre-attempt values.
	v := board.Confessions()[0]
	assert.False(t, v.HasUpvoted)
	assert.Equal(t, 0, v.Upvotes)
	assert.Equal(t, 1, len(env.notifier.Errors))
}

func TestToggleUpvoteStateTransitionsOnSuccess(t *testing.T) {
	env := newTestEnv(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())
	assert.Nil(t, board.Add("smooth", false))
	id := board.Confessions()[0].Id

	var states []MutationState
	assert.Nil(t, board.toggleUpvote(id, func(s MutationState) { states = append(states, s) }))
	assert.Equal(t, []MutationState{MutationActing, MutationActed}, states)
}

func TestConfessionFilters(t *testing.T) {
	env := newTestEnv(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())
	assert.Nil(t, board.Add("older", false))
	assert.Nil(t, board.Add("newer", false))

	older := board.Confessions()[0].Id
	for _, v := range board.Confessions() {
		if v.Content == "older" {
			older = v.Id
		}
	}
	assert.Nil(t, board.ToggleUpvote(older))

	board.SetFilter(FilterTrending)
	assert.Equal(t, "older", board.Confessions()[0].Content)

	board.SetFilter(FilterNewest)
	assert.Equal(t, "newer", board.Confessions()[0].Content)
}

func TestConfessionAddRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	board := NewConfessions(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())

	env.session.Logout()
	assert.NotNil(t, board.Add("orphan", false))
	assert.Equal(t, 1, len(env.notifier.Errors))
	assert.Empty(t, board.Confessions())
}
