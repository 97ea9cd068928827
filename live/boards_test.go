package live

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/unihive/unihive/model"
)

func TestHustlesCategoryFilterIsLocal(t *testing.T) {
	env := newTestEnv(t)

	board := NewHustles(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())

	assert.Nil(t, board.Add("TA wanted", "intro CS course", model.HustleCategoryTutoring, ""))
	assert.Nil(t, board.Add("startup gig", "join our team", model.HustleCategoryProject, "founder@campus.edu"))

	assert.Equal(t, 2, len(board.Hustles()))

	board.SetCategoryFilter(model.HustleCategoryTutoring)
	filtered := board.Hustles()
	assert.Equal(t, 1, len(filtered))
	assert.Equal(t, "TA wanted", filtered[0].Title)
	assert.Equal(t, "self", filtered[0].PostedBy)

	board.SetCategoryFilter("")
	assert.Equal(t, 2, len(board.Hustles()))
}

func TestHustlesAddValidation(t *testing.T) {
	env := newTestEnv(t)

	board := NewHustles(env.store, env.session, env.notifier)
	assert.Nil(t, board.Load())

	assert.True(t, IsValidationError(board.Add("", "desc", model.HustleCategoryJob, "")))
	assert.True(t, IsValidationError(board.Add("title", "desc", "gardening", "")))
}

func TestEventsOrderedByDate(t *testing.T) {
	env := newTestEnv(t)

	listing := NewEvents(env.store, env.session, env.notifier)
	assert.Nil(t, listing.Load())

	later := time.Now().Add(48 * time.Hour)
	sooner := time.Now().Add(24 * time.Hour)
	assert.Nil(t, listing.Add("hackathon", "", later, "main hall", ""))
	assert.Nil(t, listing.Add("career fair", "", sooner, "gym", "north"))

	events := listing.Events()
	assert.Equal(t, 2, len(events))
	assert.Equal(t, "career fair", events[0].Title)
	assert.Equal(t, "hackathon", events[1].Title)

	// The stored order matches the local patch order.
	assert.Nil(t, listing.Load())
	events = listing.Events()
	assert.Equal(t, "career fair", events[0].Title)
	assert.Equal(t, "self", events[0].Organizer)
}

func TestProfilesDeckAndMatch(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	// Alice already likes us, so liking her back is a match.
	_, err := env.store.LikeProfile(alice, self)
	assert.Nil(t, err)

	deck := NewProfiles(env.store, env.session, env.notifier)
	assert.Nil(t, deck.Load())
	assert.Equal(t, 2, len(deck.Profiles()))

	current := deck.Current()
	assert.NotNil(t, current)
	deck.Next()
	next := deck.Current()
	assert.NotEqual(t, current.Id, next.Id)
	// The deck stops at the last card.
	deck.Next()
	assert.Equal(t, next.Id, deck.Current().Id)

	assert.Nil(t, deck.Like(alice))
	assert.Nil(t, deck.Like(bob))

	var aliceView, bobView *ProfileView
	for _, v := range deck.Profiles() {
		switch v.Id {
		case alice:
			aliceView = v
		case bob:
			bobView = v
		}
	}
	assert.True(t, aliceView.IsLiked)
	assert.True(t, aliceView.IsMatched)
	assert.True(t, bobView.IsLiked)
	assert.False(t, bobView.IsMatched)

	// One match announcement, one plain like notification.
	assert.Equal(t, 1, len(env.notifier.Successes))
	assert.Equal(t, 1, len(env.notifier.Infos))

	// Liking an already liked profile is a no-op.
	assert.Nil(t, deck.Like(alice))
	assert.Equal(t, 1, len(env.notifier.Successes))
}
