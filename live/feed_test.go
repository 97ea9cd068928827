package live

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeedRefetchesOnChangeEvents(t *testing.T) {
	env := newTestEnv(t)

	feed := NewFeed(env.store, env.session, env.notifier)
	defer feed.Stop()
	assert.Nil(t, feed.Start(context.Background()))
	assert.Empty(t, feed.Posts())

	// AddPost does not patch the cache; the insert event triggers the
	// refetch that makes the post visible.
	assert.Nil(t, feed.AddPost("first post", ""))
	waitFor(t, func() bool { return len(feed.Posts()) == 1 })
	assert.Equal(t, "first post", feed.Posts()[0].Content)
	assert.Equal(t, "self", feed.Posts()[0].AuthorNickname)

	// A write from a different client converges the same way.
	other := env.createUser(t, "other")
	_, err := env.store.CreatePost(other, "someone else's post", "")
	assert.Nil(t, err)
	waitFor(t, func() bool { return len(feed.Posts()) == 2 })
	// Newest first.
	assert.Equal(t, "someone else's post", feed.Posts()[0].Content)
	assert.Equal(t, "other", feed.Posts()[0].AuthorNickname)
}

func TestFeedJoinsNicknamesClientSide(t *testing.T) {
	env := newTestEnv(t)

	// A post whose author row is missing renders with an empty nickname
	// instead of failing the whole reload.
	_, err := env.store.CreatePost("ghost-user", "orphan post", "")
	assert.Nil(t, err)

	feed := NewFeed(env.store, env.session, env.notifier)
	defer feed.Stop()
	assert.Nil(t, feed.Start(context.Background()))

	posts := feed.Posts()
	assert.Equal(t, 1, len(posts))
	assert.Equal(t, "", posts[0].AuthorNickname)
}

func TestFeedToggleLikeRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	feed := NewFeed(env.store, env.session, env.notifier)
	defer feed.Stop()
	assert.Nil(t, feed.Start(context.Background()))
	assert.Nil(t, feed.AddPost("like me", ""))
	waitFor(t, func() bool { return len(feed.Posts()) == 1 })
	postId := feed.Posts()[0].Id

	assert.Nil(t, feed.ToggleLike(postId))
	waitFor(t, func() bool {
		p := feed.Posts()[0]
		return p.HasLiked && p.LikesCount == 1
	})

	assert.Nil(t, feed.ToggleLike(postId))
	waitFor(t, func() bool {
		p := feed.Posts()[0]
		return !p.HasLiked && p.LikesCount == 0
	})
}

func TestFeedToggleLikeRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)

	feed := NewFeed(env.store, env.session, env.notifier)
	assert.Nil(t, feed.Start(context.Background()))
	assert.Nil(t, feed.AddPost("contested", ""))
	waitFor(t, func() bool { return len(feed.Posts()) == 1 })
	postId := feed.Posts()[0].Id

	// Stop the subscription so no refetch papers over the rollback, then
	// make the backend write fail by pre-inserting the like row.
	feed.Stop()
	assert.Nil(t, env.store.LikePost(postId, self))

	assert.NotNil(t, feed.ToggleLike(postId))
	p := feed.Posts()[0]
	assert.False(t, p.HasLiked)
	assert.Equal(t, 1, len(env.notifier.Errors))
}

func TestFeedAddComment(t *testing.T) {
	env := newTestEnv(t)

	feed := NewFeed(env.store, env.session, env.notifier)
	defer feed.Stop()
	assert.Nil(t, feed.Start(context.Background()))
	assert.Nil(t, feed.AddPost("discuss", ""))
	waitFor(t, func() bool { return len(feed.Posts()) == 1 })
	postId := feed.Posts()[0].Id

	assert.Nil(t, feed.AddComment(postId, "great point"))
	waitFor(t, func() bool { return feed.Posts()[0].CommentsCount == 1 })

	assert.True(t, IsValidationError(feed.AddComment(postId, "")))
	assert.True(t, IsValidationError(feed.AddComment("no-such-post", "hello")))
}

func TestFeedAddPostValidation(t *testing.T) {
	env := newTestEnv(t)

	feed := NewFeed(env.store, env.session, env.notifier)
	defer feed.Stop()
	assert.Nil(t, feed.Start(context.Background()))

	assert.True(t, IsValidationError(feed.AddPost("", "")))

	env.session.Logout()
	assert.NotNil(t, feed.AddPost("too late", ""))
}
