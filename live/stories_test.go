package live

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/unihive/unihive/filestore"
	"github.com/unihive/unihive/model"
)

func TestStoriesAddAndFetch(t *testing.T) {
	env := newTestEnv(t)
	files := filestore.NewMemoryFileStore()

	reel := NewStories(env.store, env.session, env.notifier, files)
	assert.True(t, reel.Loading())
	assert.Nil(t, reel.Fetch())
	assert.False(t, reel.Loading())
	assert.Empty(t, reel.Stories())

	assert.Nil(t, reel.Add(strings.NewReader("image-bytes"), ".jpg"))

	stories := reel.Stories()
	assert.Equal(t, 1, len(stories))
	assert.Equal(t, "self", stories[0].OwnerNickname)
	assert.NotEmpty(t, stories[0].ImageUrl)

	// The blob actually landed in the file store.
	rows, err := env.store.ListActiveStories(time.Now())
	assert.Nil(t, err)
	blob, ok := files.Get(rows[0].ImageKey)
	assert.True(t, ok)
	assert.Equal(t, "image-bytes", string(blob))
}

func TestStoriesExpiryIsQueryTimeOnly(t *testing.T) {
	env := newTestEnv(t)
	self := env.selfId(t)
	files := filestore.NewMemoryFileStore()

	// An expired story stays in the table but never enters the reel.
	expired := &model.Story{
		Id:        uuid.New().String(),
		OwnerID:   self,
		ImageKey:  "old-key",
		ImageUrl:  "memory://old-key",
		CreatedAt: time.Now().Add(-25 * time.Hour),
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}
	assert.Nil(t, env.store.DB.Create(expired).Error)

	reel := NewStories(env.store, env.session, env.notifier, files)
	assert.Nil(t, reel.Fetch())
	assert.Empty(t, reel.Stories())

	var count int64
	assert.Nil(t, env.store.DB.Model(&model.Story{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A fresh story is visible and carries the full TTL.
	assert.Nil(t, reel.Add(strings.NewReader("fresh"), ".png"))
	stories := reel.Stories()
	assert.Equal(t, 1, len(stories))
	ttl := stories[0].ExpiresAt.Sub(stories[0].CreatedAt)
	assert.Equal(t, model.StoryTTL, ttl.Round(time.Minute))
}

func TestStoriesDeleteOwnOnly(t *testing.T) {
	env := newTestEnv(t)
	other := env.createUser(t, "other")
	files := filestore.NewMemoryFileStore()

	reel := NewStories(env.store, env.session, env.notifier, files)
	assert.Nil(t, reel.Fetch())
	assert.Nil(t, reel.Add(strings.NewReader("mine"), ".jpg"))

	theirStory, err := env.store.CreateStory(other, "their-key", "memory://their-key")
	assert.Nil(t, err)

	assert.Nil(t, reel.Fetch())
	assert.Equal(t, 2, len(reel.Stories()))

	// Deleting someone else's story is refused.
	assert.NotNil(t, reel.Delete(theirStory.Id))
	assert.Nil(t, reel.Fetch())
	assert.Equal(t, 2, len(reel.Stories()))

	// Deleting your own removes the row and the blob.
	var mineId, mineKey string
	for _, s := range reel.Stories() {
		if s.Id != theirStory.Id {
			mineId = s.Id
		}
	}
	row, err := env.store.GetStory(mineId)
	assert.Nil(t, err)
	mineKey = row.ImageKey

	assert.Nil(t, reel.Delete(mineId))
	assert.Equal(t, 1, len(reel.Stories()))
	_, ok := files.Get(mineKey)
	assert.False(t, ok)
}
