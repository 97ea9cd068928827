package live

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/unihive/unihive/filestore"
	"github.com/unihive/unihive/notify"
	"github.com/unihive/unihive/session"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
	"github.com/unihive/unihive/utils/log"
)

// StoryView is a story row with the owner's nickname joined in.
type StoryView struct {
	Id            string
	OwnerID       string
	ImageUrl      string
	CreatedAt     time.Time
	ExpiresAt     time.Time
	OwnerNickname string
}

// Stories owns the local cache of the story reel. Only stories whose expiry
// is still in the future ever enter the cache; expiry is enforced by the
// read query, not by deleting rows.
type Stories struct {
	store    *store.Store
	session  *session.Manager
	notifier notify.Notifier
	files    filestore.FileStore

	mu      sync.RWMutex
	list    []*StoryView
	loading bool
}

func NewStories(s *store.Store, sess *session.Manager, n notify.Notifier, files filestore.FileStore) *Stories {
	return &Stories{store: s, session: sess, notifier: n, files: files, loading: true}
}

// Fetch reloads the visible story reel.
func (st *Stories) Fetch() error {
	rows, err := st.store.ListActiveStories(time.Now())
	if err != nil {
		return err
	}

	ownerIds := make([]string, 0, len(rows))
	for _, row := range rows {
		ownerIds = append(ownerIds, row.OwnerID)
	}
	nicknames, err := st.store.NicknamesByIds(utils.DistinctStrings(ownerIds))
	if err != nil {
		return err
	}

	views := make([]*StoryView, 0, len(rows))
	for _, row := range rows {
		nickname := nicknames[row.OwnerID]
		if nickname == "" {
			nickname = "Anonymous"
		}
		views = append(views, &StoryView{
			Id:            row.Id,
			OwnerID:       row.OwnerID,
			ImageUrl:      row.ImageUrl,
			CreatedAt:     row.CreatedAt,
			ExpiresAt:     row.ExpiresAt,
			OwnerNickname: nickname,
		})
	}

	st.mu.Lock()
	st.list = views
	st.loading = false
	st.mu.Unlock()
	return nil
}

func (st *Stories) Stories() []*StoryView {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*StoryView, len(st.list))
	copy(out, st.list)
	return out
}

func (st *Stories) Loading() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.loading
}

// Add uploads the image blob, resolves its public url and inserts the story
// row, then refetches the reel. ext is the file extension including the
// dot.
func (st *Stories) Add(image io.Reader, ext string) error {
	userId, err := st.session.CurrentId()
	if err != nil {
		st.notifier.Error("Please sign in to post a story.")
		return err
	}

	key := fmt.Sprintf("%s/%d%s", userId, time.Now().UnixNano(), ext)
	url, err := st.files.Upload(key, image)
	if err != nil {
		st.notifier.Error("Failed to upload story image. Please try again.")
		return networkError("upload story image", err)
	}

	if _, err := st.store.CreateStory(userId, key, url); err != nil {
		st.notifier.Error("Failed to post story. Please try again.")
		return networkError("post story", err)
	}

	st.notifier.Success("Story posted!")
	return st.Fetch()
}

// Delete removes one of the viewer's own stories and its blob, then
// refetches the reel.
func (st *Stories) Delete(storyId string) error {
	userId, err := st.session.CurrentId()
	if err != nil {
		return err
	}

	story, err := st.store.GetStory(storyId)
	if err != nil {
		return err
	}

	if err := st.store.DeleteStory(storyId, userId); err != nil {
		st.notifier.Error("Failed to delete story.")
		if err == store.ErrNotStoryOwner {
			return err
		}
		return networkError("delete story", err)
	}

	if err := st.files.Delete(story.ImageKey); err != nil {
		// The row is gone, the orphaned blob only costs storage.
		log.Log.Warn("fail to delete story blob: ", err)
	}

	return st.Fetch()
}
