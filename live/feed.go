// Package live keeps per-view local caches consistent with the store
// through subscribe/refetch and optimistic mutation. Each component owns its
// cache exclusively; the only shared mutable state across components is the
// session manager.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/jinzhu/copier"
	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/notify"
	"github.com/unihive/unihive/session"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
	"github.com/unihive/unihive/utils/log"
)

// FeedPost is a post row joined with its author's nickname. The join happens
// here, not in the database: posts and profiles are fetched independently
// and stitched client-side.
type FeedPost struct {
	Id             string
	AuthorID       string
	Content        string
	MediaUrl       string
	LikesCount     int
	CommentsCount  int
	CreatedAt      time.Time
	AuthorNickname string
	HasLiked       bool
}

// Feed mirrors the global post feed. Convergence strategy is full resync on
// any change: every pushed event discards the cache and refetches
// everything. Correct at any write volume, wasteful at high volume - the
// in-place patch rewrite is a known scaling lever, not done here.
type Feed struct {
	store    *store.Store
	session  *session.Manager
	notifier notify.Notifier

	mu      sync.RWMutex
	posts   []*FeedPost
	loading bool

	cancel context.CancelFunc
}

func NewFeed(s *store.Store, sess *session.Manager, n notify.Notifier) *Feed {
	return &Feed{store: s, session: sess, notifier: n, loading: true}
}

// Start performs the initial load and opens the change subscription. The
// subscription listens for every change type on the posts table and lives
// until ctx is cancelled.
func (f *Feed) Start(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.cancel = cancel
	f.mu.Unlock()

	ch := f.store.Broker.Subscribe(subCtx, model.TablePosts, nil, nil)
	go func() {
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ch:
				if err := f.reload(); err != nil {
					log.Log.Error("feed refetch after change event failed: ", err)
				}
			}
		}
	}()

	return f.reload()
}

// Stop tears down the change subscription.
func (f *Feed) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// Posts returns the current cache snapshot.
func (f *Feed) Posts() []*FeedPost {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*FeedPost, len(f.posts))
	copy(out, f.posts)
	return out
}

func (f *Feed) Loading() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loading
}

// reload fetches the post list, independently fetches the referenced author
// profiles, and joins them. The whole cache is replaced in one swap.
func (f *Feed) reload() error {
	posts, err := f.store.ListPosts()
	if err != nil {
		return err
	}

	authorIds := make([]string, 0, len(posts))
	postIds := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIds = append(authorIds, p.AuthorID)
		postIds = append(postIds, p.Id)
	}
	nicknames, err := f.store.NicknamesByIds(utils.DistinctStrings(authorIds))
	if err != nil {
		return err
	}

	liked := map[string]bool{}
	if user := f.session.Current(); user != nil {
		liked, err = f.store.LikedPostIds(user.Id, postIds)
		if err != nil {
			return err
		}
	}

	views := make([]*FeedPost, 0, len(posts))
	for _, p := range posts {
		var view FeedPost
		if err := copier.Copy(&view, p); err != nil {
			return err
		}
		view.AuthorNickname = nicknames[p.AuthorID]
		view.HasLiked = liked[p.Id]
		views = append(views, &view)
	}

	f.mu.Lock()
	f.posts = views
	f.loading = false
	f.mu.Unlock()
	return nil
}

// AddPost publishes a new post. The local cache is not patched here; the
// insert event comes back through the subscription and triggers the refetch.
func (f *Feed) AddPost(content string, mediaUrl string) error {
	userId, err := f.session.CurrentId()
	if err != nil {
		f.notifier.Error("Please sign in to post.")
		return err
	}
	if content == "" {
		return validationErrorf("post content must not be empty")
	}

	if _, err := f.store.CreatePost(userId, content, mediaUrl); err != nil {
		f.notifier.Error("Failed to publish post. Please try again.")
		return networkError("publish post", err)
	}
	f.notifier.Success("Post published!")
	return nil
}

// ToggleLike flips the like state optimistically and reconciles with the
// store. On backend failure the local counter and flag return to their
// pre-attempt values.
func (f *Feed) ToggleLike(postId string) error {
	userId, err := f.session.CurrentId()
	if err != nil {
		f.notifier.Error("Please sign in to like posts.")
		return err
	}

	f.mu.RLock()
	var target *FeedPost
	for _, p := range f.posts {
		if p.Id == postId {
			target = p
			break
		}
	}
	f.mu.RUnlock()
	if target == nil {
		return validationErrorf("unknown post %s", postId)
	}

	wasLiked := target.HasLiked
	mutation := optimisticMutation{
		apply: func() {
			f.mu.Lock()
			if wasLiked {
				target.HasLiked = false
				target.LikesCount--
			} else {
				target.HasLiked = true
				target.LikesCount++
			}
			f.mu.Unlock()
		},
		revert: func() {
			f.mu.Lock()
			if wasLiked {
				target.HasLiked = true
				target.LikesCount++
			} else {
				target.HasLiked = false
				target.LikesCount--
			}
			f.mu.Unlock()
		},
		commit: func() error {
			if wasLiked {
				return f.store.UnlikePost(postId, userId)
			}
			return f.store.LikePost(postId, userId)
		},
	}

	if err := mutation.run(); err != nil {
		f.notifier.Error("Failed to update like. Please try again.")
		return networkError("update like", err)
	}
	return nil
}

// AddComment appends a comment and optimistically bumps the local counter.
func (f *Feed) AddComment(postId string, content string) error {
	userId, err := f.session.CurrentId()
	if err != nil {
		f.notifier.Error("Please sign in to comment.")
		return err
	}
	if content == "" {
		return validationErrorf("comment must not be empty")
	}

	f.mu.RLock()
	var target *FeedPost
	for _, p := range f.posts {
		if p.Id == postId {
			target = p
			break
		}
	}
	f.mu.RUnlock()
	if target == nil {
		return validationErrorf("unknown post %s", postId)
	}

	mutation := optimisticMutation{
		apply: func() {
			f.mu.Lock()
			target.CommentsCount++
			f.mu.Unlock()
		},
		revert: func() {
			f.mu.Lock()
			target.CommentsCount--
			f.mu.Unlock()
		},
		commit: func() error {
			_, err := f.store.AddComment(postId, userId, content)
			return err
		},
	}

	if err := mutation.run(); err != nil {
		f.notifier.Error("Failed to post comment. Please try again.")
		return networkError("post comment", err)
	}
	return nil
}
