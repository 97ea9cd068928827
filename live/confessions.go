package live

import (
	"sort"
	"sync"
	"time"

	"github.com/unihive/unihive/notify"
	"github.com/unihive/unihive/session"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
)

// ConfessionFilter orders the confession board.
type ConfessionFilter string

const (
	FilterTrending ConfessionFilter = "trending"
	FilterNewest   ConfessionFilter = "newest"
)

// ConfessionView is what the board renders. For an anonymous confession
// Author stays empty - the underlying row holds no author reference at all,
// so nothing here can leak it.
type ConfessionView struct {
	Id          string
	Content     string
	Author      string
	IsAnonymous bool
	Upvotes     int
	HasUpvoted  bool
	CreatedAt   time.Time
}

// Confessions owns the local cache of the confession board.
type Confessions struct {
	store    *store.Store
	session  *session.Manager
	notifier notify.Notifier

	mu      sync.RWMutex
	list    []*ConfessionView
	loading bool
	filter  ConfessionFilter
}

func NewConfessions(s *store.Store, sess *session.Manager, n notify.Notifier) *Confessions {
	return &Confessions{store: s, session: sess, notifier: n, loading: true, filter: FilterTrending}
}

// Load refetches the board and rehydrates author nicknames and the viewer's
// upvote flags.
func (c *Confessions) Load() error {
	rows, err := c.store.ListConfessions()
	if err != nil {
		return err
	}

	authorIds := []string{}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Id)
		if row.AuthorID != nil {
			authorIds = append(authorIds, *row.AuthorID)
		}
	}
	nicknames, err := c.store.NicknamesByIds(utils.DistinctStrings(authorIds))
	if err != nil {
		return err
	}

	upvoted := map[string]bool{}
	if user := c.session.Current(); user != nil {
		upvoted, err = c.store.UpvotedConfessionIds(user.Id, ids)
		if err != nil {
			return err
		}
	}

	views := make([]*ConfessionView, 0, len(rows))
	for _, row := range rows {
		view := &ConfessionView{
			Id:          row.Id,
			Content:     row.Content,
			IsAnonymous: row.IsAnonymous,
			Upvotes:     row.Upvotes,
			HasUpvoted:  upvoted[row.Id],
			CreatedAt:   row.CreatedAt,
		}
		if !row.IsAnonymous && row.AuthorID != nil {
			view.Author = nicknames[*row.AuthorID]
		}
		views = append(views, view)
	}

	c.mu.Lock()
	c.list = views
	c.loading = false
	c.sortLocked()
	c.mu.Unlock()
	return nil
}

// Confessions returns the current cache snapshot in filter order.
func (c *Confessions) Confessions() []*ConfessionView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*ConfessionView, len(c.list))
	copy(out, c.list)
	return out
}

func (c *Confessions) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Confessions) Filter() ConfessionFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// SetFilter re-sorts the cached list without refetching.
func (c *Confessions) SetFilter(f ConfessionFilter) {
	c.mu.Lock()
	c.filter = f
	c.sortLocked()
	c.mu.Unlock()
}

func (c *Confessions) sortLocked() {
	if c.filter == FilterTrending {
		sort.SliceStable(c.list, func(i, j int) bool {
			return c.list[i].Upvotes > c.list[j].Upvotes
		})
		return
	}
	sort.SliceStable(c.list, func(i, j int) bool {
		return c.list[i].CreatedAt.After(c.list[j].CreatedAt)
	})
}

// Add posts a confession and prepends it to the local cache. An anonymous
// confession never carries an author in either representation.
func (c *Confessions) Add(content string, isAnonymous bool) error {
	user := c.session.Current()
	if user == nil {
		c.notifier.Error("Please sign in to post.")
		return session.ErrNotAuthenticated
	}
	if content == "" {
		return validationErrorf("confession must not be empty")
	}

	row, err := c.store.CreateConfession(user.Id, content, isAnonymous)
	if err != nil {
		c.notifier.Error("Failed to post confession. Please try again.")
		return networkError("post confession", err)
	}

	view := &ConfessionView{
		Id:          row.Id,
		Content:     row.Content,
		IsAnonymous: row.IsAnonymous,
		CreatedAt:   row.CreatedAt,
	}
	if !isAnonymous {
		view.Author = user.Nickname
	}

	c.mu.Lock()
	c.list = append([]*ConfessionView{view}, c.list...)
	c.sortLocked()
	c.mu.Unlock()

	c.notifier.Success("Confession posted!")
	return nil
}

// ToggleUpvote flips the viewer's upvote optimistically. On backend failure
// the counter and flag return to their pre-attempt values and one error
// notification is emitted.
func (c *Confessions) ToggleUpvote(confessionId string) error {
	return c.toggleUpvote(confessionId, nil)
}

func (c *Confessions) toggleUpvote(confessionId string, onState func(MutationState)) error {
	userId, err := c.session.CurrentId()
	if err != nil {
		c.notifier.Error("Please sign in to upvote.")
		return err
	}

	c.mu.RLock()
	var target *ConfessionView
	for _, v := range c.list {
		if v.Id == confessionId {
			target = v
			break
		}
	}
	c.mu.RUnlock()
	if target == nil {
		return validationErrorf("unknown confession %s", confessionId)
	}

	hadUpvoted := target.HasUpvoted
	mutation := optimisticMutation{
		apply: func() {
			c.mu.Lock()
			if hadUpvoted {
				target.HasUpvoted = false
				target.Upvotes--
			} else {
				target.HasUpvoted = true
				target.Upvotes++
			}
			c.mu.Unlock()
		},
		revert: func() {
			c.mu.Lock()
			if hadUpvoted {
				target.HasUpvoted = true
				target.Upvotes++
			} else {
				target.HasUpvoted = false
				target.Upvotes--
			}
			c.mu.Unlock()
		},
		commit: func() error {
			if hadUpvoted {
				return c.store.DeleteUpvote(confessionId, userId)
			}
			return c.store.InsertUpvote(confessionId, userId)
		},
		onState: onState,
	}

	if err := mutation.run(); err != nil {
		c.notifier.Error("Failed to update upvote. Please try again.")
		return networkError("update upvote", err)
	}
	return nil
}
