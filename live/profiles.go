package live

import (
	"encoding/json"
	"sync"

	"github.com/unihive/unihive/notify"
	"github.com/unihive/unihive/session"
	"github.com/unihive/unihive/store"
)

// ProfileView is a connect page card: another user's public profile plus
// the viewer's like/match state against it.
type ProfileView struct {
	Id        string
	Nickname  string
	Tags      []string
	Bio       string
	IsLiked   bool
	IsMatched bool
}

// Profiles owns the local cache of the swipe deck.
type Profiles struct {
	store    *store.Store
	session  *session.Manager
	notifier notify.Notifier

	mu      sync.RWMutex
	list    []*ProfileView
	loading bool
	index   int
}

func NewProfiles(s *store.Store, sess *session.Manager, n notify.Notifier) *Profiles {
	return &Profiles{store: s, session: sess, notifier: n, loading: true}
}

func (p *Profiles) Load() error {
	userId, err := p.session.CurrentId()
	if err != nil {
		return err
	}

	rows, err := p.store.ListProfiles(userId)
	if err != nil {
		return err
	}

	matches, err := p.store.ListMatches(userId)
	if err != nil {
		return err
	}
	matched := map[string]bool{}
	for _, id := range matches {
		matched[id] = true
	}

	views := make([]*ProfileView, 0, len(rows))
	for _, row := range rows {
		liked, err := p.store.HasLikedProfile(userId, row.Id)
		if err != nil {
			return err
		}

		var tags []string
		if len(row.Tags) > 0 {
			// Tags are stored as a JSON array; a malformed value renders as no
			// tags rather than failing the whole deck.
			_ = json.Unmarshal(row.Tags, &tags)
		}

		views = append(views, &ProfileView{
			Id:        row.Id,
			Nickname:  row.Nickname,
			Tags:      tags,
			Bio:       row.Bio,
			IsLiked:   liked,
			IsMatched: matched[row.Id],
		})
	}

	p.mu.Lock()
	p.list = views
	p.loading = false
	p.index = 0
	p.mu.Unlock()
	return nil
}

func (p *Profiles) Profiles() []*ProfileView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*ProfileView, len(p.list))
	copy(out, p.list)
	return out
}

func (p *Profiles) Loading() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loading
}

// Current returns the profile the deck is showing, or nil when exhausted.
func (p *Profiles) Current() *ProfileView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.index >= len(p.list) {
		return nil
	}
	return p.list[p.index]
}

// Next advances the deck, stopping at the last card.
func (p *Profiles) Next() {
	p.mu.Lock()
	if p.index < len(p.list)-1 {
		p.index++
	}
	p.mu.Unlock()
}

// Like records a like optimistically. A reciprocal like makes it a match,
// announced through the notifier; on backend failure the local flag rolls
// back.
func (p *Profiles) Like(profileId string) error {
	userId, err := p.session.CurrentId()
	if err != nil {
		p.notifier.Error("Please sign in to connect.")
		return err
	}

	p.mu.RLock()
	var target *ProfileView
	for _, v := range p.list {
		if v.Id == profileId {
			target = v
			break
		}
	}
	p.mu.RUnlock()
	if target == nil {
		return validationErrorf("unknown profile %s", profileId)
	}
	if target.IsLiked {
		return nil
	}

	var matched bool
	mutation := optimisticMutation{
		apply: func() {
			p.mu.Lock()
			target.IsLiked = true
			p.mu.Unlock()
		},
		revert: func() {
			p.mu.Lock()
			target.IsLiked = false
			p.mu.Unlock()
		},
		commit: func() error {
			var err error
			matched, err = p.store.LikeProfile(userId, profileId)
			return err
		},
	}

	if err := mutation.run(); err != nil {
		p.notifier.Error("Failed to send like. Please try again.")
		return networkError("send like", err)
	}

	if matched {
		p.mu.Lock()
		target.IsMatched = true
		p.mu.Unlock()
		p.notifier.Success("It's a match! You can now chat with " + target.Nickname + ".")
	} else {
		p.notifier.Info("Like sent! If they like you back, you'll get a match notification.")
	}
	return nil
}
