package live

import (
	"sync"
	"time"

	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/notify"
	"github.com/unihive/unihive/session"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
)

// HustleView is a gig board listing with the poster's nickname joined in.
type HustleView struct {
	Id           string
	Title        string
	Description  string
	Category     model.HustleCategory
	PostedBy     string
	ContactEmail string
	CreatedAt    time.Time
}

// Hustles owns the local cache of the gig board. The category filter is
// applied locally over the cached list.
type Hustles struct {
	store    *store.Store
	session  *session.Manager
	notifier notify.Notifier

	mu             sync.RWMutex
	list           []*HustleView
	loading        bool
	categoryFilter model.HustleCategory
}

func NewHustles(s *store.Store, sess *session.Manager, n notify.Notifier) *Hustles {
	return &Hustles{store: s, session: sess, notifier: n, loading: true}
}

func (h *Hustles) Load() error {
	rows, err := h.store.ListHustles("")
	if err != nil {
		return err
	}

	posterIds := make([]string, 0, len(rows))
	for _, row := range rows {
		posterIds = append(posterIds, row.PostedByID)
	}
	nicknames, err := h.store.NicknamesByIds(utils.DistinctStrings(posterIds))
	if err != nil {
		return err
	}

	views := make([]*HustleView, 0, len(rows))
	for _, row := range rows {
		views = append(views, &HustleView{
			Id:           row.Id,
			Title:        row.Title,
			Description:  row.Description,
			Category:     row.Category,
			PostedBy:     nicknames[row.PostedByID],
			ContactEmail: row.ContactEmail,
			CreatedAt:    row.CreatedAt,
		})
	}

	h.mu.Lock()
	h.list = views
	h.loading = false
	h.mu.Unlock()
	return nil
}

// Hustles returns the cached listings, narrowed to the active category
// filter when one is set.
func (h *Hustles) Hustles() []*HustleView {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.categoryFilter == "" {
		out := make([]*HustleView, len(h.list))
		copy(out, h.list)
		return out
	}

	out := []*HustleView{}
	for _, v := range h.list {
		if v.Category == h.categoryFilter {
			out = append(out, v)
		}
	}
	return out
}

func (h *Hustles) Loading() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loading
}

// SetCategoryFilter narrows the listing to one category; empty shows all.
func (h *Hustles) SetCategoryFilter(category model.HustleCategory) {
	h.mu.Lock()
	h.categoryFilter = category
	h.mu.Unlock()
}

// Add posts a listing and prepends it to the local cache.
func (h *Hustles) Add(title string, description string, category model.HustleCategory, contactEmail string) error {
	user := h.session.Current()
	if user == nil {
		h.notifier.Error("Please sign in to post.")
		return session.ErrNotAuthenticated
	}
	if title == "" || description == "" {
		return validationErrorf("title and description are required")
	}
	if !category.IsValid() {
		return validationErrorf("unknown category %s", category)
	}

	hustle := &model.Hustle{
		Title:        title,
		Description:  description,
		Category:     category,
		PostedByID:   user.Id,
		ContactEmail: contactEmail,
	}
	if err := h.store.CreateHustle(hustle); err != nil {
		h.notifier.Error("Failed to post hustle. Please try again.")
		return networkError("post hustle", err)
	}

	view := &HustleView{
		Id:           hustle.Id,
		Title:        hustle.Title,
		Description:  hustle.Description,
		Category:     hustle.Category,
		PostedBy:     user.Nickname,
		ContactEmail: hustle.ContactEmail,
		CreatedAt:    hustle.CreatedAt,
	}
	h.mu.Lock()
	h.list = append([]*HustleView{view}, h.list...)
	h.mu.Unlock()

	h.notifier.Success("Hustle posted!")
	return nil
}
