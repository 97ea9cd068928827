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

// EventView is an event listing with the organizer's nickname joined in.
type EventView struct {
	Id          string
	Title       string
	Description string
	Date        time.Time
	Location    string
	Campus      string
	Organizer   string
	CreatedAt   time.Time
}

// Events owns the local cache of the campus events listing.
type Events struct {
	store    *store.Store
	session  *session.Manager
	notifier notify.Notifier

	mu      sync.RWMutex
	list    []*EventView
	loading bool
}

func NewEvents(s *store.Store, sess *session.Manager, n notify.Notifier) *Events {
	return &Events{store: s, session: sess, notifier: n, loading: true}
}

func (e *Events) Load() error {
	rows, err := e.store.ListEvents()
	if err != nil {
		return err
	}

	organizerIds := make([]string, 0, len(rows))
	for _, row := range rows {
		organizerIds = append(organizerIds, row.OrganizerID)
	}
	nicknames, err := e.store.NicknamesByIds(utils.DistinctStrings(organizerIds))
	if err != nil {
		return err
	}

	views := make([]*EventView, 0, len(rows))
	for _, row := range rows {
		views = append(views, &EventView{
			Id:          row.Id,
			Title:       row.Title,
			Description: row.Description,
			Date:        row.Date,
			Location:    row.Location,
			Campus:      row.Campus,
			Organizer:   nicknames[row.OrganizerID],
			CreatedAt:   row.CreatedAt,
		})
	}

	e.mu.Lock()
	e.list = views
	e.loading = false
	e.mu.Unlock()
	return nil
}

func (e *Events) Events() []*EventView {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*EventView, len(e.list))
	copy(out, e.list)
	return out
}

func (e *Events) Loading() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loading
}

// Add posts an event listing and patches it into the local cache in date
// order.
func (e *Events) Add(title string, description string, date time.Time, location string, campus string) error {
	user := e.session.Current()
	if user == nil {
		e.notifier.Error("Please sign in to post.")
		return session.ErrNotAuthenticated
	}
	if title == "" {
		return validationErrorf("event title is required")
	}
	if date.IsZero() {
		return validationErrorf("event date is required")
	}

	event := &model.Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		Campus:      campus,
		OrganizerID: user.Id,
	}
	if err := e.store.CreateEvent(event); err != nil {
		e.notifier.Error("Failed to post event. Please try again.")
		return networkError("post event", err)
	}

	view := &EventView{
		Id:          event.Id,
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date,
		Location:    event.Location,
		Campus:      event.Campus,
		Organizer:   user.Nickname,
		CreatedAt:   event.CreatedAt,
	}
	e.mu.Lock()
	inserted := false
	for i, v := range e.list {
		if view.Date.Before(v.Date) {
			e.list = append(e.list[:i], append([]*EventView{view}, e.list[i:]...)...)
			inserted = true
			break
		}
	}
	if !inserted {
		e.list = append(e.list, view)
	}
	e.mu.Unlock()

	e.notifier.Success("Event posted!")
	return nil
}
