package store

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
)

// ListEvents returns event listings soonest first.
func (s *Store) ListEvents() ([]*model.Event, error) {
	var events []*model.Event
	if err := s.DB.Order("date asc").Find(&events).Error; err != nil {
		return nil, errors.Wrap(err, "fail to list events")
	}
	return events, nil
}

// CreateEvent inserts an event listing and publishes its insert event.
func (s *Store) CreateEvent(event *model.Event) error {
	event.Id = uuid.New().String()
	if err := s.DB.Create(event).Error; err != nil {
		return errors.Wrap(err, "fail to create event")
	}

	s.publish(model.TableEvents, model.ChangeTypeInsert, event)
	return nil
}
