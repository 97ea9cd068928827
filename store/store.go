// Package store is the durable storage layer. Every write path publishes a
// row-change event to the realtime broker after the database commit, so any
// open subscription observes the same truth the next reader would.
package store

import (
	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/realtime"
	"gorm.io/gorm"
)

type Store struct {
	DB     *gorm.DB
	Broker *realtime.Broker
}

func NewStore(db *gorm.DB, broker *realtime.Broker) *Store {
	return &Store{DB: db, Broker: broker}
}

// publish pushes a change event for a committed write. Publish order follows
// commit order at each call site, which is what gives per-channel ordering
// downstream.
func (s *Store) publish(table string, event model.ChangeType, row interface{}) {
	s.Broker.Publish(&model.ChangeEvent{
		Table: table,
		Event: event,
		Row:   row,
	})
}
