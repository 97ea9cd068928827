package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/unihive/unihive/model"
)

// FilterFunc narrows a subscription to a subset of a table's rows. A nil
// filter matches every row.
type FilterFunc func(*model.ChangeEvent) bool

type subscription struct {
	ch chan *model.ChangeEvent
	// done is the subscriber ctx's done channel. A send must never outlive
	// the subscriber: delivery selects on done so a torn-down subscription
	// whose channel filled up cannot block publishing to everyone else.
	done   <-chan struct{}
	events map[model.ChangeType]bool
	filter FilterFunc
}

func (s *subscription) wants(e *model.ChangeEvent) bool {
	if len(s.events) > 0 && !s.events[e.Event] {
		return false
	}
	if s.filter != nil && !s.filter(e) {
		return false
	}
	return true
}

// Broker contains all structures that handle row-change subscriptions. All
// internal state should not be handled directly by hand but managed by its
// public receivers.
//
// Delivery order on a single channel matches Publish order, which the storage
// layer calls in insertion order. There is no ordering guarantee across
// different channels.
type Broker struct {
	// subscriptionMap maps from table name to the table's active subscriptions.
	// Active subscriptions are represented in the form of a map from
	// subscription id (uuid) to the actual subscription. This is needed so that
	// deletion of a subscription is O(1).
	// Each subscriptionMap entry will be deleted once all of the table's active
	// subscriptions are closed.
	subscriptionMap map[string]map[string]*subscription

	// Adding/Removing a subscription must grab WriteLock, while all other
	// usage (e.g. publishing a change) should grab a ReadLock. Ideally we
	// should create lock per-table but we can start from a shared lock in the
	// beginning for simplicity.
	mu sync.RWMutex
}

func NewBroker() *Broker {
	return &Broker{
		subscriptionMap: make(map[string]map[string]*subscription),
		mu:              sync.RWMutex{},
	}
}

// cleanUp a single subscription when the context terminates. If a table's all
// active subscriptions terminate, clean up the table's top-level entry as
// well.
func (b *Broker) cleanUp(ctx context.Context, subId string, table string) {
	<-ctx.Done()

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subscriptionMap[table], subId)
	if len(b.subscriptionMap[table]) == 0 {
		delete(b.subscriptionMap, table)
	}
}

// Subscribe opens a channel of change events for one table, optionally
// narrowed to a subset of change types and a row filter. The channel is torn
// down when ctx is cancelled; cancellation is the only teardown primitive.
// Thread-safe.
func (b *Broker) Subscribe(ctx context.Context, table string, types []model.ChangeType, filter FilterFunc) <-chan *model.ChangeEvent {
	subId := "change_sub_" + uuid.New().String()
	sub := &subscription{
		ch:     make(chan *model.ChangeEvent, 16),
		done:   ctx.Done(),
		events: make(map[model.ChangeType]bool),
		filter: filter,
	}
	for _, t := range types {
		sub.events[t] = true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscriptionMap[table]; !ok {
		b.subscriptionMap[table] = make(map[string]*subscription)
	}

	b.subscriptionMap[table][subId] = sub

	// Spin up a background garbage collector.
	go b.cleanUp(ctx, subId, table)

	return sub.ch
}

// Thread-safe
func (b *Broker) GetActiveSubscriptionsCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, mp := range b.subscriptionMap {
		count += len(mp)
	}
	return count
}

// Publish delivers a change event to every matching subscription of its
// table. Publishing to a table with no subscribers is a no-op, not an error:
// the storage layer publishes unconditionally after every write.
// Thread-safe.
func (b *Broker) Publish(e *model.ChangeEvent) {
	// Snapshot the matching subscriptions, then send outside the lock. A
	// send can wait on a slow subscriber; holding even the read lock across
	// it would starve cleanUp's pending write lock and wedge the broker.
	b.mu.RLock()
	var matched []*subscription
	for _, sub := range b.subscriptionMap[e.Table] {
		if sub.wants(e) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	for _, sub := range matched {
		select {
		case sub.ch <- e:
		case <-sub.done:
			// Subscriber is gone, its backlog dies with the channel.
		}
	}
}
