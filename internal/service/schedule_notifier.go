package service

import (
	"sync"

	"onboarding-portal/internal/domain/entity"
)

// ScheduleNotifier fans the full schedule out to in-process subscribers such as the admin grid
// and client availability streams.
type ScheduleNotifier struct {
	mu          sync.RWMutex
	nextID      uint64
	subscribers map[uint64]func([]entity.ScheduleEntry)
}

func NewScheduleNotifier() *ScheduleNotifier {
	return &ScheduleNotifier{subscribers: make(map[uint64]func([]entity.ScheduleEntry))}
}

// Subscribe registers cb and returns a function that removes it. Callbacks run synchronously on
// the publishing goroutine and must not block.
func (n *ScheduleNotifier) Subscribe(cb func([]entity.ScheduleEntry)) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subscribers[id] = cb
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subscribers, id)
			n.mu.Unlock()
		})
	}
}

// Publish delivers a private copy of entries to every subscriber.
func (n *ScheduleNotifier) Publish(entries []entity.ScheduleEntry) {
	n.mu.RLock()
	callbacks := make([]func([]entity.ScheduleEntry), 0, len(n.subscribers))
	for _, cb := range n.subscribers {
		callbacks = append(callbacks, cb)
	}
	n.mu.RUnlock()

	for _, cb := range callbacks {
		snapshot := make([]entity.ScheduleEntry, len(entries))
		copy(snapshot, entries)
		cb(snapshot)
	}
}

// Len returns the number of active subscribers.
func (n *ScheduleNotifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}
