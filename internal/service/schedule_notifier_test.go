package service

import (
	"testing"

	"onboarding-portal/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestScheduleNotifier_SubscribeAndUnsubscribe(t *testing.T) {
	n := NewScheduleNotifier()

	var first, second [][]entity.ScheduleEntry
	unsubFirst := n.Subscribe(func(e []entity.ScheduleEntry) { first = append(first, e) })
	n.Subscribe(func(e []entity.ScheduleEntry) { second = append(second, e) })
	assert.Equal(t, 2, n.Len())

	n.Publish([]entity.ScheduleEntry{{UserID: "u1"}})
	unsubFirst()
	unsubFirst()
	n.Publish(nil)

	assert.Len(t, first, 1)
	assert.Len(t, second, 2)
	assert.Equal(t, 1, n.Len())
}

func TestScheduleNotifier_SubscribersGetPrivateCopies(t *testing.T) {
	n := NewScheduleNotifier()

	var seen []entity.ScheduleEntry
	n.Subscribe(func(e []entity.ScheduleEntry) { e[0].ClientName = "mutated" })
	n.Subscribe(func(e []entity.ScheduleEntry) { seen = e })

	entries := []entity.ScheduleEntry{{UserID: "u1", ClientName: "Acme"}}
	n.Publish(entries)

	assert.Equal(t, "Acme", entries[0].ClientName)
	assert.Equal(t, "Acme", seen[0].ClientName)
}
