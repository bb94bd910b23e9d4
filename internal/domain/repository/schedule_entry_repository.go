package repository

import (
	"context"
	"errors"

	"onboarding-portal/internal/domain/entity"
)

// ErrSlotTaken is returned by Upsert when another user already holds the entry's date and slot.
var ErrSlotTaken = errors.New("date and slot already held by another user")

// ScheduleEntryRepository persists schedule entries. Implementations must make Upsert an
// atomic conditional write: the (date, slot) pair and the user id are both unique.
type ScheduleEntryRepository interface {
	FindAll(ctx context.Context) ([]entity.ScheduleEntry, error)
	FindByDate(ctx context.Context, date entity.DateKey) ([]entity.ScheduleEntry, error)
	FindByUserID(ctx context.Context, userID string) (*entity.ScheduleEntry, error)
	Upsert(ctx context.Context, entry *entity.ScheduleEntry) error
	DeleteByUserID(ctx context.Context, userID string) (bool, error)
	UpdateClientName(ctx context.Context, userID, clientName string) (bool, error)
}
