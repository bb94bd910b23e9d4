package entity

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateKeyLayout is the canonical representation of a schedule date.
const DateKeyLayout = "2006-01-02"

// ErrInvalidDateKey is returned when a date cannot be parsed as YYYY-MM-DD.
var ErrInvalidDateKey = errors.New("invalid date, use YYYY-MM-DD")

// DateKey is a calendar date with the time of day stripped, e.g. "2024-03-11".
type DateKey string

// NewDateKey normalizes t to its calendar date in t's own location.
func NewDateKey(t time.Time) DateKey {
	return DateKey(t.Format(DateKeyLayout))
}

// ParseDateKey accepts "YYYY-MM-DD" or a full RFC 3339 timestamp and returns the date key.
func ParseDateKey(raw string) (DateKey, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(DateKeyLayout, raw); err == nil {
		return NewDateKey(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return NewDateKey(t), nil
	}
	return "", ErrInvalidDateKey
}

// Time returns midnight of the date in loc.
func (d DateKey) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateKeyLayout, string(d), loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateKey
	}
	return t, nil
}

func (d DateKey) String() string {
	return string(d)
}

// ValidSlots is the fixed set of bookable times of day, in display order.
var ValidSlots = []string{"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

// IsValidSlot reports whether slot belongs to ValidSlots.
func IsValidSlot(slot string) bool {
	for _, s := range ValidSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// ScheduleEntry is a client's single active meeting reservation.
type ScheduleEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_schedule_entries_user_id" json:"user_id"`
	ClientName string    `gorm:"type:varchar(255);not null" json:"client_name"`
	Date       DateKey   `gorm:"type:varchar(10);not null;uniqueIndex:idx_schedule_entries_date_slot,priority:1;index" json:"date"`
	Slot       string    `gorm:"type:varchar(5);not null;uniqueIndex:idx_schedule_entries_date_slot,priority:2" json:"slot"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (ScheduleEntry) TableName() string {
	return "schedule_entries"
}

// Occupies reports whether the entry holds the given date and slot.
func (e *ScheduleEntry) Occupies(date DateKey, slot string) bool {
	return e.Date == date && e.Slot == slot
}

// ScheduleEventType names a change to the schedule table.
type ScheduleEventType string

const (
	ScheduleEventReserved ScheduleEventType = "schedule.reserved"
	ScheduleEventReleased ScheduleEventType = "schedule.released"
	ScheduleEventRenamed  ScheduleEventType = "schedule.renamed"
)

// ScheduleEvent describes a committed mutation, published to other instances and consumers.
type ScheduleEvent struct {
	ID         uuid.UUID         `json:"id"`
	Type       ScheduleEventType `json:"type"`
	UserID     string            `json:"user_id"`
	Date       DateKey           `json:"date,omitempty"`
	Slot       string            `json:"slot,omitempty"`
	Source     string            `json:"source"`
	OccurredAt time.Time         `json:"occurred_at"`
}
