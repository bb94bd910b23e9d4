package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type ReserveScheduleRequest struct {
	Date       string `json:"date" validate:"required,datekey"`
	Slot       string `json:"slot" validate:"required,slot"`
	ClientName string `json:"client_name" validate:"omitempty,max=255"`
}

// Response DTOs

type ScheduleEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	UserID     string    `json:"user_id"`
	ClientName string    `json:"client_name"`
	Date       string    `json:"date"`
	Slot       string    `json:"slot"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SlotResponse struct {
	Slot       string `json:"slot"`
	Status     string `json:"status"`
	UserID     string `json:"user_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}

type DayScheduleResponse struct {
	Date    string         `json:"date"`
	DayFull bool           `json:"day_full"`
	Slots   []SlotResponse `json:"slots"`
}

type AvailabilityResponse struct {
	DayScheduleResponse
	Bookable bool                   `json:"bookable"`
	Reason   string                 `json:"reason,omitempty"`
	MyEntry  *ScheduleEntryResponse `json:"my_entry,omitempty"`
}

type AdminScheduleGridResponse struct {
	Days         []DayScheduleResponse `json:"days"`
	TotalEntries int                   `json:"total_entries"`
}
