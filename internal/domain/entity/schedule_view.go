package entity

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotOccupied  SlotStatus = "occupied"
	SlotMine      SlotStatus = "mine"
)

// SlotState is one cell of a rendered day.
type SlotState struct {
	Slot       string
	Status     SlotStatus
	UserID     string
	ClientName string
}

// DayView renders every valid slot of a date.
type DayView struct {
	Date    DateKey
	Slots   []SlotState
	DayFull bool
}
