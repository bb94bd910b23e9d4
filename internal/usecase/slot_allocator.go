package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"onboarding-portal/internal/domain/entity"
	"onboarding-portal/internal/domain/repository"
	"onboarding-portal/internal/service"

	"github.com/sirupsen/logrus"
)

var (
	// ErrScheduleValidation matches every reservation rule violation.
	ErrScheduleValidation = errors.New("invalid reservation")

	ErrInvalidDate  error = &scheduleValidationError{msg: "Invalid date, use YYYY-MM-DD"}
	ErrDateTooSoon  error = &scheduleValidationError{msg: "Select a date from tomorrow onwards"}
	ErrWeekendDate  error = &scheduleValidationError{msg: "Meetings are only available Monday to Friday"}
	ErrInvalidSlot  error = &scheduleValidationError{msg: "Invalid time slot"}
	ErrUserRequired error = &scheduleValidationError{msg: "User is required"}

	ErrSlotUnavailable = errors.New("slot unavailable, choose another time")
	ErrScheduleStorage = errors.New("schedule storage failure")
)

type scheduleValidationError struct {
	msg string
}

func (e *scheduleValidationError) Error() string {
	return e.msg
}

func (e *scheduleValidationError) Is(target error) bool {
	return target == ErrScheduleValidation
}

// SlotAllocator applies the booking policy on top of the slot store: weekday dates from tomorrow
// on, the fixed slot list, one entry per client and no shared (date, slot).
type SlotAllocator interface {
	Reserve(ctx context.Context, userID, clientName, date, slot string) (*entity.ScheduleEntry, error)
	Release(ctx context.Context, userID string) error
	IsSlotTaken(ctx context.Context, date entity.DateKey, slot, excludingUserID string) bool
	// IsDayFull counts every held slot, the caller's included; the user id is accepted for
	// signature parity with IsSlotTaken and is not consulted.
	IsDayFull(ctx context.Context, date entity.DateKey, userID string) bool
	UpdateClientName(ctx context.Context, userID, clientName string) error
	ValidateReservation(date, slot string) (entity.DateKey, error)
	FindByUser(ctx context.Context, userID string) *entity.ScheduleEntry
	Availability(ctx context.Context, date entity.DateKey, userID string) entity.DayView
	AdminGrid(ctx context.Context) []entity.DayView
	Subscribe(cb func([]entity.ScheduleEntry)) (unsubscribe func())
}

type slotAllocator struct {
	store   *service.SlotStore
	log     *logrus.Logger
	loc     *time.Location
	timeout time.Duration
	now     func() time.Time
}

// NewSlotAllocator builds the allocator. "Today" is computed in loc; a zero timeout leaves the
// caller's deadline untouched and a nil now uses time.Now.
func NewSlotAllocator(
	store *service.SlotStore,
	log *logrus.Logger,
	loc *time.Location,
	timeout time.Duration,
	now func() time.Time,
) SlotAllocator {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &slotAllocator{
		store:   store,
		log:     log,
		loc:     loc,
		timeout: timeout,
		now:     now,
	}
}

func (a *slotAllocator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

// ValidateReservation checks the pure booking rules and returns the normalized date.
func (a *slotAllocator) ValidateReservation(date, slot string) (entity.DateKey, error) {
	key, err := entity.ParseDateKey(date)
	if err != nil {
		return "", ErrInvalidDate
	}

	tomorrow := entity.NewDateKey(a.now().In(a.loc).AddDate(0, 0, 1))
	if key < tomorrow {
		return "", ErrDateTooSoon
	}

	day, err := key.Time(time.UTC)
	if err != nil {
		return "", ErrInvalidDate
	}
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return "", ErrWeekendDate
	}

	if !entity.IsValidSlot(slot) {
		return "", ErrInvalidSlot
	}

	return key, nil
}

func (a *slotAllocator) Reserve(ctx context.Context, userID, clientName, date, slot string) (*entity.ScheduleEntry, error) {
	if userID == "" {
		return nil, ErrUserRequired
	}
	key, err := a.ValidateReservation(date, slot)
	if err != nil {
		return nil, err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	// Advisory: the store's conflict check is authoritative.
	if a.isSlotTaken(ctx, key, slot, userID) {
		return nil, ErrSlotUnavailable
	}

	entry := &entity.ScheduleEntry{
		UserID:     userID,
		ClientName: clientName,
		Date:       key,
		Slot:       slot,
	}
	if existing := a.store.FindByUser(ctx, userID); existing != nil {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
		if entry.ClientName == "" {
			entry.ClientName = existing.ClientName
		}
	}

	if err := a.store.Upsert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			a.log.Infof("Lost race for %s %s (user %s)", key, slot, userID)
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("%w: %w", ErrScheduleStorage, err)
	}

	if saved := a.store.FindByUser(ctx, userID); saved != nil {
		return saved, nil
	}
	return entry, nil
}

func (a *slotAllocator) Release(ctx context.Context, userID string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if err := a.store.RemoveByUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: %w", ErrScheduleStorage, err)
	}
	return nil
}

func (a *slotAllocator) IsSlotTaken(ctx context.Context, date entity.DateKey, slot, excludingUserID string) bool {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.isSlotTaken(ctx, date, slot, excludingUserID)
}

func (a *slotAllocator) isSlotTaken(ctx context.Context, date entity.DateKey, slot, excludingUserID string) bool {
	for _, e := range a.store.ListByDate(ctx, date) {
		if e.Slot == slot && (excludingUserID == "" || e.UserID != excludingUserID) {
			return true
		}
	}
	return false
}

// IsDayFull reports whether the caller has no slot left to move into on date. The caller's own
// slot is counted as occupied: holding one of the eight while the other seven are taken is full,
// so the user id is ignored.
func (a *slotAllocator) IsDayFull(ctx context.Context, date entity.DateKey, _ string) bool {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return dayFull(a.store.ListByDate(ctx, date), date)
}

func (a *slotAllocator) UpdateClientName(ctx context.Context, userID, clientName string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	if _, err := a.store.RenameClient(ctx, userID, clientName); err != nil {
		return fmt.Errorf("%w: %w", ErrScheduleStorage, err)
	}
	return nil
}

func (a *slotAllocator) FindByUser(ctx context.Context, userID string) *entity.ScheduleEntry {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.store.FindByUser(ctx, userID)
}

// Availability renders date from userID's point of view.
func (a *slotAllocator) Availability(ctx context.Context, date entity.DateKey, userID string) entity.DayView {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return BuildDayView(a.store.ListByDate(ctx, date), date, userID)
}

// AdminGrid renders every date that has at least one entry, in date order.
func (a *slotAllocator) AdminGrid(ctx context.Context) []entity.DayView {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return BuildGrid(a.store.ListAll(ctx))
}

func (a *slotAllocator) Subscribe(cb func([]entity.ScheduleEntry)) (unsubscribe func()) {
	return a.store.Subscribe(cb)
}

func dayFull(entries []entity.ScheduleEntry, date entity.DateKey) bool {
	occupied := make(map[string]struct{}, len(entity.ValidSlots))
	for _, e := range entries {
		if e.Date == date && entity.IsValidSlot(e.Slot) {
			occupied[e.Slot] = struct{}{}
		}
	}
	return len(occupied) == len(entity.ValidSlots)
}

// BuildDayView renders all valid slots of date from entries. Slots held by viewerID are marked
// mine; an empty viewerID shows every held slot as occupied with its client name.
func BuildDayView(entries []entity.ScheduleEntry, date entity.DateKey, viewerID string) entity.DayView {
	held := make(map[string]entity.ScheduleEntry)
	for _, e := range entries {
		if e.Date == date {
			held[e.Slot] = e
		}
	}

	view := entity.DayView{
		Date:    date,
		Slots:   make([]entity.SlotState, 0, len(entity.ValidSlots)),
		DayFull: dayFull(entries, date),
	}
	for _, slot := range entity.ValidSlots {
		state := entity.SlotState{Slot: slot, Status: entity.SlotAvailable}
		if e, ok := held[slot]; ok {
			switch {
			case viewerID != "" && e.UserID == viewerID:
				state.Status = entity.SlotMine
				state.UserID = e.UserID
				state.ClientName = e.ClientName
			case viewerID != "":
				state.Status = entity.SlotOccupied
			default:
				state.Status = entity.SlotOccupied
				state.UserID = e.UserID
				state.ClientName = e.ClientName
			}
		}
		view.Slots = append(view.Slots, state)
	}
	return view
}

// BuildGrid groups entries by date and renders each date in full.
func BuildGrid(entries []entity.ScheduleEntry) []entity.DayView {
	byDate := make(map[entity.DateKey][]entity.ScheduleEntry)
	for _, e := range entries {
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	dates := make([]entity.DateKey, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	grid := make([]entity.DayView, 0, len(dates))
	for _, d := range dates {
		grid = append(grid, BuildDayView(byDate[d], d, ""))
	}
	return grid
}
