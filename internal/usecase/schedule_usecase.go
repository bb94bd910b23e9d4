package usecase

import (
	"context"
	"errors"
	"strings"

	"onboarding-portal/internal/converter"
	"onboarding-portal/internal/delivery/dto"
	"onboarding-portal/internal/domain/entity"
	"onboarding-portal/internal/service"

	"github.com/sirupsen/logrus"
)

const defaultClientName = "Client"

var (
	ErrScheduleEntryNotFound = errors.New("schedule entry not found")
)

// ClientNameResolver supplies the display name used on a client's schedule entry.
type ClientNameResolver interface {
	ClientName(ctx context.Context, userID string) string
}

type ScheduleUsecase interface {
	GetAvailability(ctx context.Context, userID, date string) (*dto.AvailabilityResponse, error)
	GetMySchedule(ctx context.Context, userID string) (*dto.ScheduleEntryResponse, error)
	Reserve(ctx context.Context, userID string, req *dto.ReserveScheduleRequest) (*dto.ScheduleEntryResponse, error)
	Release(ctx context.Context, userID string) error
	GetAdminGrid(ctx context.Context) *dto.AdminScheduleGridResponse
	WatchAvailability(ctx context.Context, userID, date string) (<-chan *dto.AvailabilityResponse, error)
	WatchAdminGrid(ctx context.Context) <-chan *dto.AdminScheduleGridResponse
}

type scheduleUsecase struct {
	log          *logrus.Logger
	allocator    SlotAllocator
	auditService service.AuditService
	names        ClientNameResolver
}

func NewScheduleUsecase(
	log *logrus.Logger,
	allocator SlotAllocator,
	auditService service.AuditService,
	names ClientNameResolver,
) ScheduleUsecase {
	return &scheduleUsecase{
		log:          log,
		allocator:    allocator,
		auditService: auditService,
		names:        names,
	}
}

func (u *scheduleUsecase) GetAvailability(ctx context.Context, userID, date string) (*dto.AvailabilityResponse, error) {
	key, err := entity.ParseDateKey(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	view := u.allocator.Availability(ctx, key, userID)
	return u.availabilityResponse(key, view, u.allocator.FindByUser(ctx, userID)), nil
}

func (u *scheduleUsecase) availabilityResponse(key entity.DateKey, view entity.DayView, mine *entity.ScheduleEntry) *dto.AvailabilityResponse {
	resp := &dto.AvailabilityResponse{
		DayScheduleResponse: converter.DayViewToResponse(view),
		Bookable:            true,
		MyEntry:             converter.ScheduleEntryToResponse(mine),
	}
	if _, err := u.allocator.ValidateReservation(key.String(), entity.ValidSlots[0]); err != nil {
		resp.Bookable = false
		resp.Reason = err.Error()
	} else if view.DayFull {
		resp.Bookable = false
		resp.Reason = ErrSlotUnavailable.Error()
	}
	return resp
}

func (u *scheduleUsecase) GetMySchedule(ctx context.Context, userID string) (*dto.ScheduleEntryResponse, error) {
	entry := u.allocator.FindByUser(ctx, userID)
	if entry == nil {
		return nil, ErrScheduleEntryNotFound
	}
	return converter.ScheduleEntryToResponse(entry), nil
}

func (u *scheduleUsecase) Reserve(ctx context.Context, userID string, req *dto.ReserveScheduleRequest) (*dto.ScheduleEntryResponse, error) {
	previous := u.allocator.FindByUser(ctx, userID)

	name := strings.TrimSpace(req.ClientName)
	if name == "" && u.names != nil {
		name = u.names.ClientName(ctx, userID)
	}
	if name == "" && previous == nil {
		name = defaultClientName
	}

	entry, err := u.allocator.Reserve(ctx, userID, name, req.Date, req.Slot)
	if err != nil {
		if errors.Is(err, ErrScheduleStorage) {
			u.log.Errorf("Failed to reserve schedule for user %s: %+v", userID, err)
		}
		return nil, err
	}

	audit := service.AuditEntry{
		ActorID:  userID,
		Action:   entity.AuditActionScheduleReserve,
		Entity:   "schedule_entry",
		EntityID: entry.ID.String(),
		NewValue: entity.MeetingSchedule{Date: entry.Date, Slot: entry.Slot},
	}
	if previous != nil {
		audit.OldValue = entity.MeetingSchedule{Date: previous.Date, Slot: previous.Slot}
	}
	if err := u.auditService.Record(ctx, nil, audit); err != nil {
		u.log.Warnf("Failed to audit reservation for user %s: %+v", userID, err)
	}

	return converter.ScheduleEntryToResponse(entry), nil
}

func (u *scheduleUsecase) Release(ctx context.Context, userID string) error {
	previous := u.allocator.FindByUser(ctx, userID)

	if err := u.allocator.Release(ctx, userID); err != nil {
		u.log.Errorf("Failed to release schedule for user %s: %+v", userID, err)
		return err
	}
	if previous == nil {
		return nil
	}

	audit := service.AuditEntry{
		ActorID:  userID,
		Action:   entity.AuditActionScheduleRelease,
		Entity:   "schedule_entry",
		EntityID: previous.ID.String(),
		OldValue: entity.MeetingSchedule{Date: previous.Date, Slot: previous.Slot},
	}
	if err := u.auditService.Record(ctx, nil, audit); err != nil {
		u.log.Warnf("Failed to audit release for user %s: %+v", userID, err)
	}
	return nil
}

func (u *scheduleUsecase) GetAdminGrid(ctx context.Context) *dto.AdminScheduleGridResponse {
	return converter.GridToResponse(u.allocator.AdminGrid(ctx))
}

// WatchAvailability emits the current availability of date and then a fresh rendering after every
// schedule change, until ctx is done.
func (u *scheduleUsecase) WatchAvailability(ctx context.Context, userID, date string) (<-chan *dto.AvailabilityResponse, error) {
	key, err := entity.ParseDateKey(date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	updates := u.watch(ctx)
	out := make(chan *dto.AvailabilityResponse, 1)
	initial, _ := u.GetAvailability(ctx, userID, key.String())

	go func() {
		defer close(out)
		if !sendOrDone(ctx, out, initial) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case entries := <-updates:
				var mine *entity.ScheduleEntry
				for i := range entries {
					if entries[i].UserID == userID {
						mine = &entries[i]
						break
					}
				}
				resp := u.availabilityResponse(key, BuildDayView(entries, key, userID), mine)
				if !sendOrDone(ctx, out, resp) {
					return
				}
			}
		}
	}()

	return out, nil
}

// WatchAdminGrid emits the admin grid now and after every schedule change, until ctx is done.
func (u *scheduleUsecase) WatchAdminGrid(ctx context.Context) <-chan *dto.AdminScheduleGridResponse {
	updates := u.watch(ctx)
	out := make(chan *dto.AdminScheduleGridResponse, 1)
	initial := u.GetAdminGrid(ctx)

	go func() {
		defer close(out)
		if !sendOrDone(ctx, out, initial) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case entries := <-updates:
				if !sendOrDone(ctx, out, converter.GridToResponse(BuildGrid(entries))) {
					return
				}
			}
		}
	}()

	return out
}

// watch subscribes for the lifetime of ctx. Only the latest snapshot is kept so a slow reader
// never blocks the publisher.
func (u *scheduleUsecase) watch(ctx context.Context) <-chan []entity.ScheduleEntry {
	latest := make(chan []entity.ScheduleEntry, 1)
	unsubscribe := u.allocator.Subscribe(func(entries []entity.ScheduleEntry) {
		for {
			select {
			case latest <- entries:
				return
			default:
				select {
				case <-latest:
				default:
				}
			}
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return latest
}

func sendOrDone[T any](ctx context.Context, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-ctx.Done():
		return false
	}
}
