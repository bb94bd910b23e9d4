package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"onboarding-portal/internal/domain/entity"
	domainRepo "onboarding-portal/internal/domain/repository"
	"onboarding-portal/internal/repository"
	"onboarding-portal/internal/service"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Thursday; tomorrow is Friday 2024-03-08, 03-09 is Saturday, 03-11 is Monday.
var fixedNow = time.Date(2024, 3, 7, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestAllocator(t *testing.T, repo domainRepo.ScheduleEntryRepository) (SlotAllocator, *service.SlotStore) {
	t.Helper()
	if repo == nil {
		repo = repository.NewScheduleEntryMemoryRepository()
	}
	log, _ := test.NewNullLogger()
	store := service.NewSlotStore(repo, service.NewScheduleNotifier(), log)
	return NewSlotAllocator(store, log, time.UTC, time.Second, fixedClock), store
}

func TestSlotAllocator_SlotHeldByAnotherUser(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator(t, nil)

	entry, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)
	assert.Equal(t, entity.DateKey("2024-03-11"), entry.Date)
	assert.Equal(t, "Acme", entry.ClientName)

	_, err = alloc.Reserve(ctx, "userB", "Beta", "2024-03-11", "10:00")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.NotErrorIs(t, err, ErrScheduleValidation)
}

func TestSlotAllocator_WeekendRejected(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-09", "10:00")
	assert.ErrorIs(t, err, ErrWeekendDate)
	assert.ErrorIs(t, err, ErrScheduleValidation)
	assert.Empty(t, store.ListAll(ctx))

	_, err = alloc.Reserve(ctx, "userA", "Acme", "2024-03-10", "10:00")
	assert.ErrorIs(t, err, ErrWeekendDate)
}

func TestSlotAllocator_TodayRejected(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-07", "09:00")
	assert.ErrorIs(t, err, ErrDateTooSoon)

	_, err = alloc.Reserve(ctx, "userA", "Acme", "2024-03-01", "09:00")
	assert.ErrorIs(t, err, ErrDateTooSoon)
	assert.Empty(t, store.ListAll(ctx))

	_, err = alloc.Reserve(ctx, "userA", "Acme", "2024-03-08", "09:00")
	assert.NoError(t, err, "tomorrow is bookable")
}

func TestSlotAllocator_MoveFreesOldPair(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	first, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)

	moved, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-12", "14:00")
	require.NoError(t, err)
	assert.Equal(t, first.ID, moved.ID)
	assert.Equal(t, first.CreatedAt, moved.CreatedAt)

	all := store.ListAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, entity.DateKey("2024-03-12"), all[0].Date)
	assert.Equal(t, "14:00", all[0].Slot)

	assert.False(t, alloc.IsSlotTaken(ctx, "2024-03-11", "10:00", ""))
	_, err = alloc.Reserve(ctx, "userB", "Beta", "2024-03-11", "10:00")
	assert.NoError(t, err)
}

func TestSlotAllocator_ReleaseWithoutEntry(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	var notified int
	store.Subscribe(func([]entity.ScheduleEntry) { notified++ })

	assert.NoError(t, alloc.Release(ctx, "userA"))
	assert.Empty(t, store.ListAll(ctx))
	assert.Zero(t, notified)
}

func TestSlotAllocator_ReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)

	require.NoError(t, alloc.Release(ctx, "userA"))
	require.NoError(t, alloc.Release(ctx, "userA"))
	assert.Empty(t, store.ListAll(ctx))
	assert.Nil(t, alloc.FindByUser(ctx, "userA"))
}

func TestSlotAllocator_ReReserveOwnPairIsNotConflict(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)
	_, err = alloc.Reserve(ctx, "userA", "", "2024-03-11", "10:00")
	require.NoError(t, err)

	all := store.ListAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Acme", all[0].ClientName, "empty name keeps the current label")
}

func TestSlotAllocator_ValidateReservation(t *testing.T) {
	alloc, _ := newTestAllocator(t, nil)

	tests := []struct {
		name    string
		date    string
		slot    string
		want    entity.DateKey
		wantErr error
	}{
		{name: "monday", date: "2024-03-11", slot: "17:00", want: "2024-03-11"},
		{name: "timestamp input", date: "2024-03-11T15:00:00Z", slot: "09:00", want: "2024-03-11"},
		{name: "tomorrow", date: "2024-03-08", slot: "13:00", want: "2024-03-08"},
		{name: "today", date: "2024-03-07", slot: "13:00", wantErr: ErrDateTooSoon},
		{name: "saturday", date: "2024-03-09", slot: "13:00", wantErr: ErrWeekendDate},
		{name: "lunch slot", date: "2024-03-11", slot: "12:00", wantErr: ErrInvalidSlot},
		{name: "garbage date", date: "soon", slot: "13:00", wantErr: ErrInvalidDate},
		{name: "date checked before slot", date: "2024-03-09", slot: "12:00", wantErr: ErrWeekendDate},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := alloc.ValidateReservation(tc.date, tc.slot)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.ErrorIs(t, err, ErrScheduleValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSlotAllocator_TomorrowFollowsBusinessLocation(t *testing.T) {
	log, _ := test.NewNullLogger()
	store := service.NewSlotStore(repository.NewScheduleEntryMemoryRepository(), service.NewScheduleNotifier(), log)

	lateThursdayUTC := func() time.Time { return time.Date(2024, 3, 7, 23, 30, 0, 0, time.UTC) }

	// Already Friday in UTC+3, so Friday is "today" there.
	east := NewSlotAllocator(store, log, time.FixedZone("UTC+3", 3*60*60), 0, lateThursdayUTC)
	_, err := east.ValidateReservation("2024-03-08", "10:00")
	assert.ErrorIs(t, err, ErrDateTooSoon)

	west := NewSlotAllocator(store, log, time.FixedZone("UTC-3", -3*60*60), 0, lateThursdayUTC)
	_, err = west.ValidateReservation("2024-03-08", "10:00")
	assert.NoError(t, err)
}

func TestSlotAllocator_ValidationPrecedesMutation(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)

	var notified int
	store.Subscribe(func([]entity.ScheduleEntry) { notified++ })

	for _, date := range []string{"2024-03-06", "2024-03-07", "2024-03-09", "2024-03-10"} {
		_, err := alloc.Reserve(ctx, "userA", "Acme", date, "11:00")
		assert.ErrorIs(t, err, ErrScheduleValidation, date)
	}

	entry := alloc.FindByUser(ctx, "userA")
	require.NotNil(t, entry)
	assert.Equal(t, entity.DateKey("2024-03-11"), entry.Date)
	assert.Equal(t, "10:00", entry.Slot)
	assert.Zero(t, notified)
}

func TestSlotAllocator_IsSlotTaken(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator(t, nil)
	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)

	assert.True(t, alloc.IsSlotTaken(ctx, "2024-03-11", "10:00", ""))
	assert.True(t, alloc.IsSlotTaken(ctx, "2024-03-11", "10:00", "userB"))
	assert.False(t, alloc.IsSlotTaken(ctx, "2024-03-11", "10:00", "userA"))
	assert.False(t, alloc.IsSlotTaken(ctx, "2024-03-11", "11:00", ""))
	assert.False(t, alloc.IsSlotTaken(ctx, "2024-03-12", "10:00", ""))
}

func fillSlots(t *testing.T, alloc SlotAllocator, date string, slots []string, prefix string) {
	t.Helper()
	for i, slot := range slots {
		_, err := alloc.Reserve(context.Background(), fmt.Sprintf("%s%d", prefix, i), "Client", date, slot)
		require.NoError(t, err)
	}
}

func TestSlotAllocator_IsDayFull(t *testing.T) {
	ctx := context.Background()

	t.Run("all eight held by others", func(t *testing.T) {
		alloc, _ := newTestAllocator(t, nil)
		fillSlots(t, alloc, "2024-03-11", entity.ValidSlots, "other")
		assert.True(t, alloc.IsDayFull(ctx, "2024-03-11", "caller"))
		assert.False(t, alloc.IsDayFull(ctx, "2024-03-12", "caller"))
	})

	t.Run("seven held by others", func(t *testing.T) {
		alloc, _ := newTestAllocator(t, nil)
		fillSlots(t, alloc, "2024-03-11", entity.ValidSlots[1:], "other")
		assert.False(t, alloc.IsDayFull(ctx, "2024-03-11", "caller"))
	})

	t.Run("caller's own slot counts toward a full day", func(t *testing.T) {
		alloc, _ := newTestAllocator(t, nil)
		_, err := alloc.Reserve(ctx, "caller", "Acme", "2024-03-11", entity.ValidSlots[0])
		require.NoError(t, err)
		assert.False(t, alloc.IsDayFull(ctx, "2024-03-11", "caller"))

		fillSlots(t, alloc, "2024-03-11", entity.ValidSlots[1:], "other")
		assert.True(t, alloc.IsDayFull(ctx, "2024-03-11", "caller"))
		assert.True(t, alloc.IsSlotTaken(ctx, "2024-03-11", entity.ValidSlots[1], "caller"))
		assert.False(t, alloc.IsSlotTaken(ctx, "2024-03-11", entity.ValidSlots[0], "caller"),
			"the caller's own pair stays free for them even though the day is full")
		assert.Equal(t, alloc.IsDayFull(ctx, "2024-03-11", ""), alloc.IsDayFull(ctx, "2024-03-11", "caller"))
	})
}

func TestSlotAllocator_UpdateClientName(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	require.NoError(t, alloc.UpdateClientName(ctx, "userA", "Acme"))
	assert.Empty(t, store.ListAll(ctx))

	_, err := alloc.Reserve(ctx, "userA", "Old Name", "2024-03-11", "10:00")
	require.NoError(t, err)
	require.NoError(t, alloc.UpdateClientName(ctx, "userA", "Acme"))

	entry := alloc.FindByUser(ctx, "userA")
	require.NotNil(t, entry)
	assert.Equal(t, "Acme", entry.ClientName)
	assert.Equal(t, "10:00", entry.Slot)
}

func TestSlotAllocator_ConcurrentReservationsSinglePair(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	const n = 64
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := alloc.Reserve(ctx, fmt.Sprintf("user%d", i), "Client", "2024-03-11", "10:00")
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrSlotUnavailable)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Len(t, store.ListByDate(ctx, "2024-03-11"), 1)
}

func TestSlotAllocator_ConcurrentMovesKeepOneEntryPerUser(t *testing.T) {
	ctx := context.Background()
	alloc, store := newTestAllocator(t, nil)

	var wg sync.WaitGroup
	for _, date := range []string{"2024-03-11", "2024-03-12", "2024-03-13"} {
		for _, slot := range entity.ValidSlots {
			wg.Add(1)
			go func(date, slot string) {
				defer wg.Done()
				_, _ = alloc.Reserve(ctx, "userA", "Acme", date, slot)
			}(date, slot)
		}
	}
	wg.Wait()

	assert.Len(t, store.ListAll(ctx), 1)
}

// racingRepo hides the competing holder from reads so the pre-check passes and the write loses.
type racingRepo struct {
	domainRepo.ScheduleEntryRepository
}

func (r *racingRepo) FindByDate(context.Context, entity.DateKey) ([]entity.ScheduleEntry, error) {
	return nil, nil
}

func (r *racingRepo) Upsert(context.Context, *entity.ScheduleEntry) error {
	return domainRepo.ErrSlotTaken
}

func TestSlotAllocator_LostRaceIsConflict(t *testing.T) {
	alloc, _ := newTestAllocator(t, &racingRepo{ScheduleEntryRepository: repository.NewScheduleEntryMemoryRepository()})

	_, err := alloc.Reserve(context.Background(), "userB", "Beta", "2024-03-11", "10:00")
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

type brokenRepo struct {
	domainRepo.ScheduleEntryRepository
	err error
}

func (r *brokenRepo) Upsert(context.Context, *entity.ScheduleEntry) error { return r.err }
func (r *brokenRepo) DeleteByUserID(context.Context, string) (bool, error) {
	return false, r.err
}

func TestSlotAllocator_StorageFailures(t *testing.T) {
	boom := errors.New("connection refused")
	alloc, _ := newTestAllocator(t, &brokenRepo{ScheduleEntryRepository: repository.NewScheduleEntryMemoryRepository(), err: boom})

	_, err := alloc.Reserve(context.Background(), "userA", "Acme", "2024-03-11", "10:00")
	assert.ErrorIs(t, err, ErrScheduleStorage)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrSlotUnavailable)

	err = alloc.Release(context.Background(), "userA")
	assert.ErrorIs(t, err, ErrScheduleStorage)
}

func TestSlotAllocator_RequiresUser(t *testing.T) {
	alloc, _ := newTestAllocator(t, nil)
	_, err := alloc.Reserve(context.Background(), "", "Acme", "2024-03-11", "10:00")
	assert.ErrorIs(t, err, ErrScheduleValidation)
}

func TestSlotAllocator_Availability(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator(t, nil)
	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-11", "09:00")
	require.NoError(t, err)
	_, err = alloc.Reserve(ctx, "userB", "Beta", "2024-03-11", "13:00")
	require.NoError(t, err)

	view := alloc.Availability(ctx, "2024-03-11", "userA")
	require.Len(t, view.Slots, len(entity.ValidSlots))
	assert.False(t, view.DayFull)

	byslot := map[string]entity.SlotState{}
	for _, s := range view.Slots {
		byslot[s.Slot] = s
	}
	assert.Equal(t, entity.SlotMine, byslot["09:00"].Status)
	assert.Equal(t, entity.SlotOccupied, byslot["13:00"].Status)
	assert.Empty(t, byslot["13:00"].ClientName, "clients do not see other clients")
	assert.Equal(t, entity.SlotAvailable, byslot["10:00"].Status)
}

func TestSlotAllocator_AdminGrid(t *testing.T) {
	ctx := context.Background()
	alloc, _ := newTestAllocator(t, nil)
	_, err := alloc.Reserve(ctx, "userA", "Acme", "2024-03-12", "09:00")
	require.NoError(t, err)
	_, err = alloc.Reserve(ctx, "userB", "Beta", "2024-03-11", "17:00")
	require.NoError(t, err)

	grid := alloc.AdminGrid(ctx)
	require.Len(t, grid, 2)
	assert.Equal(t, entity.DateKey("2024-03-11"), grid[0].Date)
	assert.Equal(t, entity.DateKey("2024-03-12"), grid[1].Date)

	last := grid[0].Slots[len(grid[0].Slots)-1]
	assert.Equal(t, "17:00", last.Slot)
	assert.Equal(t, entity.SlotOccupied, last.Status)
	assert.Equal(t, "Beta", last.ClientName)
	assert.Equal(t, entity.SlotAvailable, grid[0].Slots[0].Status)
}

func TestBuildGrid_Empty(t *testing.T) {
	assert.Empty(t, BuildGrid(nil))
}
