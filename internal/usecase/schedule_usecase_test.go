package usecase

import (
	"context"
	"testing"
	"time"

	"onboarding-portal/internal/delivery/dto"
	"onboarding-portal/internal/domain/entity"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticNames map[string]string

func (n staticNames) ClientName(_ context.Context, userID string) string {
	return n[userID]
}

func newTestScheduleUsecase(t *testing.T) (ScheduleUsecase, SlotAllocator, *recordingAudit) {
	t.Helper()
	alloc, _ := newTestAllocator(t, nil)
	log, _ := test.NewNullLogger()
	audit := &recordingAudit{}
	return NewScheduleUsecase(log, alloc, audit, staticNames{"u1": "Acme"}), alloc, audit
}

func TestScheduleUsecase_ReserveResolvesClientName(t *testing.T) {
	ctx := context.Background()
	uc, _, audit := newTestScheduleUsecase(t)

	resp, err := uc.Reserve(ctx, "u1", &dto.ReserveScheduleRequest{Date: "2024-03-11", Slot: "10:00"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", resp.ClientName)

	resp, err = uc.Reserve(ctx, "u2", &dto.ReserveScheduleRequest{Date: "2024-03-11", Slot: "11:00"})
	require.NoError(t, err)
	assert.Equal(t, defaultClientName, resp.ClientName)

	resp, err = uc.Reserve(ctx, "u3", &dto.ReserveScheduleRequest{Date: "2024-03-11", Slot: "13:00", ClientName: " Gamma "})
	require.NoError(t, err)
	assert.Equal(t, "Gamma", resp.ClientName)

	assert.Equal(t, []string{
		entity.AuditActionScheduleReserve,
		entity.AuditActionScheduleReserve,
		entity.AuditActionScheduleReserve,
	}, audit.actions())
}

func TestScheduleUsecase_ReserveErrors(t *testing.T) {
	ctx := context.Background()
	uc, _, audit := newTestScheduleUsecase(t)

	_, err := uc.Reserve(ctx, "u1", &dto.ReserveScheduleRequest{Date: "2024-03-09", Slot: "10:00"})
	assert.ErrorIs(t, err, ErrScheduleValidation)

	_, err = uc.Reserve(ctx, "u1", &dto.ReserveScheduleRequest{Date: "2024-03-11", Slot: "10:00"})
	require.NoError(t, err)
	_, err = uc.Reserve(ctx, "u2", &dto.ReserveScheduleRequest{Date: "2024-03-11", Slot: "10:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	assert.Len(t, audit.actions(), 1)
}

func TestScheduleUsecase_MySchedule(t *testing.T) {
	ctx := context.Background()
	uc, _, audit := newTestScheduleUsecase(t)

	_, err := uc.GetMySchedule(ctx, "u1")
	assert.ErrorIs(t, err, ErrScheduleEntryNotFound)

	require.NoError(t, uc.Release(ctx, "u1"), "release without an entry is a no-op")
	assert.Empty(t, audit.actions())

	_, err = uc.Reserve(ctx, "u1", &dto.ReserveScheduleRequest{Date: "2024-03-11", Slot: "10:00"})
	require.NoError(t, err)

	mine, err := uc.GetMySchedule(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "10:00", mine.Slot)

	require.NoError(t, uc.Release(ctx, "u1"))
	require.NoError(t, uc.Release(ctx, "u1"))
	_, err = uc.GetMySchedule(ctx, "u1")
	assert.ErrorIs(t, err, ErrScheduleEntryNotFound)
	assert.Equal(t, []string{entity.AuditActionScheduleReserve, entity.AuditActionScheduleRelease}, audit.actions())
}

func TestScheduleUsecase_GetAvailability(t *testing.T) {
	ctx := context.Background()
	uc, alloc, _ := newTestScheduleUsecase(t)

	_, err := uc.GetAvailability(ctx, "u1", "not-a-date")
	assert.ErrorIs(t, err, ErrInvalidDate)

	resp, err := uc.GetAvailability(ctx, "u1", "2024-03-09")
	require.NoError(t, err)
	assert.False(t, resp.Bookable)
	assert.Equal(t, ErrWeekendDate.Error(), resp.Reason)

	_, err = alloc.Reserve(ctx, "u2", "Beta", "2024-03-11", "09:00")
	require.NoError(t, err)
	_, err = alloc.Reserve(ctx, "u1", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)

	resp, err = uc.GetAvailability(ctx, "u1", "2024-03-11")
	require.NoError(t, err)
	assert.True(t, resp.Bookable)
	require.NotNil(t, resp.MyEntry)
	assert.Equal(t, "10:00", resp.MyEntry.Slot)

	statuses := map[string]string{}
	for _, s := range resp.Slots {
		statuses[s.Slot] = s.Status
	}
	assert.Equal(t, "occupied", statuses["09:00"])
	assert.Equal(t, "mine", statuses["10:00"])
	assert.Equal(t, "available", statuses["11:00"])

	for i, slot := range entity.ValidSlots[2:] {
		_, err := alloc.Reserve(ctx, "filler"+string(rune('a'+i)), "F", "2024-03-11", slot)
		require.NoError(t, err)
	}
	resp, err = uc.GetAvailability(ctx, "u1", "2024-03-11")
	require.NoError(t, err)
	assert.True(t, resp.DayFull)
	assert.False(t, resp.Bookable)
}

func TestScheduleUsecase_WatchAdminGrid(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	uc, alloc, _ := newTestScheduleUsecase(t)

	updates := uc.WatchAdminGrid(ctx)

	first := <-updates
	assert.Zero(t, first.TotalEntries)

	_, err := alloc.Reserve(context.Background(), "u1", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)

	select {
	case grid := <-updates:
		assert.Equal(t, 1, grid.TotalEntries)
		require.Len(t, grid.Days, 1)
		assert.Equal(t, "2024-03-11", grid.Days[0].Date)
	case <-time.After(2 * time.Second):
		t.Fatal("no grid update after reservation")
	}

	cancel()
	for range updates {
	}
}

func TestScheduleUsecase_WatchAvailability(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	uc, alloc, _ := newTestScheduleUsecase(t)

	_, err := uc.WatchAvailability(ctx, "u1", "garbage")
	assert.ErrorIs(t, err, ErrInvalidDate)

	updates, err := uc.WatchAvailability(ctx, "u1", "2024-03-11")
	require.NoError(t, err)
	first := <-updates
	assert.Nil(t, first.MyEntry)

	_, err = alloc.Reserve(context.Background(), "u1", "Acme", "2024-03-11", "10:00")
	require.NoError(t, err)

	select {
	case resp := <-updates:
		require.NotNil(t, resp.MyEntry)
		assert.Equal(t, "10:00", resp.MyEntry.Slot)
	case <-time.After(2 * time.Second):
		t.Fatal("no availability update after reservation")
	}
}
