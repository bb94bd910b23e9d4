package converter

import (
	"onboarding-portal/internal/delivery/dto"
	"onboarding-portal/internal/domain/entity"
)

// ScheduleEntryToResponse converts a ScheduleEntry entity to ScheduleEntryResponse DTO
func ScheduleEntryToResponse(entry *entity.ScheduleEntry) *dto.ScheduleEntryResponse {
	if entry == nil {
		return nil
	}

	return &dto.ScheduleEntryResponse{
		ID:         entry.ID,
		UserID:     entry.UserID,
		ClientName: entry.ClientName,
		Date:       entry.Date.String(),
		Slot:       entry.Slot,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}
}

func DayViewToResponse(view entity.DayView) dto.DayScheduleResponse {
	slots := make([]dto.SlotResponse, len(view.Slots))
	for i, s := range view.Slots {
		slots[i] = dto.SlotResponse{
			Slot:       s.Slot,
			Status:     string(s.Status),
			UserID:     s.UserID,
			ClientName: s.ClientName,
		}
	}

	return dto.DayScheduleResponse{
		Date:    view.Date.String(),
		DayFull: view.DayFull,
		Slots:   slots,
	}
}

// GridToResponse converts the admin grid, counting occupied cells as entries.
func GridToResponse(grid []entity.DayView) *dto.AdminScheduleGridResponse {
	days := make([]dto.DayScheduleResponse, len(grid))
	total := 0
	for i, view := range grid {
		days[i] = DayViewToResponse(view)
		for _, s := range view.Slots {
			if s.Status != entity.SlotAvailable {
				total++
			}
		}
	}

	return &dto.AdminScheduleGridResponse{
		Days:         days,
		TotalEntries: total,
	}
}
