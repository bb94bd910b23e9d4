package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"onboarding-portal/internal/delivery/dto"
	"onboarding-portal/internal/delivery/http/middleware"
	"onboarding-portal/internal/usecase"
	"onboarding-portal/pkg/response"
	"onboarding-portal/pkg/validator"
)

const streamHeartbeat = 25 * time.Second

type ScheduleHandler struct {
	scheduleUsecase usecase.ScheduleUsecase
	validator       *validator.CustomValidator
}

func NewScheduleHandler(scheduleUsecase usecase.ScheduleUsecase, validator *validator.CustomValidator) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleUsecase: scheduleUsecase,
		validator:       validator,
	}
}

func (h *ScheduleHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	availability, err := h.scheduleUsecase.GetAvailability(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		writeScheduleError(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", availability)
}

func (h *ScheduleHandler) GetMySchedule(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	entry, err := h.scheduleUsecase.GetMySchedule(r.Context(), userID)
	if err != nil {
		writeScheduleError(w, err, "Failed to get schedule")
		return
	}

	response.Success(w, http.StatusOK, "Schedule retrieved successfully", entry)
}

func (h *ScheduleHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req dto.ReserveScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	entry, err := h.scheduleUsecase.Reserve(r.Context(), userID, &req)
	if err != nil {
		writeScheduleError(w, err, "Failed to reserve schedule")
		return
	}

	response.Success(w, http.StatusOK, "Schedule reserved successfully", entry)
}

func (h *ScheduleHandler) Release(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	if err := h.scheduleUsecase.Release(r.Context(), userID); err != nil {
		writeScheduleError(w, err, "Failed to release schedule")
		return
	}

	response.Success(w, http.StatusOK, "Schedule released successfully", nil)
}

func (h *ScheduleHandler) GetAdminGrid(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "Schedules retrieved successfully", h.scheduleUsecase.GetAdminGrid(r.Context()))
}

// StreamAvailability pushes the caller's view of ?date= as Server-Sent Events.
func (h *ScheduleHandler) StreamAvailability(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	updates, err := h.scheduleUsecase.WatchAvailability(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		writeScheduleError(w, err, "Failed to watch availability")
		return
	}
	streamEvents(w, r, "availability", updates)
}

func (h *ScheduleHandler) StreamAdminGrid(w http.ResponseWriter, r *http.Request) {
	streamEvents(w, r, "schedules", h.scheduleUsecase.WatchAdminGrid(r.Context()))
}

func streamEvents[T any](w http.ResponseWriter, r *http.Request, event string, updates <-chan T) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case update, ok := <-updates:
			if !ok {
				return
			}
			payload, err := json.Marshal(update)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeScheduleError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrScheduleValidation):
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, usecase.ErrSlotUnavailable):
		response.Conflict(w, "Slot unavailable, choose another time")
	case errors.Is(err, usecase.ErrScheduleEntryNotFound):
		response.NotFound(w, "Schedule entry not found")
	default:
		response.InternalServerError(w, fallback)
	}
}
