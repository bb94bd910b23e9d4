package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"onboarding-portal/internal/domain/entity"
	domainRepo "onboarding-portal/internal/domain/repository"
)

type scheduleEntryMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]entity.ScheduleEntry // keyed by user id
}

// NewScheduleEntryMemoryRepository returns a process-local repository. Check and write happen in
// one critical section, so it gives the same conflict guarantee as the unique index.
func NewScheduleEntryMemoryRepository() domainRepo.ScheduleEntryRepository {
	return &scheduleEntryMemoryRepository{entries: make(map[string]entity.ScheduleEntry)}
}

func (r *scheduleEntryMemoryRepository) FindAll(ctx context.Context) ([]entity.ScheduleEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]entity.ScheduleEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (r *scheduleEntryMemoryRepository) FindByDate(ctx context.Context, date entity.DateKey) ([]entity.ScheduleEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []entity.ScheduleEntry
	for _, e := range r.entries {
		if e.Date == date {
			entries = append(entries, e)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (r *scheduleEntryMemoryRepository) FindByUserID(ctx context.Context, userID string) (*entity.ScheduleEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[userID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *scheduleEntryMemoryRepository) Upsert(ctx context.Context, entry *entity.ScheduleEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, e := range r.entries {
		if userID != entry.UserID && e.Occupies(entry.Date, entry.Slot) {
			return domainRepo.ErrSlotTaken
		}
	}

	now := time.Now()
	if existing, ok := r.entries[entry.UserID]; ok {
		entry.ID = existing.ID
		entry.CreatedAt = existing.CreatedAt
	} else if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	r.entries[entry.UserID] = *entry
	return nil
}

func (r *scheduleEntryMemoryRepository) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[userID]; !ok {
		return false, nil
	}
	delete(r.entries, userID)
	return true, nil
}

func (r *scheduleEntryMemoryRepository) UpdateClientName(ctx context.Context, userID, clientName string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[userID]
	if !ok {
		return false, nil
	}
	e.ClientName = clientName
	e.UpdatedAt = time.Now()
	r.entries[userID] = e
	return true, nil
}

func sortEntries(entries []entity.ScheduleEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date < entries[j].Date
		}
		return entries[i].Slot < entries[j].Slot
	})
}
