package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"onboarding-portal/internal/domain/entity"
	"onboarding-portal/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ScheduleEventPublisher forwards committed schedule changes outside the process.
type ScheduleEventPublisher interface {
	PublishScheduleEvent(ctx context.Context, event entity.ScheduleEvent) error
}

// SlotStore is the single mutation point for schedule entries. Reads degrade to empty results on
// I/O failure; writes return their error and, once committed, notify every subscriber with the
// full entry list.
type SlotStore struct {
	repo     repository.ScheduleEntryRepository
	notifier *ScheduleNotifier
	log      *logrus.Logger
	now      func() time.Time

	mu         sync.RWMutex
	publishers []ScheduleEventPublisher

	// snapshotMu orders snapshot reads with their delivery.
	snapshotMu sync.Mutex
}

func NewSlotStore(repo repository.ScheduleEntryRepository, notifier *ScheduleNotifier, log *logrus.Logger) *SlotStore {
	return &SlotStore{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// AddPublisher registers a remote publisher called after every committed mutation.
func (s *SlotStore) AddPublisher(p ScheduleEventPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishers = append(s.publishers, p)
}

func (s *SlotStore) ListAll(ctx context.Context) []entity.ScheduleEntry {
	entries, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Warnf("Failed to list schedule entries: %+v", err)
		return []entity.ScheduleEntry{}
	}
	return entries
}

func (s *SlotStore) ListByDate(ctx context.Context, date entity.DateKey) []entity.ScheduleEntry {
	entries, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		s.log.Warnf("Failed to list schedule entries for %s: %+v", date, err)
		return []entity.ScheduleEntry{}
	}
	return entries
}

// FindByUser returns the user's entry, or nil when there is none or the read failed.
func (s *SlotStore) FindByUser(ctx context.Context, userID string) *entity.ScheduleEntry {
	entry, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		s.log.Warnf("Failed to find schedule entry for user %s: %+v", userID, err)
		return nil
	}
	return entry
}

// Upsert inserts or replaces the entry owned by entry.UserID. It returns
// repository.ErrSlotTaken unchanged when another user holds the pair.
func (s *SlotStore) Upsert(ctx context.Context, entry *entity.ScheduleEntry) error {
	now := s.now()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	if err := s.repo.Upsert(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return err
		}
		s.log.Errorf("Failed to upsert schedule entry for user %s: %+v", entry.UserID, err)
		return fmt.Errorf("upsert schedule entry: %w", err)
	}

	s.log.Infof("Schedule entry for user %s set to %s %s", entry.UserID, entry.Date, entry.Slot)
	s.afterMutation(ctx, entity.ScheduleEventReserved, entry.UserID, entry.Date, entry.Slot)
	return nil
}

// RemoveByUser deletes the user's entry; a missing entry is not an error and notifies no one.
func (s *SlotStore) RemoveByUser(ctx context.Context, userID string) error {
	removed, err := s.repo.DeleteByUserID(ctx, userID)
	if err != nil {
		s.log.Errorf("Failed to remove schedule entry for user %s: %+v", userID, err)
		return fmt.Errorf("remove schedule entry: %w", err)
	}
	if !removed {
		return nil
	}

	s.log.Infof("Schedule entry for user %s released", userID)
	s.afterMutation(ctx, entity.ScheduleEventReleased, userID, "", "")
	return nil
}

// RenameClient changes the display label on the user's entry. It reports whether an entry existed.
func (s *SlotStore) RenameClient(ctx context.Context, userID, clientName string) (bool, error) {
	updated, err := s.repo.UpdateClientName(ctx, userID, clientName)
	if err != nil {
		s.log.Errorf("Failed to rename schedule entry for user %s: %+v", userID, err)
		return false, fmt.Errorf("rename schedule entry: %w", err)
	}
	if updated {
		s.afterMutation(ctx, entity.ScheduleEventRenamed, userID, "", "")
	}
	return updated, nil
}

// Subscribe registers cb to receive the full entry list after every change.
func (s *SlotStore) Subscribe(cb func([]entity.ScheduleEntry)) (unsubscribe func()) {
	return s.notifier.Subscribe(cb)
}

// Refresh re-reads the table and notifies local subscribers only. Used when another instance
// reports a change.
func (s *SlotStore) Refresh(ctx context.Context) {
	s.publishSnapshot(ctx)
}

// publishSnapshot reads the committed entries and hands them to local subscribers. A snapshot read
// under the lock is delivered before the next one is read, so subscribers never see an older list
// after a newer one. A failed read publishes nothing.
func (s *SlotStore) publishSnapshot(ctx context.Context) {
	s.snapshotMu.Lock()
	defer s.snapshotMu.Unlock()

	entries, err := s.repo.FindAll(context.WithoutCancel(ctx))
	if err != nil {
		s.log.Warnf("Failed to read schedule for change notification: %+v", err)
		return
	}
	s.notifier.Publish(entries)
}

func (s *SlotStore) afterMutation(ctx context.Context, eventType entity.ScheduleEventType, userID string, date entity.DateKey, slot string) {
	s.publishSnapshot(ctx)

	s.mu.RLock()
	publishers := s.publishers
	s.mu.RUnlock()
	if len(publishers) == 0 {
		return
	}

	event := entity.ScheduleEvent{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		Date:       date,
		Slot:       slot,
		OccurredAt: s.now().UTC(),
	}
	for _, p := range publishers {
		if err := p.PublishScheduleEvent(ctx, event); err != nil {
			s.log.Warnf("Failed to publish schedule event %s: %+v", event.Type, err)
		}
	}
}
