package repository

import (
	"context"
	"errors"

	"onboarding-portal/internal/domain/entity"
	domainRepo "onboarding-portal/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgUniqueViolation = "23505"

	scheduleDateSlotIndex = "idx_schedule_entries_date_slot"
)

type scheduleEntryRepository struct {
	db *gorm.DB
}

// NewScheduleEntryRepository returns the PostgreSQL-backed schedule repository. It holds its own
// handle because the in-memory implementation has no *gorm.DB to be handed.
func NewScheduleEntryRepository(db *gorm.DB) domainRepo.ScheduleEntryRepository {
	return &scheduleEntryRepository{db: db}
}

func (r *scheduleEntryRepository) FindAll(ctx context.Context) ([]entity.ScheduleEntry, error) {
	var entries []entity.ScheduleEntry
	err := r.db.WithContext(ctx).Order("date ASC, slot ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *scheduleEntryRepository) FindByDate(ctx context.Context, date entity.DateKey) ([]entity.ScheduleEntry, error) {
	var entries []entity.ScheduleEntry
	err := r.db.WithContext(ctx).Where("date = ?", date).Order("slot ASC").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *scheduleEntryRepository) FindByUserID(ctx context.Context, userID string) (*entity.ScheduleEntry, error) {
	var entry entity.ScheduleEntry
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts the entry or moves the user's existing row in a single statement. The unique
// index on (date, slot) rejects the write when another user holds the pair.
func (r *scheduleEntryRepository) Upsert(ctx context.Context, entry *entity.ScheduleEntry) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"client_name", "date", "slot", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		if isUniqueViolation(err, scheduleDateSlotIndex) {
			return domainRepo.ErrSlotTaken
		}
		return err
	}
	return nil
}

func (r *scheduleEntryRepository) DeleteByUserID(ctx context.Context, userID string) (bool, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entity.ScheduleEntry{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *scheduleEntryRepository) UpdateClientName(ctx context.Context, userID, clientName string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entity.ScheduleEntry{}).
		Where("user_id = ?", userID).
		Update("client_name", clientName)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// isUniqueViolation reports a 23505 error, optionally restricted to one constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
