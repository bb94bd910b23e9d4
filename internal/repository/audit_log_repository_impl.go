package repository

import (
	"errors"

	"onboarding-portal/internal/domain/entity"
	domainRepo "onboarding-portal/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Create(log).Error
}

// FindAll returns the newest logs first, optionally filtered by action. A non-positive limit
// returns everything.
func (r *auditLogRepository) FindAll(db *gorm.DB, action string, limit int) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	query := db.Order("created_at DESC, id DESC")
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *auditLogRepository) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	var log entity.AuditLog
	err := db.Where("id = ?", id).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}
