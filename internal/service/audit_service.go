package service

import (
	"context"

	"onboarding-portal/internal/domain/entity"
	"onboarding-portal/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditEntry describes one audited change.
type AuditEntry struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	OldValue interface{}
	NewValue interface{}
}

type AuditService interface {
	// Record writes the entry using tx, or the service's own handle when tx is nil.
	Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error
}

type auditService struct {
	db        *gorm.DB
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(db *gorm.DB, log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		db:        db,
		log:       log,
		auditRepo: auditRepo,
	}
}

func (s *auditService) Record(ctx context.Context, tx *gorm.DB, entry AuditEntry) error {
	if tx == nil {
		tx = s.db
	}

	auditLog := &entity.AuditLog{
		ActorID: entry.ActorID,
		Action:  entry.Action,
		Metadata: entity.JSON{
			"entity":    entry.Entity,
			"entity_id": entry.EntityID,
			"old_value": entry.OldValue,
			"new_value": entry.NewValue,
		},
	}

	if err := s.auditRepo.Create(tx.WithContext(ctx), auditLog); err != nil {
		s.log.Warnf("Failed to create audit log: %+v", err)
		return err
	}

	return nil
}

type noopAuditService struct{}

// NewNoopAuditService is used when the portal runs without a database.
func NewNoopAuditService() AuditService {
	return noopAuditService{}
}

func (noopAuditService) Record(context.Context, *gorm.DB, AuditEntry) error {
	return nil
}
