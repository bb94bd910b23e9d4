package repository

import (
	"onboarding-portal/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OnboardingRepository interface {
	Create(db *gorm.DB, onboarding *entity.Onboarding) error
	Update(db *gorm.DB, onboarding *entity.Onboarding) error
	UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.OnboardingStatus) error
	Delete(db *gorm.DB, id uuid.UUID) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Onboarding, error)
	FindByUserID(db *gorm.DB, userID string) (*entity.Onboarding, error)
	FindAll(db *gorm.DB, status entity.OnboardingStatus) ([]entity.Onboarding, error)
}

type OnboardingDocumentRepository interface {
	Create(db *gorm.DB, document *entity.OnboardingDocument) error
	Delete(db *gorm.DB, id uuid.UUID) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.OnboardingDocument, error)
	FindByOnboardingID(db *gorm.DB, onboardingID uuid.UUID) ([]entity.OnboardingDocument, error)
}
