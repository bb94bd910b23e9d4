package repository

import (
	"errors"

	"onboarding-portal/internal/domain/entity"
	domainRepo "onboarding-portal/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type onboardingRepository struct{}

func NewOnboardingRepository() domainRepo.OnboardingRepository {
	return &onboardingRepository{}
}

func (r *onboardingRepository) Create(db *gorm.DB, onboarding *entity.Onboarding) error {
	return db.Omit("Documents").Create(onboarding).Error
}

func (r *onboardingRepository) Update(db *gorm.DB, onboarding *entity.Onboarding) error {
	return db.Omit("Documents", "CreatedAt").Save(onboarding).Error
}

func (r *onboardingRepository) UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.OnboardingStatus) error {
	return db.Model(&entity.Onboarding{}).Where("id = ?", id).Update("status", status).Error
}

func (r *onboardingRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Where("id = ?", id).Delete(&entity.Onboarding{}).Error
}

func (r *onboardingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Onboarding, error) {
	var onboarding entity.Onboarding
	err := db.Preload("Documents").Where("id = ?", id).First(&onboarding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &onboarding, nil
}

func (r *onboardingRepository) FindByUserID(db *gorm.DB, userID string) (*entity.Onboarding, error) {
	var onboarding entity.Onboarding
	err := db.Preload("Documents").Where("user_id = ?", userID).First(&onboarding).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &onboarding, nil
}

// FindAll lists records newest first; an empty status means no filter.
func (r *onboardingRepository) FindAll(db *gorm.DB, status entity.OnboardingStatus) ([]entity.Onboarding, error) {
	var onboardings []entity.Onboarding
	query := db.Preload("Documents")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&onboardings).Error; err != nil {
		return nil, err
	}
	return onboardings, nil
}

type onboardingDocumentRepository struct{}

func NewOnboardingDocumentRepository() domainRepo.OnboardingDocumentRepository {
	return &onboardingDocumentRepository{}
}

func (r *onboardingDocumentRepository) Create(db *gorm.DB, document *entity.OnboardingDocument) error {
	return db.Create(document).Error
}

func (r *onboardingDocumentRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Where("id = ?", id).Delete(&entity.OnboardingDocument{}).Error
}

func (r *onboardingDocumentRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.OnboardingDocument, error) {
	var document entity.OnboardingDocument
	err := db.Where("id = ?", id).First(&document).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &document, nil
}

func (r *onboardingDocumentRepository) FindByOnboardingID(db *gorm.DB, onboardingID uuid.UUID) ([]entity.OnboardingDocument, error) {
	var documents []entity.OnboardingDocument
	err := db.Where("onboarding_id = ?", onboardingID).Order("uploaded_at ASC").Find(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}
