package dto

import (
	"time"

	"onboarding-portal/internal/domain/entity"

	"github.com/google/uuid"
)

// Request DTOs

type CompanyDataRequest struct {
	LegalName             string `json:"legal_name" validate:"required,max=255"`
	TradeName             string `json:"trade_name" validate:"omitempty,max=255"`
	TaxID                 string `json:"tax_id" validate:"omitempty,max=32"`
	StateRegistration     string `json:"state_registration" validate:"omitempty,max=32"`
	MunicipalRegistration string `json:"municipal_registration" validate:"omitempty,max=32"`
	Phone                 string `json:"phone" validate:"omitempty,max=32"`
	Email                 string `json:"email" validate:"omitempty,email"`
}

type ContactRequest struct {
	Name     string `json:"name" validate:"omitempty,max=255"`
	Position string `json:"position" validate:"omitempty,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type LegalRepresentativeRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	TaxID    string `json:"tax_id" validate:"omitempty,max=32"`
	Position string `json:"position" validate:"omitempty,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type MeetingRequest struct {
	Date string `json:"date" validate:"required,datekey"`
	Slot string `json:"slot" validate:"required,slot"`
}

type CommunicationChannelRequest struct {
	OfficialWhatsAppNumber string          `json:"official_whatsapp_number" validate:"omitempty,max=32"`
	MetaBusinessMeeting    *MeetingRequest `json:"meta_business_meeting"`
	MessageTemplates       string          `json:"message_templates"`
}

// OnboardingRequest creates or updates a record. Nil sections are left untouched on update.
type OnboardingRequest struct {
	Company              *CompanyDataRequest          `json:"company"`
	Address              *entity.Address              `json:"address"`
	LegalRepresentatives []LegalRepresentativeRequest `json:"legal_representatives" validate:"omitempty,max=10,dive"`
	OperationalContact   *ContactRequest              `json:"operational_contact"`
	FinancialContact     *ContactRequest              `json:"financial_contact"`
	CommunicationChannel *CommunicationChannelRequest `json:"communication_channel"`
	IntelligentAgent     *entity.IntelligentAgent     `json:"intelligent_agent"`
	IntegrationSettings  *entity.IntegrationSettings  `json:"integration_settings"`
	Notes                *string                      `json:"notes" validate:"omitempty,max=5000"`
	Submit               bool                         `json:"submit"`
}

type UpdateOnboardingStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending in_review approved rejected"`
}

// Response DTOs

type DocumentResponse struct {
	ID           uuid.UUID `json:"id"`
	DocumentType string    `json:"document_type"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

type OnboardingResponse struct {
	ID                   uuid.UUID                    `json:"id"`
	UserID               string                       `json:"user_id"`
	DisplayName          string                       `json:"display_name"`
	Company              entity.CompanyData           `json:"company"`
	Address              entity.Address               `json:"address"`
	LegalRepresentatives []entity.LegalRepresentative `json:"legal_representatives"`
	OperationalContact   entity.Contact               `json:"operational_contact"`
	FinancialContact     entity.Contact               `json:"financial_contact"`
	CommunicationChannel entity.CommunicationChannel  `json:"communication_channel"`
	IntelligentAgent     entity.IntelligentAgent      `json:"intelligent_agent"`
	IntegrationSettings  entity.IntegrationSettings   `json:"integration_settings"`
	Notes                string                       `json:"notes"`
	Status               string                       `json:"status"`
	Documents            []DocumentResponse           `json:"documents"`
	CreatedAt            time.Time                    `json:"created_at"`
	UpdatedAt            time.Time                    `json:"updated_at"`
}

type OnboardingListResponse struct {
	Onboardings []OnboardingResponse `json:"onboardings"`
	Total       int                  `json:"total"`
}
