package entity

import (
	"time"

	"github.com/google/uuid"
)

type OnboardingStatus string

const (
	OnboardingStatusDraft    OnboardingStatus = "draft"
	OnboardingStatusPending  OnboardingStatus = "pending"
	OnboardingStatusInReview OnboardingStatus = "in_review"
	OnboardingStatusApproved OnboardingStatus = "approved"
	OnboardingStatusRejected OnboardingStatus = "rejected"
)

// IsValid reports whether s is one of the known statuses.
func (s OnboardingStatus) IsValid() bool {
	switch s {
	case OnboardingStatusDraft, OnboardingStatusPending, OnboardingStatusInReview,
		OnboardingStatusApproved, OnboardingStatusRejected:
		return true
	}
	return false
}

type CompanyData struct {
	LegalName             string `json:"legal_name"`
	TradeName             string `json:"trade_name,omitempty"`
	TaxID                 string `json:"tax_id,omitempty"`
	StateRegistration     string `json:"state_registration,omitempty"`
	MunicipalRegistration string `json:"municipal_registration,omitempty"`
	Phone                 string `json:"phone,omitempty"`
	Email                 string `json:"email,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	Number     string `json:"number,omitempty"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type Contact struct {
	Name     string `json:"name,omitempty"`
	Position string `json:"position,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type LegalRepresentative struct {
	Name     string `json:"name"`
	TaxID    string `json:"tax_id,omitempty"`
	Position string `json:"position,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// MeetingSchedule mirrors the client's confirmed setup meeting.
type MeetingSchedule struct {
	Date DateKey `json:"date,omitempty"`
	Slot string  `json:"slot,omitempty"`
}

type CommunicationChannel struct {
	OfficialWhatsAppNumber string           `json:"official_whatsapp_number,omitempty"`
	MetaBusinessMeeting    *MeetingSchedule `json:"meta_business_meeting,omitempty"`
	MessageTemplates       string           `json:"message_templates,omitempty"`
}

type IntelligentAgent struct {
	AgentIdentity         string `json:"agent_identity,omitempty"`
	KnowledgeBase         string `json:"knowledge_base,omitempty"`
	ConversationalJourney string `json:"conversational_journey,omitempty"`
}

type IntegrationSettings struct {
	CRM               string `json:"crm,omitempty"`
	ReportsDashboards string `json:"reports_dashboards,omitempty"`
	OtherIntegrations string `json:"other_integrations,omitempty"`
}

// Onboarding is a client's registration record, one per user.
type Onboarding struct {
	ID                   uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	UserID               string                `gorm:"type:varchar(64);not null;uniqueIndex" json:"user_id"`
	Company              CompanyData           `gorm:"type:jsonb;serializer:json;not null" json:"company"`
	Address              Address               `gorm:"type:jsonb;serializer:json" json:"address"`
	LegalRepresentatives []LegalRepresentative `gorm:"type:jsonb;serializer:json" json:"legal_representatives"`
	OperationalContact   Contact               `gorm:"type:jsonb;serializer:json" json:"operational_contact"`
	FinancialContact     Contact               `gorm:"type:jsonb;serializer:json" json:"financial_contact"`
	CommunicationChannel CommunicationChannel  `gorm:"type:jsonb;serializer:json" json:"communication_channel"`
	IntelligentAgent     IntelligentAgent      `gorm:"type:jsonb;serializer:json" json:"intelligent_agent"`
	IntegrationSettings  IntegrationSettings   `gorm:"type:jsonb;serializer:json" json:"integration_settings"`
	Notes                string                `gorm:"type:text" json:"notes"`
	Status               OnboardingStatus      `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	CreatedAt            time.Time             `json:"created_at"`
	UpdatedAt            time.Time             `json:"updated_at"`

	Documents []OnboardingDocument `gorm:"foreignKey:OnboardingID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (Onboarding) TableName() string {
	return "onboardings"
}

// DisplayName is the label shown on the schedule: trade name, else legal name, else fallback.
func (o *Onboarding) DisplayName(fallback string) string {
	if o.Company.TradeName != "" {
		return o.Company.TradeName
	}
	if o.Company.LegalName != "" {
		return o.Company.LegalName
	}
	return fallback
}

type DocumentType string

const (
	DocumentArticlesOfAssociation DocumentType = "articles_of_association"
	DocumentIdentity              DocumentType = "identity"
	DocumentProofOfAddress        DocumentType = "proof_of_address"
	DocumentLogo                  DocumentType = "logo"
	DocumentCommunicationChannel  DocumentType = "communication_channel"
	DocumentIntelligentAgent      DocumentType = "intelligent_agent"
	DocumentIntegrationSettings   DocumentType = "integration_settings"
)

// DocumentRule limits what may be uploaded for a document type.
type DocumentRule struct {
	MaxSize      int64
	AllowedMIMEs []string
}

var generalDocumentRule = DocumentRule{
	MaxSize: 10 << 20,
	AllowedMIMEs: []string{
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"image/jpeg",
		"image/png",
	},
}

var logoDocumentRule = DocumentRule{
	MaxSize:      2 << 20,
	AllowedMIMEs: []string{"image/png", "image/jpeg", "image/svg+xml"},
}

// Rule returns the upload limits for t, and false for unknown types.
func (t DocumentType) Rule() (DocumentRule, bool) {
	switch t {
	case DocumentLogo:
		return logoDocumentRule, true
	case DocumentArticlesOfAssociation, DocumentIdentity, DocumentProofOfAddress,
		DocumentCommunicationChannel, DocumentIntelligentAgent, DocumentIntegrationSettings:
		return generalDocumentRule, true
	}
	return DocumentRule{}, false
}

// Allows reports whether mime is accepted by the rule.
func (r DocumentRule) Allows(mime string) bool {
	for _, m := range r.AllowedMIMEs {
		if m == mime {
			return true
		}
	}
	return false
}

// OnboardingDocument is an uploaded attachment; the bytes live in blob storage under StorageKey.
type OnboardingDocument struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OnboardingID uuid.UUID    `gorm:"type:uuid;not null;index" json:"onboarding_id"`
	DocumentType DocumentType `gorm:"type:varchar(40);not null" json:"document_type"`
	Filename     string       `gorm:"type:varchar(255);not null" json:"filename"`
	ContentType  string       `gorm:"type:varchar(120);not null" json:"content_type"`
	Size         int64        `gorm:"not null" json:"size"`
	StorageKey   string       `gorm:"type:text;not null" json:"-"`
	UploadedAt   time.Time    `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (OnboardingDocument) TableName() string {
	return "onboarding_documents"
}
