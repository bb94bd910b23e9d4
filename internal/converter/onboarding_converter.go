package converter

import (
	"onboarding-portal/internal/delivery/dto"
	"onboarding-portal/internal/domain/entity"
)

// ApplyOnboardingRequest copies every non-nil section of req onto o.
func ApplyOnboardingRequest(o *entity.Onboarding, req *dto.OnboardingRequest) {
	if req.Company != nil {
		o.Company = entity.CompanyData{
			LegalName:             req.Company.LegalName,
			TradeName:             req.Company.TradeName,
			TaxID:                 req.Company.TaxID,
			StateRegistration:     req.Company.StateRegistration,
			MunicipalRegistration: req.Company.MunicipalRegistration,
			Phone:                 req.Company.Phone,
			Email:                 req.Company.Email,
		}
	}
	if req.Address != nil {
		o.Address = *req.Address
	}
	if req.LegalRepresentatives != nil {
		reps := make([]entity.LegalRepresentative, len(req.LegalRepresentatives))
		for i, r := range req.LegalRepresentatives {
			reps[i] = entity.LegalRepresentative{
				Name:     r.Name,
				TaxID:    r.TaxID,
				Position: r.Position,
				Email:    r.Email,
				Phone:    r.Phone,
			}
		}
		o.LegalRepresentatives = reps
	}
	if req.OperationalContact != nil {
		o.OperationalContact = contactFromRequest(req.OperationalContact)
	}
	if req.FinancialContact != nil {
		o.FinancialContact = contactFromRequest(req.FinancialContact)
	}
	if req.CommunicationChannel != nil {
		meeting := o.CommunicationChannel.MetaBusinessMeeting
		o.CommunicationChannel = entity.CommunicationChannel{
			OfficialWhatsAppNumber: req.CommunicationChannel.OfficialWhatsAppNumber,
			MessageTemplates:       req.CommunicationChannel.MessageTemplates,
			MetaBusinessMeeting:    meeting,
		}
	}
	if req.IntelligentAgent != nil {
		o.IntelligentAgent = *req.IntelligentAgent
	}
	if req.IntegrationSettings != nil {
		o.IntegrationSettings = *req.IntegrationSettings
	}
	if req.Notes != nil {
		o.Notes = *req.Notes
	}
}

func contactFromRequest(c *dto.ContactRequest) entity.Contact {
	return entity.Contact{
		Name:     c.Name,
		Position: c.Position,
		Email:    c.Email,
		Phone:    c.Phone,
	}
}

func DocumentToResponse(d *entity.OnboardingDocument) *dto.DocumentResponse {
	if d == nil {
		return nil
	}
	return &dto.DocumentResponse{
		ID:           d.ID,
		DocumentType: string(d.DocumentType),
		Filename:     d.Filename,
		ContentType:  d.ContentType,
		Size:         d.Size,
		UploadedAt:   d.UploadedAt,
	}
}

// OnboardingToResponse converts an Onboarding entity to OnboardingResponse DTO
func OnboardingToResponse(o *entity.Onboarding) *dto.OnboardingResponse {
	if o == nil {
		return nil
	}

	docs := make([]dto.DocumentResponse, len(o.Documents))
	for i := range o.Documents {
		docs[i] = *DocumentToResponse(&o.Documents[i])
	}
	reps := o.LegalRepresentatives
	if reps == nil {
		reps = []entity.LegalRepresentative{}
	}

	return &dto.OnboardingResponse{
		ID:                   o.ID,
		UserID:               o.UserID,
		DisplayName:          o.DisplayName(""),
		Company:              o.Company,
		Address:              o.Address,
		LegalRepresentatives: reps,
		OperationalContact:   o.OperationalContact,
		FinancialContact:     o.FinancialContact,
		CommunicationChannel: o.CommunicationChannel,
		IntelligentAgent:     o.IntelligentAgent,
		IntegrationSettings:  o.IntegrationSettings,
		Notes:                o.Notes,
		Status:               string(o.Status),
		Documents:            docs,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}

func OnboardingsToResponses(list []entity.Onboarding) []dto.OnboardingResponse {
	responses := make([]dto.OnboardingResponse, len(list))
	for i := range list {
		responses[i] = *OnboardingToResponse(&list[i])
	}
	return responses
}
