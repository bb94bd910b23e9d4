package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"onboarding-portal/internal/converter"
	"onboarding-portal/internal/delivery/dto"
	"onboarding-portal/internal/domain/entity"
	"onboarding-portal/internal/domain/repository"
	"onboarding-portal/internal/infrastructure/storage"
	"onboarding-portal/internal/service"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrOnboardingNotFound      = errors.New("onboarding not found")
	ErrOnboardingForbidden     = errors.New("onboarding belongs to another user")
	ErrLegalNameRequired       = errors.New("company legal name is required")
	ErrInvalidOnboardingStatus = errors.New("invalid onboarding status")
	ErrInvalidDocumentType     = errors.New("invalid document type")
	ErrDocumentTooLarge        = errors.New("document exceeds the size limit for its type")
	ErrDocumentTypeNotAllowed  = errors.New("file format not allowed for this document type")
	ErrDocumentEmpty           = errors.New("document is empty")
	ErrDocumentNotFound        = errors.New("document not found")
)

// DocumentUpload is a file received for an onboarding record.
type DocumentUpload struct {
	DocumentType string
	Filename     string
	Content      io.Reader
}

// DocumentContent is an opened document; the caller closes Body.
type DocumentContent struct {
	Document *entity.OnboardingDocument
	Body     io.ReadCloser
}

type OnboardingUsecase interface {
	CreateOrUpdate(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.OnboardingResponse, error)
	Update(ctx context.Context, userID string, id uuid.UUID, req *dto.OnboardingRequest) (*dto.OnboardingResponse, error)
	GetByUserID(ctx context.Context, userID string) (*dto.OnboardingResponse, error)
	ListAll(ctx context.Context, status string) (*dto.OnboardingListResponse, error)
	UpdateStatus(ctx context.Context, actorID string, id uuid.UUID, status string) (*dto.OnboardingResponse, error)
	Delete(ctx context.Context, actorID string, id uuid.UUID) error
	AddDocument(ctx context.Context, userID string, upload DocumentUpload) (*dto.DocumentResponse, error)
	OpenDocument(ctx context.Context, userID string, isAdmin bool, id uuid.UUID) (*DocumentContent, error)
	DeleteDocument(ctx context.Context, userID string, id uuid.UUID) error
	ClientNameResolver
}

type onboardingUsecase struct {
	db             *gorm.DB
	log            *logrus.Logger
	onboardingRepo repository.OnboardingRepository
	documentRepo   repository.OnboardingDocumentRepository
	allocator      SlotAllocator
	storage        storage.Storage
	auditService   service.AuditService
}

func NewOnboardingUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	onboardingRepo repository.OnboardingRepository,
	documentRepo repository.OnboardingDocumentRepository,
	allocator SlotAllocator,
	storage storage.Storage,
	auditService service.AuditService,
) OnboardingUsecase {
	return &onboardingUsecase{
		db:             db,
		log:            log,
		onboardingRepo: onboardingRepo,
		documentRepo:   documentRepo,
		allocator:      allocator,
		storage:        storage,
		auditService:   auditService,
	}
}

// CreateOrUpdate saves the caller's record, creating it on first submission.
func (u *onboardingUsecase) CreateOrUpdate(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.OnboardingResponse, error) {
	existing, err := u.onboardingRepo.FindByUserID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed find onboarding by user: %+v", err)
		return nil, err
	}
	if existing != nil {
		return u.save(ctx, userID, existing, req)
	}

	if req.Company == nil || strings.TrimSpace(req.Company.LegalName) == "" {
		return nil, ErrLegalNameRequired
	}

	onboarding := &entity.Onboarding{
		ID:     uuid.New(),
		UserID: userID,
		Status: entity.OnboardingStatusDraft,
	}
	return u.save(ctx, userID, onboarding, req)
}

// Update applies a partial update to a record owned by the caller.
func (u *onboardingUsecase) Update(ctx context.Context, userID string, id uuid.UUID, req *dto.OnboardingRequest) (*dto.OnboardingResponse, error) {
	onboarding, err := u.onboardingRepo.FindByID(u.db.WithContext(ctx), id)
	if err != nil {
		u.log.Warnf("Failed find onboarding by id: %+v", err)
		return nil, err
	}
	if onboarding == nil {
		return nil, ErrOnboardingNotFound
	}
	if onboarding.UserID != userID {
		return nil, ErrOnboardingForbidden
	}
	if req.Company != nil && strings.TrimSpace(req.Company.LegalName) == "" {
		return nil, ErrLegalNameRequired
	}

	return u.save(ctx, userID, onboarding, req)
}

func (u *onboardingUsecase) save(ctx context.Context, userID string, onboarding *entity.Onboarding, req *dto.OnboardingRequest) (*dto.OnboardingResponse, error) {
	isNew := onboarding.CreatedAt.IsZero()
	previousName := onboarding.DisplayName("")

	converter.ApplyOnboardingRequest(onboarding, req)
	if req.Submit && onboarding.Status == entity.OnboardingStatusDraft {
		onboarding.Status = entity.OnboardingStatusPending
	}
	name := onboarding.DisplayName(defaultClientName)

	// The meeting goes through the allocator first so a taken slot rejects the whole save.
	reserved := false
	if cc := req.CommunicationChannel; cc != nil && cc.MetaBusinessMeeting != nil {
		entry, err := u.allocator.Reserve(ctx, userID, name, cc.MetaBusinessMeeting.Date, cc.MetaBusinessMeeting.Slot)
		if err != nil {
			if errors.Is(err, ErrScheduleStorage) {
				u.log.Errorf("Failed to reserve meeting for user %s: %+v", userID, err)
			}
			return nil, err
		}
		onboarding.CommunicationChannel.MetaBusinessMeeting = &entity.MeetingSchedule{Date: entry.Date, Slot: entry.Slot}
		reserved = true
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	if isNew {
		if err := u.onboardingRepo.Create(tx, onboarding); err != nil {
			u.log.Warnf("Failed create onboarding: %+v", err)
			return nil, err
		}
	} else {
		if err := u.onboardingRepo.Update(tx, onboarding); err != nil {
			u.log.Warnf("Failed update onboarding: %+v", err)
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	if !reserved && !isNew && previousName != onboarding.DisplayName("") {
		if err := u.allocator.UpdateClientName(ctx, userID, name); err != nil {
			u.log.Warnf("Failed to sync client name for user %s: %+v", userID, err)
		}
	}

	return u.toResponse(ctx, onboarding), nil
}

func (u *onboardingUsecase) GetByUserID(ctx context.Context, userID string) (*dto.OnboardingResponse, error) {
	onboarding, err := u.onboardingRepo.FindByUserID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed find onboarding by user: %+v", err)
		return nil, err
	}
	if onboarding == nil {
		return nil, ErrOnboardingNotFound
	}
	return u.toResponse(ctx, onboarding), nil
}

func (u *onboardingUsecase) ListAll(ctx context.Context, status string) (*dto.OnboardingListResponse, error) {
	filter := entity.OnboardingStatus(status)
	if filter != "" && !filter.IsValid() {
		return nil, ErrInvalidOnboardingStatus
	}

	onboardings, err := u.onboardingRepo.FindAll(u.db.WithContext(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed find onboardings: %+v", err)
		return nil, err
	}

	responses := make([]dto.OnboardingResponse, len(onboardings))
	for i := range onboardings {
		responses[i] = *u.toResponse(ctx, &onboardings[i])
	}
	return &dto.OnboardingListResponse{
		Onboardings: responses,
		Total:       len(responses),
	}, nil
}

func (u *onboardingUsecase) UpdateStatus(ctx context.Context, actorID string, id uuid.UUID, status string) (*dto.OnboardingResponse, error) {
	newStatus := entity.OnboardingStatus(status)
	if !newStatus.IsValid() {
		return nil, ErrInvalidOnboardingStatus
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	onboarding, err := u.onboardingRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed find onboarding by id: %+v", err)
		return nil, err
	}
	if onboarding == nil {
		return nil, ErrOnboardingNotFound
	}

	oldStatus := onboarding.Status
	if err := u.onboardingRepo.UpdateStatus(tx, id, newStatus); err != nil {
		u.log.Warnf("Failed update onboarding status: %+v", err)
		return nil, err
	}

	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		ActorID:  actorID,
		Action:   entity.AuditActionOnboardingStatus,
		Entity:   "onboarding",
		EntityID: id.String(),
		OldValue: oldStatus,
		NewValue: newStatus,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Onboarding %s status %s -> %s by %s", id, oldStatus, newStatus, actorID)
	onboarding.Status = newStatus
	return u.toResponse(ctx, onboarding), nil
}

// Delete removes the record and its documents, then their stored files.
func (u *onboardingUsecase) Delete(ctx context.Context, actorID string, id uuid.UUID) error {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	onboarding, err := u.onboardingRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed find onboarding by id: %+v", err)
		return err
	}
	if onboarding == nil {
		return ErrOnboardingNotFound
	}

	if err := u.onboardingRepo.Delete(tx, id); err != nil {
		u.log.Warnf("Failed delete onboarding: %+v", err)
		return err
	}

	if err := u.auditService.Record(ctx, tx, service.AuditEntry{
		ActorID:  actorID,
		Action:   entity.AuditActionOnboardingDelete,
		Entity:   "onboarding",
		EntityID: id.String(),
		OldValue: map[string]interface{}{
			"user_id":    onboarding.UserID,
			"legal_name": onboarding.Company.LegalName,
			"status":     onboarding.Status,
			"documents":  len(onboarding.Documents),
		},
	}); err != nil {
		return err
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return err
	}

	for _, doc := range onboarding.Documents {
		if err := u.storage.Delete(ctx, doc.StorageKey); err != nil {
			u.log.Warnf("Failed delete stored file %s: %+v", doc.StorageKey, err)
		}
	}

	return nil
}

func (u *onboardingUsecase) AddDocument(ctx context.Context, userID string, upload DocumentUpload) (*dto.DocumentResponse, error) {
	docType := entity.DocumentType(upload.DocumentType)
	rule, ok := docType.Rule()
	if !ok {
		return nil, ErrInvalidDocumentType
	}

	onboarding, err := u.onboardingRepo.FindByUserID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed find onboarding by user: %+v", err)
		return nil, err
	}
	if onboarding == nil {
		return nil, ErrOnboardingNotFound
	}

	data, err := io.ReadAll(io.LimitReader(upload.Content, rule.MaxSize+1))
	if err != nil {
		u.log.Warnf("Failed read upload: %+v", err)
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrDocumentEmpty
	}
	if int64(len(data)) > rule.MaxSize {
		return nil, ErrDocumentTooLarge
	}

	contentType, ok := detectAllowedMIME(data, rule)
	if !ok {
		return nil, ErrDocumentTypeNotAllowed
	}

	document := &entity.OnboardingDocument{
		ID:           uuid.New(),
		OnboardingID: onboarding.ID,
		DocumentType: docType,
		Filename:     upload.Filename,
		ContentType:  contentType,
		Size:         int64(len(data)),
	}

	key, err := u.storage.Put(ctx, document.ID, upload.Filename, contentType, bytes.NewReader(data))
	if err != nil {
		u.log.Errorf("Failed store document: %+v", err)
		return nil, err
	}
	document.StorageKey = key

	if err := u.documentRepo.Create(u.db.WithContext(ctx), document); err != nil {
		u.log.Warnf("Failed create document: %+v", err)
		if delErr := u.storage.Delete(ctx, key); delErr != nil {
			u.log.Warnf("Failed delete orphaned file %s: %+v", key, delErr)
		}
		return nil, err
	}

	return converter.DocumentToResponse(document), nil
}

// detectAllowedMIME sniffs data and returns the rule's MIME type it matches.
func detectAllowedMIME(data []byte, rule entity.DocumentRule) (string, bool) {
	detected := mimetype.Detect(data)
	for _, allowed := range rule.AllowedMIMEs {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return detected.String(), false
}

func (u *onboardingUsecase) OpenDocument(ctx context.Context, userID string, isAdmin bool, id uuid.UUID) (*DocumentContent, error) {
	document, err := u.ownedDocument(ctx, userID, isAdmin, id)
	if err != nil {
		return nil, err
	}

	body, err := u.storage.Get(ctx, document.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrDocumentNotFound
		}
		u.log.Warnf("Failed open stored file %s: %+v", document.StorageKey, err)
		return nil, err
	}

	return &DocumentContent{Document: document, Body: body}, nil
}

func (u *onboardingUsecase) DeleteDocument(ctx context.Context, userID string, id uuid.UUID) error {
	document, err := u.ownedDocument(ctx, userID, false, id)
	if err != nil {
		return err
	}

	if err := u.documentRepo.Delete(u.db.WithContext(ctx), id); err != nil {
		u.log.Warnf("Failed delete document: %+v", err)
		return err
	}

	if err := u.storage.Delete(ctx, document.StorageKey); err != nil {
		u.log.Warnf("Failed delete stored file %s: %+v", document.StorageKey, err)
	}
	return nil
}

func (u *onboardingUsecase) ownedDocument(ctx context.Context, userID string, isAdmin bool, id uuid.UUID) (*entity.OnboardingDocument, error) {
	db := u.db.WithContext(ctx)

	document, err := u.documentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed find document by id: %+v", err)
		return nil, err
	}
	if document == nil {
		return nil, ErrDocumentNotFound
	}
	if isAdmin {
		return document, nil
	}

	onboarding, err := u.onboardingRepo.FindByUserID(db, userID)
	if err != nil {
		u.log.Warnf("Failed find onboarding by user: %+v", err)
		return nil, err
	}
	// Another client's document is reported as missing.
	if onboarding == nil || onboarding.ID != document.OnboardingID {
		return nil, ErrDocumentNotFound
	}
	return document, nil
}

// ClientName returns the schedule label for userID, or "" when there is no record.
func (u *onboardingUsecase) ClientName(ctx context.Context, userID string) string {
	onboarding, err := u.onboardingRepo.FindByUserID(u.db.WithContext(ctx), userID)
	if err != nil {
		u.log.Warnf("Failed resolve client name for user %s: %+v", userID, err)
		return ""
	}
	if onboarding == nil {
		return ""
	}
	return onboarding.DisplayName("")
}

// toResponse overlays the live schedule entry, which is authoritative over the stored copy.
func (u *onboardingUsecase) toResponse(ctx context.Context, onboarding *entity.Onboarding) *dto.OnboardingResponse {
	resp := converter.OnboardingToResponse(onboarding)
	if entry := u.allocator.FindByUser(ctx, onboarding.UserID); entry != nil {
		resp.CommunicationChannel.MetaBusinessMeeting = &entity.MeetingSchedule{Date: entry.Date, Slot: entry.Slot}
	} else {
		resp.CommunicationChannel.MetaBusinessMeeting = nil
	}
	return resp
}
