package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"onboarding-portal/internal/delivery/dto"
	"onboarding-portal/internal/delivery/http/middleware"
	"onboarding-portal/internal/domain/entity"
	"onboarding-portal/internal/usecase"
	"onboarding-portal/pkg/response"
	"onboarding-portal/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadBody   = 11 << 20
	maxUploadMemory = 4 << 20
)

type OnboardingHandler struct {
	onboardingUsecase usecase.OnboardingUsecase
	validator         *validator.CustomValidator
	log               *logrus.Logger
}

func NewOnboardingHandler(onboardingUsecase usecase.OnboardingUsecase, validator *validator.CustomValidator, log *logrus.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingUsecase: onboardingUsecase,
		validator:         validator,
		log:               log,
	}
}

func (h *OnboardingHandler) decode(w http.ResponseWriter, r *http.Request) (*dto.OnboardingRequest, bool) {
	var req dto.OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return nil, false
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return nil, false
	}
	return &req, true
}

func (h *OnboardingHandler) CreateOrUpdate(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	onboarding, err := h.onboardingUsecase.CreateOrUpdate(r.Context(), userID, req)
	if err != nil {
		writeOnboardingError(w, err, "Failed to save onboarding")
		return
	}

	response.Success(w, http.StatusOK, "Onboarding saved successfully", onboarding)
}

func (h *OnboardingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid onboarding ID", nil)
		return
	}

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	onboarding, err := h.onboardingUsecase.Update(r.Context(), userID, id, req)
	if err != nil {
		writeOnboardingError(w, err, "Failed to update onboarding")
		return
	}

	response.Success(w, http.StatusOK, "Onboarding updated successfully", onboarding)
}

func (h *OnboardingHandler) GetMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserIDFromContext(r.Context())

	onboarding, err := h.onboardingUsecase.GetByUserID(r.Context(), userID)
	if err != nil {
		writeOnboardingError(w, err, "Failed to get onboarding")
		return
	}

	response.Success(w, http.StatusOK, "Onboarding retrieved successfully", onboarding)
}

func (h *OnboardingHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	onboardings, err := h.onboardingUsecase.ListAll(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeOnboardingError(w, err, "Failed to get onboardings")
		return
	}

	response.Success(w, http.StatusOK, "Onboardings retrieved successfully", onboardings)
}

func (h *OnboardingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid onboarding ID", nil)
		return
	}

	var req dto.UpdateOnboardingStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	actorID, _ := middleware.GetUserIDFromContext(r.Context())
	onboarding, err := h.onboardingUsecase.UpdateStatus(r.Context(), actorID, id, req.Status)
	if err != nil {
		writeOnboardingError(w, err, "Failed to update onboarding status")
		return
	}

	response.Success(w, http.StatusOK, "Onboarding status updated successfully", onboarding)
}

func (h *OnboardingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid onboarding ID", nil)
		return
	}

	actorID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.onboardingUsecase.Delete(r.Context(), actorID, id); err != nil {
		writeOnboardingError(w, err, "Failed to delete onboarding")
		return
	}

	response.Success(w, http.StatusOK, "Onboarding deleted successfully", nil)
}

// UploadDocument accepts multipart form fields "file" and "document_type".
func (h *OnboardingHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "File is too large", nil)
			return
		}
		response.Error(w, http.StatusBadRequest, "Invalid multipart form", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.ValidationError(w, map[string]string{"file": "file is required"})
		return
	}
	defer file.Close()

	documentType := r.FormValue("document_type")
	if documentType == "" {
		response.ValidationError(w, map[string]string{"document_type": "document_type is required"})
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	document, err := h.onboardingUsecase.AddDocument(r.Context(), userID, usecase.DocumentUpload{
		DocumentType: documentType,
		Filename:     header.Filename,
		Content:      file,
	})
	if err != nil {
		writeOnboardingError(w, err, "Failed to upload document")
		return
	}

	response.Success(w, http.StatusCreated, "Document uploaded successfully", document)
}

func (h *OnboardingHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid document ID", nil)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	role, _ := middleware.GetRoleFromContext(r.Context())

	content, err := h.onboardingUsecase.OpenDocument(r.Context(), userID, role == entity.RoleAdmin, id)
	if err != nil {
		writeOnboardingError(w, err, "Failed to get document")
		return
	}
	defer content.Body.Close()

	w.Header().Set("Content-Type", content.Document.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(content.Document.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", content.Document.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content.Body); err != nil {
		h.log.Warnf("Failed stream document %s: %+v", id, err)
	}
}

func (h *OnboardingHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid document ID", nil)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	if err := h.onboardingUsecase.DeleteDocument(r.Context(), userID, id); err != nil {
		writeOnboardingError(w, err, "Failed to delete document")
		return
	}

	response.Success(w, http.StatusOK, "Document deleted successfully", nil)
}

func writeOnboardingError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrOnboardingNotFound):
		response.NotFound(w, "Onboarding not found")
	case errors.Is(err, usecase.ErrDocumentNotFound):
		response.NotFound(w, "Document not found")
	case errors.Is(err, usecase.ErrOnboardingForbidden):
		response.Forbidden(w, "Onboarding does not belong to you")
	case errors.Is(err, usecase.ErrLegalNameRequired),
		errors.Is(err, usecase.ErrInvalidOnboardingStatus),
		errors.Is(err, usecase.ErrInvalidDocumentType),
		errors.Is(err, usecase.ErrDocumentEmpty):
		response.Error(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, usecase.ErrDocumentTooLarge):
		response.Error(w, http.StatusRequestEntityTooLarge, err.Error(), nil)
	case errors.Is(err, usecase.ErrDocumentTypeNotAllowed):
		response.Error(w, http.StatusUnsupportedMediaType, err.Error(), nil)
	default:
		writeScheduleError(w, err, fallback)
	}
}
