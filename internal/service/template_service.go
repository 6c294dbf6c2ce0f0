package service

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/ports"
	"strings"
)

type TemplateService struct {
	templateRepository ports.TemplateRepository
	maxImageBytes      int
}

func NewTemplateService(templateRepository ports.TemplateRepository, maxImageBytes int) *TemplateService {
	return &TemplateService{
		templateRepository: templateRepository,
		maxImageBytes:      maxImageBytes,
	}
}

// ListTemplates : templates owned by the user
func (s *TemplateService) ListTemplates(ctx context.Context, ownerUUID string) ([]model.SignatureTemplate, error) {
	templates, err := s.templateRepository.ListByOwner(ctx, s.templateRepository.Executor(), ownerUUID)
	if err != nil {
		return nil, asProcessing("failed to list templates", err)
	}
	return templates, nil
}

// CreateTemplate : validates the data URI and stores it in its normalized form
func (s *TemplateService) CreateTemplate(ctx context.Context, ownerUUID, name, signatureImage string) (*model.SignatureTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewValidationError("template name is required", nil)
	}

	image, err := model.DecodeSignatureImage(signatureImage)
	if err != nil {
		return nil, err
	}
	if s.maxImageBytes > 0 && len(image) > s.maxImageBytes {
		return nil, model.NewValidationError(fmt.Sprintf("signature image exceeds %d bytes", s.maxImageBytes), nil)
	}

	template := &model.SignatureTemplate{
		UUID:           uuid.NewString(),
		OwnerUUID:      ownerUUID,
		Name:           name,
		SignatureImage: strings.TrimSpace(signatureImage),
	}
	if err := s.templateRepository.Create(ctx, s.templateRepository.Executor(), template); err != nil {
		return nil, asProcessing("failed to save the template", err)
	}

	zap.L().Info("[TemplateService] template created", zap.String("template", template.UUID))
	return template, nil
}

// DeleteTemplate : only the owner can delete, a foreign template looks missing
func (s *TemplateService) DeleteTemplate(ctx context.Context, ownerUUID, templateUUID string) error {
	deleted, err := s.templateRepository.Delete(ctx, s.templateRepository.Executor(), templateUUID, ownerUUID)
	if err != nil {
		return asProcessing("failed to delete the template", err)
	}
	if !deleted {
		return model.NewNotFoundError("template not found", nil)
	}
	return nil
}

// SelectTemplate : the template and its decoded image, an empty image is a ValidationError
func (s *TemplateService) SelectTemplate(ctx context.Context, ownerUUID, templateUUID string) (*model.SignatureTemplate, []byte, error) {
	template, err := s.templateRepository.GetByUUID(ctx, s.templateRepository.Executor(), templateUUID)
	if err != nil {
		return nil, nil, asProcessing("failed to read the template", err)
	}
	if template.OwnerUUID != ownerUUID {
		return nil, nil, model.NewNotFoundError("template not found", nil)
	}

	image, err := template.ImageBytes()
	if err != nil {
		return nil, nil, err
	}
	return template, image, nil
}
