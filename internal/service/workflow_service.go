package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/ports"
	"kpp-siprima/internal/util"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	pdfMimeType      = "application/pdf"
	releaseTimeout   = 2 * time.Second
)

// WorkflowService : the only writer of document status
type WorkflowService struct {
	documentRepository  ports.DocumentRepository
	signatureRepository ports.SignatureRepository
	templateService     ports.TemplateService
	userRepository      ports.UserRepository
	cacheRepository     ports.CacheRepository
	locker              ports.DocumentLocker
	storage             ports.ObjectStorage
	stamper             ports.Stamper
	lockTTL             time.Duration
	presignTTL          time.Duration
	maxUploadBytes      int64
}

func NewWorkflowService(
	documentRepository ports.DocumentRepository,
	signatureRepository ports.SignatureRepository,
	templateService ports.TemplateService,
	userRepository ports.UserRepository,
	cacheRepository ports.CacheRepository,
	locker ports.DocumentLocker,
	storage ports.ObjectStorage,
	stamper ports.Stamper,
	signing config.SigningConfig,
	presignTTL time.Duration,
) *WorkflowService {
	return &WorkflowService{
		documentRepository:  documentRepository,
		signatureRepository: signatureRepository,
		templateService:     templateService,
		userRepository:      userRepository,
		cacheRepository:     cacheRepository,
		locker:              locker,
		storage:             storage,
		stamper:             stamper,
		lockTTL:             signing.LockDuration(),
		presignTTL:          presignTTL,
		maxUploadBytes:      signing.MaxUploadBytes,
	}
}

// CreateDocument : stores an uploaded PDF as a new draft document
func (s *WorkflowService) CreateDocument(ctx context.Context, ownerUUID, title, description, filename string, data []byte) (*model.Document, error) {
	if len(data) == 0 {
		return nil, model.NewValidationError("uploaded file is empty", nil)
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		return nil, model.NewValidationError(fmt.Sprintf("uploaded file exceeds %d bytes", s.maxUploadBytes), nil)
	}
	extension := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if extension != "pdf" || !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, model.NewValidationError("only PDF documents can be signed", nil)
	}

	pageCount, err := s.stamper.PageCount(ctx, data)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(title) == "" {
		title = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	sum := sha256.Sum256(data)
	documentUUID := uuid.NewString()
	document := &model.Document{
		UUID:        documentUUID,
		OwnerUUID:   ownerUUID,
		Title:       title,
		Description: description,
		StoragePath: fmt.Sprintf("documents/%s/%s.pdf", ownerUUID, documentUUID),
		MimeType:    pdfMimeType,
		Extension:   extension,
		SizeBytes:   int64(len(data)),
		Sha256:      hex.EncodeToString(sum[:]),
		PageCount:   pageCount,
		Status:      model.StatusDraft,
	}

	if err := s.storage.PutObject(ctx, document.StoragePath, data, pdfMimeType); err != nil {
		return nil, asProcessing("failed to store the document", err)
	}

	if err := s.documentRepository.Create(ctx, s.documentRepository.Executor(), document); err != nil {
		s.discardObject(ctx, document.StoragePath)
		return nil, asProcessing("failed to save the document", err)
	}

	now := time.Now()
	document.CreatedAt, document.UpdatedAt = now, now

	zap.L().Info("[WorkflowService] document uploaded",
		zap.String("document", document.UUID), zap.Int("pages", pageCount))
	return document, nil
}

// ListDocuments : owner's documents with cursor pagination
func (s *WorkflowService) ListDocuments(ctx context.Context, ownerUUID, cursor string, limit int) ([]model.Document, string, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	docs, next, err := s.documentRepository.ListByOwner(ctx, s.documentRepository.Executor(), ownerUUID, cursor, limit)
	if err != nil {
		return nil, "", asProcessing("failed to list documents", err)
	}
	return docs, next, nil
}

// GetDocumentSource : current bytes of the document, the stamped artifact once signed
func (s *WorkflowService) GetDocumentSource(ctx context.Context, documentUUID string) (*model.Document, []byte, error) {
	document, err := s.documentRepository.GetByUUID(ctx, s.documentRepository.Executor(), documentUUID)
	if err != nil {
		return nil, nil, asProcessing("failed to read the document", err)
	}

	data, err := s.storage.GetObject(ctx, document.CurrentPath())
	if err != nil {
		return nil, nil, asProcessing("failed to fetch the document file", err)
	}
	return document, data, nil
}

// DocumentURL : short-lived download link of the current file
func (s *WorkflowService) DocumentURL(ctx context.Context, document *model.Document) (string, error) {
	url, err := s.storage.GeneratePresignedGetURL(ctx, document.CurrentPath(), s.presignTTL)
	if err != nil {
		return "", asProcessing("failed to presign the document URL", err)
	}
	return url, nil
}

// SubmitForSignature : draft -> pending_signature, only the owner routes a document
func (s *WorkflowService) SubmitForSignature(ctx context.Context, documentUUID, userUUID string) (model.DocumentStatus, error) {
	release, err := s.acquire(ctx, documentUUID)
	if err != nil {
		return "", err
	}
	defer release()

	exec := s.documentRepository.Executor()
	document, err := s.documentRepository.GetByUUID(ctx, exec, documentUUID)
	if err != nil {
		return "", asProcessing("failed to read the document", err)
	}
	if document.OwnerUUID != userUUID {
		return document.Status, model.NewValidationError("only the document owner can submit it for signature", nil)
	}
	if !document.Status.CanTransition(model.StatusPendingSignature) {
		return document.Status, model.NewConflictError(fmt.Sprintf("document is %s and cannot be submitted", document.Status), nil)
	}

	ok, err := s.documentRepository.TransitionStatus(ctx, exec, documentUUID,
		[]model.DocumentStatus{model.StatusDraft}, model.StatusPendingSignature, nil)
	if err != nil {
		return document.Status, asProcessing("failed to update the document status", err)
	}
	if !ok {
		return document.Status, model.NewConflictError("document status changed, refresh and try again", nil)
	}

	s.invalidate(ctx, documentUUID)
	return model.StatusPendingSignature, nil
}

// Sign : stamps the template image on the placement and moves the document to signed.
// Nothing is persisted unless stamping, upload and the status update all succeed.
func (s *WorkflowService) Sign(ctx context.Context, cmd model.SignCommand) (*model.SignResult, error) {
	if strings.TrimSpace(cmd.TemplateUUID) == "" {
		return nil, model.NewValidationError("signature template is required", nil)
	}
	if cmd.Placement == nil {
		return nil, model.NewValidationError("signature placement is required", nil)
	}
	if err := cmd.Placement.Validate(); err != nil {
		return nil, err
	}

	release, err := s.acquire(ctx, cmd.DocumentUUID)
	if err != nil {
		return nil, err
	}
	defer release()

	exec := s.documentRepository.Executor()
	document, signer, err := s.loadForAction(ctx, exec, cmd.DocumentUUID, cmd.UserUUID, model.StatusSigned)
	if err != nil {
		return nil, err
	}

	template, image, err := s.templateService.SelectTemplate(ctx, cmd.UserUUID, cmd.TemplateUUID)
	if err != nil {
		return nil, err
	}

	source, err := s.storage.GetObject(ctx, document.StoragePath)
	if err != nil {
		return nil, asProcessing("failed to fetch the document file", err)
	}

	pageWidth, pageHeight, err := s.stamper.PageSize(ctx, source, cmd.Placement.Page)
	if err != nil {
		return nil, asProcessing("failed to read the page size", err)
	}
	if err := cmd.Placement.FitsPage(document.PageCount, pageWidth, pageHeight); err != nil {
		return nil, err
	}

	stamped, err := s.stamper.Stamp(ctx, source, image, *cmd.Placement)
	if err != nil {
		return nil, asProcessing("failed to stamp the signature", err)
	}

	signedPath := fmt.Sprintf("documents/%s/%s.signed.pdf", document.OwnerUUID, document.UUID)
	if err := s.storage.PutObject(ctx, signedPath, stamped, pdfMimeType); err != nil {
		return nil, asProcessing("failed to store the signed document", err)
	}

	placement := *cmd.Placement
	templateUUID := template.UUID
	signature := &model.DocumentSignature{
		UUID:           uuid.NewString(),
		DocumentUUID:   document.UUID,
		SignerUUID:     signer.UUID,
		SignerName:     signer.DisplayName(),
		SignerPosition: signer.Position,
		TemplateUUID:   &templateUUID,
		Placement:      &placement,
		Notes:          strings.TrimSpace(cmd.Notes),
		Status:         model.SignatureSigned,
	}

	if err := s.commitTransition(ctx, signature, model.StatusSigned, &signedPath); err != nil {
		s.discardObject(ctx, signedPath)
		return nil, err
	}

	s.invalidate(ctx, document.UUID)
	zap.L().Info("[WorkflowService] document signed",
		zap.String("document", document.UUID),
		zap.String("signer", signer.UUID),
		zap.Int("page", placement.Page))

	return &model.SignResult{SignatureUUID: signature.UUID, Status: model.StatusSigned}, nil
}

// Reject : moves the document to rejected with the signer's reason, nothing is stamped
func (s *WorkflowService) Reject(ctx context.Context, documentUUID, userUUID, notes string) (model.DocumentStatus, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "", model.NewValidationError("a rejection reason is required", nil)
	}

	release, err := s.acquire(ctx, documentUUID)
	if err != nil {
		return "", err
	}
	defer release()

	document, signer, err := s.loadForAction(ctx, s.documentRepository.Executor(), documentUUID, userUUID, model.StatusRejected)
	if err != nil {
		return "", err
	}

	signature := &model.DocumentSignature{
		UUID:           uuid.NewString(),
		DocumentUUID:   document.UUID,
		SignerUUID:     signer.UUID,
		SignerName:     signer.DisplayName(),
		SignerPosition: signer.Position,
		Notes:          notes,
		Status:         model.SignatureRejected,
	}
	if err := s.commitTransition(ctx, signature, model.StatusRejected, nil); err != nil {
		return document.Status, err
	}

	s.invalidate(ctx, document.UUID)
	zap.L().Info("[WorkflowService] document rejected",
		zap.String("document", document.UUID), zap.String("signer", signer.UUID))
	return model.StatusRejected, nil
}

// Status : cache-aside read of the status and active signatures.
// A state read across an invalidation is returned but not cached.
func (s *WorkflowService) Status(ctx context.Context, documentUUID string) (*model.DocumentState, error) {
	state, err := s.cacheRepository.GetState(ctx, documentUUID)
	if err != nil {
		zap.L().Warn("[WorkflowService] status cache unavailable", zap.Error(err))
	}
	if state != nil {
		return state, nil
	}

	version, versionErr := s.cacheRepository.StateVersion(ctx, documentUUID)
	if versionErr != nil {
		zap.L().Warn("[WorkflowService] status cache version unavailable", zap.Error(versionErr))
	}

	exec := s.documentRepository.Executor()
	document, err := s.documentRepository.GetByUUID(ctx, exec, documentUUID)
	if err != nil {
		return nil, asProcessing("failed to read the document", err)
	}

	signatures, err := s.signatureRepository.ListByDocument(ctx, exec, documentUUID)
	if err != nil {
		return nil, asProcessing("failed to read the document signatures", err)
	}

	state = &model.DocumentState{
		DocumentUUID: document.UUID,
		Status:       document.Status,
		Signatures:   signatures,
	}
	if versionErr == nil {
		stored, err := s.cacheRepository.SetState(ctx, state, version)
		if err != nil {
			zap.L().Warn("[WorkflowService] failed to cache document status", zap.Error(err))
		} else if !stored {
			zap.L().Debug("[WorkflowService] document status changed while loading, not cached",
				zap.String("document", documentUUID))
		}
	}
	return state, nil
}

// loadForAction : document and signer, with the status and duplicate checks of a sign/reject
func (s *WorkflowService) loadForAction(ctx context.Context, exec sqlx.ExtContext, documentUUID, userUUID string, next model.DocumentStatus) (*model.Document, *model.User, error) {
	document, err := s.documentRepository.GetByUUID(ctx, exec, documentUUID)
	if err != nil {
		return nil, nil, asProcessing("failed to read the document", err)
	}
	if document.Status.IsTerminal() {
		return nil, nil, model.NewConflictError(fmt.Sprintf("document is already %s", document.Status), nil)
	}
	if !document.Status.CanTransition(next) {
		return nil, nil, model.NewConflictError(fmt.Sprintf("document is %s and cannot become %s", document.Status, next), nil)
	}

	exists, err := s.signatureRepository.HasActive(ctx, exec, documentUUID, userUUID)
	if err != nil {
		return nil, nil, asProcessing("failed to check existing signatures", err)
	}
	if exists {
		return nil, nil, model.NewConflictError("you have already signed or rejected this document", nil)
	}

	signer, err := s.userRepository.FindByUUID(ctx, exec, userUUID)
	if err != nil {
		return nil, nil, asProcessing("failed to read the signer", err)
	}
	return document, signer, nil
}

// commitTransition : conditional status update and signature insert in one transaction
func (s *WorkflowService) commitTransition(ctx context.Context, signature *model.DocumentSignature, to model.DocumentStatus, signedPath *string) error {
	exec, rollback, commit, err := s.documentRepository.BeginTX(ctx)
	if err != nil {
		return model.NewProcessingError("failed to start the transaction", err)
	}
	defer func() { _ = rollback() }()

	ok, err := s.documentRepository.TransitionStatus(ctx, exec, signature.DocumentUUID, model.SignableStatuses(), to, signedPath)
	if err != nil {
		return asProcessing("failed to update the document status", err)
	}
	if !ok {
		return model.NewConflictError("document status no longer permits this action", nil)
	}

	if err := s.signatureRepository.Create(ctx, exec, signature); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return model.NewConflictError("you have already signed or rejected this document", err)
		}
		return asProcessing("failed to save the signature", err)
	}

	if err := commit(); err != nil {
		return model.NewProcessingError("failed to commit the transaction", err)
	}
	return nil
}

// acquire : per-document lock, a busy lock is a ConflictError
func (s *WorkflowService) acquire(ctx context.Context, documentUUID string) (func(), error) {
	release, ok, err := s.locker.Acquire(ctx, documentUUID, s.lockTTL)
	if err != nil {
		return nil, model.NewProcessingError("failed to lock the document", err)
	}
	if !ok {
		return nil, model.NewConflictError("another sign or reject action is in progress for this document", nil)
	}

	return func() {
		// released even when the request context is already cancelled
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			zap.L().Warn("[WorkflowService] failed to release document lock",
				zap.String("document", documentUUID), zap.Error(err))
		}
	}, nil
}

func (s *WorkflowService) invalidate(ctx context.Context, documentUUID string) {
	if err := s.cacheRepository.DeleteState(ctx, documentUUID); err != nil {
		zap.L().Warn("[WorkflowService] failed to drop cached status", zap.String("document", documentUUID), zap.Error(err))
	}
}

func (s *WorkflowService) discardObject(ctx context.Context, key string) {
	if err := s.storage.DeleteObject(context.WithoutCancel(ctx), key); err != nil {
		_ = util.LogError("[WorkflowService] failed to remove orphaned object "+key, err)
	}
}

// asProcessing : keeps typed errors as they are, everything else becomes a ProcessingError
func asProcessing(message string, err error) error {
	if model.KindOf(err) != "" {
		return err
	}
	return model.NewProcessingError(message, err)
}
