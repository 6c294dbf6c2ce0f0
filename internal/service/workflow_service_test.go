package service_test

import (
	"context"
	"errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/pdftest"
	"kpp-siprima/internal/service"
	"testing"
	"time"
)

const (
	docUUID    = "doc1"
	ownerUUID  = "owner-1"
	signerUUID = "signer-1"
	tmplUUID   = "tmplA"
	lockTTL    = 30 * time.Second
	signedKey  = "documents/owner-1/doc1.signed.pdf"
	sourceKey  = "documents/owner-1/doc1.pdf"
)

type workflowFixture struct {
	svc        *service.WorkflowService
	documents  *MockDocumentRepository
	signatures *MockSignatureRepository
	templates  *MockTemplateRepository
	users      *MockUserRepository
	cache      *MockCacheRepository
	locker     *MockLocker
	storage    *MockStorage
	stamper    *MockStamper

	released  int
	committed int
}

func newWorkflowFixture() *workflowFixture {
	f := &workflowFixture{
		documents:  new(MockDocumentRepository),
		signatures: new(MockSignatureRepository),
		templates:  new(MockTemplateRepository),
		users:      new(MockUserRepository),
		cache:      new(MockCacheRepository),
		locker:     new(MockLocker),
		storage:    new(MockStorage),
		stamper:    new(MockStamper),
	}
	f.svc = service.NewWorkflowService(
		f.documents,
		f.signatures,
		service.NewTemplateService(f.templates, 0),
		f.users,
		f.cache,
		f.locker,
		f.storage,
		f.stamper,
		config.SigningConfig{LockTTL: 30, MaxUploadBytes: 1 << 20},
		15*time.Minute,
	)
	return f
}

func (f *workflowFixture) expectLock() {
	release := func(context.Context) error {
		f.released++
		return nil
	}
	f.locker.On("Acquire", mock.Anything, docUUID, lockTTL).Return(release, true, nil).Once()
}

func (f *workflowFixture) expectTX() {
	rollback := func() error { return nil }
	commit := func() error {
		f.committed++
		return nil
	}
	f.documents.On("BeginTX", mock.Anything).Return(&fakeTx{}, rollback, commit, nil).Once()
}

func (f *workflowFixture) expectDocument(status model.DocumentStatus) {
	f.documents.On("GetByUUID", mock.Anything, mock.Anything, docUUID).Return(&model.Document{
		UUID:        docUUID,
		OwnerUUID:   ownerUUID,
		StoragePath: sourceKey,
		PageCount:   2,
		Status:      status,
	}, nil)
}

func (f *workflowFixture) expectSigner() {
	f.signatures.On("HasActive", mock.Anything, mock.Anything, docUUID, signerUUID).Return(false, nil)
	f.users.On("FindByUUID", mock.Anything, mock.Anything, signerUUID).Return(&model.User{
		UUID:     signerUUID,
		Login:    "budi",
		FullName: "Budi Santoso",
		Position: "Kepala Seksi",
	}, nil)
}

func (f *workflowFixture) expectTemplate(image string) {
	f.templates.On("GetByUUID", mock.Anything, mock.Anything, tmplUUID).Return(&model.SignatureTemplate{
		UUID:           tmplUUID,
		OwnerUUID:      signerUUID,
		Name:           "Paraf",
		SignatureImage: image,
	}, nil)
}

func signCommand() model.SignCommand {
	return model.SignCommand{
		DocumentUUID: docUUID,
		UserUUID:     signerUUID,
		TemplateUUID: tmplUUID,
		Placement:    &model.Placement{Page: 1, X: 100, Y: 200, Width: 150, Height: 50},
		Notes:        "approved",
	}
}

var (
	signatureImage = pdftest.SignaturePNG(60, 20)
	sourcePDF      = []byte("%PDF-1.4 source")
	stampedPDF     = []byte("%PDF-1.4 stamped")
)

func (f *workflowFixture) expectStampPipeline() {
	f.storage.On("GetObject", mock.Anything, sourceKey).Return(sourcePDF, nil)
	f.stamper.On("PageSize", mock.Anything, sourcePDF, 1).Return(595.0, 842.0, nil)
}

func TestSign_Success(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.expectSigner()
	f.expectTemplate(model.EncodeSignatureImage(signatureImage))
	f.expectStampPipeline()
	f.expectTX()

	placement := model.Placement{Page: 1, X: 100, Y: 200, Width: 150, Height: 50}
	f.stamper.On("Stamp", mock.Anything, sourcePDF, signatureImage, placement).Return(stampedPDF, nil)
	f.storage.On("PutObject", mock.Anything, signedKey, stampedPDF, "application/pdf").Return(nil)
	f.documents.On("TransitionStatus", mock.Anything, mock.Anything, docUUID,
		model.SignableStatuses(), model.StatusSigned, mock.MatchedBy(func(p *string) bool {
			return p != nil && *p == signedKey
		})).Return(true, nil)
	f.signatures.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(s *model.DocumentSignature) bool {
		return s.DocumentUUID == docUUID &&
			s.TemplateUUID != nil && *s.TemplateUUID == tmplUUID &&
			s.Placement != nil && *s.Placement == placement &&
			s.Status == model.SignatureSigned &&
			s.SignerName == "Budi Santoso"
	})).Return(nil)
	f.cache.On("DeleteState", mock.Anything, docUUID).Return(nil)

	result, err := f.svc.Sign(context.Background(), signCommand())

	require.NoError(t, err)
	assert.Equal(t, model.StatusSigned, result.Status)
	assert.NotEmpty(t, result.SignatureUUID)
	assert.Equal(t, 1, f.committed)
	assert.Equal(t, 1, f.released)
	f.documents.AssertExpectations(t)
	f.signatures.AssertExpectations(t)
	f.storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
}

func TestSign_AlreadySignedIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusSigned)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindConflict))
	assert.Equal(t, 1, f.released)
	f.stamper.AssertNotCalled(t, "Stamp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.documents.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSign_SignerAlreadyActedIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusPendingSignature)
	f.signatures.On("HasActive", mock.Anything, mock.Anything, docUUID, signerUUID).Return(true, nil)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindConflict))
	f.storage.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
}

func TestSign_EmptyTemplateImageIsValidation(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.expectSigner()
	f.expectTemplate("")

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.Equal(t, "no signature data", model.MessageOf(err))
	f.storage.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
	f.documents.AssertNotCalled(t, "BeginTX", mock.Anything)
}

func TestSign_ForeignTemplateIsNotFound(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.expectSigner()
	f.templates.On("GetByUUID", mock.Anything, mock.Anything, tmplUUID).Return(&model.SignatureTemplate{
		UUID:           tmplUUID,
		OwnerUUID:      "someone-else",
		SignatureImage: model.EncodeSignatureImage(signatureImage),
	}, nil)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestSign_TemplateComesFromTemplateService(t *testing.T) {
	f := newWorkflowFixture()
	templates := new(MockTemplateService)
	f.svc = service.NewWorkflowService(f.documents, f.signatures, templates, f.users, f.cache,
		f.locker, f.storage, f.stamper, config.SigningConfig{LockTTL: 30, MaxUploadBytes: 1 << 20}, 15*time.Minute)
	f.expectLock()
	f.expectDocument(model.StatusPendingSignature)
	f.expectSigner()
	templates.On("SelectTemplate", mock.Anything, signerUUID, tmplUUID).
		Return(nil, nil, model.NewValidationError("no signature data", nil)).Once()

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindValidation))
	assert.Equal(t, "no signature data", model.MessageOf(err))
	templates.AssertExpectations(t)
	f.templates.AssertNotCalled(t, "GetByUUID", mock.Anything, mock.Anything, mock.Anything)
	f.storage.AssertNotCalled(t, "GetObject", mock.Anything, mock.Anything)
}

func TestSign_RejectedDocumentIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusRejected)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindConflict))
	assert.Equal(t, "document is already rejected", model.MessageOf(err))
	f.signatures.AssertNotCalled(t, "HasActive", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSign_MissingPlacementIsValidationWithoutLock(t *testing.T) {
	f := newWorkflowFixture()
	cmd := signCommand()
	cmd.Placement = nil

	_, err := f.svc.Sign(context.Background(), cmd)

	assert.True(t, model.IsKind(err, model.KindValidation))
	f.locker.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func TestSign_PlacementOutsidePageIsValidation(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.expectSigner()
	f.expectTemplate(model.EncodeSignatureImage(signatureImage))
	f.expectStampPipeline()

	cmd := signCommand()
	cmd.Placement.X = 500

	_, err := f.svc.Sign(context.Background(), cmd)

	assert.True(t, model.IsKind(err, model.KindValidation))
	f.stamper.AssertNotCalled(t, "Stamp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSign_LockBusyIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.locker.On("Acquire", mock.Anything, docUUID, lockTTL).Return(nil, false, nil)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindConflict))
	f.documents.AssertNotCalled(t, "GetByUUID", mock.Anything, mock.Anything, mock.Anything)
}

func TestSign_StampFailureIsProcessingAndLeavesStatus(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusPendingSignature)
	f.expectSigner()
	f.expectTemplate(model.EncodeSignatureImage(signatureImage))
	f.expectStampPipeline()
	f.stamper.On("Stamp", mock.Anything, sourcePDF, signatureImage, mock.Anything).
		Return(nil, model.NewProcessingError("failed to stamp signature onto the document", errors.New("broken xref")))

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindProcessing))
	assert.Equal(t, 1, f.released)
	f.storage.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.documents.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSign_DatabaseFailureRemovesStampedObject(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.expectSigner()
	f.expectTemplate(model.EncodeSignatureImage(signatureImage))
	f.expectStampPipeline()
	f.expectTX()
	f.stamper.On("Stamp", mock.Anything, sourcePDF, signatureImage, mock.Anything).Return(stampedPDF, nil)
	f.storage.On("PutObject", mock.Anything, signedKey, stampedPDF, "application/pdf").Return(nil)
	f.documents.On("TransitionStatus", mock.Anything, mock.Anything, docUUID,
		mock.Anything, model.StatusSigned, mock.Anything).Return(true, nil)
	f.signatures.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	f.storage.On("DeleteObject", mock.Anything, signedKey).Return(nil)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindProcessing))
	assert.Equal(t, 0, f.committed)
	f.storage.AssertCalled(t, "DeleteObject", mock.Anything, signedKey)
	f.cache.AssertNotCalled(t, "DeleteState", mock.Anything, mock.Anything)
}

func TestSign_LostRaceIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.expectSigner()
	f.expectTemplate(model.EncodeSignatureImage(signatureImage))
	f.expectStampPipeline()
	f.expectTX()
	f.stamper.On("Stamp", mock.Anything, sourcePDF, signatureImage, mock.Anything).Return(stampedPDF, nil)
	f.storage.On("PutObject", mock.Anything, signedKey, stampedPDF, "application/pdf").Return(nil)
	f.documents.On("TransitionStatus", mock.Anything, mock.Anything, docUUID,
		mock.Anything, model.StatusSigned, mock.Anything).Return(false, nil)
	f.storage.On("DeleteObject", mock.Anything, signedKey).Return(nil)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindConflict))
	f.signatures.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	f.storage.AssertCalled(t, "DeleteObject", mock.Anything, signedKey)
}

func TestSign_UniqueViolationIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.expectSigner()
	f.expectTemplate(model.EncodeSignatureImage(signatureImage))
	f.expectStampPipeline()
	f.expectTX()
	f.stamper.On("Stamp", mock.Anything, sourcePDF, signatureImage, mock.Anything).Return(stampedPDF, nil)
	f.storage.On("PutObject", mock.Anything, signedKey, stampedPDF, "application/pdf").Return(nil)
	f.documents.On("TransitionStatus", mock.Anything, mock.Anything, docUUID,
		mock.Anything, model.StatusSigned, mock.Anything).Return(true, nil)
	f.signatures.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&pq.Error{Code: "23505", Message: "duplicate key"})
	f.storage.On("DeleteObject", mock.Anything, signedKey).Return(nil)

	_, err := f.svc.Sign(context.Background(), signCommand())

	assert.True(t, model.IsKind(err, model.KindConflict))
}

func TestReject_Success(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusPendingSignature)
	f.expectSigner()
	f.expectTX()
	f.documents.On("TransitionStatus", mock.Anything, mock.Anything, docUUID,
		model.SignableStatuses(), model.StatusRejected, (*string)(nil)).Return(true, nil)
	f.signatures.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(s *model.DocumentSignature) bool {
		return s.Status == model.SignatureRejected && s.Placement == nil && s.Notes == "wrong amount"
	})).Return(nil)
	f.cache.On("DeleteState", mock.Anything, docUUID).Return(nil)

	status, err := f.svc.Reject(context.Background(), docUUID, signerUUID, "  wrong amount ")

	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, status)
	assert.Equal(t, 1, f.committed)
	f.stamper.AssertNotCalled(t, "Stamp", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReject_RequiresReason(t *testing.T) {
	f := newWorkflowFixture()

	_, err := f.svc.Reject(context.Background(), docUUID, signerUUID, "   ")

	assert.True(t, model.IsKind(err, model.KindValidation))
	f.locker.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func TestReject_TerminalIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusRejected)

	status, err := f.svc.Reject(context.Background(), docUUID, signerUUID, "again")

	assert.True(t, model.IsKind(err, model.KindConflict))
	assert.Empty(t, status)
}

func TestReject_MissingDocumentIsNotFound(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.documents.On("GetByUUID", mock.Anything, mock.Anything, docUUID).
		Return(nil, model.NewNotFoundError("document not found", nil))

	_, err := f.svc.Reject(context.Background(), docUUID, signerUUID, "no")

	assert.True(t, model.IsKind(err, model.KindNotFound))
}

func TestSubmitForSignature(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)
	f.documents.On("TransitionStatus", mock.Anything, mock.Anything, docUUID,
		[]model.DocumentStatus{model.StatusDraft}, model.StatusPendingSignature, (*string)(nil)).Return(true, nil)
	f.cache.On("DeleteState", mock.Anything, docUUID).Return(nil)

	status, err := f.svc.SubmitForSignature(context.Background(), docUUID, ownerUUID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingSignature, status)
}

func TestSubmitForSignature_OnlyOwner(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusDraft)

	_, err := f.svc.SubmitForSignature(context.Background(), docUUID, signerUUID)

	assert.True(t, model.IsKind(err, model.KindValidation))
}

func TestSubmitForSignature_NotDraftIsConflict(t *testing.T) {
	f := newWorkflowFixture()
	f.expectLock()
	f.expectDocument(model.StatusPendingSignature)

	status, err := f.svc.SubmitForSignature(context.Background(), docUUID, ownerUUID)

	assert.True(t, model.IsKind(err, model.KindConflict))
	assert.Equal(t, model.StatusPendingSignature, status)
}

func TestStatus_CacheHit(t *testing.T) {
	f := newWorkflowFixture()
	cached := &model.DocumentState{DocumentUUID: docUUID, Status: model.StatusSigned}
	f.cache.On("GetState", mock.Anything, docUUID).Return(cached, nil)

	state, err := f.svc.Status(context.Background(), docUUID)

	require.NoError(t, err)
	assert.Same(t, cached, state)
	f.documents.AssertNotCalled(t, "GetByUUID", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatus_CacheMissLoadsAndCaches(t *testing.T) {
	f := newWorkflowFixture()
	f.cache.On("GetState", mock.Anything, docUUID).Return(nil, nil)
	f.cache.On("StateVersion", mock.Anything, docUUID).Return(int64(3), nil)
	f.expectDocument(model.StatusPendingSignature)
	f.signatures.On("ListByDocument", mock.Anything, mock.Anything, docUUID).
		Return([]model.DocumentSignature{{UUID: "sig-1", Status: model.SignatureSigned}}, nil)
	f.cache.On("SetState", mock.Anything, mock.MatchedBy(func(s *model.DocumentState) bool {
		return s.Status == model.StatusPendingSignature && len(s.Signatures) == 1
	}), int64(3)).Return(true, nil)

	state, err := f.svc.Status(context.Background(), docUUID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingSignature, state.Status)
	f.cache.AssertExpectations(t)
}

func TestStatus_VersionIsReadBeforeTheDatabase(t *testing.T) {
	f := newWorkflowFixture()
	var calls []string
	record := func(name string) func(mock.Arguments) {
		return func(mock.Arguments) { calls = append(calls, name) }
	}
	f.cache.On("GetState", mock.Anything, docUUID).Return(nil, nil)
	f.cache.On("StateVersion", mock.Anything, docUUID).Run(record("version")).Return(int64(8), nil)
	f.documents.On("GetByUUID", mock.Anything, mock.Anything, docUUID).Run(record("document")).
		Return(&model.Document{UUID: docUUID, Status: model.StatusPendingSignature}, nil)
	f.signatures.On("ListByDocument", mock.Anything, mock.Anything, docUUID).Return([]model.DocumentSignature{}, nil)
	// a sign committed and bumped the version while the rows were read
	f.cache.On("SetState", mock.Anything, mock.Anything, int64(8)).Run(record("store")).Return(false, nil)

	state, err := f.svc.Status(context.Background(), docUUID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusPendingSignature, state.Status)
	assert.Equal(t, []string{"version", "document", "store"}, calls)
}

func TestStatus_CacheDownSkipsCaching(t *testing.T) {
	f := newWorkflowFixture()
	f.cache.On("GetState", mock.Anything, docUUID).Return(nil, errors.New("redis down"))
	f.cache.On("StateVersion", mock.Anything, docUUID).Return(int64(0), errors.New("redis down"))
	f.expectDocument(model.StatusSigned)
	f.signatures.On("ListByDocument", mock.Anything, mock.Anything, docUUID).Return([]model.DocumentSignature{}, nil)

	state, err := f.svc.Status(context.Background(), docUUID)

	require.NoError(t, err)
	assert.Equal(t, model.StatusSigned, state.Status)
	f.cache.AssertNotCalled(t, "SetState", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateDocument_Success(t *testing.T) {
	f := newWorkflowFixture()
	data := pdftest.A4(2)
	f.stamper.On("PageCount", mock.Anything, data).Return(2, nil)
	f.storage.On("PutObject", mock.Anything, mock.AnythingOfType("string"), data, "application/pdf").Return(nil)
	f.documents.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
		return d.Status == model.StatusDraft && d.PageCount == 2 && d.Title == "contract" && len(d.Sha256) == 64
	})).Return(nil)

	doc, err := f.svc.CreateDocument(context.Background(), ownerUUID, "", "", "contract.PDF", data)

	require.NoError(t, err)
	assert.Equal(t, "pdf", doc.Extension)
	assert.Contains(t, doc.StoragePath, ownerUUID)
}

func TestCreateDocument_RejectsNonPDF(t *testing.T) {
	f := newWorkflowFixture()

	_, err := f.svc.CreateDocument(context.Background(), ownerUUID, "notes", "", "notes.txt", []byte("hello"))

	assert.True(t, model.IsKind(err, model.KindValidation))
	f.storage.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateDocument_DatabaseFailureRemovesUpload(t *testing.T) {
	f := newWorkflowFixture()
	data := pdftest.A4(1)
	f.stamper.On("PageCount", mock.Anything, data).Return(1, nil)
	f.storage.On("PutObject", mock.Anything, mock.Anything, data, "application/pdf").Return(nil)
	f.documents.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db gone"))
	f.storage.On("DeleteObject", mock.Anything, mock.AnythingOfType("string")).Return(nil)

	_, err := f.svc.CreateDocument(context.Background(), ownerUUID, "Memo", "", "memo.pdf", data)

	assert.True(t, model.IsKind(err, model.KindProcessing))
	f.storage.AssertNumberOfCalls(t, "DeleteObject", 1)
}

func TestListDocuments_ClampsLimit(t *testing.T) {
	f := newWorkflowFixture()
	f.documents.On("ListByOwner", mock.Anything, mock.Anything, ownerUUID, "", 100).
		Return([]model.Document{}, "", nil)

	_, _, err := f.svc.ListDocuments(context.Background(), ownerUUID, "", 5000)

	require.NoError(t, err)
	f.documents.AssertExpectations(t)
}

func TestGetDocumentSource_UsesSignedArtifact(t *testing.T) {
	f := newWorkflowFixture()
	signed := signedKey
	f.documents.On("GetByUUID", mock.Anything, mock.Anything, docUUID).Return(&model.Document{
		UUID:        docUUID,
		StoragePath: sourceKey,
		SignedPath:  &signed,
		Status:      model.StatusSigned,
	}, nil)
	f.storage.On("GetObject", mock.Anything, signedKey).Return(stampedPDF, nil)

	_, data, err := f.svc.GetDocumentSource(context.Background(), docUUID)

	require.NoError(t, err)
	assert.Equal(t, stampedPDF, data)
}

func TestDocumentURL_PresignsCurrentPath(t *testing.T) {
	f := newWorkflowFixture()
	signed := signedKey
	f.storage.On("GeneratePresignedGetURL", mock.Anything, signedKey, 15*time.Minute).
		Return("https://s3.local/signed", nil)

	url, err := f.svc.DocumentURL(context.Background(), &model.Document{StoragePath: sourceKey, SignedPath: &signed})

	require.NoError(t, err)
	assert.Equal(t, "https://s3.local/signed", url)
}
