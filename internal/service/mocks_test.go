package service_test

import (
	"context"
	"database/sql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
	"kpp-siprima/internal/model"
	"time"
)

type MockDocumentRepository struct{ mock.Mock }

func (m *MockDocumentRepository) Create(ctx context.Context, exec sqlx.ExtContext, doc *model.Document) error {
	return m.Called(ctx, exec, doc).Error(0)
}

func (m *MockDocumentRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error) {
	args := m.Called(ctx, exec, documentUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, cursor string, limit int) ([]model.Document, string, error) {
	args := m.Called(ctx, exec, ownerUUID, cursor, limit)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]model.Document), args.String(1), args.Error(2)
}

func (m *MockDocumentRepository) TransitionStatus(ctx context.Context, exec sqlx.ExtContext, documentUUID string, from []model.DocumentStatus, to model.DocumentStatus, signedPath *string) (bool, error) {
	args := m.Called(ctx, exec, documentUUID, from, to, signedPath)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, nil, args.Error(3)
	}
	return args.Get(0).(sqlx.ExtContext), args.Get(1).(func() error), args.Get(2).(func() error), args.Error(3)
}

func (m *MockDocumentRepository) Executor() sqlx.ExtContext {
	return &fakeTx{}
}

type MockSignatureRepository struct{ mock.Mock }

func (m *MockSignatureRepository) Create(ctx context.Context, exec sqlx.ExtContext, signature *model.DocumentSignature) error {
	return m.Called(ctx, exec, signature).Error(0)
}

func (m *MockSignatureRepository) ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.DocumentSignature, error) {
	args := m.Called(ctx, exec, documentUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentSignature), args.Error(1)
}

func (m *MockSignatureRepository) HasActive(ctx context.Context, exec sqlx.ExtContext, documentUUID, signerUUID string) (bool, error) {
	args := m.Called(ctx, exec, documentUUID, signerUUID)
	return args.Bool(0), args.Error(1)
}

type MockTemplateRepository struct{ mock.Mock }

func (m *MockTemplateRepository) Create(ctx context.Context, exec sqlx.ExtContext, template *model.SignatureTemplate) error {
	return m.Called(ctx, exec, template).Error(0)
}

func (m *MockTemplateRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, templateUUID string) (*model.SignatureTemplate, error) {
	args := m.Called(ctx, exec, templateUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureTemplate), args.Error(1)
}

func (m *MockTemplateRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.SignatureTemplate, error) {
	args := m.Called(ctx, exec, ownerUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SignatureTemplate), args.Error(1)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, exec sqlx.ExtContext, templateUUID, ownerUUID string) (bool, error) {
	args := m.Called(ctx, exec, templateUUID, ownerUUID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTemplateRepository) Executor() sqlx.ExtContext {
	return &fakeTx{}
}

type MockTemplateService struct{ mock.Mock }

func (m *MockTemplateService) ListTemplates(ctx context.Context, ownerUUID string) ([]model.SignatureTemplate, error) {
	args := m.Called(ctx, ownerUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SignatureTemplate), args.Error(1)
}

func (m *MockTemplateService) CreateTemplate(ctx context.Context, ownerUUID, name, signatureImage string) (*model.SignatureTemplate, error) {
	args := m.Called(ctx, ownerUUID, name, signatureImage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SignatureTemplate), args.Error(1)
}

func (m *MockTemplateService) DeleteTemplate(ctx context.Context, ownerUUID, templateUUID string) error {
	return m.Called(ctx, ownerUUID, templateUUID).Error(0)
}

func (m *MockTemplateService) SelectTemplate(ctx context.Context, ownerUUID, templateUUID string) (*model.SignatureTemplate, []byte, error) {
	args := m.Called(ctx, ownerUUID, templateUUID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.SignatureTemplate), args.Get(1).([]byte), args.Error(2)
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	args := m.Called(ctx, exec, uuid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) StateVersion(ctx context.Context, documentUUID string) (int64, error) {
	args := m.Called(ctx, documentUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCacheRepository) SetState(ctx context.Context, state *model.DocumentState, version int64) (bool, error) {
	args := m.Called(ctx, state, version)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetState(ctx context.Context, documentUUID string) (*model.DocumentState, error) {
	args := m.Called(ctx, documentUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentState), args.Error(1)
}

func (m *MockCacheRepository) DeleteState(ctx context.Context, documentUUID string) error {
	return m.Called(ctx, documentUUID).Error(0)
}

type MockLocker struct{ mock.Mock }

func (m *MockLocker) Acquire(ctx context.Context, documentUUID string, ttl time.Duration) (func(context.Context) error, bool, error) {
	args := m.Called(ctx, documentUUID, ttl)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Bool(1), args.Error(2)
}

type MockStorage struct{ mock.Mock }

func (m *MockStorage) PutObject(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *MockStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStorage) DeleteObject(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) GeneratePresignedGetURL(ctx context.Context, key string, expire time.Duration) (string, error) {
	args := m.Called(ctx, key, expire)
	return args.String(0), args.Error(1)
}

type MockStamper struct{ mock.Mock }

func (m *MockStamper) PageCount(ctx context.Context, source []byte) (int, error) {
	args := m.Called(ctx, source)
	return args.Int(0), args.Error(1)
}

func (m *MockStamper) PageSize(ctx context.Context, source []byte, page int) (float64, float64, error) {
	args := m.Called(ctx, source, page)
	return args.Get(0).(float64), args.Get(1).(float64), args.Error(2)
}

func (m *MockStamper) Stamp(ctx context.Context, source []byte, image []byte, placement model.Placement) ([]byte, error) {
	args := m.Called(ctx, source, image, placement)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type fakeTx struct{}

func (f *fakeTx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return nil, nil
}
func (f *fakeTx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	return nil, nil
}
func (f *fakeTx) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	return &sqlx.Row{}
}
func (f *fakeTx) BindNamed(query string, arg interface{}) (string, []interface{}, error) {
	return "", nil, nil
}
func (f *fakeTx) DriverName() string         { return "fake" }
func (f *fakeTx) Rebind(query string) string { return query }
