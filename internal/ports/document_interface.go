package ports

import (
	"context"
	"github.com/jmoiron/sqlx"
	"kpp-siprima/internal/model"
)

// DocumentRepository : SQL layer for documents
type DocumentRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error)
	ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, cursor string, limit int) ([]model.Document, string, error)
	TransitionStatus(ctx context.Context, exec sqlx.ExtContext, documentUUID string, from []model.DocumentStatus, to model.DocumentStatus, signedPath *string) (bool, error)
	BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error)
	Executor() sqlx.ExtContext
}

// SignatureRepository : SQL layer for document signatures
type SignatureRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, signature *model.DocumentSignature) error
	ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.DocumentSignature, error)
	HasActive(ctx context.Context, exec sqlx.ExtContext, documentUUID, signerUUID string) (bool, error)
}

// TemplateRepository : SQL layer for signature templates
type TemplateRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, template *model.SignatureTemplate) error
	GetByUUID(ctx context.Context, exec sqlx.ExtContext, templateUUID string) (*model.SignatureTemplate, error)
	ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.SignatureTemplate, error)
	Delete(ctx context.Context, exec sqlx.ExtContext, templateUUID, ownerUUID string) (bool, error)
	Executor() sqlx.ExtContext
}

// WorkflowService : document signing workflow
type WorkflowService interface {
	CreateDocument(ctx context.Context, ownerUUID, title, description, filename string, data []byte) (*model.Document, error)
	ListDocuments(ctx context.Context, ownerUUID, cursor string, limit int) ([]model.Document, string, error)
	GetDocumentSource(ctx context.Context, documentUUID string) (*model.Document, []byte, error)
	DocumentURL(ctx context.Context, document *model.Document) (string, error)
	SubmitForSignature(ctx context.Context, documentUUID, userUUID string) (model.DocumentStatus, error)
	Sign(ctx context.Context, cmd model.SignCommand) (*model.SignResult, error)
	Reject(ctx context.Context, documentUUID, userUUID, notes string) (model.DocumentStatus, error)
	Status(ctx context.Context, documentUUID string) (*model.DocumentState, error)
}

// TemplateService : signature templates of a user
type TemplateService interface {
	ListTemplates(ctx context.Context, ownerUUID string) ([]model.SignatureTemplate, error)
	CreateTemplate(ctx context.Context, ownerUUID, name, signatureImage string) (*model.SignatureTemplate, error)
	DeleteTemplate(ctx context.Context, ownerUUID, templateUUID string) error
	SelectTemplate(ctx context.Context, ownerUUID, templateUUID string) (*model.SignatureTemplate, []byte, error)
}
