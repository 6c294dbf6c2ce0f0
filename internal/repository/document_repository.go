package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/util"
	"time"
)

const documentColumns = `uuid, owner_uuid, title, description, storage_path, signed_path, mime_type,
		       extension, size_bytes, sha256, page_count, status, created_at, updated_at`

type DocumentRepository struct {
	*config.Database
}

func NewDocumentRepository(database *config.Database) *DocumentRepository {
	return &DocumentRepository{database}
}

// Create : stores a new document
func (r *DocumentRepository) Create(ctx context.Context, exec sqlx.ExtContext, document *model.Document) error {
	query := `
		INSERT INTO documents (uuid, owner_uuid, title, description, storage_path, mime_type,
		                       extension, size_bytes, sha256, page_count, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := exec.ExecContext(
		ctx,
		query,
		document.UUID,
		document.OwnerUUID,
		document.Title,
		document.Description,
		document.StoragePath,
		document.MimeType,
		document.Extension,
		document.SizeBytes,
		document.Sha256,
		document.PageCount,
		document.Status)
	if err != nil {
		return util.LogError("[DocumentRepo] failed to insert document", err)
	}

	return nil
}

// GetByUUID : returns the document or NotFoundError, an unknown stored status is a ProcessingError
func (r *DocumentRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, documentUUID string) (*model.Document, error) {
	var document model.Document
	query := `SELECT ` + documentColumns + ` FROM documents WHERE uuid = $1`
	err := sqlx.GetContext(ctx, exec, &document, query, documentUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("document not found", err)
	}
	if err != nil {
		return nil, util.LogError("[DocumentRepo] failed to read document", err)
	}
	if !document.Status.Valid() {
		return nil, model.NewProcessingError(fmt.Sprintf("document has an unknown status %q", document.Status), nil)
	}
	return &document, nil
}

// ListByOwner : owner's documents, newest first, cursor is the created_at of the last item
func (r *DocumentRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string, cursor string, limit int) ([]model.Document, string, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE owner_uuid = $1 AND created_at < $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	cursorTime := time.Now().Add(time.Hour)
	if cursor != "" {
		parsed, err := time.Parse(time.RFC3339Nano, cursor)
		if err != nil {
			return nil, "", model.NewValidationError("invalid cursor format", err)
		}
		cursorTime = parsed
	}

	docs := []model.Document{}
	err := sqlx.SelectContext(ctx, exec, &docs, query, ownerUUID, cursorTime, limit+1) // +1 to detect the next page
	if err != nil {
		return nil, "", util.LogError("[DocumentRepo] failed to list documents", err)
	}

	var nextCursor string
	if len(docs) > limit {
		docs = docs[:limit]
		nextCursor = docs[len(docs)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return docs, nextCursor, nil
}

// TransitionStatus : moves the document to `to` only if its status is one of `from`,
// returns false when no row matched
func (r *DocumentRepository) TransitionStatus(ctx context.Context, exec sqlx.ExtContext, documentUUID string, from []model.DocumentStatus, to model.DocumentStatus, signedPath *string) (bool, error) {
	query := `
		UPDATE documents
		SET status = $2, signed_path = COALESCE($3, signed_path), updated_at = NOW()
		WHERE uuid = $1 AND status = ANY($4)
	`
	allowed := make([]string, 0, len(from))
	for _, status := range from {
		allowed = append(allowed, string(status))
	}

	result, err := exec.ExecContext(ctx, query, documentUUID, string(to), signedPath, pq.Array(allowed))
	if err != nil {
		return false, util.LogError("[DocumentRepo] failed to update document status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[DocumentRepo] failed to check updated rows", err)
	}

	return rowsAffected == 1, nil
}

// BeginTX : returns the transaction, its rollback and its commit
func (r *DocumentRepository) BeginTX(ctx context.Context) (sqlx.ExtContext, func() error, func() error, error) {
	tx, err := r.Database.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("[DocumentRepo] begin transaction: %w", err)
	}
	return tx, tx.Rollback, tx.Commit, nil
}

// Executor : the pool, for reads outside a transaction
func (r *DocumentRepository) Executor() sqlx.ExtContext {
	return r.Database.DB
}
