package repository

import (
	"context"
	"database/sql"
	"github.com/jmoiron/sqlx"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/util"
	"time"
)

type SignatureRepository struct {
	*config.Database
}

func NewSignatureRepository(database *config.Database) *SignatureRepository {
	return &SignatureRepository{database}
}

// signatureRow : flat scan target, placement columns are nullable for rejections
type signatureRow struct {
	UUID           string          `db:"uuid"`
	DocumentUUID   string          `db:"document_uuid"`
	SignerUUID     string          `db:"signer_uuid"`
	SignerName     string          `db:"signer_name"`
	SignerPosition string          `db:"signer_position"`
	TemplateUUID   sql.NullString  `db:"template_uuid"`
	Page           sql.NullInt64   `db:"page"`
	PosX           sql.NullFloat64 `db:"pos_x"`
	PosY           sql.NullFloat64 `db:"pos_y"`
	Width          sql.NullFloat64 `db:"width"`
	Height         sql.NullFloat64 `db:"height"`
	Notes          string          `db:"notes"`
	Status         string          `db:"status"`
	SignedAt       time.Time       `db:"signed_at"`
}

func (row signatureRow) toModel() model.DocumentSignature {
	signature := model.DocumentSignature{
		UUID:           row.UUID,
		DocumentUUID:   row.DocumentUUID,
		SignerUUID:     row.SignerUUID,
		SignerName:     row.SignerName,
		SignerPosition: row.SignerPosition,
		Notes:          row.Notes,
		Status:         model.SignatureStatus(row.Status),
		SignedAt:       row.SignedAt,
	}
	if row.TemplateUUID.Valid {
		templateUUID := row.TemplateUUID.String
		signature.TemplateUUID = &templateUUID
	}
	if row.Page.Valid {
		signature.Placement = &model.Placement{
			Page:   int(row.Page.Int64),
			X:      row.PosX.Float64,
			Y:      row.PosY.Float64,
			Width:  row.Width.Float64,
			Height: row.Height.Float64,
		}
	}
	return signature
}

// Create : stores a sign or reject record, SignedAt is filled from the database
func (r *SignatureRepository) Create(ctx context.Context, exec sqlx.ExtContext, signature *model.DocumentSignature) error {
	query := `
		INSERT INTO document_signatures (uuid, document_uuid, signer_uuid, signer_name, signer_position,
		                                 template_uuid, page, pos_x, pos_y, width, height, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING signed_at
	`
	var (
		page                sql.NullInt64
		x, y, width, height sql.NullFloat64
	)
	if p := signature.Placement; p != nil {
		page = sql.NullInt64{Int64: int64(p.Page), Valid: true}
		x = sql.NullFloat64{Float64: p.X, Valid: true}
		y = sql.NullFloat64{Float64: p.Y, Valid: true}
		width = sql.NullFloat64{Float64: p.Width, Valid: true}
		height = sql.NullFloat64{Float64: p.Height, Valid: true}
	}

	err := exec.QueryRowxContext(
		ctx,
		query,
		signature.UUID,
		signature.DocumentUUID,
		signature.SignerUUID,
		signature.SignerName,
		signature.SignerPosition,
		signature.TemplateUUID,
		page, x, y, width, height,
		signature.Notes,
		string(signature.Status)).
		Scan(&signature.SignedAt)
	if err != nil {
		return util.LogError("[SignatureRepo] failed to insert signature", err)
	}
	return nil
}

// ListByDocument : active signatures of a document in signing order
func (r *SignatureRepository) ListByDocument(ctx context.Context, exec sqlx.ExtContext, documentUUID string) ([]model.DocumentSignature, error) {
	query := `
		SELECT uuid, document_uuid, signer_uuid, signer_name, signer_position, template_uuid,
		       page, pos_x, pos_y, width, height, notes, status, signed_at
		FROM document_signatures
		WHERE document_uuid = $1 AND NOT superseded
		ORDER BY signed_at ASC
	`
	var rows []signatureRow
	if err := sqlx.SelectContext(ctx, exec, &rows, query, documentUUID); err != nil {
		return nil, util.LogError("[SignatureRepo] failed to list signatures", err)
	}

	signatures := make([]model.DocumentSignature, 0, len(rows))
	for _, row := range rows {
		signatures = append(signatures, row.toModel())
	}
	return signatures, nil
}

// HasActive : whether the signer already has a sign or reject record on the document
func (r *SignatureRepository) HasActive(ctx context.Context, exec sqlx.ExtContext, documentUUID, signerUUID string) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM document_signatures
			WHERE document_uuid = $1 AND signer_uuid = $2 AND NOT superseded
		)
	`
	if err := sqlx.GetContext(ctx, exec, &exists, query, documentUUID, signerUUID); err != nil {
		return false, util.LogError("[SignatureRepo] failed to check existing signature", err)
	}
	return exists, nil
}
