package repository

import (
	"context"
	"database/sql"
	"errors"
	"github.com/jmoiron/sqlx"
	"kpp-siprima/config"
	"kpp-siprima/internal/model"
	"kpp-siprima/internal/util"
)

type TemplateRepository struct {
	*config.Database
}

func NewTemplateRepository(database *config.Database) *TemplateRepository {
	return &TemplateRepository{database}
}

// Create : stores a signature template
func (r *TemplateRepository) Create(ctx context.Context, exec sqlx.ExtContext, template *model.SignatureTemplate) error {
	query := `
		INSERT INTO signature_templates (uuid, owner_uuid, name, signature_image)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := exec.QueryRowxContext(ctx, query, template.UUID, template.OwnerUUID, template.Name, template.SignatureImage).
		Scan(&template.CreatedAt)
	if err != nil {
		return util.LogError("[TemplateRepo] failed to insert template", err)
	}
	return nil
}

func (r *TemplateRepository) GetByUUID(ctx context.Context, exec sqlx.ExtContext, templateUUID string) (*model.SignatureTemplate, error) {
	query := `SELECT uuid, owner_uuid, name, signature_image, created_at FROM signature_templates WHERE uuid = $1`
	var template model.SignatureTemplate
	err := sqlx.GetContext(ctx, exec, &template, query, templateUUID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("template not found", err)
	}
	if err != nil {
		return nil, util.LogError("[TemplateRepo] failed to read template", err)
	}
	return &template, nil
}

// ListByOwner : templates of a user, oldest first
func (r *TemplateRepository) ListByOwner(ctx context.Context, exec sqlx.ExtContext, ownerUUID string) ([]model.SignatureTemplate, error) {
	query := `
		SELECT uuid, owner_uuid, name, signature_image, created_at
		FROM signature_templates
		WHERE owner_uuid = $1
		ORDER BY created_at ASC, uuid ASC
	`
	templates := []model.SignatureTemplate{}
	if err := sqlx.SelectContext(ctx, exec, &templates, query, ownerUUID); err != nil {
		return nil, util.LogError("[TemplateRepo] failed to list templates", err)
	}
	return templates, nil
}

// Delete : false when no template of this owner matched
func (r *TemplateRepository) Delete(ctx context.Context, exec sqlx.ExtContext, templateUUID, ownerUUID string) (bool, error) {
	query := `DELETE FROM signature_templates WHERE uuid = $1 AND owner_uuid = $2`
	result, err := exec.ExecContext(ctx, query, templateUUID, ownerUUID)
	if err != nil {
		return false, util.LogError("[TemplateRepo] failed to delete template", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, util.LogError("[TemplateRepo] failed to check deleted rows", err)
	}
	return rows > 0, nil
}

func (r *TemplateRepository) Executor() sqlx.ExtContext {
	return r.Database.DB
}
