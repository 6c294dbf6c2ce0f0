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

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// FindByUUID : looks the signer up by UUID
func (r *UserRepository) FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error) {
	query := `SELECT uuid, login, full_name, position, created_at FROM users WHERE uuid = $1`
	var user model.User
	err := sqlx.GetContext(ctx, exec, &user, query, uuid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.NewNotFoundError("user not found", err)
	}
	if err != nil {
		return nil, util.LogError("[UserRepo] failed to read user", err)
	}
	return &user, nil
}
