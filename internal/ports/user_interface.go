package ports

import (
	"context"
	"github.com/jmoiron/sqlx"
	"kpp-siprima/internal/model"
)

// UserRepository : read access to signer identities
type UserRepository interface {
	FindByUUID(ctx context.Context, exec sqlx.ExtContext, uuid string) (*model.User, error)
}
