package ports

import (
	"context"
	"kpp-siprima/internal/model"
	"time"
)

// CacheRepository : Redis cache of the document status read model
type CacheRepository interface {
	// StateVersion is read before loading the state that is later passed to SetState.
	StateVersion(ctx context.Context, documentUUID string) (int64, error)
	SetState(ctx context.Context, state *model.DocumentState, version int64) (bool, error)
	GetState(ctx context.Context, documentUUID string) (*model.DocumentState, error)
	DeleteState(ctx context.Context, documentUUID string) error
}

// DocumentLocker : per-document mutual exclusion for sign/reject transitions
type DocumentLocker interface {
	// Acquire returns a release func, or ok=false when another transition holds the lock.
	Acquire(ctx context.Context, documentUUID string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}
