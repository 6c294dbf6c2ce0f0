package ports

import (
	"context"
	"kpp-siprima/internal/model"
	"time"
)

// ObjectStorage : S3 storage of source and stamped documents
type ObjectStorage interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, error)
	DeleteObject(ctx context.Context, key string) error
	GeneratePresignedGetURL(ctx context.Context, key string, expire time.Duration) (string, error)
}

// Stamper : composites a signature image onto one page of a PDF
type Stamper interface {
	PageCount(ctx context.Context, source []byte) (int, error)
	PageSize(ctx context.Context, source []byte, page int) (width, height float64, err error)
	Stamp(ctx context.Context, source []byte, image []byte, placement model.Placement) ([]byte, error)
}
