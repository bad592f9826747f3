package ports

import (
	"context"
	"io"
	"time"
)

type ObjectStorage interface {
	Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error)
	Remove(ctx context.Context, bucket, objectName string) error
	PresignedGet(ctx context.Context, bucket, objectName string, expiry time.Duration) (string, error)
}
