package storage

import (
	"context"
	"time"
)

// ObjectStorageService is the object storage contract used by the report
// pipeline: generate presigned upload/download URLs for a job's output
// artifact, and check or remove it once a job run completes.
type ObjectStorageService interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}
