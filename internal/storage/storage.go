// Package storage mirrors outlet extracts from an S3-compatible bucket and
// publishes reports back to it.
package storage

import (
	"context"
	"time"
)

// ObjectInfo describes one object in the bucket.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStorage is the bucket API used by Downloader.
type ObjectStorage interface {
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DownloadObject(ctx context.Context, key string, destPath string) error
	UploadObject(ctx context.Context, key string, data []byte) error
}
