package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Downloader mirrors objects under a prefix into a local directory.
type Downloader struct {
	client  ObjectStorage
	destDir string
	accept  func(key string) bool
}

// NewDownloader creates a downloader writing below destDir. Only keys accepted
// by accept are fetched; nil accepts everything.
func NewDownloader(client ObjectStorage, destDir string, accept func(key string) bool) (*Downloader, error) {
	if destDir == "" {
		destDir = "./data/tmp/bucket"
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure download dir %s: %w", destDir, err)
	}
	return &Downloader{client: client, destDir: destDir, accept: accept}, nil
}

// Download fetches every accepted object under prefix and returns the local
// paths in sorted order.
func (d *Downloader) Download(ctx context.Context, prefix string) ([]string, error) {
	listPrefix := strings.TrimSpace(prefix)
	objects, err := d.client.ListObjects(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects for prefix %s: %w", listPrefix, err)
	}

	var keys []string
	for _, obj := range objects {
		if d.accept == nil || d.accept(obj.Key) {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("no extract files found for prefix %q", prefix)
	}

	localPaths := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		localPath := filepath.Join(d.destDir, objectRelativePath(listPrefix, key))
		if err := d.client.DownloadObject(ctx, key, localPath); err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	sort.Strings(localPaths)
	return localPaths, nil
}

// Publish uploads data to key. The key is cleaned to a relative slash path.
func (d *Downloader) Publish(ctx context.Context, key string, data []byte) error {
	key = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(key)), "/")
	if key == "" {
		return errors.New("empty object key")
	}
	if err := d.client.UploadObject(ctx, key, data); err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func objectRelativePath(prefix, key string) string {
	if prefix == "" {
		return filepath.FromSlash(key)
	}
	prefixTrimmed := strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	rel := strings.TrimPrefix(key, prefixTrimmed+"/")
	if rel == "" || (rel == key && strings.HasPrefix(key, prefixTrimmed)) {
		return filepath.Base(key)
	}
	return filepath.FromSlash(rel)
}
