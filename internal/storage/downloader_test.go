package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	objects map[string]string
	listErr error
	fetched []string
}

func (f *fakeStorage) ListObjects(_ context.Context, prefix string) ([]ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []ObjectInfo
	for key, body := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, ObjectInfo{Key: key, Size: int64(len(body))})
		}
	}
	return out, nil
}

func (f *fakeStorage) DownloadObject(_ context.Context, key, destPath string) error {
	f.fetched = append(f.fetched, key)
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(destPath, []byte(f.objects[key]), 0o644)
}

func (f *fakeStorage) UploadObject(_ context.Context, key string, data []byte) error {
	f.objects[key] = string(data)
	return nil
}

func TestDownloaderMirrorsAcceptedObjects(t *testing.T) {
	t.Parallel()

	client := &fakeStorage{objects: map[string]string{
		"exports/listado_norte.csv":      "Código\nA1\n",
		"exports/2024/vendido_norte.csv": "Código\nA1\n",
		"exports/readme.md":              "#",
		"other/listado_centro.csv":       "Código\nB2\n",
	}}
	dir := t.TempDir()
	d, err := NewDownloader(client, dir, func(key string) bool { return strings.HasSuffix(key, ".csv") })
	require.NoError(t, err)

	paths, err := d.Download(context.Background(), "exports/")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2024", "vendido_norte.csv"),
		filepath.Join(dir, "listado_norte.csv"),
	}, paths)
	assert.NotContains(t, client.fetched, "exports/readme.md")

	body, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "Código\nA1\n", string(body))
}

func TestDownloaderErrors(t *testing.T) {
	t.Parallel()

	d, err := NewDownloader(&fakeStorage{objects: map[string]string{"a.txt": ""}}, t.TempDir(), func(key string) bool {
		return strings.HasSuffix(key, ".csv")
	})
	require.NoError(t, err)
	_, err = d.Download(context.Background(), "")
	assert.Error(t, err)

	boom := errors.New("boom")
	d, err = NewDownloader(&fakeStorage{listErr: boom}, t.TempDir(), nil)
	require.NoError(t, err)
	_, err = d.Download(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestObjectRelativePath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, filepath.FromSlash("a/b.csv"), objectRelativePath("", "a/b.csv"))
	assert.Equal(t, "b.csv", objectRelativePath("a", "a/b.csv"))
	assert.Equal(t, filepath.FromSlash("x/b.csv"), objectRelativePath("a/", "a/x/b.csv"))
	assert.Equal(t, "ab.csv", objectRelativePath("a", "ab.csv"))
}

func TestSplitEndpoint(t *testing.T) {
	t.Parallel()

	host, secure := splitEndpoint("https://s3.example.com/", false)
	assert.Equal(t, "s3.example.com", host)
	assert.True(t, secure)

	host, secure = splitEndpoint("http://minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.False(t, secure)

	host, secure = splitEndpoint("minio:9000", true)
	assert.Equal(t, "minio:9000", host)
	assert.True(t, secure)
}

func TestPublish(t *testing.T) {
	t.Parallel()

	client := &fakeStorage{objects: map[string]string{}}
	d, err := NewDownloader(client, t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, d.Publish(context.Background(), "/reports//run-1.json", []byte(`{"items":[]}`)))
	assert.Equal(t, `{"items":[]}`, client.objects["reports/run-1.json"])

	assert.Error(t, d.Publish(context.Background(), "/", []byte("x")))
}
