package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"DramaStudio-server/config"
	"DramaStudio-server/logger"
	"DramaStudio-server/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoragePut(t *testing.T) {
	root := filepath.Join(t.TempDir(), "storage")
	store, err := service.NewLocalStorage(root, "/static/")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "uploads/a.png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "/static/uploads/a.png", url)

	data, err := os.ReadFile(filepath.Join(root, "uploads", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalStorageStaysInsideRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "storage")
	store, err := service.NewLocalStorage(root, "/static")
	require.NoError(t, err)

	url, err := store.Put(context.Background(), "../../escape.txt", strings.NewReader("x"), 1)
	require.NoError(t, err)
	assert.Equal(t, "/static/escape.txt", url)
	_, err = os.Stat(filepath.Join(root, "escape.txt"))
	assert.NoError(t, err)

	_, err = store.Put(context.Background(), "/", strings.NewReader("x"), 1)
	assert.Error(t, err)
}

func TestNewStorageSelectsBackend(t *testing.T) {
	cfg := config.StorageConfig{Type: "local", LocalPath: t.TempDir(), BaseURL: "/static"}
	store, err := service.NewStorage(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &service.LocalStorage{}, store)

	_, err = service.NewStorage(context.Background(), config.StorageConfig{Type: "ftp"}, logger.Nop())
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", service.ContentType("a/b.PNG"))
	assert.Equal(t, "video/mp4", service.ContentType("x.mp4"))
	assert.Equal(t, "application/octet-stream", service.ContentType("noext"))
}
