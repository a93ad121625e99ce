package avatars

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImageBytes(t *testing.T, width, height int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestDiskStore_SaveDownscales(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, 1, "huge.png", pngImageBytes(t, 1000, 800))
	require.NoError(t, err)
	require.NotEmpty(t, key)

	file, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, file.Close())
	}()

	stored, _, err := image.Decode(file)
	require.NoError(t, err)
	assert.LessOrEqual(t, stored.Bounds().Dx(), 500)
	assert.LessOrEqual(t, stored.Bounds().Dy(), 375)
	// 1000x800 scales by height: 468x375
	assert.Equal(t, 375, stored.Bounds().Dy())
}

func TestDiskStore_SaveKeepsSmallImages(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, 1, "small.png", pngImageBytes(t, 100, 80))
	require.NoError(t, err)

	file, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, file.Close())
	}()

	stored, _, err := image.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Bounds().Dx())
	assert.Equal(t, 80, stored.Bounds().Dy())
}

func TestDiskStore_Save_NotAnImage(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), 1, "nope.txt", bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestDiskStore_Delete(t *testing.T) {
	rootPath := t.TempDir()
	store, err := NewDiskStore(rootPath)
	require.NoError(t, err)
	ctx := context.Background()

	key, err := store.Save(ctx, 1, "avatar.png", pngImageBytes(t, 50, 50))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(rootPath, key))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStore_Delete_RejectsEscapingKeys(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	err = store.Delete(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidKey)
}
