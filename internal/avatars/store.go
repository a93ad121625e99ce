package avatars

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/anagoge/liftlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// stored avatars are downscaled to fit this box, aspect ratio kept
const (
	maxWidth  = 500
	maxHeight = 375
)

var ErrInvalidKey = errors.New("invalid avatar key")

// DiskStore keeps avatar images on local disk, one directory per user.
// Keys are paths relative to the root.
type DiskStore struct {
	rootPath string
}

func NewDiskStore(rootPath string) (*DiskStore, error) {
	rootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("get absolute root path: %w", err)
	}
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("create avatars root: %w", err)
	}

	log.Debugf("avatars disk store at: %s", rootPath)
	return &DiskStore{rootPath: rootPath}, nil
}

// Save decodes, downscales and stores the image, returning the key to
// reference it by. JPEG and PNG are accepted.
func (s *DiskStore) Save(ctx context.Context, userID int, filename string, content io.Reader) (_ string, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "avatarsDiskStore.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	img, format, err := image.Decode(content)
	if err != nil {
		return "", fmt.Errorf("decode avatar image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return "", fmt.Errorf("unsupported avatar image format: %s", format)
	}

	img = downscale(img)

	userDir := filepath.Join(s.rootPath, strconv.Itoa(userID))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("create user avatar dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), sanitizeFilename(filename, format))
	file, err := os.Create(filepath.Join(userDir, name))
	if err != nil {
		return "", fmt.Errorf("create avatar file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	switch format {
	case "png":
		err = png.Encode(file, img)
	default:
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		return "", fmt.Errorf("encode avatar image: %w", err)
	}

	return filepath.ToSlash(filepath.Join(strconv.Itoa(userID), name)), nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) (err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "avatarsDiskStore.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("remove avatar file: %w", err)
	}
	return nil
}

// Open returns the stored image for serving.
func (s *DiskStore) Open(ctx context.Context, key string) (_ io.ReadCloser, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "avatarsDiskStore.open")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// resolve maps a key to an absolute path, rejecting keys that escape
// the root.
func (s *DiskStore) resolve(key string) (string, error) {
	path := filepath.Join(s.rootPath, filepath.FromSlash(key))
	if !strings.HasPrefix(path, s.rootPath+string(os.PathSeparator)) {
		return "", ErrInvalidKey
	}
	return path, nil
}

func downscale(img image.Image) image.Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= maxWidth && height <= maxHeight {
		return img
	}

	scale := float64(maxWidth) / float64(width)
	if heightScale := float64(maxHeight) / float64(height); heightScale < scale {
		scale = heightScale
	}

	dst := image.NewRGBA(image.Rect(
		0, 0,
		int(float64(width)*scale), int(float64(height)*scale),
	))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func sanitizeFilename(filename, format string) string {
	base := filepath.Base(filename)
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		base = "avatar." + format
	}
	return base
}
