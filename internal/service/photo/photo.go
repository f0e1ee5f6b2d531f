// Package photo normalises and stores profile photos.
package photo

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"
	_ "golang.org/x/image/webp" // register the WebP decoder

	"github.com/janisto/dating-onboarding/internal/platform/metrics"
)

// Normalisation parameters applied to every upload.
const (
	MaxWidth    = 1080
	JPEGQuality = 85
	ContentType = "image/jpeg"
)

// ErrUnsupportedImage is returned when the upload cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported image")

// Normalize decodes an image, applies its EXIF orientation, scales it down
// to MaxWidth and re-encodes it as JPEG.
func Normalize(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	if img.Bounds().Dx() > MaxWidth {
		img = imaging.Resize(img, MaxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode photo: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// ObjectName returns the storage path for an upload named filename. Names
// sort by upload time.
func ObjectName(filename string, t time.Time) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(t), entropy)
	entropyMu.Unlock()
	return "profiles/" + id.String() + "_" + sanitize(filename) + ".jpg"
}

// sanitize keeps the base name of filename without its extension, limited to
// letters, digits, '-' and '_'.
func sanitize(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('_')
		}
		if b.Len() >= 64 {
			break
		}
	}
	if b.Len() == 0 {
		return "photo"
	}
	return b.String()
}

// Store writes objects and returns their public URL. Writing an existing
// name replaces it.
type Store interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// Uploader normalises uploads and writes them to a Store.
type Uploader struct {
	store Store
	now   func() time.Time
}

// NewUploader creates an Uploader on store.
func NewUploader(store Store) *Uploader {
	return &Uploader{store: store, now: time.Now}
}

// Upload stores the photo read from r and returns its public URL.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	data, err := Normalize(r)
	if err != nil {
		metrics.RecordPhotoUpload(metrics.ResultFailure)
		return "", err
	}
	url, err := u.store.Put(ctx, ObjectName(filename, u.now()), data, ContentType)
	if err != nil {
		metrics.RecordPhotoUpload(metrics.ResultFailure)
		return "", fmt.Errorf("store photo: %w", err)
	}
	metrics.RecordPhotoUpload(metrics.ResultSuccess)
	return url, nil
}
