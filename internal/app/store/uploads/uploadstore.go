// internal/app/store/uploads/uploadstore.go
package uploadstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/dalemusser/fwsm/internal/app/system/apiclient"
	"github.com/dalemusser/fwsm/internal/domain/models"
)

const (
	// DefaultMaxBytes is the per-file size limit (5 MB).
	DefaultMaxBytes = 5 << 20
	// DefaultMaxImages is the gallery size limit.
	DefaultMaxImages = 5
)

// AllowedTypes are the accepted image content types.
var AllowedTypes = []string{"image/jpeg", "image/png"}

// ErrNoFiles is returned before any call when there is nothing to upload.
var ErrNoFiles = errors.New("uploadstore: no files to upload")

// Limits bounds one upload.
type Limits struct {
	MaxFiles int
	MaxBytes int64
}

// LogoLimits allows a single file.
func LogoLimits(maxBytes int64) Limits {
	return Limits{MaxFiles: 1, MaxBytes: maxBytes}
}

// GalleryLimits allows up to maxImages images in total, counting the
// existing ones.
func GalleryLimits(maxBytes int64, maxImages, existing int) Limits {
	left := maxImages - existing
	if left < 0 {
		left = 0
	}
	return Limits{MaxFiles: left, MaxBytes: maxBytes}
}

// CheckError explains why a selection was refused.
type CheckError struct {
	File   string // empty when the selection as a whole is refused
	Reason string
}

func (e *CheckError) Error() string {
	if e.File == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Check validates count, size and content type. The content type is sniffed
// from the data, not taken from the browser. The backend still has the final
// word; this only spares the user a round trip.
func Check(files []apiclient.File, lim Limits) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if lim.MaxFiles <= 0 {
		return &CheckError{Reason: "no more images can be added"}
	}
	if len(files) > lim.MaxFiles {
		if lim.MaxFiles == 1 {
			return &CheckError{Reason: "select a single image"}
		}
		return &CheckError{Reason: fmt.Sprintf("select at most %d images", lim.MaxFiles)}
	}
	maxBytes := lim.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	for i := range files {
		f := &files[i]
		if len(f.Data) == 0 {
			return &CheckError{File: f.Name, Reason: "file is empty"}
		}
		if int64(len(f.Data)) > maxBytes {
			return &CheckError{File: f.Name, Reason: fmt.Sprintf("file is larger than %d MB", maxBytes>>20)}
		}
		ct := http.DetectContentType(f.Data)
		if !slices.Contains(AllowedTypes, ct) {
			return &CheckError{File: f.Name, Reason: "only JPEG and PNG images are accepted"}
		}
		f.ContentType = ct
	}
	return nil
}

type Store struct {
	c *apiclient.Client
}

func New(c *apiclient.Client) *Store {
	return &Store{c: c}
}

// UploadImages sends files to the media library and returns what the backend
// stored, in order.
func (s *Store) UploadImages(ctx context.Context, ts apiclient.TokenSource, files []apiclient.File) ([]models.UploadedImage, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	return apiclient.Do(ctx, s.c, apiclient.Request{
		Method:      http.MethodPost,
		Path:        "/upload",
		Body:        &apiclient.Files{Field: "files", Files: files},
		Auth:        ts,
		RequireAuth: true,
	}, models.DecodeUploadedImages)
}

// IDs lists the ids of uploaded images.
func IDs(imgs []models.UploadedImage) []int {
	ids := make([]int, 0, len(imgs))
	for _, img := range imgs {
		ids = append(ids, img.ID)
	}
	return ids
}
