package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/devtail-backend/pkg/errors"
)

// ImageUpload is a profile image received from a multipart form.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// Empty reports whether no image was submitted.
func (i *ImageUpload) Empty() bool {
	return i == nil || len(i.Data) == 0
}

type objectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// imageTypes maps the accepted sniffed content types to stored extensions.
var imageTypes = []struct {
	mime string
	ext  string
}{
	{"image/png", ".png"},
	{"image/jpeg", ".jpg"},
	{"image/webp", ".webp"},
	{"image/gif", ".gif"},
}

type sniffedImage struct {
	contentType string
	ext         string
}

// checkImage sniffs the upload. Filenames and client supplied content types
// are ignored.
func (f *form) checkImage(img *ImageUpload, maxBytes int64) *sniffedImage {
	if img.Empty() {
		return nil
	}
	if int64(len(img.Data)) > maxBytes {
		f.fail("profile_image", MsgImageTooLarge)
		return nil
	}
	detected := mimetype.Detect(img.Data)
	for _, t := range imageTypes {
		if detected.Is(t.mime) {
			return &sniffedImage{contentType: t.mime, ext: t.ext}
		}
	}
	f.fail("profile_image", MsgImageInvalid)
	return nil
}

func imageKey(now time.Time, ext string) string {
	now = now.UTC()
	return fmt.Sprintf("profiles/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
}

func (s *service) storeImage(ctx context.Context, img *ImageUpload, sniffed *sniffedImage) (string, error) {
	if sniffed == nil {
		return "", nil
	}
	if s.images == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, MsgImageUnavailable)
	}
	key := imageKey(s.now(), sniffed.ext)
	if err := s.images.Put(ctx, key, img.Data, sniffed.contentType); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, MsgImageUnavailable)
	}
	return key, nil
}

// discardImage removes an object best-effort; failures are only logged.
func (s *service) discardImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "object_key", key), "profile image cleanup failed")
	}
}

func (s *service) imageURL(key string) string {
	if s.images == nil {
		return key
	}
	return s.images.URL(key)
}
