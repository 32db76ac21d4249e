package article

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/keygen"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/observability"
	"github.com/william251082/fileupload/reference"
	"github.com/william251082/fileupload/storage"
	"github.com/william251082/fileupload/util"
)

// ImageField is the multipart field carrying the image.
const ImageField = "image"

var imageTypes = []string{"image/*"}

// ImageUploader replaces an article's public image.
type ImageUploader struct {
	cfg     Config
	maxSize int64
	store   *Store
	backend storage.Backend
	keys    *keygen.Generator
	log     *logger.Logger
}

// NewImageUploader stores images under ImagePrefix in backend.
func NewImageUploader(cfg Config, store *Store, backend storage.Backend, log *logger.Logger) *ImageUploader {
	cfg.ApplyDefaults()
	return &ImageUploader{
		cfg:     cfg,
		maxSize: util.ParseSize(cfg.ImageMaxSize, 5<<20),
		store:   store,
		backend: storage.WithPrefix(backend, ImagePrefix),
		keys:    &keygen.Generator{},
		log:     log.WithComponent("article-image"),
	}
}

// Upload stores file as the article's image and deletes the image it
// replaces. declaredSize is negative when unknown.
func (u *ImageUploader) Upload(ctx context.Context, articleID uint64, file io.Reader,
	filename, declaredMime string, declaredSize int64) (_ *Article, err error) {
	ctx, span := observability.StartSpan(ctx, "article.image.upload",
		attribute.Int64("article.id", int64(articleID)))
	defer func() { observability.EndSpan(span, err) }()

	if file == nil || declaredSize == 0 {
		return nil, apperrors.MissingField(ImageField, "Please select an image to upload")
	}
	if declaredSize > u.maxSize {
		return nil, apperrors.FileTooLarge(ImageField, u.maxSize)
	}
	sniffed, err := reference.Sniff(file, declaredMime)
	if err != nil {
		return nil, reference.ReadFailure(ImageField, err, u.maxSize)
	}
	if sniffed.Empty {
		return nil, apperrors.MissingField(ImageField, "Please select an image to upload")
	}
	if _, ok := sniffed.Match(imageTypes); !ok {
		return nil, apperrors.UnsupportedType(ImageField, sniffed.MimeType, imageTypes)
	}
	if _, err := u.store.Get(ctx, articleID); err != nil {
		return nil, err
	}

	name := reference.CleanFilename(filename, "")
	ext := path.Ext(name)
	if keygen.CleanExtension(ext) == "" {
		ext = reference.ExtensionFor(sniffed.MimeType)
	}
	key := u.keys.Generate(name, ext)

	limited := &storage.LimitedReader{R: sniffed.Reader, Max: u.maxSize}
	if _, err := u.backend.Write(ctx, key, limited); err != nil {
		if limited.Exceeded() {
			return nil, apperrors.FileTooLarge(ImageField, u.maxSize)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, reference.ReadFailure(ImageField, err, u.maxSize)
		}
		return nil, apperrors.StorageFailure("write", err)
	}

	previous, err := u.store.SetImage(ctx, articleID, key)
	if err != nil {
		if delErr := u.backend.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			u.log.WithError(delErr).Error("failed to discard image after metadata error",
				logger.Fields(logger.FieldStorageKey, key))
		}
		return nil, err
	}
	if previous != "" {
		u.deletePrevious(ctx, articleID, previous)
	}

	u.log.Info("article image replaced", logger.Fields(
		logger.FieldArticleID, articleID, logger.FieldStorageKey, key))
	return u.store.Get(ctx, articleID)
}

func (u *ImageUploader) deletePrevious(ctx context.Context, articleID uint64, key string) {
	fields := logger.Fields(logger.FieldArticleID, articleID, logger.FieldStorageKey, key)
	err := u.backend.Delete(context.WithoutCancel(ctx), key)
	switch {
	case err == nil:
	case storage.IsNotFound(err):
		fields["severity"] = "alert"
		u.log.Error("previous article image missing from storage", fields)
	default:
		u.log.WithError(err).Error("failed to delete previous article image", fields)
	}
}

// PublicPath is the URL path an image key is served at.
func (u *ImageUploader) PublicPath(key string) string {
	return PublicPath(u.cfg.PublicBaseURL, key)
}

// PublicPath joins base with the public mount and key.
func PublicPath(base, key string) string {
	return strings.TrimRight(base, "/") + PublicMount + "/" + ImagePrefix + "/" + key
}
