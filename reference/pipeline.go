package reference

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/keygen"
	"github.com/william251082/fileupload/logger"
	"github.com/william251082/fileupload/observability"
	"github.com/william251082/fileupload/storage"
	"github.com/william251082/fileupload/util"
)

// UploadField is the form field, and error field, carrying the file.
const UploadField = "reference"

const maxFilenameLen = 255

// Articles answers whether a parent article exists.
type Articles interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// Pipeline turns an incoming stream into a stored blob plus its metadata.
type Pipeline struct {
	maxSize  int64
	allowed  []string
	backend  storage.Backend
	registry *Registry
	articles Articles
	keys     *keygen.Generator
	log      *logger.Logger
	metrics  *metrics
}

// Upload runs the gates in order: a file is present, it is within the size
// limit and of an allowed type, the article exists, the bytes are stored
// under a fresh key and finally the metadata is persisted. A failure at any
// gate leaves neither metadata nor a reachable blob behind.
func (p *Pipeline) Upload(ctx context.Context, in UploadInput) (_ *Reference, err error) {
	ctx, span := observability.StartSpan(ctx, "reference.upload",
		attribute.Int64("article.id", int64(in.ArticleID)))
	defer func() { observability.EndSpan(span, err) }()

	if in.File == nil || in.DeclaredSize == 0 {
		return nil, errNoFile()
	}
	if in.DeclaredSize > p.maxSize {
		return nil, apperrors.FileTooLarge(UploadField, p.maxSize)
	}

	src := &sourceReader{r: in.File}
	sniffed, err := Sniff(src, in.DeclaredMimeType)
	if err != nil {
		return nil, ReadFailure(UploadField, err, p.maxSize)
	}
	if sniffed.Empty {
		return nil, errNoFile()
	}
	mimeType, ok := sniffed.Match(p.allowed)
	if !ok {
		return nil, apperrors.UnsupportedType(UploadField, sniffed.MimeType, p.allowed)
	}
	if err := requireArticle(ctx, p.articles, in.ArticleID); err != nil {
		return nil, err
	}

	position, err := p.registry.NextPosition(ctx, in.ArticleID)
	if err != nil {
		return nil, err
	}

	name := CleanFilename(in.OriginalFilename, "")
	ext := path.Ext(name)
	if keygen.CleanExtension(ext) == "" {
		ext = ExtensionFor(sniffed.MimeType)
	}
	key := p.keys.Generate(name, ext)
	span.SetAttributes(attribute.String("storage.key", key))

	limited := &storage.LimitedReader{R: sniffed.Reader, Max: p.maxSize}
	size, err := p.backend.Write(ctx, key, limited)
	if err != nil {
		switch {
		case limited.Exceeded():
			return nil, apperrors.FileTooLarge(UploadField, p.maxSize)
		case src.err != nil:
			return nil, ReadFailure(UploadField, src.err, p.maxSize)
		}
		return nil, apperrors.StorageFailure("write", err)
	}

	ref := &Reference{
		ArticleID:        in.ArticleID,
		StorageKey:       key,
		OriginalFilename: util.FirstNonBlank(name, key),
		MimeType:         mimeType,
		Position:         position,
		Size:             size,
	}
	if err := p.registry.Add(ctx, ref); err != nil {
		p.discard(ctx, key)
		return nil, err
	}

	p.metrics.recordUpload(ctx, ref.MimeType, size)
	p.log.Info("reference uploaded", logger.Fields(
		logger.FieldArticleID, ref.ArticleID,
		logger.FieldReferenceID, ref.ID,
		logger.FieldStorageKey, key,
		"size", size,
		"mime_type", ref.MimeType,
	))
	return ref, nil
}

// discard removes a blob whose metadata could not be written.
func (p *Pipeline) discard(ctx context.Context, key string) {
	if err := p.backend.Delete(context.WithoutCancel(ctx), key); err != nil && !storage.IsNotFound(err) {
		p.metrics.cleanupFailures.Add(ctx, 1)
		p.log.WithError(err).Error("failed to discard blob after metadata error", logger.Fields(
			logger.FieldStorageKey, key,
		))
	}
}

func requireArticle(ctx context.Context, articles Articles, id uint64) error {
	ok, err := articles.Exists(ctx, id)
	if err != nil {
		if appErr, isApp := apperrors.AsAppError(err); isApp {
			return appErr
		}
		return apperrors.DatabaseError(err)
	}
	if !ok {
		return apperrors.NotFound("article", idString(id))
	}
	return nil
}

// sourceReader remembers the first error of the client stream so that a
// broken upload is not reported as a storage failure.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF && s.err == nil {
		s.err = err
	}
	return n, err
}

// ReadFailure maps an error reading the client stream onto a 400.
func ReadFailure(field string, err error, limit int64) *apperrors.AppError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.FileTooLarge(field, limit).WithCause(err)
	}
	return apperrors.InvalidInput(field, "the file could not be read").WithCause(err)
}

func errNoFile() *apperrors.AppError {
	return apperrors.MissingField(UploadField, "Please select a file to upload")
}

// CleanFilename reduces a client supplied name to its last path element,
// capped at 255 characters. Blank names become fallback.
func CleanFilename(name, fallback string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return fallback
	}
	if utf8.RuneCountInString(name) > maxFilenameLen {
		name = string([]rune(name)[:maxFilenameLen])
	}
	return name
}
