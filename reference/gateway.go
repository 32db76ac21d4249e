package reference

import (
	"context"
	"io"
	"strings"
	"unicode"

	"go.opentelemetry.io/otel/attribute"

	apperrors "github.com/william251082/fileupload/errors"
	"github.com/william251082/fileupload/keygen"
	"github.com/william251082/fileupload/observability"
	"github.com/william251082/fileupload/storage"
)

// AccessCheck decides whether the caller may read ref. A non-nil error
// denies access; AppErrors are returned as is, anything else becomes 403.
type AccessCheck func(ctx context.Context, ref *Reference) error

// Resolution is either a stream to copy to the client or a URL to redirect
// to. A non-nil Stream must be closed by the caller.
type Resolution struct {
	Stream      io.ReadCloser
	ContentType string
	Filename    string
	Size        int64

	RedirectURL string
}

// IsRedirect reports whether the client should be sent elsewhere.
func (r *Resolution) IsRedirect() bool { return r.RedirectURL != "" }

// ContentDisposition is the attachment header value carrying Filename.
func (r *Resolution) ContentDisposition() string {
	return ContentDisposition(r.Filename)
}

// Gateway serves downloads.
type Gateway struct {
	cfg       DownloadConfig
	backend   storage.Backend
	presigner storage.Presigner
	registry  *Registry
}

// Strategy returns the effective strategy, proxy or redirect.
func (g *Gateway) Strategy() string {
	if g.presigner != nil {
		return StrategyRedirect
	}
	return StrategyProxy
}

// Resolve loads the reference, runs check and then either opens the blob or
// presigns a URL for it. A denied check never reaches storage.
func (g *Gateway) Resolve(ctx context.Context, id uint64, check AccessCheck) (_ *Resolution, err error) {
	ctx, span := observability.StartSpan(ctx, "reference.download",
		attribute.Int64("reference.id", int64(id)),
		attribute.String("download.strategy", g.Strategy()))
	defer func() { observability.EndSpan(span, err) }()

	ref, err := g.registry.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(ctx, ref); err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok {
				return nil, appErr
			}
			return nil, apperrors.Forbidden("").WithCause(err)
		}
	}

	if g.presigner != nil {
		signed, err := g.presigner.PresignGet(ctx, ref.StorageKey, storage.PresignOptions{
			TTL:                g.cfg.TTL,
			ContentType:        ref.MimeType,
			ContentDisposition: ContentDisposition(ref.OriginalFilename),
		})
		if err != nil {
			return nil, apperrors.StorageFailure("presign", err)
		}
		return &Resolution{
			RedirectURL: signed.URL,
			ContentType: ref.MimeType,
			Filename:    ref.OriginalFilename,
			Size:        ref.Size,
		}, nil
	}

	stream, err := g.backend.Read(ctx, ref.StorageKey)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, apperrors.NotFound("file", idString(id)).WithCause(err)
		}
		return nil, apperrors.StorageFailure("read", err)
	}
	return &Resolution{
		Stream:      stream,
		ContentType: ref.MimeType,
		Filename:    ref.OriginalFilename,
		Size:        ref.Size,
	}, nil
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// ContentDisposition builds an attachment header for filename. Names outside
// ASCII get a transliterated filename= fallback plus the RFC 5987 filename*.
func ContentDisposition(filename string) string {
	filename = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, filename)
	if filename == "" {
		return "attachment"
	}
	quoted := `attachment; filename="` + quoteEscaper.Replace(keygen.FoldASCII(filename)) + `"`
	for _, r := range filename {
		if r > unicode.MaxASCII {
			return quoted + "; filename*=UTF-8''" + encodeExtValue(filename)
		}
	}
	return quoted
}

// encodeExtValue percent-encodes every byte that is not an RFC 5987 attr-char.
func encodeExtValue(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}
