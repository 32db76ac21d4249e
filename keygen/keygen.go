// Package keygen derives storage keys from user-supplied filenames.
package keygen

import (
	"path"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLen      = 64
	maxExtensionLen = 16
	fallbackSlug    = "file"
)

// Generator produces keys of the form <slug>-<token>[.<ext>]. The zero value
// is ready to use.
type Generator struct {
	// Now and Random are hooks for deterministic tests.
	Now    func() time.Time
	Random func() string

	seq atomic.Uint64
}

// Generate never fails. Two calls return different keys even for identical
// inputs within the same clock tick.
func (g *Generator) Generate(originalFilename, extension string) string {
	base := strings.TrimSuffix(originalFilename, path.Ext(originalFilename))
	slug := Slugify(base)
	if slug == "" {
		slug = fallbackSlug
	}

	key := slug + "-" + g.token()
	if ext := CleanExtension(extension); ext != "" {
		key += "." + ext
	}
	return key
}

// token combines time, a process-local sequence and randomness.
func (g *Generator) token() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	random := randomHex
	if g.Random != nil {
		random = g.Random
	}
	// two fixed-width base36 digits of a wrapping counter
	seq := strconv.FormatUint(g.seq.Add(1)%1296+1296, 36)[1:]
	return strconv.FormatInt(now().UnixNano(), 36) + seq + "-" + random()
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

var asciiFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify transliterates s to lowercase ASCII, collapses every run of
// characters outside [a-z0-9] into a single '-' and trims the result.
func Slugify(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// FoldASCII strips diacritics from s and replaces whatever is still outside
// ASCII with '_'. Case and punctuation are kept.
func FoldASCII(s string) string {
	folded, _, err := transform.String(asciiFold, s)
	if err != nil {
		folded = s
	}
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '_'
		}
		return r
	}, folded)
}

// CleanExtension lowercases ext, drops leading dots and any character
// outside [a-z0-9].
func CleanExtension(ext string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimLeft(ext, ".")) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) > maxExtensionLen {
		out = out[:maxExtensionLen]
	}
	return out
}
