package reference

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMimeType is used when neither content nor client name a type.
const DefaultMimeType = "application/octet-stream"

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

// Sniffed is an upload whose first bytes have been inspected. Reader still
// yields the whole stream, head included.
type Sniffed struct {
	Reader   io.Reader
	MimeType string
	// Lineage is MimeType followed by the types it derives from, most
	// specific first ("text/csv", "text/plain"). Never includes the default.
	Lineage []string
	// Empty is set when the stream produced no bytes at all.
	Empty bool
}

// Match returns the most specific type in the lineage allowed by patterns.
// A CSV file therefore passes a "text/plain" allow-list as text/plain.
func (s *Sniffed) Match(patterns []string) (string, bool) {
	for _, mt := range s.Lineage {
		if MatchMime(mt, patterns) {
			return mt, true
		}
	}
	return "", false
}

// Sniff peeks at the head of r and resolves its media type. The declared
// type is consulted only when the content is not recognized.
func Sniff(r io.Reader, declared string) (*Sniffed, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	mt := ResolveMimeType(head, declared)
	return &Sniffed{
		Reader:   br,
		MimeType: mt,
		Lineage:  lineage(head, mt),
		Empty:    len(head) == 0,
	}, nil
}

// lineage walks mimetype's parents when resolved came from the content.
func lineage(head []byte, resolved string) []string {
	out := []string{resolved}
	if len(head) == 0 {
		return out
	}
	detected := mimetype.Detect(head)
	if baseType(detected.String()) != resolved {
		return out
	}
	for m := detected.Parent(); m != nil; m = m.Parent() {
		mt := baseType(m.String())
		if mt == "" || mt == DefaultMimeType {
			break
		}
		out = append(out, mt)
	}
	return out
}

// ResolveMimeType picks the media type for content starting with head.
func ResolveMimeType(head []byte, declared string) string {
	if len(head) > 0 {
		if mt := baseType(mimetype.Detect(head).String()); mt != "" && mt != DefaultMimeType {
			return mt
		}
	}
	if mt := baseType(declared); mt != "" {
		return mt
	}
	return DefaultMimeType
}

// ExtensionFor returns the usual extension for mimeType without the dot,
// or "" when it is unknown.
func ExtensionFor(mimeType string) string {
	m := mimetype.Lookup(baseType(mimeType))
	if m == nil {
		return ""
	}
	return strings.TrimPrefix(m.Extension(), ".")
}

// MatchMime reports whether mimeType matches any pattern. Patterns are full
// types ("application/pdf"), a wildcard subtype ("image/*") or "*/*".
func MatchMime(mimeType string, patterns []string) bool {
	mt := baseType(mimeType)
	if mt == "" {
		return false
	}
	typ, _, _ := strings.Cut(mt, "/")
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "*/*" || p == "*":
			return true
		case strings.HasSuffix(p, "/*"):
			if strings.TrimSuffix(p, "/*") == typ {
				return true
			}
		case p == mt:
			return true
		}
	}
	return false
}

func validPattern(p string) bool {
	p = strings.TrimSpace(p)
	if p == "*" || p == "*/*" {
		return true
	}
	typ, sub, ok := strings.Cut(p, "/")
	return ok && typ != "" && typ != "*" && sub != "" && !strings.Contains(sub, "/")
}

// baseType strips parameters and lowercases; "" when s is not a media type.
func baseType(s string) string {
	if s == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(s)
	if err != nil || !strings.Contains(mt, "/") {
		return ""
	}
	return mt
}
