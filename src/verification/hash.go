package verification

import (
	"crypto/sha256"
	"encoding/hex"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripMarkup = bluemonday.StrictPolicy()
	whitespace  = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// CanonicalText normalizes untrusted article text: markup stripped, HTML
// entities decoded, whitespace collapsed, case folded. Two renditions of the
// same content that differ only in markup or incidental whitespace
// canonicalize identically.
func CanonicalText(s string) string {
	clean := stripMarkup.Sanitize(s)
	clean = html.UnescapeString(clean)
	clean = whitespace.ReplaceAllString(clean, " ")
	return strings.ToLower(strings.TrimSpace(clean))
}

// ArticleHash derives the stable content hash used as the anchoring
// idempotency key. Only title and body participate; field ordering and
// incidental formatting do not.
func ArticleHash(title, content string) [32]byte {
	canonical := CanonicalText(title) + "\n" + CanonicalText(content)
	return sha256.Sum256([]byte(canonical))
}

// HashHex renders an article hash the way it appears in records and logs.
func HashHex(h [32]byte) string {
	return "0x" + hex.EncodeToString(h[:])
}
