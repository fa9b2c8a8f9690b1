package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Trailing photo/video annotations appended by Hungarian news feeds,
// optionally preceded by a dash/plus and followed by punctuation.
var photoVideoExpr = regexp.MustCompile(
	`(?i)\s*[-+]\s*(?:fotó(?:kkal)?|videó(?:kkal)?|fotók|videók)?[!.,;]?\s*$|\s+fotó\s*$`)

// Feed-routing path segments that vary per outlet but point at the same page.
var feedPathExpr = regexp.MustCompile(`/rss|/feed`)

// Title strips embedded markup and trailing photo/video markers from a raw
// feed title. Idempotent: a clean title passes through unchanged.
func Title(raw string) string {
	if strings.Contains(raw, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			raw = doc.Text()
		}
	}
	return strings.TrimSpace(photoVideoExpr.ReplaceAllString(raw, ""))
}

// Link canonicalizes an entry URL by dropping feed-routing path segments.
// Idempotent.
func Link(raw string) string {
	return strings.TrimSpace(feedPathExpr.ReplaceAllString(raw, ""))
}

// Fingerprint derives the dedup key from a canonicalized link: the SHA-256
// digest encoded as hex. Same link, same fingerprint, regardless of title
// or source.
func Fingerprint(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])
}
