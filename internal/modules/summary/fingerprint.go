package summary

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Fingerprint identifies one cache entry: the content digest plus the
// style and model it was generated under.
type Fingerprint struct {
	ContentHash string
	Style       Style
	Model       string
}

// ComputeFingerprint derives the cache identity for (text, style, model).
// Pure and total: identical inputs always yield the identical fingerprint.
func ComputeFingerprint(text string, style Style, model string) Fingerprint {
	return Fingerprint{
		ContentHash: ContentHash(text),
		Style:       style,
		Model:       model,
	}
}

// ContentHash computes the sha256 digest of canonicalized text.
func ContentHash(text string) string {
	h := sha256.Sum256([]byte(canonicalize(text)))
	return fmt.Sprintf("%x", h)
}

// Key renders the volatile-tier key for this fingerprint.
func (f Fingerprint) Key() string {
	return fmt.Sprintf("summary:%s:%s:%s", f.ContentHash, f.Style, f.Model)
}

// Short returns a log-friendly prefix of the content hash.
func (f Fingerprint) Short() string {
	if len(f.ContentHash) <= 8 {
		return f.ContentHash
	}
	return f.ContentHash[:8]
}

// canonicalize normalizes text before hashing. Unrepresentable input is
// recovered by dropping invalid sequences rather than failing.
func canonicalize(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.TrimSpace(text)
}
