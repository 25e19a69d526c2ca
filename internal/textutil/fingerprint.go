package textutil

import (
	"math"
	"strings"
)

// NormalizeIdentity reduces an identity string to its comparable core:
// lowercase with every non-alphanumeric rune removed. Production naming is
// inconsistent about separators ("A001_C001" vs "a001-c001"), so comparisons
// happen on this normalized form.
func NormalizeIdentity(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fingerprint represents a character-bigram frequency vector used for fuzzy
// identity comparison.
type Fingerprint struct {
	grams map[string]float64
	norm  float64
}

// NewFingerprint creates a fingerprint from the normalized form of text.
// Returns nil if normalization leaves nothing to compare.
func NewFingerprint(text string) *Fingerprint {
	normalized := NormalizeIdentity(text)
	if normalized == "" {
		return nil
	}
	grams := make(map[string]float64)
	if len(normalized) == 1 {
		grams[normalized] = 1
	}
	for i := 0; i+2 <= len(normalized); i++ {
		grams[normalized[i:i+2]]++
	}
	var norm float64
	for _, count := range grams {
		norm += count * count
	}
	return &Fingerprint{grams: grams, norm: math.Sqrt(norm)}
}

// CosineSimilarity computes the cosine similarity between two fingerprints.
// Returns 0 if either fingerprint is nil or has zero norm.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for gram, count := range a.grams {
		if other, ok := b.grams[gram]; ok {
			dot += count * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}
