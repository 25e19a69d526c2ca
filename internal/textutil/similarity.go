package textutil

import "strings"

// Similarity scores how alike two identity strings are, in [0, 1].
// Identical normalized forms score 1.0. When one normalized form contains the
// other, the score is floored at 0.8 (truncated clip names are common on
// set). Otherwise the bigram cosine similarity is returned.
func Similarity(a, b string) float64 {
	na := NormalizeIdentity(a)
	nb := NormalizeIdentity(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}

	score := CosineSimilarity(NewFingerprint(a), NewFingerprint(b))
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		if score < 0.8 {
			score = 0.8
		}
	}
	return score
}
