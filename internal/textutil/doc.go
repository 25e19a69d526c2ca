// Package textutil provides text processing utilities for identity
// normalization and fuzzy similarity scoring.
//
// Identities are normalized by lowercasing and stripping non-alphanumeric
// separators before comparison. Fuzzy comparison uses character-bigram
// frequency vectors and cosine similarity, with a containment floor for
// truncated names.
package textutil
