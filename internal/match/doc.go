// Package match associates an image identity with exactly one table row.
//
// The join-key column is auto-detected from a ranked list of identity-like
// header labels. Exact matching (trimmed, case-insensitive) always wins;
// multiple exact matches are reported as ambiguous rather than silently
// picking one. Fuzzy matching runs only when nothing matched exactly and
// requires both a minimum similarity and a clear lead over the runner-up.
// Independent of matching, ValidateJoinKey audits the whole column for empty
// and duplicate values, which blocks export for every image against that
// table.
package match
