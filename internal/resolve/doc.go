// Package resolve reconciles the four competing sources of display
// configuration: an existing per-image sidecar, the active preset, dataset
// defaults for a recognized table shape, and a last-resort heuristic.
//
// The chain is evaluated once per concern. A later source never partially
// merges a field order into an earlier one; the first source supplying any
// explicit order wins wholesale. Positions resolve per pinned field
// independently, and every resolved value carries its precedence source for
// status reporting and export.
package resolve
