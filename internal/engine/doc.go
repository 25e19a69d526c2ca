// Package engine orchestrates the pipeline from source files to a written
// sidecar.
//
// Resolve parses the metadata table, matches the image's identity to a row,
// reconciles the four configuration sources, and produces an overlay plan.
// Blocking conditions (join-key integrity failures, ambiguous matches) are
// carried on the Resolution rather than returned, so callers can inspect and
// report them; Export refuses to run while one is present. Export re-stats
// both sources against their load-time snapshots and writes the sidecar
// atomically, so a stale or mutated source can never produce a sidecar that
// misrepresents it.
package engine
