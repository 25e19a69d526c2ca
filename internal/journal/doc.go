// Package journal records completed sidecar exports in a SQLite database.
//
// Each entry keeps the image and table digests the export was verified
// against, so past exports can be audited after source files change. The
// journal is optional: when no path is configured the engine carries a nil
// store and every operation is a no-op.
package journal
