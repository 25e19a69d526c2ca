// Package integrity proves source files are unmodified between load and
// export.
//
// Digests are SHA-256 over full file bytes, cached by {path, size, mtime};
// concurrent requests for one path coalesce onto a single in-flight
// computation. Verify re-stats a load-time snapshot and refuses with a
// stale-source fault when size or mtime drifted, because the zero-mutation
// guarantee can no longer be proven for the session.
package integrity
