// Package sidecar builds, writes, and reads XMP sidecar documents.
//
// A sidecar records the selected field values for one image alongside
// integrity digests of the image and its metadata table, the join key used
// to match them, and any user-defined field order and pinned overlay
// positions. Writes are atomic (temp file plus rename, guarded by a lock
// file) so an interrupted export never damages an existing sidecar. Reads
// are lenient so sidecars written by other layout generations degrade to
// fewer recovered features instead of errors.
package sidecar
