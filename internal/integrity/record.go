package integrity

import (
	"fmt"
	"os"
	"time"

	"slatelink/internal/faults"
)

// Snapshot captures a source file's identity at load time. Size and mtime
// drift later proves the zero-mutation guarantee is gone.
type Snapshot struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Record is a completed integrity record: the snapshot plus its digest.
type Record struct {
	Snapshot
	SHA256 string
}

// Stat captures a snapshot of the file at path.
func Stat(path string) (Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("stat source: %w", err)
	}
	return Snapshot{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Verify re-stats the snapshot's file and fails with a stale-source fault if
// size or mtime changed since capture.
func Verify(snap Snapshot) error {
	current, err := Stat(snap.Path)
	if err != nil {
		return faults.Wrap(faults.ErrStaleSource, "integrity", "verify", snap.Path, err)
	}
	if current.Size != snap.Size || !current.ModTime.Equal(snap.ModTime) {
		return faults.Wrap(faults.ErrStaleSource, "integrity", "verify",
			fmt.Sprintf("%s changed since load (size %d -> %d)", snap.Path, snap.Size, current.Size), nil)
	}
	return nil
}
