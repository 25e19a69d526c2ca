package sidecar

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/gofrs/flock"

	"slatelink/internal/faults"
	"slatelink/internal/fileutil"
	"slatelink/internal/logging"
)

// PathFor returns the deterministic sidecar path for an image: same
// directory, same stem, .xmp extension.
func PathFor(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + ".xmp"
}

// Writer serializes sidecar documents to disk atomically. A lock file next
// to the target keeps two processes from interleaving an export to the same
// sidecar.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{logger: logging.NewComponentLogger(logger, "sidecar")}
}

// Write serializes doc to path. The previous file at path survives any
// failure byte for byte; only a completed rename replaces it.
func (w *Writer) Write(path string, doc *etree.Document) error {
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return faults.Wrap(faults.ErrAtomicWrite, "export", "lock sidecar", path, err)
	}
	if !ok {
		return faults.Wrap(faults.ErrAtomicWrite, "export", "lock sidecar", path,
			fmt.Errorf("another process is exporting to %s", path))
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			w.logger.Warn("failed to release sidecar lock",
				logging.String("path", path), logging.Error(err))
		}
	}()

	if err := fileutil.RemoveStaleTemps(path); err != nil {
		w.logger.Warn("stale temp cleanup failed",
			logging.String("path", path), logging.Error(err))
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return faults.Wrap(faults.ErrAtomicWrite, "export", "serialize sidecar", path, err)
	}
	if err := validate(data); err != nil {
		return faults.Wrap(faults.ErrAtomicWrite, "export", "validate sidecar", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return faults.Wrap(faults.ErrAtomicWrite, "export", "write sidecar", path, err)
	}

	w.logger.Info("sidecar written",
		logging.String("path", path), logging.Int("bytes", len(data)))
	return nil
}

// validate re-parses serialized output so a malformed document can never
// replace a good sidecar.
func validate(data []byte) error {
	check := etree.NewDocument()
	if err := check.ReadFromBytes(data); err != nil {
		return fmt.Errorf("generated sidecar is not well-formed: %w", err)
	}
	return nil
}
