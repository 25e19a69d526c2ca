package faults

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for fault classification. Callers test with errors.Is and
// never parse message text.
var (
	// ErrEncodingExhausted reports that no decode attempt produced text.
	ErrEncodingExhausted = errors.New("encoding exhausted")
	// ErrMalformedTable reports a table whose header row is absent or empty.
	ErrMalformedTable = errors.New("malformed table")
	// ErrAmbiguousMatch reports multiple rows matching one image identity.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrUnmatchedRow reports that no row matched the image identity.
	ErrUnmatchedRow = errors.New("unmatched row")
	// ErrJoinKeyIntegrity reports duplicate or missing join-key values
	// anywhere in the table. It blocks export for every image.
	ErrJoinKeyIntegrity = errors.New("join key integrity")
	// ErrStaleSource reports that a source file changed between load and
	// export, so the zero-mutation guarantee cannot be proven.
	ErrStaleSource = errors.New("stale source")
	// ErrAtomicWrite reports a temp-file or rename failure during export.
	ErrAtomicWrite = errors.New("atomic write failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrMalformedTable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// BlocksExport reports whether the fault forbids any export attempt for the
// current table, regardless of which image is being resolved.
func BlocksExport(err error) bool {
	return errors.Is(err, ErrJoinKeyIntegrity) ||
		errors.Is(err, ErrAmbiguousMatch) ||
		errors.Is(err, ErrStaleSource)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
