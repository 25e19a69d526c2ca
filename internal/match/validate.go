package match

import (
	"fmt"
	"sort"
	"strings"

	"slatelink/internal/faults"
	"slatelink/internal/tabular"
)

// JoinKeyIssues reports duplicate or missing join-key values anywhere in the
// table. It wraps faults.ErrJoinKeyIntegrity so callers can classify it, and
// carries row numbers so the caller can render a precise message.
type JoinKeyIssues struct {
	Column      string
	MissingRows []int            // 1-based data row numbers with empty cells
	Duplicates  map[string][]int // value -> 1-based data row numbers
}

func (e *JoinKeyIssues) Error() string {
	parts := []string{fmt.Sprintf("join key column %q", e.Column)}
	if len(e.MissingRows) > 0 {
		parts = append(parts, fmt.Sprintf("%d empty value(s) at rows %v", len(e.MissingRows), e.MissingRows))
	}
	if len(e.Duplicates) > 0 {
		values := make([]string, 0, len(e.Duplicates))
		for value := range e.Duplicates {
			values = append(values, value)
		}
		sort.Strings(values)
		for _, value := range values {
			parts = append(parts, fmt.Sprintf("duplicate %q at rows %v", value, e.Duplicates[value]))
		}
	}
	return strings.Join(parts, ": ")
}

func (e *JoinKeyIssues) Unwrap() error { return faults.ErrJoinKeyIntegrity }

// ValidateJoinKey checks the whole table's join-key column for empty and
// duplicate values. The check is independent of which image is being matched:
// a broken join key blocks export even for rows not currently in view.
func ValidateJoinKey(src *tabular.Source, joinKey string) error {
	if !src.HasHeader(joinKey) {
		return &JoinKeyIssues{Column: joinKey, MissingRows: nil}
	}

	issues := &JoinKeyIssues{Column: joinKey, Duplicates: make(map[string][]int)}
	counts := make(map[string][]int)
	for i, row := range src.Rows {
		value := strings.TrimSpace(row[joinKey])
		if value == "" {
			issues.MissingRows = append(issues.MissingRows, i+1)
			continue
		}
		// Fold the same way matching compares cells, so values the matcher
		// cannot tell apart are duplicates here too.
		counts[strings.ToLower(value)] = append(counts[strings.ToLower(value)], i+1)
	}
	for value, rows := range counts {
		if len(rows) > 1 {
			issues.Duplicates[value] = rows
		}
	}

	if len(issues.MissingRows) == 0 && len(issues.Duplicates) == 0 {
		return nil
	}
	return issues
}
