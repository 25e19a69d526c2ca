package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"slatelink/internal/faults"
	"slatelink/internal/logging"
)

// delimiterCandidates are scored during detection, in tie-break order.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

// delimiterSampleLines bounds how much of the file delimiter detection reads.
const delimiterSampleLines = 5

// Loader parses delimited-text and XLSX metadata tables.
type Loader struct {
	logger *slog.Logger
}

// NewLoader returns a loader. A nil logger is replaced with a nop logger.
func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logging.NewComponentLogger(logger, "tabular")}
}

// Load reads and parses the table at path, dispatching on extension.
func (l *Loader) Load(path string) (*Source, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return l.LoadXLSX(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	src, err := l.Parse(data)
	if err != nil {
		return nil, err
	}
	src.Path = path
	return src, nil
}

// Parse decodes and parses raw delimited-text bytes into a Source.
func (l *Loader) Parse(data []byte) (*Source, error) {
	text, encoding, err := decode(data)
	if err != nil {
		return nil, err
	}
	if encoding.Fallback() {
		l.logger.Warn("table decoded with fallback encoding",
			logging.String("encoding", string(encoding)))
	}

	delimiter := detectDelimiter(text)
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records := make([][]string, 0, 64)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, faults.Wrap(faults.ErrMalformedTable, "tabular", "parse", "unreadable record", err)
		}
		records = append(records, record)
	}

	src, err := l.assemble(records)
	if err != nil {
		return nil, err
	}
	src.Encoding = encoding
	src.Delimiter = delimiter
	return src, nil
}

// assemble turns raw records into a Source: header trim + de-dup, row-width
// enforcement with recorded warnings.
func (l *Loader) assemble(records [][]string) (*Source, error) {
	if len(records) == 0 {
		return nil, faults.Wrap(faults.ErrMalformedTable, "tabular", "parse", "header row absent", nil)
	}

	headers := dedupeHeaders(records[0])
	if len(headers) == 0 {
		return nil, faults.Wrap(faults.ErrMalformedTable, "tabular", "parse", "empty header row", nil)
	}

	src := &Source{Headers: headers}
	for i, record := range records[1:] {
		if len(record) != len(headers) {
			warning := RowWarning{
				Line:   i + 1,
				Cells:  len(record),
				Reason: fmt.Sprintf("cell count %d does not match header count %d", len(record), len(headers)),
			}
			src.Warnings = append(src.Warnings, warning)
			l.logger.Warn("dropped malformed row",
				logging.Int("line", warning.Line),
				logging.String("reason", warning.Reason))
			continue
		}
		row := make(Row, len(headers))
		for j, header := range headers {
			row[header] = record[j]
		}
		src.Rows = append(src.Rows, row)
	}

	l.logger.Debug("table parsed",
		logging.Int("headers", len(src.Headers)),
		logging.Int("rows", len(src.Rows)),
		logging.Int("dropped", len(src.Warnings)))
	return src, nil
}

// dedupeHeaders trims headers and makes duplicates unique (case-sensitive)
// by suffixing an occurrence counter. Empty headers get a placeholder name
// so their column keeps its width slot; spreadsheet exports routinely end
// header rows with a trailing delimiter. A header row with no named column
// at all is treated as absent.
func dedupeHeaders(raw []string) []string {
	seen := make(map[string]int, len(raw))
	headers := make([]string, 0, len(raw))
	named := false
	for _, header := range raw {
		header = strings.TrimSpace(header)
		if header == "" {
			header = "Unnamed"
		} else {
			named = true
		}
		seen[header]++
		if n := seen[header]; n > 1 {
			header = fmt.Sprintf("%s (%d)", header, n)
		}
		headers = append(headers, header)
	}
	if !named {
		return nil
	}
	return headers
}

// detectDelimiter scores each candidate over a short sample: the winner
// splits every sampled line into the same count greater than one. Comma wins
// ties via candidate order.
func detectDelimiter(text string) rune {
	lines := sampleLines(text, delimiterSampleLines)
	if len(lines) == 0 {
		return ','
	}

	best := ','
	bestScore := 0
	for _, candidate := range delimiterCandidates {
		counts := make([]int, len(lines))
		for i, line := range lines {
			counts[i] = strings.Count(line, string(candidate))
		}
		consistent := counts[0] > 0
		for _, c := range counts[1:] {
			if c != counts[0] {
				consistent = false
				break
			}
		}
		if consistent && counts[0] > bestScore {
			best = candidate
			bestScore = counts[0]
		}
	}
	return best
}

func sampleLines(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == limit {
			break
		}
	}
	return lines
}

// Locate finds a metadata table for an image: a same-stem table next to the
// image first, then the first table file in the directory (sorted by name).
func Locate(imagePath string) (string, bool) {
	dir := filepath.Dir(imagePath)
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	for _, ext := range []string{".csv", ".tsv", ".txt", ".xlsx"} {
		candidate := filepath.Join(dir, stem+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".tsv", ".xlsx":
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), true
}
