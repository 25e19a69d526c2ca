package tabular

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"slatelink/internal/faults"
)

// LoadXLSX parses the first sheet of an XLSX workbook: first row is headers,
// every cell value is kept as a string. Rows shorter than the header set are
// dropped with a warning, matching the delimited-text loader. XLSX is always
// UTF-8 internally, so no encoding tag beyond plain UTF-8 applies.
func (l *Loader) LoadXLSX(path string) (*Source, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, faults.Wrap(faults.ErrMalformedTable, "tabular", "xlsx", "workbook has no sheets", nil)
	}

	records, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	// GetRows trims trailing empty cells per row; pad to header width so the
	// width check only drops genuinely overlong rows.
	if len(records) > 1 {
		width := len(records[0])
		for i, record := range records[1:] {
			if len(record) < width {
				padded := make([]string, width)
				copy(padded, record)
				records[i+1] = padded
			}
		}
	}

	src, err := l.assemble(records)
	if err != nil {
		return nil, err
	}
	src.Path = path
	src.Encoding = EncodingUTF8
	src.Delimiter = 0
	return src, nil
}
