package tabular

import "strings"

// Encoding identifies which decode attempt produced the table text.
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF8BOM Encoding = "utf-8-bom"
	EncodingLatin1  Encoding = "latin-1"
)

// Fallback reports whether the encoding implies potential mojibake and must
// be surfaced to the user.
func (e Encoding) Fallback() bool {
	return e != EncodingUTF8
}

// Row maps a header to its cell value. Values stay verbatim strings; no type
// coercion ever happens here.
type Row map[string]string

// RowWarning records a data row that was dropped during parsing.
type RowWarning struct {
	Line   int // 1-based line number in the source, header excluded
	Cells  int
	Reason string
}

// Source is an immutable parsed table: ordered unique headers and rows that
// each carry exactly the header set's keys.
type Source struct {
	Path      string
	Headers   []string
	Rows      []Row
	Encoding  Encoding
	Delimiter rune
	Warnings  []RowWarning
}

// HasHeader reports whether name is one of the source's headers
// (case-sensitive, the stored form).
func (s *Source) HasHeader(name string) bool {
	for _, h := range s.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// HeaderFold returns the stored header matching name case-insensitively.
func (s *Source) HeaderFold(name string) (string, bool) {
	for _, h := range s.Headers {
		if strings.EqualFold(h, name) {
			return h, true
		}
	}
	return "", false
}

// Column returns every value of the named column in row order.
func (s *Source) Column(name string) []string {
	values := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		values[i] = row[name]
	}
	return values
}
