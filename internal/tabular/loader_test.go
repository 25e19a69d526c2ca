package tabular

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"slatelink/internal/faults"
)

func TestParseUTF8(t *testing.T) {
	data := []byte("Name,Scene,Take\nA001_C001,12B,3\nA001_C002,12B,4\n")

	src, err := NewLoader(nil).Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if src.Encoding != EncodingUTF8 {
		t.Fatalf("encoding = %q, want utf-8", src.Encoding)
	}
	if src.Encoding.Fallback() {
		t.Fatal("plain UTF-8 must not be flagged as fallback")
	}
	if len(src.Headers) != 3 || len(src.Rows) != 2 {
		t.Fatalf("got %d headers, %d rows", len(src.Headers), len(src.Rows))
	}
	if src.Rows[0]["Name"] != "A001_C001" || src.Rows[1]["Take"] != "4" {
		t.Fatalf("unexpected row content: %+v", src.Rows)
	}
}

func TestParseUTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Name,Scene\nA001,12B\n")...)

	src, err := NewLoader(nil).Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if src.Encoding != EncodingUTF8BOM {
		t.Fatalf("encoding = %q, want utf-8-bom", src.Encoding)
	}
	if !src.Encoding.Fallback() {
		t.Fatal("BOM variant must be flagged as fallback")
	}
	if src.Headers[0] != "Name" {
		t.Fatalf("BOM leaked into first header: %q", src.Headers[0])
	}
}

func TestParseLatin1(t *testing.T) {
	// "Café" with 0xE9, invalid as UTF-8.
	data := []byte("Name,Caf\xe9\nA001,oui\n")

	src, err := NewLoader(nil).Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if src.Encoding != EncodingLatin1 {
		t.Fatalf("encoding = %q, want latin-1", src.Encoding)
	}
	if src.Headers[1] != "Café" {
		t.Fatalf("latin-1 header mangled: %q", src.Headers[1])
	}
}

func TestParseDetectsSemicolonDelimiter(t *testing.T) {
	data := []byte("Name;Scene;Take\nA001;12B;3\n")

	src, err := NewLoader(nil).Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if src.Delimiter != ';' {
		t.Fatalf("delimiter = %q, want ';'", src.Delimiter)
	}
	if src.Rows[0]["Scene"] != "12B" {
		t.Fatalf("unexpected row: %+v", src.Rows[0])
	}
}

func TestParseDropsMismatchedRows(t *testing.T) {
	data := []byte("Name,Scene\nA001,12B\nA002,12B,extra\nA003\nA004,13A\n")

	src, err := NewLoader(nil).Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(src.Rows) != 2 {
		t.Fatalf("expected 2 surviving rows, got %d", len(src.Rows))
	}
	if len(src.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %+v", src.Warnings)
	}
	if src.Warnings[0].Line != 2 || src.Warnings[1].Line != 3 {
		t.Fatalf("warning lines wrong: %+v", src.Warnings)
	}
}

func TestParseDeduplicatesHeaders(t *testing.T) {
	data := []byte("Name, Name ,Scene\nA001,A001-dup,12B\n")

	src, err := NewLoader(nil).Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Name", "Name (2)", "Scene"}
	for i, header := range want {
		if src.Headers[i] != header {
			t.Fatalf("headers = %v, want %v", src.Headers, want)
		}
	}
	if src.Rows[0]["Name (2)"] != "A001-dup" {
		t.Fatalf("deduped column lost its values: %+v", src.Rows[0])
	}
}

func TestParseTrailingDelimiterKeepsRows(t *testing.T) {
	// Spreadsheet exports often end the header row with a delimiter; the
	// unnamed column must keep its width slot so data rows still fit.
	data := []byte("Name,Scene,\nA001_C001,12A,\nA001_C002,12B,note\n")

	src, err := NewLoader(nil).Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Name", "Scene", "Unnamed"}
	if len(src.Headers) != len(want) {
		t.Fatalf("headers = %v, want %v", src.Headers, want)
	}
	for i, header := range want {
		if src.Headers[i] != header {
			t.Fatalf("headers = %v, want %v", src.Headers, want)
		}
	}
	if len(src.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d (warnings %v)", len(src.Rows), src.Warnings)
	}
	if len(src.Warnings) != 0 {
		t.Fatalf("unexpected warnings %v", src.Warnings)
	}
	if src.Rows[1]["Unnamed"] != "note" {
		t.Fatalf("unnamed column lost its values: %+v", src.Rows[1])
	}
}

func TestParseEmptyHeaderFails(t *testing.T) {
	for _, data := range [][]byte{[]byte(""), []byte(" , , \nA001,12B,3\n")} {
		_, err := NewLoader(nil).Parse(data)
		if !errors.Is(err, faults.ErrMalformedTable) {
			t.Fatalf("expected malformed table fault, got %v", err)
		}
	}
}

func TestLocatePrefersSameStem(t *testing.T) {
	dir := t.TempDir()
	image := filepath.Join(dir, "A001_C001.jpg")
	other := filepath.Join(dir, "aaa_metadata.csv")
	sameStem := filepath.Join(dir, "A001_C001.csv")
	for _, p := range []string{other, sameStem} {
		if err := os.WriteFile(p, []byte("Name\nA001_C001\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	found, ok := Locate(image)
	if !ok || found != sameStem {
		t.Fatalf("Locate = %q, %v; want same-stem table", found, ok)
	}

	if err := os.Remove(sameStem); err != nil {
		t.Fatal(err)
	}
	found, ok = Locate(image)
	if !ok || found != other {
		t.Fatalf("Locate = %q, %v; want first table in directory", found, ok)
	}
}

func TestHeaderFold(t *testing.T) {
	src := &Source{Headers: []string{"Clip Name", "Scene"}}
	if got, ok := src.HeaderFold("clip name"); !ok || got != "Clip Name" {
		t.Fatalf("HeaderFold = %q, %v", got, ok)
	}
	if _, ok := src.HeaderFold("Take"); ok {
		t.Fatal("expected miss for absent header")
	}
}
