package tabular

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	book := excelize.NewFile()
	defer book.Close()
	sheet := book.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "metadata.xlsx")
	if err := book.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Name", "Scene", "Take"},
		{"A001_C001", "12B", "3"},
		{"A001_C002", "12B", ""},
	})

	src, err := NewLoader(nil).Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if src.Encoding != EncodingUTF8 {
		t.Fatalf("xlsx encoding = %q", src.Encoding)
	}
	if len(src.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(src.Rows))
	}
	if src.Rows[0]["Scene"] != "12B" {
		t.Fatalf("unexpected row: %+v", src.Rows[0])
	}
	// Trailing empty cell must survive as an empty string, not a dropped row.
	if got, ok := src.Rows[1]["Take"]; !ok || got != "" {
		t.Fatalf("short row not padded: %+v", src.Rows[1])
	}
}
