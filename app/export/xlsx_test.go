package export

import (
	"path/filepath"
	"testing"

	"jsonlview/app/interfaces"

	"github.com/ohler55/ojg/oj"
	"github.com/xuri/excelize/v2"
)

func exportRow(t *testing.T, index int, s string) *interfaces.Row {
	t.Helper()
	v, err := oj.ParseString(s)
	if err != nil {
		t.Fatalf("bad test JSON %q: %v", s, err)
	}
	return &interfaces.Row{Index: index, Value: v}
}

func TestWriteXLSX(t *testing.T) {
	columns := []interfaces.Column{
		{Path: "name", Name: "name", Visible: true},
		{Path: "meta.level", Name: "meta.level", Visible: true},
		{Path: "hidden", Name: "hidden", Visible: false},
	}
	rows := []*interfaces.Row{
		exportRow(t, 0, `{"name": "amy", "meta": {"level": 3}, "hidden": "x"}`),
		exportRow(t, 1, `{"name": "bob"}`),
	}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteXLSX(path, columns, rows); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("workbook did not reopen: %v", err)
	}
	defer f.Close()

	sheetRows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(sheetRows) != 3 {
		t.Fatalf("got %d sheet rows, want header + 2", len(sheetRows))
	}
	if sheetRows[0][0] != "name" || sheetRows[0][1] != "meta.level" {
		t.Errorf("header = %v", sheetRows[0])
	}
	if len(sheetRows[0]) != 2 {
		t.Errorf("hidden column exported: header %v", sheetRows[0])
	}
	if sheetRows[1][0] != "amy" || sheetRows[1][1] != "3" {
		t.Errorf("first data row = %v", sheetRows[1])
	}
	if sheetRows[2][0] != "bob" {
		t.Errorf("second data row = %v", sheetRows[2])
	}
}

func TestWriteXLSXContainerCells(t *testing.T) {
	columns := []interfaces.Column{{Path: "tags", Name: "tags", Visible: true}}
	rows := []*interfaces.Row{exportRow(t, 0, `{"tags": ["a", "b"]}`)}

	path := filepath.Join(t.TempDir(), "out.xlsx")
	if err := WriteXLSX(path, columns, rows); err != nil {
		t.Fatalf("WriteXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := f.GetCellValue(sheetName, "A2")
	if err != nil {
		t.Fatal(err)
	}
	if got != `["a","b"]` {
		t.Errorf("container cell = %q, want JSON form", got)
	}
}

func TestWriteXLSXNoVisibleColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	err := WriteXLSX(path, []interfaces.Column{{Path: "x", Visible: false}}, nil)
	if err == nil {
		t.Error("expected error with no visible columns")
	}
}
