package infrastructure

import (
	"bytes"
	"testing"

	"adintel/internal/domain"

	"github.com/xuri/excelize/v2"
)

func sampleMatrix() domain.Matrix {
	return domain.Matrix{
		HeaderRows: 1,
		Rows: [][]any{
			{"Market", "cost", "CTR"},
			{"UK", 20.0, 0.015},
			{"US, North", 30.5, ""},
			{"总计", 50.5, 0.02},
		},
	}
}

func TestCSVExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSVExporter{}).Export(&buf, sampleMatrix()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	want := "Market,cost,CTR\nUK,20,0.015\n\"US, North\",30.5,\n总计,50.5,0.02\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestXLSXExporter(t *testing.T) {
	var buf bytes.Buffer
	if err := (XLSXExporter{}).Export(&buf, sampleMatrix()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	cells := map[string]string{
		"A1": "Market",
		"B2": "20",
		"A3": "US, North",
		"C3": "",
		"A4": "总计",
		"B4": "50.5",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue(pivotSheet, cell)
		if err != nil {
			t.Fatalf("GetCellValue %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("%s = %q, want %q", cell, got, want)
		}
	}
}

func TestExporterFor(t *testing.T) {
	for _, format := range []string{"csv", "xlsx"} {
		e, err := ExporterFor(format)
		if err != nil || e.Extension() != format {
			t.Errorf("ExporterFor(%q) = %v, %v", format, e, err)
		}
	}
	if _, err := ExporterFor("pdf"); err == nil {
		t.Error("pdf should be unsupported")
	}
}
