package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"adintel/internal/domain"
	"adintel/internal/engine"
)

const rowsJSON = `[
  {"__platform": "facebook", "Campaign Name": "US_x", "Ad Set Name": "s", "Ad Name": "a", "Day": "2024-01-01", "Amount spent (USD)": "$1,200.50"},
  {"__platform": "facebook", "Campaign Name": "UK_x", "Ad Set Name": "s", "Ad Name": "a", "Day": "2024-01-01", "Amount spent (USD)": 99.5}
]`

const specYAML = `rowDims: [Campaign]
valueKeys: [cost]
display:
  showGrandTotal: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSpecNormalizes(t *testing.T) {
	path := writeFile(t, "pivot.yaml", specYAML)
	if err := pivotCmd.Flags().Set("spec", path); err != nil {
		t.Fatal(err)
	}
	defer pivotCmd.Flags().Set("spec", "")

	spec, err := loadSpec(pivotCmd, engine.DefaultPivotSpec())
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.RowDims) != 1 || spec.RowDims[0] != "Campaign" {
		t.Errorf("row dims = %v", spec.RowDims)
	}
	if len(spec.Scopes) != len(domain.AllScopes()) {
		t.Errorf("scopes = %v, want all", spec.Scopes)
	}
	if spec.Display.TotalAxis != domain.TotalAxisRow {
		t.Errorf("total axis = %q", spec.Display.TotalAxis)
	}
	if spec.Display.ShowSubtotal {
		t.Error("spec file should replace the defaults, not merge into them")
	}
}

func TestWriteTable(t *testing.T) {
	m := domain.Matrix{
		HeaderRows: 1,
		Rows: [][]any{
			{"Campaign", "cost"},
			{"US_x", "1,200.50"},
			{"UK_x", 99.5},
		},
	}

	var buf bytes.Buffer
	if err := writeTable(&buf, m); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[1], "--------") {
		t.Errorf("separator = %q", lines[1])
	}
	if !strings.Contains(lines[3], "99.50") {
		t.Errorf("numeric cell = %q", lines[3])
	}
}

func TestPivotCommandCSV(t *testing.T) {
	rows := writeFile(t, "rows.json", rowsJSON)
	spec := writeFile(t, "pivot.yaml", specYAML)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"pivot", "--rows", rows, "--spec", spec, "--format", "csv"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}

	got := out.String()
	for _, want := range []string{`US_x,"1,200.50"`, "UK_x,99.50", engine.GrandTotalLabel + `,"1,300.00"`} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestAutomapRequiresHeaders(t *testing.T) {
	if err := automapCmdHandler(automapCmd, nil); err == nil {
		t.Fatal("expected error without headers")
	}
}
