package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"adintel/internal/domain"
	"adintel/internal/engine"
	"adintel/internal/formula"
	"adintel/internal/infrastructure"
	"adintel/internal/usecase"
	"adintel/pkg/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	version = "1.0.0"
	rootCmd = &cobra.Command{
		Use:   "adpivot",
		Short: "Offline pivot and data-quality reports over ad performance exports",
		Long: `adpivot runs the adintel report engine against a local rows file.

Rows are a JSON array of objects, either spreadsheet-style rows keyed by
column header or ads API rows (--source api). Mappings, dimensions and
formulas come from the same YAML file the server loads via REPORT_CONFIG_PATH.

Examples:
  adpivot pivot --rows rows.json --config report.yaml
  adpivot pivot --rows rows.json --spec pivot.yaml --format xlsx --output report.xlsx
  adpivot quality --rows rows.json --config report.yaml
  adpivot automap --rows rows.json
  adpivot validate "spend / results" --config report.yaml`,
		Version:      version,
		SilenceUsage: true,
	}

	pivotCmd = &cobra.Command{
		Use:   "pivot",
		Short: "Build a pivot table",
		Long:  "Normalize the rows, apply scopes and filters, and render the pivot with subtotals",
		RunE:  pivotCmdHandler,
	}

	qualityCmd = &cobra.Command{
		Use:   "quality",
		Short: "Audit dimension coverage",
		Long:  "Report how many applicable records resolve each custom dimension",
		RunE:  qualityCmdHandler,
	}

	automapCmd = &cobra.Command{
		Use:   "automap",
		Short: "Guess column mappings from headers",
		Long:  "Match spreadsheet headers to the metric and dimension columns of every platform mapping",
		RunE:  automapCmdHandler,
	}

	validateCmd = &cobra.Command{
		Use:   "validate <formula>",
		Short: "Validate a formula",
		Long:  "Parse a formula and check that every variable is a known metric key",
		Args:  cobra.ExactArgs(1),
		RunE:  validateCmdHandler,
	}
)

func init() {
	rootCmd.PersistentFlags().String("config", "", "report config YAML (mappings, dimensions, formulas, pivot)")

	for _, cmd := range []*cobra.Command{pivotCmd, qualityCmd} {
		cmd.Flags().String("rows", "", "JSON rows file (required)")
		cmd.Flags().String("source", "sheet", "rows format: sheet or api")
		cmd.MarkFlagRequired("rows")
	}

	pivotCmd.Flags().String("spec", "", "pivot spec YAML; overrides the pivot section of --config")
	pivotCmd.Flags().String("format", "table", "output format: table, csv, xlsx or json")
	pivotCmd.Flags().String("output", "", "output file (default stdout)")
	pivotCmd.Flags().Bool("raw", false, "write plain numbers instead of unit-formatted values")

	automapCmd.Flags().String("rows", "", "JSON rows file to take headers from")
	automapCmd.Flags().StringSlice("headers", nil, "comma separated headers")

	rootCmd.AddCommand(pivotCmd, qualityCmd, automapCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadDefaults(cmd *cobra.Command) (usecase.Defaults, error) {
	path, _ := cmd.Flags().GetString("config")
	rd, err := config.LoadReportDefaults(path)
	if err != nil {
		return usecase.Defaults{}, err
	}
	d, issues := usecase.BuildDefaults(rd)
	for _, issue := range issues {
		fmt.Fprintf(os.Stderr, "warning: %s\n", issue)
	}
	return d, nil
}

func loadRows(cmd *cobra.Command) ([]domain.RawRow, error) {
	path, _ := cmd.Flags().GetString("rows")
	source, _ := cmd.Flags().GetString("source")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	switch source {
	case "api":
		var apiRows []domain.APIAdRow
		if err := json.Unmarshal(data, &apiRows); err != nil {
			return nil, fmt.Errorf("failed to parse api rows: %w", err)
		}
		return engine.TransformAPIRows(apiRows), nil
	case "sheet", "":
		var rows []domain.RawRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse rows: %w", err)
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unknown rows source %q", source)
}

func loadSpec(cmd *cobra.Command, fallback domain.PivotSpec) (domain.PivotSpec, error) {
	spec := fallback
	if path, _ := cmd.Flags().GetString("spec"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return spec, fmt.Errorf("failed to read spec: %w", err)
		}
		spec = domain.PivotSpec{}
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return spec, fmt.Errorf("failed to parse spec: %w", err)
		}
	}
	if spec.Scopes == nil {
		spec.Scopes = domain.AllScopes()
	}
	if spec.Display.TotalAxis == "" {
		spec.Display.TotalAxis = domain.TotalAxisRow
	}
	return spec, nil
}

func pivotCmdHandler(cmd *cobra.Command, args []string) error {
	d, err := loadDefaults(cmd)
	if err != nil {
		return err
	}
	rows, err := loadRows(cmd)
	if err != nil {
		return err
	}
	spec, err := loadSpec(cmd, d.Pivot)
	if err != nil {
		return err
	}

	result := engine.Recompute(rows, d.Session, spec)

	format, _ := cmd.Flags().GetString("format")
	raw, _ := cmd.Flags().GetBool("raw")
	output, _ := cmd.Flags().GetString("output")

	w := cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "table":
		if result.IsEmpty() {
			fmt.Fprintln(w, "no rows")
			return nil
		}
		return writeTable(w, engine.Flatten(result, engine.FlattenOptions{Formatted: !raw}))
	}

	exp, err := infrastructure.ExporterFor(format)
	if err != nil {
		return err
	}
	return exp.Export(w, engine.Flatten(result, engine.FlattenOptions{Formatted: !raw}))
}

func writeTable(w io.Writer, m domain.Matrix) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, row := range m.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = tableCell(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
		if i == m.HeaderRows-1 {
			sep := make([]string, len(row))
			for j, c := range cells {
				sep[j] = strings.Repeat("-", max(len([]rune(c)), 3))
			}
			fmt.Fprintln(tw, strings.Join(sep, "\t"))
		}
	}
	return tw.Flush()
}

func tableCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return engine.FormatValue(t, domain.UnitNone)
	}
	return fmt.Sprint(v)
}

func qualityCmdHandler(cmd *cobra.Command, args []string) error {
	d, err := loadDefaults(cmd)
	if err != nil {
		return err
	}
	rows, err := loadRows(cmd)
	if err != nil {
		return err
	}

	processed := engine.Process(rows, d.Session)
	report := engine.AuditQuality(processed.Records, d.Session.Dimensions)

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tSOURCE\tMATCHED\tTOTAL\tRATE")
	for _, q := range report.Dimensions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f%%\n", q.Label, q.Source, q.Matched, q.Total, q.MatchRate*100)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nrecords: %d, clean: %d, with missing dimensions: %d (%.1f%%)\n",
		report.Overall.Records, report.Overall.CleanRecords, report.Overall.RecordsWithMiss, report.Overall.MissRate*100)
	return nil
}

func automapCmdHandler(cmd *cobra.Command, args []string) error {
	headers, _ := cmd.Flags().GetStringSlice("headers")
	if path, _ := cmd.Flags().GetString("rows"); path != "" {
		rows, err := loadRows(cmd)
		if err != nil {
			return err
		}
		seen := make(map[string]bool)
		var found []string
		for _, row := range rows {
			for k := range row {
				if !seen[k] {
					seen[k] = true
					found = append(found, k)
				}
			}
		}
		sort.Strings(found)
		headers = append(headers, found...)
	}
	if len(headers) == 0 {
		return fmt.Errorf("no headers: pass --headers or --rows")
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(engine.AutoMap(headers))
}

func validateCmdHandler(cmd *cobra.Command, args []string) error {
	d, err := loadDefaults(cmd)
	if err != nil {
		return err
	}

	known := engine.SelectableValueKeys(engine.BaseKeys(d.Session), d.Session.Formulas)
	if err := formula.Validate(args[0], known); err != nil {
		return err
	}
	expr, _ := formula.Compile(args[0])
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\nvariables: %s\n", expr, strings.Join(expr.Variables(), ", "))
	return nil
}
