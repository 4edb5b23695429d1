package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/engine"
	"github.com/quarrydb/quarry/pkg/plan"
)

var statsCmd = &cobra.Command{
	Use:   "stats [file|-]",
	Short: "Show schema and column statistics for a JSON/JSONL file",
	Long: `Scan a JSON or JSONL file once and report its schema, row count, and
per-column statistics: min/max for INT and STRING columns, true/false
counts for BOOLEAN columns.

Examples:
  quarry stats data.json
  quarry stats data.jsonl
  cat data.json | quarry stats`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	file := "-"
	if len(args) > 0 {
		file = args[0]
	}

	path, tmp, err := materialize(file)
	if err != nil {
		return err
	}
	if tmp != "" {
		defer os.Remove(tmp)
	}

	schema, err := parseSchemaFlag(schemaFlag)
	if err != nil {
		return err
	}
	tbl, err := database.NewJSONLTable(path, schema)
	if err != nil {
		return err
	}

	stats, err := engine.Collect(cmd.Context(), plan.NewScan(defaultTableName, tbl))
	if err != nil {
		return err
	}

	if file == "-" {
		fmt.Println("File: <stdin>")
	} else {
		fmt.Printf("File: %s\n", file)
	}
	fmt.Printf("Schema: %s\n", tbl.Schema())
	fmt.Printf("Total rows: %d\n", stats.Rows)

	fmt.Println("\nColumns:")
	for _, col := range stats.Columns {
		fmt.Printf("  %s:\n", col.Column)
		switch {
		case stats.Rows == 0:
			fmt.Println("    no rows")
		case col.Min != nil:
			fmt.Printf("    min=%s max=%s\n", col.Min, col.Max)
		default:
			fmt.Printf("    true=%d false=%d\n", col.TrueCount, stats.Rows-col.TrueCount)
		}
	}

	return nil
}
