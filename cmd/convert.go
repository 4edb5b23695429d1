package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/engine"

	"go.uber.org/zap"
)

var convertTo string

var convertCmd = &cobra.Command{
	Use:   "convert [file|-]",
	Short: "Re-emit a JSON/JSONL file in another output format",
	Long: `Read a JSON or JSONL file and write every row in the target format.
This is "SELECT *" with a different encoder, so the data is schema
checked on the way through.

Examples:
  quarry convert data.json --to jsonl
  quarry convert data.jsonl --to table
  cat data.json | quarry convert --to jsonl --pretty`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertTo, "to", "", "Target format (jsonl or table)")
	convertCmd.MarkFlagRequired("to")
}

func runConvert(cmd *cobra.Command, args []string) error {
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

	catalog := database.NewCatalog()
	if err := catalog.Register(defaultTableName, tbl); err != nil {
		return err
	}

	exec := engine.NewExecutor(catalog, zap.NewNop())
	exec.Fallback = defaultTableName
	exec.Format = convertTo
	exec.Pretty = prettyFlag

	return exec.Run(cmd.Context(), "SELECT *", os.Stdout)
}
