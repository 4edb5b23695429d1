package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarrydb/quarry/pkg/database"
)

var checkCmd = &cobra.Command{
	Use:   "check [file|-]",
	Short: "Check that every record of a file matches a schema",
	Long: `Stream a JSON or JSONL file and check each record against a schema.
The schema comes from --schema, or is inferred from the first record.

Records that do not match are reported individually and the scan keeps
going; a JSON syntax error stops it. The exit status is non-zero when
any record fails.

Examples:
  quarry check data.jsonl
  quarry check --schema id:int,name:string data.json
  cat data.jsonl | quarry check`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
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
	if schema == nil {
		schema, err = database.InferSchema(path)
		if err != nil {
			return err
		}
	}

	reader, err := database.NewRecordReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	total, invalid := 0, 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Printf("❌ Check failed: %v\n", err)
			return err
		}

		total++
		if _, err := database.DecodeRow(record, schema); err != nil {
			invalid++
			if reader.IsLines() {
				fmt.Printf("  line %d: %v\n", reader.Line(), err)
			} else {
				fmt.Printf("  record %d: %v\n", total, err)
			}
		}
	}

	if invalid > 0 {
		fmt.Printf("❌ %d of %d record(s) do not match schema %s\n", invalid, total, schema)
		return fmt.Errorf("%d invalid record(s)", invalid)
	}
	fmt.Printf("✅ %d record(s) conform to schema %s\n", total, schema)
	return nil
}
