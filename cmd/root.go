package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/engine"
	"github.com/quarrydb/quarry/pkg/sqlite"
	"github.com/quarrydb/quarry/pkg/value"
)

// defaultTableName is the catalog name of the positional input file and
// the fallback table for queries without a FROM clause.
const defaultTableName = "data"

var (
	tableFlags      []string
	dbPath          string
	schemaFlag      string
	formatFlag      string
	prettyFlag      bool
	verboseFlag     bool
	interactiveFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "quarry [file] [query]",
	Short: "Typed query engine for JSON, JSONL and SQLite tables",
	Long: `quarry runs SELECT queries over JSON/JSONL files and SQLite databases
with a small typed engine: every table has a schema and every query is
type-checked before a single row is read.

The positional file (or stdin) is registered as the table "data" and is
the default target for queries without a FROM clause. More tables come
from --table and --db. With no query, quarry starts a REPL.

Examples:
  quarry data.jsonl "SELECT name FROM data WHERE age >= 30"
  cat data.jsonl | quarry - "SELECT * WHERE active"
  quarry data.jsonl "EXPLAIN SELECT id WHERE active"
  quarry data.jsonl
  quarry --db app.db "SELECT id FROM users LIMIT 5"
  quarry --table logs=events.jsonl "SELECT * FROM logs WHERE level = 'error'"`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runRoot,
}

// Execute runs the CLI. Interrupts cancel the context, which stops a
// running query between row pulls.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringArrayVarP(&tableFlags, "table", "t", nil, "Register a table as name=path (repeatable, overrides an existing name)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Attach every table of a SQLite database")
	rootCmd.PersistentFlags().StringVar(&schemaFlag, "schema", "", "Schema for the input file as name:type,... (default: inferred)")
	rootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", engine.FormatJSONL, "Output format: jsonl or table")
	rootCmd.PersistentFlags().BoolVar(&prettyFlag, "pretty", false, "Pretty print JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose logging to stderr")
	rootCmd.PersistentFlags().BoolVarP(&interactiveFlag, "interactive", "i", false, "Interactive REPL mode")

	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(convertCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	stat, _ := os.Stdin.Stat()
	hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

	var file, queryText string
	switch len(args) {
	case 0:
		if dbPath == "" && len(tableFlags) == 0 {
			if !hasStdin {
				return cmd.Help()
			}
			file = "-"
		}
	case 1:
		if looksLikeQuery(args[0]) {
			queryText = args[0]
			if hasStdin && dbPath == "" && len(tableFlags) == 0 {
				file = "-"
			}
		} else {
			file = args[0]
		}
	case 2:
		file = args[0]
		queryText = args[1]
	}

	logger, err := buildLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	catalog, fallback, cleanup, err := buildCatalog(logger, file)
	if err != nil {
		return err
	}
	defer cleanup()

	exec := engine.NewExecutor(catalog, logger)
	exec.Fallback = fallback
	exec.Format = formatFlag
	exec.Pretty = prettyFlag

	if interactiveFlag || queryText == "" {
		return runREPL(exec, catalog)
	}
	return exec.Run(cmd.Context(), queryText, os.Stdout)
}

// looksLikeQuery reports whether an argument is a statement rather than
// a file path.
func looksLikeQuery(arg string) bool {
	upper := strings.ToUpper(strings.TrimSpace(arg))
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "EXPLAIN")
}

func buildLogger() (*zap.Logger, error) {
	if verboseFlag {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

// buildCatalog assembles the catalog from the positional file, --table
// specs and --db. It returns the fallback table name and a cleanup that
// releases everything acquired on the way.
func buildCatalog(logger *zap.Logger, file string) (*database.Catalog, string, func(), error) {
	catalog := database.NewCatalog()
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*database.Catalog, string, func(), error) {
		cleanup()
		return nil, "", nil, err
	}

	fallback := ""
	if file != "" {
		path, tmp, err := materialize(file)
		if err != nil {
			return fail(err)
		}
		if tmp != "" {
			cleanups = append(cleanups, func() { os.Remove(tmp) })
		}
		schema, err := parseSchemaFlag(schemaFlag)
		if err != nil {
			return fail(err)
		}
		tbl, err := database.NewJSONLTable(path, schema)
		if err != nil {
			return fail(err)
		}
		if err := catalog.Register(defaultTableName, tbl); err != nil {
			return fail(err)
		}
		fallback = defaultTableName
		logger.Debug("registered input table",
			zap.String("table", defaultTableName),
			zap.String("schema", tbl.Schema().String()))
	}

	for _, spec := range tableFlags {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || name == "" || path == "" {
			return fail(fmt.Errorf("invalid --table %q, want name=path", spec))
		}
		tbl, err := database.NewJSONLTable(path, nil)
		if err != nil {
			return fail(fmt.Errorf("table '%s': %w", name, err))
		}
		// An explicit spec wins over the positional default and over
		// earlier specs with the same name.
		if old := catalog.Replace(name, tbl); old != nil {
			logger.Debug("table overridden",
				zap.String("table", name),
				zap.Bool("same_schema", tbl.Schema().Equal(old.Schema())))
		}
		logger.Debug("registered table",
			zap.String("table", name),
			zap.String("path", path))
	}

	if dbPath != "" {
		db, err := sqlite.Open(dbPath)
		if err != nil {
			return fail(err)
		}
		cleanups = append(cleanups, func() { db.Close() })
		names, err := sqlite.Attach(db, catalog, logger)
		if err != nil {
			return fail(err)
		}
		logger.Debug("attached database",
			zap.String("path", dbPath),
			zap.Int("tables", len(names)))
	}

	return catalog, fallback, cleanup, nil
}

// materialize turns "-" (stdin) into a temporary file so the data can be
// scanned more than once. Regular paths and inline JSON pass through.
func materialize(file string) (path, tmpPath string, err error) {
	if file != "-" {
		return file, "", nil
	}
	tmp, err := os.CreateTemp("", "quarry-stdin-*.json")
	if err != nil {
		return "", "", fmt.Errorf("failed to buffer stdin: %w", err)
	}
	if _, err := io.Copy(tmp, os.Stdin); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("failed to buffer stdin: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", "", err
	}
	return tmp.Name(), tmp.Name(), nil
}

// parseSchemaFlag parses "name:type,name:type" into a schema; an empty
// flag means infer from the data.
func parseSchemaFlag(spec string) (*database.Schema, error) {
	if spec == "" {
		return nil, nil
	}
	var cols []database.Column
	for _, part := range strings.Split(spec, ",") {
		name, typeName, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --schema entry %q, want name:type", part)
		}
		t, err := value.ParseType(typeName)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols = append(cols, database.Column{Name: name, Type: t})
	}
	return database.NewSchema(cols...)
}
