package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/chzyer/readline"

	"github.com/quarrydb/quarry/pkg/database"
	"github.com/quarrydb/quarry/pkg/engine"
)

// runREPL reads statements until exit/quit, ^D, or ^C on an empty line.
// Lines starting with a backslash are meta commands.
func runREPL(exec *engine.Executor, catalog *database.Catalog) error {
	fmt.Println("quarry interactive mode. Type 'exit' or 'quit' to leave, \\tables to list tables.")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "quarry> ",
		HistoryFile:     "", // in-memory history for this session
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, "exit") || strings.EqualFold(trimmed, "quit") {
			break
		}

		if strings.HasPrefix(trimmed, "\\") {
			if err := runMeta(catalog, trimmed); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			continue
		}

		// Each statement runs under its own interrupt context, so ^C
		// cancels the statement and the session keeps its prompt.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = exec.Run(ctx, trimmed, os.Stdout)
		stop()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(os.Stderr, "cancelled")
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
		}
	}

	return nil
}

func runMeta(catalog *database.Catalog, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "\\tables":
		names := catalog.Names()
		if len(names) == 0 {
			fmt.Println("no tables registered")
			return nil
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil

	case "\\schema":
		if len(fields) < 2 {
			return fmt.Errorf("usage: \\schema <table>")
		}
		tbl, err := catalog.Table(fields[1])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		for _, col := range tbl.Schema().Columns() {
			fmt.Fprintf(w, "%s\t%s\n", col.Name, col.Type)
		}
		return w.Flush()

	default:
		return fmt.Errorf("unknown command %q (try \\tables or \\schema <table>)", fields[0])
	}
}
