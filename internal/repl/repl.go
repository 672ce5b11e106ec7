// Package repl is an interactive query shell for one owner.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/leengari/importq/internal/assistant"
	"github.com/leengari/importq/internal/domain/data"
	"github.com/leengari/importq/internal/domain/schema"
	"github.com/leengari/importq/internal/engine"
)

// Start reads one query per line from in until EOF, "exit" or "\q".
// Query errors are printed and do not end the session.
func Start(ctx context.Context, eng *engine.Engine, owner string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintf(out, "importq shell for owner %q\n", owner)
	fmt.Fprintln(out, "Type '\\dt' to list tables, '\\d <table>' to describe one, '\\ask <request>' to have a query written, 'exit' or '\\q' to quit.")

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}

		if line == "exit" || line == "\\q" {
			return nil
		}

		if line == "\\dt" {
			tables, err := eng.ListTables(ctx, owner)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			PrintTables(out, tables)
			continue
		}

		if strings.HasPrefix(line, "\\ask ") {
			request := strings.TrimSpace(strings.TrimPrefix(line, "\\ask "))
			res, err := eng.Assist(ctx, owner, assistant.ModeGenerate, request, true)
			if err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
				continue
			}
			PrintAssist(out, res)
			continue
		}

		if strings.HasPrefix(line, "\\d ") {
			describe(ctx, eng, owner, strings.TrimSpace(strings.TrimPrefix(line, "\\d ")), out)
			continue
		}

		res, err := eng.RunQuery(ctx, owner, line, false)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		PrintResult(out, res)
	}
}

func describe(ctx context.Context, eng *engine.Engine, owner, name string, out io.Writer) {
	tables, err := eng.ListTables(ctx, owner)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}
	for _, t := range tables {
		if t.Name == name {
			PrintColumns(out, t)
			return
		}
	}
	fmt.Fprintf(out, "Error: table %q not found\n", name)
}

// PrintResult renders query rows as an aligned table
func PrintResult(w io.Writer, res *engine.QueryResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	// Header
	fmt.Fprintln(tw, strings.Join(res.Columns, "\t"))

	// Separator
	seps := make([]string, len(res.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(seps, "\t"))

	// Rows
	for _, row := range res.Rows {
		fmt.Fprintln(tw, strings.Join(cells(row, res.Columns), "\t"))
	}
	tw.Flush()

	noun := "rows"
	if res.RowCount == 1 {
		noun = "row"
	}
	fmt.Fprintf(w, "(%s %s", humanize.Comma(int64(res.RowCount)), noun)
	if res.Truncated {
		fmt.Fprint(w, ", truncated")
	}
	fmt.Fprintln(w, ")")
	if res.Insights != "" {
		fmt.Fprintf(w, "\n%s\n", res.Insights)
	}
}

func cells(row data.Row, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		v := row.Get(col)
		if v == nil {
			out[i] = "NULL"
			continue
		}
		out[i] = data.FormatValue(v)
	}
	return out
}

// PrintAssist renders an assistant answer. A generated query is shown with
// its result or the reason it failed.
func PrintAssist(w io.Writer, res *engine.AssistResult) {
	if res.SQL == "" {
		fmt.Fprintln(w, res.Response)
		return
	}
	fmt.Fprintln(w, res.SQL)
	switch {
	case res.RunErr != nil:
		fmt.Fprintf(w, "Error: %v\n", res.RunErr)
	case res.Result != nil:
		fmt.Fprintln(w)
		PrintResult(w, res.Result)
	}
}

// PrintTables renders table metadata, one table per line
func PrintTables(w io.Writer, tables []*schema.TableMeta) {
	if len(tables) == 0 {
		fmt.Fprintln(w, "No tables.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "name\trows\tcolumns\tcreated")
	fmt.Fprintln(tw, "---\t---\t---\t---")
	for _, t := range tables {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			t.Name,
			humanize.Comma(t.RowCount),
			len(t.Columns),
			humanize.Time(t.CreatedAt),
		)
	}
	tw.Flush()
}

// PrintColumns renders the declared columns of one table
func PrintColumns(w io.Writer, t *schema.TableMeta) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "column\ttype\tinferred")
	fmt.Fprintln(tw, "---\t---\t---")
	for _, c := range t.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Type, c.InferredType)
	}
	tw.Flush()
}
