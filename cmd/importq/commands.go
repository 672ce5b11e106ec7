package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leengari/importq/internal/assistant"
	"github.com/leengari/importq/internal/network"
	"github.com/leengari/importq/internal/repl"
)

func newImportCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "import <table> <file|->",
		Short: "Import delimited text or INSERT statements as a new table",
		Long: `Import reads a file (or stdin for "-") and stores it as a new table.
Without --format, files ending in .sql are read as INSERT statements and
everything else as comma-delimited text with a header line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			line, err := a.importFile(cmd.Context(), cmd.InOrStdin(), args[0], args[1], format)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "delimited-text (csv) or insert-statements (sql)")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		withInsights bool
		output       string
	)

	cmd := &cobra.Command{
		Use:     "query <sql>",
		Short:   "Run a SELECT against your tables",
		Example: `  importq --store json query "SELECT name, year FROM movies WHERE year = 2010"`,
		Args:    cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkOutput(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.engine.RunQuery(cmd.Context(), a.flags.owner, args[0], withInsights)
			if err != nil {
				return err
			}
			return writeQueryResult(cmd.OutOrStdout(), output, res)
		},
	}
	cmd.Flags().BoolVar(&withInsights, "insights", false, "append a generated summary of the result")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func newTablesCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List your tables",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkOutput(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.engine.ListTables(cmd.Context(), a.flags.owner)
			if err != nil {
				return err
			}
			return writeTables(cmd.OutOrStdout(), output, tables)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <table>",
		Short: "Delete a table and its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.DropTable(cmd.Context(), a.flags.owner, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dropped %s\n", args[0])
			return nil
		},
	}
}

func newShellCmd(a *app) *cobra.Command {
	var imports []string

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive query shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.preload(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), imports); err != nil {
				return err
			}
			return repl.Start(cmd.Context(), a.engine, a.flags.owner, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringArrayVar(&imports, "import", nil, "import table=path before starting (repeatable)")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	var (
		mode   string
		runSQL bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "ask <request>",
		Short: "Ask the SQL assistant about your tables",
		Long: `Ask sends a request and the schema of your tables to the configured
model. In generate mode the answer is a query, which --run evaluates.
The assistant uses the [insights] model and API key.`,
		Example: `  importq --store json ask --run "titles of movies from 2010"
  importq ask --mode explain "SELECT * FROM movies ORDER BY year DESC"`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return checkOutput(output)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := assistant.ParseMode(mode)
			if err != nil {
				return err
			}
			res, err := a.engine.Assist(cmd.Context(), a.flags.owner, m, args[0], runSQL)
			if err != nil {
				return err
			}
			return writeAssist(cmd.OutOrStdout(), output, res)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", string(assistant.ModeGenerate), "chat, generate, explain or optimize")
	cmd.Flags().BoolVar(&runSQL, "run", false, "run the generated query")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		imports []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			if err := a.preload(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), imports); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := network.NewServer(a.engine, a.metrics.Registry, a.logger)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Serve(gctx, addr)
			})
			g.Go(func() error {
				<-gctx.Done()
				a.logger.Info("shutting down", slog.Any("reason", context.Cause(gctx)))
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	cmd.Flags().StringArrayVar(&imports, "import", nil, "import table=path before serving (repeatable)")
	return cmd
}
