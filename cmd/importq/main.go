package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const defaultOwner = "local"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// run executes one command line. The app is torn down even when the command
// fails, which PersistentPostRun alone would not do.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return runApp(ctx, &app{}, args, stdin, stdout, stderr)
}

func runApp(ctx context.Context, a *app, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	defer a.teardown()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "importq",
		Short: "Import pasted tabular text and query it with SQL",
		Long: `importq turns pasted delimited text or INSERT statements into tables
owned by a single user, and answers simple SELECT queries over them.

Tables live in the configured store. With the default in-memory store they
last only as long as the process, so use "shell" or "serve" with --import,
or pick --store json or --store sqlite to keep them between runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "path to a TOML config file")
	pf.StringVar(&a.flags.storeKind, "store", "", "table store: memory, json or sqlite")
	pf.StringVar(&a.flags.storePath, "store-path", "", "directory (json) or database file (sqlite) of the store")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.flags.owner, "owner", defaultOwner, "owner whose tables are imported and queried")

	root.AddCommand(
		newImportCmd(a),
		newQueryCmd(a),
		newTablesCmd(a),
		newDropCmd(a),
		newShellCmd(a),
		newServeCmd(a),
		newAskCmd(a),
	)
	return root
}
