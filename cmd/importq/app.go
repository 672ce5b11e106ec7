package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pingcap/errors"

	"github.com/leengari/importq/internal/config"
	"github.com/leengari/importq/internal/engine"
	"github.com/leengari/importq/internal/importer"
	"github.com/leengari/importq/internal/insights"
	"github.com/leengari/importq/internal/logging"
	"github.com/leengari/importq/internal/metrics"
	"github.com/leengari/importq/internal/store"
	"github.com/leengari/importq/internal/store/jsonfile"
	"github.com/leengari/importq/internal/store/sqlite"
)

type rootFlags struct {
	configPath string
	storeKind  string
	storePath  string
	logLevel   string
	owner      string
}

// app holds everything a command needs once flags and config are resolved
type app struct {
	flags rootFlags

	cfg      *config.Config
	logger   *slog.Logger
	closeLog func()
	store    store.Store
	metrics  *metrics.Metrics
	engine   *engine.Engine

	// generator overrides the configured model for the assistant
	generator insights.Generator
}

func (a *app) setup(ctx context.Context, logOut io.Writer) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, a.closeLog = logging.SetupLogger(logOut, cfg.LogLevel, cfg.SeqURL)
	slog.SetDefault(a.logger)

	a.store, err = openStore(ctx, cfg.Store, a.logger)
	if err != nil {
		return err
	}

	opts := engine.Options{
		MaxRows: cfg.Query.MaxRows,
		Logger:  a.logger,
	}
	if g := a.gemini(ctx); g != nil {
		opts.Summarizer = g
		opts.Generator = g
	}
	if a.generator != nil {
		opts.Generator = a.generator
	}

	a.metrics = metrics.New()
	a.engine = engine.New(a.store, opts)
	a.engine.AddObserver(engine.NewLoggingObserver(a.logger))
	a.engine.AddObserver(engine.NewMetricsObserver(a.metrics))

	a.logger.Debug("importq ready",
		slog.String("store", cfg.Store.Kind),
		slog.String("store_path", cfg.Store.Path),
		slog.String("owner", a.flags.owner),
	)
	return nil
}

// loadConfig reads the config file, if any, and lets flags override it
func (a *app) loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if a.flags.configPath != "" {
		var err error
		if cfg, err = config.Load(a.flags.configPath); err != nil {
			return nil, err
		}
	}

	if a.flags.storeKind != "" && a.flags.storeKind != cfg.Store.Kind {
		cfg.Store.Kind = a.flags.storeKind
		// the old default path belongs to the old kind
		cfg.Store.Path = ""
	}
	if a.flags.storePath != "" {
		cfg.Store.Path = a.flags.storePath
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	cfg.Adjust()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(a.flags.owner) == "" {
		return nil, errors.New("owner must not be empty")
	}
	return cfg, nil
}

// gemini returns nil when insights are disabled or cannot be set up. A
// missing key is not fatal: queries come back without insights and the
// assistant reports itself unavailable.
func (a *app) gemini(ctx context.Context) *insights.Gemini {
	ic := a.cfg.Insights
	if !ic.Enabled {
		return nil
	}
	key := ic.APIKey()
	if key == "" {
		a.logger.Warn("insights enabled but no API key set", slog.String("env", ic.APIKeyEnv))
		return nil
	}
	g, err := insights.NewGemini(ctx, key, ic.Model, ic.MaxSampleRows)
	if err != nil {
		a.logger.Warn("insights disabled", slog.Any("error", err))
		return nil
	}
	return g
}

func (a *app) teardown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Error("failed to close store", slog.Any("error", err))
		}
		a.store = nil
	}
	if a.closeLog != nil {
		a.closeLog()
		a.closeLog = nil
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.Store, error) {
	switch cfg.Kind {
	case config.StoreJSON:
		s, err := jsonfile.Open(cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreSQLite:
		s, err := sqlite.Open(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return store.NewMemory(), nil
	}
}

// readInput reads a whole file, or stdin for "-"
func readInput(stdin io.Reader, path string) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", errors.Annotatef(err, "read %s", path)
	}
	return string(raw), nil
}

// resolveFormat parses an explicit format or guesses one from the file name
func resolveFormat(format, path string) (importer.Format, error) {
	if format != "" {
		return importer.ParseFormat(format)
	}
	if strings.EqualFold(filepath.Ext(path), ".sql") {
		return importer.FormatInserts, nil
	}
	return importer.FormatDelimited, nil
}

// importFile imports one file into a new table and returns a one-line summary
func (a *app) importFile(ctx context.Context, stdin io.Reader, table, path, format string) (string, error) {
	f, err := resolveFormat(format, path)
	if err != nil {
		return "", err
	}
	raw, err := readInput(stdin, path)
	if err != nil {
		return "", err
	}

	res, err := a.engine.ImportTable(ctx, a.flags.owner, table, f, raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Imported %s rows into %s (%d columns, %s read)",
		humanize.Comma(int64(res.RowCount)), table, len(res.Columns), humanize.Bytes(uint64(len(raw)))), nil
}

// preload handles repeated --import name=path flags
func (a *app) preload(ctx context.Context, stdin io.Reader, out io.Writer, args []string) error {
	for _, arg := range args {
		name, path, ok := strings.Cut(arg, "=")
		if !ok || name == "" || path == "" {
			return errors.Errorf("bad --import value %q, want table=path", arg)
		}
		line, err := a.importFile(ctx, stdin, name, path, "")
		if err != nil {
			return errors.Annotatef(err, "import %s", path)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
