package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonwraymond/promptdiscovery/catalog"
	"github.com/jonwraymond/promptdiscovery/config"
	"github.com/jonwraymond/promptdiscovery/history"
)

var errNoCorpus = errors.New("no corpus configured (use --corpus or set PROMPTDISCOVERY_CORPUS)")

// app holds the state shared by every subcommand.
type app struct {
	// Global flags
	configPath string
	corpusPath string
	verbose    bool
	jsonOut    bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "promptdiscovery",
		Short: "Search and recommend prompts from a prompt catalog",
		Long: `promptdiscovery ranks prompts with BM25 over title, description, tags and
content, and recommends prompts from related content and user history.

The catalog is read from a JSONL export. Run "serve" to expose it over REST
and MCP, or "mcp" to speak MCP over stdio.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&a.corpusPath, "corpus", "", "Path to the JSONL prompt corpus (overrides config)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print results as JSON")

	root.AddCommand(
		a.serveCmd(),
		a.mcpCmd(),
		a.searchCmd(),
		a.relatedCmd(),
		a.recommendCmd(),
		a.signalCmd(),
		a.importCmd(),
		a.exportCmd(),
	)
	return root
}

func (a *app) init(*cobra.Command, []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.corpusPath != "" {
		cfg.Corpus.Path = a.corpusPath
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// openCatalog builds a catalog from config and loads the corpus. The
// returned close function releases the history store, which is only opened
// when withHistory is set.
func (a *app) openCatalog(reg prometheus.Registerer, withHistory bool) (*catalog.Catalog, func() error, error) {
	if a.cfg.Corpus.Path == "" {
		return nil, nil, errNoCorpus
	}

	var store history.Store
	if withHistory {
		var err error
		store, err = a.cfg.OpenHistory()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open history: %w", err)
		}
	}
	closeStore := func() error {
		if store == nil {
			return nil
		}
		return store.Close()
	}

	opts := a.cfg.CatalogOptions()
	opts.History = store
	opts.Logger = a.logger
	if reg != nil {
		opts.Metrics = catalog.NewMetrics(reg)
	}

	c, err := catalog.New(opts)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	if err := c.LoadFile(a.cfg.Corpus.Path); err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return c, closeStore, nil
}

func (a *app) printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
