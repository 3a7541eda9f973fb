package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/promptdiscovery/api"
	"github.com/jonwraymond/promptdiscovery/catalog"
	"github.com/jonwraymond/promptdiscovery/mcpserver"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over REST, MCP (HTTP) and Prometheus metrics",
		Long: `Starts an HTTP server with:
  /api/...   REST search and recommendation endpoints
  /mcp       MCP JSON-RPC over HTTP POST
  /metrics   Prometheus metrics (unless disabled in config)
  /healthz   health check

Send SIGHUP to reload the corpus file; the index is rebuilt only when the
corpus changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cat, closeStore, err := a.openCatalog(reg, true)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	srv, err := mcpserver.New(cat, mcpserver.Config{
		ServerInfo: mcpserver.ServerInfo{Name: "promptdiscovery", Version: version},
		Logger:     a.logger.Named("mcp"),
	})
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/", api.New(cat, a.logger.Named("api")))
	mux.Handle("/mcp", mcpserver.HTTPHandler(srv))
	if a.cfg.Server.Metrics {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}

	httpSrv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", zap.String("addr", httpSrv.Addr), zap.Int("prompts", cat.Len()))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		a.reloadOnHangup(gctx, cat)
		return nil
	})

	return g.Wait()
}

// reloadOnHangup reloads the corpus file on every SIGHUP until ctx is done.
func (a *app) reloadOnHangup(ctx context.Context, cat *catalog.Catalog) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			before := cat.Version()
			if err := cat.LoadFile(a.cfg.Corpus.Path); err != nil {
				a.logger.Error("corpus reload failed", zap.String("path", a.cfg.Corpus.Path), zap.Error(err))
				continue
			}
			a.logger.Info("corpus reloaded",
				zap.Bool("changed", cat.Version() != before),
				zap.Int("prompts", cat.Len()),
			)
		}
	}
}

func (a *app) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, closeStore, err := a.openCatalog(nil, true)
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			srv, err := mcpserver.New(cat, mcpserver.Config{
				ServerInfo: mcpserver.ServerInfo{Name: "promptdiscovery", Version: version},
				Logger:     a.logger.Named("mcp"),
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return mcpserver.ServeStdio(ctx, srv, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
