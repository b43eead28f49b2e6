package main

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"github.com/CeoatNorthstar/openCern/internal/adapters/http/api"
	"github.com/CeoatNorthstar/openCern/internal/adapters/http/swagger"
	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// errNoDocument is returned when serve has nothing to load.
var errNoDocument = errors.New("no processed document found")

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [document.json]",
		Short: "Serve a processed document over HTTP and websocket",
		Long: `Load one processed JSON document and serve it:

  GET /healthz        Prometheus metrics
  GET /metadata       run metadata
  GET /events         paged events (offset, limit)
  GET /stream         websocket replay, one event per message
  GET /openapi.yaml   API description

Without an argument the first *.json file in the output directory is served.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd, args)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (default from config)")
	cmd.Flags().Int("interval", 0, "Milliseconds between streamed events (default from config)")
	cmd.Flags().StringP("output-dir", "o", "", "Directory searched when no document is given")
	return cmd
}

func (c *cli) applyServeFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("addr") {
		c.cfg.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("interval") {
		c.cfg.StreamIntervalMS, _ = flags.GetInt("interval")
	}
	if flags.Changed("output-dir") {
		c.cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	return c.cfg.Validate()
}

func (c *cli) serve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := c.applyServeFlags(cmd); err != nil {
		return err
	}

	path, err := documentPath(c.cfg.OutputDir, args)
	if err != nil {
		return err
	}
	doc, err := output.ReadFile(path)
	if err != nil {
		return err
	}

	log := logger.Named("serve")
	log.Info(ctx, "document loaded",
		logger.String("path", path),
		logger.String("experiment", doc.Metadata.Experiment),
		logger.Int("events", len(doc.Events)),
	)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(doc,
		api.WithInterval(time.Duration(c.cfg.StreamIntervalMS)*time.Millisecond),
		api.WithLogger(logger.Named("api")),
	).Register(ctx, mux)

	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", c.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrapf(err, "listen on %s", c.cfg.Addr)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return errors.Wrap(err, "shutdown")
	}
	log.Info(ctx, "server stopped")
	return nil
}

// documentPath returns the explicit argument or the first JSON document in dir.
func documentPath(dir string, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return "", errors.Wrapf(err, "search %s", dir)
	}
	if len(matches) == 0 {
		return "", errors.WithHint(errors.Wrapf(errNoDocument, "in %s", dir), "run opencern process first or pass a document path")
	}
	return matches[0], nil
}
