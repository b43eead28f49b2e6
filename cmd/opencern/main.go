// Command opencern converts collider ROOT datasets into compact JSON event
// documents and serves processed documents over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/CeoatNorthstar/openCern/internal/config"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// cli holds state shared by every sub-command.
type cli struct {
	cfg      *config.Config
	verbose  int
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "opencern",
		Short: "Convert collision datasets to JSON event documents",
		Long: `opencern reads CMS NanoAOD, ATLAS open-data and ALICE ESD ROOT files,
keeps the highest-HT events that pass the experiment's selection cuts and
writes one compact JSON document per input.

Configuration is read from defaults, then the YAML file named by
OPENCERN_CONFIG, then OPENCERN_* environment variables. Flags win.

Examples:
  opencern process data/*.root            # convert every file, auto-detect layout
  opencern process -e atlas -m 1000 a.root
  opencern serve ~/opencern-datasets/processed/a.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().CountVarP(&c.verbose, "verbose", "v", "Enable debug logging")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(newProcessCmd(c), newServeCmd(c))
	return root
}

// setup loads configuration and initializes the global logger on stderr.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	c.cfg = cfg

	if err := logger.Init(
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithJSON(strings.EqualFold(cfg.LogFormat, "json")),
	); err != nil {
		return err
	}

	level := cfg.LogLevel
	if c.logLevel != "" {
		level = c.logLevel
	}
	if c.verbose > 0 {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log level; falling back to info",
			logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}
