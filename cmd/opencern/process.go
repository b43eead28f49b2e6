package main

import (
	"path/filepath"
	"strings"

	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
	service "github.com/CeoatNorthstar/openCern/internal/app"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/CeoatNorthstar/openCern/pkg/metrics"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

func newProcessCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <file.root|glob>...",
		Short: "Convert ROOT files into JSON event documents",
		Long: `Convert each input file, one at a time, into <output-dir>/<stem>.json.

Missing files are skipped with a warning. The command fails when any file
fails or when no file was converted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.process(cmd, args)
		},
	}

	cmd.Flags().StringP("experiment", "e", "auto", "Data layout: auto, cms, atlas or alice")
	cmd.Flags().IntP("max-events", "m", 5000, "Number of highest-HT events to keep per file")
	cmd.Flags().StringP("output-dir", "o", "", "Directory for processed documents")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics in textfile format after the run")
	return cmd
}

// applyProcessFlags overrides loaded configuration with explicitly set flags.
func (c *cli) applyProcessFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Changed("experiment") {
		c.cfg.Experiment, _ = flags.GetString("experiment")
	}
	if flags.Changed("max-events") {
		c.cfg.MaxEvents, _ = flags.GetInt("max-events")
	}
	if flags.Changed("output-dir") {
		c.cfg.OutputDir, _ = flags.GetString("output-dir")
	}
	if flags.Changed("metrics-file") {
		c.cfg.MetricsFile, _ = flags.GetString("metrics-file")
	}
	return c.cfg.Validate()
}

func (c *cli) process(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if err := c.applyProcessFlags(cmd); err != nil {
		return err
	}
	exp, err := c.cfg.ExperimentValue()
	if err != nil {
		return err
	}
	paths, err := expandInputs(args)
	if err != nil {
		return err
	}

	pipeline := service.New(
		service.WithMaxEvents(c.cfg.MaxEvents),
		service.WithExperiment(exp),
		service.WithProgressInterval(c.cfg.ProgressInterval),
	)
	batch := service.NewBatch(pipeline, output.NewFileSink(c.cfg.OutputDir))
	_, runErr := batch.Run(ctx, paths)

	if c.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(c.cfg.MetricsFile); err != nil {
			logger.Get().Error(ctx, "metrics export failed", logger.String("path", c.cfg.MetricsFile), logger.Error(err))
			if runErr == nil {
				runErr = err
			}
		}
	}
	return runErr
}

// expandInputs resolves glob patterns in order and drops duplicates.
// A pattern without matches is kept verbatim so the batch reports it missing.
func expandInputs(args []string) ([]string, error) {
	seen := make(map[string]bool, len(args))
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[") {
			add(arg)
			continue
		}
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "pattern %q", arg)
		}
		if len(matches) == 0 {
			add(arg)
			continue
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}
