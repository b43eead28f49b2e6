package service

import (
	"context"
	"os"

	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/CeoatNorthstar/openCern/pkg/metrics"
	"github.com/cockroachdb/errors"
)

const bytesPerMB = 1024 * 1024

// Sink stores a finished result and reports where it went.
type Sink interface {
	Write(res *model.Result) (path string, size int64, err error)
}

// Status is the outcome of one batch input.
type Status struct {
	Path       string
	Experiment model.Experiment
	Scanned    int64
	Filtered   int
	Output     string
	Size       int64
	Skipped    bool
	Err        error
}

// OK reports whether the file was converted and written.
func (s Status) OK() bool { return !s.Skipped && s.Err == nil }

// Batch runs the pipeline over several files, one at a time.
type Batch struct {
	pipeline *Pipeline
	sink     Sink
	exists   func(path string) bool
	logger   logger.Logger
}

// BatchOption applies a configuration option to the Batch.
type BatchOption func(*Batch)

// WithBatchLogger sets a custom logger for the batch.
func WithBatchLogger(l logger.Logger) BatchOption {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithExists replaces the file existence check.
func WithExists(fn func(path string) bool) BatchOption {
	return func(b *Batch) {
		if fn != nil {
			b.exists = fn
		}
	}
}

// NewBatch creates a batch writing every result to sink.
func NewBatch(p *Pipeline, sink Sink, opts ...BatchOption) *Batch {
	b := &Batch{
		pipeline: p,
		sink:     sink,
		exists:   fileExists,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logger.Named("batch")
	}
	return b
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Run processes every path in order. Missing files are skipped with a
// warning. The error is non-nil when any file failed or none succeeded;
// the statuses are always complete.
func (b *Batch) Run(ctx context.Context, paths []string) ([]Status, error) {
	statuses := make([]Status, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			statuses = append(statuses, Status{Path: path, Err: err})
			continue
		}
		statuses = append(statuses, b.one(ctx, path))
	}

	ok, failed, skipped := 0, 0, 0
	for _, st := range statuses {
		switch {
		case st.Skipped:
			skipped++
		case st.Err != nil:
			failed++
		default:
			ok++
		}
	}
	b.logger.Info(ctx, "batch finished",
		logger.Int("files", len(paths)),
		logger.Int("ok", ok),
		logger.Int("failed", failed),
		logger.Int("skipped", skipped),
	)

	if failed > 0 || ok == 0 {
		return statuses, errors.Wrapf(ErrBatchFailed, "%d of %d files converted", ok, len(paths))
	}
	return statuses, nil
}

func (b *Batch) one(ctx context.Context, path string) Status {
	st := Status{Path: path, Experiment: b.pipeline.Experiment()}
	if !b.exists(path) {
		b.logger.Warn(ctx, "file not found, skipping", logger.String("file", path))
		metrics.RecordDataset(st.Experiment.String(), metrics.StatusSkipped, 0, 0)
		st.Skipped = true
		return st
	}

	res, err := b.pipeline.Run(ctx, path)
	if err != nil {
		b.logger.Error(ctx, "processing failed", logger.String("file", path), logger.Error(err))
		metrics.RecordDataset(st.Experiment.String(), metrics.StatusFailed, 0, 0)
		metrics.RecordError("pipeline", "run")
		st.Err = err
		return st
	}

	md := res.Metadata
	st.Experiment = md.Experiment
	st.Scanned = md.TotalScanned
	st.Filtered = md.FilteredEvents

	out, size, err := b.sink.Write(res)
	if err != nil {
		b.logger.Error(ctx, "writing output failed", logger.String("file", path), logger.Error(err))
		metrics.RecordDataset(md.Experiment.String(), metrics.StatusFailed, 0, 0)
		metrics.RecordError("output", "write")
		st.Err = err
		return st
	}
	st.Output, st.Size = out, size

	metrics.RecordDataset(md.Experiment.String(), metrics.StatusOK, md.ProcessingTimeSec, md.EventsPerSec)
	b.logger.Info(ctx, "processing complete",
		logger.String("file", path),
		logger.String("experiment", md.Experiment.String()),
		logger.Int64("scanned", md.TotalScanned),
		logger.Int("filtered", md.FilteredEvents),
		logger.Float64("elapsed_sec", md.ProcessingTimeSec),
		logger.Int64("events_per_sec", md.EventsPerSec),
		logger.String("output", out),
		logger.Float64("size_mb", float64(size)/bytesPerMB),
	)
	return st
}
