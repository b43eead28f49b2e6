// Package service wires the source, detection, processing and aggregation
// steps into the per-file pipeline and the multi-file batch.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/CeoatNorthstar/openCern/internal/adapters/source"
	"github.com/CeoatNorthstar/openCern/internal/domain/aggregate"
	"github.com/CeoatNorthstar/openCern/internal/domain/binding"
	"github.com/CeoatNorthstar/openCern/internal/domain/detect"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/CeoatNorthstar/openCern/internal/domain/processor"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const (
	defaultMaxEvents        = 5000
	defaultProgressInterval = 50_000
)

// Pipeline converts one dataset into a Result.
type Pipeline struct {
	opener     source.Opener
	maxEvents  int
	experiment model.Experiment
	progress   int64
	now        func() time.Time

	logger logger.Logger
}

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithOpener sets how dataset paths are opened. The default reads ROOT files.
func WithOpener(o source.Opener) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.opener = o
		}
	}
}

// WithMaxEvents sets the number of events kept per dataset. Non-positive
// values are rejected when the pipeline runs.
func WithMaxEvents(n int) Option {
	return func(p *Pipeline) {
		p.maxEvents = n
	}
}

// WithExperiment forces an experiment layout; ExperimentAuto detects it.
func WithExperiment(exp model.Experiment) Option {
	return func(p *Pipeline) {
		p.experiment = exp
	}
}

// WithProgressInterval logs progress every n scanned rows; 0 disables it.
func WithProgressInterval(n int64) Option {
	return func(p *Pipeline) {
		if n >= 0 {
			p.progress = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		opener:     source.OpenROOT,
		maxEvents:  defaultMaxEvents,
		experiment: model.ExperimentAuto,
		progress:   defaultProgressInterval,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("pipeline")
	}
	return p
}

// MaxEvents returns the configured output size.
func (p *Pipeline) MaxEvents() int { return p.maxEvents }

// Experiment returns the configured experiment selector.
func (p *Pipeline) Experiment() model.Experiment { return p.experiment }

// Run opens path, detects its layout, scans it and assembles the result.
// Any error is fatal for this dataset.
func (p *Pipeline) Run(ctx context.Context, path string) (*model.Result, error) {
	if p.maxEvents <= 0 {
		return nil, errors.Wrapf(ErrInvalidMaxEvents, "got %d", p.maxEvents)
	}

	log := p.logger.With(logger.String("run_id", uuid.NewString()), logger.String("file", path))
	start := p.now()

	ds, err := p.opener(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil {
			log.Warn(ctx, "close dataset", logger.Error(cerr))
		}
	}()

	name, err := detect.ResolveContainer(ds, p.experiment)
	if err != nil {
		return nil, err
	}
	tbl, err := ds.Table(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open container %s", name)
	}

	columns := tbl.Columns()
	det := detect.Detect(columns, p.experiment)
	exp := det.Profile.Experiment
	switch {
	case det.Defaulted:
		log.Warn(ctx, "no experiment signature found, defaulting",
			logger.String("experiment", exp.String()),
			logger.String("tree", name),
		)
	case det.Forced:
		log.Info(ctx, "experiment forced", logger.String("experiment", exp.String()), logger.String("tree", name))
	default:
		fields := []logger.Field{
			logger.String("experiment", exp.String()),
			logger.Int("score", det.Score()),
			logger.String("tree", name),
		}
		if n := det.Profile.SignatureSize(); n > 0 {
			fields = append(fields, logger.String("matched", fmt.Sprintf("%d/%d", det.Score(), n)))
		}
		log.Info(ctx, "experiment detected", fields...)
	}

	b := binding.Bind(det.Profile, columns)
	log.Info(ctx, "columns bound",
		logger.Int("available", len(columns)),
		logger.Int("bound", len(b.Columns())),
		logger.Int64("entries", tbl.Len()),
		logger.Int("max_events", p.maxEvents),
	)

	proc := processor.New(b,
		processor.WithLogger(log.Named("processor")),
		processor.WithProgressInterval(p.progress),
	)
	events, st, err := proc.Run(ctx, tbl, p.maxEvents)
	if err != nil {
		return nil, err
	}

	end := p.now()
	return aggregate.Assemble(aggregate.Run{
		SourceFile:  path,
		Experiment:  exp,
		TreeName:    name,
		Scanned:     st.Scanned,
		Elapsed:     end.Sub(start),
		ProcessedAt: end,
	}, events, p.maxEvents), nil
}
