// Package processor drives a table scan through one experiment profile:
// it computes per-row aggregates, applies the selection cuts and builds
// the canonical events.
package processor

import (
	"context"
	"math"

	"github.com/CeoatNorthstar/openCern/internal/adapters/source"
	"github.com/CeoatNorthstar/openCern/internal/domain/binding"
	"github.com/CeoatNorthstar/openCern/internal/domain/kinematics"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/CeoatNorthstar/openCern/internal/domain/profile"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/CeoatNorthstar/openCern/pkg/metrics"
	"github.com/cockroachdb/errors"
)

// Reason explains why a row was rejected. Accepted rows carry Accepted.
type Reason string

// Rejection reasons, in the order the cuts are applied.
const (
	Accepted     Reason = ""
	RejectLepton Reason = "lepton"
	RejectMET    Reason = "met"
	RejectJet    Reason = "jet"
)

// PDG code of an electron in the ATLAS lepton type column.
const pdgElectron = 11

const defaultProgressInterval = 50_000

// Stats summarizes one scan.
type Stats struct {
	Scanned  int64
	Accepted int
	Rejected int64
	// Capped is set when the scan stopped at the accepted-event cap.
	Capped bool
}

// Processor is the generic event processor. One instance serves one bound table.
type Processor struct {
	binding  *binding.Binding
	profile  *profile.Profile
	logger   logger.Logger
	progress int64
}

// Option applies a configuration option to the Processor.
type Option func(*Processor)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProgressInterval logs progress every n scanned rows; 0 disables it.
func WithProgressInterval(n int64) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.progress = n
		}
	}
}

// New creates a processor for a bound table.
func New(b *binding.Binding, opts ...Option) *Processor {
	p := &Processor{
		binding:  b,
		profile:  b.Profile(),
		progress: defaultProgressInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("processor")
	}
	return p
}

// Limit is the accepted-event count at which the scan stops.
func (p *Processor) Limit(maxEvents int) int {
	factor := p.profile.ScanFactor
	if factor < 1 {
		factor = 1
	}
	return factor * maxEvents
}

// Run scans the table and returns the accepted events in scan order.
func (p *Processor) Run(ctx context.Context, tbl source.Table, maxEvents int) ([]model.Event, Stats, error) {
	var st Stats
	if maxEvents <= 0 {
		return nil, st, errors.Wrapf(ErrInvalidLimit, "got %d", maxEvents)
	}

	exp := p.profile.Experiment.String()
	limit := p.Limit(maxEvents)
	events := make([]model.Event, 0, min(limit, 4096))
	particles := make(map[model.ParticleType]int)

	err := tbl.Scan(ctx, p.binding.Columns(), func(rec source.Record) error {
		index := st.Scanned
		st.Scanned++

		ev, reason := p.Evaluate(rec, index)
		if reason != Accepted {
			st.Rejected++
			metrics.RecordEventRejected(exp, string(reason))
		} else {
			events = append(events, ev)
			metrics.RecordEventAccepted(exp)
			for i := range ev.Particles {
				particles[ev.Particles[i].Type]++
			}
			if len(events) >= limit {
				st.Capped = true
				p.logger.Info(ctx, "scan cap reached",
					logger.Int64("scanned", st.Scanned),
					logger.Int("passed", len(events)),
				)
				return source.ErrStop
			}
		}

		if p.progress > 0 && st.Scanned%p.progress == 0 {
			p.logger.Info(ctx, "progress",
				logger.Int64("scanned", st.Scanned),
				logger.Int("passed", len(events)),
			)
		}
		return nil
	})

	metrics.RecordRowsScanned(exp, st.Scanned)
	for t, n := range particles {
		metrics.RecordParticles(t.String(), n)
	}
	if err != nil {
		return nil, st, errors.Wrapf(err, "scan %s", tbl.Name())
	}

	st.Accepted = len(events)
	p.logger.Info(ctx, "scan finished",
		logger.String("experiment", exp),
		logger.Int64("scanned", st.Scanned),
		logger.Int("accepted", st.Accepted),
	)
	return events, st, nil
}

// Evaluate computes one row's aggregates and applies the selection cuts.
// The event is only populated when the reason is Accepted.
func (p *Processor) Evaluate(rec source.Record, index int64) (model.Event, Reason) {
	b, prof := p.binding, p.profile

	met := prof.Convert(b.MET().Float(rec))
	metPhi := b.METPhi().Float(rec)

	var leading, ht, maxJet float64
	nb := 0
	for i, c := range prof.Collections {
		if !c.Lepton && !c.Jet {
			continue
		}
		pts := b.Field(i, profile.FieldPt).Floats(rec)
		if c.Lepton {
			// NaN never compares greater, so it cannot become the leader.
			for _, v := range pts {
				if pt := prof.Convert(v); pt > leading {
					leading = pt
				}
			}
		}
		if c.Jet {
			tags := b.Field(i, profile.FieldBTag).Floats(rec)
			for j, v := range pts {
				pt := prof.Convert(v)
				if !math.IsNaN(pt) && !math.IsInf(pt, 0) {
					ht += pt
				}
				if pt > maxJet {
					maxJet = pt
				}
				if j < len(tags) && tags[j] > prof.BTagThreshold {
					nb++
				}
			}
		}
	}

	if cut := prof.Select; cut != nil {
		switch {
		// Written as !(x >= cut) so a NaN fails the cut.
		case !(leading >= cut.Lepton):
			return model.Event{}, RejectLepton
		case !(met >= cut.MET):
			return model.Event{}, RejectMET
		case !(maxJet >= cut.Jet):
			return model.Event{}, RejectJet
		}
	}

	ev := model.Event{
		Index:           index,
		Experiment:      prof.Experiment,
		HT:              kinematics.Round(ht, 2),
		MET:             kinematics.Round(met, 2),
		LeadingLeptonPt: kinematics.Round(leading, 2),
		METPt:           kinematics.Round(met, 2),
		METPhi:          kinematics.Round(metPhi, 3),
		NBJets:          nb,
	}
	for i := range prof.Collections {
		if b.Kinematic(i) {
			ev.Particles = p.appendParticles(ev.Particles, rec, i)
		}
	}
	return ev, Accepted
}

// appendParticles builds one particle per pt element of a collection. The
// other arrays are read with bounds checks: a short array yields 0, or the
// profile default for mass and energy.
func (p *Processor) appendParticles(dst []model.Particle, rec source.Record, i int) []model.Particle {
	b, prof := p.binding, p.profile
	c := &prof.Collections[i]

	pts := b.Field(i, profile.FieldPt).Floats(rec)
	etas := b.Field(i, profile.FieldEta).Floats(rec)
	phis := b.Field(i, profile.FieldPhi).Floats(rec)
	masses := b.Field(i, profile.FieldMass).Floats(rec)
	energies := b.Field(i, profile.FieldEnergy).Floats(rec)
	codes := b.Field(i, profile.FieldCode).Floats(rec)

	for j := range pts {
		pt := prof.Convert(pts[j])
		eta := at(etas, j, 0)
		phi := at(phis, j, 0)

		var fv kinematics.FourVector
		if prof.Convention == kinematics.EnergyGiven {
			e := kinematics.MasslessEnergy(pt, eta)
			if j < len(energies) {
				e = prof.Convert(energies[j])
			}
			fv = kinematics.FromEnergy(pt, eta, phi, e)
		} else {
			m := c.DefaultMass
			if j < len(masses) {
				m = prof.Convert(masses[j])
			}
			fv = kinematics.FromMass(pt, eta, phi, m)
		}

		typ := c.Type
		if c.Subtyped {
			typ = leptonType(codes, j)
		}

		dst = append(dst, model.Particle{
			Type:   typ,
			Pt:     kinematics.Round(pt, 3),
			Eta:    kinematics.Round(eta, 3),
			Phi:    kinematics.Round(phi, 3),
			Mass:   kinematics.Round(fv.Mass, 4),
			Px:     kinematics.Round(fv.Px, 3),
			Py:     kinematics.Round(fv.Py, 3),
			Pz:     kinematics.Round(fv.Pz, 3),
			Energy: kinematics.Round(fv.Energy, 3),
		})
	}
	return dst
}

// leptonType reads a PDG code: |11| is an electron, any other code a muon.
// A missing code element leaves the generic lepton type.
func leptonType(codes []float64, j int) model.ParticleType {
	if j >= len(codes) {
		return model.Lepton
	}
	if int(math.Abs(codes[j])) == pdgElectron {
		return model.Electron
	}
	return model.Muon
}

func at(vs []float64, j int, def float64) float64 {
	if j < len(vs) {
		return vs[j]
	}
	return def
}
