package service_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/CeoatNorthstar/openCern/internal/adapters/output"
	"github.com/CeoatNorthstar/openCern/internal/adapters/source"
	service "github.com/CeoatNorthstar/openCern/internal/app"
	"github.com/CeoatNorthstar/openCern/internal/domain/detect"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/CeoatNorthstar/openCern/pkg/logger"
	"github.com/cockroachdb/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)

// steppingClock returns start on the first call and advances by step on each later call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	now := start.Add(-step)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

var cmsColumns = []string{
	"run", "MET_pt", "MET_phi",
	"Muon_pt", "Muon_eta", "Muon_phi",
	"Electron_pt", "Electron_eta", "Electron_phi",
	"Jet_pt", "Jet_eta", "Jet_phi",
}

func cmsRow(muonPt, jetPt, met float64) source.Row {
	return source.Row{
		"run": int32(1), "MET_pt": float32(met), "MET_phi": float32(0.5),
		"Muon_pt": []float32{float32(muonPt)}, "Muon_eta": []float32{0.5}, "Muon_phi": []float32{1},
		"Jet_pt": []float32{float32(jetPt)}, "Jet_eta": []float32{0}, "Jet_phi": []float32{0},
	}
}

func cmsDataset(path string) *source.MemoryDataset {
	tbl := source.NewMemoryTable("Events", cmsColumns,
		cmsRow(30, 40, 25),
		cmsRow(10, 40, 25),
		cmsRow(45, 200, 60),
		cmsRow(35, 90, 30),
	)
	return source.NewMemoryDataset(path, tbl).AddObject("Runs")
}

func TestPipelineDetectionLog(t *testing.T) {
	Convey("Given a CMS dataset with every signature column", t, func() {
		var buf bytes.Buffer
		ds := cmsDataset("/data/cms.root")
		p := service.New(
			service.WithOpener(source.MemoryOpener(ds)),
			service.WithLogger(logger.New(&buf, false)),
		)

		_, err := p.Run(context.Background(), "/data/cms.root")

		Convey("Then the detection log reports the matched signature", func() {
			So(err, ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, "experiment detected")
			So(buf.String(), ShouldContainSubstring, "matched=4/4")
		})
	})
}

func TestPipelineRun(t *testing.T) {
	Convey("Given a CMS dataset", t, func() {
		ds := cmsDataset("/data/cms.root")
		p := service.New(
			service.WithOpener(source.MemoryOpener(ds)),
			service.WithMaxEvents(2),
			service.WithClock(steppingClock(t0, 2*time.Second)),
		)

		res, err := p.Run(context.Background(), "/data/cms.root")

		Convey("Then the layout is detected and the best events kept", func() {
			So(err, ShouldBeNil)
			md := res.Metadata
			So(md.SourceFile, ShouldEqual, "/data/cms.root")
			So(md.Experiment, ShouldEqual, model.ExperimentCMS)
			So(md.TreeName, ShouldEqual, "Events")
			So(md.TotalScanned, ShouldEqual, int64(4))
			So(md.FilteredEvents, ShouldEqual, 2)
			So(res.Events[0].Index, ShouldEqual, int64(2))
			So(res.Events[1].Index, ShouldEqual, int64(3))
		})

		Convey("And the metadata is derived from the kept events", func() {
			md := res.Metadata
			So(md.ProcessingTimeSec, ShouldEqual, 2.0)
			So(md.EventsPerSec, ShouldEqual, int64(2))
			So(md.ProcessedAt, ShouldEqual, t0.Add(2*time.Second))
			So(md.ParticleTypes, ShouldResemble, []string{"jet", "muon"})
			So(md.AvgParticlesPerEvent, ShouldEqual, 2.0)
			So(md.HTDistribution[19], ShouldEqual, 1)
			So(md.HTDistribution[0], ShouldEqual, 1)
		})

		Convey("And the dataset is closed", func() {
			So(ds.Closed(), ShouldBeTrue)
		})

		Convey("And a second run yields identical events", func() {
			again, err := p.Run(context.Background(), "/data/cms.root")
			So(err, ShouldBeNil)

			var first, second bytes.Buffer
			So(output.Encode(&first, output.FromResult(res)), ShouldBeNil)
			So(output.Encode(&second, output.FromResult(again)), ShouldBeNil)
			firstDoc, _ := output.Decode(&first)
			secondDoc, _ := output.Decode(&second)
			So(secondDoc.Events, ShouldResemble, firstDoc.Events)
		})
	})

	Convey("Given a forced experiment", t, func() {
		mini := source.NewMemoryTable("mini", []string{"lep_pt"})
		nominal := source.NewMemoryTable("nominal", []string{"lep_pt"})
		ds := source.NewMemoryDataset("/data/atlas.root", nominal, mini)
		p := service.New(
			service.WithOpener(source.MemoryOpener(ds)),
			service.WithExperiment(model.ExperimentATLAS),
		)

		res, err := p.Run(context.Background(), "/data/atlas.root")

		Convey("Then its container priority is used", func() {
			So(err, ShouldBeNil)
			So(res.Metadata.TreeName, ShouldEqual, "mini")
			So(res.Metadata.Experiment, ShouldEqual, model.ExperimentATLAS)
			So(res.Events, ShouldBeEmpty)
			So(res.Metadata.HTDistribution, ShouldResemble, make([]int, model.HistogramBins))
		})
	})

	Convey("Given columns that match no experiment", t, func() {
		tbl := source.NewMemoryTable("ntuple", []string{"x", "y"}, source.Row{"x": 1.0}, source.Row{"x": 2.0})
		ds := source.NewMemoryDataset("/data/unknown.root", tbl)
		res, err := service.New(service.WithOpener(source.MemoryOpener(ds))).Run(context.Background(), "/data/unknown.root")

		Convey("Then the default layout is used and every row fails its cuts", func() {
			So(err, ShouldBeNil)
			So(res.Metadata.Experiment, ShouldEqual, model.ExperimentCMS)
			So(res.Metadata.TotalScanned, ShouldEqual, int64(2))
			So(res.Metadata.FilteredEvents, ShouldEqual, 0)
		})
	})

	Convey("Given an ALICE dataset", t, func() {
		tbl := source.NewMemoryTable("esdTree", []string{"ESDfriend", "Tracks.fP"})
		for i := 0; i < 5; i++ {
			tbl.Append(source.Row{})
		}
		ds := source.NewMemoryDataset("/data/alice.root", tbl)
		res, err := service.New(
			service.WithOpener(source.MemoryOpener(ds)),
			service.WithMaxEvents(3),
		).Run(context.Background(), "/data/alice.root")

		Convey("Then zeroed events are kept up to the maximum", func() {
			So(err, ShouldBeNil)
			So(res.Metadata.Experiment, ShouldEqual, model.ExperimentALICE)
			So(res.Metadata.TotalScanned, ShouldEqual, int64(3))
			So(res.Metadata.FilteredEvents, ShouldEqual, 3)
			So(res.Metadata.ParticleTypes, ShouldBeEmpty)
		})
	})
}

func TestPipelineErrors(t *testing.T) {
	ctx := context.Background()

	Convey("Given a non-positive maximum", t, func() {
		_, err := service.New(service.WithMaxEvents(0)).Run(ctx, "/data/cms.root")

		Convey("Then the run is refused", func() {
			So(errors.Is(err, service.ErrInvalidMaxEvents), ShouldBeTrue)
		})
	})

	Convey("Given an unknown path", t, func() {
		p := service.New(service.WithOpener(source.MemoryOpener()))
		_, err := p.Run(ctx, "/data/missing.root")

		Convey("Then the source is unavailable", func() {
			So(errors.Is(err, source.ErrSourceUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a dataset holding no tables", t, func() {
		ds := source.NewMemoryDataset("/data/hists.root").AddObject("h_pt")
		_, err := service.New(service.WithOpener(source.MemoryOpener(ds))).Run(ctx, "/data/hists.root")

		Convey("Then no usable container is found", func() {
			So(errors.Is(err, detect.ErrNoContainer), ShouldBeTrue)
			So(ds.Closed(), ShouldBeTrue)
		})
	})
}
