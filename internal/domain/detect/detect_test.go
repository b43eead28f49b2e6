package detect_test

import (
	"testing"

	"github.com/CeoatNorthstar/openCern/internal/adapters/source"
	"github.com/CeoatNorthstar/openCern/internal/domain/detect"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"github.com/CeoatNorthstar/openCern/internal/domain/profile"
	"github.com/cockroachdb/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func table(name string) *source.MemoryTable {
	return source.NewMemoryTable(name, nil)
}

func TestResolveContainer(t *testing.T) {
	Convey("Given datasets with several containers", t, func() {
		Convey("When auto resolving", func() {
			ds := source.NewMemoryDataset("a.root", table("ntuple"), table("mini"), table("Events"))

			Convey("Then the global priority order wins over index order", func() {
				name, err := detect.ResolveContainer(ds, model.ExperimentAuto)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "Events")
			})
		})

		Convey("When the experiment is forced", func() {
			ds := source.NewMemoryDataset("a.root", table("Events"), table("nominal"), table("mini"))

			Convey("Then only that experiment's candidates are tried first", func() {
				name, err := detect.ResolveContainer(ds, model.ExperimentATLAS)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "mini")
			})
		})

		Convey("When a candidate name is not a table", func() {
			ds := source.NewMemoryDataset("a.root", table("myTree"))
			ds.AddObject("Events")

			Convey("Then it is skipped and the first table is the fallback", func() {
				name, err := detect.ResolveContainer(ds, model.ExperimentAuto)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "myTree")
			})
		})

		Convey("When a forced experiment's candidates are all missing", func() {
			ds := source.NewMemoryDataset("a.root", table("Events"))

			Convey("Then the first table in the index is used", func() {
				name, err := detect.ResolveContainer(ds, model.ExperimentALICE)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "Events")
			})
		})

		Convey("When the dataset holds no table at all", func() {
			ds := source.NewMemoryDataset("empty.root")
			ds.AddObject("h1")

			Convey("Then resolution fails with ErrNoContainer", func() {
				_, err := detect.ResolveContainer(ds, model.ExperimentAuto)
				So(errors.Is(err, detect.ErrNoContainer), ShouldBeTrue)
				So(errors.FlattenHints(err), ShouldContainSubstring, "--experiment")
			})
		})
	})
}

func TestDetect(t *testing.T) {
	Convey("Given column sets", t, func() {
		Convey("When columns are exactly the CMS signature", func() {
			d := detect.Detect([]string{"Muon_pt", "Jet_pt", "MET_pt", "Electron_pt"}, model.ExperimentAuto)

			Convey("Then CMS is selected with score 4", func() {
				So(d.Profile, ShouldEqual, profile.CMS)
				So(d.Score(), ShouldEqual, 4)
				So(d.Defaulted, ShouldBeFalse)
				So(d.Forced, ShouldBeFalse)
			})
		})

		Convey("When ATLAS columns dominate", func() {
			d := detect.Detect([]string{"lep_pt", "lep_eta", "jet_pt", "met_et", "Jet_pt"}, model.ExperimentAuto)

			Convey("Then ATLAS is selected", func() {
				So(d.Profile, ShouldEqual, profile.ATLAS)
				So(d.Scores[model.ExperimentCMS], ShouldEqual, 1)
				So(d.Score(), ShouldEqual, 4)
			})
		})

		Convey("When CMS and ATLAS tie", func() {
			d := detect.Detect([]string{"Muon_pt", "Jet_pt", "lep_pt", "met_et"}, model.ExperimentAuto)

			Convey("Then the earlier profile in priority order wins", func() {
				So(d.Profile, ShouldEqual, profile.CMS)
			})
		})

		Convey("When ATLAS and ALICE tie", func() {
			d := detect.Detect([]string{"lep_pt", "AliESDRun"}, model.ExperimentAuto)

			Convey("Then ATLAS wins", func() {
				So(d.Profile, ShouldEqual, profile.ATLAS)
			})
		})

		Convey("When only ALICE fragments match", func() {
			d := detect.Detect([]string{"ESDfriend", "Tracks", "fP.fX", "other"}, model.ExperimentAuto)

			Convey("Then ALICE is selected", func() {
				So(d.Profile, ShouldEqual, profile.ALICE)
				So(d.Score(), ShouldEqual, 3)
			})
		})

		Convey("When nothing matches", func() {
			d := detect.Detect([]string{"x", "y"}, model.ExperimentAuto)

			Convey("Then CMS is the silent default", func() {
				So(d.Profile, ShouldEqual, profile.CMS)
				So(d.Defaulted, ShouldBeTrue)
				So(d.Score(), ShouldEqual, 0)
			})
		})

		Convey("When the experiment is forced", func() {
			d := detect.Detect([]string{"Muon_pt", "Jet_pt", "MET_pt", "Electron_pt"}, model.ExperimentALICE)

			Convey("Then scoring is skipped", func() {
				So(d.Profile, ShouldEqual, profile.ALICE)
				So(d.Forced, ShouldBeTrue)
				So(d.Scores, ShouldBeNil)
			})
		})
	})
}
