package source_test

import (
	"context"
	"testing"

	"github.com/CeoatNorthstar/openCern/internal/adapters/source"
	"github.com/cockroachdb/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryTableScan(t *testing.T) {
	Convey("Given an in-memory table with mixed native kinds", t, func() {
		tbl := source.NewMemoryTable("Events",
			[]string{"MET_pt", "Muon_pt", "Muon_charge", "HLT_IsoMu24"},
			source.Row{"MET_pt": float32(25.5), "Muon_pt": []float32{30, 12.5}, "Muon_charge": []int32{-1, 1}, "HLT_IsoMu24": true},
			source.Row{"MET_pt": 3.0, "Muon_pt": []float64{}, "HLT_IsoMu24": false},
			source.Row{"MET_pt": int64(7), "Muon_pt": []uint8{4}},
		)
		ctx := context.Background()

		Convey("When scanning a subset of columns", func() {
			var mets []float64
			var muons [][]float64
			var charges [][]float64
			err := tbl.Scan(ctx, []string{"MET_pt", "Muon_pt", "Muon_charge"}, func(rec source.Record) error {
				mets = append(mets, rec[0].Float())
				muons = append(muons, append([]float64(nil), rec[1].Floats()...))
				charges = append(charges, append([]float64(nil), rec[2].Floats()...))
				return nil
			})

			Convey("Then values are widened to float64 in request order", func() {
				So(err, ShouldBeNil)
				So(mets, ShouldResemble, []float64{25.5, 3, 7})
				So(muons[0], ShouldResemble, []float64{30, 12.5})
				So(len(muons[1]), ShouldEqual, 0)
				So(muons[2], ShouldResemble, []float64{4})
				So(charges[0], ShouldResemble, []float64{-1, 1})
			})

			Convey("And a column missing from a row reads as absent", func() {
				So(charges[1], ShouldBeNil)
			})
		})

		Convey("When the callback returns ErrStop", func() {
			rows := 0
			err := tbl.Scan(ctx, nil, func(source.Record) error {
				rows++
				if rows == 2 {
					return source.ErrStop
				}
				return nil
			})

			Convey("Then the scan ends early without error", func() {
				So(err, ShouldBeNil)
				So(rows, ShouldEqual, 2)
			})
		})

		Convey("When the callback fails", func() {
			boom := errors.New("boom")
			err := tbl.Scan(ctx, nil, func(source.Record) error { return boom })

			Convey("Then the error is returned", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})

		Convey("Then the table reports its size", func() {
			So(tbl.Len(), ShouldEqual, int64(3))
			So(tbl.Name(), ShouldEqual, "Events")
		})
	})
}

func TestValue(t *testing.T) {
	Convey("Given column values", t, func() {
		Convey("A scalar reads as a one-element array", func() {
			v := source.Value{Valid: true, Scalar: 2.5}
			So(v.Floats(), ShouldResemble, []float64{2.5})
			So(v.Float(), ShouldEqual, 2.5)
		})

		Convey("An array reads its first element as a scalar", func() {
			v := source.Value{Valid: true, Array: true, Values: []float64{9, 1}}
			So(v.Float(), ShouldEqual, 9.0)
			So(source.Value{Valid: true, Array: true}.Float(), ShouldEqual, 0.0)
		})

		Convey("The zero value is absent", func() {
			So(source.Value{}.Floats(), ShouldBeNil)
			So(source.Value{}.Float(), ShouldEqual, 0.0)
		})
	})
}

func TestMemoryDataset(t *testing.T) {
	Convey("Given an in-memory dataset with a histogram and a tree", t, func() {
		ds := source.NewMemoryDataset("file.root", source.NewMemoryTable("mini", []string{"lep_pt"}))
		ds.AddObject("h_cutflow")
		ctx := context.Background()

		Convey("Then the index lists both in encounter order", func() {
			So(ds.Entries(), ShouldResemble, []source.Entry{
				{Name: "mini", Table: true},
				{Name: "h_cutflow"},
			})
			So(source.HasTable(ds, "mini"), ShouldBeTrue)
			So(source.HasTable(ds, "h_cutflow"), ShouldBeFalse)
		})

		Convey("And non-table objects cannot be opened as tables", func() {
			_, err := ds.Table("h_cutflow")
			So(errors.Is(err, source.ErrNotTable), ShouldBeTrue)
		})

		Convey("And the opener serves it by path only", func() {
			open := source.MemoryOpener(ds)
			got, err := open(ctx, "file.root")
			So(err, ShouldBeNil)
			So(got.Path(), ShouldEqual, "file.root")

			_, err = open(ctx, "missing.root")
			So(errors.Is(err, source.ErrSourceUnavailable), ShouldBeTrue)
		})

		Convey("And Close is recorded", func() {
			So(ds.Close(), ShouldBeNil)
			So(ds.Closed(), ShouldBeTrue)
		})
	})
}

func TestOpenROOT(t *testing.T) {
	Convey("Given a path that is not a ROOT file", t, func() {
		_, err := source.OpenROOT(context.Background(), "/nonexistent/file.root")

		Convey("Then opening fails as source unavailable", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, source.ErrSourceUnavailable), ShouldBeTrue)
		})
	})
}
