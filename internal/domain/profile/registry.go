package profile

import (
	"github.com/CeoatNorthstar/openCern/internal/domain/kinematics"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
)

// Masses in GeV used when a mass-given collection has no mass column.
const (
	muonMass     = 0.1057
	electronMass = 0.000511
	tauMass      = 1.777
)

const bTagCut = 0.5

func nano(prefix string, withMass bool) map[Field]Column {
	cols := map[Field]Column{
		FieldPt:  {Name: prefix + "_pt"},
		FieldEta: {Name: prefix + "_eta"},
		FieldPhi: {Name: prefix + "_phi"},
	}
	if withMass {
		cols[FieldMass] = Column{Name: prefix + "_mass"}
	}
	return cols
}

// CMS is the NanoAOD layout: one collection per particle kind, GeV units.
var CMS = &Profile{
	Experiment: model.ExperimentCMS,
	Containers: []string{"Events", "events"},
	Signature:  []string{"Muon_pt", "Jet_pt", "MET_pt", "Electron_pt"},
	UnitScale:  1,
	Select:     &Thresholds{Lepton: 20, MET: 20, Jet: 30},
	ScanFactor: 2,
	Convention: kinematics.MassGiven,
	MET:        Column{Name: "MET_pt"},
	METPhi:     Column{Name: "MET_phi"},

	// Jet_btag is read through the jet collection.
	BTagThreshold: bTagCut,
	Collections: []Collection{
		{Type: model.Muon, Columns: nano("Muon", true), DefaultMass: muonMass, Lepton: true},
		{Type: model.Electron, Columns: nano("Electron", true), DefaultMass: electronMass, Lepton: true},
		{Type: model.Jet, Columns: withField(nano("Jet", true), FieldBTag, Column{Name: "Jet_btag"}), Jet: true},
		{Type: model.Tau, Columns: nano("Tau", true), DefaultMass: tauMass},
		{Type: model.Photon, Columns: nano("Photon", true)},
	},
}

// ATLAS is the open-data flat ntuple layout: one unified lepton
// collection, energies instead of masses, MeV units.
var ATLAS = &Profile{
	Experiment: model.ExperimentATLAS,
	Containers: []string{"mini", "truth", "nominal", "CollectionTree"},
	Signature:  []string{"lep_pt", "lep_eta", "jet_pt", "met_et"},
	UnitScale:  1000,
	Select:     &Thresholds{Lepton: 25, MET: 25, Jet: 25},
	ScanFactor: 2,
	Convention: kinematics.EnergyGiven,
	MET:        Column{Name: "met_et"},
	METPhi:     Column{Name: "met_phi"},

	BTagThreshold: bTagCut,
	Collections: []Collection{
		{
			Type: model.Lepton,
			Columns: map[Field]Column{
				FieldPt:     {Name: "lep_pt"},
				FieldEta:    {Name: "lep_eta"},
				FieldPhi:    {Name: "lep_phi"},
				FieldEnergy: {Name: "lep_e", Alt: "lep_E"},
				FieldCode:   {Name: "lep_type"},
			},
			Lepton:   true,
			Subtyped: true,
		},
		{
			Type: model.Jet,
			Columns: map[Field]Column{
				FieldPt:     {Name: "jet_pt"},
				FieldEta:    {Name: "jet_eta"},
				FieldPhi:    {Name: "jet_phi"},
				FieldEnergy: {Name: "jet_e", Alt: "jet_E"},
				FieldBTag:   {Name: "jet_MV2c10"},
			},
			Jet: true,
		},
	},
}

// ALICE is the ESD/VSD layout. Its objects are nested and version
// dependent, so only the event count is extracted.
var ALICE = &Profile{
	Experiment: model.ExperimentALICE,
	Containers: []string{"TE", "VSD", "ESDTree", "esdTree", "aodTree"},
	Fragments:  []string{"Ali", "ESD", "fP.", "Track"},
	UnitScale:  1,
	ScanFactor: 1,
}

// AutoContainers is the global priority order used when no experiment is forced.
var AutoContainers = []string{
	"Events", "events", "mini", "truth", "nominal",
	"TE", "VSD", "ESDTree", "tree", "Tree", "ntuple",
}

// ordered is the detection priority: ties go to the earlier profile.
var ordered = []*Profile{CMS, ATLAS, ALICE}

// All returns the profiles in detection priority order.
func All() []*Profile {
	out := make([]*Profile, len(ordered))
	copy(out, ordered)
	return out
}

// Lookup returns the profile for a concrete experiment.
func Lookup(exp model.Experiment) (*Profile, bool) {
	for _, p := range ordered {
		if p.Experiment == exp {
			return p, true
		}
	}
	return nil, false
}

// Default is the profile used when detection finds no signature at all.
func Default() *Profile { return CMS }

func withField(cols map[Field]Column, f Field, c Column) map[Field]Column {
	cols[f] = c
	return cols
}
