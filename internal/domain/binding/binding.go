// Package binding maps a profile's canonical fields onto the columns a
// particular table actually provides.
package binding

import (
	"github.com/CeoatNorthstar/openCern/internal/adapters/source"
	"github.com/CeoatNorthstar/openCern/internal/domain/profile"
)

// Handle is an optional accessor for one column of a scanned record.
// The zero Handle is absent and reads as 0 or an empty array.
type Handle struct {
	name string
	slot int
	ok   bool
}

// Bound reports whether the column exists in the table.
func (h Handle) Bound() bool { return h.ok }

// Name is the native column name, empty when absent.
func (h Handle) Name() string { return h.name }

// Float reads a per-event scalar.
func (h Handle) Float(rec source.Record) float64 {
	if !h.ok || h.slot >= len(rec) {
		return 0
	}
	return rec[h.slot].Float()
}

// Floats reads a per-event array. The slice is only valid for the current row.
func (h Handle) Floats(rec source.Record) []float64 {
	if !h.ok || h.slot >= len(rec) {
		return nil
	}
	return rec[h.slot].Floats()
}

type key struct {
	collection int
	field      profile.Field
}

// Binding is the per-table resolution of a profile. It is built once per
// open table and read-only afterwards.
type Binding struct {
	profile *profile.Profile
	columns []string
	slots   map[string]int
	fields  map[key]Handle
	met     Handle
	metPhi  Handle
}

// Bind resolves every canonical field of p against the available column
// names. It never fails: missing columns produce absent handles.
func Bind(p *profile.Profile, available []string) *Binding {
	have := make(map[string]struct{}, len(available))
	for _, c := range available {
		have[c] = struct{}{}
	}

	b := &Binding{
		profile: p,
		slots:   make(map[string]int),
		fields:  make(map[key]Handle),
	}

	b.met = b.resolve(have, p.MET)
	b.metPhi = b.resolve(have, p.METPhi)
	for i, coll := range p.Collections {
		for f, col := range coll.Columns {
			if h := b.resolve(have, col); h.ok {
				b.fields[key{collection: i, field: f}] = h
			}
		}
	}
	return b
}

func (b *Binding) resolve(have map[string]struct{}, col profile.Column) Handle {
	name := ""
	if _, ok := have[col.Name]; ok && col.Name != "" {
		name = col.Name
	} else if _, ok := have[col.Alt]; ok && col.Alt != "" {
		name = col.Alt
	}
	if name == "" {
		return Handle{}
	}

	slot, ok := b.slots[name]
	if !ok {
		slot = len(b.columns)
		b.slots[name] = slot
		b.columns = append(b.columns, name)
	}
	return Handle{name: name, slot: slot, ok: true}
}

// Profile returns the bound profile.
func (b *Binding) Profile() *profile.Profile { return b.profile }

// Columns lists the native columns to request from the table, in slot order.
func (b *Binding) Columns() []string { return b.columns }

// Field returns the handle for a collection's canonical field.
func (b *Binding) Field(collection int, f profile.Field) Handle {
	return b.fields[key{collection: collection, field: f}]
}

// MET returns the missing transverse energy handle.
func (b *Binding) MET() Handle { return b.met }

// METPhi returns the missing transverse energy azimuth handle.
func (b *Binding) METPhi() Handle { return b.metPhi }

// Kinematic reports whether a collection has pt, eta and phi bound, the
// minimum needed to build its particles.
func (b *Binding) Kinematic(collection int) bool {
	return b.Field(collection, profile.FieldPt).Bound() &&
		b.Field(collection, profile.FieldEta).Bound() &&
		b.Field(collection, profile.FieldPhi).Bound()
}
