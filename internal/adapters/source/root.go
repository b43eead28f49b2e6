package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"
)

// Class names that groot can iterate row by row.
var treeClasses = map[string]bool{
	"TTree":    true,
	"TNtuple":  true,
	"TNtupleD": true,
}

type rootDataset struct {
	path    string
	file    *riofs.File
	entries []Entry
}

// OpenROOT opens a ROOT file with groot. Failures are marked ErrSourceUnavailable.
func OpenROOT(_ context.Context, path string) (Dataset, error) {
	f, err := groot.Open(path)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open %s", path), ErrSourceUnavailable)
	}

	seen := make(map[string]bool)
	var entries []Entry
	for _, k := range f.Keys() {
		// keys are listed once per cycle; keep the first.
		if seen[k.Name()] {
			continue
		}
		seen[k.Name()] = true
		entries = append(entries, Entry{Name: k.Name(), Table: treeClasses[k.ClassName()]})
	}

	return &rootDataset{path: path, file: f, entries: entries}, nil
}

func (d *rootDataset) Path() string     { return d.path }
func (d *rootDataset) Entries() []Entry { return d.entries }

func (d *rootDataset) Table(name string) (Table, error) {
	obj, err := d.file.Get(name)
	if err != nil {
		return nil, errors.Wrapf(err, "get %q", name)
	}
	tree, ok := obj.(rtree.Tree)
	if !ok {
		return nil, errors.Wrapf(ErrNotTable, "%q is a %s", name, obj.Class())
	}
	return &rootTable{name: name, tree: tree}, nil
}

func (d *rootDataset) Close() error {
	return d.file.Close()
}

type rootTable struct {
	name string
	tree rtree.Tree
}

func (t *rootTable) Name() string { return t.name }
func (t *rootTable) Len() int64   { return t.tree.Entries() }

func (t *rootTable) Columns() []string {
	branches := t.tree.Branches()
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name())
	}
	return names
}

func (t *rootTable) Scan(_ context.Context, columns []string, fn func(Record) error) error {
	rec := make(Record, len(columns))

	slot := make(map[string]int, len(columns))
	for i, c := range columns {
		slot[c] = i
	}

	// groot allocates a native typed value for every leaf; keep the requested ones.
	var (
		rvars []rtree.ReadVar
		slots []int
	)
	for _, rv := range rtree.NewReadVars(t.tree) {
		i, ok := slot[rv.Name]
		if !ok {
			continue
		}
		delete(slot, rv.Name)
		rvars = append(rvars, rv)
		slots = append(slots, i)
	}

	if len(rvars) == 0 {
		return t.scanEntries(rec, fn)
	}

	r, err := rtree.NewReader(t.tree, rvars)
	if err != nil {
		return errors.Wrapf(err, "create reader for %q", t.name)
	}
	defer r.Close()

	err = r.Read(func(rtree.RCtx) error {
		for k, rv := range rvars {
			i := slots[k]
			rec[i] = widen(rv.Value, rec[i].Values)
		}
		return fn(rec)
	})
	if err != nil && !errors.Is(err, ErrStop) {
		return errors.Wrapf(err, "scan %q", t.name)
	}
	return nil
}

// scanEntries advances over rows without decoding any column.
func (t *rootTable) scanEntries(rec Record, fn func(Record) error) error {
	n := t.tree.Entries()
	for i := int64(0); i < n; i++ {
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}
