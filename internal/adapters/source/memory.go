package source

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Row maps column names to native values: scalars or slices of any numeric kind.
type Row map[string]any

// MemoryTable is an in-memory Table.
type MemoryTable struct {
	name    string
	columns []string
	rows    []Row
}

// NewMemoryTable creates a table with the given column index and rows.
func NewMemoryTable(name string, columns []string, rows ...Row) *MemoryTable {
	return &MemoryTable{name: name, columns: columns, rows: rows}
}

// Append adds rows to the table.
func (t *MemoryTable) Append(rows ...Row) { t.rows = append(t.rows, rows...) }

func (t *MemoryTable) Name() string      { return t.name }
func (t *MemoryTable) Columns() []string { return t.columns }
func (t *MemoryTable) Len() int64        { return int64(len(t.rows)) }

func (t *MemoryTable) Scan(_ context.Context, columns []string, fn func(Record) error) error {
	rec := make(Record, len(columns))
	for _, row := range t.rows {
		for i, c := range columns {
			rec[i] = widen(row[c], rec[i].Values)
		}
		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
	return nil
}

// MemoryDataset is an in-memory Dataset.
type MemoryDataset struct {
	path    string
	entries []Entry
	tables  map[string]*MemoryTable
	closed  bool
}

// NewMemoryDataset indexes the given tables in order.
func NewMemoryDataset(path string, tables ...*MemoryTable) *MemoryDataset {
	d := &MemoryDataset{path: path, tables: make(map[string]*MemoryTable)}
	for _, t := range tables {
		d.entries = append(d.entries, Entry{Name: t.name, Table: true})
		d.tables[t.name] = t
	}
	return d
}

// AddObject indexes a non-table object, e.g. a histogram.
func (d *MemoryDataset) AddObject(name string) *MemoryDataset {
	d.entries = append(d.entries, Entry{Name: name})
	return d
}

func (d *MemoryDataset) Path() string     { return d.path }
func (d *MemoryDataset) Entries() []Entry { return d.entries }

func (d *MemoryDataset) Table(name string) (Table, error) {
	t, ok := d.tables[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotTable, "%q", name)
	}
	return t, nil
}

func (d *MemoryDataset) Close() error {
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *MemoryDataset) Closed() bool { return d.closed }

// MemoryOpener returns an Opener that serves datasets by path.
func MemoryOpener(datasets ...*MemoryDataset) Opener {
	byPath := make(map[string]*MemoryDataset, len(datasets))
	for _, d := range datasets {
		byPath[d.path] = d
	}
	return func(_ context.Context, path string) (Dataset, error) {
		d, ok := byPath[path]
		if !ok {
			return nil, errors.Wrapf(ErrSourceUnavailable, "open %s", path)
		}
		return d, nil
	}
}
