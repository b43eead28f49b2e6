// Package source defines the tabular event source consumed by the
// processing pipeline and provides its ROOT and in-memory implementations.
//
// A Dataset is a file holding named containers; a Table is a container of
// named columns read strictly row by row.
package source

import "context"

// Entry is one named object in a dataset index, in encounter order.
type Entry struct {
	Name string
	// Table is true when the object is a readable row container.
	Table bool
}

// Value is one column's content for the current row, widened to float64.
// Values is reused between rows and must not be retained by callers.
type Value struct {
	Valid  bool
	Array  bool
	Scalar float64
	Values []float64
}

// Float returns the scalar content, or the first element of an array.
func (v Value) Float() float64 {
	if v.Array {
		if len(v.Values) == 0 {
			return 0
		}
		return v.Values[0]
	}
	return v.Scalar
}

// Floats returns the array content; a scalar is returned as one element.
func (v Value) Floats() []float64 {
	if v.Array {
		return v.Values
	}
	if !v.Valid {
		return nil
	}
	return []float64{v.Scalar}
}

// Record holds the requested columns of one row, in request order.
type Record []Value

// Table is a sequential reader over one container.
type Table interface {
	Name() string
	Columns() []string
	Len() int64
	// Scan calls fn once per row with the requested columns. Returning
	// ErrStop from fn ends the scan early without error.
	Scan(ctx context.Context, columns []string, fn func(Record) error) error
}

// Dataset is an opened source file.
type Dataset interface {
	Path() string
	Entries() []Entry
	Table(name string) (Table, error)
	Close() error
}

// Opener opens a dataset by path.
type Opener func(ctx context.Context, path string) (Dataset, error)

// HasTable reports whether ds indexes a table called name.
func HasTable(ds Dataset, name string) bool {
	for _, e := range ds.Entries() {
		if e.Name == name && e.Table {
			return true
		}
	}
	return false
}
