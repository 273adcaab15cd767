package dataset

import (
	"fmt"
	"time"
)

// Type identifies the scalar type of a column.
type Type int

const (
	// Float is a 64-bit floating point column
	Float Type = iota
	// String is a UTF-8 string column
	String
	// Timestamp is a time.Time column (stored with microsecond precision)
	Timestamp
)

// String returns a human-readable name for the type
func (t Type) String() string {
	switch t {
	case Float:
		return "float"
	case String:
		return "string"
	case Timestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Field describes one column of a Dataset
type Field struct {
	Name string
	Type Type
}

// Dataset is an ordered sequence of rows with typed named columns.
// It is the unit of data exchanged between fetchers, the cache store,
// and downstream consumers. A fetch always produces a fresh Dataset;
// callers must not mutate one they received from the cache.
type Dataset struct {
	fields []Field
	rows   [][]any
}

// New creates an empty Dataset with the given columns
func New(fields ...Field) *Dataset {
	return &Dataset{fields: fields}
}

// Fields returns a copy of the column definitions
func (d *Dataset) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

// NumRows returns the number of rows
func (d *Dataset) NumRows() int {
	return len(d.rows)
}

// NumCols returns the number of columns
func (d *Dataset) NumCols() int {
	return len(d.fields)
}

// Empty reports whether the dataset has no rows
func (d *Dataset) Empty() bool {
	return len(d.rows) == 0
}

// AppendRow adds one row of values. The number and Go types of the values
// must match the column definitions: float64 for Float, string for String,
// time.Time for Timestamp.
func (d *Dataset) AppendRow(values ...any) error {
	if len(values) != len(d.fields) {
		return fmt.Errorf("row has %d values, dataset has %d columns", len(values), len(d.fields))
	}

	for i, v := range values {
		switch d.fields[i].Type {
		case Float:
			if _, ok := v.(float64); !ok {
				return fmt.Errorf("column %q: expected float64, got %T", d.fields[i].Name, v)
			}
		case String:
			if _, ok := v.(string); !ok {
				return fmt.Errorf("column %q: expected string, got %T", d.fields[i].Name, v)
			}
		case Timestamp:
			if _, ok := v.(time.Time); !ok {
				return fmt.Errorf("column %q: expected time.Time, got %T", d.fields[i].Name, v)
			}
		}
	}

	row := make([]any, len(values))
	copy(row, values)
	d.rows = append(d.rows, row)
	return nil
}

// Value returns the value at the given row and column
func (d *Dataset) Value(row, col int) any {
	return d.rows[row][col]
}

// ColumnIndex returns the index of the named column, or -1 if absent
func (d *Dataset) ColumnIndex(name string) int {
	for i, f := range d.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Concat appends all rows of the given parts, in order, into a new Dataset.
// Every non-empty part must share the schema of the first non-empty part.
// Concat of zero parts (or all-empty parts) yields an empty Dataset.
func Concat(parts ...*Dataset) (*Dataset, error) {
	var out *Dataset
	for _, p := range parts {
		if p == nil || p.Empty() {
			continue
		}
		if out == nil {
			out = New(p.Fields()...)
		} else if !sameSchema(out.fields, p.fields) {
			return nil, fmt.Errorf("cannot concat datasets with differing schemas")
		}
		for _, row := range p.rows {
			cp := make([]any, len(row))
			copy(cp, row)
			out.rows = append(out.rows, cp)
		}
	}
	if out == nil {
		return New(), nil
	}
	return out, nil
}

// Equal reports whether two datasets have identical schemas and
// row-for-row identical values. Timestamps compare by instant.
func (d *Dataset) Equal(other *Dataset) bool {
	if other == nil || !sameSchema(d.fields, other.fields) || len(d.rows) != len(other.rows) {
		return false
	}
	for i, row := range d.rows {
		for j, v := range row {
			ov := other.rows[i][j]
			if ts, ok := v.(time.Time); ok {
				ots, ok := ov.(time.Time)
				if !ok || !ts.Equal(ots) {
					return false
				}
				continue
			}
			if v != ov {
				return false
			}
		}
	}
	return true
}

func sameSchema(a, b []Field) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
