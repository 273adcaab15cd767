package dataset

import (
	"bytes"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Marshal serializes the dataset in the Arrow IPC stream format.
// The schema travels with the data, so the bytes are self-describing:
// column names and types are recoverable without any external schema.
func (d *Dataset) Marshal() ([]byte, error) {
	schema, err := arrowSchema(d.fields)
	if err != nil {
		return nil, err
	}

	bldr := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer bldr.Release()

	for _, row := range d.rows {
		for i, v := range row {
			switch fb := bldr.Field(i).(type) {
			case *array.Float64Builder:
				fb.Append(v.(float64))
			case *array.StringBuilder:
				fb.Append(v.(string))
			case *array.TimestampBuilder:
				ts, err := arrow.TimestampFromTime(v.(time.Time), arrow.Microsecond)
				if err != nil {
					return nil, fmt.Errorf("column %q: %w", d.fields[i].Name, err)
				}
				fb.Append(ts)
			}
		}
	}

	rec := bldr.NewRecord()
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := w.Write(rec); err != nil {
		return nil, fmt.Errorf("write arrow record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close arrow writer: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal reconstructs a Dataset from Arrow IPC stream bytes
func Unmarshal(b []byte) (*Dataset, error) {
	r, err := ipc.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("open arrow stream: %w", err)
	}
	defer r.Release()

	fields, err := datasetFields(r.Schema())
	if err != nil {
		return nil, err
	}

	out := New(fields...)
	for r.Next() {
		rec := r.Record()
		for i := 0; i < int(rec.NumRows()); i++ {
			row := make([]any, rec.NumCols())
			for j := 0; j < int(rec.NumCols()); j++ {
				switch col := rec.Column(j).(type) {
				case *array.Float64:
					row[j] = col.Value(i)
				case *array.String:
					row[j] = col.Value(i)
				case *array.Timestamp:
					unit := rec.Schema().Field(j).Type.(*arrow.TimestampType).Unit
					row[j] = col.Value(i).ToTime(unit)
				default:
					return nil, fmt.Errorf("column %q: unsupported arrow type %s", rec.ColumnName(j), rec.Column(j).DataType())
				}
			}
			out.rows = append(out.rows, row)
		}
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read arrow stream: %w", err)
	}
	return out, nil
}

func arrowSchema(fields []Field) (*arrow.Schema, error) {
	afields := make([]arrow.Field, len(fields))
	for i, f := range fields {
		var dt arrow.DataType
		switch f.Type {
		case Float:
			dt = arrow.PrimitiveTypes.Float64
		case String:
			dt = arrow.BinaryTypes.String
		case Timestamp:
			dt = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
		default:
			return nil, fmt.Errorf("column %q: unknown type %v", f.Name, f.Type)
		}
		afields[i] = arrow.Field{Name: f.Name, Type: dt}
	}
	return arrow.NewSchema(afields, nil), nil
}

func datasetFields(schema *arrow.Schema) ([]Field, error) {
	fields := make([]Field, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		af := schema.Field(i)
		switch af.Type.ID() {
		case arrow.FLOAT64:
			fields[i] = Field{Name: af.Name, Type: Float}
		case arrow.STRING:
			fields[i] = Field{Name: af.Name, Type: String}
		case arrow.TIMESTAMP:
			fields[i] = Field{Name: af.Name, Type: Timestamp}
		default:
			return nil, fmt.Errorf("column %q: unsupported arrow type %s", af.Name, af.Type)
		}
	}
	return fields, nil
}
