package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"gridhost/internal/engine"
	"gridhost/internal/models"
)

// DynamicDataType is the arrow shape of models.DynamicData.
var DynamicDataType = arrow.StructOf(
	arrow.Field{Name: "x", Type: arrow.BinaryTypes.String},
	arrow.Field{Name: "y", Type: arrow.BinaryTypes.String},
)

// Schema has the fixed columns followed by one nullable struct column per key.
func Schema(columns []models.ColumnDescriptor) *arrow.Schema {
	fields := []arrow.Field{
		{Name: "index", Type: arrow.PrimitiveTypes.Int64},
		{Name: "a", Type: arrow.BinaryTypes.String},
		{Name: "b", Type: arrow.BinaryTypes.String},
	}
	for _, c := range columns {
		fields = append(fields, arrow.Field{
			Name:     c.Key,
			Type:     DynamicDataType,
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{"group", "value_type"}, []string{c.Group, c.ValueType}),
		})
	}
	return arrow.NewSchema(fields, nil)
}

// Record materializes snap. A row missing a key gets a null in that column.
// The caller releases the record.
func Record(alloc memory.Allocator, snap engine.Snapshot) arrow.Record {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	schema := Schema(snap.Columns)

	indexB := array.NewInt64Builder(alloc)
	aB := array.NewStringBuilder(alloc)
	bB := array.NewStringBuilder(alloc)
	dyn := make([]*array.StructBuilder, len(snap.Columns))
	for i := range dyn {
		dyn[i] = array.NewStructBuilder(alloc, DynamicDataType)
	}

	for _, r := range snap.Rows {
		indexB.Append(int64(r.Index))
		aB.Append(r.A)
		bB.Append(r.B)
		for i, c := range snap.Columns {
			v, ok := snap.Cell(r, c.Key)
			if !ok {
				dyn[i].AppendNull()
				continue
			}
			dyn[i].Append(true)
			dyn[i].FieldBuilder(0).(*array.StringBuilder).Append(v.X)
			dyn[i].FieldBuilder(1).(*array.StringBuilder).Append(v.Y)
		}
	}

	builders := []array.Builder{indexB, aB, bB}
	for _, b := range dyn {
		builders = append(builders, b)
	}

	cols := make([]arrow.Array, 0, len(builders))
	for _, b := range builders {
		cols = append(cols, b.NewArray())
		b.Release()
	}

	rec := array.NewRecord(schema, cols, int64(len(snap.Rows)))
	for _, col := range cols {
		col.Release()
	}
	return rec
}

// WriteIPC writes snap to w as an Arrow IPC stream with a single record batch.
func WriteIPC(w io.Writer, alloc memory.Allocator, snap engine.Snapshot) error {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	rec := Record(alloc, snap)
	defer rec.Release()

	iw := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(alloc))
	if err := iw.Write(rec); err != nil {
		iw.Close()
		return fmt.Errorf("write record batch: %w", err)
	}
	if err := iw.Close(); err != nil {
		return fmt.Errorf("close ipc stream: %w", err)
	}
	return nil
}
