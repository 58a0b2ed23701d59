package tables

import "github.com/apache/arrow/go/v18/arrow"

const (
	ParquetExt = ".parquet"
)

// FieldIndices maps each field name of schema to its position.
func FieldIndices(schema *arrow.Schema) map[string]int {
	result := make(map[string]int, schema.NumFields())
	for i, field := range schema.Fields() {
		result[field.Name] = i
	}
	return result
}

func int32List() arrow.DataType {
	return arrow.ListOf(arrow.PrimitiveTypes.Int32)
}
