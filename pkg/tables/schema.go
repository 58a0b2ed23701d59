package tables

import "github.com/apache/arrow/go/v18/arrow"

const PredicateSchemaName = "predicate_schema"

const (
	PredicateIdFieldName  = "predicate_id"
	PredicateFieldName    = "predicate"
	SignatureIdsFieldName = "signature_ids"
	SignatureFieldName    = "signature"
	FrequencyFieldName    = "frequency"
)

var PredicateSchema = arrow.NewSchema([]arrow.Field{
	{Name: PredicateIdFieldName,
		Type: arrow.PrimitiveTypes.Int32,
		Metadata: NewMetadataBuilder().Add(
			comment, "Vocabulary id of the predicate",
		).Build()},
	{Name: PredicateFieldName,
		Type: &arrow.DictionaryType{
			IndexType: arrow.PrimitiveTypes.Uint16,
			ValueType: arrow.BinaryTypes.String,
			Ordered:   false,
		},
		Metadata: NewMetadataBuilder().Add(
			comment, "Prefixed predicate symbol",
		).Build()},
	{Name: SignatureIdsFieldName,
		Type: int32List(),
		Metadata: NewMetadataBuilder().Add(
			comment, "Sorted, deduplicated vocabulary ids of the argument types",
		).Build()},
	{Name: SignatureFieldName,
		Type: arrow.ListOf(arrow.BinaryTypes.String),
		Metadata: NewMetadataBuilder().Add(
			comment, "Prefixed symbols of the argument types",
		).Build()},
	{Name: FrequencyFieldName,
		Type: arrow.PrimitiveTypes.Uint32,
		Metadata: NewMetadataBuilder().Add(
			comment, "Number of gold formulas taking the predicate with this signature",
		).Build()},
}, NewMetadataBuilder().Add(
	comment, "Argument signatures observed for each predicate in the gold corpus",
).BuildReference())
