package tables

import "github.com/apache/arrow/go/v18/arrow"

const SamplesName = "samples"

// Column names of the samples table.
const (
	SentenceIndexFieldName  = "sentence_index"
	SentenceIdFieldName     = "sentence_id"
	TextFieldName           = "text"
	TokenIdsFieldName       = "token_ids"
	EntitySpansFieldName    = "entity_spans"
	ElementNamesFieldName   = "element_names"
	ArgumentsLeftFieldName  = "arguments_left"
	ArgumentsRightFieldName = "arguments_right"
	LayersFieldName         = "layers"
	LabelsFieldName         = "labels"
	IsEntityFieldName       = "is_entity"
)

// Keys of the samples table metadata.
const (
	BuildIdKey         = "build_id"
	MaxLayersKey       = "max_layers"
	EntityPrefixKey    = "entity_prefix"
	PredicatePrefixKey = "predicate_prefix"
	SampleCountKey     = "sample_count"
)

var samplesFields = []arrow.Field{
	{Name: SentenceIndexFieldName,
		Type: arrow.PrimitiveTypes.Uint32,
		Metadata: NewMetadataBuilder().Add(
			comment, "The position of the sentence in the corpus",
		).Build()},
	{Name: SentenceIdFieldName,
		Type: arrow.BinaryTypes.String,
		Metadata: NewMetadataBuilder().Add(
			comment, "The corpus identifier of the sentence",
		).Build()},
	{Name: TextFieldName,
		Type: arrow.BinaryTypes.String,
		Metadata: NewMetadataBuilder().Add(
			comment, "The raw sentence text",
		).Build()},
	{Name: TokenIdsFieldName,
		Type: int32List(),
		Metadata: NewMetadataBuilder().Add(
			comment, "Word-index token ids of the sentence text, 0 for unknown words",
		).Build()},
	{Name: EntitySpansFieldName,
		Type: arrow.ListOf(int32List()),
		Metadata: NewMetadataBuilder().Add(
			comment, "Token positions of each gold entity, padded with -1",
		).Build()},
	{Name: ElementNamesFieldName,
		Type: int32List(),
		Metadata: NewMetadataBuilder().Add(
			comment, "Vocabulary id of every element",
		).Build()},
	{Name: ArgumentsLeftFieldName,
		Type: int32List(),
		Metadata: NewMetadataBuilder().Add(
			comment, "Index of the lower argument element of every element, -1 for entities",
		).Build()},
	{Name: ArgumentsRightFieldName,
		Type: int32List(),
		Metadata: NewMetadataBuilder().Add(
			comment, "Index of the higher argument element of every element, -1 for entities",
		).Build()},
	{Name: LayersFieldName,
		Type: int32List(),
		Metadata: NewMetadataBuilder().Add(
			comment, "Iteration which produced every element, 0 for gold entities",
		).Build()},
	{Name: LabelsFieldName,
		Type: arrow.ListOf(arrow.FixedWidthTypes.Boolean),
		Metadata: NewMetadataBuilder().Add(
			comment, "Whether every element is supported by the gold relations",
		).Build()},
	{Name: IsEntityFieldName,
		Type: arrow.ListOf(arrow.FixedWidthTypes.Boolean),
		Metadata: NewMetadataBuilder().Add(
			comment, "Whether every element is a gold entity",
		).Build()},
}

// Samples returns the schema of the processed samples table, carrying the
// given build metadata.
func Samples(metadata *MetadataBuilder) *arrow.Schema {
	return arrow.NewSchema(samplesFields, metadata.Add(
		comment, "Layered candidate relations of the corpus sentences",
	).BuildReference())
}
