package dataset

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/google/uuid"

	"github.com/willbeason/nested-relations/pkg/tables"
)

var ErrSamplesFile = errors.New("samples file")

const (
	batchSize = 1 << 12

	// flushEvery bounds the number of samples buffered before a row group is
	// written.
	flushEvery = 1 << 14
)

// Provenance describes the build which produced a samples file.
type Provenance struct {
	BuildID         string
	MaxLayers       int
	EntityPrefix    string
	PredicatePrefix string
	SampleCount     int
}

func (d *Dataset) provenance() Provenance {
	return Provenance{
		BuildID:         uuid.NewString(),
		MaxLayers:       d.cfg.MaxLayers,
		EntityPrefix:    d.cfg.EntityPrefix,
		PredicatePrefix: d.cfg.PredicatePrefix,
		SampleCount:     len(d.samples),
	}
}

func (p Provenance) metadata() *tables.MetadataBuilder {
	return tables.NewMetadataBuilder().
		Add(tables.BuildIdKey, p.BuildID).
		AddInt(tables.MaxLayersKey, p.MaxLayers).
		Add(tables.EntityPrefixKey, p.EntityPrefix).
		Add(tables.PredicatePrefixKey, p.PredicatePrefix).
		AddInt(tables.SampleCountKey, p.SampleCount)
}

func readProvenance(md arrow.Metadata) (Provenance, error) {
	p := Provenance{}
	p.BuildID, _ = tables.MetadataValue(md, tables.BuildIdKey)
	p.EntityPrefix, _ = tables.MetadataValue(md, tables.EntityPrefixKey)
	p.PredicatePrefix, _ = tables.MetadataValue(md, tables.PredicatePrefixKey)

	var err error
	p.MaxLayers, err = tables.MetadataInt(md, tables.MaxLayersKey)
	if err != nil {
		return p, fmt.Errorf("parsing %s: %w", tables.MaxLayersKey, err)
	}
	p.SampleCount, err = tables.MetadataInt(md, tables.SampleCountKey)
	if err != nil {
		return p, fmt.Errorf("parsing %s: %w", tables.SampleCountKey, err)
	}
	return p, nil
}

// samplesBuilder appends samples to the columns of the samples table.
type samplesBuilder struct {
	*array.RecordBuilder

	sentenceIndex  *array.Uint32Builder
	sentenceId     *array.StringBuilder
	text           *array.StringBuilder
	tokenIds       *array.ListBuilder
	entitySpans    *array.ListBuilder
	elementNames   *array.ListBuilder
	argumentsLeft  *array.ListBuilder
	argumentsRight *array.ListBuilder
	layers         *array.ListBuilder
	labels         *array.ListBuilder
	isEntity       *array.ListBuilder
}

func newSamplesBuilder(allocator memory.Allocator, schema *arrow.Schema) *samplesBuilder {
	b := &samplesBuilder{RecordBuilder: array.NewRecordBuilder(allocator, schema)}

	fields := tables.FieldIndices(schema)
	b.sentenceIndex = b.Field(fields[tables.SentenceIndexFieldName]).(*array.Uint32Builder)
	b.sentenceId = b.Field(fields[tables.SentenceIdFieldName]).(*array.StringBuilder)
	b.text = b.Field(fields[tables.TextFieldName]).(*array.StringBuilder)
	b.tokenIds = b.Field(fields[tables.TokenIdsFieldName]).(*array.ListBuilder)
	b.entitySpans = b.Field(fields[tables.EntitySpansFieldName]).(*array.ListBuilder)
	b.elementNames = b.Field(fields[tables.ElementNamesFieldName]).(*array.ListBuilder)
	b.argumentsLeft = b.Field(fields[tables.ArgumentsLeftFieldName]).(*array.ListBuilder)
	b.argumentsRight = b.Field(fields[tables.ArgumentsRightFieldName]).(*array.ListBuilder)
	b.layers = b.Field(fields[tables.LayersFieldName]).(*array.ListBuilder)
	b.labels = b.Field(fields[tables.LabelsFieldName]).(*array.ListBuilder)
	b.isEntity = b.Field(fields[tables.IsEntityFieldName]).(*array.ListBuilder)

	return b
}

func appendInt32s(b *array.ListBuilder, values []int32) {
	b.Append(true)
	b.ValueBuilder().(*array.Int32Builder).AppendValues(values, nil)
}

func appendBools(b *array.ListBuilder, values []bool) {
	b.Append(true)
	b.ValueBuilder().(*array.BooleanBuilder).AppendValues(values, nil)
}

func (b *samplesBuilder) append(s *Sample) {
	b.sentenceIndex.Append(uint32(s.Index))
	b.sentenceId.Append(s.ID)
	b.text.Append(s.Text)
	appendInt32s(b.tokenIds, s.TokenIDs)

	b.entitySpans.Append(true)
	spans := b.entitySpans.ValueBuilder().(*array.ListBuilder)
	for _, span := range s.EntitySpans {
		appendInt32s(spans, span)
	}

	left := make([]int32, s.Len())
	right := make([]int32, s.Len())
	for i, args := range s.S {
		left[i], right[i] = args[0], args[1]
	}

	appendInt32s(b.elementNames, s.ElementNames)
	appendInt32s(b.argumentsLeft, left)
	appendInt32s(b.argumentsRight, right)
	appendInt32s(b.layers, s.L)
	appendBools(b.labels, s.Labels)
	appendBools(b.isEntity, s.IsEntity)
}

// WriteSamples writes samples to a gzip-compressed parquet file at path,
// recording provenance in the file metadata.
func WriteSamples(path string, samples []*Sample, provenance Provenance) error {
	provenance.SampleCount = len(samples)
	schema := tables.Samples(provenance.metadata())

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %q: %w", ErrSamplesFile, path, err)
	}
	// Don't close outFile; parquet handles closing it.
	writer, err := pqarrow.NewFileWriter(
		schema,
		outFile,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip),
			parquet.WithCompressionLevel(gzip.BestCompression)),
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()),
	)
	if err != nil {
		return fmt.Errorf("%w: creating writer: %w", ErrSamplesFile, err)
	}

	builder := newSamplesBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()

	flush := func() error {
		record := builder.NewRecord()
		defer record.Release()
		return writer.Write(record)
	}

	for i, s := range samples {
		builder.append(s)
		if (i+1)%flushEvery == 0 {
			err = flush()
			if err != nil {
				_ = writer.Close()
				return fmt.Errorf("%w: writing samples: %w", ErrSamplesFile, err)
			}
		}
	}
	if len(samples)%flushEvery != 0 || len(samples) == 0 {
		err = flush()
		if err != nil {
			_ = writer.Close()
			return fmt.Errorf("%w: writing samples: %w", ErrSamplesFile, err)
		}
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("%w: closing %q: %w", ErrSamplesFile, path, err)
	}

	slog.Debug("dataset: wrote samples", "path", path, "samples", len(samples), "build_id", provenance.BuildID)
	return nil
}

// ReadSamples reads the samples and provenance stored at path by
// WriteSamples.
func ReadSamples(ctx context.Context, path string) ([]*Sample, Provenance, error) {
	allocator := memory.NewGoAllocator()
	inFileReader, err := file.OpenParquetFile(path, true)
	if err != nil {
		return nil, Provenance{}, fmt.Errorf("%w: opening parquet file %q: %w", ErrSamplesFile, path, err)
	}
	defer func() {
		_ = inFileReader.Close()
	}()

	inReader, err := pqarrow.NewFileReader(inFileReader,
		pqarrow.ArrowReadProperties{Parallel: true, BatchSize: batchSize},
		allocator,
	)
	if err != nil {
		return nil, Provenance{}, fmt.Errorf("%w: creating pqarrow FileReader: %w", ErrSamplesFile, err)
	}

	schema, err := inReader.Schema()
	if err != nil {
		return nil, Provenance{}, fmt.Errorf("%w: getting schema: %w", ErrSamplesFile, err)
	}

	provenance, err := readProvenance(schema.Metadata())
	if err != nil {
		return nil, Provenance{}, fmt.Errorf("%w: reading metadata of %q: %w", ErrSamplesFile, path, err)
	}

	fields := tables.FieldIndices(schema)
	for _, field := range tables.Samples(tables.NewMetadataBuilder()).Fields() {
		if _, found := fields[field.Name]; !found {
			return nil, Provenance{}, fmt.Errorf("%w: %q has no column %q", ErrSamplesFile, path, field.Name)
		}
	}

	recordReader, err := inReader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, Provenance{}, fmt.Errorf("%w: getting record reader: %w", ErrSamplesFile, err)
	}
	defer recordReader.Release()

	samples := make([]*Sample, 0, provenance.SampleCount)

	var record arrow.Record
	for record, err = recordReader.Read(); err == nil; record, err = recordReader.Read() {
		samples, err = appendRecord(samples, record, fields)
		if err != nil {
			return nil, Provenance{}, fmt.Errorf("%w: reading %q: %w", ErrSamplesFile, path, err)
		}
	}
	if !errors.Is(err, io.EOF) {
		return nil, Provenance{}, fmt.Errorf("%w: reading records: %w", ErrSamplesFile, err)
	}

	return samples, provenance, nil
}

type int32Lists struct {
	*array.List
	values []int32
}

func (l int32Lists) row(i int) []int32 {
	start, end := l.ValueOffsets(i)
	return append([]int32(nil), l.values[start:end]...)
}

type boolLists struct {
	*array.List
	values *array.Boolean
}

func (l boolLists) row(i int) []bool {
	start, end := l.ValueOffsets(i)
	result := make([]bool, end-start)
	for k := start; k < end; k++ {
		result[k-start] = l.values.Value(int(k))
	}
	return result
}

func int32Column(record arrow.Record, index int) (int32Lists, error) {
	list, ok := record.Column(index).(*array.List)
	if !ok {
		return int32Lists{}, fmt.Errorf("expected column %d to be of type *array.List, got %T", index, record.Column(index))
	}
	values, ok := list.ListValues().(*array.Int32)
	if !ok {
		return int32Lists{}, fmt.Errorf("expected column %d values to be of type *array.Int32, got %T", index, list.ListValues())
	}
	return int32Lists{List: list, values: values.Int32Values()}, nil
}

func boolColumn(record arrow.Record, index int) (boolLists, error) {
	list, ok := record.Column(index).(*array.List)
	if !ok {
		return boolLists{}, fmt.Errorf("expected column %d to be of type *array.List, got %T", index, record.Column(index))
	}
	values, ok := list.ListValues().(*array.Boolean)
	if !ok {
		return boolLists{}, fmt.Errorf("expected column %d values to be of type *array.Boolean, got %T", index, list.ListValues())
	}
	return boolLists{List: list, values: values}, nil
}

func appendRecord(samples []*Sample, record arrow.Record, fields map[string]int) ([]*Sample, error) {
	indexColumn, ok := record.Column(fields[tables.SentenceIndexFieldName]).(*array.Uint32)
	if !ok {
		return nil, fmt.Errorf("expected sentence index column to be of type *array.Uint32, got %T", record.Column(fields[tables.SentenceIndexFieldName]))
	}
	idColumn, ok := record.Column(fields[tables.SentenceIdFieldName]).(*array.String)
	if !ok {
		return nil, fmt.Errorf("expected sentence id column to be of type *array.String, got %T", record.Column(fields[tables.SentenceIdFieldName]))
	}
	textColumn, ok := record.Column(fields[tables.TextFieldName]).(*array.String)
	if !ok {
		return nil, fmt.Errorf("expected text column to be of type *array.String, got %T", record.Column(fields[tables.TextFieldName]))
	}

	spansColumn, ok := record.Column(fields[tables.EntitySpansFieldName]).(*array.List)
	if !ok {
		return nil, fmt.Errorf("expected entity spans column to be of type *array.List, got %T", record.Column(fields[tables.EntitySpansFieldName]))
	}
	innerSpans, ok := spansColumn.ListValues().(*array.List)
	if !ok {
		return nil, fmt.Errorf("expected entity spans values to be of type *array.List, got %T", spansColumn.ListValues())
	}
	spanValues, ok := innerSpans.ListValues().(*array.Int32)
	if !ok {
		return nil, fmt.Errorf("expected entity span values to be of type *array.Int32, got %T", innerSpans.ListValues())
	}
	spans := int32Lists{List: innerSpans, values: spanValues.Int32Values()}

	int32Columns := make(map[string]int32Lists)
	for _, name := range []string{
		tables.TokenIdsFieldName,
		tables.ElementNamesFieldName,
		tables.ArgumentsLeftFieldName,
		tables.ArgumentsRightFieldName,
		tables.LayersFieldName,
	} {
		column, err := int32Column(record, fields[name])
		if err != nil {
			return nil, err
		}
		int32Columns[name] = column
	}

	labels, err := boolColumn(record, fields[tables.LabelsFieldName])
	if err != nil {
		return nil, err
	}
	isEntity, err := boolColumn(record, fields[tables.IsEntityFieldName])
	if err != nil {
		return nil, err
	}

	for i := range int(record.NumRows()) {
		s := &Sample{
			Index:        int(indexColumn.Value(i)),
			ID:           idColumn.Value(i),
			Text:         textColumn.Value(i),
			TokenIDs:     int32Columns[tables.TokenIdsFieldName].row(i),
			ElementNames: int32Columns[tables.ElementNamesFieldName].row(i),
			L:            int32Columns[tables.LayersFieldName].row(i),
			Labels:       labels.row(i),
			IsEntity:     isEntity.row(i),
		}

		start, end := spansColumn.ValueOffsets(i)
		s.EntitySpans = make([][]int32, 0, end-start)
		for k := start; k < end; k++ {
			s.EntitySpans = append(s.EntitySpans, spans.row(int(k)))
		}

		left := int32Columns[tables.ArgumentsLeftFieldName].row(i)
		right := int32Columns[tables.ArgumentsRightFieldName].row(i)
		if len(left) != len(s.ElementNames) || len(right) != len(s.ElementNames) ||
			len(s.L) != len(s.ElementNames) || len(s.Labels) != len(s.ElementNames) || len(s.IsEntity) != len(s.ElementNames) {
			return nil, fmt.Errorf("sample %q has element columns of differing lengths", s.ID)
		}
		s.S = make([][2]int32, len(left))
		for k := range left {
			s.S[k] = [2]int32{left[k], right[k]}
		}

		samples = append(samples, s)
	}

	return samples, nil
}
