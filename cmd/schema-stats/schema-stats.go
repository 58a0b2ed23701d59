package main

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"golang.org/x/term"

	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/dataset"
	"github.com/willbeason/nested-relations/pkg/schema"
	"github.com/willbeason/nested-relations/pkg/tables"
	"github.com/willbeason/nested-relations/pkg/vocab"
)

const (
	FlagOut     = "out"
	FlagInverse = "inverse"

	defaultWidth = 80
)

func init() {
	config.AddFlags(cmd.Flags())
	cmd.Flags().String(FlagOut, "", "also write the schema as a parquet table to this path")
	cmd.Flags().Bool(FlagInverse, false, "print the schema keyed by argument signature")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "schema-stats CORPUS",
	Short:   "Print the predicate argument signatures observed in a corpus",
	Args:    cobra.ExactArgs(1),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrSchemaStats = errors.New("getting schema statistics")

func runE(cmd *cobra.Command, args []string) error {
	inPath := args[0]

	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaStats, err)
	}

	paths, err := corpus.Paths(inPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaStats, err)
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = defaultWidth
	}
	p := mpb.New(mpb.WithWidth(width))

	c, err := readShards(p, paths)
	if err != nil {
		return err
	}
	p.Wait()

	d, err := dataset.New(c, cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaStats, err)
	}

	inverse, err := cmd.Flags().GetBool(FlagInverse)
	if err != nil {
		return err
	}
	if inverse {
		err = printInverse(cmd.OutOrStdout(), d.Inverse(), d.Vocabulary())
	} else {
		err = printSchema(cmd.OutOrStdout(), d.Schema())
	}
	if err != nil {
		return fmt.Errorf("%w: printing: %w", ErrSchemaStats, err)
	}

	outPath, err := cmd.Flags().GetString(FlagOut)
	if err != nil {
		return err
	}
	if outPath == "" {
		return nil
	}

	err = writeSchema(d.Schema(), outPath)
	if err != nil {
		return fmt.Errorf("%w: writing %q: %w", ErrSchemaStats, outPath, err)
	}
	return nil
}

// readShards reads each shard in turn, advancing a bar per shard.
func readShards(p *mpb.Progress, paths []string) (*corpus.Corpus, error) {
	bar := p.AddBar(int64(len(paths)),
		mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
		mpb.PrependDecorators(decor.Name("shards")),
		mpb.PrependDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
		mpb.BarRemoveOnComplete())
	now := time.Now()

	result := &corpus.Corpus{}
	for _, path := range paths {
		shard, err := corpus.ReadFiles([]string{path})
		if err != nil {
			return nil, fmt.Errorf("%w: reading %q: %w", ErrSchemaStats, filepath.Base(path), err)
		}
		result.Sentences = append(result.Sentences, shard.Sentences...)
		result.Predicates = append(result.Predicates, shard.Predicates...)

		bar.IncrBy(1, time.Since(now))
	}

	return result, nil
}

func signatureSymbols(signature schema.Signature, v *vocab.Vocabulary) []string {
	ids := signature.IDs()
	result := make([]string, len(ids))
	for i, id := range ids {
		result[i] = v.Symbol(id)
	}
	return result
}

func printSchema(w io.Writer, s *schema.Schema) error {
	v := s.Vocabulary()
	for _, e := range s.Entries() {
		_, err := fmt.Fprintf(w, "%s;(%s);%d\n", v.Symbol(e.Predicate),
			strings.Join(signatureSymbols(e.Signature, v), ","), e.Count)
		if err != nil {
			return err
		}
	}
	return nil
}

func printInverse(w io.Writer, inv *schema.Inverse, v *vocab.Vocabulary) error {
	for _, signature := range inv.Signatures() {
		var predicates []string
		for _, predicate := range inv.Predicates(signature) {
			predicates = append(predicates, fmt.Sprintf("%s:%d", v.Symbol(predicate), inv.Count(signature, predicate)))
		}
		_, err := fmt.Fprintf(w, "(%s);%s\n",
			strings.Join(signatureSymbols(signature, v), ","), strings.Join(predicates, ","))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeSchema(s *schema.Schema, outPath string) error {
	v := s.Vocabulary()

	allocator := memory.NewGoAllocator()
	recordBuilder := array.NewRecordBuilder(allocator, tables.PredicateSchema)
	defer recordBuilder.Release()

	fields := recordBuilder.Fields()
	predicateIdField := fields[0].(*array.Int32Builder)
	predicateField := fields[1].(*array.BinaryDictionaryBuilder)
	signatureIdsField := fields[2].(*array.ListBuilder)
	signatureIdValues := signatureIdsField.ValueBuilder().(*array.Int32Builder)
	signatureField := fields[3].(*array.ListBuilder)
	signatureValues := signatureField.ValueBuilder().(*array.StringBuilder)
	frequencyField := fields[4].(*array.Uint32Builder)

	for _, e := range s.Entries() {
		predicateIdField.Append(int32(e.Predicate))
		err := predicateField.AppendString(v.Symbol(e.Predicate))
		if err != nil {
			return fmt.Errorf("appending predicate: %w", err)
		}

		signatureIdsField.Append(true)
		signatureField.Append(true)
		for _, id := range e.Signature.IDs() {
			signatureIdValues.Append(int32(id))
			signatureValues.Append(v.Symbol(id))
		}

		frequencyField.Append(uint32(e.Count))
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	// Don't close outFile; parquet handles closing it.
	writer, err := pqarrow.NewFileWriter(
		tables.PredicateSchema,
		outFile,
		parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Gzip),
			parquet.WithCompressionLevel(gzip.BestCompression)),
		pqarrow.DefaultWriterProps(),
	)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	record := recordBuilder.NewRecord()
	defer record.Release()

	err = writer.Write(record)
	if err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing record: %w", err)
	}

	return writer.Close()
}
