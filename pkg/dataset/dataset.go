// Package dataset turns a parsed corpus into labeled candidate lattices, one
// Sample per sentence, and caches the result on disk.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/willbeason/nested-relations/pkg/candidates"
	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/goldgraph"
	"github.com/willbeason/nested-relations/pkg/schema"
	"github.com/willbeason/nested-relations/pkg/vocab"
)

var ErrBuildDataset = errors.New("building dataset")

// Dataset owns the corpus-wide vocabulary and schema and the ordered
// collection of processed samples.
type Dataset struct {
	cfg    config.Config
	logger *slog.Logger

	sentences  []*corpus.Sentence
	vocabulary *vocab.Vocabulary
	schema     *schema.Schema
	inverse    *schema.Inverse
	featurizer vocab.Featurizer
	generator  *candidates.Generator

	onProcessed func()

	samples    []*Sample
	exclusions []Exclusion
}

// Exclusion records a sentence left out of the samples.
type Exclusion struct {
	Index int
	ID    string
	Err   error
}

// Report summarizes one preparation run.
type Report struct {
	Samples    int
	Exclusions []Exclusion
	Candidates int
	Positives  int
}

type Option func(*Dataset)

// WithLogger replaces slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dataset) { d.logger = logger }
}

// WithFeaturizer replaces the corpus word index as the text featurizer.
func WithFeaturizer(f vocab.Featurizer) Option {
	return func(d *Dataset) { d.featurizer = f }
}

// WithProgress registers a callback run once per processed sentence. It may
// be called from several goroutines at once.
func WithProgress(fn func()) Option {
	return func(d *Dataset) { d.onProcessed = fn }
}

// New builds the vocabulary, schema and inverse schema of the corpus.
// Sentences which are malformed or excluded by configuration do not
// contribute to the schema.
func New(c *corpus.Corpus, cfg config.Config, opts ...Option) (*Dataset, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		cfg:       cfg,
		logger:    slog.Default(),
		sentences: c.Sentences,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.vocabulary = vocab.Build(c, cfg)
	if d.featurizer == nil {
		d.featurizer = vocab.BuildWords(c)
	}

	excluded := cfg.Excluded()
	var valid []*corpus.Sentence
	for i, s := range c.Sentences {
		if _, skip := excluded[i]; skip {
			continue
		}
		if s.Validate() != nil {
			continue
		}
		valid = append(valid, s)
	}

	d.schema, err = schema.Build(valid, d.vocabulary, cfg.NestedSchema)
	if err != nil {
		return nil, fmt.Errorf("%w: building schema: %w", ErrBuildDataset, err)
	}
	d.inverse = schema.Invert(d.schema)
	d.generator = candidates.NewGenerator(d.inverse, cfg)

	d.logger.Info("dataset: corpus indexed",
		"sentences", len(c.Sentences),
		"elements", d.vocabulary.Len(),
		"schema_entries", d.schema.Len(),
		"signatures", d.inverse.Len())

	return d, nil
}

// Prepare processes every sentence on a fixed-size worker pool and replaces
// the samples with the results, in corpus order. Sentences failing with an
// excludable error are recorded as exclusions; any other error aborts
// preparation.
func (d *Dataset) Prepare(ctx context.Context) (*Report, error) {
	results := make([]*Sample, len(d.sentences))
	failures := make([]error, len(d.sentences))
	excluded := d.cfg.Excluded()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.WorkerCount())

	for i, s := range d.sentences {
		if _, skip := excluded[i]; skip {
			failures[i] = errExcludedByConfig
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			sample, err := d.process(i, s)
			if d.onProcessed != nil {
				d.onProcessed()
			}
			switch {
			case err == nil:
				results[i] = sample
			case corpus.Excludable(err):
				failures[i] = err
			default:
				return fmt.Errorf("%w: sentence %d (%q): %w", ErrBuildDataset, i, s.ID, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildDataset, ctx.Err())
	}

	report := &Report{}
	d.samples = nil
	d.exclusions = nil
	for i, sample := range results {
		if failures[i] != nil {
			exclusion := Exclusion{Index: i, ID: d.sentences[i].ID, Err: failures[i]}
			d.exclusions = append(d.exclusions, exclusion)
			d.logger.Warn("dataset: sentence excluded", "index", i, "id", exclusion.ID, "error", exclusion.Err)
			continue
		}
		d.samples = append(d.samples, sample)
		report.Candidates += sample.Candidates()
		report.Positives += sample.Positives()
	}
	report.Samples = len(d.samples)
	report.Exclusions = d.Exclusions()

	d.logger.Info("dataset: prepared",
		"samples", report.Samples,
		"exclusions", len(report.Exclusions),
		"candidates", report.Candidates,
		"positives", report.Positives)

	return report, nil
}

var errExcludedByConfig = errors.New("excluded by configuration")

// process builds the gold graphs of one sentence and runs candidate
// generation over its entities.
func (d *Dataset) process(index int, s *corpus.Sentence) (*Sample, error) {
	err := s.Validate()
	if err != nil {
		return nil, err
	}

	var entityTypes []int
	var spans [][]int32
	entityElements := make(map[string]int)
	for _, e := range s.Entities {
		if corpus.IsRelationship(e.Type, d.cfg.RelationshipMarker) {
			continue
		}

		typeID, err := d.vocabulary.Entity(e.Type)
		if err != nil {
			return nil, err
		}

		span, truncated := entitySpan(e.Tokens, d.cfg.MaxEntityTokens)
		if truncated {
			d.logger.Debug("dataset: entity span truncated", "sentence", s.ID, "entity", e.ID, "tokens", len(e.Tokens))
		}

		entityElements[e.ID] = len(entityTypes)
		entityTypes = append(entityTypes, typeID)
		spans = append(spans, span)
	}
	if len(entityTypes) == 0 {
		return nil, fmt.Errorf("%w: sentence %q", corpus.ErrEmptySentence, s.ID)
	}

	graphs, err := goldgraph.BuildAll(s, d.vocabulary, entityElements)
	if err != nil {
		return nil, err
	}

	elements, err := d.generator.Generate(entityTypes, graphs)
	if err != nil {
		return nil, err
	}

	return newSample(index, s.ID, s.Text, d.featurizer.Featurize(s.Text), spans, elements), nil
}

// LoadOrPrepare loads the samples cached at path if the file exists, and
// otherwise prepares them and writes them to path. It reports whether the
// cache was used.
func (d *Dataset) LoadOrPrepare(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		d.logger.Info("dataset: loading cached samples", "path", path)
		return true, d.Load(ctx, path)
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("%w: stat %q: %w", ErrSamplesFile, path, err)
	}

	d.logger.Info("dataset: no cached samples, preparing", "path", path)
	_, err = d.Prepare(ctx)
	if err != nil {
		return false, err
	}

	return false, d.Save(path)
}

// Save writes the samples to path.
func (d *Dataset) Save(path string) error {
	return WriteSamples(path, d.samples, d.provenance())
}

// Load replaces the samples with those stored at path.
func (d *Dataset) Load(ctx context.Context, path string) error {
	samples, provenance, err := ReadSamples(ctx, path)
	if err != nil {
		return err
	}

	if provenance.MaxLayers != 0 && provenance.MaxLayers != d.cfg.MaxLayers {
		d.logger.Warn("dataset: cached samples were built with a different layer count",
			"path", path, "cached", provenance.MaxLayers, "configured", d.cfg.MaxLayers)
	}

	d.samples = samples
	d.exclusions = nil
	return nil
}

// Split cuts the samples into contiguous positional partitions.
func (d *Dataset) Split(fractions ...float64) [][]*Sample {
	ranges := Split(len(d.samples), fractions...)
	result := make([][]*Sample, len(ranges))
	for i, r := range ranges {
		result[i] = d.samples[r.Start:r.End]
	}
	return result
}

// Len counts the samples.
func (d *Dataset) Len() int {
	return len(d.samples)
}

// Sample returns the i-th sample.
func (d *Dataset) Sample(i int) *Sample {
	return d.samples[i]
}

func (d *Dataset) Samples() []*Sample {
	return d.samples
}

// Exclusions lists the sentences left out by the last Prepare, in corpus
// order.
func (d *Dataset) Exclusions() []Exclusion {
	result := append([]Exclusion(nil), d.exclusions...)
	sort.Slice(result, func(i, j int) bool { return result[i].Index < result[j].Index })
	return result
}

func (d *Dataset) Vocabulary() *vocab.Vocabulary {
	return d.vocabulary
}

func (d *Dataset) Schema() *schema.Schema {
	return d.schema
}

func (d *Dataset) Inverse() *schema.Inverse {
	return d.inverse
}

func (d *Dataset) Config() config.Config {
	return d.cfg
}
