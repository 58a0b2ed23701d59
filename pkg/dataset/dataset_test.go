package dataset_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/dataset"
)

var quiet = dataset.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

func entity(id, entityType string, tokens ...int) *corpus.Entity {
	return &corpus.Entity{ID: id, Type: entityType, Tokens: tokens}
}

func leaf(e *corpus.Entity) corpus.Node {
	return &corpus.EntityNode{Entity: e}
}

func pred(name string, args ...corpus.Node) *corpus.PredicateNode {
	return &corpus.PredicateNode{Predicate: name, Args: args}
}

func sentence(id, text string, tokens []string, entities []*corpus.Entity, roots ...corpus.Node) *corpus.Sentence {
	s := &corpus.Sentence{ID: id, Text: text, Tokens: tokens, Entities: entities}
	for _, root := range roots {
		s.Formulas = append(s.Formulas, &corpus.Formula{Root: root})
	}
	return s
}

// goldSentence holds entities A and B joined by P(A,B).
func goldSentence() *corpus.Sentence {
	a, b := entity("a", "A", 0), entity("b", "B", 2)
	return sentence("s0", "alpha binds beta", []string{"alpha", "binds", "beta"},
		[]*corpus.Entity{a, b}, pred("P", leaf(a), leaf(b)))
}

// pairSentence holds two A entities and no formulas.
func pairSentence() *corpus.Sentence {
	return sentence("s1", "alpha alpha", []string{"alpha", "alpha"},
		[]*corpus.Entity{entity("a1", "A", 0), entity("a2", "A", 1)})
}

func span(tokens ...int32) []int32 {
	result := []int32{-1, -1, -1, -1, -1}
	copy(result, tokens)
	return result
}

func testConfig(maxLayers, workers int) config.Config {
	cfg := config.Default()
	cfg.MaxLayers = maxLayers
	cfg.Workers = workers
	return cfg
}

func TestPrepare(t *testing.T) {
	c := &corpus.Corpus{Sentences: []*corpus.Sentence{goldSentence(), pairSentence()}}

	d, err := dataset.New(c, testConfig(1, 1), quiet)
	require.NoError(t, err)

	report, err := d.Prepare(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Exclusions)

	// Vocabulary: e-A=0 e-B=1 p-P=2. Words: alpha=1 beta=2 binds=3.
	want := []*dataset.Sample{{
		Index:        0,
		ID:           "s0",
		Text:         "alpha binds beta",
		TokenIDs:     []int32{1, 3, 2},
		EntitySpans:  [][]int32{span(0), span(2)},
		ElementNames: []int32{0, 1, 2},
		S:            [][2]int32{{-1, -1}, {-1, -1}, {0, 1}},
		L:            []int32{0, 0, 1},
		Labels:       []bool{true, true, true},
		IsEntity:     []bool{true, true, false},
	}, {
		// (A,A) licenses no predicate.
		Index:        1,
		ID:           "s1",
		Text:         "alpha alpha",
		TokenIDs:     []int32{1, 1},
		EntitySpans:  [][]int32{span(0), span(1)},
		ElementNames: []int32{0, 0},
		S:            [][2]int32{{-1, -1}, {-1, -1}},
		L:            []int32{0, 0},
		Labels:       []bool{true, true},
		IsEntity:     []bool{true, true},
	}}
	if diff := cmp.Diff(want, d.Samples()); diff != "" {
		t.Errorf("Samples (-want +got):\n%s", diff)
	}

	require.Equal(t, 1, report.Candidates)
	require.Equal(t, 1, report.Positives)
	require.Equal(t, []int32{0, 1, 2}, d.Sample(0).T())
}

func TestPrepareExclusions(t *testing.T) {
	a := entity("a", "A", 0)
	rel := entity("r", "BIND-RELATIONSHIP", 1)

	c := &corpus.Corpus{Sentences: []*corpus.Sentence{
		goldSentence(),
		sentence("empty", "", nil, nil),
		sentence("entity-root", "alpha", []string{"alpha"}, []*corpus.Entity{a}, leaf(a)),
		sentence("relationship-only", "binds", []string{"binds"}, []*corpus.Entity{rel}),
		pairSentence(),
		{ID: "unparsed", Invalid: fmt.Errorf("%w: argument refers to unknown entity", corpus.ErrInvalidFormula)},
	}}

	cfg := testConfig(2, 3)
	cfg.ExcludeSentences = []int{4}

	var processed atomic.Int64
	d, err := dataset.New(c, cfg, quiet, dataset.WithProgress(func() { processed.Add(1) }))
	require.NoError(t, err)

	report, err := d.Prepare(context.Background())
	require.NoError(t, err)

	require.Equal(t, 1, d.Len())
	require.Equal(t, "s0", d.Sample(0).ID)
	require.Equal(t, int64(5), processed.Load())

	exclusions := d.Exclusions()
	require.Equal(t, report.Exclusions, exclusions)

	var ids []string
	for _, e := range exclusions {
		ids = append(ids, fmt.Sprintf("%d:%s", e.Index, e.ID))
	}
	require.Equal(t, []string{"1:empty", "2:entity-root", "3:relationship-only", "4:s1", "5:unparsed"}, ids)

	require.ErrorIs(t, exclusions[0].Err, corpus.ErrEmptySentence)
	require.ErrorIs(t, exclusions[1].Err, corpus.ErrInvalidFormula)
	require.ErrorIs(t, exclusions[2].Err, corpus.ErrEmptySentence)
	require.EqualError(t, exclusions[3].Err, "excluded by configuration")
	require.ErrorIs(t, exclusions[4].Err, corpus.ErrInvalidFormula)
}

func TestNewCorpusIntegrity(t *testing.T) {
	a := entity("a", "A", 0)
	rel := entity("r", "BIND-RELATIONSHIP", 1)
	c := &corpus.Corpus{Sentences: []*corpus.Sentence{
		sentence("s", "alpha binds", []string{"alpha", "binds"}, []*corpus.Entity{a, rel},
			pred("P", leaf(a), leaf(rel))),
	}}

	_, err := dataset.New(c, testConfig(2, 1), quiet)
	if !errors.Is(err, corpus.ErrCorpusIntegrity) {
		t.Errorf("New() = %v, want ErrCorpusIntegrity", err)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := dataset.New(&corpus.Corpus{}, testConfig(0, 1), quiet)
	require.ErrorIs(t, err, config.ErrConfig)
}

// largeCorpus builds n sentences of varying shape over types A, B and C.
func largeCorpus(n int) *corpus.Corpus {
	c := &corpus.Corpus{}
	for i := range n {
		a := entity("a", "A", 0)
		b := entity("b", "B", 1)
		cc := entity("c", "C", 2)
		tokens := []string{"alpha", "beta", "gamma"}
		text := "alpha beta gamma"

		var s *corpus.Sentence
		switch i % 4 {
		case 0:
			s = sentence("", text, tokens, []*corpus.Entity{a, b, cc},
				pred("Q", pred("P", leaf(a), leaf(b)), leaf(cc)))
		case 1:
			s = sentence("", text, tokens, []*corpus.Entity{a, b}, pred("P", leaf(a), leaf(b)))
		case 2:
			s = sentence("", text, tokens, []*corpus.Entity{b, cc, a})
		default:
			s = sentence("", "", nil, nil)
		}
		s.ID = fmt.Sprintf("s%03d", i)
		c.Sentences = append(c.Sentences, s)
	}
	return c
}

func TestPrepareOrderIndependentOfWorkers(t *testing.T) {
	c := largeCorpus(64)

	serial, err := dataset.New(c, testConfig(2, 1), quiet)
	require.NoError(t, err)
	_, err = serial.Prepare(context.Background())
	require.NoError(t, err)

	parallel, err := dataset.New(c, testConfig(2, 8), quiet)
	require.NoError(t, err)
	_, err = parallel.Prepare(context.Background())
	require.NoError(t, err)

	require.Equal(t, 48, serial.Len())
	if diff := cmp.Diff(serial.Samples(), parallel.Samples()); diff != "" {
		t.Errorf("parallel samples differ (-serial +parallel):\n%s", diff)
	}

	for i := 1; i < parallel.Len(); i++ {
		if parallel.Sample(i).Index <= parallel.Sample(i-1).Index {
			t.Fatalf("sample %d has corpus index %d after %d", i, parallel.Sample(i).Index, parallel.Sample(i-1).Index)
		}
	}
}

func TestPrepareIdempotent(t *testing.T) {
	d, err := dataset.New(largeCorpus(16), testConfig(2, 4), quiet)
	require.NoError(t, err)

	first, err := d.Prepare(context.Background())
	require.NoError(t, err)
	firstSamples := d.Samples()

	second, err := d.Prepare(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(firstSamples, d.Samples()); diff != "" {
		t.Errorf("second Prepare differs (-first +second):\n%s", diff)
	}
	require.Equal(t, first.Positives, second.Positives)
	require.Equal(t, first.Candidates, second.Candidates)
}

func TestPrepareCancelled(t *testing.T) {
	d, err := dataset.New(largeCorpus(16), testConfig(2, 2), quiet)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Prepare(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSaveLoad(t *testing.T) {
	cfg := testConfig(2, 2)
	d, err := dataset.New(largeCorpus(12), cfg, quiet)
	require.NoError(t, err)
	_, err = d.Prepare(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "samples.parquet")
	require.NoError(t, d.Save(path))

	samples, provenance, err := dataset.ReadSamples(context.Background(), path)
	require.NoError(t, err)

	if diff := cmp.Diff(d.Samples(), samples, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("ReadSamples (-saved +read):\n%s", diff)
	}

	require.NotEmpty(t, provenance.BuildID)
	require.Equal(t, 2, provenance.MaxLayers)
	require.Equal(t, d.Len(), provenance.SampleCount)
	require.Equal(t, cfg.EntityPrefix, provenance.EntityPrefix)
	require.Equal(t, cfg.PredicatePrefix, provenance.PredicatePrefix)
}

func TestLoadOrPrepare(t *testing.T) {
	c := largeCorpus(8)
	path := filepath.Join(t.TempDir(), "samples.parquet")

	prepared, err := dataset.New(c, testConfig(2, 2), quiet)
	require.NoError(t, err)
	cached, err := prepared.LoadOrPrepare(context.Background(), path)
	require.NoError(t, err)
	require.False(t, cached)
	require.FileExists(t, path)

	// A different layer count is not detected beyond a warning.
	loaded, err := dataset.New(c, testConfig(3, 2), quiet)
	require.NoError(t, err)
	cached, err = loaded.LoadOrPrepare(context.Background(), path)
	require.NoError(t, err)
	require.True(t, cached)

	if diff := cmp.Diff(prepared.Samples(), loaded.Samples(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("cached samples differ (-prepared +loaded):\n%s", diff)
	}
}

func TestReadSamplesMissingFile(t *testing.T) {
	_, _, err := dataset.ReadSamples(context.Background(), filepath.Join(t.TempDir(), "missing.parquet"))
	require.ErrorIs(t, err, dataset.ErrSamplesFile)
}

func TestDatasetSplit(t *testing.T) {
	d, err := dataset.New(largeCorpus(40), testConfig(2, 2), quiet)
	require.NoError(t, err)
	_, err = d.Prepare(context.Background())
	require.NoError(t, err)

	parts := d.Split()
	require.Len(t, parts, 3)
	require.Len(t, parts[0], 21)
	require.Len(t, parts[1], 6)
	require.Len(t, parts[2], 3)
	require.Equal(t, d.Sample(21), parts[1][0])
}
