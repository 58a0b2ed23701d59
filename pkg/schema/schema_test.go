package schema_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/schema"
	"github.com/willbeason/nested-relations/pkg/vocab"
)

func entity(id, entityType string) *corpus.Entity {
	return &corpus.Entity{ID: id, Type: entityType}
}

func leaf(e *corpus.Entity) corpus.Node {
	return &corpus.EntityNode{Entity: e}
}

func pred(name string, args ...corpus.Node) *corpus.PredicateNode {
	return &corpus.PredicateNode{Predicate: name, Args: args}
}

// vocabulary ids: e-A=0 e-B=1 p-P=2 p-Q=3
func testVocabulary() *vocab.Vocabulary {
	return vocab.New([]string{"A", "B"}, []string{"P", "Q"}, config.Default())
}

func TestSignature(t *testing.T) {
	if schema.NewSignature(3, 1) != schema.NewSignature(1, 3) {
		t.Errorf("signature depends on argument order")
	}
	if diff := cmp.Diff([]int{1, 1}, schema.NewSignature(1, 1).IDs()); diff != "" {
		t.Errorf("NewSignature(1, 1) (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1}, schema.SetSignature(1, 1).IDs()); diff != "" {
		t.Errorf("SetSignature(1, 1) (-want +got):\n%s", diff)
	}
	if schema.NewSignature().IDs() != nil {
		t.Errorf("empty signature has ids")
	}
}

func TestBuild(t *testing.T) {
	a, b, a2 := entity("a", "A"), entity("b", "B"), entity("a2", "A")
	sentences := []*corpus.Sentence{
		{ID: "s0", Formulas: []*corpus.Formula{
			{Root: pred("P", leaf(a), leaf(b))},
			{Root: pred("P", leaf(b), leaf(a))},
		}},
		{ID: "s1", Formulas: []*corpus.Formula{
			{Root: pred("Q", pred("P", leaf(a), leaf(b)), leaf(a2))},
			{Root: pred("Q", leaf(a), leaf(a2))},
		}},
	}

	s, err := schema.Build(sentences, testVocabulary(), false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []schema.Entry{
		{Predicate: 2, Signature: schema.NewSignature(0, 1), Count: 2},
		{Predicate: 3, Signature: schema.NewSignature(0), Count: 1},
		{Predicate: 3, Signature: schema.NewSignature(0, 2), Count: 1},
	}
	if diff := cmp.Diff(want, s.Entries()); diff != "" {
		t.Errorf("Entries (-want +got):\n%s", diff)
	}

	nested, err := schema.Build(sentences, testVocabulary(), true)
	if err != nil {
		t.Fatalf("Build nested: %v", err)
	}
	if got := nested.Count(2, schema.NewSignature(0, 1)); got != 3 {
		t.Errorf("nested Count(P, (A,B)) = %d, want 3", got)
	}
}

func TestBuildEntityRoot(t *testing.T) {
	sentences := []*corpus.Sentence{{ID: "s", Formulas: []*corpus.Formula{
		{Root: leaf(entity("a", "A"))},
	}}}

	_, err := schema.Build(sentences, testVocabulary(), false)
	if !errors.Is(err, corpus.ErrInvalidFormula) {
		t.Errorf("Build() = %v, want ErrInvalidFormula", err)
	}
}

func TestBuildUnknownPredicate(t *testing.T) {
	sentences := []*corpus.Sentence{{ID: "s", Formulas: []*corpus.Formula{
		{Root: pred("R", leaf(entity("a", "A")), leaf(entity("b", "B")))},
	}}}

	_, err := schema.Build(sentences, testVocabulary(), false)
	if !errors.Is(err, corpus.ErrCorpusIntegrity) {
		t.Errorf("Build() = %v, want ErrCorpusIntegrity", err)
	}
}

func TestInvert(t *testing.T) {
	a, b := entity("a", "A"), entity("b", "B")
	sentences := []*corpus.Sentence{{ID: "s", Formulas: []*corpus.Formula{
		{Root: pred("Q", leaf(a), leaf(b))},
		{Root: pred("P", leaf(a), leaf(b))},
		{Root: pred("P", leaf(b), leaf(a))},
	}}}

	s, err := schema.Build(sentences, testVocabulary(), false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	inv := schema.Invert(s)

	sig := schema.NewSignature(1, 0)
	if diff := cmp.Diff([]int{2, 3}, inv.Predicates(sig)); diff != "" {
		t.Errorf("Predicates (-want +got):\n%s", diff)
	}
	if inv.Count(sig, 2) != 2 || inv.Count(sig, 3) != 1 {
		t.Errorf("counts = %d, %d; want 2, 1", inv.Count(sig, 2), inv.Count(sig, 3))
	}
	if inv.Predicates(schema.NewSignature(0, 0)) != nil {
		t.Errorf("unobserved signature licenses predicates")
	}
	if inv.Len() != 1 {
		t.Errorf("Len() = %d, want 1", inv.Len())
	}
}
