package vocab_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/vocab"
)

func testCorpus() *corpus.Corpus {
	a := &corpus.Entity{ID: "e0", Type: "B"}
	b := &corpus.Entity{ID: "e1", Type: "A"}
	rel := &corpus.Entity{ID: "r0", Type: "RELATIONSHIP"}
	return &corpus.Corpus{
		Predicates: []string{"Q"},
		Sentences: []*corpus.Sentence{{
			ID:       "s0",
			Tokens:   []string{"b", "binds", "a"},
			Entities: []*corpus.Entity{a, b, rel},
			Formulas: []*corpus.Formula{{Root: &corpus.PredicateNode{
				Predicate: "P",
				Surface:   rel,
				Args:      []corpus.Node{&corpus.EntityNode{Entity: a}, &corpus.EntityNode{Entity: b}},
			}}},
		}},
	}
}

func TestBuild(t *testing.T) {
	v := vocab.Build(testCorpus(), config.Default())

	want := []string{"e-A", "e-B", "p-P", "p-Q"}
	if diff := cmp.Diff(want, v.Symbols()); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}

	id, err := v.Predicate("P")
	if err != nil {
		t.Fatalf("Predicate(P): %v", err)
	}
	if id != 2 || !v.IsPredicate(id) {
		t.Errorf("Predicate(P) = %d, IsPredicate = %v; want 2, true", id, v.IsPredicate(id))
	}

	id, err = v.Entity("B")
	if err != nil {
		t.Fatalf("Entity(B): %v", err)
	}
	if id != 1 || v.IsPredicate(id) {
		t.Errorf("Entity(B) = %d, IsPredicate = %v; want 1, false", id, v.IsPredicate(id))
	}
}

func TestUnknownSymbol(t *testing.T) {
	v := vocab.Build(testCorpus(), config.Default())

	_, err := v.Entity("RELATIONSHIP")
	if !errors.Is(err, corpus.ErrCorpusIntegrity) {
		t.Errorf("Entity(RELATIONSHIP) = %v, want ErrCorpusIntegrity", err)
	}
	_, err = v.Predicate("A")
	if !errors.Is(err, corpus.ErrCorpusIntegrity) {
		t.Errorf("Predicate(A) = %v, want ErrCorpusIntegrity", err)
	}
}

func TestNamespacesDoNotCollide(t *testing.T) {
	v := vocab.New([]string{"X"}, []string{"X"}, config.Default())
	if v.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", v.Len())
	}

	e, _ := v.Entity("X")
	p, _ := v.Predicate("X")
	if e == p {
		t.Errorf("entity and predicate X share id %d", e)
	}
}

func TestWords(t *testing.T) {
	w := vocab.BuildWords(testCorpus())
	if w.Len() != 4 {
		t.Errorf("Len() = %d, want 4", w.Len())
	}

	got := w.Featurize("a binds c")
	want := []int32{1, 3, vocab.Unknown}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Featurize (-want +got):\n%s", diff)
	}
}
