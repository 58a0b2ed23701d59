// Package corpus models the parsed nested-relation corpus: sentences, their
// annotated entities, and the formula trees built over those entities.
package corpus

import (
	"fmt"
	"strings"
)

// Corpus is an ordered collection of parsed sentences.
type Corpus struct {
	Sentences []*Sentence

	// Predicates lists predicate names declared by the corpus ontology. Names
	// which only appear in formulas are collected from the formulas directly.
	Predicates []string
}

// Entity is a gold entity annotation.
type Entity struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// Tokens holds the positions of the sentence tokens the entity spans.
	Tokens []int `json:"tokens,omitempty"`
}

// Sentence is one annotated sentence of the corpus.
type Sentence struct {
	ID       string
	Text     string
	Tokens   []string
	Entities []*Entity
	Formulas []*Formula

	// Invalid is set when the sentence could not be converted from its
	// serialized form. Sentences with Invalid set are excluded from processing.
	Invalid error
}

// EntityByID returns the sentence entity with the given id.
func (s *Sentence) EntityByID(id string) (*Entity, bool) {
	for _, e := range s.Entities {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Formula is one nested relation instance of a sentence.
type Formula struct {
	Root Node
}

// Node is a formula tree node. It is always either an *EntityNode or a
// *PredicateNode.
type Node interface {
	// Arguments returns the ordered argument nodes. Entity leaves have none.
	Arguments() []Node

	node()
}

// EntityNode is a leaf referring to a gold entity.
type EntityNode struct {
	Entity *Entity
}

func (*EntityNode) Arguments() []Node { return nil }

func (*EntityNode) node() {}

// PredicateNode applies a predicate to an ordered list of arguments.
type PredicateNode struct {
	Predicate string

	// Surface is the entity annotating the predicate in the text, or nil for
	// filler predicates with no surface annotation.
	Surface *Entity

	Args []Node
}

func (n *PredicateNode) Arguments() []Node { return n.Args }

func (*PredicateNode) node() {}

// IsRelationship reports whether an entity type names the surface form of a
// predicate rather than a participant.
func IsRelationship(entityType, marker string) bool {
	return marker != "" && strings.Contains(entityType, marker)
}

// Walk visits n and its descendants in pre-order. It stops at the first error
// returned by fn.
func Walk(n Node, fn func(Node) error) error {
	switch n := n.(type) {
	case *EntityNode:
		return fn(n)
	case *PredicateNode:
		err := fn(n)
		if err != nil {
			return err
		}
		for _, arg := range n.Args {
			err = Walk(arg, fn)
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: node %T is neither entity nor predicate", ErrInvalidFormula, n)
	}
}

// Validate checks that every formula of the sentence is rooted at a predicate
// and only holds entity and predicate nodes.
func (s *Sentence) Validate() error {
	if s.Invalid != nil {
		return s.Invalid
	}
	for i, f := range s.Formulas {
		if _, ok := f.Root.(*PredicateNode); !ok {
			return fmt.Errorf("%w: formula %d of sentence %q is not rooted at a predicate", ErrInvalidFormula, i, s.ID)
		}
		err := Walk(f.Root, func(n Node) error {
			if e, ok := n.(*EntityNode); ok && e.Entity == nil {
				return fmt.Errorf("%w: entity argument without entity", ErrInvalidFormula)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("formula %d of sentence %q: %w", i, s.ID, err)
		}
	}
	return nil
}
