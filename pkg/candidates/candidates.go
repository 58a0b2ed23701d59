// Package candidates grows a sentence's gold entities into a layered lattice
// of schema-licensed candidate relations, and labels each candidate by
// matching it against the sentence's gold relation graphs.
package candidates

import (
	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/goldgraph"
	"github.com/willbeason/nested-relations/pkg/schema"
)

// Padding fills the argument slots of entity elements.
const Padding = -1

// Element is an entity or candidate relation of a sentence.
type Element struct {
	// Type is the vocabulary id of the entity type or predicate.
	Type int

	// Layer is 0 for gold entities and k for candidates created by the k-th
	// iteration.
	Layer int

	IsEntity bool

	// Args holds the indices of the two elements a candidate combines, in
	// ascending order. Both are Padding for entities.
	Args [2]int

	// Label is true for gold entities and for candidates matching a gold
	// relation.
	Label bool
}

// Generator proposes and labels candidates. It only reads its Inverse schema
// and may be shared by concurrent workers.
type Generator struct {
	inverse       *schema.Inverse
	maxLayers     int
	skipSeenPairs bool
}

func NewGenerator(inverse *schema.Inverse, cfg config.Config) *Generator {
	return &Generator{
		inverse:       inverse,
		maxLayers:     cfg.MaxLayers,
		skipSeenPairs: cfg.SkipSeenPairs,
	}
}

// Generate seeds layer 0 with the gold entity types, in order, then runs
// maxLayers iterations. Each iteration considers every pair of elements
// present when it starts, in ascending index order, and appends one candidate
// per predicate the Inverse schema licenses for the pair's signature, in
// ascending predicate order.
func (g *Generator) Generate(entityTypes []int, graphs []*goldgraph.Graph) ([]Element, error) {
	if len(entityTypes) == 0 {
		return nil, corpus.ErrEmptySentence
	}

	elements := make([]Element, len(entityTypes))
	for i, t := range entityTypes {
		elements[i] = Element{
			Type:     t,
			IsEntity: true,
			Args:     [2]int{Padding, Padding},
			Label:    true,
		}
	}

	claims := NewClaims(graphs)
	previousStart := 0

	for layer := 0; layer < g.maxLayers; layer++ {
		n := len(elements)

		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if g.skipSeenPairs && layer > 0 && j < previousStart {
					// Both elements were already paired by an earlier iteration.
					continue
				}

				signature := schema.NewSignature(elements[i].Type, elements[j].Type)
				for _, predicate := range g.inverse.Predicates(signature) {
					args := [2]int{i, j}
					index := len(elements)
					elements = append(elements, Element{
						Type:  predicate,
						Layer: layer + 1,
						Args:  args,
						Label: claims.Claim(predicate, args, index),
					})
				}
			}
		}

		previousStart = n
	}

	return elements, nil
}
