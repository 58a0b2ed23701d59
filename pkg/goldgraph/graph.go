// Package goldgraph flattens gold formula trees into explicit directed graphs
// whose edges run from each predicate instance to its arguments.
package goldgraph

import (
	"fmt"

	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/vocab"
)

// Unmapped marks a graph node with no corresponding sample element.
const Unmapped = -2

// Node is an entity or predicate instance of a formula.
type Node struct {
	// Key is the entity id annotating the instance, or a synthetic key for
	// filler predicates.
	Key string

	// Type is the vocabulary id of the entity type or predicate.
	Type int

	Predicate bool

	// Children holds the node indices of the arguments, in argument order.
	Children []int
}

// Edge connects a predicate node to one of its argument nodes.
type Edge struct {
	From, To int
}

// Graph is the flattened form of one formula. A Graph is read-only once built.
type Graph struct {
	Nodes []Node
	Edges []Edge

	// Elements maps each node index to the index of the gold entity element it
	// corresponds to, or Unmapped.
	Elements []int
}

// Len counts the nodes of the graph.
func (g *Graph) Len() int {
	return len(g.Nodes)
}

type keyedEdge struct {
	from, to string
}

type nodeInfo struct {
	typeID    int
	predicate bool
}

// flattener turns one formula tree into a keyed edge list.
type flattener struct {
	vocabulary *vocab.Vocabulary

	edges   []keyedEdge
	nodes   map[string]nodeInfo
	fillers int
}

func (f *flattener) key(n corpus.Node) (string, error) {
	switch n := n.(type) {
	case *corpus.EntityNode:
		if n.Entity == nil {
			return "", fmt.Errorf("%w: entity argument without entity", corpus.ErrInvalidFormula)
		}
		return n.Entity.ID, nil
	case *corpus.PredicateNode:
		if n.Surface != nil {
			return n.Surface.ID, nil
		}
		f.fillers++
		return fmt.Sprintf("#filler.%d", f.fillers), nil
	default:
		return "", fmt.Errorf("%w: node %T is neither entity nor predicate", corpus.ErrInvalidFormula, n)
	}
}

func (f *flattener) visit(n corpus.Node, key string) error {
	typeID, err := f.vocabulary.Node(n)
	if err != nil {
		return err
	}
	_, isPredicate := n.(*corpus.PredicateNode)
	f.nodes[key] = nodeInfo{typeID: typeID, predicate: isPredicate}

	for _, arg := range n.Arguments() {
		argKey, err := f.key(arg)
		if err != nil {
			return err
		}
		f.edges = append(f.edges, keyedEdge{from: key, to: argKey})

		err = f.visit(arg, argKey)
		if err != nil {
			return err
		}
	}

	return nil
}

// Build flattens one formula. entityElements maps the ids of the sentence's
// gold entities to their element indices. A formula without edges yields an
// empty Graph.
func Build(f *corpus.Formula, v *vocab.Vocabulary, entityElements map[string]int) (*Graph, error) {
	if _, ok := f.Root.(*corpus.PredicateNode); !ok {
		return nil, fmt.Errorf("%w: formula root %T is not a predicate", corpus.ErrInvalidFormula, f.Root)
	}

	fl := &flattener{
		vocabulary: v,
		nodes:      make(map[string]nodeInfo),
	}
	rootKey, err := fl.key(f.Root)
	if err != nil {
		return nil, err
	}
	err = fl.visit(f.Root, rootKey)
	if err != nil {
		return nil, err
	}

	g := &Graph{}
	if len(fl.edges) == 0 {
		return g, nil
	}

	// Dense node indices in order of first appearance.
	index := make(map[string]int)
	nodeIndex := func(key string) int {
		i, found := index[key]
		if found {
			return i
		}
		i = len(g.Nodes)
		index[key] = i

		info := fl.nodes[key]
		g.Nodes = append(g.Nodes, Node{Key: key, Type: info.typeID, Predicate: info.predicate})

		element, found := entityElements[key]
		if !found {
			element = Unmapped
		}
		g.Elements = append(g.Elements, element)

		return i
	}

	for _, e := range fl.edges {
		from := nodeIndex(e.from)
		to := nodeIndex(e.to)
		g.Edges = append(g.Edges, Edge{From: from, To: to})
		g.Nodes[from].Children = append(g.Nodes[from].Children, to)
	}

	return g, nil
}

// BuildAll flattens every formula of a sentence, in order.
func BuildAll(s *corpus.Sentence, v *vocab.Vocabulary, entityElements map[string]int) ([]*Graph, error) {
	graphs := make([]*Graph, len(s.Formulas))
	for i, f := range s.Formulas {
		g, err := Build(f, v, entityElements)
		if err != nil {
			return nil, fmt.Errorf("formula %d of sentence %q: %w", i, s.ID, err)
		}
		graphs[i] = g
	}
	return graphs, nil
}
