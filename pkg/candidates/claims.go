package candidates

import "github.com/willbeason/nested-relations/pkg/goldgraph"

// Claims tracks, for each gold graph of one sentence, which element every
// graph node currently stands for. Matching a candidate to a gold predicate
// node claims the node: its entry then points at the candidate, so later
// layers can match outer relations built on it, and the node can not be
// matched again.
//
// Claims belong to a single sentence and must not be shared between workers.
type Claims struct {
	graphs   []*goldgraph.Graph
	elements [][]int
	claimed  [][]bool
}

// NewClaims starts from each graph's gold entity mapping.
func NewClaims(graphs []*goldgraph.Graph) *Claims {
	c := &Claims{
		graphs:   graphs,
		elements: make([][]int, len(graphs)),
		claimed:  make([][]bool, len(graphs)),
	}
	for i, g := range graphs {
		c.elements[i] = append([]int(nil), g.Elements...)
		c.claimed[i] = make([]bool, g.Len())
	}
	return c
}

// Claim reports whether some unclaimed gold node of type predicate has
// arguments currently standing for exactly the elements in args, and claims
// every such node for element. args must be in ascending order.
func (c *Claims) Claim(predicate int, args [2]int, element int) bool {
	found := false
	for gi, g := range c.graphs {
		for ni, node := range g.Nodes {
			if !node.Predicate || node.Type != predicate || c.claimed[gi][ni] || len(node.Children) != 2 {
				continue
			}

			x := c.elements[gi][node.Children[0]]
			y := c.elements[gi][node.Children[1]]
			if x > y {
				x, y = y, x
			}
			if x != args[0] || y != args[1] {
				continue
			}

			c.elements[gi][ni] = element
			c.claimed[gi][ni] = true
			found = true
		}
	}
	return found
}

// Element returns the element node ni of graph gi stands for, or
// goldgraph.Unmapped.
func (c *Claims) Element(gi, ni int) int {
	return c.elements[gi][ni]
}

// Nodes counts the nodes of every graph.
func (c *Claims) Nodes() int {
	n := 0
	for _, g := range c.graphs {
		n += g.Len()
	}
	return n
}

// Claimed counts the nodes claimed so far.
func (c *Claims) Claimed() int {
	n := 0
	for _, claimed := range c.claimed {
		for _, isClaimed := range claimed {
			if isClaimed {
				n++
			}
		}
	}
	return n
}
