package schema

import "sort"

// Inverse maps argument signatures to the predicate types observed taking
// them. Every predicate of an ambiguous signature is kept.
type Inverse struct {
	counts map[Signature]map[int]int

	// predicates caches the ascending predicate ids of each signature.
	predicates map[Signature][]int
}

// Invert re-keys s by signature.
func Invert(s *Schema) *Inverse {
	inv := &Inverse{
		counts:     make(map[Signature]map[int]int),
		predicates: make(map[Signature][]int),
	}

	for _, e := range s.Entries() {
		predicates := inv.counts[e.Signature]
		if predicates == nil {
			predicates = make(map[int]int)
			inv.counts[e.Signature] = predicates
		}
		predicates[e.Predicate] += e.Count
	}

	for signature, predicates := range inv.counts {
		ids := make([]int, 0, len(predicates))
		for id := range predicates {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		inv.predicates[signature] = ids
	}

	return inv
}

// Predicates returns the predicate ids licensed by signature in ascending
// order, or nil if the signature was never observed.
func (inv *Inverse) Predicates(signature Signature) []int {
	return inv.predicates[signature]
}

// Count returns how often predicate was observed with signature.
func (inv *Inverse) Count(signature Signature, predicate int) int {
	return inv.counts[signature][predicate]
}

// Signatures lists the observed signatures in sorted order.
func (inv *Inverse) Signatures() []Signature {
	result := make([]Signature, 0, len(inv.predicates))
	for signature := range inv.predicates {
		result = append(result, signature)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (inv *Inverse) Len() int {
	return len(inv.predicates)
}
