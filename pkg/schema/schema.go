// Package schema records which argument-type signatures each predicate type
// takes in the gold corpus, and indexes that record by signature.
package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/vocab"
)

// Signature is a sorted tuple of element type ids, usable as a map key.
type Signature string

// NewSignature sorts ids into a Signature. Repeated ids are kept.
func NewSignature(ids ...int) Signature {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.Itoa(id)
	}
	return Signature(strings.Join(parts, ","))
}

// SetSignature sorts and deduplicates ids into a Signature.
func SetSignature(ids ...int) Signature {
	seen := make(map[int]struct{}, len(ids))
	var unique []int
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return NewSignature(unique...)
}

// IDs returns the type ids of the signature in ascending order.
func (s Signature) IDs() []int {
	if s == "" {
		return nil
	}
	parts := strings.Split(string(s), ",")
	result := make([]int, len(parts))
	for i, part := range parts {
		// Signatures are only built from ints.
		result[i], _ = strconv.Atoi(part)
	}
	return result
}

// Entry is one (predicate, signature) observation with its frequency.
type Entry struct {
	Predicate int
	Signature Signature
	Count     int
}

// Schema maps predicate type ids to the frequency of each argument signature
// they were observed with. It is read-only once built.
type Schema struct {
	vocabulary *vocab.Vocabulary
	nested     bool

	entries map[int]map[Signature]int
}

// New returns an empty Schema over the given vocabulary. A nested Schema
// records every predicate node of a formula, not just the root.
func New(v *vocab.Vocabulary, nested bool) *Schema {
	return &Schema{
		vocabulary: v,
		nested:     nested,
		entries:    make(map[int]map[Signature]int),
	}
}

// Build records the formulas of every sentence.
func Build(sentences []*corpus.Sentence, v *vocab.Vocabulary, nested bool) (*Schema, error) {
	s := New(v, nested)
	for _, sentence := range sentences {
		for i, f := range sentence.Formulas {
			err := s.Add(f)
			if err != nil {
				return nil, fmt.Errorf("formula %d of sentence %q: %w", i, sentence.ID, err)
			}
		}
	}
	return s, nil
}

// Add records the argument signature of a formula's root predicate.
func (s *Schema) Add(f *corpus.Formula) error {
	root, ok := f.Root.(*corpus.PredicateNode)
	if !ok {
		return fmt.Errorf("%w: formula root %T is not a predicate", corpus.ErrInvalidFormula, f.Root)
	}

	if !s.nested {
		return s.addPredicate(root)
	}

	return corpus.Walk(root, func(n corpus.Node) error {
		if p, ok := n.(*corpus.PredicateNode); ok {
			return s.addPredicate(p)
		}
		return nil
	})
}

func (s *Schema) addPredicate(p *corpus.PredicateNode) error {
	predicate, err := s.vocabulary.Predicate(p.Predicate)
	if err != nil {
		return err
	}

	args := make([]int, len(p.Args))
	for i, arg := range p.Args {
		args[i], err = s.vocabulary.Node(arg)
		if err != nil {
			return err
		}
	}

	signatures := s.entries[predicate]
	if signatures == nil {
		signatures = make(map[Signature]int)
		s.entries[predicate] = signatures
	}
	signatures[SetSignature(args...)]++

	return nil
}

// Count returns how often predicate was observed with signature.
func (s *Schema) Count(predicate int, signature Signature) int {
	return s.entries[predicate][signature]
}

// Entries lists every observation ordered by predicate, then signature.
func (s *Schema) Entries() []Entry {
	var result []Entry
	for predicate, signatures := range s.entries {
		for signature, count := range signatures {
			result = append(result, Entry{Predicate: predicate, Signature: signature, Count: count})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Predicate != result[j].Predicate {
			return result[i].Predicate < result[j].Predicate
		}
		return result[i].Signature < result[j].Signature
	})
	return result
}

// Vocabulary returns the vocabulary the schema's ids refer to.
func (s *Schema) Vocabulary() *vocab.Vocabulary {
	return s.vocabulary
}

// Len counts distinct (predicate, signature) pairs.
func (s *Schema) Len() int {
	n := 0
	for _, signatures := range s.entries {
		n += len(signatures)
	}
	return n
}
