// Package vocab assigns dense integer ids to the entity-type and
// predicate-type symbols of a corpus, and to the words of its sentences.
package vocab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
)

// Vocabulary is a bijection between prefixed element symbols and the ids
// 0..Len()-1. Entity symbols come first, each namespace in sorted order.
// A Vocabulary is read-only once built.
type Vocabulary struct {
	entityPrefix    string
	predicatePrefix string

	index   map[string]int
	symbols []string
}

// New builds a Vocabulary from raw entity-type and predicate names.
// Duplicates are ignored.
func New(entityTypes, predicates []string, cfg config.Config) *Vocabulary {
	v := &Vocabulary{
		entityPrefix:    cfg.EntityPrefix,
		predicatePrefix: cfg.PredicatePrefix,
		index:           make(map[string]int, len(entityTypes)+len(predicates)),
	}

	v.addAll(cfg.EntityPrefix, entityTypes)
	v.addAll(cfg.PredicatePrefix, predicates)

	return v
}

func (v *Vocabulary) addAll(prefix string, names []string) {
	symbols := make([]string, 0, len(names))
	for _, name := range names {
		symbols = append(symbols, prefix+name)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		if _, exists := v.index[symbol]; exists {
			continue
		}
		v.index[symbol] = len(v.symbols)
		v.symbols = append(v.symbols, symbol)
	}
}

// Build collects every participant entity type and every predicate of the
// corpus, whether declared by its ontology or only used in formulas.
func Build(c *corpus.Corpus, cfg config.Config) *Vocabulary {
	var entityTypes []string
	predicates := append([]string(nil), c.Predicates...)

	for _, s := range c.Sentences {
		for _, e := range s.Entities {
			if corpus.IsRelationship(e.Type, cfg.RelationshipMarker) {
				continue
			}
			entityTypes = append(entityTypes, e.Type)
		}

		for _, f := range s.Formulas {
			// Malformed formulas are reported when their sentence is processed.
			_ = corpus.Walk(f.Root, func(n corpus.Node) error {
				if p, ok := n.(*corpus.PredicateNode); ok {
					predicates = append(predicates, p.Predicate)
				}
				return nil
			})
		}
	}

	return New(entityTypes, predicates, cfg)
}

// Entity returns the id of an entity type.
func (v *Vocabulary) Entity(entityType string) (int, error) {
	return v.lookup(v.entityPrefix + entityType)
}

// Predicate returns the id of a predicate type.
func (v *Vocabulary) Predicate(name string) (int, error) {
	return v.lookup(v.predicatePrefix + name)
}

// Node returns the id of the type a formula node represents.
func (v *Vocabulary) Node(n corpus.Node) (int, error) {
	switch n := n.(type) {
	case *corpus.EntityNode:
		return v.Entity(n.Entity.Type)
	case *corpus.PredicateNode:
		return v.Predicate(n.Predicate)
	default:
		return 0, fmt.Errorf("%w: node %T is neither entity nor predicate", corpus.ErrInvalidFormula, n)
	}
}

func (v *Vocabulary) lookup(symbol string) (int, error) {
	id, found := v.index[symbol]
	if !found {
		return 0, fmt.Errorf("%w: symbol %q is not in the vocabulary", corpus.ErrCorpusIntegrity, symbol)
	}
	return id, nil
}

// Symbol returns the prefixed symbol of id.
func (v *Vocabulary) Symbol(id int) string {
	if id < 0 || id >= len(v.symbols) {
		return fmt.Sprintf("<unknown %d>", id)
	}
	return v.symbols[id]
}

// IsPredicate reports whether id names a predicate type.
func (v *Vocabulary) IsPredicate(id int) bool {
	return id >= 0 && id < len(v.symbols) && strings.HasPrefix(v.symbols[id], v.predicatePrefix)
}

// Symbols returns all symbols ordered by id.
func (v *Vocabulary) Symbols() []string {
	return append([]string(nil), v.symbols...)
}

func (v *Vocabulary) Len() int {
	return len(v.symbols)
}
