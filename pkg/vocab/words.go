package vocab

import (
	"sort"
	"strings"

	"github.com/willbeason/nested-relations/pkg/corpus"
)

// Unknown is the token id of words missing from a Words vocabulary.
const Unknown int32 = 0

// Featurizer turns sentence text into token ids for the text encoder.
type Featurizer interface {
	Featurize(text string) []int32
}

// Words is the from-scratch word index: every distinct corpus token gets an
// id starting at 1, leaving 0 for unknown words.
type Words struct {
	index map[string]int32
}

// BuildWords indexes the tokens of every sentence in sorted order.
func BuildWords(c *corpus.Corpus) *Words {
	seen := make(map[string]struct{})
	for _, s := range c.Sentences {
		for _, token := range s.Tokens {
			seen[token] = struct{}{}
		}
	}

	words := make([]string, 0, len(seen))
	for word := range seen {
		words = append(words, word)
	}
	sort.Strings(words)

	w := &Words{index: make(map[string]int32, len(words))}
	for i, word := range words {
		w.index[word] = int32(i + 1)
	}
	return w
}

// Featurize maps the whitespace-separated words of text to their ids.
func (w *Words) Featurize(text string) []int32 {
	fields := strings.Fields(text)
	result := make([]int32, len(fields))
	for i, field := range fields {
		result[i] = w.index[field]
	}
	return result
}

// Len counts ids including Unknown.
func (w *Words) Len() int {
	return len(w.index) + 1
}
