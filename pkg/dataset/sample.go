package dataset

import (
	"github.com/willbeason/nested-relations/pkg/candidates"
)

// SpanPadding fills entity spans shorter than the configured width.
const SpanPadding int32 = -1

// Sample is one processed sentence: its text features and the ordered
// elements of its candidate lattice, stored column-wise. Element i is
// described by ElementNames[i], S[i], L[i], Labels[i] and IsEntity[i].
// Samples are not modified once produced.
type Sample struct {
	// Index is the position of the sentence in the corpus.
	Index int
	ID    string
	Text  string

	TokenIDs    []int32
	EntitySpans [][]int32

	ElementNames []int32
	// S holds the argument element indices of each element, padded with
	// candidates.Padding for entities.
	S        [][2]int32
	L        []int32
	Labels   []bool
	IsEntity []bool
}

func newSample(index int, id, text string, tokenIDs []int32, spans [][]int32, elements []candidates.Element) *Sample {
	s := &Sample{
		Index:        index,
		ID:           id,
		Text:         text,
		TokenIDs:     tokenIDs,
		EntitySpans:  spans,
		ElementNames: make([]int32, len(elements)),
		S:            make([][2]int32, len(elements)),
		L:            make([]int32, len(elements)),
		Labels:       make([]bool, len(elements)),
		IsEntity:     make([]bool, len(elements)),
	}

	for i, e := range elements {
		s.ElementNames[i] = int32(e.Type)
		s.S[i] = [2]int32{int32(e.Args[0]), int32(e.Args[1])}
		s.L[i] = int32(e.Layer)
		s.Labels[i] = e.Label
		s.IsEntity[i] = e.IsEntity
	}

	return s
}

// Len counts the elements of the sample.
func (s *Sample) Len() int {
	return len(s.ElementNames)
}

// T enumerates the element indices of the sample.
func (s *Sample) T() []int32 {
	result := make([]int32, s.Len())
	for i := range result {
		result[i] = int32(i)
	}
	return result
}

// Positives counts the candidate relations labeled true. Entities are not
// counted.
func (s *Sample) Positives() int {
	n := 0
	for i, label := range s.Labels {
		if label && !s.IsEntity[i] {
			n++
		}
	}
	return n
}

// Candidates counts the non-entity elements.
func (s *Sample) Candidates() int {
	n := 0
	for _, isEntity := range s.IsEntity {
		if !isEntity {
			n++
		}
	}
	return n
}

// entitySpan pads or truncates token positions to width.
func entitySpan(tokens []int, width int) ([]int32, bool) {
	span := make([]int32, width)
	for i := range span {
		span[i] = SpanPadding
	}
	for i, token := range tokens {
		if i >= width {
			return span, true
		}
		span[i] = int32(token)
	}
	return span, false
}
