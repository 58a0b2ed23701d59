package corpus

import "errors"

var (
	// ErrCorpusIntegrity marks a symbol or structural reference missing from
	// the vocabulary or schema. It aborts the whole dataset build.
	ErrCorpusIntegrity = errors.New("corpus integrity")

	// ErrInvalidFormula marks a formula rooted at an entity, or an argument
	// which is neither an entity nor a predicate. The sentence holding it is
	// excluded.
	ErrInvalidFormula = errors.New("invalid formula")

	// ErrEmptySentence marks a sentence with no gold entities. The sentence is
	// excluded.
	ErrEmptySentence = errors.New("sentence has no entities")
)

// Excludable reports whether err only invalidates the sentence it was raised
// for, rather than the whole corpus.
func Excludable(err error) bool {
	return errors.Is(err, ErrInvalidFormula) || errors.Is(err, ErrEmptySentence)
}
