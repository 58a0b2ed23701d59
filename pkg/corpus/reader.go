package corpus

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/willbeason/bondsmith/fileio"
	"github.com/willbeason/bondsmith/jsonio"
)

var ErrReadCorpus = errors.New("reading corpus")

var shardPattern = regexp.MustCompile(`\.jsonl(\.gz)?$`)

// sentenceRecord is the JSON Lines form of a Sentence.
type sentenceRecord struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Tokens   []string     `json:"tokens"`
	Entities []*Entity    `json:"entities"`
	Formulas []nodeRecord `json:"formulas"`
}

// nodeRecord is the JSON form of a formula node. Exactly one of Entity and
// Predicate identifies an entity leaf; a predicate node may also name the
// entity annotating it.
type nodeRecord struct {
	Entity    string       `json:"entity,omitempty"`
	Predicate string       `json:"predicate,omitempty"`
	Arguments []nodeRecord `json:"arguments,omitempty"`
}

// Paths lists the corpus shards at inPath. A directory yields its .jsonl and
// .jsonl.gz files in name order.
func Paths(inPath string) ([]string, error) {
	stat, err := os.Stat(inPath)
	if err != nil {
		return nil, fmt.Errorf("%w: stat %q: %w", ErrReadCorpus, inPath, err)
	}
	if !stat.IsDir() {
		return []string{inPath}, nil
	}

	entries, err := os.ReadDir(inPath)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %q: %w", ErrReadCorpus, inPath, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !shardPattern.MatchString(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(inPath, entry.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no .jsonl or .jsonl.gz files in %q", ErrReadCorpus, inPath)
	}
	return paths, nil
}

// ReadFiles reads the sentences of every shard, in order. Shards must either
// all be gzipped or all be plain.
func ReadFiles(paths []string) (*Corpus, error) {
	gzipped := 0
	for _, path := range paths {
		if strings.HasSuffix(path, ".gz") {
			gzipped++
		}
	}
	if gzipped != 0 && gzipped != len(paths) {
		return nil, fmt.Errorf("%w: cannot mix gzipped and plain shards", ErrReadCorpus)
	}

	var reader io.Reader = fileio.NewMultiFileReader(paths)
	if gzipped != 0 {
		// gzip correctly handles concatenated files.
		gzReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: creating gzip reader: %w", ErrReadCorpus, err)
		}
		reader = gzReader
	}

	return Read(reader)
}

// Read decodes a JSON Lines stream of sentences. Sentences whose formulas
// cannot be converted are kept with Invalid set; only malformed JSON aborts
// reading.
func Read(r io.Reader) (*Corpus, error) {
	records := jsonio.NewReader(r, func() *sentenceRecord {
		return &sentenceRecord{}
	})

	result := &Corpus{}
	for record, err := range records.Read() {
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: sentence %d: %w", ErrReadCorpus, len(result.Sentences), err)
		}
		result.Sentences = append(result.Sentences, record.toSentence())
	}

	return result, nil
}

func (r *sentenceRecord) toSentence() *Sentence {
	s := &Sentence{
		ID:       r.ID,
		Text:     r.Text,
		Tokens:   r.Tokens,
		Entities: r.Entities,
	}

	for i, f := range r.Formulas {
		root, err := f.toNode(s)
		if err != nil {
			s.Invalid = fmt.Errorf("formula %d of sentence %q: %w", i, s.ID, err)
			return s
		}
		s.Formulas = append(s.Formulas, &Formula{Root: root})
	}

	return s
}

func (r *nodeRecord) toNode(s *Sentence) (Node, error) {
	switch {
	case r.Predicate != "":
		n := &PredicateNode{Predicate: r.Predicate}
		if r.Entity != "" {
			surface, found := s.EntityByID(r.Entity)
			if !found {
				return nil, fmt.Errorf("%w: predicate %q refers to unknown entity %q", ErrInvalidFormula, r.Predicate, r.Entity)
			}
			n.Surface = surface
		}
		for i := range r.Arguments {
			arg, err := r.Arguments[i].toNode(s)
			if err != nil {
				return nil, err
			}
			n.Args = append(n.Args, arg)
		}
		return n, nil
	case r.Entity != "":
		if len(r.Arguments) != 0 {
			return nil, fmt.Errorf("%w: entity %q has arguments", ErrInvalidFormula, r.Entity)
		}
		e, found := s.EntityByID(r.Entity)
		if !found {
			return nil, fmt.Errorf("%w: unknown entity %q", ErrInvalidFormula, r.Entity)
		}
		return &EntityNode{Entity: e}, nil
	default:
		return nil, fmt.Errorf("%w: argument is neither entity nor predicate", ErrInvalidFormula)
	}
}
