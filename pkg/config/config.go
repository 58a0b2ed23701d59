// Package config holds the settings threaded through dataset construction
// and candidate generation.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/goccy/go-yaml"
)

var ErrConfig = errors.New("invalid configuration")

// Config is the explicit configuration of a dataset build.
type Config struct {
	// MaxLayers is the number of candidate-generation iterations per sentence.
	MaxLayers int `yaml:"max_layers"`

	// MaxEntityTokens is the width entity token spans are padded to.
	MaxEntityTokens int `yaml:"max_entity_tokens"`

	// EntityPrefix and PredicatePrefix separate the entity-type and
	// predicate-type namespaces of the element vocabulary.
	EntityPrefix    string `yaml:"entity_prefix"`
	PredicatePrefix string `yaml:"predicate_prefix"`

	// RelationshipMarker identifies entity types which annotate predicates.
	// Such entities never seed layer 0.
	RelationshipMarker string `yaml:"relationship_marker"`

	// Workers is the size of the sentence worker pool. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// SamplesPath is where the processed samples are cached.
	SamplesPath string `yaml:"samples_path,omitempty"`

	// ExcludeSentences lists positional sentence indices to skip.
	ExcludeSentences []int `yaml:"exclude_sentences,omitempty"`

	// NestedSchema also records nested predicate nodes in the schema, not only
	// formula roots.
	NestedSchema bool `yaml:"nested_schema"`

	// SkipSeenPairs restricts every iteration after the first to pairs holding
	// at least one element created by the previous iteration.
	SkipSeenPairs bool `yaml:"skip_seen_pairs"`
}

// Default returns the configuration the BioInfer experiments were run with.
func Default() Config {
	return Config{
		MaxLayers:          2,
		MaxEntityTokens:    5,
		EntityPrefix:       "e-",
		PredicatePrefix:    "p-",
		RelationshipMarker: "RELATIONSHIP",
	}
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their Default values.
func Load(path string) (Config, error) {
	c := Default()

	bytes, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config %q: %w", path, err)
	}

	err = yaml.Unmarshal(bytes, &c)
	if err != nil {
		return c, fmt.Errorf("%w: parsing %q: %w", ErrConfig, path, err)
	}

	return c, c.Validate()
}

// Validate reports the first setting which cannot drive a build.
func (c Config) Validate() error {
	switch {
	case c.MaxLayers < 1:
		return fmt.Errorf("%w: max_layers must be at least 1, got %d", ErrConfig, c.MaxLayers)
	case c.MaxEntityTokens < 1:
		return fmt.Errorf("%w: max_entity_tokens must be at least 1, got %d", ErrConfig, c.MaxEntityTokens)
	case c.EntityPrefix == "" || c.PredicatePrefix == "":
		return fmt.Errorf("%w: entity and predicate prefixes must be set", ErrConfig)
	case c.EntityPrefix == c.PredicatePrefix:
		return fmt.Errorf("%w: entity and predicate prefixes are both %q", ErrConfig, c.EntityPrefix)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrConfig, c.Workers)
	}
	return nil
}

// WorkerCount resolves Workers to a positive pool size.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Excluded returns the configured exclusions as a set.
func (c Config) Excluded() map[int]struct{} {
	result := make(map[int]struct{}, len(c.ExcludeSentences))
	for _, i := range c.ExcludeSentences {
		result[i] = struct{}{}
	}
	return result
}
