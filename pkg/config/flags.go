package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

const (
	FlagConfig        = "config"
	FlagMaxLayers     = "max-layers"
	FlagWorkers       = "workers"
	FlagNestedSchema  = "nested-schema"
	FlagSkipSeenPairs = "skip-seen-pairs"
	FlagExclude       = "exclude"
)

// AddFlags registers the command-line overrides of Config on flags.
func AddFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String(FlagConfig, "", "YAML configuration file")
	flags.Int(FlagMaxLayers, d.MaxLayers, "candidate-generation iterations per sentence")
	flags.Int(FlagWorkers, d.Workers, "sentence worker pool size (0 for GOMAXPROCS)")
	flags.Bool(FlagNestedSchema, d.NestedSchema, "record nested predicates in the schema, not only formula roots")
	flags.Bool(FlagSkipSeenPairs, d.SkipSeenPairs, "after the first iteration, only pair elements with the previous iteration's")
	flags.IntSlice(FlagExclude, nil, "positional sentence indices to exclude")
}

// FromFlags loads the file named by --config, if any, and overlays the flags
// the user set explicitly.
func FromFlags(flags *pflag.FlagSet) (Config, error) {
	path, err := flags.GetString(FlagConfig)
	if err != nil {
		return Config{}, err
	}

	c := Default()
	if path != "" {
		c, err = Load(path)
		if err != nil {
			return c, err
		}
	}

	var errs []error
	flags.Visit(func(f *pflag.Flag) {
		var err error
		switch f.Name {
		case FlagMaxLayers:
			c.MaxLayers, err = flags.GetInt(FlagMaxLayers)
		case FlagWorkers:
			c.Workers, err = flags.GetInt(FlagWorkers)
		case FlagNestedSchema:
			c.NestedSchema, err = flags.GetBool(FlagNestedSchema)
		case FlagSkipSeenPairs:
			c.SkipSeenPairs, err = flags.GetBool(FlagSkipSeenPairs)
		case FlagExclude:
			c.ExcludeSentences, err = flags.GetIntSlice(FlagExclude)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("getting --%s: %w", f.Name, err))
		}
	})
	if len(errs) > 0 {
		return c, errs[0]
	}

	return c, c.Validate()
}
