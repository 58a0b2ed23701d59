package main

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/willbeason/nested-relations/pkg/dataset"
)

const (
	FlagPartitions = "partitions"
	FlagShuffle    = "shuffle"
	FlagSeed       = "seed"
)

func init() {
	cmd.Flags().Float64Slice(FlagPartitions, dataset.DefaultFractions, "dataset partitions")
	cmd.Flags().Bool(FlagShuffle, false, "shuffle samples before partitioning")
	cmd.Flags().Int64(FlagSeed, 0, "random seed; implies --shuffle")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "split-samples IN_FILE OUT_DIR",
	Short:   "partitions a samples file into train, validation and test files",
	Args:    cobra.ExactArgs(2),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrSplitSamples = errors.New("splitting samples")

func runE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	inPath := args[0]
	outDir := args[1]

	err := os.MkdirAll(outDir, os.ModePerm)
	if err != nil {
		return fmt.Errorf("%w: creating output directory: %w", ErrSplitSamples, err)
	}

	partitions, err := cmd.Flags().GetFloat64Slice(FlagPartitions)
	if err != nil {
		return fmt.Errorf("%w: getting partitions: %w", ErrSplitSamples, err)
	}

	samples, provenance, err := dataset.ReadSamples(ctx, inPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSplitSamples, err)
	}

	shuffle, seed, err := getSeed(cmd)
	if err != nil {
		return fmt.Errorf("%w: getting seed: %w", ErrSplitSamples, err)
	}
	if shuffle {
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(samples), func(i, j int) {
			samples[i], samples[j] = samples[j], samples[i]
		})
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "shuffled with seed %d\n", seed)
		if err != nil {
			return err
		}
	}

	ext := filepath.Ext(inPath)
	name := filepath.Base(inPath)
	name = name[:len(name)-len(ext)]

	for i, r := range dataset.Split(len(samples), partitions...) {
		outPath := filepath.Join(outDir, fmt.Sprintf("%s_%d%s", name, i, ext))
		err = dataset.WriteSamples(outPath, samples[r.Start:r.End], provenance)
		if err != nil {
			return fmt.Errorf("%w: writing partition %d: %w", ErrSplitSamples, i, err)
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", outPath, r.Len())
		if err != nil {
			return err
		}
	}

	return nil
}

// getSeed reports whether to shuffle, and with which seed. An explicit --seed
// implies shuffling; --shuffle alone seeds from the clock.
func getSeed(cmd *cobra.Command) (bool, int64, error) {
	// Check if the user set the seed manually.
	seedSet := false
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if f.Name == FlagSeed {
			seedSet = true
		}
	})

	if seedSet {
		seed, err := cmd.Flags().GetInt64(FlagSeed)
		if err != nil {
			return false, 0, err
		}
		return true, seed, nil
	}

	shuffle, err := cmd.Flags().GetBool(FlagShuffle)
	if err != nil {
		return false, 0, err
	}
	return shuffle, time.Now().UnixNano(), nil
}
