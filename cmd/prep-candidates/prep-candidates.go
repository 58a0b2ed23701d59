package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb"
	"github.com/vbauerster/mpb/decor"
	"golang.org/x/term"

	"github.com/willbeason/nested-relations/pkg/config"
	"github.com/willbeason/nested-relations/pkg/corpus"
	"github.com/willbeason/nested-relations/pkg/dataset"
)

const (
	FlagForce   = "force"
	FlagVerbose = "verbose"

	defaultWidth = 80
)

func init() {
	config.AddFlags(cmd.Flags())
	cmd.Flags().Bool(FlagForce, false, "regenerate the samples even if OUT exists")
	cmd.Flags().BoolP(FlagVerbose, "v", false, "log at debug level")
}

func main() {
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var cmd = cobra.Command{
	Use:     "prep-candidates CORPUS [OUT]",
	Short:   "generates the labeled candidate lattice of every corpus sentence",
	Long:    "Reads a JSON Lines corpus (a file or a directory of shards), builds the element vocabulary and schema, and writes one parquet row of layered candidates per sentence to OUT. An existing OUT is loaded instead unless --force is set. OUT defaults to the samples_path of the configuration file.",
	Args:    cobra.RangeArgs(1, 2),
	Version: "0.1.0",
	RunE:    runE,
}

var ErrPrepCandidates = errors.New("preparing candidates")

func runE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	inPath := args[0]

	verbose, err := cmd.Flags().GetBool(FlagVerbose)
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := config.FromFlags(cmd.Flags())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepCandidates, err)
	}

	outPath := cfg.SamplesPath
	if len(args) > 1 {
		outPath = args[1]
	}
	if outPath == "" {
		return fmt.Errorf("%w: no OUT path given and no samples_path configured", ErrPrepCandidates)
	}

	force, err := cmd.Flags().GetBool(FlagForce)
	if err != nil {
		return err
	}

	paths, err := corpus.Paths(inPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepCandidates, err)
	}
	c, err := corpus.ReadFiles(paths)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepCandidates, err)
	}

	_, statErr := os.Stat(outPath)
	cached := statErr == nil && !force

	var opts []dataset.Option
	var p *mpb.Progress
	if !cached {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = defaultWidth
		}
		p = mpb.New(mpb.WithWidth(width))

		total := len(c.Sentences)
		for i := range cfg.Excluded() {
			if i >= 0 && i < len(c.Sentences) {
				total--
			}
		}
		bar := p.AddBar(int64(total),
			mpb.AppendDecorators(decor.AverageETA(decor.ET_STYLE_GO)),
			mpb.PrependDecorators(decor.Name("sentences")),
			mpb.PrependDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
			mpb.BarRemoveOnComplete())
		start := time.Now()
		opts = append(opts, dataset.WithProgress(func() {
			bar.IncrBy(1, time.Since(start))
		}))
	}

	d, err := dataset.New(c, cfg, opts...)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepCandidates, err)
	}

	if cached {
		err = d.Load(ctx, outPath)
	} else {
		_, err = d.Prepare(ctx)
		if err == nil {
			// Every bar is complete once Prepare succeeds.
			p.Wait()
			err = d.Save(outPath)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPrepCandidates, err)
	}

	return report(cmd, d, cached)
}

func report(cmd *cobra.Command, d *dataset.Dataset, cached bool) error {
	out := cmd.OutOrStdout()

	source := "generated"
	if cached {
		source = "loaded"
	}
	_, err := fmt.Fprintf(out, "%s %d samples over %d elements\n", source, d.Len(), d.Vocabulary().Len())
	if err != nil {
		return err
	}

	exclusions := d.Exclusions()
	if len(exclusions) > 0 {
		_, err = fmt.Fprintf(out, "excluded %d sentences:\n", len(exclusions))
		if err != nil {
			return err
		}
		for _, e := range exclusions {
			_, err = fmt.Fprintf(out, "  %d\t%s\t%v\n", e.Index, e.ID, e.Err)
			if err != nil {
				return err
			}
		}
	}

	distribution := dataset.LabelDistribution(d.Samples())
	_, err = fmt.Fprintf(out, "positives: %d/%d candidates (%.4f overall, %.4f mean per sentence)\n",
		distribution.Positives, distribution.Candidates, distribution.Overall, distribution.MeanPerSample)
	if err != nil {
		return err
	}

	for i, r := range dataset.Split(d.Len()) {
		_, err = fmt.Fprintf(out, "partition %d: samples [%d, %d) n=%d\n", i, r.Start, r.End, r.Len())
		if err != nil {
			return err
		}
	}

	return nil
}
