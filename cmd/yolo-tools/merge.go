package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ironsheep/yolo-tools/internal/dataset"
)

type mergeFlags struct {
	components string
	racecars   string
	out        string
	candidates []string
	forceClean bool
	noManifest bool
	dryRun     bool
	asJSON     bool
}

func newMergeCmd(a *app) *cobra.Command {
	f := &mergeFlags{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the components and racecars datasets into one training tree",
		Long: `Merge a car-components dataset (A) and a racecars dataset (B) into one YOLO
tree with train, val and test splits.

A's images and labels are copied unchanged with the "cc_" prefix. From B only
the racecar class is kept, remapped to the index after A's last class, and
written with the "rc_" prefix. The racecar class is the first of the
candidate names found in B's data.yaml, compared case-insensitively.

The destination must be empty or missing unless --force-clean is given.
Use --dry-run to validate and count without writing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMerge(cmd, a, f)
		},
	}

	cmd.Flags().StringVar(&f.components, "components", "", "components dataset root (default from config)")
	cmd.Flags().StringVar(&f.racecars, "racecars", "", "racecars dataset root (default from config)")
	cmd.Flags().StringVar(&f.out, "out", "", "merged dataset root (default from config)")
	cmd.Flags().StringSliceVar(&f.candidates, "candidates", nil, "racecar class names in priority order (default racecar,car,vehicle)")
	cmd.Flags().BoolVar(&f.forceClean, "force-clean", false, "remove the destination before merging")
	cmd.Flags().BoolVar(&f.noManifest, "no-manifest", false, "do not write merged_data.yaml")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "validate and count without writing")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the result as JSON")
	return cmd
}

func runMerge(cmd *cobra.Command, a *app, f *mergeFlags) error {
	opts := a.cfg.MergeOptions()
	opts.ComponentsRoot = orDefault(f.components, opts.ComponentsRoot)
	opts.RacecarsRoot = orDefault(f.racecars, opts.RacecarsRoot)
	opts.MergedRoot = orDefault(f.out, opts.MergedRoot)
	if len(f.candidates) > 0 {
		opts.Candidates = f.candidates
	}
	opts.Force = f.forceClean
	opts.WriteManifest = !f.noManifest

	m := dataset.NewMerger(opts, a.logger)

	var result *dataset.Result
	if f.dryRun {
		plan, err := m.Plan()
		if err != nil {
			return err
		}
		result = plan.Summary()
	} else {
		var err error
		if result, err = m.Run(); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printMergeSummary(out, result)
	return nil
}

func printMergeSummary(w io.Writer, r *dataset.Result) {
	mp := r.Mapping
	fmt.Fprintf(w, "Components classes: %v\n", mp.Components.Names)
	fmt.Fprintf(w, "Racecars classes:   %v\n", mp.Racecars.Names)
	fmt.Fprintf(w, "Racecar class %q: %d -> %d\n", mp.SourceName, mp.SourceIndex, mp.TargetIndex)
	fmt.Fprintf(w, "Merged classes:     %v\n", mp.Merged.Names)

	for _, src := range []struct {
		name   string
		counts dataset.SourceCounts
	}{{"components", r.Components}, {"racecars", r.Racecars}} {
		for _, sp := range dataset.Splits {
			c := src.counts[sp]
			if c == nil || c.Images == 0 {
				continue
			}
			fmt.Fprintf(w, "  %-10s %-5s images=%d labels=%d kept=%d dropped=%d\n",
				src.name, sp, c.Images, c.LabelFiles, c.KeptLines, c.DroppedLines)
		}
	}

	switch {
	case r.DryRun:
		fmt.Fprintf(w, "Dry run: nothing written to %s\n", r.MergedRoot)
	case r.ManifestPath != "":
		fmt.Fprintf(w, "Merged dataset written to %s (manifest %s)\n", r.MergedRoot, r.ManifestPath)
	default:
		fmt.Fprintf(w, "Merged dataset written to %s\n", r.MergedRoot)
	}
}
