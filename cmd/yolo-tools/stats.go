package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ironsheep/yolo-tools/internal/dataset"
)

func newStatsCmd(a *app) *cobra.Command {
	var root string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count images, labels and class instances per split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root = orDefault(root, a.cfg.Dataset.MergedRoot)
			m, err := dataset.LoadRootManifest(root)
			if err != nil {
				return err
			}
			stats, err := dataset.CollectStats(root, m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(stats)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SPLIT\tDIR\tIMAGES\tLABELS\tBACKGROUND\tINSTANCES")
			for _, sp := range dataset.Splits {
				s, ok := stats.Splits[sp]
				if !ok {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", sp, s.Dir, s.Images, s.LabelFiles, s.Background, s.Instances)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "CLASS\tNAME\tINSTANCES")
			for _, c := range stats.Classes {
				fmt.Fprintf(tw, "%d\t%s\t%d\n", c.Index, c.Name, c.Instances)
			}
			for _, c := range stats.Unknown {
				fmt.Fprintf(tw, "%d\t(unknown)\t%d\n", c.Index, c.Instances)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "dataset root (default merged root from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the statistics as JSON")
	return cmd
}
