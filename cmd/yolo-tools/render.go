package main

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ironsheep/yolo-tools/internal/dataset"
	"github.com/ironsheep/yolo-tools/internal/imaging"
	"github.com/ironsheep/yolo-tools/internal/report"
)

func newRenderCmd(a *app) *cobra.Command {
	var root, split, out string
	var colors []string
	var maxSide int
	var showClass bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Draw ground-truth boxes for one split of a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sp, err := parseSplit(split)
			if err != nil {
				return err
			}
			root = orDefault(root, a.cfg.Dataset.MergedRoot)
			out = orDefault(out, a.cfg.Output.VisualizationsDir)
			if !cmd.Flags().Changed("max-side") {
				maxSide = a.cfg.Output.MaxSide
			}

			opts := imaging.RenderOptions{MaxSide: maxSide, ShowClass: showClass}
			if m, err := dataset.LoadRootManifest(root); err == nil {
				opts.NumClasses = m.Len()
			}
			for _, hex := range colors {
				c, err := imaging.ParseHexColor(hex)
				if err != nil {
					return &exitError{code: exitConfig, err: err}
				}
				opts.Palette = append(opts.Palette, c)
			}

			n, err := imaging.RenderSplit(imaging.NewImageCache(), root, sp, out, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d images from %s/%s into %s\n", n, root, sp, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "dataset root (default merged root from config)")
	cmd.Flags().StringVar(&split, "split", string(dataset.SplitVal), "split to render: train, val or test")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default from config)")
	cmd.Flags().IntVar(&maxSide, "max-side", 0, "downscale so neither side exceeds this, 0 keeps the size (default from config)")
	cmd.Flags().BoolVar(&showClass, "show-class", false, "draw the class index above each box")
	cmd.Flags().StringSliceVar(&colors, "colors", nil, "box colours by class index as #RRGGBB (default generated palette)")
	return cmd
}

func parseSplit(name string) (dataset.Split, error) {
	for _, sp := range dataset.Splits {
		if string(sp) == name {
			return sp, nil
		}
	}
	return "", &exitError{code: exitConfig, err: errors.Errorf("unknown split %q, want train, val or test", name)}
}

func newCropCmd(a *app) *cobra.Command {
	var image, labels, out string
	var scale float64

	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Crop every labelled object of one image into its own PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("image", image); err != nil {
				return err
			}
			if labels == "" {
				// images/<stem>.<ext> -> labels/<stem>.txt
				stem, _ := dataset.SplitStem(filepath.Base(image))
				labels = filepath.Join(filepath.Dir(filepath.Dir(image)), dataset.LabelsDir, stem+dataset.LabelExt)
			}
			out = orDefault(out, filepath.Join(a.cfg.Output.VisualizationsDir, "crops"))

			paths, err := imaging.CropObjects(imaging.NewImageCache(), image, labels, out, scale)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "image to crop")
	cmd.Flags().StringVar(&labels, "labels", "", "YOLO label file (default the sibling labels/<stem>.txt)")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default <visualizations>/crops)")
	cmd.Flags().Float64Var(&scale, "scale", 1.0, "scale factor applied to each crop")
	return cmd
}

func newLatexFiguresCmd(a *app) *cobra.Command {
	var dir, out string

	cmd := &cobra.Command{
		Use:   "latex-figures",
		Short: "Write one LaTeX figure block per .jpg in a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir = orDefault(dir, a.cfg.Output.VisualizationsDir)
			out = orDefault(out, a.cfg.Output.FiguresFile)
			if _, err := report.WriteLatexFigures(dir, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated LaTeX figure block in %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory of rendered predictions (default visualizations)")
	cmd.Flags().StringVar(&out, "out", "", "output .tex file (default figures.tex)")
	return cmd
}
