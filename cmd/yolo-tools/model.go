package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ironsheep/yolo-tools/internal/dataset"
	"github.com/ironsheep/yolo-tools/internal/detect"
	"github.com/ironsheep/yolo-tools/internal/imaging"
	"github.com/ironsheep/yolo-tools/internal/report"
)

func newInferCmd(a *app) *cobra.Command {
	var model, source, outDir string
	var noSave bool

	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Run the detector on an image or a directory of images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("source", source); err != nil {
				return err
			}
			client, err := a.client(model)
			if err != nil {
				return err
			}
			images, err := detect.CollectImages(source)
			if err != nil {
				return err
			}
			outDir = orDefault(outDir, a.cfg.Output.InferenceDir)
			if !noSave {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return errors.Wrap(err, "failed to create output directory")
				}
			}

			cache := imaging.NewImageCache()
			opts := imaging.RenderOptions{MaxSide: a.cfg.Output.MaxSide, ShowClass: true}
			out := cmd.OutOrStdout()

			for _, img := range images {
				dets, err := client.Detect(cmd.Context(), img)
				if err != nil {
					return err
				}
				report.WriteInference(out, img, dets)

				if noSave {
					continue
				}
				rendered, err := imaging.RenderDetections(cache, img, dets, opts)
				if err != nil {
					return err
				}
				cache.Evict(img)
				stem, _ := dataset.SplitStem(filepath.Base(img))
				if err := imaging.Save(filepath.Join(outDir, stem+".jpg"), rendered); err != nil {
					return err
				}
				a.logger.Debug("saved annotated image", zap.String("image", img), zap.Int("detections", len(dets)))
			}

			if noSave {
				fmt.Fprintln(out, "Done.")
			} else {
				fmt.Fprintf(out, "Done. Annotated images saved under '%s/'.\n", outDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model weights (default from config)")
	cmd.Flags().StringVar(&source, "source", "", "image file or directory")
	cmd.Flags().BoolVar(&noSave, "nosave", false, "do not save annotated images")
	cmd.Flags().StringVar(&outDir, "out", "", "directory for annotated images (default from config)")
	return cmd
}

func newEvalCmd(a *app) *cobra.Command {
	var model, data string
	var saveJSON bool

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Validate the model on a dataset and print mAP and per-class AP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("data", data); err != nil {
				return err
			}
			client, err := a.client(model)
			if err != nil {
				return err
			}
			metrics, err := client.Validate(cmd.Context(), detect.ValidateRequest{Data: data, SaveJSON: saveJSON})
			if err != nil {
				return err
			}
			report.WriteEvaluation(cmd.OutOrStdout(), metrics)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model weights (default from config)")
	cmd.Flags().StringVar(&data, "data", "", "dataset YAML")
	cmd.Flags().BoolVar(&saveJSON, "save-json", false, "ask the model server to save COCO-style JSON results")
	return cmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var model, image, data string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "List the components detected in one image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("image", image); err != nil {
				return err
			}
			client, err := a.client(model)
			if err != nil {
				return err
			}

			var names []string
			if data != "" {
				m, err := dataset.LoadManifest(data)
				if err != nil {
					return err
				}
				names = m.Names
			}

			comps, err := detect.AnalyzeComponents(cmd.Context(), client, image, names)
			if err != nil {
				return err
			}
			report.WriteComponents(cmd.OutOrStdout(), comps)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model weights (default from config)")
	cmd.Flags().StringVar(&image, "image", "", "image to analyse")
	cmd.Flags().StringVar(&data, "data", "", "dataset YAML whose names label the detections")
	return cmd
}

func newLatexTableCmd(a *app) *cobra.Command {
	var model, data, out string

	cmd := &cobra.Command{
		Use:   "latex-table",
		Short: "Validate the model and write a LaTeX table of per-class AP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("data", data); err != nil {
				return err
			}
			client, err := a.client(model)
			if err != nil {
				return err
			}
			metrics, err := client.Validate(cmd.Context(), detect.ValidateRequest{Data: data})
			if err != nil {
				return err
			}
			out = orDefault(out, a.cfg.Output.TableFile)
			if err := report.WriteLatexTable(out, metrics); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved LaTeX table: %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model weights (default from config)")
	cmd.Flags().StringVar(&data, "data", "", "dataset YAML")
	cmd.Flags().StringVar(&out, "out", "", "output .tex file (default from config)")
	return cmd
}
