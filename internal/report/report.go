// Package report formats detector results for terminals and LaTeX documents.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ironsheep/yolo-tools/internal/detect"
)

// WriteInference prints the detections for one image.
func WriteInference(w io.Writer, imagePath string, dets []detect.Detection) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Image: %s\n", imagePath)
	fmt.Fprintf(w, "Detections: %d\n", len(dets))
	for _, d := range dets {
		fmt.Fprintf(w, "  Class %d  Conf: %.3f  BBox: %s\n", d.ClassID, d.Confidence, formatBox(d.Box))
	}
}

// WriteEvaluation prints the summary and per-class AP of a validation run.
func WriteEvaluation(w io.Writer, m *detect.Metrics) {
	fmt.Fprintln(w, "\n=== EVALUATION RESULTS ===")
	fmt.Fprintf(w, "mAP50: %.4f\n", m.MAP50)
	fmt.Fprintf(w, "mAP50-95: %.4f\n\n", m.MAP50_95)

	fmt.Fprintln(w, "Per-class AP:")
	for _, row := range m.Rows() {
		fmt.Fprintf(w, "  %s: %.4f\n", row.Class, row.AP)
	}
}

// WriteComponents prints one analysed component per line.
func WriteComponents(w io.Writer, comps []detect.Component) {
	for _, c := range comps {
		fmt.Fprintln(w, c.String())
	}
}

func formatBox(b [4]float64) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
