package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/yolo-tools/internal/detect"
)

func sampleMetrics() *detect.Metrics {
	return &detect.Metrics{
		ClassNames: []string{"wheel", "front_wing", "car"},
		PerClassAP: []float64{0.51234, 0.25, 0.9},
		MAP50:      0.81239,
		MAP50_95:   0.6,
	}
}

func TestWriteInference(t *testing.T) {
	var buf bytes.Buffer
	WriteInference(&buf, "data/img1.jpg", []detect.Detection{
		{ClassID: 2, Confidence: 0.91234, Box: [4]float64{10, 20.5, 110, 220}},
	})

	out := buf.String()
	for _, want := range []string{
		strings.Repeat("=", 60),
		"Image: data/img1.jpg",
		"Detections: 1",
		"  Class 2  Conf: 0.912  BBox: [10, 20.5, 110, 220]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteEvaluation(t *testing.T) {
	var buf bytes.Buffer
	WriteEvaluation(&buf, sampleMetrics())

	out := buf.String()
	for _, want := range []string{"=== EVALUATION RESULTS ===", "mAP50: 0.8124", "mAP50-95: 0.6000", "  wheel: 0.5123", "  car: 0.9000"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLatexTable(t *testing.T) {
	var buf bytes.Buffer
	if err := LatexTable(&buf, sampleMetrics()); err != nil {
		t.Fatalf("LatexTable failed: %v", err)
	}

	want := "\\begin{table}[H]\n\\centering\n" +
		"\\begin{tabular}{l c}\n\\hline\n" +
		"Class & AP \\\\\n\\hline\n" +
		"wheel & 0.5123 \\\\\n" +
		"front\\_wing & 0.2500 \\\\\n" +
		"car & 0.9000 \\\\\n" +
		"\\hline\n\\end{tabular}\n" +
		"\\caption{Per-class Average Precision (AP)}\n" +
		"\\end{table}\n"
	if buf.String() != want {
		t.Errorf("table mismatch:\ngot:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestEscapeLatex(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"a_b", `a\_b`},
		{"50% & more", `50\% \& more`},
		{`back\slash`, `back\textbackslash{}slash`},
	}
	for _, tt := range tests {
		if got := EscapeLatex(tt.in); got != tt.want {
			t.Errorf("EscapeLatex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteLatexFigures(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.jpg", "c.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out := filepath.Join(t.TempDir(), "figures.tex")

	n, err := WriteLatexFigures(dir, out)
	if err != nil {
		t.Fatalf("WriteLatexFigures failed: %v", err)
	}
	if n != 2 {
		t.Errorf("figures: got %d, want 2", n)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	content := string(b)
	if strings.Count(content, "\\begin{figure}[H]") != 2 {
		t.Errorf("expected 2 figure blocks:\n%s", content)
	}
	if strings.Index(content, "a.jpg") > strings.Index(content, "b.jpg") {
		t.Error("figures should be sorted by name")
	}
	if strings.Contains(content, "c.png") {
		t.Error("only .jpg images should be included")
	}
	if !strings.Contains(content, "\\caption{YOLOv8 predictions on a.jpg}") {
		t.Errorf("missing caption:\n%s", content)
	}
	if !strings.Contains(content, "\\includegraphics[width=0.85\\textwidth]{"+filepath.ToSlash(filepath.Join(dir, "a.jpg"))+"}") {
		t.Errorf("missing includegraphics line:\n%s", content)
	}
}

func TestWriteComponents(t *testing.T) {
	var buf bytes.Buffer
	WriteComponents(&buf, []detect.Component{{Name: "wheel", Confidence: 0.5, Box: [4]float64{1, 2, 3, 4}}})
	if buf.String() != "wheel(0.50): (1.0, 2.0, 3.0, 4.0)\n" {
		t.Errorf("got %q", buf.String())
	}
}
