package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/ironsheep/yolo-tools/internal/detect"
)

var latexEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// EscapeLatex escapes characters that are special in LaTeX text mode.
func EscapeLatex(s string) string {
	return latexEscaper.Replace(s)
}

// LatexTable writes a per-class AP table. Requires the float package for [H].
func LatexTable(w io.Writer, m *detect.Metrics) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("\\begin{table}[H]\n\\centering\n")
	bw.WriteString("\\begin{tabular}{l c}\n\\hline\n")
	bw.WriteString("Class & AP \\\\\n\\hline\n")
	for _, row := range m.Rows() {
		fmt.Fprintf(bw, "%s & %.4f \\\\\n", EscapeLatex(row.Class), row.AP)
	}
	bw.WriteString("\\hline\n\\end{tabular}\n")
	bw.WriteString("\\caption{Per-class Average Precision (AP)}\n")
	bw.WriteString("\\end{table}\n")
	return bw.Flush()
}

// WriteLatexTable writes LatexTable output to path.
func WriteLatexTable(path string, m *detect.Metrics) error {
	return writeFile(path, func(w io.Writer) error { return LatexTable(w, m) })
}

// LatexFigures writes one figure block per image path. Paths are emitted as
// given; captions use the base name.
func LatexFigures(w io.Writer, images []string) error {
	bw := bufio.NewWriter(w)
	for _, img := range images {
		bw.WriteString("\\begin{figure}[H]\n")
		bw.WriteString("\\centering\n")
		fmt.Fprintf(bw, "\\includegraphics[width=0.85\\textwidth]{%s}\n", filepath.ToSlash(img))
		fmt.Fprintf(bw, "\\caption{YOLOv8 predictions on %s}\n", EscapeLatex(filepath.Base(img)))
		bw.WriteString("\\end{figure}\n\n")
	}
	return bw.Flush()
}

// FigureImages returns the .jpg files in dir, sorted.
func FigureImages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.jpg"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid image directory")
	}
	sort.Strings(matches)
	return matches, nil
}

// WriteLatexFigures writes a figure block for every .jpg in dir to path and
// returns the number of figures.
func WriteLatexFigures(dir, path string) (int, error) {
	images, err := FigureImages(dir)
	if err != nil {
		return 0, err
	}
	err = writeFile(path, func(w io.Writer) error { return LatexFigures(w, images) })
	return len(images), err
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := fn(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return errors.Wrapf(f.Close(), "failed to close %s", path)
}
