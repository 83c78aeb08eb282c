package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv unsets YOLO_TOOLS_* variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key := strings.SplitN(kv, "=", 2)[0]
		if strings.HasPrefix(key, "YOLO_TOOLS_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	clearEnv(t)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env"), "--log-level", "error"}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	writeFile(t, path, buf.String())
}

func writeManifest(t *testing.T, root string, names ...string) {
	t.Helper()
	var sb strings.Builder
	fmt.Fprintf(&sb, "nc: %d\nnames: [%s]\n", len(names), strings.Join(names, ", "))
	writeFile(t, filepath.Join(root, "data.yaml"), sb.String())
}

// newDatasets builds a components root and a racecars root whose class 1
// is "car", and returns them with a not-yet-existing merge target.
func newDatasets(t *testing.T) (components, racecars, merged string) {
	t.Helper()
	base := t.TempDir()
	components = filepath.Join(base, "car_components")
	racecars = filepath.Join(base, "racecars")
	merged = filepath.Join(base, "merged")

	writeManifest(t, components, "wheel", "chassis")
	writeFile(t, filepath.Join(components, "train", "images", "a1.jpg"), "A1")
	writeFile(t, filepath.Join(components, "train", "labels", "a1.txt"), "1 0.5 0.5 0.1 0.1\n")
	writeFile(t, filepath.Join(components, "val", "images", "a2.jpg"), "A2")

	writeManifest(t, racecars, "background", "car")
	writeFile(t, filepath.Join(racecars, "train", "images", "b1.jpg"), "B1")
	writeFile(t, filepath.Join(racecars, "train", "labels", "b1.txt"), "1 0.5 0.5 0.2 0.2\n0 0.1 0.1 0.1 0.1\n")
	writeFile(t, filepath.Join(racecars, "valid", "images", "b2.jpg"), "B2")
	return components, racecars, merged
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "yolo-tools dev\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestMerge(t *testing.T) {
	components, racecars, merged := newDatasets(t)

	out, err := run(t, "merge", "--components", components, "--racecars", racecars, "--out", merged)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !strings.Contains(out, `Racecar class "car": 1 -> 2`) {
		t.Errorf("summary missing mapping:\n%s", out)
	}

	b, err := os.ReadFile(filepath.Join(merged, "train", "labels", "rc_b1.txt"))
	if err != nil {
		t.Fatalf("merged label missing: %v", err)
	}
	if string(b) != "2 0.5 0.5 0.2 0.2" {
		t.Errorf("rc_b1.txt: got %q", string(b))
	}
	if _, err := os.Stat(filepath.Join(merged, "merged_data.yaml")); err != nil {
		t.Errorf("manifest missing: %v", err)
	}
}

func TestMerge_ConfigErrors(t *testing.T) {
	components, racecars, merged := newDatasets(t)
	writeFile(t, filepath.Join(merged, "old.txt"), "stale")

	tests := []struct {
		name string
		args []string
	}{
		{"non-empty destination", []string{"--out", merged}},
		{"no matching class", []string{"--out", filepath.Join(t.TempDir(), "m"), "--candidates", "truck,lorry"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"merge", "--components", components, "--racecars", racecars}, tt.args...)
			_, err := run(t, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if code := exitCode(err); code != exitConfig {
				t.Errorf("exit code: got %d, want %d", code, exitConfig)
			}
		})
	}
}

func TestMerge_ForceCleanAndDryRun(t *testing.T) {
	components, racecars, merged := newDatasets(t)
	writeFile(t, filepath.Join(merged, "old.txt"), "stale")

	out, err := run(t, "merge", "--components", components, "--racecars", racecars, "--out", merged, "--force-clean", "--dry-run")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if !strings.Contains(out, "Dry run") {
		t.Errorf("expected dry-run summary:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(merged, "old.txt")); err != nil {
		t.Error("dry run should not touch the destination")
	}

	if _, err := run(t, "merge", "--components", components, "--racecars", racecars, "--out", merged, "--force-clean", "--no-manifest"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(merged, "old.txt")); err == nil {
		t.Error("--force-clean should remove the old destination")
	}
	if _, err := os.Stat(filepath.Join(merged, "merged_data.yaml")); err == nil {
		t.Error("--no-manifest should skip merged_data.yaml")
	}
}

func TestStats(t *testing.T) {
	components, _, _ := newDatasets(t)

	out, err := run(t, "stats", "--root", components)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"train", "chassis", "wheel"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderAndLatexFigures(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "car")
	writePNG(t, filepath.Join(root, "val", "images", "x.png"), 32, 24)
	writeFile(t, filepath.Join(root, "val", "labels", "x.txt"), "0 0.5 0.5 0.5 0.5\n")
	vis := filepath.Join(t.TempDir(), "visualizations")

	out, err := run(t, "render", "--root", root, "--out", vis)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(out, "Rendered 1 images") {
		t.Errorf("unexpected output:\n%s", out)
	}

	tex := filepath.Join(t.TempDir(), "figures.tex")
	out, err = run(t, "latex-figures", "--dir", vis, "--out", tex)
	if err != nil {
		t.Fatalf("latex-figures failed: %v", err)
	}
	if out != "Generated LaTeX figure block in "+tex+"\n" {
		t.Errorf("unexpected output: %q", out)
	}
	b, err := os.ReadFile(tex)
	if err != nil {
		t.Fatalf("figures.tex missing: %v", err)
	}
	if !strings.Contains(string(b), "YOLOv8 predictions on x.jpg") {
		t.Errorf("figures.tex:\n%s", b)
	}
}

func TestRender_UnknownSplit(t *testing.T) {
	_, err := run(t, "render", "--root", t.TempDir(), "--split", "holdout")
	if err == nil || exitCode(err) != exitConfig {
		t.Errorf("expected configuration error, got %v", err)
	}
}

// newModelServer fakes the model server endpoints.
func newModelServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"detections":[{"class_id":1,"confidence":0.875,"bbox":[1,2,10,12]}]}`)
	})
	mux.HandleFunc("/validate", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"class_names":["wheel","car"],"per_class_ap":[0.5,0.25],"map50":0.61,"map50_95":0.42}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestInfer(t *testing.T) {
	srv := newModelServer(t)
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame.png"), 20, 20)
	outDir := filepath.Join(t.TempDir(), "detect")

	clearEnv(t)
	t.Setenv("YOLO_TOOLS_DETECTOR_URL", srv.URL)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", filepath.Join(dir, "none.env"), "infer", "--model", "best.pt", "--source", dir, "--out", outDir})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("infer failed: %v", err)
	}

	for _, want := range []string{"Detections: 1", "  Class 1  Conf: 0.875  BBox: [1, 2, 10, 12]", "Annotated images saved"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(filepath.Join(outDir, "frame.jpg")); err != nil {
		t.Errorf("annotated image missing: %v", err)
	}
}

func TestEvalAndLatexTable(t *testing.T) {
	srv := newModelServer(t)
	dir := t.TempDir()
	tex := filepath.Join(dir, "table.tex")

	clearEnv(t)
	t.Setenv("YOLO_TOOLS_DETECTOR_URL", srv.URL)
	t.Setenv("YOLO_TOOLS_MODEL", "best.pt")

	for _, args := range [][]string{
		{"eval", "--data", "merged_data.yaml", "--save-json"},
		{"latex-table", "--data", "merged_data.yaml", "--out", tex},
	} {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"--env-file", filepath.Join(dir, "none.env")}, args...))
		if err := cmd.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%s failed: %v", args[0], err)
		}
		if args[0] == "eval" && !strings.Contains(out.String(), "mAP50: 0.6100") {
			t.Errorf("eval output:\n%s", out.String())
		}
	}

	b, err := os.ReadFile(tex)
	if err != nil {
		t.Fatalf("table missing: %v", err)
	}
	if !strings.Contains(string(b), "car & 0.2500 \\\\") {
		t.Errorf("table:\n%s", b)
	}
}

func TestInfer_MissingModel(t *testing.T) {
	_, err := run(t, "infer", "--source", t.TempDir())
	if err == nil || exitCode(err) != exitConfig {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestRender_InvalidColor(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "car")
	writeFile(t, filepath.Join(root, "val", "labels", "x.txt"), "")

	_, err := run(t, "render", "--root", root, "--out", t.TempDir(), "--colors", "#ff0000,crimson")
	if err == nil || exitCode(err) != exitConfig {
		t.Errorf("expected configuration error, got %v", err)
	}
}
