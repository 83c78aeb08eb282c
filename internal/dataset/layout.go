package dataset

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Split is a dataset partition as named in the merged tree.
type Split string

const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
	SplitTest  Split = "test"
)

// Splits lists the partitions of a merged dataset in processing order.
var Splits = []Split{SplitTrain, SplitVal, SplitTest}

const (
	ImagesDir          = "images"
	LabelsDir          = "labels"
	ManifestFile       = "data.yaml"
	MergedManifestFile = "merged_data.yaml"
	LabelExt           = ".txt"
)

// SourceSplit pairs a directory under a source root with the split it feeds.
type SourceSplit struct {
	Dir   string
	Split Split
}

// ResolveValDir returns "val" or "valid", whichever exists under root.
// "val" wins when both are present.
func ResolveValDir(root string) (string, error) {
	for _, name := range []string{"val", "valid"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			return name, nil
		}
	}
	return "", &ConfigError{Err: ErrMissingValDir, Input: root}
}

// SourceSplits returns the split directories of a source root, with the
// validation directory resolved.
func SourceSplits(root string) ([]SourceSplit, error) {
	valDir, err := ResolveValDir(root)
	if err != nil {
		return nil, err
	}
	return []SourceSplit{
		{Dir: "train", Split: SplitTrain},
		{Dir: valDir, Split: SplitVal},
		{Dir: "test", Split: SplitTest},
	}, nil
}

// ListImages returns the files directly inside dir whose name has an
// extension, sorted by name. Hidden files and directories are skipped.
// A missing dir yields an empty list.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", dir)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") || !strings.Contains(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)
		if e.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// SplitStem returns a file name's stem and extension ("img1.jpg" ->
// "img1", ".jpg").
func SplitStem(name string) (string, string) {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// isEmptyDir reports whether path is absent or an empty directory.
func isEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	_, err = f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	return false, err
}

// copyFile copies src to dst, carrying over permission bits and
// modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
