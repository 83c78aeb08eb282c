package dataset

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// SplitStats describes one split of a dataset tree.
type SplitStats struct {
	Dir        string `json:"dir"`
	Images     int    `json:"images"`
	LabelFiles int    `json:"label_files"`
	Background int    `json:"background"`
	Instances  int    `json:"instances"`
}

// ClassCount is the number of labelled instances of one class.
type ClassCount struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Instances int    `json:"instances"`
}

// Stats summarises a dataset tree. Unknown lists class indices found in
// label files that the manifest does not define.
type Stats struct {
	Root    string                `json:"root"`
	Splits  map[Split]*SplitStats `json:"splits"`
	Classes []ClassCount          `json:"classes"`
	Unknown []ClassCount          `json:"unknown,omitempty"`
}

// LoadRootManifest loads data.yaml from root, falling back to
// merged_data.yaml for merged trees.
func LoadRootManifest(root string) (*Manifest, error) {
	var firstErr error
	for _, name := range []string{ManifestFile, MergedManifestFile} {
		path := filepath.Join(root, name)
		if !fileExists(path) {
			continue
		}
		m, err := LoadManifest(path)
		if err == nil {
			return m, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, errors.Errorf("no %s or %s in %s", ManifestFile, MergedManifestFile, root)
}

// CollectStats counts images, label files and class instances in every
// split of root. A missing val/valid directory is not an error here.
func CollectStats(root string, manifest *Manifest) (*Stats, error) {
	valDir, err := ResolveValDir(root)
	if err != nil {
		valDir = ""
	}
	splits := []SourceSplit{{Dir: "train", Split: SplitTrain}, {Dir: valDir, Split: SplitVal}, {Dir: "test", Split: SplitTest}}

	stats := &Stats{Root: root, Splits: make(map[Split]*SplitStats)}
	perClass := make(map[int]int)

	for _, ss := range splits {
		if ss.Dir == "" {
			continue
		}
		imagesDir := filepath.Join(root, ss.Dir, ImagesDir)
		if !dirExists(imagesDir) {
			continue
		}
		images, err := ListImages(imagesDir)
		if err != nil {
			return nil, err
		}

		st := &SplitStats{Dir: ss.Dir}
		for _, img := range images {
			st.Images++
			stem, _ := SplitStem(filepath.Base(img))
			label := filepath.Join(root, ss.Dir, LabelsDir, stem+LabelExt)
			if !fileExists(label) {
				st.Background++
				continue
			}
			records, err := ReadLabels(label)
			if err != nil {
				return nil, err
			}
			st.LabelFiles++
			st.Instances += len(records)
			for _, rec := range records {
				perClass[rec.Class]++
			}
		}
		stats.Splits[ss.Split] = st
	}

	for i, name := range manifest.Names {
		stats.Classes = append(stats.Classes, ClassCount{Index: i, Name: name, Instances: perClass[i]})
		delete(perClass, i)
	}
	for idx, n := range perClass {
		stats.Unknown = append(stats.Unknown, ClassCount{Index: idx, Instances: n})
	}
	sort.Slice(stats.Unknown, func(i, j int) bool { return stats.Unknown[i].Index < stats.Unknown[j].Index })

	return stats, nil
}
