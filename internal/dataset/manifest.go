package dataset

import (
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest is an ordered list of class names; a class index is its position.
type Manifest struct {
	Names []string `json:"names"`
}

// Len returns the number of classes.
func (m *Manifest) Len() int {
	return len(m.Names)
}

// Name returns the class name for idx, or "" if idx is out of range.
func (m *Manifest) Name(idx int) string {
	if idx < 0 || idx >= len(m.Names) {
		return ""
	}
	return m.Names[idx]
}

// LoadManifest reads the names field of a YOLO data.yaml.
//
// Both forms ultralytics accepts are supported:
//
//	names: [wheel, chassis]
//
//	names:
//	  0: wheel
//	  1: chassis
//
// The mapping form must cover every index from 0 to n-1.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read class manifest")
	}

	var doc struct {
		Names yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "failed to parse class manifest %s", path)
	}

	names, err := decodeNames(&doc.Names)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid names in %s", path)
	}
	return &Manifest{Names: names}, nil
}

func decodeNames(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, err
		}
		return names, nil

	case yaml.MappingNode:
		var byIndex map[int]string
		if err := node.Decode(&byIndex); err != nil {
			return nil, err
		}
		keys := make([]int, 0, len(byIndex))
		for k := range byIndex {
			keys = append(keys, k)
		}
		sort.Ints(keys)
		names := make([]string, len(keys))
		for i, k := range keys {
			if k != i {
				return nil, errors.Errorf("class index %d missing from names mapping", i)
			}
			names[i] = byIndex[k]
		}
		return names, nil

	case 0:
		return nil, errors.New("names field is missing")
	default:
		return nil, errors.New("names must be a list or an index mapping")
	}
}

// dataConfig is the data.yaml layout written for the merged dataset.
type dataConfig struct {
	Path  string   `yaml:"path"`
	Train string   `yaml:"train"`
	Val   string   `yaml:"val"`
	Test  string   `yaml:"test"`
	NC    int      `yaml:"nc"`
	Names []string `yaml:"names"`
}

// WriteManifest writes a YOLO data.yaml describing the split tree at root.
func WriteManifest(path, root string, names []string) error {
	cfg := dataConfig{
		Path:  root,
		Train: string(SplitTrain) + "/" + ImagesDir,
		Val:   string(SplitVal) + "/" + ImagesDir,
		Test:  string(SplitTest) + "/" + ImagesDir,
		NC:    len(names),
		Names: names,
	}

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(&cfg); err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "failed to encode manifest")
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return errors.Wrap(err, "failed to write manifest")
	}
	return nil
}
