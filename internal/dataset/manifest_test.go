package dataset

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLoadManifest(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{
			"sequence",
			"nc: 2\nnames: [wheel, chassis]\n",
			[]string{"wheel", "chassis"},
			false,
		},
		{
			"block sequence",
			"names:\n  - background\n  - car\n",
			[]string{"background", "car"},
			false,
		},
		{
			"index mapping",
			"names:\n  1: chassis\n  0: wheel\n",
			[]string{"wheel", "chassis"},
			false,
		},
		{
			"mapping with gap",
			"names:\n  0: wheel\n  2: chassis\n",
			nil,
			true,
		},
		{
			"missing names",
			"nc: 2\n",
			nil,
			true,
		},
		{
			"scalar names",
			"names: wheel\n",
			nil,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ManifestFile)
			writeFile(t, path, tt.content)

			m, err := LoadManifest(path)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got names %v", m.Names)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadManifest failed: %v", err)
			}
			if !reflect.DeepEqual(m.Names, tt.want) {
				t.Errorf("names: got %v, want %v", m.Names, tt.want)
			}
		})
	}
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestManifest_Name(t *testing.T) {
	m := &Manifest{Names: []string{"wheel", "chassis"}}

	if m.Len() != 2 {
		t.Errorf("Len: got %d, want 2", m.Len())
	}
	if m.Name(1) != "chassis" {
		t.Errorf("Name(1): got %q, want chassis", m.Name(1))
	}
	if m.Name(2) != "" || m.Name(-1) != "" {
		t.Error("out of range indices should return empty names")
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, MergedManifestFile)
	names := []string{"wheel", "chassis", "car"}

	if err := WriteManifest(path, "data/merged", names); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	content := readFile(t, path)
	for _, want := range []string{"path: data/merged", "train: train/images", "val: val/images", "test: test/images", "nc: 3"} {
		if !strings.Contains(content, want) {
			t.Errorf("manifest missing %q:\n%s", want, content)
		}
	}

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("written manifest does not load: %v", err)
	}
	if !reflect.DeepEqual(m.Names, names) {
		t.Errorf("names: got %v, want %v", m.Names, names)
	}
}
