package detect

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// imageExts are the file extensions the model server accepts.
var imageExts = map[string]bool{
	".bmp": true, ".dng": true, ".jpeg": true, ".jpg": true, ".mpo": true,
	".png": true, ".tif": true, ".tiff": true, ".webp": true, ".pfm": true,
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	return imageExts[strings.ToLower(filepath.Ext(path))]
}

// CollectImages expands source into image paths. A file is returned as is;
// a directory yields its images sorted by name.
func CollectImages(source string) ([]string, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, errors.Wrap(err, "invalid source")
	}
	if !info.IsDir() {
		return []string{source}, nil
	}

	entries, err := os.ReadDir(source)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", source)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(source, e.Name()))
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, errors.Errorf("no images found in %s", source)
	}
	return paths, nil
}
