package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/yolo-tools/internal/dataset"
)

// CropBox extracts the region of box from img, clipped to the image, and
// optionally rescales it.
func CropBox(img image.Image, box Box, scale float64) (*image.NRGBA, error) {
	bounds := img.Bounds()
	r := box.Rect.Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("box %v lies outside image bounds %v", box.Rect, bounds)
	}

	cropped := imaging.Crop(img, r)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		if newWidth < 1 {
			newWidth = 1
		}
		if newHeight < 1 {
			newHeight = 1
		}
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}
	return cropped, nil
}

// CropObjects writes one image per labelled object of imgPath into outDir,
// named <stem>_<n>_c<class>.png, and returns the written paths. Objects that
// fall entirely outside the image are skipped.
func CropObjects(cache *ImageCache, imgPath, labelPath, outDir string, scale float64) ([]string, error) {
	img, err := cache.Load(imgPath)
	if err != nil {
		return nil, err
	}
	records, err := dataset.ReadLabels(labelPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}

	stem, _ := dataset.SplitStem(filepath.Base(imgPath))
	bounds := img.Bounds()

	var written []string
	for i, rec := range records {
		box, err := FromLabel(rec, bounds.Dx(), bounds.Dy())
		if err != nil {
			return written, errors.Wrapf(err, "bad label in %s", labelPath)
		}
		crop, err := CropBox(img, box, scale)
		if err != nil {
			continue
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s_%d_c%d.png", stem, i, rec.Class))
		if err := Save(path, crop); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
