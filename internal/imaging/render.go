package imaging

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/ironsheep/yolo-tools/internal/dataset"
	"github.com/ironsheep/yolo-tools/internal/detect"
)

// RenderOptions controls how boxes are drawn and written.
type RenderOptions struct {
	// Palette colours boxes by class index. Nil means Palette(NumClasses).
	Palette []color.NRGBA

	// NumClasses sizes the default palette; at least 1 is used.
	NumClasses int

	// Thickness is the outline width in pixels. Default 2.
	Thickness int

	// MaxSide downscales output so neither side exceeds it. 0 keeps the size.
	MaxSide int

	// ShowClass draws the class index in a tab above each box.
	ShowClass bool
}

func (o RenderOptions) palette() []color.NRGBA {
	if o.Palette != nil {
		return o.Palette
	}
	n := o.NumClasses
	if n < 1 {
		n = 1
	}
	return Palette(n)
}

// DrawBoxes returns a copy of img with each box outlined in its class colour.
// Boxes are clipped to the image bounds.
func DrawBoxes(img image.Image, boxes []Box, opts RenderOptions) *image.NRGBA {
	out := imaging.Clone(img)
	palette := opts.palette()
	thickness := opts.Thickness
	if thickness <= 0 {
		thickness = 2
	}

	for _, b := range boxes {
		c := colorFor(palette, b.Class)
		r := b.Rect.Intersect(out.Bounds())
		if r.Empty() {
			continue
		}
		for i := 0; i < thickness; i++ {
			drawRect(out, r.Inset(i), c)
		}
		if opts.ShowClass {
			drawLabel(out, r.Min.X, r.Min.Y-labelHeight, strconv.Itoa(b.Class), color.NRGBA{255, 255, 255, 255}, c)
		}
	}
	return out
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}

const labelHeight = 7

// drawLabel draws digits in a 3x5 pixel font on a filled tab.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	if y < bounds.Min.Y {
		y = bounds.Min.Y
	}
	const charWidth = 4
	set := func(px, py int, c color.NRGBA) {
		if image.Pt(px, py).In(bounds) {
			img.SetNRGBA(px, py, c)
		}
	}

	for dy := 0; dy < labelHeight; dy++ {
		for dx := 0; dx < len(text)*charWidth+1; dx++ {
			set(x+dx, y+dy, bg)
		}
	}

	cx := x + 1
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' {
					set(cx+col, y+1+row, fg)
				}
			}
		}
		cx += charWidth
	}
}

// RenderLabels draws the ground-truth boxes of labelPath onto the image at
// imgPath. A missing label file renders the image without boxes.
func RenderLabels(cache *ImageCache, imgPath, labelPath string, opts RenderOptions) (*image.NRGBA, error) {
	img, err := cache.Load(imgPath)
	if err != nil {
		return nil, err
	}

	var records []dataset.LabelRecord
	if labelPath != "" {
		if _, statErr := os.Stat(labelPath); statErr == nil {
			records, err = dataset.ReadLabels(labelPath)
			if err != nil {
				return nil, err
			}
		}
	}

	bounds := img.Bounds()
	boxes := make([]Box, 0, len(records))
	for _, rec := range records {
		b, err := FromLabel(rec, bounds.Dx(), bounds.Dy())
		if err != nil {
			return nil, errors.Wrapf(err, "bad label in %s", labelPath)
		}
		boxes = append(boxes, b)
	}
	return fit(DrawBoxes(img, boxes, opts), opts.MaxSide), nil
}

// RenderDetections draws detector output onto the image at imgPath.
func RenderDetections(cache *ImageCache, imgPath string, dets []detect.Detection, opts RenderOptions) (*image.NRGBA, error) {
	img, err := cache.Load(imgPath)
	if err != nil {
		return nil, err
	}
	boxes := make([]Box, len(dets))
	for i, d := range dets {
		boxes[i] = FromDetection(d)
	}
	return fit(DrawBoxes(img, boxes, opts), opts.MaxSide), nil
}

func fit(img *image.NRGBA, maxSide int) *image.NRGBA {
	if maxSide <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxSide && b.Dy() <= maxSide {
		return img
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

// RenderSplit renders every image of one split of the dataset at root into
// outDir as <stem>.jpg and returns the number of images written. For the
// val split a "valid" directory is accepted.
func RenderSplit(cache *ImageCache, root string, split dataset.Split, outDir string, opts RenderOptions) (int, error) {
	dir := string(split)
	if split == dataset.SplitVal {
		valDir, err := dataset.ResolveValDir(root)
		if err != nil {
			return 0, err
		}
		dir = valDir
	}

	images, err := dataset.ListImages(filepath.Join(root, dir, dataset.ImagesDir))
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return 0, errors.Wrap(err, "failed to create output directory")
	}

	written := 0
	for _, imgPath := range images {
		if !detect.IsImage(imgPath) {
			continue
		}
		stem, _ := dataset.SplitStem(filepath.Base(imgPath))
		labelPath := filepath.Join(root, dir, dataset.LabelsDir, stem+dataset.LabelExt)

		out, err := RenderLabels(cache, imgPath, labelPath, opts)
		if err != nil {
			return written, err
		}
		cache.Evict(imgPath)
		if err := Save(filepath.Join(outDir, stem+".jpg"), out); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
