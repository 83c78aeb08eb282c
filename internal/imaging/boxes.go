package imaging

import (
	"image"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/ironsheep/yolo-tools/internal/dataset"
	"github.com/ironsheep/yolo-tools/internal/detect"
)

// Box is a class-tagged pixel rectangle. Rect.Min is inclusive and Rect.Max
// exclusive, matching image.Rectangle.
type Box struct {
	Class int             `json:"class"`
	Rect  image.Rectangle `json:"rect"`
}

// FromLabel converts a normalised YOLO label record into pixel space for an
// image of the given size.
//
// Records with four fields are boxes (x_center y_center width height).
// Records with an even number of six or more fields are segmentation
// polygons (x1 y1 x2 y2 ...); their bounding rectangle is used.
func FromLabel(rec dataset.LabelRecord, width, height int) (Box, error) {
	vals := make([]float64, len(rec.Fields))
	for i, f := range rec.Fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Box{}, errors.Errorf("label field %q is not a number", f)
		}
		vals[i] = v
	}

	w, h := float64(width), float64(height)
	var x1, y1, x2, y2 float64

	switch {
	case len(vals) == 4:
		xc, yc, bw, bh := vals[0], vals[1], vals[2], vals[3]
		x1, y1 = (xc-bw/2)*w, (yc-bh/2)*h
		x2, y2 = (xc+bw/2)*w, (yc+bh/2)*h
	case len(vals) >= 6 && len(vals)%2 == 0:
		x1, y1 = math.Inf(1), math.Inf(1)
		x2, y2 = math.Inf(-1), math.Inf(-1)
		for i := 0; i < len(vals); i += 2 {
			x1 = math.Min(x1, vals[i]*w)
			x2 = math.Max(x2, vals[i]*w)
			y1 = math.Min(y1, vals[i+1]*h)
			y2 = math.Max(y2, vals[i+1]*h)
		}
	default:
		return Box{}, errors.Errorf("label has %d coordinate fields, want 4 or a polygon", len(vals))
	}

	return Box{Class: rec.Class, Rect: toRect(x1, y1, x2, y2)}, nil
}

// FromDetection converts a detector result (already in pixels).
func FromDetection(d detect.Detection) Box {
	return Box{Class: d.ClassID, Rect: toRect(d.Box[0], d.Box[1], d.Box[2], d.Box[3])}
}

func toRect(x1, y1, x2, y2 float64) image.Rectangle {
	return image.Rect(
		int(math.Round(x1)), int(math.Round(y1)),
		int(math.Round(x2)), int(math.Round(y2)),
	)
}
