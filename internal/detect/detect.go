// Package detect talks to the external object detector.
//
// Inference and metric computation happen in a separate model server; this
// package only defines the result types and a client for it.
package detect

import (
	"context"
	"fmt"
	"strconv"
)

// Detection is one predicted object. Box is (x1, y1, x2, y2) in pixels.
type Detection struct {
	ClassID    int        `json:"class_id"`
	ClassName  string     `json:"class_name,omitempty"`
	Confidence float64    `json:"confidence"`
	Box        [4]float64 `json:"bbox"`
}

// Metrics is the outcome of validating a model against a dataset.
type Metrics struct {
	ClassNames []string  `json:"class_names"`
	PerClassAP []float64 `json:"per_class_ap"`
	MAP50      float64   `json:"map50"`
	MAP50_95   float64   `json:"map50_95"`
}

// APRow pairs a class name with its average precision.
type APRow struct {
	Class string  `json:"class"`
	AP    float64 `json:"ap"`
}

// Rows pairs class names with per-class AP. Extra entries on either side
// are ignored.
func (m *Metrics) Rows() []APRow {
	n := len(m.ClassNames)
	if len(m.PerClassAP) < n {
		n = len(m.PerClassAP)
	}
	rows := make([]APRow, n)
	for i := 0; i < n; i++ {
		rows[i] = APRow{Class: m.ClassNames[i], AP: m.PerClassAP[i]}
	}
	return rows
}

// ValidateRequest selects the dataset to validate against.
type ValidateRequest struct {
	Data     string `json:"data"`
	SaveJSON bool   `json:"save_json"`
}

// Detector runs inference on a single image.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}

// Validator computes validation metrics for a dataset description.
type Validator interface {
	Validate(ctx context.Context, req ValidateRequest) (*Metrics, error)
}

// Component is a detection resolved to a class name.
type Component struct {
	Name       string
	Confidence float64
	Box        [4]float64
}

func (c Component) String() string {
	return fmt.Sprintf("%s(%.2f): (%s, %s, %s, %s)", c.Name, c.Confidence,
		formatCoord(c.Box[0]), formatCoord(c.Box[1]), formatCoord(c.Box[2]), formatCoord(c.Box[3]))
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// AnalyzeComponents detects objects in imagePath and names each one. names
// takes precedence over the class name reported by the detector.
func AnalyzeComponents(ctx context.Context, d Detector, imagePath string, names []string) ([]Component, error) {
	detections, err := d.Detect(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	components := make([]Component, 0, len(detections))
	for _, det := range detections {
		components = append(components, Component{
			Name:       ClassName(det, names),
			Confidence: det.Confidence,
			Box:        det.Box,
		})
	}
	return components, nil
}

// ClassName resolves the display name of a detection: names[ClassID] when
// names covers the index, else the name the detector reported, else
// class_<id>. Names from the dataset manifest win so that output matches
// the merged taxonomy.
func ClassName(det Detection, names []string) string {
	if det.ClassID >= 0 && det.ClassID < len(names) {
		return names[det.ClassID]
	}
	if det.ClassName != "" {
		return det.ClassName
	}
	return "class_" + strconv.Itoa(det.ClassID)
}
