// Package imaging renders dataset annotations and detector output onto
// images.
//
// It turns YOLO label records (normalised centre/size boxes or polygons) and
// detector results (pixel corners) into class-tagged Box values, outlines
// them in per-class colours, and writes the result as JPEG or PNG. Rendered
// splits feed the LaTeX figure generator; per-object crops help review
// annotations class by class.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner. A
// Box uses image.Rectangle semantics: Min is inclusive, Max exclusive.
// Normalised label coordinates are scaled by the decoded image size after
// EXIF orientation has been applied.
//
// # Colours
//
// Palette spaces hues evenly in the HCL colour space, so a class keeps the
// same colour across every image rendered with the same class count.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Rendering functions never modify
// the source image; they draw on a copy.
package imaging
