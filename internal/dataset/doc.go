// Package dataset merges two YOLO-format detection datasets into a single
// dataset with a unified class taxonomy.
//
// A dataset is a root directory holding a data.yaml class manifest and a
// split tree:
//
//	<root>/data.yaml
//	<root>/train/images/*.jpg    <root>/train/labels/*.txt
//	<root>/val/images/...        (the source may call it "valid")
//	<root>/test/images/...
//
// Each label file shares its image's stem and holds one object per line:
//
//	<class_index> <x_center> <y_center> <width> <height>
//
// # Merge Semantics
//
// The "components" dataset (A) is copied through unchanged: its classes keep
// their indices and occupy the low end of the merged index space. From the
// "racecars" dataset (B) exactly one class survives. It is located by
// case-insensitive name matching against a prioritised candidate list and is
// appended to the merged taxonomy at index len(A.classes). Every other class
// of B is dropped from its label files; a label file that filters down to
// nothing is not written, while its image is still copied.
//
// Copied files are renamed with a dataset tag ("cc_" for A, "rc_" for B) so
// names stay unique across sources, and "valid" split directories are
// normalised to "val".
//
// # Error Handling
//
// Configuration errors (no matching class, missing val/valid directory,
// non-empty destination) and malformed label lines are all detected while
// planning, before anything under the destination is created. I/O failures
// during execution leave a partially populated tree; there is no rollback.
package dataset
