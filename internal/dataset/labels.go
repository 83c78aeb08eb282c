package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LabelRecord is one annotated object: a class index followed by the
// normalised bbox fields, which are kept verbatim.
type LabelRecord struct {
	Class  int
	Fields []string
}

// String renders the record as a label line with single-space separators.
func (r LabelRecord) String() string {
	parts := make([]string, 0, len(r.Fields)+1)
	parts = append(parts, strconv.Itoa(r.Class))
	parts = append(parts, r.Fields...)
	return strings.Join(parts, " ")
}

// ParseLabelLine parses a single non-blank label line.
func ParseLabelLine(line string) (LabelRecord, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return LabelRecord{}, errors.New("empty label line")
	}
	cls, err := strconv.Atoi(parts[0])
	if err != nil {
		return LabelRecord{}, errors.Errorf("class field %q is not an integer", parts[0])
	}
	return LabelRecord{Class: cls, Fields: parts[1:]}, nil
}

// maxLabelLine bounds a single label line.
const maxLabelLine = 16 * 1024 * 1024

// ParseLabels reads label records from r, skipping blank lines. name is used
// in error messages only.
func ParseLabels(r io.Reader, name string) ([]LabelRecord, error) {
	var records []LabelRecord

	scanner := bufio.NewScanner(r)
	// Segmentation polygons can far exceed the default 64KiB line limit
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLabelLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		rec, err := ParseLabelLine(text)
		if err != nil {
			return nil, &MalformedLabelError{Path: name, Line: lineNo, Text: text, Err: err}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	return records, nil
}

// ReadLabels parses the label file at path.
func ReadLabels(path string) ([]LabelRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open label file")
	}
	defer f.Close()
	return ParseLabels(f, path)
}

// FilterRemap keeps only the records of class source and rewrites them to
// class target. Records of any other class are dropped.
func FilterRemap(records []LabelRecord, source, target int) []LabelRecord {
	var kept []LabelRecord
	for _, rec := range records {
		if rec.Class != source {
			continue
		}
		kept = append(kept, LabelRecord{Class: target, Fields: rec.Fields})
	}
	return kept
}

// FormatLabels joins records with newlines, without a trailing newline.
func FormatLabels(records []LabelRecord) string {
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = rec.String()
	}
	return strings.Join(lines, "\n")
}
