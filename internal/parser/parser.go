// Package parser converts recognized source files into sequences of RawRows
// with their layout-specific price fields intact. Parsers never decide which
// price field is authoritative; that belongs to the resolver.
package parser

import (
	"fmt"

	"github.com/gyeh/pricebench/internal/detect"
	"github.com/gyeh/pricebench/internal/model"
)

// SchemaViolation reports a recognized layout whose required structure is
// missing or malformed. It fails the one file; the run continues.
type SchemaViolation struct {
	File   string
	Reason string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation in %s: %s", e.File, e.Reason)
}

// Parse converts one source file into RawRows, dispatching on the detected
// layout.
func Parse(path string, format detect.Format) ([]model.RawRow, error) {
	switch format {
	case detect.FormatCMSJSON:
		return ParseCMSJSON(path)
	case detect.FormatWideCSV:
		return ParseWideCSV(path)
	case detect.FormatFlatCSV:
		return ParseFlatCSV(path)
	case detect.FormatCranewareZIP:
		return ParseCranewareZIP(path)
	}
	return nil, fmt.Errorf("no parser for format %q", format)
}
