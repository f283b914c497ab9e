package tabular

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/roach88/patientbook/internal/record"
)

// Format identifies an interchange format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat resolves a format name, ignoring case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want csv or json)", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	return f, err == nil
}

// Write encodes records in format f.
func Write(w io.Writer, f Format, records []record.Patient) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// Read decodes records in format f.
func Read(r io.Reader, f Format) ([]record.Patient, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r)
	case FormatJSON:
		return ReadJSON(r)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
}
