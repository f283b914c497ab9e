package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/patientbook/internal/record"
)

// ReadCSV decodes records from CSV with a header row.
//
// Errors carry the 1-based line number of the offending row.
func ReadCSV(r io.Reader) ([]record.Patient, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("line 1: missing header row")
		}
		return nil, fmt.Errorf("line 1: %w", err)
	}

	columns := make([]string, len(header))
	known := 0
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if col, ok := record.CanonicalColumn(h); ok {
			columns[i] = col
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("line 1: header names no patient column: %s", strings.Join(header, ", "))
	}

	records := []record.Patient{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(row) {
			continue
		}

		cells := make(map[string]string, known)
		for i, v := range row {
			if i < len(columns) && columns[i] != "" {
				cells[columns[i]] = v
			}
		}

		p, err := record.FromCells(cells)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, p)
	}
	return records, nil
}

// WriteCSV encodes records as CSV with a header in canonical column order.
func WriteCSV(w io.Writer, records []record.Patient) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(record.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range records {
		if err := cw.Write(p.Cells()); err != nil {
			return fmt.Errorf("write serial %d: %w", p.SerialNo, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
