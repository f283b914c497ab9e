package tabular

import (
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/roach88/patientbook/internal/record"
)

// WriteJSON encodes records as an indented JSON array.
func WriteJSON(w io.Writer, records []record.Patient) error {
	if records == nil {
		records = []record.Patient{}
	}
	enc := gojson.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON array of records and validates each one. Gender
// and satisfaction are matched case-insensitively, as in CSV.
func ReadJSON(r io.Reader) ([]record.Patient, error) {
	var records []record.Patient
	if err := gojson.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	for i := range records {
		g, err := record.ParseGender(string(records[i].Gender))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, record.NewInvalidRecordError(records[i].SerialNo, err.Error()))
		}
		records[i].Gender = g
		sat, err := record.ParseSatisfaction(string(records[i].Satisfied))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, record.NewInvalidRecordError(records[i].SerialNo, err.Error()))
		}
		records[i].Satisfied = sat

		records[i] = records[i].Normalize()
		if err := records[i].Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	if records == nil {
		records = []record.Patient{}
	}
	return records, nil
}
