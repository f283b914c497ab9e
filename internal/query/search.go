package query

import (
	"strings"

	"github.com/roach88/patientbook/internal/record"
)

// Search returns the records where any searchable field contains text,
// ignoring case. Empty text matches every record.
func Search(records []record.Patient, text string) []record.Patient {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return clone(records)
	}

	out := []record.Patient{}
	for _, p := range records {
		if matches(p, needle) {
			out = append(out, p.Clone())
		}
	}
	return out
}

func matches(p record.Patient, needle string) bool {
	for _, field := range []string{
		p.Name, p.Symptoms, p.Address, p.Email, p.Phone, p.Occupation, p.Treatment,
	} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
