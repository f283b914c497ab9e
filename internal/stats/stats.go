// Package stats computes summary statistics over a set of patient records.
package stats

import (
	"strings"

	"github.com/roach88/patientbook/internal/record"
)

// GenderCount is the number and share of records with one gender.
type GenderCount struct {
	Gender  record.Gender `json:"gender"`
	Count   int           `json:"count"`
	Percent float64       `json:"percent"`
}

// Summary holds the statistics of a record set. Pointer fields are nil when
// no record carries the underlying value.
type Summary struct {
	Total                 int           `json:"total"`
	Genders               []GenderCount `json:"genders"`
	AverageAge            *float64      `json:"average_age"`
	WithAge               int           `json:"with_age"`
	MostCommonSymptom     *string       `json:"most_common_symptom"`
	MostCommonSymptomSeen int           `json:"most_common_symptom_count"`
	AverageTreatmentDays  *float64      `json:"average_treatment_days"`
	CompletedTreatments   int           `json:"completed_treatments"`
}

// Summarize computes the statistics of records.
//
// Genders lists every gender in record.Genders order, including zero
// counts. The most common symptom compares trimmed text exactly; ties go to
// the lexically smallest. Treatment duration counts records with both dates
// and an end date not before the start.
func Summarize(records []record.Patient) Summary {
	s := Summary{Total: len(records)}

	byGender := make(map[record.Gender]int, len(record.Genders))
	symptoms := make(map[string]int)
	var ageSum, daySum int

	for _, p := range records {
		byGender[p.Normalize().Gender]++

		if p.Age != nil {
			ageSum += *p.Age
			s.WithAge++
		}

		if sym := strings.TrimSpace(p.Symptoms); sym != "" {
			symptoms[sym]++
		}

		if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Compare(p.StartDate) >= 0 {
			daySum += int(p.EndDate.Time().Sub(p.StartDate.Time()).Hours() / 24)
			s.CompletedTreatments++
		}
	}

	s.Genders = make([]GenderCount, 0, len(record.Genders))
	for _, g := range record.Genders {
		gc := GenderCount{Gender: g, Count: byGender[g]}
		if s.Total > 0 {
			gc.Percent = 100 * float64(gc.Count) / float64(s.Total)
		}
		s.Genders = append(s.Genders, gc)
	}

	if s.WithAge > 0 {
		avg := float64(ageSum) / float64(s.WithAge)
		s.AverageAge = &avg
	}

	if s.CompletedTreatments > 0 {
		avg := float64(daySum) / float64(s.CompletedTreatments)
		s.AverageTreatmentDays = &avg
	}

	for sym, n := range symptoms {
		if n > s.MostCommonSymptomSeen || (n == s.MostCommonSymptomSeen && sym < *s.MostCommonSymptom) {
			s.MostCommonSymptom = &sym
			s.MostCommonSymptomSeen = n
		}
	}

	return s
}

// Count returns the count for gender g.
func (s Summary) Count(g record.Gender) int {
	for _, gc := range s.Genders {
		if gc.Gender == g {
			return gc.Count
		}
	}
	return 0
}
