package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/patientbook/internal/record"
)

// SortKey names a sortable column.
type SortKey string

const (
	SortSerialNo   SortKey = record.ColSerialNo
	SortName       SortKey = record.ColName
	SortAge        SortKey = record.ColAge
	SortStartDate  SortKey = record.ColStartDate
	SortEndDate    SortKey = record.ColEndDate
	SortEmail      SortKey = record.ColEmail
	SortGender     SortKey = record.ColGender
	SortOccupation SortKey = record.ColOccupation
)

// SortKeys lists every valid sort key.
var SortKeys = []SortKey{
	SortSerialNo, SortName, SortAge, SortStartDate, SortEndDate,
	SortEmail, SortGender, SortOccupation,
}

// ParseSortKey resolves a column name, accepting the same legacy headers as
// record.CanonicalColumn. Empty input yields SortSerialNo.
func ParseSortKey(s string) (SortKey, error) {
	if strings.TrimSpace(s) == "" {
		return SortSerialNo, nil
	}
	col, ok := record.CanonicalColumn(s)
	if ok {
		for _, k := range SortKeys {
			if string(k) == col {
				return k, nil
			}
		}
	}
	return "", fmt.Errorf("invalid sort key %q", s)
}

// Sort returns a stably sorted copy of records.
//
// Records missing the sort value go last in both directions. Ties are broken
// by ascending serial number, then by input order.
func Sort(records []record.Patient, key SortKey, ascending bool) []record.Patient {
	out := clone(records)
	slices.SortStableFunc(out, func(a, b record.Patient) int {
		aMissing, bMissing := missing(a, key), missing(b, key)
		switch {
		case aMissing && !bMissing:
			return 1
		case !aMissing && bMissing:
			return -1
		case !aMissing && !bMissing:
			c := compareBy(a, b, key)
			if !ascending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.SerialNo, b.SerialNo)
	})
	return out
}

func missing(p record.Patient, key SortKey) bool {
	switch key {
	case SortName:
		return p.Name == ""
	case SortAge:
		return p.Age == nil
	case SortStartDate:
		return p.StartDate.IsZero()
	case SortEndDate:
		return p.EndDate.IsZero()
	case SortEmail:
		return p.Email == ""
	case SortOccupation:
		return p.Occupation == ""
	default:
		return false
	}
}

// compareBy compares two records that both carry a value for key.
func compareBy(a, b record.Patient, key SortKey) int {
	switch key {
	case SortName:
		return compareText(a.Name, b.Name)
	case SortAge:
		return cmp.Compare(*a.Age, *b.Age)
	case SortStartDate:
		return a.StartDate.Compare(b.StartDate)
	case SortEndDate:
		return a.EndDate.Compare(b.EndDate)
	case SortEmail:
		return compareText(a.Email, b.Email)
	case SortGender:
		return cmp.Compare(a.Gender, b.Gender)
	case SortOccupation:
		return compareText(a.Occupation, b.Occupation)
	default:
		return cmp.Compare(a.SerialNo, b.SerialNo)
	}
}

// compareText orders case-insensitively, falling back to byte order.
func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}
