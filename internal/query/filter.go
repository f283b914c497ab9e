package query

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/patientbook/internal/record"
)

// Filter is a conjunction of optional predicates. A nil or zero field does
// not constrain the result.
type Filter struct {
	Gender    *record.Gender       `json:"gender,omitempty"`
	Satisfied *record.Satisfaction `json:"satisfied,omitempty"`
	MinAge    *int                 `json:"min_age,omitempty"`
	MaxAge    *int                 `json:"max_age,omitempty"`

	// StartFrom and StartTo bound start_date inclusively. Records without a
	// start date never match a bounded range.
	StartFrom record.Date `json:"start_from,omitzero"`
	StartTo   record.Date `json:"start_to,omitzero"`

	HasPhoto  *bool `json:"has_photo,omitempty"`
	Dismissed *bool `json:"dismissed,omitempty"`
}

// IsEmpty reports whether f matches every record.
func (f Filter) IsEmpty() bool {
	return len(f.predicates()) == 0
}

type predicate func(record.Patient) bool

// predicates returns one predicate per constrained field.
func (f Filter) predicates() []predicate {
	var preds []predicate

	if f.Gender != nil {
		want := *f.Gender
		preds = append(preds, func(p record.Patient) bool { return p.Gender == want })
	}
	if f.Satisfied != nil {
		want := *f.Satisfied
		preds = append(preds, func(p record.Patient) bool { return p.Satisfied == want })
	}
	if f.MinAge != nil {
		lo := *f.MinAge
		preds = append(preds, func(p record.Patient) bool { return p.Age != nil && *p.Age >= lo })
	}
	if f.MaxAge != nil {
		hi := *f.MaxAge
		preds = append(preds, func(p record.Patient) bool { return p.Age != nil && *p.Age <= hi })
	}
	if !f.StartFrom.IsZero() {
		from := f.StartFrom
		preds = append(preds, func(p record.Patient) bool {
			return !p.StartDate.IsZero() && p.StartDate.Compare(from) >= 0
		})
	}
	if !f.StartTo.IsZero() {
		to := f.StartTo
		preds = append(preds, func(p record.Patient) bool {
			return !p.StartDate.IsZero() && p.StartDate.Compare(to) <= 0
		})
	}
	if f.HasPhoto != nil {
		want := *f.HasPhoto
		preds = append(preds, func(p record.Patient) bool { return (p.PhotoRef != "") == want })
	}
	if f.Dismissed != nil {
		want := *f.Dismissed
		preds = append(preds, func(p record.Patient) bool { return p.DuplicateDismissed == want })
	}
	return preds
}

// Apply returns the records matching every predicate of f, in input order.
func Apply(records []record.Patient, f Filter) []record.Patient {
	preds := f.predicates()
	if len(preds) == 0 {
		return clone(records)
	}

	rows := roaring.New()
	rows.AddRange(0, uint64(len(records)))
	for _, pred := range preds {
		rows.And(bitmapOf(records, pred))
		if rows.IsEmpty() {
			return []record.Patient{}
		}
	}

	out := make([]record.Patient, 0, rows.GetCardinality())
	it := rows.Iterator()
	for it.HasNext() {
		out = append(out, records[it.Next()].Clone())
	}
	return out
}

// bitmapOf returns the positions of the records satisfying pred.
func bitmapOf(records []record.Patient, pred predicate) *roaring.Bitmap {
	bm := roaring.New()
	for i, p := range records {
		if pred(p) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

func clone(records []record.Patient) []record.Patient {
	out := make([]record.Patient, len(records))
	for i, p := range records {
		out[i] = p.Clone()
	}
	return out
}
