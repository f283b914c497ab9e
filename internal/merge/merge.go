// Package merge absorbs an external record set into the store without
// serial number collisions.
//
// Incoming records are always additions; nothing already in the store is
// overwritten. Reassignment happens in memory and the result is appended
// with a single save, so a failed merge leaves the store untouched.
package merge

import (
	"fmt"

	"github.com/roach88/patientbook/internal/ident"
	"github.com/roach88/patientbook/internal/record"
)

// Options controls serial number handling.
type Options struct {
	// RenumberAll assigns a fresh serial number to every incoming record,
	// even when its own number is free.
	RenumberAll bool `json:"renumber_all"`
}

// Reassignment records one incoming serial number that was replaced.
// Old is 0 when the incoming record had none.
type Reassignment struct {
	Index int   `json:"index"`
	Old   int64 `json:"old"`
	New   int64 `json:"new"`
}

// Report summarizes a merge.
type Report struct {
	Added      int            `json:"added"`
	Kept       int            `json:"kept"`
	Reassigned []Reassignment `json:"reassigned"`
	Serials    []int64        `json:"serials"`
}

// Target is the store a merge appends to.
type Target interface {
	Records() []record.Patient
	Append(batch []record.Patient) error
}

// Plan computes the records to append without touching any store.
//
// An incoming serial number is kept unless it is unset, already present in
// existing, or already used by an earlier incoming record. Replacement values
// come from a sequence seeded past the maximum of both sets, so they never
// collide with an incoming original that has not been visited yet.
func Plan(existing, incoming []record.Patient, opts Options) ([]record.Patient, Report, error) {
	report := Report{Reassigned: []Reassignment{}, Serials: []int64{}}
	if len(incoming) == 0 {
		return []record.Patient{}, report, nil
	}

	taken := make(map[int64]struct{}, len(existing)+len(incoming))
	for _, p := range existing {
		taken[p.SerialNo] = struct{}{}
	}

	seq := ident.NewSequence(max(ident.Max(existing), ident.Max(incoming)))

	out := make([]record.Patient, 0, len(incoming))
	for i, p := range incoming {
		p = p.Normalize().Clone()
		if err := p.Validate(); err != nil {
			return nil, Report{}, fmt.Errorf("incoming record %d: %w", i+1, err)
		}

		_, collides := taken[p.SerialNo]
		if opts.RenumberAll || p.SerialNo == 0 || collides {
			next := seq.Next()
			report.Reassigned = append(report.Reassigned, Reassignment{Index: i, Old: p.SerialNo, New: next})
			p.SerialNo = next
		} else {
			report.Kept++
		}

		taken[p.SerialNo] = struct{}{}
		report.Serials = append(report.Serials, p.SerialNo)
		out = append(out, p)
	}

	report.Added = len(out)
	return out, report, nil
}

// Merge plans the merge against target's current records and appends the
// result. Either every incoming record is added or none is.
func Merge(target Target, incoming []record.Patient, opts Options) (Report, error) {
	batch, report, err := Plan(target.Records(), incoming, opts)
	if err != nil {
		return Report{}, err
	}
	if len(batch) == 0 {
		return report, nil
	}
	if err := target.Append(batch); err != nil {
		return Report{}, fmt.Errorf("append imported records: %w", err)
	}
	return report, nil
}
