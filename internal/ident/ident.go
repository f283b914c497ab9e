// Package ident allocates patient serial numbers.
//
// Next is a pure function of the live record set: it is recomputed on every
// call because deletes and imports move the maximum between calls. Sequence
// hands out a run of fresh values for batch operations such as imports.
package ident

import (
	"fmt"

	"github.com/roach88/patientbook/internal/record"
)

// Max returns the largest serial number in records, or 0 if there is none.
func Max(records []record.Patient) int64 {
	var max int64
	for _, r := range records {
		if r.SerialNo > max {
			max = r.SerialNo
		}
	}
	return max
}

// Next returns max(existing serial numbers) + 1, or 1 for an empty set.
func Next(records []record.Patient) int64 {
	return Max(records) + 1
}

// Validate rejects serial numbers that cannot be stored.
func Validate(serial int64) error {
	if serial <= 0 {
		return fmt.Errorf("serial number must be positive, got %d", serial)
	}
	return nil
}

// Sequence hands out strictly increasing serial numbers starting after a
// seed. It is not safe for concurrent use; batch allocation happens inside a
// single mutating call.
type Sequence struct {
	last int64
}

// NewSequence creates a sequence whose first value is seed+1.
func NewSequence(seed int64) *Sequence {
	return &Sequence{last: seed}
}

// Next returns the next serial number.
func (s *Sequence) Next() int64 {
	s.last++
	return s.last
}

// Current returns the last value handed out (or the seed).
func (s *Sequence) Current() int64 {
	return s.last
}
