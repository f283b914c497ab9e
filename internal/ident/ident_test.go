package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/patientbook/internal/record"
)

func patients(serials ...int64) []record.Patient {
	out := make([]record.Patient, len(serials))
	for i, s := range serials {
		out[i] = record.Patient{SerialNo: s}
	}
	return out
}

func TestNext_Empty(t *testing.T) {
	assert.Equal(t, int64(1), Next(nil))
	assert.Equal(t, int64(1), Next([]record.Patient{}))
}

func TestNext_StrictlyGreaterThanEveryExisting(t *testing.T) {
	sets := [][]int64{
		{1},
		{3, 1, 2},
		{10, 4, 7},
		{5, 5, 2},
		{100},
	}
	for _, serials := range sets {
		recs := patients(serials...)
		next := Next(recs)
		for _, s := range serials {
			assert.Greater(t, next, s)
		}
	}
}

func TestNext_RecomputedAfterDelete(t *testing.T) {
	recs := patients(1, 2, 9)
	assert.Equal(t, int64(10), Next(recs))

	recs = recs[:2] // 9 deleted
	assert.Equal(t, int64(3), Next(recs))
}

func TestSequence(t *testing.T) {
	seq := NewSequence(7)
	assert.Equal(t, int64(7), seq.Current())
	assert.Equal(t, int64(8), seq.Next())
	assert.Equal(t, int64(9), seq.Next())
	assert.Equal(t, int64(9), seq.Current())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(1))
	assert.Error(t, Validate(0))
	assert.Error(t, Validate(-4))
}
