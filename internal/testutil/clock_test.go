package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/patientbook/internal/record"
)

func TestFixedClock_DefaultStart(t *testing.T) {
	clock := NewFixedClock(time.Time{})
	assert.Equal(t, time.Date(2024, time.January, 15, 9, 30, 0, 0, time.UTC), clock.Now())
}

func TestFixedClock_AdvanceAndSet(t *testing.T) {
	start := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	clock := NewFixedClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now(), "Now must not advance on its own")

	clock.Advance(90 * time.Second)
	assert.Equal(t, start.Add(90*time.Second), clock.Now())

	later := start.Add(24 * time.Hour)
	clock.Set(later)
	assert.Equal(t, later, clock.Now())
}

func TestFixedClock_ConcurrentAdvance(t *testing.T) {
	clock := NewFixedClock(time.Time{})
	start := clock.Now()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clock.Advance(time.Second)
		}()
	}
	wg.Wait()

	assert.Equal(t, start.Add(50*time.Second), clock.Now())
}

func TestFixedGeneration(t *testing.T) {
	gen := NewFixedGeneration("gen-a")
	assert.Equal(t, "gen-a", gen.Generate())
	assert.Equal(t, "gen-a", gen.Generate())

	assert.Equal(t, "test-generation-default", NewFixedGeneration("").Generate())
}

func TestNewPatient_Options(t *testing.T) {
	p := NewPatient(3, "Meena",
		WithAge(41), WithGender(record.GenderFemale),
		WithDates("2024-01-02", ""), Dismissed())

	require.NotNil(t, p.Age)
	assert.Equal(t, 41, *p.Age)
	assert.Equal(t, record.GenderFemale, p.Gender)
	assert.Equal(t, Date(2024, time.January, 2), p.StartDate)
	assert.True(t, p.EndDate.IsZero())
	assert.True(t, p.DuplicateDismissed)
	assert.NoError(t, p.Validate())
}

func TestSamplePatients_AreValidAndUnique(t *testing.T) {
	seen := map[int64]bool{}
	for _, p := range SamplePatients() {
		assert.NoError(t, p.Validate())
		assert.False(t, seen[p.SerialNo], "serial %d repeated", p.SerialNo)
		seen[p.SerialNo] = true
	}
}
