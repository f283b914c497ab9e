package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/patientbook/internal/fs"
	"github.com/roach88/patientbook/internal/record"
)

// createTestStore opens a store on a fresh path inside t.TempDir().
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "patients.db")
	s, err := Open(path, opts...)
	require.NoError(t, err)
	return s
}

// createTestPatient creates a patient with the fields most tests care about.
func createTestPatient(serial int64, name string) record.Patient {
	return record.Patient{
		SerialNo:  serial,
		Name:      name,
		Email:     fmt.Sprintf("patient%d@example.com", serial),
		Age:       record.Ptr(30 + int(serial)),
		Gender:    record.GenderFemale,
		Phone:     fmt.Sprintf("98450%05d", serial),
		Symptoms:  "Knee pain",
		Treatment: "Rest",
		StartDate: record.NewDate(2024, time.March, 1),
	}
}

// crashFS wraps a FileSystem and fails the rename of the temporary file
// after truncating it, simulating a crash halfway through replacing the file.
type crashFS struct {
	fs.FileSystem
	crashed bool
}

func (c *crashFS) Rename(oldpath, newpath string) error {
	if info, err := os.Stat(oldpath); err == nil {
		os.Truncate(oldpath, info.Size()/2)
	}
	c.crashed = true
	return fmt.Errorf("injected crash on rename: %s -> %s", oldpath, newpath)
}

var _ fs.FileSystem = &crashFS{}
