package store

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/roach88/patientbook/internal/fs"
	"github.com/roach88/patientbook/internal/ident"
	"github.com/roach88/patientbook/internal/record"
)

// Store holds the patient table in memory and is the single writer of its
// durable file.
type Store struct {
	path string
	fs   fs.FileSystem
	gen  GenerationSource
	now  func() time.Time

	rows []record.Patient
	meta Meta
}

// Option configures a Store.
type Option func(*Store)

// WithFileSystem overrides the file system used for rename and cleanup.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(s *Store) { s.fs = fsys }
}

// WithGenerationSource overrides the generation token source.
func WithGenerationSource(g GenerationSource) Option {
	return func(s *Store) { s.gen = g }
}

// WithClock overrides the clock used to stamp saves.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store bound to path without touching the file.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		fs:   fs.Default,
		gen:  UUIDv7Generator{},
		now:  time.Now,
		rows: []record.Patient{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store bound to path and loads it.
// A missing file yields an empty store; the file is created on first save.
func Open(path string, opts ...Option) (*Store, error) {
	s := New(path, opts...)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the durable file path.
func (s *Store) Path() string {
	return s.path
}

// Meta returns metadata of the last save seen by this store.
func (s *Store) Meta() Meta {
	return s.meta
}

// Load replaces the in-memory table with the contents of the durable file.
// On failure the in-memory table is unchanged.
func (s *Store) Load() error {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.rows = []record.Patient{}
			s.meta = Meta{}
			return nil
		}
		return record.NewCorruptStoreError(s.path, "cannot stat file", err)
	}
	if info.IsDir() {
		return record.NewCorruptStoreError(s.path, "path is a directory", nil)
	}

	rows, meta, err := ReadFile(s.path)
	if err != nil {
		return err
	}
	s.rows = rows
	s.meta = meta
	return nil
}

// Save writes the in-memory table to the durable file.
func (s *Store) Save() error {
	return s.commit(s.rows)
}

// commit persists rows and, only on success, makes them the live table.
func (s *Store) commit(rows []record.Patient) error {
	meta := Meta{
		Generation:  s.gen.Generate(),
		SavedAt:     s.now().UTC(),
		RecordCount: len(rows),
	}
	if err := s.writeAtomic(rows, meta); err != nil {
		return record.NewPersistenceError(s.path, err)
	}
	s.rows = rows
	s.meta = meta
	return nil
}

// writeAtomic writes a complete file next to the durable file and renames it
// into place. On failure the temporary file is removed.
func (s *Store) writeAtomic(rows []record.Patient, meta Meta) error {
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := fs.RemoveIfExists(s.fs, tmpPath); err != nil {
		return fmt.Errorf("remove stale temporary file: %w", err)
	}

	if err := writeFile(tmpPath, rows, meta); err != nil {
		fs.RemoveIfExists(s.fs, tmpPath)
		return fmt.Errorf("write temporary file: %w", err)
	}

	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		fs.RemoveIfExists(s.fs, tmpPath)
		return fmt.Errorf("replace durable file: %w", err)
	}

	if err := fs.SyncDir(s.fs, dir); err != nil {
		return fmt.Errorf("sync directory: %w", err)
	}
	return nil
}

// Len returns the number of live records.
func (s *Store) Len() int {
	return len(s.rows)
}

// Records returns a deep copy of the table in table order.
func (s *Store) Records() []record.Patient {
	out := make([]record.Patient, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Clone()
	}
	return out
}

// Get returns the first record with the given serial number.
func (s *Store) Get(serial int64) (record.Patient, error) {
	idx := s.indexOf(serial)
	if idx < 0 {
		return record.Patient{}, record.NewNotFoundError(serial)
	}
	return s.rows[idx].Clone(), nil
}

// Create validates p, allocates a serial number if it has none, appends it
// and persists. A serial number that already exists is rejected.
func (s *Store) Create(p record.Patient) (record.Patient, error) {
	p = p.Normalize().Clone()
	if err := p.Validate(); err != nil {
		return record.Patient{}, err
	}

	if p.SerialNo == 0 {
		p.SerialNo = ident.Next(s.rows)
	} else if s.indexOf(p.SerialNo) >= 0 {
		return record.Patient{}, record.NewDuplicateIdentifierError(p.SerialNo)
	}

	next := make([]record.Patient, len(s.rows), len(s.rows)+1)
	copy(next, s.rows)
	next = append(next, p)

	if err := s.commit(next); err != nil {
		return record.Patient{}, err
	}
	return p.Clone(), nil
}

// Update applies patch to the record with the given serial number and
// persists. The serial number itself cannot change here; see RenameIdentifier.
func (s *Store) Update(serial int64, patch record.Patch) (record.Patient, error) {
	idx := s.indexOf(serial)
	if idx < 0 {
		return record.Patient{}, record.NewNotFoundError(serial)
	}

	updated := patch.Apply(s.rows[idx]).Normalize()
	updated.SerialNo = serial
	if err := updated.Validate(); err != nil {
		return record.Patient{}, err
	}

	next := make([]record.Patient, len(s.rows))
	copy(next, s.rows)
	next[idx] = updated

	if err := s.commit(next); err != nil {
		return record.Patient{}, err
	}
	return updated.Clone(), nil
}

// Delete removes every record whose serial number is listed, in one
// persisted batch. Unknown serial numbers are ignored. It returns the number
// of records removed; when nothing matches, the file is not rewritten.
func (s *Store) Delete(serials []int64) (int, error) {
	drop := make(map[int64]struct{}, len(serials))
	for _, serial := range serials {
		drop[serial] = struct{}{}
	}

	next := make([]record.Patient, 0, len(s.rows))
	for _, r := range s.rows {
		if _, ok := drop[r.SerialNo]; !ok {
			next = append(next, r)
		}
	}

	removed := len(s.rows) - len(next)
	if removed == 0 {
		return 0, nil
	}
	if err := s.commit(next); err != nil {
		return 0, err
	}
	return removed, nil
}

// Modify applies fn to every record whose serial number is listed and
// persists the batch with one save. Unknown serial numbers are ignored and
// fn cannot change a serial number. It returns the number of records fn
// changed; when none changed, the file is not rewritten.
func (s *Store) Modify(serials []int64, fn func(record.Patient) record.Patient) (int, error) {
	want := make(map[int64]struct{}, len(serials))
	for _, serial := range serials {
		want[serial] = struct{}{}
	}

	next := make([]record.Patient, len(s.rows))
	changed := 0
	for i, r := range s.rows {
		next[i] = r
		if _, ok := want[r.SerialNo]; !ok {
			continue
		}
		updated := fn(r.Clone()).Normalize()
		updated.SerialNo = r.SerialNo
		if err := updated.Validate(); err != nil {
			return 0, err
		}
		if !reflect.DeepEqual(updated, r) {
			next[i] = updated
			changed++
		}
	}

	if changed == 0 {
		return 0, nil
	}
	if err := s.commit(next); err != nil {
		return 0, err
	}
	return changed, nil
}

// RenameIdentifier changes the serial number of the first record holding
// oldSerial. It exists for duplicate resolution: applied to a colliding
// serial number it moves one record at a time.
func (s *Store) RenameIdentifier(oldSerial, newSerial int64) (record.Patient, error) {
	idx := s.indexOf(oldSerial)
	if idx < 0 {
		return record.Patient{}, record.NewNotFoundError(oldSerial)
	}
	if err := ident.Validate(newSerial); err != nil {
		return record.Patient{}, record.NewInvalidRecordError(oldSerial, err.Error())
	}
	if oldSerial == newSerial {
		return s.rows[idx].Clone(), nil
	}
	if s.indexOf(newSerial) >= 0 {
		return record.Patient{}, record.NewDuplicateIdentifierError(newSerial)
	}

	next := make([]record.Patient, len(s.rows))
	copy(next, s.rows)
	renamed := next[idx].Clone()
	renamed.SerialNo = newSerial
	next[idx] = renamed

	if err := s.commit(next); err != nil {
		return record.Patient{}, err
	}
	return renamed.Clone(), nil
}

// Append adds a batch of records with one save. Every record must carry a
// positive serial number that collides neither with the table nor with the
// rest of the batch; otherwise nothing is appended.
func (s *Store) Append(batch []record.Patient) error {
	if len(batch) == 0 {
		return nil
	}

	taken := make(map[int64]struct{}, len(s.rows)+len(batch))
	for _, r := range s.rows {
		taken[r.SerialNo] = struct{}{}
	}

	next := make([]record.Patient, len(s.rows), len(s.rows)+len(batch))
	copy(next, s.rows)

	for _, p := range batch {
		p = p.Normalize().Clone()
		if err := ident.Validate(p.SerialNo); err != nil {
			return record.NewInvalidRecordError(p.SerialNo, err.Error())
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if _, ok := taken[p.SerialNo]; ok {
			return record.NewDuplicateIdentifierError(p.SerialNo)
		}
		taken[p.SerialNo] = struct{}{}
		next = append(next, p)
	}

	return s.commit(next)
}

// indexOf returns the position of the first record with serial, or -1.
func (s *Store) indexOf(serial int64) int {
	for i, r := range s.rows {
		if r.SerialNo == serial {
			return i
		}
	}
	return -1
}
