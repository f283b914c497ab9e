package engine

import (
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/patientbook/internal/backup"
	"github.com/roach88/patientbook/internal/config"
	"github.com/roach88/patientbook/internal/dedup"
	"github.com/roach88/patientbook/internal/fs"
	"github.com/roach88/patientbook/internal/ident"
	"github.com/roach88/patientbook/internal/photo"
	"github.com/roach88/patientbook/internal/record"
	"github.com/roach88/patientbook/internal/store"
)

// Engine wires the patientbook components around one data file.
type Engine struct {
	mu sync.Mutex

	cfg     config.Config
	store   *store.Store
	backups *backup.Manager
	photos  *photo.Store
	logger  *slog.Logger
}

type settings struct {
	logger *slog.Logger
	now    func() time.Time
	gen    store.GenerationSource
	fs     fs.FileSystem
}

// Option configures an Engine.
type Option func(*settings)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithClock sets the clock used for save metadata and backup names.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithGenerationSource sets the source of save generation tokens.
func WithGenerationSource(g store.GenerationSource) Option {
	return func(s *settings) { s.gen = g }
}

// WithFileSystem sets the file system for the store, backups and photos.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(s *settings) { s.fs = fsys }
}

// Open loads the data file named by cfg and wires the components.
// A missing data file yields an empty engine; the file is created on the
// first mutation.
func Open(cfg config.Config, opts ...Option) (*Engine, error) {
	set := settings{
		logger: slog.Default(),
		now:    time.Now,
		gen:    store.UUIDv7Generator{},
		fs:     fs.Default,
	}
	for _, opt := range opts {
		opt(&set)
	}

	s, err := store.Open(cfg.DataFile,
		store.WithClock(set.now),
		store.WithGenerationSource(set.gen),
		store.WithFileSystem(set.fs),
	)
	if err != nil {
		set.logger.Error("failed to load data file", "path", cfg.DataFile, "error", err)
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		store: s,
		backups: backup.New(cfg.DataFile, backup.Options{
			Dir:      cfg.BackupDir,
			Compress: cfg.BackupCompress,
			Now:      set.now,
			FS:       set.fs,
		}),
		photos: photo.New(cfg.PhotoDir, set.fs),
		logger: set.logger,
	}

	meta := s.Meta()
	e.logger.Debug("data file loaded",
		"path", cfg.DataFile,
		"records", s.Len(),
		"generation", meta.Generation,
	)
	return e, nil
}

// Config returns the configuration the engine was opened with.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Reload re-reads the data file, discarding nothing on failure.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Load(); err != nil {
		e.logger.Error("reload failed", "path", e.cfg.DataFile, "error", err)
		return err
	}
	e.logger.Debug("data file reloaded", "records", e.store.Len())
	return nil
}

// Info describes the engine's data file.
type Info struct {
	DataFile   string    `json:"data_file"`
	Records    int       `json:"records"`
	Generation string    `json:"generation,omitempty"`
	SavedAt    time.Time `json:"saved_at,omitzero"`
	PhotoDir   string    `json:"photo_dir"`
	BackupDir  string    `json:"backup_dir"`
	Backups    int       `json:"backups"`
	NextSerial int64     `json:"next_serial"`
	Duplicates int       `json:"duplicate_groups"`
}

// Info reports the state of the data file and its satellites.
func (e *Engine) Info() (Info, error) {
	records, meta := e.snapshot()

	snaps, err := e.backups.List()
	if err != nil {
		return Info{}, err
	}

	info := Info{
		DataFile:   e.cfg.DataFile,
		Records:    len(records),
		Generation: meta.Generation,
		SavedAt:    meta.SavedAt,
		PhotoDir:   e.photos.Dir(),
		BackupDir:  e.backups.Dir(),
		Backups:    len(snaps),
		NextSerial: ident.Next(records),
		Duplicates: len(dedup.FindGroups(records)),
	}
	return info, nil
}

// snapshot copies the table and its metadata under the lock.
func (e *Engine) snapshot() ([]record.Patient, store.Meta) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Records(), e.store.Meta()
}
