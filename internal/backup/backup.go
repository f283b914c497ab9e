// Package backup snapshots the durable patient file.
//
// A snapshot is a byte copy of the file taken between saves. The store
// replaces its file by rename, so a copy always sees one complete
// generation. Snapshots are named
//
//	<stem>_backup_YYYYMMDD_HHMMSS[_N]<ext>[.zst]
//
// with the timestamp in UTC and _N added when a name is already taken.
package backup

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/patientbook/internal/fs"
	"github.com/roach88/patientbook/internal/record"
	"github.com/roach88/patientbook/internal/store"
)

const (
	timeLayout      = "20060102_150405"
	compressedExt   = ".zst"
	restoreTempExt  = ".restore"
	maxNameAttempts = 1000
)

// Snapshot describes one backup file.
type Snapshot struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"created_at"`
	Size       int64     `json:"size"`
	Compressed bool      `json:"compressed"`

	seq int
}

// Options configures a Manager.
type Options struct {
	// Dir holds the snapshots. Empty means the source file's directory.
	Dir string
	// Compress writes new snapshots zstd-compressed.
	Compress bool
	// Now stamps snapshot names. Defaults to time.Now.
	Now func() time.Time
	// FS defaults to fs.Default.
	FS fs.FileSystem
}

// Manager creates, lists, restores and prunes snapshots of one source file.
type Manager struct {
	source   string
	dir      string
	compress bool
	now      func() time.Time
	fs       fs.FileSystem
	pattern  *regexp.Regexp
}

// New creates a Manager for the durable file at source.
func New(source string, opts Options) *Manager {
	m := &Manager{
		source:   source,
		dir:      opts.Dir,
		compress: opts.Compress,
		now:      opts.Now,
		fs:       opts.FS,
	}
	if m.dir == "" {
		m.dir = filepath.Dir(source)
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.fs == nil {
		m.fs = fs.Default
	}

	stem, ext := m.stemExt()
	m.pattern = regexp.MustCompile(
		"^" + regexp.QuoteMeta(stem) + `_backup_(\d{8}_\d{6})(?:_(\d+))?` +
			regexp.QuoteMeta(ext) + `(` + regexp.QuoteMeta(compressedExt) + `)?$`,
	)
	return m
}

// Dir returns the snapshot directory.
func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) stemExt() (string, string) {
	base := filepath.Base(m.source)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext), ext
}

// Snapshot copies the source file into a new snapshot. The source is only
// read.
func (m *Manager) Snapshot() (Snapshot, error) {
	src, err := m.fs.OpenFile(m.source, os.O_RDONLY, 0)
	if err != nil {
		return Snapshot{}, record.NewBackupError(m.source, "cannot read source", err)
	}
	defer src.Close()

	if err := m.fs.MkdirAll(m.dir, 0o755); err != nil {
		return Snapshot{}, record.NewBackupError(m.dir, "cannot create backup directory", err)
	}

	name, err := m.freeName(m.now().UTC())
	if err != nil {
		return Snapshot{}, record.NewBackupError(m.dir, "cannot choose snapshot name", err)
	}
	dest := filepath.Join(m.dir, name)

	err = fs.WriteFileAtomic(m.fs, dest, 0o644, func(w io.Writer) error {
		if !m.compress {
			_, err := io.Copy(w, src)
			return err
		}
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		if _, err := io.Copy(zw, src); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	})
	if err != nil {
		return Snapshot{}, record.NewBackupError(dest, "cannot write snapshot", err)
	}

	info, err := m.fs.Stat(dest)
	if err != nil {
		return Snapshot{}, record.NewBackupError(dest, "cannot stat snapshot", err)
	}
	snap, _ := m.parse(name)
	snap.Size = info.Size()
	return snap, nil
}

// freeName returns the first unused snapshot name for t.
func (m *Manager) freeName(t time.Time) (string, error) {
	stem, ext := m.stemExt()
	if m.compress {
		ext += compressedExt
	}
	base := stem + "_backup_" + t.Format(timeLayout)

	for n := 1; n <= maxNameAttempts; n++ {
		name := base + ext
		if n > 1 {
			name = base + "_" + strconv.Itoa(n) + ext
		}
		exists, err := fs.Exists(m.fs, filepath.Join(m.dir, name))
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
	}
	return "", fmt.Errorf("more than %d snapshots at %s", maxNameAttempts, t.Format(timeLayout))
}

// parse extracts snapshot metadata from a file name.
func (m *Manager) parse(name string) (Snapshot, bool) {
	match := m.pattern.FindStringSubmatch(name)
	if match == nil {
		return Snapshot{}, false
	}
	created, err := time.ParseInLocation(timeLayout, match[1], time.UTC)
	if err != nil {
		return Snapshot{}, false
	}
	seq := 1
	if match[2] != "" {
		if seq, err = strconv.Atoi(match[2]); err != nil {
			return Snapshot{}, false
		}
	}
	return Snapshot{
		Name:       name,
		Path:       filepath.Join(m.dir, name),
		CreatedAt:  created,
		Compressed: match[3] != "",
		seq:        seq,
	}, true
}

// List returns the snapshots of the source file, newest first. A missing
// backup directory yields no snapshots.
func (m *Manager) List() ([]Snapshot, error) {
	entries, err := m.fs.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Snapshot{}, nil
		}
		return nil, record.NewBackupError(m.dir, "cannot list backup directory", err)
	}

	snaps := []Snapshot{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		snap, ok := m.parse(e.Name())
		if !ok {
			continue
		}
		if info, err := e.Info(); err == nil {
			snap.Size = info.Size()
		}
		snaps = append(snaps, snap)
	}

	slices.SortFunc(snaps, func(a, b Snapshot) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if c := cmp.Compare(b.seq, a.seq); c != 0 {
			return c
		}
		return strings.Compare(b.Name, a.Name)
	})
	return snaps, nil
}

// find returns the snapshot called name.
func (m *Manager) find(name string) (Snapshot, error) {
	if name != filepath.Base(name) {
		return Snapshot{}, record.NewBackupError(name, "snapshot name must not contain a directory", nil)
	}
	snap, ok := m.parse(name)
	if !ok {
		return Snapshot{}, record.NewBackupError(name, "not a snapshot of "+filepath.Base(m.source), nil)
	}
	info, err := m.fs.Stat(snap.Path)
	if err != nil {
		return Snapshot{}, record.NewBackupError(snap.Path, "snapshot not found", err)
	}
	snap.Size = info.Size()
	return snap, nil
}

// Restore replaces the source file with the snapshot called name.
//
// The snapshot is validated by loading it as a store first; an unreadable
// snapshot leaves the source untouched. Callers holding the store in memory
// must reload it afterwards.
func (m *Manager) Restore(name string) (Snapshot, error) {
	snap, err := m.find(name)
	if err != nil {
		return Snapshot{}, err
	}

	if err := m.fs.MkdirAll(filepath.Dir(m.source), 0o755); err != nil {
		return Snapshot{}, record.NewBackupError(m.source, "cannot create data directory", err)
	}

	plain := snap.Path
	if snap.Compressed {
		plain = m.source + restoreTempExt
		defer fs.RemoveIfExists(m.fs, plain)
		if err := m.decompress(snap.Path, plain); err != nil {
			return Snapshot{}, record.NewBackupError(snap.Path, "cannot decompress snapshot", err)
		}
	}

	if _, _, err := store.ReadFile(plain); err != nil {
		return Snapshot{}, record.NewBackupError(snap.Path, "snapshot is not a valid store", err)
	}

	err = fs.WriteFileAtomic(m.fs, m.source, 0o644, func(w io.Writer) error {
		src, err := m.fs.OpenFile(plain, os.O_RDONLY, 0)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return Snapshot{}, record.NewBackupError(m.source, "cannot replace data file", err)
	}
	return snap, nil
}

func (m *Manager) decompress(src, dst string) error {
	in, err := m.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer dec.Close()

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, dec); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Prune deletes all but the newest keep snapshots and returns the deleted
// ones.
func (m *Manager) Prune(keep int) ([]Snapshot, error) {
	if keep < 0 {
		return nil, record.NewBackupError(m.dir, fmt.Sprintf("keep must not be negative, got %d", keep), nil)
	}
	snaps, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(snaps) <= keep {
		return []Snapshot{}, nil
	}

	removed := []Snapshot{}
	for _, snap := range snaps[keep:] {
		if err := m.fs.Remove(snap.Path); err != nil {
			return removed, record.NewBackupError(snap.Path, "cannot delete snapshot", err)
		}
		removed = append(removed, snap)
	}
	return removed, nil
}
