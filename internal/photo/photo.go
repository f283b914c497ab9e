// Package photo owns the image files that patient records reference.
//
// Records hold only a reference (the file path). Attached images are
// re-encoded as PNG so the directory holds one format regardless of what
// the user picked.
package photo

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/roach88/patientbook/internal/fs"
)

// Store manages photos in one directory.
type Store struct {
	dir string
	fs  fs.FileSystem
}

// New creates a Store rooted at dir. A nil fsys uses fs.Default.
func New(dir string, fsys fs.FileSystem) *Store {
	if fsys == nil {
		fsys = fs.Default
	}
	return &Store{dir: dir, fs: fsys}
}

// Dir returns the photo directory.
func (s *Store) Dir() string {
	return s.dir
}

// FileName returns the file name used for a patient's photo.
func FileName(serial int64) string {
	return "patient_" + strconv.FormatInt(serial, 10) + ".png"
}

// fileName returns the n-th candidate name for a patient's photo, counting
// from 1.
func fileName(serial int64, n int) string {
	if n <= 1 {
		return FileName(serial)
	}
	return "patient_" + strconv.FormatInt(serial, 10) + "_" + strconv.Itoa(n) + ".png"
}

// SameFile reports whether two references name the same file.
func SameFile(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// Attach decodes the PNG, JPEG or GIF image at src and stores it for the
// patient. It returns the reference to put in the record.
//
// The file is named after the serial number. Serial numbers can be renamed
// and records imported with their references, so a name may already belong
// to another record; inUse reports those, and Attach moves on to
// patient_<serial>_2.png and so on. A nil inUse treats every name as free.
func (s *Store) Attach(serial int64, src string, inUse func(ref string) bool) (string, error) {
	in, err := s.fs.OpenFile(src, os.O_RDONLY, 0)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	img, format, err := image.Decode(in)
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", src, err)
	}

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo directory: %w", err)
	}

	ref := filepath.Join(s.dir, fileName(serial, 1))
	for n := 2; inUse != nil && inUse(ref); n++ {
		ref = filepath.Join(s.dir, fileName(serial, n))
	}
	err = fs.WriteFileAtomic(s.fs, ref, 0o644, func(w io.Writer) error {
		return png.Encode(w, img)
	})
	if err != nil {
		return "", fmt.Errorf("write %s photo: %w", format, err)
	}
	return ref, nil
}

// Remove deletes the photo behind ref. Only files inside the photo
// directory are deleted; references elsewhere are left alone and reported
// as not removed. A missing file is not an error.
func (s *Store) Remove(ref string) (bool, error) {
	if ref == "" || !s.owns(ref) {
		return false, nil
	}
	exists, err := fs.Exists(s.fs, ref)
	if err != nil {
		return false, fmt.Errorf("stat photo: %w", err)
	}
	if !exists {
		return false, nil
	}
	if err := s.fs.Remove(ref); err != nil {
		return false, fmt.Errorf("remove photo: %w", err)
	}
	return true, nil
}

func (s *Store) owns(ref string) bool {
	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return false
	}
	return filepath.Dir(abs) == dir
}
