package photo

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJPEG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())
}

func TestAttach_ReencodesAsPNG(t *testing.T) {
	src := filepath.Join(t.TempDir(), "upload.jpg")
	writeJPEG(t, src)

	dir := filepath.Join(t.TempDir(), "photos")
	s := New(dir, nil)

	ref, err := s.Attach(12, src, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "patient_12.png"), ref)

	f, err := os.Open(ref)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
}

func TestAttach_NotAnImage(t *testing.T) {
	src := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	s := New(t.TempDir(), nil)
	_, err := s.Attach(1, src, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode image")

	_, err = s.Attach(1, filepath.Join(t.TempDir(), "missing.png"), nil)
	require.Error(t, err)
}

func TestAttach_SkipsNamesInUse(t *testing.T) {
	src := filepath.Join(t.TempDir(), "upload.jpg")
	writeJPEG(t, src)

	dir := filepath.Join(t.TempDir(), "photos")
	s := New(dir, nil)

	first := filepath.Join(dir, "patient_1.png")
	second := filepath.Join(dir, "patient_1_2.png")
	inUse := func(ref string) bool {
		return SameFile(ref, first) || SameFile(ref, second)
	}

	ref, err := s.Attach(1, src, inUse)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "patient_1_3.png"), ref)
	_, err = os.Stat(first)
	assert.True(t, os.IsNotExist(err), "a name in use must not be written")
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, SameFile(filepath.Join(dir, "a.png"), filepath.Join(dir, "x", "..", "a.png")))
	assert.False(t, SameFile(filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")))
	assert.False(t, SameFile("", ""))
}

func TestRemove(t *testing.T) {
	src := filepath.Join(t.TempDir(), "upload.jpg")
	writeJPEG(t, src)
	s := New(t.TempDir(), nil)

	ref, err := s.Attach(3, src, nil)
	require.NoError(t, err)

	removed, err := s.Remove(ref)
	require.NoError(t, err)
	assert.True(t, removed)
	_, err = os.Stat(ref)
	assert.True(t, os.IsNotExist(err))

	removed, err = s.Remove(ref)
	require.NoError(t, err)
	assert.False(t, removed, "missing file is not an error")
}

func TestRemove_LeavesForeignFiles(t *testing.T) {
	foreign := filepath.Join(t.TempDir(), "keep.png")
	require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))

	s := New(t.TempDir(), nil)
	removed, err := s.Remove(foreign)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = os.Stat(foreign)
	assert.NoError(t, err)
}
