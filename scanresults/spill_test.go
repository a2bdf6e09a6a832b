package scanresults

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSpillCreateAndGrow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spill.bin")
	s, err := createSpill(path)
	require.NoError(t, err)
	defer s.remove()

	require.Len(t, s.data, spillInitialSize)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(spillInitialSize), fi.Size())

	// write near the end, then force a growth step
	copy(s.data[spillInitialSize-4:], []byte{1, 2, 3, 4})
	require.NoError(t, s.ensure(spillInitialSize+1))
	require.Len(t, s.data, spillInitialSize+spillGrowStep)

	fi, err = os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(spillInitialSize+spillGrowStep), fi.Size())

	// the remapped view still sees bytes written before the growth
	require.Equal(t, []byte{1, 2, 3, 4}, s.data[spillInitialSize-4:spillInitialSize])

	// ensure below the current size is a no-op
	require.NoError(t, s.ensure(1))
	require.Len(t, s.data, spillInitialSize+spillGrowStep)
}

func TestSpillCloseAndRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spill.bin")
	s, err := createSpill(path)
	require.NoError(t, err)

	require.NoError(t, s.close())
	require.NoError(t, s.close(), "close is safe to call twice")

	require.NoError(t, s.remove())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
	require.NoError(t, s.remove(), "remove after remove is a no-op")
}

func TestSpillOverwritesStaleFile(t *testing.T) {
	// a crash can leave a stale spill behind; the next session truncates it
	path := filepath.Join(t.TempDir(), "spill.bin")
	require.NoError(t, os.WriteFile(path, []byte("stale garbage"), 0o644))

	s, err := createSpill(path)
	require.NoError(t, err)
	defer s.remove()

	require.Equal(t, []byte{0, 0, 0, 0, 0}, s.data[:5])
}

func TestSpillStaleFileIsTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FuzzySpillName)
	require.NoError(t, os.WriteFile(path, make([]byte, 3), 0o644)) // not a record multiple

	s := NewFuzzyStore(0, dir)
	defer s.Destroy()
	require.NoError(t, s.Add(fz(0x1000)))

	got, err := s.GetAll()
	require.NoError(t, err)
	require.Equal(t, []FuzzyResult{fz(0x1000)}, got)
}
