package scanresults

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerDefaultsToExact(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()
	require.Equal(t, ModeExact, m.Mode())
}

func TestManagerAddRoutesByMode(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()

	require.NoError(t, m.Add(NewExactResult(0x1000, TypeDword)))
	require.ErrorIs(t, m.Add(fz(0x2000)), ErrModeMismatch)
	require.Equal(t, 1, m.TotalCount())

	m.SetMode(ModeFuzzy)
	require.NoError(t, m.Add(fz(0x2000)))
	require.ErrorIs(t, m.Add(NewExactResult(0x3000, TypeDword)), ErrModeMismatch)
	require.Equal(t, 1, m.TotalCount())
}

func TestManagerTypedAddsCheckMode(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()

	require.ErrorIs(t, m.AddFuzzy(fz(0x1000)), ErrModeMismatch)
	require.ErrorIs(t, m.AddFuzzyBatch([]FuzzyResult{fz(0x1000)}), ErrModeMismatch)
	require.NoError(t, m.AddExact(NewExactResult(0x1000, TypeDword)))

	m.SetMode(ModeFuzzy)
	require.ErrorIs(t, m.AddExact(NewExactResult(0x1000, TypeDword)), ErrModeMismatch)
	require.NoError(t, m.AddFuzzy(fz(0x1000)))
	require.NoError(t, m.AddFuzzyBatch([]FuzzyResult{fz(0x2000), fz(0x3000)}))
	require.Equal(t, 3, m.TotalCount())
}

func TestManagerTypedGetsCheckMode(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()

	_, err := m.GetAllFuzzy()
	require.ErrorIs(t, err, ErrModeMismatch)
	_, err = m.GetAllExact()
	require.NoError(t, err)

	m.SetMode(ModeFuzzy)
	_, err = m.GetAllExact()
	require.ErrorIs(t, err, ErrModeMismatch)
	_, err = m.GetAllFuzzy()
	require.NoError(t, err)
}

func TestManagerSetModeWipesOldStore(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(FuzzyResultSize, dir) // tiny budget to force spilling
	defer m.Destroy()

	m.SetMode(ModeFuzzy)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.AddFuzzy(fz(uint64(i))))
	}
	fuzzyPath := filepath.Join(dir, FuzzySpillName)
	_, err := os.Stat(fuzzyPath)
	require.NoError(t, err)

	m.SetMode(ModeExact)
	_, err = os.Stat(fuzzyPath)
	require.True(t, os.IsNotExist(err), "mode switch must wipe the old spill file")
	require.Equal(t, 0, m.TotalCount())

	// switching back finds an empty fuzzy store
	m.SetMode(ModeFuzzy)
	require.Equal(t, 0, m.TotalCount())
}

func TestManagerSetModeSameModeIsNoop(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()

	require.NoError(t, m.AddExact(NewExactResult(0x1000, TypeDword)))
	m.SetMode(ModeExact)
	require.Equal(t, 1, m.TotalCount())
}

func TestManagerGetReturnsVariants(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()

	require.NoError(t, m.AddExact(NewExactResult(0x1000, TypeDword)))
	got, err := m.Get(0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, ok := got[0].(ExactResult)
	require.True(t, ok)

	m.SetMode(ModeFuzzy)
	require.NoError(t, m.AddFuzzy(fz(0x2000)))
	got, err = m.Get(0, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	_, ok = got[0].(FuzzyResult)
	require.True(t, ok)
}

func TestManagerReplaceAllFuzzy(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()

	require.ErrorIs(t, m.ReplaceAllFuzzy(nil), ErrModeMismatch)

	m.SetMode(ModeFuzzy)
	require.NoError(t, m.AddFuzzyBatch([]FuzzyResult{fz(1), fz(2), fz(3)}))

	repl := []FuzzyResult{fz(7), fz(8)}
	require.NoError(t, m.ReplaceAllFuzzy(repl))
	got, err := m.GetAllFuzzy()
	require.NoError(t, err)
	require.Equal(t, repl, got)
}

func TestManagerRemoveAndKeepOnly(t *testing.T) {
	m := NewManager(1024, t.TempDir())
	defer m.Destroy()

	m.SetMode(ModeFuzzy)
	require.NoError(t, m.AddFuzzyBatch([]FuzzyResult{fz(0), fz(1), fz(2), fz(3), fz(4)}))

	require.NoError(t, m.Remove(0))
	require.NoError(t, m.RemoveBatch([]int{0, 1}))
	require.NoError(t, m.KeepOnly([]int{1}))

	got, err := m.GetAllFuzzy()
	require.NoError(t, err)
	require.Equal(t, []FuzzyResult{fz(4)}, got)
}

func TestManagerDestroyIdempotent(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(FuzzyResultSize, dir)

	m.SetMode(ModeFuzzy)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.AddFuzzy(fz(uint64(i))))
	}
	require.NoError(t, m.Destroy())
	require.NoError(t, m.Destroy())

	_, err := os.Stat(filepath.Join(dir, FuzzySpillName))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, ExactSpillName))
	require.True(t, os.IsNotExist(err))
}
