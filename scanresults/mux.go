package scanresults

import (
	"fmt"

	"k8s.io/klog/v2"
)

// Mode selects which result store a Manager routes operations to.
type Mode uint8

const (
	ModeExact Mode = iota
	ModeFuzzy
)

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeFuzzy:
		return "fuzzy"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Result is either an ExactResult or a FuzzyResult.
type Result interface {
	resultMode() Mode
}

func (ExactResult) resultMode() Mode { return ModeExact }
func (FuzzyResult) resultMode() Mode { return ModeFuzzy }

// Manager owns one exact store and one fuzzy store and routes every
// operation to whichever matches the current mode. Switching modes wipes
// the store being switched away from, including its spill file.
type Manager struct {
	mode  Mode
	exact *ExactStore
	fuzzy *FuzzyStore
}

// NewManager creates a manager in exact mode. Both stores share the byte
// budget figure and cache directory; their spill files have distinct names.
func NewManager(memoryBudget int, cacheDir string) *Manager {
	return &Manager{
		mode:  ModeExact,
		exact: NewExactStore(memoryBudget, cacheDir),
		fuzzy: NewFuzzyStore(memoryBudget, cacheDir),
	}
}

// Mode returns the current mode.
func (m *Manager) Mode() Mode {
	return m.mode
}

// SetMode switches the active store. The outgoing store is cleared and its
// spill file removed; a disk-clear failure is logged but does not fail the
// switch (a stale spill file must never block a new scan).
func (m *Manager) SetMode(mode Mode) {
	if mode == m.mode {
		return
	}
	switch m.mode {
	case ModeExact:
		m.exact.Clear()
		if err := m.exact.ClearDisk(); err != nil {
			klog.Errorf("clear disk failed for exact store: %v", err)
		}
	case ModeFuzzy:
		m.fuzzy.Clear()
		if err := m.fuzzy.ClearDisk(); err != nil {
			klog.Errorf("clear disk failed for fuzzy store: %v", err)
		}
	}
	m.mode = mode
}

// Add appends a record to the active store. The record kind must agree
// with the current mode; there is no silent mode switch.
func (m *Manager) Add(r Result) error {
	if r.resultMode() != m.mode {
		return fmt.Errorf("cannot add %s result in %s mode: %w", r.resultMode(), m.mode, ErrModeMismatch)
	}
	switch rec := r.(type) {
	case ExactResult:
		return m.exact.Add(rec)
	case FuzzyResult:
		return m.fuzzy.Add(rec)
	default:
		return fmt.Errorf("unknown result kind %T: %w", r, ErrModeMismatch)
	}
}

// AddBatch appends records one by one, stopping at the first failure.
func (m *Manager) AddBatch(rs []Result) error {
	for _, r := range rs {
		if err := m.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// AddExact appends to the exact store; fails unless in exact mode.
func (m *Manager) AddExact(r ExactResult) error {
	if m.mode != ModeExact {
		return fmt.Errorf("not in exact mode: %w", ErrModeMismatch)
	}
	return m.exact.Add(r)
}

// AddFuzzy appends to the fuzzy store; fails unless in fuzzy mode.
func (m *Manager) AddFuzzy(r FuzzyResult) error {
	if m.mode != ModeFuzzy {
		return fmt.Errorf("not in fuzzy mode: %w", ErrModeMismatch)
	}
	return m.fuzzy.Add(r)
}

// AddFuzzyBatch appends fuzzy records; fails unless in fuzzy mode.
func (m *Manager) AddFuzzyBatch(rs []FuzzyResult) error {
	if m.mode != ModeFuzzy {
		return fmt.Errorf("not in fuzzy mode: %w", ErrModeMismatch)
	}
	for _, r := range rs {
		if err := m.fuzzy.Add(r); err != nil {
			return err
		}
	}
	return nil
}

// Get returns records [start, start+size) from the active store.
func (m *Manager) Get(start, size int) ([]Result, error) {
	switch m.mode {
	case ModeExact:
		recs, err := m.exact.Get(start, size)
		if err != nil {
			return nil, err
		}
		out := make([]Result, len(recs))
		for i, r := range recs {
			out[i] = r
		}
		return out, nil
	default:
		recs, err := m.fuzzy.Get(start, size)
		if err != nil {
			return nil, err
		}
		out := make([]Result, len(recs))
		for i, r := range recs {
			out[i] = r
		}
		return out, nil
	}
}

// TotalCount returns the active store's record count.
func (m *Manager) TotalCount() int {
	if m.mode == ModeExact {
		return m.exact.TotalCount()
	}
	return m.fuzzy.TotalCount()
}

// Clear empties the active store logically.
func (m *Manager) Clear() {
	if m.mode == ModeExact {
		m.exact.Clear()
	} else {
		m.fuzzy.Clear()
	}
}

// Remove deletes one record from the active store.
func (m *Manager) Remove(i int) error {
	if m.mode == ModeExact {
		return m.exact.Remove(i)
	}
	return m.fuzzy.Remove(i)
}

// RemoveBatch deletes the given indices from the active store.
func (m *Manager) RemoveBatch(indices []int) error {
	if m.mode == ModeExact {
		return m.exact.RemoveBatch(indices)
	}
	return m.fuzzy.RemoveBatch(indices)
}

// KeepOnly shrinks the active store to the given indices.
func (m *Manager) KeepOnly(indices []int) error {
	if m.mode == ModeExact {
		return m.exact.KeepOnly(indices)
	}
	return m.fuzzy.KeepOnly(indices)
}

// GetAllExact returns every exact record; fails in fuzzy mode.
func (m *Manager) GetAllExact() ([]ExactResult, error) {
	if m.mode != ModeExact {
		return nil, fmt.Errorf("cannot get exact results in %s mode: %w", m.mode, ErrModeMismatch)
	}
	return m.exact.GetAll()
}

// GetAllFuzzy returns every fuzzy record; fails in exact mode.
func (m *Manager) GetAllFuzzy() ([]FuzzyResult, error) {
	if m.mode != ModeFuzzy {
		return nil, fmt.Errorf("cannot get fuzzy results in %s mode: %w", m.mode, ErrModeMismatch)
	}
	return m.fuzzy.GetAll()
}

// ReplaceAllFuzzy swaps the fuzzy store's contents for the given records;
// fails unless in fuzzy mode.
func (m *Manager) ReplaceAllFuzzy(rs []FuzzyResult) error {
	if m.mode != ModeFuzzy {
		return fmt.Errorf("not in fuzzy mode: %w", ErrModeMismatch)
	}
	return m.fuzzy.ReplaceAll(rs)
}

// Destroy tears down both stores and their spill files. Idempotent.
func (m *Manager) Destroy() error {
	errExact := m.exact.Destroy()
	errFuzzy := m.fuzzy.Destroy()
	if errExact != nil {
		return errExact
	}
	return errFuzzy
}
