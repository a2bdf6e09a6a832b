package scanresults

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"
	"k8s.io/klog/v2"
)

// record is a fixed-width value that round-trips byte-identically between
// the RAM buffer and the spill file.
type record interface {
	MarshalInto(dst []byte)
}

// hybrid is an append-only indexed container with a bounded RAM prefix and
// a memory-mapped disk tail. The first capacity records live in RAM; the
// rest spill to a flat file in cacheDir. Logical index i maps to RAM
// position i while i < len(buf), and to disk position i-len(buf) after.
//
// Not safe for concurrent use; a single owner serializes all calls.
type hybrid[T record] struct {
	label      string
	recordSize int
	decode     func([]byte) T

	buf      []T
	capacity int

	cacheDir  string
	spillName string
	spill     *spillFile

	diskCount  int
	totalCount int
}

// newHybrid derives the RAM capacity from a byte budget. A zero budget
// means every record goes straight to disk.
func newHybrid[T record](label string, recordSize int, decode func([]byte) T, memoryBudget int, cacheDir, spillName string) *hybrid[T] {
	capacity := 0
	if memoryBudget > 0 {
		capacity = memoryBudget / recordSize
	}
	if capacity == 0 {
		klog.Infof("initializing %s result store: capacity=0 (direct disk write mode), cache_dir=%s", label, cacheDir)
	} else {
		klog.Infof("initializing %s result store: capacity=%d records (%s), cache_dir=%s",
			label, capacity, humanize.IBytes(uint64(memoryBudget)), cacheDir)
	}
	return &hybrid[T]{
		label:      label,
		recordSize: recordSize,
		decode:     decode,
		buf:        make([]T, 0, capacity),
		capacity:   capacity,
		cacheDir:   cacheDir,
		spillName:  spillName,
	}
}

func (h *hybrid[T]) TotalCount() int  { return h.totalCount }
func (h *hybrid[T]) MemoryCount() int { return len(h.buf) }
func (h *hybrid[T]) DiskCount() int   { return h.diskCount }

// Add appends one record, spilling to disk once the RAM prefix is full.
func (h *hybrid[T]) Add(rec T) error {
	if h.capacity == 0 || len(h.buf) >= h.capacity {
		if err := h.writeToDisk(rec); err != nil {
			return err
		}
	} else {
		h.buf = append(h.buf, rec)
	}
	h.totalCount++
	return nil
}

func (h *hybrid[T]) writeToDisk(rec T) error {
	if h.spill == nil {
		spill, err := createSpill(filepath.Join(h.cacheDir, h.spillName))
		if err != nil {
			return err
		}
		h.spill = spill
	}
	offset := h.diskCount * h.recordSize
	if err := h.spill.ensure(offset + h.recordSize); err != nil {
		return err
	}
	rec.MarshalInto(h.spill.data[offset : offset+h.recordSize])
	h.diskCount++
	return nil
}

// readDisk decodes the record at the given disk-local index.
func (h *hybrid[T]) readDisk(diskIndex int) (T, error) {
	var zero T
	if h.spill == nil {
		return zero, fmt.Errorf("%s store: disk index %d with no spill file: %w", h.label, diskIndex, ErrInvariant)
	}
	offset := diskIndex * h.recordSize
	return h.decode(h.spill.data[offset : offset+h.recordSize]), nil
}

// Get returns records [start, min(start+size, TotalCount)) in logical
// order, reading across the RAM/disk seam transparently. A start at or
// past the end returns an empty slice, not an error.
func (h *hybrid[T]) Get(start, size int) ([]T, error) {
	if start < 0 || start >= h.totalCount || size <= 0 {
		return nil, nil
	}
	end := min(start+size, h.totalCount)
	out := make([]T, 0, end-start)
	for i := start; i < end; i++ {
		if i < len(h.buf) {
			out = append(out, h.buf[i])
			continue
		}
		rec, err := h.readDisk(i - len(h.buf))
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// GetAll returns every record in logical order.
func (h *hybrid[T]) GetAll() ([]T, error) {
	return h.Get(0, h.totalCount)
}

// Update writes through to whichever backing store holds index i.
func (h *hybrid[T]) Update(i int, rec T) error {
	if i < 0 || i >= h.totalCount {
		return fmt.Errorf("%s store: index %d >= %d: %w", h.label, i, h.totalCount, ErrOutOfRange)
	}
	if i < len(h.buf) {
		h.buf[i] = rec
		return nil
	}
	diskIndex := i - len(h.buf)
	if h.spill == nil {
		return fmt.Errorf("%s store: disk index %d with no spill file: %w", h.label, diskIndex, ErrInvariant)
	}
	offset := diskIndex * h.recordSize
	rec.MarshalInto(h.spill.data[offset : offset+h.recordSize])
	return nil
}

// Remove deletes the record at index i, shifting the tail of its partition
// left by one.
func (h *hybrid[T]) Remove(i int) error {
	if i < 0 || i >= h.totalCount {
		return fmt.Errorf("%s store: index %d >= %d: %w", h.label, i, h.totalCount, ErrOutOfRange)
	}
	if i < len(h.buf) {
		h.buf = slices.Delete(h.buf, i, i+1)
	} else {
		if err := h.removeDisk(i - len(h.buf)); err != nil {
			return err
		}
	}
	h.totalCount--
	klog.V(3).Infof("removed %s result at index %d, total count: %d", h.label, i, h.totalCount)
	return nil
}

func (h *hybrid[T]) removeDisk(diskIndex int) error {
	if diskIndex >= h.diskCount {
		return fmt.Errorf("%s store: disk index %d >= %d: %w", h.label, diskIndex, h.diskCount, ErrOutOfRange)
	}
	if h.spill == nil {
		return fmt.Errorf("%s store: disk index %d with no spill file: %w", h.label, diskIndex, ErrInvariant)
	}
	// Shift the spill tail left by one record. copy handles the overlap:
	// the destination starts before the source.
	src := (diskIndex + 1) * h.recordSize
	dst := diskIndex * h.recordSize
	end := h.diskCount * h.recordSize
	copy(h.spill.data[dst:], h.spill.data[src:end])
	h.diskCount--
	return nil
}

// RemoveBatch deletes the given logical indices. The input may be
// unsorted and contain duplicates and out-of-range entries; those are
// sorted, deduplicated, and filtered before anything is touched. Each
// partition (RAM, disk) is compacted with a single two-pointer pass.
func (h *hybrid[T]) RemoveBatch(indices []int) error {
	if len(indices) == 0 {
		return nil
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	sorted = slices.DeleteFunc(sorted, func(i int) bool { return i < 0 || i >= h.totalCount })
	if len(sorted) == 0 {
		return nil
	}

	deleteCount := len(sorted)
	memLen := len(h.buf)

	split, _ := slices.BinarySearch(sorted, memLen)
	memIndices := sorted[:split]
	diskIndices := sorted[split:]

	if len(memIndices) > 0 {
		h.compactMemory(memIndices)
	}
	if len(diskIndices) > 0 {
		adjusted := make([]int, len(diskIndices))
		for i, idx := range diskIndices {
			adjusted[i] = idx - memLen
		}
		if err := h.compactDisk(adjusted); err != nil {
			return err
		}
	}

	h.totalCount -= deleteCount
	klog.V(3).Infof("batch removed %d %s results, total: %d", deleteCount, h.label, h.totalCount)
	return nil
}

// compactMemory removes the sorted in-range RAM indices in one pass.
func (h *hybrid[T]) compactMemory(sorted []int) {
	write := sorted[0]
	next := 0
	for read := write; read < len(h.buf); read++ {
		if next < len(sorted) && sorted[next] == read {
			next++
			continue
		}
		if write != read {
			h.buf[write] = h.buf[read]
		}
		write++
	}
	h.buf = h.buf[:write]
}

// compactDisk removes the sorted disk-local indices by sliding surviving
// records down over the raw mapped bytes. Each per-record copy is
// non-overlapping since the write cursor trails the read cursor. The file
// is neither grown nor shrunk.
func (h *hybrid[T]) compactDisk(sorted []int) error {
	if h.diskCount == 0 {
		return nil
	}
	if h.spill == nil {
		return fmt.Errorf("%s store: disk compaction with no spill file: %w", h.label, ErrInvariant)
	}
	write := sorted[0]
	if write >= h.diskCount {
		return nil
	}
	next := 0
	for read := write; read < h.diskCount; read++ {
		if next < len(sorted) && sorted[next] == read {
			next++
			continue
		}
		if write != read {
			copy(
				h.spill.data[write*h.recordSize:(write+1)*h.recordSize],
				h.spill.data[read*h.recordSize:(read+1)*h.recordSize],
			)
		}
		write++
	}
	h.diskCount = write
	return nil
}

// KeepOnly shrinks the store to just the listed indices, preserving their
// relative order. The strategy is chosen by cardinality: when survivors
// are few (the common refinement case) the kept records are materialized
// and the store rebuilt from scratch; when most records survive the list
// is inverted into a batch delete. Out-of-range keep indices are skipped.
func (h *hybrid[T]) KeepOnly(keepIndices []int) error {
	if len(keepIndices) == 0 {
		h.buf = h.buf[:0]
		h.diskCount = 0
		h.totalCount = 0
		klog.V(3).Infof("kept 0 %s results, cleared all", h.label)
		return nil
	}

	keepCount := len(keepIndices)
	removeCount := h.totalCount - keepCount

	if keepCount <= removeCount {
		klog.V(3).Infof("rebuild strategy for %s: keep %d, remove %d", h.label, keepCount, removeCount)

		sorted := slices.Clone(keepIndices)
		slices.Sort(sorted)

		kept := make([]T, 0, keepCount)
		for _, idx := range sorted {
			if idx < 0 || idx >= h.totalCount {
				continue
			}
			if idx < len(h.buf) {
				kept = append(kept, h.buf[idx])
				continue
			}
			rec, err := h.readDisk(idx - len(h.buf))
			if err != nil {
				return err
			}
			kept = append(kept, rec)
		}

		// The spill file is not truncated; re-appends overwrite it from
		// offset zero.
		h.buf = h.buf[:0]
		h.diskCount = 0
		h.totalCount = 0

		for _, rec := range kept {
			if err := h.Add(rec); err != nil {
				return err
			}
		}
		klog.V(3).Infof("rebuild complete: kept %d %s results", h.totalCount, h.label)
		return nil
	}

	klog.V(3).Infof("batch delete strategy for %s: keep %d, remove %d", h.label, keepCount, removeCount)

	keepSet := make(map[int]struct{}, keepCount)
	for _, idx := range keepIndices {
		keepSet[idx] = struct{}{}
	}
	removeIndices := make([]int, 0, max(removeCount, 0))
	for i := 0; i < h.totalCount; i++ {
		if _, ok := keepSet[i]; !ok {
			removeIndices = append(removeIndices, i)
		}
	}
	return h.RemoveBatch(removeIndices)
}

// ReplaceAll clears the store and re-appends every given record, used by
// refinement flows that re-sample values before deciding survivors.
func (h *hybrid[T]) ReplaceAll(recs []T) error {
	h.Clear()
	for _, rec := range recs {
		if err := h.Add(rec); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties the store logically. The spill file and its mapping stay
// around for reuse by subsequent writes.
func (h *hybrid[T]) Clear() {
	h.buf = h.buf[:0]
	h.diskCount = 0
	h.totalCount = 0
	klog.V(3).Infof("%s results cleared", h.label)
}

// ClearDisk unmaps, closes, and unlinks the spill file.
func (h *hybrid[T]) ClearDisk() error {
	if h.spill != nil {
		if err := h.spill.remove(); err != nil {
			return err
		}
		h.spill = nil
	}
	h.diskCount = 0
	klog.V(2).Infof("%s disk resources cleared", h.label)
	return nil
}

// Destroy releases everything: RAM buffer, counters, mapping, file.
// Idempotent.
func (h *hybrid[T]) Destroy() error {
	h.buf = nil
	h.totalCount = 0
	if err := h.ClearDisk(); err != nil {
		return err
	}
	klog.V(2).Infof("%s result store destroyed", h.label)
	return nil
}
