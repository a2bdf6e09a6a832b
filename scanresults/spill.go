package scanresults

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"
)

const (
	// spillInitialSize is the length a spill file is created with.
	spillInitialSize = 128 * 1024 * 1024
	// spillGrowStep is how much the file is extended by when the next
	// write would run past its end.
	spillGrowStep = 128 * 1024 * 1024
)

// spillFile is the on-disk overflow of a hybrid store: a plain file kept
// fully mapped read-write. Only a prefix of the mapping holds valid
// records; the rest is reserved capacity with unspecified contents.
type spillFile struct {
	path string
	file *os.File
	data []byte
}

// createSpill truncate-creates the file at path, sizes it to
// spillInitialSize and maps it. A stale file from a crashed session is
// overwritten.
func createSpill(path string) (*spillFile, error) {
	klog.V(2).Infof("creating spill file: %s", path)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create spill file %s: %w", path, err)
	}
	if err := file.Truncate(spillInitialSize); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to size spill file %s: %w", path, err)
	}
	data, err := unix.Mmap(int(file.Fd()), 0, spillInitialSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to map spill file %s: %w", path, err)
	}

	klog.Infof("spill file initialized with size %s: %s", humanize.IBytes(spillInitialSize), path)
	return &spillFile{path: path, file: file, data: data}, nil
}

// ensure grows the file and mapping so at least n bytes are addressable.
// Growth tears the mapping down and rebuilds it; callers must not hold
// slices into the old mapping across this call.
func (s *spillFile) ensure(n int) error {
	if n <= len(s.data) {
		return nil
	}
	newSize := len(s.data)
	for newSize < n {
		newSize += spillGrowStep
	}
	if err := unix.Munmap(s.data); err != nil {
		return fmt.Errorf("failed to unmap spill file %s: %w", s.path, err)
	}
	s.data = nil
	if err := s.file.Truncate(int64(newSize)); err != nil {
		return fmt.Errorf("failed to grow spill file %s: %w", s.path, err)
	}
	data, err := unix.Mmap(int(s.file.Fd()), 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("failed to remap spill file %s: %w", s.path, err)
	}
	s.data = data
	klog.V(2).Infof("spill file grown to %s: %s", humanize.IBytes(uint64(newSize)), s.path)
	return nil
}

// close releases the mapping, then the file handle. Safe to call twice.
func (s *spillFile) close() error {
	if s.data != nil {
		if err := unix.Munmap(s.data); err != nil {
			return fmt.Errorf("failed to unmap spill file %s: %w", s.path, err)
		}
		s.data = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("failed to close spill file %s: %w", s.path, err)
		}
		s.file = nil
	}
	return nil
}

// remove closes the spill and unlinks it from disk.
func (s *spillFile) remove() error {
	if err := s.close(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove spill file %s: %w", s.path, err)
	}
	klog.V(2).Infof("removed spill file: %s", s.path)
	return nil
}
