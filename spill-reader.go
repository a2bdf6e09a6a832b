package main

import (
	"fmt"
	"io"

	bin "github.com/gagliardetto/binary"
	"golang.org/x/exp/mmap"

	"github.com/Shirasuki/MX/scanresults"
)

// openSpillReadOnly memory-maps a spill file for inspection. The writing
// store never records how many entries are valid (the file has no header),
// so callers bound reads either with an explicit record count or with the
// file length.
func openSpillReadOnly(path string) (*mmap.ReaderAt, error) {
	rac, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spill file %s: %w", path, err)
	}
	return rac, nil
}

// maxRecordsIn returns how many whole records fit in a file of the given
// length. The reserved tail past the last valid record decodes as garbage;
// that is inherent to the headerless format.
func maxRecordsIn(fileLen int) int {
	return fileLen / scanresults.FuzzyResultSize
}

// readFuzzyRecords decodes count records starting at record index start.
func readFuzzyRecords(r io.ReaderAt, start, count int) ([]scanresults.FuzzyResult, error) {
	buf := make([]byte, count*scanresults.FuzzyResultSize)
	if _, err := r.ReadAt(buf, int64(start*scanresults.FuzzyResultSize)); err != nil {
		return nil, fmt.Errorf("failed to read %d records at index %d: %w", count, start, err)
	}
	dec := bin.NewBinDecoder(buf)
	out := make([]scanresults.FuzzyResult, 0, count)
	for i := 0; i < count; i++ {
		address, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return nil, fmt.Errorf("failed to decode address of record %d: %w", start+i, err)
		}
		valueBytes, err := dec.ReadNBytes(8)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value of record %d: %w", start+i, err)
		}
		tag, err := dec.ReadUint8()
		if err != nil {
			return nil, fmt.Errorf("failed to decode type tag of record %d: %w", start+i, err)
		}
		out = append(out, scanresults.FuzzyResultFromBytes(address, valueBytes, scanresults.ValueType(tag)))
	}
	return out, nil
}
