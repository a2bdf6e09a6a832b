package scanresults

import "encoding/binary"

// ExactResultSize is the packed width of an ExactResult: 8 bytes address +
// 1 type tag. Exact hits carry no sampled value; the scanner re-reads the
// target when it needs one.
const ExactResultSize = 9

// ExactResult is one exact scan hit.
type ExactResult struct {
	Address uint64
	Type    ValueType
}

func NewExactResult(address uint64, t ValueType) ExactResult {
	return ExactResult{Address: address, Type: t}
}

// MarshalInto packs the result into dst, which must be at least
// ExactResultSize bytes.
func (r ExactResult) MarshalInto(dst []byte) {
	_ = dst[ExactResultSize-1] // bounds check hint to compiler
	binary.LittleEndian.PutUint64(dst[:8], r.Address)
	dst[8] = byte(r.Type)
}

func decodeExactResult(src []byte) ExactResult {
	_ = src[ExactResultSize-1] // bounds check hint to compiler
	return ExactResult{
		Address: binary.LittleEndian.Uint64(src[:8]),
		Type:    ValueType(src[8]),
	}
}
