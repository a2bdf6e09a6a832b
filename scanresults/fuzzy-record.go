package scanresults

import (
	"encoding/binary"
	"math"
)

// FuzzyResultSize is the packed on-disk and in-memory width of a
// FuzzyResult: 8 bytes address + 8 value bytes + 1 type tag.
const FuzzyResultSize = 17

// FuzzyResult is one fuzzy scan hit: a target-process address, the raw
// little-endian bytes sampled there, and the value type they were sampled
// as. Unused trailing value bytes are zero.
type FuzzyResult struct {
	Address uint64
	Value   [8]byte
	Type    ValueType
}

func NewFuzzyResult(address uint64, value [8]byte, t ValueType) FuzzyResult {
	return FuzzyResult{Address: address, Value: value, Type: t}
}

// FuzzyResultFromBytes builds a result from a sampled byte slice, copying
// at most 8 bytes and zero-filling the rest. Oversize slices are truncated.
func FuzzyResultFromBytes(address uint64, b []byte, t ValueType) FuzzyResult {
	r := FuzzyResult{Address: address, Type: t}
	copy(r.Value[:], b)
	return r
}

// MarshalInto packs the result into dst, which must be at least
// FuzzyResultSize bytes.
func (r FuzzyResult) MarshalInto(dst []byte) {
	_ = dst[FuzzyResultSize-1] // bounds check hint to compiler
	binary.LittleEndian.PutUint64(dst[:8], r.Address)
	copy(dst[8:16], r.Value[:])
	dst[16] = byte(r.Type)
}

func decodeFuzzyResult(src []byte) FuzzyResult {
	_ = src[FuzzyResultSize-1] // bounds check hint to compiler
	var r FuzzyResult
	r.Address = binary.LittleEndian.Uint64(src[:8])
	copy(r.Value[:], src[8:16])
	r.Type = ValueType(src[16])
	return r
}

// WithNewValue returns the same address and type with a freshly sampled
// value, for saving the new reading after a refinement pass.
func (r FuzzyResult) WithNewValue(b []byte) FuzzyResult {
	return FuzzyResultFromBytes(r.Address, b, r.Type)
}

// AsInt64 decodes the value as a signed integer of the type's width,
// sign-extended to 64 bits. Float values are truncated toward zero;
// doubles outside the int64 range convert to a platform-dependent value.
func (r FuzzyResult) AsInt64() int64 {
	switch r.Type {
	case TypeByte:
		return int64(int8(r.Value[0]))
	case TypeWord:
		return int64(int16(binary.LittleEndian.Uint16(r.Value[:2])))
	case TypeDword, TypeAuto, TypeXor:
		return int64(int32(binary.LittleEndian.Uint32(r.Value[:4])))
	case TypeQword:
		return int64(binary.LittleEndian.Uint64(r.Value[:]))
	case TypeFloat:
		return int64(math.Float32frombits(binary.LittleEndian.Uint32(r.Value[:4])))
	case TypeDouble:
		return int64(math.Float64frombits(binary.LittleEndian.Uint64(r.Value[:])))
	default:
		return 0
	}
}

// AsFloat64 decodes the value as a float64; integer types are widened.
func (r FuzzyResult) AsFloat64() float64 {
	switch r.Type {
	case TypeByte:
		return float64(int8(r.Value[0]))
	case TypeWord:
		return float64(int16(binary.LittleEndian.Uint16(r.Value[:2])))
	case TypeDword, TypeAuto, TypeXor:
		return float64(int32(binary.LittleEndian.Uint32(r.Value[:4])))
	case TypeQword:
		return float64(int64(binary.LittleEndian.Uint64(r.Value[:])))
	case TypeFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(r.Value[:4])))
	case TypeDouble:
		return math.Float64frombits(binary.LittleEndian.Uint64(r.Value[:]))
	default:
		return 0
	}
}

// floatEpsilon is the equality tolerance for float comparisons. Game values
// are typically O(1) to O(1e6); this is domain policy, not a general
// numerical choice.
const floatEpsilon = 1e-9

// Matches reports whether a fresh sample of the same address satisfies the
// condition relative to the stored value. Float and Double records compare
// with float semantics, everything else with wrapping integer semantics.
func (r FuzzyResult) Matches(newBytes []byte, cond Condition) bool {
	fresh := FuzzyResultFromBytes(r.Address, newBytes, r.Type)
	if r.Type.IsFloat() {
		return r.matchesFloat(fresh, cond)
	}
	return r.matchesInt(fresh, cond)
}

func (r FuzzyResult) matchesInt(fresh FuzzyResult, cond Condition) bool {
	oldVal := r.AsInt64()
	newVal := fresh.AsInt64()
	diff := newVal - oldVal // wraps on overflow

	switch cond.Kind {
	case CondInitial:
		return true
	case CondUnchanged:
		return oldVal == newVal
	case CondChanged:
		return oldVal != newVal
	case CondIncreased:
		return newVal > oldVal
	case CondDecreased:
		return newVal < oldVal
	case CondIncreasedBy:
		return diff == cond.Amount
	case CondDecreasedBy:
		return diff == -cond.Amount
	case CondIncreasedByRange:
		return diff >= cond.Min && diff <= cond.Max
	case CondDecreasedByRange:
		negDiff := -diff
		return negDiff >= cond.Min && negDiff <= cond.Max
	case CondIncreasedByPercent:
		if oldVal == 0 {
			return newVal > 0
		}
		threshold := int64(float64(oldVal) * (1.0 + cond.Percent))
		return newVal >= threshold
	case CondDecreasedByPercent:
		if oldVal == 0 {
			return newVal < 0
		}
		threshold := int64(float64(oldVal) * (1.0 - cond.Percent))
		return newVal <= threshold
	default:
		return false
	}
}

func (r FuzzyResult) matchesFloat(fresh FuzzyResult, cond Condition) bool {
	oldVal := r.AsFloat64()
	newVal := fresh.AsFloat64()
	diff := newVal - oldVal

	switch cond.Kind {
	case CondInitial:
		return true
	case CondUnchanged:
		return math.Abs(oldVal-newVal) < floatEpsilon
	case CondChanged:
		return math.Abs(oldVal-newVal) >= floatEpsilon
	case CondIncreased:
		return newVal > oldVal+floatEpsilon
	case CondDecreased:
		return newVal < oldVal-floatEpsilon
	case CondIncreasedBy:
		return math.Abs(diff-float64(cond.Amount)) < floatEpsilon
	case CondDecreasedBy:
		return math.Abs(diff+float64(cond.Amount)) < floatEpsilon
	case CondIncreasedByRange:
		return diff >= float64(cond.Min) && diff <= float64(cond.Max)
	case CondDecreasedByRange:
		negDiff := -diff
		return negDiff >= float64(cond.Min) && negDiff <= float64(cond.Max)
	case CondIncreasedByPercent:
		if math.Abs(oldVal) < floatEpsilon {
			return newVal > floatEpsilon
		}
		return newVal >= oldVal*(1.0+cond.Percent)
	case CondDecreasedByPercent:
		if math.Abs(oldVal) < floatEpsilon {
			return newVal < -floatEpsilon
		}
		return newVal <= oldVal*(1.0-cond.Percent)
	default:
		return false
	}
}
