package scanresults

import "fmt"

// ConditionKind enumerates the fuzzy comparison operators.
type ConditionKind uint8

const (
	CondInitial ConditionKind = iota
	CondUnchanged
	CondChanged
	CondIncreased
	CondDecreased
	CondIncreasedBy
	CondDecreasedBy
	CondIncreasedByRange
	CondDecreasedByRange
	CondIncreasedByPercent
	CondDecreasedByPercent
)

func (k ConditionKind) String() string {
	switch k {
	case CondInitial:
		return "initial"
	case CondUnchanged:
		return "unchanged"
	case CondChanged:
		return "changed"
	case CondIncreased:
		return "increased"
	case CondDecreased:
		return "decreased"
	case CondIncreasedBy:
		return "increased-by"
	case CondDecreasedBy:
		return "decreased-by"
	case CondIncreasedByRange:
		return "increased-by-range"
	case CondDecreasedByRange:
		return "decreased-by-range"
	case CondIncreasedByPercent:
		return "increased-by-percent"
	case CondDecreasedByPercent:
		return "decreased-by-percent"
	default:
		return fmt.Sprintf("ConditionKind(%d)", uint8(k))
	}
}

// Condition is a fuzzy predicate comparing a previously sampled value to a
// fresh one. Amount carries the operand of the *-By kinds, Min/Max the
// bounds of the *-ByRange kinds, and Percent the fraction of the
// *-ByPercent kinds.
type Condition struct {
	Kind    ConditionKind
	Amount  int64
	Min     int64
	Max     int64
	Percent float64
}

func Initial() Condition   { return Condition{Kind: CondInitial} }
func Unchanged() Condition { return Condition{Kind: CondUnchanged} }
func Changed() Condition   { return Condition{Kind: CondChanged} }
func Increased() Condition { return Condition{Kind: CondIncreased} }
func Decreased() Condition { return Condition{Kind: CondDecreased} }

func IncreasedBy(amount int64) Condition {
	return Condition{Kind: CondIncreasedBy, Amount: amount}
}

func DecreasedBy(amount int64) Condition {
	return Condition{Kind: CondDecreasedBy, Amount: amount}
}

func IncreasedByRange(min, max int64) Condition {
	return Condition{Kind: CondIncreasedByRange, Min: min, Max: max}
}

func DecreasedByRange(min, max int64) Condition {
	return Condition{Kind: CondDecreasedByRange, Min: min, Max: max}
}

func IncreasedByPercent(percent float64) Condition {
	return Condition{Kind: CondIncreasedByPercent, Percent: percent}
}

func DecreasedByPercent(percent float64) Condition {
	return Condition{Kind: CondDecreasedByPercent, Percent: percent}
}
