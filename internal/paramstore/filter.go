package paramstore

import (
	"github.com/graphkit/mediagraph/internal/errcode"
)

// Intersect computes the structural (POD) filter of a against b, producing
// the narrowest Object that satisfies both, per spec.md §4.1 and the
// choice-combination table grounded on original_source's
// spa_pod_filter_prop (spa/pod/filter.h).
func Intersect(a, b Object) (Object, error) {
	if len(a.Props) == 0 || len(b.Props) == 0 {
		return Object{}, errcode.New("paramstore.Intersect", errcode.Invalid, "empty object")
	}
	if a.ID != b.ID {
		return Object{}, errcode.New("paramstore.Intersect", errcode.Invalid, "mismatched param id")
	}

	out := Object{ID: a.ID}
	for _, key := range sortedKeys(a) {
		pa, okA := a.propByKey(key)
		pb, okB := b.propByKey(key)
		if !okA || !okB {
			// Only keys present on both sides participate in the result,
			// mirroring the original's per-property walk over the shared key set.
			continue
		}
		merged, err := intersectProp(pa, pb)
		if err != nil {
			return Object{}, err
		}
		out.Props = append(out.Props, merged)
	}
	return out, nil
}

func intersectProp(p1, p2 Property) (Property, error) {
	switch {
	case p1.Choice == ChoiceNone && p2.Choice == ChoiceNone:
		if compareValue(p1.Default, p2.Default) != 0 {
			return Property{}, errcode.New("paramstore.intersectProp", errcode.NotSupported, "None/None values differ: "+p1.Key)
		}
		return Property{Key: p1.Key, Choice: ChoiceNone, Default: p2.Default}, nil

	case p1.Choice == ChoiceNone && p2.Choice == ChoiceEnum:
		return enumMembership(p1.Key, p1.Default, p2.Values, p2.Default)
	case p1.Choice == ChoiceEnum && p2.Choice == ChoiceNone:
		return enumMembership(p1.Key, p2.Default, p1.Values, p2.Default)

	case p1.Choice == ChoiceEnum && p2.Choice == ChoiceEnum:
		return enumIntersect(p1, p2)

	case p1.Choice == ChoiceNone && p2.Choice == ChoiceRange:
		return noneRange(p1.Key, p1.Default, p2)
	case p1.Choice == ChoiceRange && p2.Choice == ChoiceNone:
		return noneRange(p1.Key, p2.Default, p1)

	case p1.Choice == ChoiceEnum && p2.Choice == ChoiceRange:
		return enumRange(p1.Key, p1, p2)
	case p1.Choice == ChoiceRange && p2.Choice == ChoiceEnum:
		return enumRange(p1.Key, p2, p1)

	case p1.Choice == ChoiceRange && p2.Choice == ChoiceRange:
		return rangeRange(p1, p2)

	case p1.Choice == ChoiceFlags && p2.Choice == ChoiceFlags:
		return flagsFlags(p1, p2)
	case p1.Choice == ChoiceNone && p2.Choice == ChoiceFlags:
		return flagsFlags(Property{Key: p1.Key, Choice: ChoiceFlags, Default: p1.Default}, p2)
	case p1.Choice == ChoiceFlags && p2.Choice == ChoiceNone:
		return flagsFlags(p1, Property{Key: p2.Key, Choice: ChoiceFlags, Default: p2.Default})

	default:
		return Property{}, errcode.New("paramstore.intersectProp", errcode.NotSupported, "incompatible choice combination: "+p1.Key)
	}
}

// enumMembership handles None ∩ Enum: the None value must be a member of
// the enum set; the result is a None choice carrying that value.
func enumMembership(key string, value Value, set []Value, preferredDefault Value) (Property, error) {
	for _, v := range set {
		if compareValue(v, value) == 0 {
			return Property{Key: key, Choice: ChoiceNone, Default: value}, nil
		}
	}
	return Property{}, errcode.New("paramstore.enumMembership", errcode.NotSupported, "value not in enum: "+key)
}

// enumIntersect handles Enum ∩ Enum: the setwise-equal values, preferring
// p2's default when present in the result.
func enumIntersect(p1, p2 Property) (Property, error) {
	var result []Value
	for _, v2 := range p2.Values {
		for _, v1 := range p1.Values {
			if compareValue(v1, v2) == 0 {
				result = append(result, v1)
				break
			}
		}
	}
	if len(result) == 0 {
		return Property{}, errcode.New("paramstore.enumIntersect", errcode.NotSupported, "disjoint enums: "+p1.Key)
	}
	def := result[0]
	for _, v := range result {
		if compareValue(v, p2.Default) == 0 {
			def = v
			break
		}
	}
	if len(result) == 1 {
		return Property{Key: p1.Key, Choice: ChoiceNone, Default: def}, nil
	}
	return Property{Key: p1.Key, Choice: ChoiceEnum, Values: result, Default: def}, nil
}

// noneRange handles None ∩ Range: the None value must lie within the range.
func noneRange(key string, value Value, rangeProp Property) (Property, error) {
	if compareValue(value, rangeProp.Min) < 0 || compareValue(value, rangeProp.Max) > 0 {
		return Property{}, errcode.New("paramstore.noneRange", errcode.NotSupported, "value outside range: "+key)
	}
	return Property{Key: key, Choice: ChoiceNone, Default: value}, nil
}

// enumRange handles Enum ∩ Range: keep enum members that fall in the range;
// prefer the range's own default if it happens to be a member.
func enumRange(key string, enumProp, rangeProp Property) (Property, error) {
	var kept []Value
	for _, v := range enumProp.Values {
		if compareValue(v, rangeProp.Min) >= 0 && compareValue(v, rangeProp.Max) <= 0 {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return Property{}, errcode.New("paramstore.enumRange", errcode.NotSupported, "no enum members within range: "+key)
	}
	def := kept[0]
	if compareValue(rangeProp.Default, rangeProp.Min) >= 0 && compareValue(rangeProp.Default, rangeProp.Max) <= 0 {
		for _, v := range kept {
			if compareValue(v, rangeProp.Default) == 0 {
				def = v
				break
			}
		}
	}
	if len(kept) == 1 {
		return Property{Key: key, Choice: ChoiceNone, Default: def}, nil
	}
	return Property{Key: key, Choice: ChoiceEnum, Values: kept, Default: def}, nil
}

// rangeRange handles Range ∩ Range: max of mins, min of maxes, default
// preferring p2's value if it falls inside the narrowed range.
func rangeRange(p1, p2 Property) (Property, error) {
	min := p1.Min
	if compareValue(p2.Min, min) > 0 {
		min = p2.Min
	}
	max := p1.Max
	if compareValue(p2.Max, max) < 0 {
		max = p2.Max
	}
	if compareValue(max, min) < 0 {
		return Property{}, errcode.New("paramstore.rangeRange", errcode.Invalid, "empty resulting range: "+p1.Key)
	}
	def := min
	if compareValue(p2.Default, min) >= 0 && compareValue(p2.Default, max) <= 0 {
		def = p2.Default
	} else if compareValue(p1.Default, min) >= 0 && compareValue(p1.Default, max) <= 0 {
		def = p1.Default
	}
	return Property{Key: p1.Key, Choice: ChoiceRange, Min: min, Max: max, Default: def}, nil
}

// flagsFlags handles Flags ∩ Flags: bitwise AND of the two masks.
func flagsFlags(p1, p2 Property) (Property, error) {
	m1, ok1 := toUint64(p1.Default)
	m2, ok2 := toUint64(p2.Default)
	if !ok1 || !ok2 {
		return Property{}, errcode.New("paramstore.flagsFlags", errcode.NotSupported, "non-integer flags: "+p1.Key)
	}
	return Property{Key: p1.Key, Choice: ChoiceFlags, Default: m1 & m2}, nil
}

func toUint64(v Value) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		return uint64(n), true
	case int:
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

// compareValue orders two scalar Values; non-comparable pairs sort equal so
// callers that only test for "found" degrade gracefully rather than panic.
func compareValue(a, b Value) int {
	switch x := a.(type) {
	case int64:
		y, ok := toInt64(b)
		if !ok {
			return 0
		}
		return cmpInt64(x, y)
	case int:
		y, ok := toInt64(b)
		if !ok {
			return 0
		}
		return cmpInt64(int64(x), y)
	case float64:
		y, ok := toFloat64(b)
		if !ok {
			return 0
		}
		return cmpFloat64(x, y)
	case string:
		y, ok := b.(string)
		if !ok {
			return 0
		}
		if x == y {
			return 0
		} else if x < y {
			return -1
		}
		return 1
	case bool:
		y, ok := b.(bool)
		if !ok || x == y {
			return 0
		}
		if x {
			return 1
		}
		return -1
	}
	return 0
}

func toInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}

func toFloat64(v Value) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
