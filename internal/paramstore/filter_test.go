package paramstore

import "testing"

const testParamID = 5 // arbitrary wire.ParamID stand-in; value doesn't matter for these tests

func TestIntersectEnumRange(t *testing.T) {
	// S4 from spec.md §8: EnumFormat offers rate: Enum(44100, 48000);
	// filter rate: Range(40000, 46000); expect a single None(44100) result.
	a := Object{ID: testParamID, Props: []Property{
		{Key: "rate", Choice: ChoiceEnum, Values: []Value{int64(44100), int64(48000)}, Default: int64(44100)},
	}}
	b := Object{ID: testParamID, Props: []Property{
		{Key: "rate", Choice: ChoiceRange, Min: int64(40000), Max: int64(46000), Default: int64(40000)},
	}}

	out, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if len(out.Props) != 1 {
		t.Fatalf("expected 1 prop, got %d", len(out.Props))
	}
	p := out.Props[0]
	if p.Choice != ChoiceNone || p.Default != int64(44100) {
		t.Fatalf("expected None(44100), got %+v", p)
	}
}

func TestIntersectRangeRangePrefersSecondDefault(t *testing.T) {
	a := Object{ID: testParamID, Props: []Property{
		{Key: "channels", Choice: ChoiceRange, Min: int64(1), Max: int64(8), Default: int64(2)},
	}}
	b := Object{ID: testParamID, Props: []Property{
		{Key: "channels", Choice: ChoiceRange, Min: int64(2), Max: int64(6), Default: int64(6)},
	}}
	out, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	p := out.Props[0]
	if p.Min != int64(2) || p.Max != int64(6) || p.Default != int64(6) {
		t.Fatalf("unexpected merged range: %+v", p)
	}
}

func TestIntersectRangeRangeEmptyIsInvalid(t *testing.T) {
	a := Object{ID: testParamID, Props: []Property{
		{Key: "x", Choice: ChoiceRange, Min: int64(0), Max: int64(1)},
	}}
	b := Object{ID: testParamID, Props: []Property{
		{Key: "x", Choice: ChoiceRange, Min: int64(2), Max: int64(3)},
	}}
	if _, err := Intersect(a, b); err == nil {
		t.Fatalf("expected error for disjoint ranges")
	}
}

func TestIntersectFlagsAnd(t *testing.T) {
	a := Object{ID: testParamID, Props: []Property{
		{Key: "caps", Choice: ChoiceFlags, Default: uint64(0b1110)},
	}}
	b := Object{ID: testParamID, Props: []Property{
		{Key: "caps", Choice: ChoiceFlags, Default: uint64(0b1011)},
	}}
	out, err := Intersect(a, b)
	if err != nil {
		t.Fatalf("Intersect: %v", err)
	}
	if out.Props[0].Default != uint64(0b1010) {
		t.Fatalf("expected AND'd flags 0b1010, got %v", out.Props[0].Default)
	}
}

func TestIntersectEmptyObjectIsInvalid(t *testing.T) {
	if _, err := Intersect(Object{ID: testParamID}, Object{ID: testParamID, Props: []Property{{Key: "x"}}}); err == nil {
		t.Fatalf("expected Invalid for empty object")
	}
}

func TestIntersectIncompatibleChoicesNotSupported(t *testing.T) {
	a := Object{ID: testParamID, Props: []Property{
		{Key: "x", Choice: ChoiceFlags, Default: uint64(1)},
	}}
	b := Object{ID: testParamID, Props: []Property{
		{Key: "x", Choice: ChoiceRange, Min: int64(0), Max: int64(1)},
	}}
	if _, err := Intersect(a, b); err == nil {
		t.Fatalf("expected NotSupported for Flags/Range combination")
	}
}
