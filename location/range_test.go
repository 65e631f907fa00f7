package location

import "testing"

func TestRange_Point(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	r := Point(src, 3, 5)
	if !r.IsPoint() {
		t.Fatal("Point range should report IsPoint")
	}
	if r.Start != r.End {
		t.Fatalf("Start %v != End %v for point range", r.Start, r.End)
	}
}

func TestRange_NewRange_PanicsOnInverted(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for inverted range")
		}
	}()
	NewRange(src, 2, 1, 1, 1)
}

func TestRange_Contains_InclusiveBothEnds(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	r := NewRange(src, 1, 5, 1, 10)

	if !r.Contains(NewPosition(1, 5, -1)) {
		t.Error("Contains should include the start position")
	}
	if !r.Contains(NewPosition(1, 10, -1)) {
		t.Error("Contains should include the end position")
	}
	if !r.Contains(NewPosition(1, 7, -1)) {
		t.Error("Contains should include an interior position")
	}
	if r.Contains(NewPosition(1, 11, -1)) {
		t.Error("Contains should exclude a position past the end")
	}
	if r.Contains(NewPosition(1, 4, -1)) {
		t.Error("Contains should exclude a position before the start")
	}
}

func TestRange_Contains_ByteWins(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	r := RangeWithBytes(src, 1, 1, 0, 1, 1, 5)
	if !r.Contains(Position{Line: 1, Column: 1, Byte: 5}) {
		t.Error("byte-exact end should be contained")
	}
	if r.Contains(Position{Line: 1, Column: 1, Byte: 6}) {
		t.Error("byte just past the end should not be contained")
	}
}

func TestRange_Overlaps(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	a := NewRange(src, 1, 1, 1, 10)
	b := NewRange(src, 1, 10, 1, 20)
	c := NewRange(src, 1, 11, 1, 20)

	if !a.Overlaps(b) {
		t.Error("ranges sharing exactly the boundary position should overlap (inclusive semantics)")
	}
	if a.Overlaps(c) {
		t.Error("ranges with a one-position gap should not overlap")
	}
}

func TestRange_ContainsRange(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	outer := NewRange(src, 1, 1, 1, 20)
	inner := NewRange(src, 1, 5, 1, 10)
	if !outer.ContainsRange(inner) {
		t.Error("outer should contain inner")
	}
	if inner.ContainsRange(outer) {
		t.Error("inner should not contain outer")
	}
}

func TestMergeRanges(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	a := NewRange(src, 1, 1, 1, 5)
	b := NewRange(src, 1, 3, 1, 10)
	merged := MergeRanges(a, b)
	if merged.Start != a.Start {
		t.Errorf("merged start = %v; want %v", merged.Start, a.Start)
	}
	if merged.End != b.End {
		t.Errorf("merged end = %v; want %v", merged.End, b.End)
	}
}

func TestMergeRanges_PanicsOnSourceMismatch(t *testing.T) {
	a := NewRange(MustNewSourceID("test://unit/a"), 1, 1, 1, 5)
	b := NewRange(MustNewSourceID("test://unit/b"), 1, 1, 1, 5)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for source mismatch")
		}
	}()
	MergeRanges(a, b)
}

func TestCompareRanges(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	a := NewRange(src, 1, 1, 1, 5)
	b := NewRange(src, 1, 6, 1, 10)
	if CompareRanges(a, b) >= 0 {
		t.Error("a should sort before b")
	}
	if CompareRanges(a, a) != 0 {
		t.Error("a range should compare equal to itself")
	}
}

func TestRange_String(t *testing.T) {
	src := MustNewSourceID("test://unit/a")
	if Range{}.String() != "<no location>" {
		t.Error("zero range should print <no location>")
	}
	point := Point(src, 1, 1)
	if point.String() == "" {
		t.Error("point range should have a non-empty string form")
	}
}
