package location

import "fmt"

// Range represents an inclusive [Start, End] pair of Positions in a source file.
//
// Unlike a half-open interval, both endpoints are considered part of the range:
// contains(range.End) is true. This matches the original indexer's notion of a
// declaration or reference extent, where the last character of an identifier
// is itself inside the range rather than one past it.
//
// Range is a value type with exported fields. Always pass by value.
// The zero value represents "no location"; use IsZero() to check.
type Range struct {
	// Source is the identity key for this range.
	Source SourceID

	// Start is the inclusive start position of the range.
	Start Position

	// End is the inclusive end position of the range.
	// For single-point ranges, End equals Start.
	End Position
}

// Point creates a single-point Range where Start == End.
// This is the canonical way to create ranges from parser token positions.
// The byte offset is set to -1 (unknown).
func Point(source SourceID, line, column int) Range {
	pos := Position{Line: line, Column: column, Byte: -1}
	return Range{Source: source, Start: pos, End: pos}
}

// PointWithByte creates a single-point Range with a known byte offset.
func PointWithByte(source SourceID, line, column, byteOffset int) Range {
	pos := Position{Line: line, Column: column, Byte: byteOffset}
	return Range{Source: source, Start: pos, End: pos}
}

// NewRange creates a Range from start to end positions (byte offsets unknown).
//
// Panics if end < start (geometric soundness invariant). For point ranges
// where start == end, Point() reads more clearly but is equivalent.
func NewRange(source SourceID, startLine, startCol, endLine, endCol int) Range {
	start := Position{Line: startLine, Column: startCol, Byte: -1}
	end := Position{Line: endLine, Column: endCol, Byte: -1}
	if positionBefore(end, start) {
		panic(fmt.Sprintf("location.NewRange: end %v before start %v", end, start))
	}
	return Range{Source: source, Start: start, End: end}
}

// RangeWithBytes creates a Range with known byte offsets.
//
// Panics if end < start (geometric soundness invariant). When byte offsets are
// present, the byte comparison takes precedence over line/column comparison.
// Use [Range.IsConsistent] to verify that both orderings agree before converting
// to LSP ranges (which are half-open and require an End-exclusive adjustment).
func RangeWithBytes(source SourceID, startLine, startCol, startByte, endLine, endCol, endByte int) Range {
	start := Position{Line: startLine, Column: startCol, Byte: startByte}
	end := Position{Line: endLine, Column: endCol, Byte: endByte}

	if start.HasByte() && end.HasByte() {
		if end.Byte < start.Byte {
			panic(fmt.Sprintf("location.RangeWithBytes: end byte %d before start byte %d", endByte, startByte))
		}
	} else if positionBefore(end, start) {
		panic(fmt.Sprintf("location.RangeWithBytes: end %v before start %v", end, start))
	}
	return Range{Source: source, Start: start, End: end}
}

// IsZero reports whether the range is the zero value.
func (r Range) IsZero() bool {
	return r.Source.IsZero() && r.Start.IsZero() && r.End.IsZero()
}

// IsPoint reports whether the range represents a single point (Start == End).
func (r Range) IsPoint() bool {
	return r.Start == r.End
}

// IsValid reports whether the range has meaningful content for conversion to
// LSP ranges.
//
// IMPORTANT: IsValid() checks "convertible to LSP," NOT "geometrically sound."
// Use IsGeometricallySafe() to verify Start <= End.
func (r Range) IsValid() bool {
	if r.Source.IsZero() {
		return false
	}
	if !r.Start.IsKnown() {
		return false
	}
	if !r.IsPoint() && !r.End.IsKnown() {
		return false
	}
	return true
}

// IsGeometricallySafe reports whether the range satisfies Start <= End.
func (r Range) IsGeometricallySafe() bool {
	if r.IsZero() || r.IsPoint() {
		return true
	}
	if r.Start.HasByte() && r.End.HasByte() {
		return r.Start.Byte <= r.End.Byte
	}
	return !positionBefore(r.End, r.Start)
}

// IsConsistent reports whether byte and line/column orderings agree.
func (r Range) IsConsistent() bool {
	if r.IsZero() || r.IsPoint() {
		return true
	}

	hasByte := r.Start.HasByte() && r.End.HasByte()
	hasLineCol := r.Start.IsKnown() && r.End.IsKnown()

	if !hasByte || !hasLineCol {
		return true
	}

	byteOrdered := r.Start.Byte <= r.End.Byte
	lineColOrdered := !positionBefore(r.End, r.Start)

	return byteOrdered == lineColOrdered
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	if r.IsZero() {
		return "<no location>"
	}

	src := r.Source.String()
	if r.IsPoint() {
		return fmt.Sprintf("%s:%s", src, r.Start.String())
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", src, r.Start.Line, r.Start.Column, r.End.Line, r.End.Column)
}

// Contains reports whether position p is within this range.
//
// Uses byte-based comparison when available, falls back to line/column.
// The range is inclusive on both ends: Start and End are both considered
// contained, matching the original indexer's Range.contains() semantics.
//
// Precondition: range must be geometrically sound (IsGeometricallySafe).
func (r Range) Contains(p Position) bool {
	if r.IsZero() || p.IsZero() {
		return false
	}

	if r.Start.HasByte() && r.End.HasByte() && p.HasByte() {
		return p.Byte >= r.Start.Byte && p.Byte <= r.End.Byte
	}

	if positionBefore(p, r.Start) {
		return false
	}
	if positionBefore(r.End, p) {
		return false
	}
	return true
}

// Overlaps reports whether the ranges share any positions.
//
// Requires same Source. Precondition: both ranges must be geometrically sound.
// Inclusive intervals [a, b] and [c, d] overlap iff a <= d AND c <= b.
func (r Range) Overlaps(other Range) bool {
	if r.Source != other.Source {
		return false
	}
	if r.IsZero() || other.IsZero() {
		return false
	}

	if r.Start.HasByte() && r.End.HasByte() && other.Start.HasByte() && other.End.HasByte() {
		return r.Start.Byte <= other.End.Byte && other.Start.Byte <= r.End.Byte
	}

	if positionBefore(other.End, r.Start) {
		return false
	}
	if positionBefore(r.End, other.Start) {
		return false
	}
	return true
}

// ContainsRange reports whether this range fully contains other.
//
// Precondition: both ranges must be geometrically sound.
func (r Range) ContainsRange(other Range) bool {
	if r.Source != other.Source {
		return false
	}
	if r.IsZero() || other.IsZero() {
		return false
	}

	if r.Start.HasByte() && r.End.HasByte() && other.Start.HasByte() && other.End.HasByte() {
		return other.Start.Byte >= r.Start.Byte && other.End.Byte <= r.End.Byte
	}

	if positionBefore(other.Start, r.Start) {
		return false
	}
	if positionBefore(r.End, other.End) {
		return false
	}
	return true
}

// MergeRanges combines two ranges into one covering both.
//
// REQUIRES trusted-provenance ranges. Panics on:
//   - Different sources
//   - Invalid ranges (IsValid returns false)
//
// For untrusted-provenance ranges (from adapters or external sources), use
// MergeRangesSafe instead.
func MergeRanges(a, b Range) Range {
	if a.Source != b.Source {
		panic(fmt.Sprintf("location.MergeRanges: source mismatch: %q vs %q", a.Source.String(), b.Source.String()))
	}
	if !a.IsValid() {
		panic(fmt.Sprintf("location.MergeRanges: first range is invalid: %v", a))
	}
	if !b.IsValid() {
		panic(fmt.Sprintf("location.MergeRanges: second range is invalid: %v", b))
	}

	return mergeRanges(a, b)
}

// MergeRangesSafe is the safe variant of MergeRanges for untrusted-provenance ranges.
func MergeRangesSafe(a, b Range) (Range, bool) {
	if a.Source != b.Source {
		return Range{}, false
	}
	if !a.IsValid() || !b.IsValid() {
		return Range{}, false
	}
	if !a.IsGeometricallySafe() || !b.IsGeometricallySafe() {
		return Range{}, false
	}

	return mergeRanges(a, b), true
}

func mergeRanges(a, b Range) Range {
	var start, end Position

	if positionBefore(a.Start, b.Start) {
		start = a.Start
	} else {
		start = b.Start
	}

	if positionBefore(a.End, b.End) {
		end = b.End
	} else {
		end = a.End
	}

	return Range{Source: a.Source, Start: start, End: end}
}

// CompareRanges compares two ranges for ordering.
//
// Comparison order:
//  1. Source (string comparison via [SourceID.String])
//  2. Start position (line, then column)
//  3. End position (line, then column)
//
// Returns:
//
//	-1 if a < b
//	 0 if a == b
//	+1 if a > b
func CompareRanges(a, b Range) int {
	srcA, srcB := a.Source.String(), b.Source.String()
	if srcA < srcB {
		return -1
	}
	if srcA > srcB {
		return 1
	}

	if cmp := comparePositions(a.Start, b.Start); cmp != 0 {
		return cmp
	}

	return comparePositions(a.End, b.End)
}

// comparePositions compares two positions for ordering.
func comparePositions(a, b Position) int {
	if a.Line != b.Line {
		if a.Line < b.Line {
			return -1
		}
		return 1
	}
	if a.Column != b.Column {
		if a.Column < b.Column {
			return -1
		}
		return 1
	}
	return 0
}

// positionBefore reports whether a is strictly before b using line/column.
// Returns false if either position is not fully known (requires both Line > 0 and Column > 0).
func positionBefore(a, b Position) bool {
	if !a.IsKnown() || !b.IsKnown() {
		return false
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}
