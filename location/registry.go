package location

// PositionRegistry provides byte-offset-to-position conversion.
//
// It lets code that captured only byte offsets during parsing obtain full
// Position values from whatever holds the source content. No type in this
// module implements it outside tests.
//
// PositionRegistry is defined in location (foundation tier) because it
// operates only on location.Position and location.SourceID.
type PositionRegistry interface {
	// PositionAt converts a byte offset to a Position for the given source.
	//
	// Returns a zero Position (check via IsZero()) if:
	//   - The source is not registered
	//   - The byte offset is out of range
	//   - The byte offset is negative
	//
	// The returned Position has:
	//   - Line: 1-based line number
	//   - Column: 1-based rune offset from line start
	//   - Byte: The input byteOffset (echoed back for convenience)
	PositionAt(source SourceID, byteOffset int) Position
}

// RuneOffsetConverter provides rune-to-byte offset conversion.
//
// It converts positions recorded as rune (character) indices into the byte
// offsets that Position uses. No type in this module implements it outside
// tests.
type RuneOffsetConverter interface {
	// RuneToByteOffset converts a rune offset to a byte offset for the given source.
	//
	// Returns (byteOffset, true) on success.
	// Returns (0, false) if:
	//   - The source is not registered
	//   - The rune offset is out of range
	//   - The rune offset is negative
	RuneToByteOffset(source SourceID, runeOffset int) (byteOffset int, ok bool)
}
