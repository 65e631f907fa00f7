package lsp

import (
	"bytes"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/diplomat-hdl/diplomat/location"
)

// PositionEncoding represents the position encoding used for LSP communication.
// LSP 3.17 introduced position encoding negotiation; prior versions assumed UTF-16.
type PositionEncoding string

const (
	// PositionEncodingUTF16 counts positions in UTF-16 code units. This is
	// the default: VS Code and most editors use UTF-16 internally and
	// LSP < 3.17 mandates it.
	PositionEncodingUTF16 PositionEncoding = "utf-16"

	// PositionEncodingUTF8 counts positions in UTF-8 bytes.
	PositionEncodingUTF8 PositionEncoding = "utf-8"
)

// lineStartByte scans content for the byte offset of the start of the given
// 1-based line. Returns (0, false) if content has fewer lines.
func lineStartByte(content []byte, line int) (int, bool) {
	if line <= 1 {
		return 0, true
	}
	current := 1
	for i, b := range content {
		if b == '\n' {
			current++
			if current == line {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// ByteOffsetFromLSP converts an LSP position (0-based line, encoding-specific
// character) within content to a byte offset.
//
// Returns (offset, false) if the line does not exist in content.
func ByteOffsetFromLSP(content []byte, lspLine, lspChar int, enc PositionEncoding) (int, bool) {
	lineStart, ok := lineStartByte(content, lspLine+1)
	if !ok {
		return 0, false
	}
	switch enc {
	case PositionEncodingUTF8:
		return clampToLineEnd(content, lineStart, lineStart+lspChar), true
	default:
		return utf16CharToByteOffset(content, lineStart, lspChar), true
	}
}

// utf16CharToByteOffset converts a UTF-16 character offset (relative to
// lineStart) to a byte offset, flooring to the start of a rune when asked
// for the second half of a surrogate pair.
func utf16CharToByteOffset(content []byte, lineStart, charOffset int) int {
	if charOffset <= 0 {
		return lineStart
	}

	pos := lineStart
	utf16Units := 0

	for pos < len(content) && utf16Units < charOffset {
		r, size := utf8.DecodeRune(content[pos:])
		if r == utf8.RuneError && size <= 1 {
			utf16Units++
			pos++
			continue
		}
		if r == '\n' {
			break
		}
		if r > 0xFFFF {
			if utf16Units+2 > charOffset && utf16Units+1 == charOffset {
				return pos
			}
			utf16Units += 2
		} else {
			utf16Units++
		}
		pos += size
	}

	return pos
}

// clampToLineEnd ensures offset doesn't run past the current line or EOF.
func clampToLineEnd(content []byte, lineStart, offset int) int {
	if offset < lineStart {
		return lineStart
	}
	lineContent := content[lineStart:]
	if idx := bytes.IndexByte(lineContent, '\n'); idx >= 0 {
		lineEnd := lineStart + idx
		if offset > lineEnd {
			return lineEnd
		}
	} else if offset > len(content) {
		return len(content)
	}
	return offset
}

// PositionFromLSP converts an LSP position over content to a location.Position
// with both line/column and byte offset populated.
func PositionFromLSP(content []byte, lspLine, lspChar int, enc PositionEncoding) (location.Position, bool) {
	byteOffset, ok := ByteOffsetFromLSP(content, lspLine, lspChar, enc)
	if !ok {
		return location.Position{}, false
	}
	return positionAt(content, byteOffset), true
}

// positionAt computes the 1-based line/column for a byte offset into content.
func positionAt(content []byte, byteOffset int) location.Position {
	if byteOffset > len(content) {
		byteOffset = len(content)
	}
	line := 1
	col := 1
	for i := 0; i < byteOffset; {
		r, size := utf8.DecodeRune(content[i:])
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
		i += size
	}
	return location.Position{Line: line, Column: col, Byte: byteOffset}
}

// ByteToUTF16Offset converts a byte offset on a line to UTF-16 code units,
// the inverse of utf16CharToByteOffset used for outbound conversion.
func ByteToUTF16Offset(content []byte, lineStart, targetByte int) int {
	if targetByte <= lineStart {
		return 0
	}

	utf16Units := 0
	pos := lineStart

	for pos < targetByte && pos < len(content) {
		r, size := utf8.DecodeRune(content[pos:])
		if r == utf8.RuneError && size <= 1 {
			utf16Units++
			pos++
			continue
		}
		if r == '\n' {
			break
		}
		if pos+size > targetByte {
			break
		}
		if r > 0xFFFF {
			utf16Units += 2
		} else {
			utf16Units++
		}
		pos += size
	}

	return utf16Units
}

// RangeToLSP converts a location.Range backed by content into an LSP Range,
// using the negotiated encoding. Requires Start to carry a known byte offset
// (true for every Range this front end produces); an End without one yields
// an empty range at Start. Range.End is inclusive, so the LSP end is the
// position just past End's byte.
func RangeToLSP(content []byte, rng location.Range, enc PositionEncoding) (protocol.Range, bool) {
	if !rng.Start.HasByte() {
		return protocol.Range{}, false
	}
	start, ok := byteToLSPPosition(content, rng.Start.Byte, enc)
	if !ok {
		return protocol.Range{}, false
	}
	end := start
	if rng.End.HasByte() {
		endByte := min(rng.End.Byte+1, len(content))
		if e, ok := byteToLSPPosition(content, endByte, enc); ok {
			end = e
		}
	}
	return protocol.Range{Start: start, End: end}, true
}

func byteToLSPPosition(content []byte, byteOffset int, enc PositionEncoding) (protocol.Position, bool) {
	pos := positionAt(content, byteOffset)
	line := pos.Line - 1
	lineStart, ok := lineStartByte(content, pos.Line)
	if !ok {
		return protocol.Position{}, false
	}
	var char int
	switch enc {
	case PositionEncodingUTF8:
		char = byteOffset - lineStart
	default:
		char = ByteToUTF16Offset(content, lineStart, byteOffset)
	}
	return protocol.Position{Line: toUInteger(line), Character: toUInteger(char)}, true
}

// toUInteger safely converts an int to protocol.UInteger (uint32). Negative
// values are clamped to 0.
func toUInteger(n int) protocol.UInteger {
	if n < 0 {
		return 0
	}
	return protocol.UInteger(n) //nolint:gosec // clamped to non-negative
}
