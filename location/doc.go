// Package location provides source location tracking for diagnostics.
//
// This package defines the core types used across the repository to track
// source locations. It sits at the foundation tier and can be imported by
// all other packages without introducing circular dependencies.
//
// # CanonicalPath
//
// CanonicalPath represents a canonicalized file system path that is always:
//   - Absolute (not relative)
//   - Clean (no . or .. segments)
//   - NFC-normalized (Unicode)
//   - Forward-slash normalized (uses "/" on all platforms)
//   - Symlink-resolved (best-effort)
//
// Create via NewCanonicalPath or MustCanonicalPath. The type uses an unexported
// field to enforce construction through validated constructors only.
//
// # SourceID
//
// SourceID identifies a source uniquely within a build. It supports two modes:
//   - File-backed: Created via SourceIDFromPath, SourceIDFromCanonicalPath, or
//     SourceIDFromAbsolutePath. Stores a CanonicalPath directly.
//   - Synthetic: Created via NewSourceID or MustNewSourceID for non-file sources
//     like "<stdin>", "inline:test", or "test://unit/person.yammm".
//
// SourceID is comparable and safe for use as map keys.
//
// # Position
//
// Position identifies a point in a UTF-8 encoded source file:
//   - Line: 1-based line number (0 = unknown)
//   - Column: 1-based column counting Unicode code points (runes), not bytes
//   - Byte: 0-based byte offset (-1 = unknown)
//
// Use IsZero() to check for unknown positions, IsKnown() to check for valid
// line/column, and HasByte() to check for known byte offsets.
//
// # Range
//
// Range represents an inclusive [Start, End] range in a source file:
//   - Source: SourceID identifying the source
//   - Start: Inclusive start position
//   - End: Inclusive end position (equals Start for point ranges)
//
// Create ranges via Point, PointWithByte, NewRange, or RangeWithBytes. The
// NewRange/RangeWithBytes constructors panic if end < start (geometric
// soundness invariant).
//
// Use IsZero() to check for "no location", IsValid() to check for LSP
// compatibility, and IsGeometricallySafe() to validate ranges from untrusted
// sources. LSP itself uses half-open ranges: lsp.RangeToLSP converts End to
// the position just past its last byte. The diag package's LSP renderer
// converts End as it is, without that adjustment.
//
// # ExpansionTable
//
// ExpansionTable resolves a Position produced inside a macro-expansion buffer
// back to the Position it originated from, by walking a chain of recorded
// expansion links. A front end populates the table as it expands macros;
// OriginalPosition/OriginalRange never expand macros themselves.
//
// # RelatedInfo
//
// RelatedInfo provides supplementary location context for diagnostics, such as
// "previous definition here" for duplicate type errors or showing edges of an
// import cycle. Use the Msg* constants for consistent message formatting.
//
// # PositionRegistry
//
// PositionRegistry is an interface for byte-offset-to-position conversion,
// letting code that records only byte offsets obtain full Positions from
// whatever holds the source content. No type in this module implements it
// outside tests.
//
// # Dependencies
//
// This package depends only on the standard library and golang.org/x/text/unicode/norm
// (for NFC normalization). It does not import any other packages, enabling it
// to be imported by all other packages without cycles.
package location
