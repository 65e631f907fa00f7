package diag

// CodeCategory represents the semantic domain of an error code.
//
// Categories represent the semantic domain of an error, not necessarily the
// API layer that emits it. Most codes are emitted exclusively by their
// category's layer, but some codes represent cross-cutting concerns.
type CodeCategory uint8

const (
	// CategorySentinel is for sentinel codes like E_LIMIT_REACHED and E_INTERNAL.
	CategorySentinel CodeCategory = iota

	// CategoryConfig is for workspace/configuration errors (unknown option,
	// unreadable file list).
	CategoryConfig

	// CategoryParse is for lexer/parser and macro-expansion errors.
	CategoryParse

	// CategoryBuild is for Index Build Visitor invariant violations.
	CategoryBuild

	// CategoryResolve is for reference-resolution outcomes.
	CategoryResolve

	// CategoryRPC is for JSON-RPC transport and request-handling errors.
	CategoryRPC

	// CategoryFormat is for Spacing Engine / Alignment Formatter failures.
	CategoryFormat
)

// String returns a human-readable label for the category.
func (c CodeCategory) String() string {
	switch c {
	case CategorySentinel:
		return "sentinel"
	case CategoryConfig:
		return "config"
	case CategoryParse:
		return "parse"
	case CategoryBuild:
		return "build"
	case CategoryResolve:
		return "resolve"
	case CategoryRPC:
		return "rpc"
	case CategoryFormat:
		return "format"
	default:
		return "unknown"
	}
}

// Code is a stable programmatic identifier for an Issue.
//
// Error codes are stable identifiers that tools can match on, even when
// message text changes. The Code type uses unexported fields to enforce
// a closed set of valid codes—only codes defined in this package are valid.
//
// Code.String() values are globally unique across all categories. The
// CodeCategory is informational metadata for filtering and grouping, and
// mirrors the "subsystem" axis of the diagnostic taxonomy: config, parse,
// build, resolve, rpc, format.
type Code struct {
	value string
	cat   CodeCategory
}

// String returns the code's string representation (e.g., "E_SYNTAX").
func (c Code) String() string {
	return c.value
}

// Category returns the programmatic category for this code. Workspace
// settings' ignoredDiagnostics filter by (Category, Code) pairs.
func (c Code) Category() CodeCategory {
	return c.cat
}

// IsZero reports whether the code is unset.
func (c Code) IsZero() bool {
	return c.value == ""
}

// code is the unexported constructor—callers cannot create arbitrary codes.
func code(value string, cat CodeCategory) Code {
	return Code{value: value, cat: cat}
}

// Sentinel codes.
var (
	// E_LIMIT_REACHED is a sentinel code for explicit limit notification.
	// It does not automatically trigger Result.LimitReached(); use
	// Collector.LimitReached() to check limit status. Callers may inject
	// this code manually when desired.
	E_LIMIT_REACHED = code("E_LIMIT_REACHED", CategorySentinel)

	// E_INTERNAL indicates an unexpected invariant failure (internal bug indicator).
	// Use for conditions that should never occur in correct code.
	E_INTERNAL = code("E_INTERNAL", CategorySentinel)
)

// Config codes.
var (
	// E_CONFIG_UNKNOWN_OPTION indicates workspace settings contain an
	// unrecognized field or option.
	E_CONFIG_UNKNOWN_OPTION = code("E_CONFIG_UNKNOWN_OPTION", CategoryConfig)

	// E_CONFIG_UNREADABLE indicates a configured file or directory could
	// not be read (missing, permission denied, not valid JSONC).
	E_CONFIG_UNREADABLE = code("E_CONFIG_UNREADABLE", CategoryConfig)
)

// Parse codes.
var (
	// E_SYNTAX indicates a syntax error encountered by the lexer or parser.
	E_SYNTAX = code("E_SYNTAX", CategoryParse)

	// E_UNTERMINATED_TOKEN indicates a string, block comment, or macro
	// invocation ran to end of file without its closing delimiter.
	E_UNTERMINATED_TOKEN = code("E_UNTERMINATED_TOKEN", CategoryParse)

	// E_MACRO_EXPANSION indicates a macro invocation could not be expanded
	// (undefined macro, argument-count mismatch).
	E_MACRO_EXPANSION = code("E_MACRO_EXPANSION", CategoryParse)
)

// Build codes.
var (
	// E_SCOPE_CLOSE_MISMATCH indicates the Index Build Visitor's scope
	// stack was closed out of order with the CST it is walking.
	E_SCOPE_CLOSE_MISMATCH = code("E_SCOPE_CLOSE_MISMATCH", CategoryBuild)

	// E_SYMBOL_WITHOUT_SYNTAX indicates a symbol was about to be recorded
	// without the syntax node its declaration requires.
	E_SYMBOL_WITHOUT_SYNTAX = code("E_SYMBOL_WITHOUT_SYNTAX", CategoryBuild)
)

// Resolve codes.
var (
	// E_UNRESOLVED_REFERENCE marks a name that could not be bound to any
	// symbol in scope. Per the taxonomy this is not an error: it is
	// reported at Info severity and counted per file, never failing a build.
	E_UNRESOLVED_REFERENCE = code("E_UNRESOLVED_REFERENCE", CategoryResolve)
)

// RPC codes.
var (
	// E_MALFORMED_FRAME indicates a JSON-RPC frame could not be decoded;
	// the frame is discarded and the transport remains open.
	E_MALFORMED_FRAME = code("E_MALFORMED_FRAME", CategoryRPC)

	// E_REQUEST_FAILED indicates a request handler could not execute
	// (broken index, no symbol at the given position).
	E_REQUEST_FAILED = code("E_REQUEST_FAILED", CategoryRPC)
)

// Format codes.
var (
	// E_FORMAT_UNEXPECTED_TOKEN indicates the Alignment Formatter or
	// Spacing Engine encountered a token shape it does not recognize; the
	// formatter passes the original text through unchanged rather than
	// failing the request.
	E_FORMAT_UNEXPECTED_TOKEN = code("E_FORMAT_UNEXPECTED_TOKEN", CategoryFormat)
)

// allCodes contains all defined codes for AllCodes() and uniqueness verification.
var allCodes = []Code{
	// Sentinel
	E_LIMIT_REACHED,
	E_INTERNAL,
	// Config
	E_CONFIG_UNKNOWN_OPTION,
	E_CONFIG_UNREADABLE,
	// Parse
	E_SYNTAX,
	E_UNTERMINATED_TOKEN,
	E_MACRO_EXPANSION,
	// Build
	E_SCOPE_CLOSE_MISMATCH,
	E_SYMBOL_WITHOUT_SYNTAX,
	// Resolve
	E_UNRESOLVED_REFERENCE,
	// RPC
	E_MALFORMED_FRAME,
	E_REQUEST_FAILED,
	// Format
	E_FORMAT_UNEXPECTED_TOKEN,
}

// AllCodes returns all defined codes.
//
// This function is useful for tooling and testing. The returned slice is a
// copy; modifications do not affect the original.
func AllCodes() []Code {
	result := make([]Code, len(allCodes))
	copy(result, allCodes)
	return result
}

// CodesByCategory returns codes in the given category.
//
// The returned slice is a new allocation; modifications do not affect
// internal state.
func CodesByCategory(cat CodeCategory) []Code {
	var result []Code
	for _, c := range allCodes {
		if c.cat == cat {
			result = append(result, c)
		}
	}
	return result
}
