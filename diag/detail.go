package diag

// Detail provides key-value context for diagnostic issues.
//
// Details are used to add structured information to issues that can be
// programmatically inspected by tools. Use the standard detail key constants
// to ensure consistent key naming across the codebase.
type Detail struct {
	Key   string
	Value string
}

// Standard detail keys for consistent diagnostic metadata.
//
// Use these constants to avoid stringly-typed drift and enable programmatic
// inspection of diagnostic details. Custom detail keys are permitted for
// domain-specific diagnostics; use lower_snake_case for custom keys.
const (
	// DetailKeyExpected is the expected token or production.
	DetailKeyExpected = "expected"

	// DetailKeyGot is the actual token text or kind received.
	DetailKeyGot = "got"

	// DetailKeyProduction is the grammar production being parsed when the
	// error occurred (e.g., "data-decl", "module-instantiation").
	DetailKeyProduction = "production"

	// DetailKeySymbolName is the symbol name involved in a build or resolve
	// diagnostic.
	DetailKeySymbolName = "symbol"

	// DetailKeyScopeKind is the Index scope kind involved (e.g., "module",
	// "generate-block", "subroutine-body").
	DetailKeyScopeKind = "scope_kind"

	// DetailKeyReason is the failure reason discriminant for
	// E_UNRESOLVED_REFERENCE ("no-declaration-in-scope",
	// "macro-argument-only", "ambiguous").
	DetailKeyReason = "reason"

	// DetailKeyOption is the unrecognized workspace setting name for
	// E_CONFIG_UNKNOWN_OPTION.
	DetailKeyOption = "option"

	// DetailKeyPath is the file or directory path for config/build
	// diagnostics (E_CONFIG_UNREADABLE).
	DetailKeyPath = "path"

	// DetailKeyMethod is the JSON-RPC method name for RPC diagnostics.
	DetailKeyMethod = "method"

	// DetailKeyFrameError is the decode error text for E_MALFORMED_FRAME.
	DetailKeyFrameError = "frame_error"

	// DetailKeyTokenKind is the unrecognized token kind for
	// E_FORMAT_UNEXPECTED_TOKEN.
	DetailKeyTokenKind = "token_kind"

	// DetailKeyContext is contextual information (e.g., component or stage
	// name: "Parser", "IndexBuildVisitor", "ReferenceResolver").
	DetailKeyContext = "context"
)

// ExpectedGot creates a pair of details for "expected X, got Y" diagnostics.
//
// This is the standard pattern used by the parser's syntax-error reporting.
func ExpectedGot(expected, got string) []Detail {
	return []Detail{
		{Key: DetailKeyExpected, Value: expected},
		{Key: DetailKeyGot, Value: got},
	}
}

// SymbolInScope creates detail entries for a symbol resolved (or not
// resolved) against a given scope kind.
//
// Use with build/resolve diagnostics like E_SYMBOL_WITHOUT_SYNTAX and
// E_UNRESOLVED_REFERENCE.
func SymbolInScope(symbolName, scopeKind string) []Detail {
	return []Detail{
		{Key: DetailKeySymbolName, Value: symbolName},
		{Key: DetailKeyScopeKind, Value: scopeKind},
	}
}

// ProductionExpectedGot creates detail entries for a syntax error that names
// both the grammar production and the expected/actual token text.
func ProductionExpectedGot(production, expected, got string) []Detail {
	return []Detail{
		{Key: DetailKeyProduction, Value: production},
		{Key: DetailKeyExpected, Value: expected},
		{Key: DetailKeyGot, Value: got},
	}
}
