// Package config decodes per-workspace settings for the language server and
// the standalone command-line tools: which directories to index, which
// paths to exclude, which diagnostics to suppress, the explicit top-level
// module, and the include-directory search order.
//
// Settings files are JSON with comments and trailing commas tolerated, the
// way an editor's own settings.json is — decoding runs the document through
// [tidwall/jsonc] before handing it to encoding/json.
package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/diplomat-hdl/diplomat/diag"
)

// IgnoredDiagnostic names one diagnostic to suppress: Subsystem selects a
// diag.CodeCategory by its ordinal (0=sentinel, 1=config, 2=parse, 3=build,
// 4=resolve, 5=rpc, 6=format) and Code indexes into that category's codes
// as returned by diag.CodesByCategory, in declaration order.
type IgnoredDiagnostic struct {
	Subsystem int `json:"subsystem"`
	Code      int `json:"code"`
}

// Includes lists the directories searched for `included files, split
// between user includes (searched first) and system includes.
type Includes struct {
	User   []string `json:"user"`
	System []string `json:"system"`
}

// Settings is the decoded shape of a workspace settings document.
type Settings struct {
	WorkspaceDirs      []string            `json:"workspaceDirs"`
	ExcludedPaths      []string            `json:"excludedPaths"`
	ExcludedPatterns   []string            `json:"excludedPatterns"`
	IgnoredDiagnostics []IgnoredDiagnostic `json:"ignoredDiagnostics"`
	TopLevel           *string             `json:"topLevel,omitempty"`
	Includes           Includes            `json:"includes"`
	ValidExtensions    []string            `json:"validExtensions"`
}

// DefaultValidExtensions is used when a settings document omits
// validExtensions entirely.
var DefaultValidExtensions = []string{".sv", ".svh", ".v", ".vh"}

// Decode parses a JSONC settings document into a Settings value. Unknown
// fields are ignored; every slice field defaults to empty rather than nil
// so callers can range over them unconditionally.
func Decode(data []byte) (Settings, error) {
	var s Settings
	processed := jsonc.ToJSON(data)
	if err := json.Unmarshal(processed, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	if s.WorkspaceDirs == nil {
		s.WorkspaceDirs = []string{}
	}
	if s.ExcludedPaths == nil {
		s.ExcludedPaths = []string{}
	}
	if s.ExcludedPatterns == nil {
		s.ExcludedPatterns = []string{}
	}
	if s.Includes.User == nil {
		s.Includes.User = []string{}
	}
	if s.Includes.System == nil {
		s.Includes.System = []string{}
	}
	if len(s.ValidExtensions) == 0 {
		s.ValidExtensions = append([]string{}, DefaultValidExtensions...)
	}

	return s, nil
}

// IsExcluded reports whether path matches one of ExcludedPaths (exact, after
// cleaning) or ExcludedPatterns. A pattern containing "**" is matched against
// the whole path as a recursive glob; any other pattern is a shell glob (per
// filepath.Match) tried against the whole path and then its base name.
func (s Settings) IsExcluded(path string) bool {
	clean := filepath.Clean(path)
	for _, p := range s.ExcludedPaths {
		if filepath.Clean(p) == clean {
			return true
		}
	}
	for _, pattern := range s.ExcludedPatterns {
		if strings.Contains(pattern, "**") {
			re, err := globToRegexp(pattern)
			if err == nil && re.MatchString(clean) {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(pattern, clean); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, filepath.Base(clean)); ok {
			return true
		}
	}
	return false
}

// HasValidExtension reports whether path's extension is one of
// ValidExtensions.
func (s Settings) HasValidExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, valid := range s.ValidExtensions {
		if strings.EqualFold(ext, valid) {
			return true
		}
	}
	return false
}

// IgnoresCode reports whether cat/code was named in IgnoredDiagnostics.
func (s Settings) IgnoresCode(cat diag.CodeCategory, c diag.Code) bool {
	codes := diag.CodesByCategory(cat)
	for _, ign := range s.IgnoredDiagnostics {
		if ign.Subsystem != int(cat) {
			continue
		}
		if ign.Code < 0 || ign.Code >= len(codes) {
			continue
		}
		if codes[ign.Code] == c {
			return true
		}
	}
	return false
}

// globToRegexp compiles a `**`-aware glob (unlike filepath.Match, `**`
// crosses path separators) into a regular expression anchored at both ends.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch {
		case c == '*' && i+1 < len(pattern) && pattern[i+1] == '*':
			b.WriteString(".*")
			i += 2
		case c == '*':
			b.WriteString("[^/]*")
			i++
		case c == '?':
			b.WriteString("[^/]")
			i++
		case strings.ContainsRune(`.+()|[]{}^$\`, rune(c)):
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}
