package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-hdl/diplomat/diag"
)

func TestDecode_FullDocument(t *testing.T) {
	data := []byte(`{
		// workspace roots
		"workspaceDirs": ["rtl", "tb"],
		"excludedPaths": ["rtl/generated.sv"],
		"excludedPatterns": ["**/*_pkg.sv"],
		"ignoredDiagnostics": [{"subsystem": 4, "code": 0}],
		"topLevel": "top",
		"includes": {"user": ["rtl/include"], "system": ["/usr/share/sv"]},
		"validExtensions": [".sv"],
	}`)

	s, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"rtl", "tb"}, s.WorkspaceDirs)
	assert.Equal(t, []string{"rtl/generated.sv"}, s.ExcludedPaths)
	require.NotNil(t, s.TopLevel)
	assert.Equal(t, "top", *s.TopLevel)
	assert.Equal(t, []string{"rtl/include"}, s.Includes.User)
	assert.Equal(t, []string{".sv"}, s.ValidExtensions)
}

func TestDecode_DefaultsFillEmptySlices(t *testing.T) {
	s, err := Decode([]byte(`{}`))
	require.NoError(t, err)

	assert.NotNil(t, s.WorkspaceDirs)
	assert.NotNil(t, s.ExcludedPaths)
	assert.NotNil(t, s.ExcludedPatterns)
	assert.NotNil(t, s.Includes.User)
	assert.NotNil(t, s.Includes.System)
	assert.Equal(t, DefaultValidExtensions, s.ValidExtensions)
	assert.Nil(t, s.TopLevel)
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)
}

func TestSettings_IsExcluded_ExactPath(t *testing.T) {
	s := Settings{ExcludedPaths: []string{"rtl/generated.sv"}}
	assert.True(t, s.IsExcluded("rtl/generated.sv"))
	assert.False(t, s.IsExcluded("rtl/top.sv"))
}

func TestSettings_IsExcluded_GlobPattern(t *testing.T) {
	s := Settings{ExcludedPatterns: []string{"*_pkg.sv"}}
	assert.True(t, s.IsExcluded("util_pkg.sv"))
	assert.False(t, s.IsExcluded("util.sv"))
}

func TestSettings_IsExcluded_DoubleStarPattern(t *testing.T) {
	s := Settings{ExcludedPatterns: []string{"**/generated/**"}}
	assert.True(t, s.IsExcluded("rtl/generated/top.sv"))
	assert.False(t, s.IsExcluded("rtl/top.sv"))
}

func TestSettings_HasValidExtension(t *testing.T) {
	s := Settings{ValidExtensions: []string{".sv", ".svh"}}
	assert.True(t, s.HasValidExtension("top.sv"))
	assert.True(t, s.HasValidExtension("pkg.SVH"))
	assert.False(t, s.HasValidExtension("notes.txt"))
}

func TestSettings_IgnoresCode(t *testing.T) {
	codes := diag.CodesByCategory(diag.CategoryResolve)
	require.NotEmpty(t, codes)

	s := Settings{IgnoredDiagnostics: []IgnoredDiagnostic{
		{Subsystem: int(diag.CategoryResolve), Code: 0},
	}}

	assert.True(t, s.IgnoresCode(diag.CategoryResolve, codes[0]))
	assert.False(t, s.IgnoresCode(diag.CategoryBuild, codes[0]))
}

func TestSettings_IgnoresCode_OutOfRange(t *testing.T) {
	s := Settings{IgnoredDiagnostics: []IgnoredDiagnostic{
		{Subsystem: int(diag.CategoryResolve), Code: 9999},
	}}
	codes := diag.CodesByCategory(diag.CategoryResolve)
	require.NotEmpty(t, codes)
	assert.False(t, s.IgnoresCode(diag.CategoryResolve, codes[0]))
}
