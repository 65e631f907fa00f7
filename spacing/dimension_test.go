package spacing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/spacing"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

func rangeDim(high, low string) *ast.VariableDim {
	source := location.MustSourceIDFromPath("t.sv")
	rng := location.NewRange(source, 1, 1, 1, 10)
	colon := token.Token{Kind: token.Colon, Text: ":", Range: rng}
	return ast.NewVariableDim(rng,
		token.Token{Kind: token.LBracket, Text: "[", Range: rng},
		[]token.Token{{Kind: token.IntLiteral, Text: high, Range: rng}},
		&colon,
		[]token.Token{{Kind: token.IntLiteral, Text: low, Range: rng}},
		token.Token{Kind: token.RBracket, Text: "]", Range: rng},
	)
}

func TestAlignDimension_PadsOpenBracketAndHalves(t *testing.T) {
	e := spacing.NewEngine(2, false)
	dims := []*ast.VariableDim{rangeDim("7", "0")}
	sizes := []spacing.DimSize{{High: 2, Low: 2}}

	out, residual := e.AlignDimension(dims, sizes, 3)
	require.Len(t, out, 1)
	assert.Equal(t, 0, residual)

	ob := out[0].OpenBracket
	require.Len(t, ob.Leading, 1)
	assert.Equal(t, "   ", ob.Leading[0].Text, "aligned to firstAlignment(3)+1 minus the 1-char bracket")

	high := out[0].High[0]
	require.Len(t, high.Leading, 1)
	assert.Equal(t, " ", high.Leading[0].Text, "size.High(2) minus len(\"7\")(1) = 1")
}

func TestAlignDimension_NoDimensionsCarriesFullBudget(t *testing.T) {
	e := spacing.NewEngine(2, false)
	sizes := []spacing.DimSize{{High: 2, Low: 2}, {High: 1, Low: 1}}

	_, residual := e.AlignDimension(nil, sizes, 3)
	// firstAlignment-1 (2) + (1 + 3*2) (7) + sum of all halves (6) = 15
	assert.Equal(t, 2+7+6, residual)
}

func TestAlignDimension_FewerDimsThanSizesCarriesResidual(t *testing.T) {
	e := spacing.NewEngine(2, false)
	dims := []*ast.VariableDim{rangeDim("3", "0")}
	sizes := []spacing.DimSize{{High: 1, Low: 1}, {High: 2, Low: 2}}

	_, residual := e.AlignDimension(dims, sizes, 3)
	// one dimension consumed; one missing: (1 + 3*1) + (2+2) = 8
	assert.Equal(t, 8, residual)
}
