package resolve_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/index"
	"github.com/diplomat-hdl/diplomat/index/build"
	"github.com/diplomat-hdl/diplomat/index/resolve"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

func indexFile(t *testing.T, core *index.Core, path, src string) (index.FileRef, *diag.Collector) {
	t.Helper()
	source := location.MustNewSourceID(path)
	file, err := core.GetOrCreateFile(path)
	require.NoError(t, err)

	collector := diag.NewCollectorUnlimited()
	root := parse.New(source, src, collector).ParseFile()
	require.NotNil(t, root)

	build.New(core, file, collector).Walk(*root)
	resolve.New(core, file, collector).Walk(*root)
	return file, collector
}

func TestResolver_SimpleNameBindsToDeclaration(t *testing.T) {
	const src = `
module top;
  logic clk;
  assign clk = clk;
endmodule
`
	core := index.NewCore()
	root := core.SetRoot("$root")
	_, collector := indexFile(t, core, "top.sv", src)
	assert.False(t, collector.HasErrors(), "unexpected diagnostics: %+v", collector.Result())

	topScope, ok := core.ResolveScope(root, []string{"top"})
	require.True(t, ok)

	sym, ok := core.LookupSymbol(topScope, "clk", true)
	require.True(t, ok)

	info, ok := core.Symbol(sym)
	require.True(t, ok)
	// One reference for the declaration site, plus one for the assignment's
	// left-hand side (a ScopedName). The right-hand side of a continuous
	// assign is parsed as an opaque expression token run, not a ScopedName,
	// so this front end does not resolve it (§4.B: expressions are largely
	// opaque outside of hierarchical names).
	assert.GreaterOrEqual(t, len(info.References), 2, "expected clk's declaration plus the assign-statement's left-hand side to be recorded")
}

func TestResolver_GenerateIfReferenceForwardsToModuleScope(t *testing.T) {
	const src = `
module top;
  logic clk;
  if (1) begin
    assign clk = clk;
  end
endmodule
`
	core := index.NewCore()
	root := core.SetRoot("$root")
	_, collector := indexFile(t, core, "top.sv", src)
	assert.False(t, collector.HasErrors())

	topScope, ok := core.ResolveScope(root, []string{"top"})
	require.True(t, ok)
	sym, ok := core.LookupSymbol(topScope, "clk", true)
	require.True(t, ok)

	info, ok := core.Symbol(sym)
	require.True(t, ok)
	// Declaration site plus the assign statement's left-hand side, same
	// caveat about opaque right-hand-side expressions as above.
	assert.GreaterOrEqual(t, len(info.References), 2, "reference inside the generate-if block must bind through the virtual scope to clk's declaration")
}

func TestResolver_ModuleInstantiationResolvesTypeAndPorts(t *testing.T) {
	const src = `
module counter;
  logic co;
endmodule

module top;
  logic rollover;
  counter u_cnt(.co(rollover));
endmodule
`
	core := index.NewCore()
	root := core.SetRoot("$root")
	_, collector := indexFile(t, core, "top.sv", src)
	assert.False(t, collector.HasErrors(), "unexpected diagnostics: %+v", collector.Result())

	moduleSym, ok := core.LookupSymbol(root, "counter", true)
	require.True(t, ok, "counter module declaration must be a symbol in global scope")
	moduleInfo, ok := core.Symbol(moduleSym)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(moduleInfo.References), 2, "counter's declaration plus the instantiation's type token should both be recorded")

	counterScope, ok := core.ResolveScope(root, []string{"counter"})
	require.True(t, ok)
	portSym, ok := core.LookupSymbol(counterScope, "co", true)
	require.True(t, ok)
	portInfo, ok := core.Symbol(portSym)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(portInfo.References), 2, "co's declaration plus the named connection's .co(...) should both be recorded")

	topScope, ok := core.ResolveScope(root, []string{"top"})
	require.True(t, ok)
	rolloverSym, ok := core.LookupSymbol(topScope, "rollover", true)
	require.True(t, ok)
	rolloverInfo, ok := core.Symbol(rolloverSym)
	require.True(t, ok)
	assert.GreaterOrEqual(t, len(rolloverInfo.References), 2, "rollover's declaration plus its use as the connection value should both be recorded")
}

func TestResolver_UnresolvedReferenceIsCountedNotFatal(t *testing.T) {
	const src = `
module top;
  assign missing_wire = 1'b0;
endmodule
`
	core := index.NewCore()
	core.SetRoot("$root")
	file, err := core.GetOrCreateFile("top.sv")
	require.NoError(t, err)

	source := location.MustNewSourceID("top.sv")
	collector := diag.NewCollectorUnlimited()
	root := parse.New(source, src, collector).ParseFile()
	require.NotNil(t, root)

	build.New(core, file, collector).Walk(*root)

	resolver := resolve.New(core, file, collector)
	resolver.Walk(*root)

	assert.Greater(t, resolver.Unresolved(), 0, "missing_wire has no declaration and should be counted unresolved")
	assert.False(t, collector.HasErrors(), "an unresolved reference is informational, not an error")
}
