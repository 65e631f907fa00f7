package parse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diplomat-hdl/diplomat/diag"
	"github.com/diplomat-hdl/diplomat/location"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/parse"
)

func parseSource(t *testing.T, src string) (*ast.Node, *diag.Collector) {
	t.Helper()
	source := location.MustNewSourceID("test://parser.sv")
	collector := diag.NewCollector(100)
	p := parse.New(source, src, collector)
	n := p.ParseFile()
	require.NotNil(t, n)
	return n, collector
}

func TestParser_EmptyModule(t *testing.T) {
	n, coll := parseSource(t, `
module foo;
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	root := *n
	assert.Equal(t, ast.KindCompilationUnit, root.Kind())
	require.Len(t, root.Children(), 1)

	mod := root.Children()[0]
	assert.Equal(t, ast.KindModuleDecl, mod.Kind())
	assert.Equal(t, "foo", mod.Name())
}

func TestParser_ModuleWithAnsiPorts(t *testing.T) {
	n, coll := parseSource(t, `
module adder (
    input  logic [3:0] a,
    input  logic [3:0] b,
    output logic [4:0] sum
);
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod, ok := (*n).Children()[0].(*ast.ModuleDecl)
	require.True(t, ok)
	assert.Equal(t, "adder", mod.Name())
	assert.Len(t, mod.Ports, 3)
	assert.Equal(t, "sum", mod.Ports[2].Name())
}

func TestParser_ModuleWithParams(t *testing.T) {
	n, coll := parseSource(t, `
module counter #(
    parameter WIDTH = 8,
    parameter logic [7:0] RESET_VALUE = 0
) (
    input logic clk
);
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod, ok := (*n).Children()[0].(*ast.ModuleDecl)
	require.True(t, ok)
	require.Len(t, mod.Params, 2)
	assert.Equal(t, "WIDTH", mod.Params[0].Name())
	assert.Equal(t, "RESET_VALUE", mod.Params[1].Name())
}

func TestParser_DataDecl(t *testing.T) {
	n, coll := parseSource(t, `
module m;
    logic [7:0] data, other;
    wire valid;
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod := (*n).Children()[0]
	require.Len(t, mod.Children(), 2)

	decl, ok := mod.Children()[0].(*ast.DataDecl)
	require.True(t, ok)
	require.Len(t, decl.Declarators, 2)
	assert.Equal(t, "data", decl.Declarators[0].NameToken.Text)
	assert.Equal(t, "other", decl.Declarators[1].NameToken.Text)
}

func TestParser_ContinuousAssign(t *testing.T) {
	n, coll := parseSource(t, `
module m;
    logic a;
    logic b;
    assign a = b;
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod := (*n).Children()[0]
	require.Len(t, mod.Children(), 3)
	assign := mod.Children()[2]
	assert.Equal(t, ast.KindContinuousAssign, assign.Kind())
}

func TestParser_ModuleInstantiation(t *testing.T) {
	n, coll := parseSource(t, `
module top;
    adder #(.WIDTH(8)) u_adder (.a(x), .b(y), .sum(z));
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod := (*n).Children()[0]
	require.Len(t, mod.Children(), 1)

	inst, ok := mod.Children()[0].(*ast.ModuleInstantiation)
	require.True(t, ok)
	assert.Equal(t, "adder", inst.ModuleType.Text)
	require.Len(t, inst.Params, 1)
	assert.Equal(t, "WIDTH", inst.Params[0].NameToken.Text)
	require.Len(t, inst.Instances, 1)
	assert.Equal(t, "u_adder", inst.Instances[0].NameToken.Text)
	require.Len(t, inst.Instances[0].Ports, 3)
}

func TestParser_MultipleInstancesShareType(t *testing.T) {
	n, coll := parseSource(t, `
module top;
    buf u0 (.in(a), .out(b)), u1 (.in(c), .out(d));
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	inst, ok := (*n).Children()[0].Children()[0].(*ast.ModuleInstantiation)
	require.True(t, ok)
	assert.Len(t, inst.Instances, 2)
}

func TestParser_GenerateIf(t *testing.T) {
	n, coll := parseSource(t, `
module m;
    generate
        if (WIDTH > 1) begin
            logic x;
        end
    endgenerate
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod := (*n).Children()[0]
	require.Len(t, mod.Children(), 1)
	gen := mod.Children()[0]
	assert.Equal(t, ast.KindGenerateBlock, gen.Kind())
	require.Len(t, gen.Children(), 1)
	assert.Equal(t, ast.KindGenerateIf, gen.Children()[0].Kind())
}

func TestParser_GenerateFor(t *testing.T) {
	n, coll := parseSource(t, `
module m;
    generate
        for (i = 0; i < 4; i = i + 1) begin
            logic bit_i;
        end
    endgenerate
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	gen := (*n).Children()[0].Children()[0]
	require.Len(t, gen.Children(), 1)
	assert.Equal(t, ast.KindGenerateFor, gen.Children()[0].Kind())
}

func TestParser_ProceduralBlockIsOpaque(t *testing.T) {
	n, coll := parseSource(t, `
module m;
    always_ff @(posedge clk) begin
        q <= d;
    end
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod := (*n).Children()[0]
	require.Len(t, mod.Children(), 1)
	assert.Equal(t, ast.KindProceduralBlock, mod.Children()[0].Kind())
	assert.Empty(t, mod.Children()[0].Children())
}

func TestParser_SubroutineBody(t *testing.T) {
	n, coll := parseSource(t, `
module m;
    function int add(int a, int b);
        logic unused;
    endfunction
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	mod := (*n).Children()[0]
	require.Len(t, mod.Children(), 1)
	fn := mod.Children()[0]
	assert.Equal(t, ast.KindSubroutineDecl, fn.Kind())
	assert.Equal(t, "add", fn.Name())
}

func TestParser_PackageDecl(t *testing.T) {
	n, coll := parseSource(t, `
package defs;
    parameter WIDTH = 4;
endpackage
`)
	require.False(t, coll.Result().HasErrors())
	pkg := (*n).Children()[0]
	assert.Equal(t, ast.KindPackageDecl, pkg.Kind())
	assert.Equal(t, "defs", pkg.Name())
}

func TestParser_InterfaceDecl(t *testing.T) {
	n, coll := parseSource(t, `
interface bus_if (input logic clk);
    logic [7:0] data;
endinterface
`)
	require.False(t, coll.Result().HasErrors())
	iface := (*n).Children()[0]
	assert.Equal(t, ast.KindInterfaceDecl, iface.Kind())
	assert.Equal(t, "bus_if", iface.Name())
}

func TestParser_ScopedName(t *testing.T) {
	n, coll := parseSource(t, `
module m;
    logic x;
    assign x = pkg::CONST.field[0];
endmodule
`)
	require.False(t, coll.Result().HasErrors())
	assign := (*n).Children()[0].Children()[1]
	require.Len(t, assign.Children(), 2)

	lhs, ok := assign.Children()[0].(*ast.ScopedName)
	require.True(t, ok)
	assert.Equal(t, "x", lhs.Name())
}

func TestParser_UnexpectedTopLevelTokenReportsDiagnostic(t *testing.T) {
	_, coll := parseSource(t, `
this is not valid;
module m;
endmodule
`)
	result := coll.Result()
	assert.True(t, result.HasErrors())

	found := false
	for issue := range result.Issues() {
		if issue.Code() == diag.E_SYNTAX {
			found = true
		}
	}
	assert.True(t, found, "expected a syntax-error diagnostic")
}

func TestParser_MissingSemicolonRecovers(t *testing.T) {
	n, coll := parseSource(t, `
module m
    logic a;
endmodule
`)
	assert.True(t, coll.Result().HasErrors())
	// Parsing still commits a partial tree rather than aborting.
	require.Len(t, (*n).Children(), 1)
	assert.Equal(t, "m", (*n).Children()[0].Name())
}

func TestParser_RangeSpansWholeModule(t *testing.T) {
	n, coll := parseSource(t, "module m;\nendmodule\n")
	require.False(t, coll.Result().HasErrors())
	mod := (*n).Children()[0]
	rng := mod.Range()
	assert.Equal(t, 1, rng.Start.Line)
	assert.False(t, rng.IsZero())
}
