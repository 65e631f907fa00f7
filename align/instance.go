package align

import (
	"github.com/diplomat-hdl/diplomat/spacing"
	"github.com/diplomat-hdl/diplomat/sv/ast"
	"github.com/diplomat-hdl/diplomat/sv/token"
)

// InstanceSizes holds the column widths measured across one instantiation's
// parameter and port connection lists, mirroring
// DataDeclarationSyntaxVisitor's _param_name_size/_param_value_size/
// _port_name_size/_port_value_size.
type InstanceSizes struct {
	ParamNameSize  int
	ParamValueSize int
	PortNameSize   int
	PortValueSize  int
}

// MeasureInstantiation runs Pass 1 over one module instantiation's parameter
// and port connections, grounded on handle(NamedParamAssignmentSyntax) and
// handle(NamedPortConnectionSyntax).
func MeasureInstantiation(n *ast.ModuleInstantiation) InstanceSizes {
	var s InstanceSizes
	for _, p := range n.Params {
		s.ParamNameSize = max(s.ParamNameSize, len(p.NameToken.RawText()))
		s.ParamValueSize = max(s.ParamValueSize, connectionValueWidth(p))
	}
	for _, inst := range n.Instances {
		for _, port := range inst.Ports {
			s.PortNameSize = max(s.PortNameSize, len(port.NameToken.RawText()))
			s.PortValueSize = max(s.PortValueSize, connectionValueWidth(port))
		}
	}
	return s
}

func connectionValueWidth(c *ast.NamedConnection) int {
	if c.Value == nil {
		return 0
	}
	return spacing.TokenRunWidth(c.Value.Tokens())
}

// EmitInstantiation runs Pass 2 over one module instantiation: the module
// type keyword is indented; the parameter list's bindings are rewritten
// inside one nested indent level (IndentLock in the original), and each
// instance's port connections inside a second nested level, mirroring
// _format(HierarchyInstantiationSyntax)'s two IndentLock scopes.
func EmitInstantiation(engine *spacing.Engine, n *ast.ModuleInstantiation, sizes InstanceSizes) *ast.ModuleInstantiation {
	moduleType := engine.Indent(n.ModuleType, 0)

	var params []*ast.NamedConnection
	if len(n.Params) > 0 {
		guard := spacing.NewIndentGuard(engine, 1)
		params = make([]*ast.NamedConnection, len(n.Params))
		for i, p := range n.Params {
			params[i] = emitConnection(engine, p, sizes.ParamNameSize, sizes.ParamValueSize)
		}
		guard.Release()
	}

	instances := make([]*ast.Instance, len(n.Instances))
	for i, inst := range n.Instances {
		instances[i] = emitInstance(engine, inst, sizes)
	}

	return ast.NewModuleInstantiation(n.Range(), moduleType, params, instances)
}

func emitInstance(engine *spacing.Engine, inst *ast.Instance, sizes InstanceSizes) *ast.Instance {
	name := engine.ReplaceSpacing(inst.NameToken, 1)

	var ports []*ast.NamedConnection
	if len(inst.Ports) > 0 {
		guard := spacing.NewIndentGuard(engine, 1)
		ports = make([]*ast.NamedConnection, len(inst.Ports))
		for i, p := range inst.Ports {
			ports[i] = emitConnection(engine, p, sizes.PortNameSize, sizes.PortValueSize)
		}
		guard.Release()
	}

	return ast.NewInstance(inst.Range(), name, ports)
}

// emitConnection rewrites one `.name(value)` connection. The dot is indented
// onto its own line; the name immediately follows it with no trivia of its
// own to rewrite (this front end's parser discards the `(` entirely, so
// there is no owned token between name and value either). The column
// alignment this engine can actually deliver — every connection's value
// starting at the same offset from the dot — is achieved by folding the
// name's own right-alignment padding into the value's leading space, since
// the value's leading trivia is the only other rewritable slot in this
// shape: pad = (nameSize-len(name)) to make every name line up as if it had
// been padded directly, +1 for the normal separating space, plus value's own
// alignment padding against valueSize.
func emitConnection(engine *spacing.Engine, c *ast.NamedConnection, nameSize, valueSize int) *ast.NamedConnection {
	dot := engine.Indent(c.Dot, 0)

	pad := nameSize - len(c.NameToken.RawText()) + 1
	if c.Value != nil {
		pad += valueSize - spacing.TokenRunWidth(c.Value.Tokens())
	}
	value := padConnectionValue(engine, c.Value, pad)

	return ast.NewNamedConnection(c.Range(), dot, c.NameToken, value)
}

// padConnectionValue pads the leading trivia of a connection value's first
// token, leaving the rest of the expression untouched. Opaque KindExpr
// values (the only kind this front end's parser produces here, per §4.B)
// carry their tokens directly; any other node kind is passed through
// unmodified rather than guessing at its shape.
func padConnectionValue(engine *spacing.Engine, value ast.Node, pad int) ast.Node {
	if value == nil {
		return nil
	}
	toks := value.Tokens()
	if value.Kind() != ast.KindExpr || len(toks) == 0 {
		return value
	}
	out := make([]token.Token, len(toks))
	copy(out, toks)
	out[0] = engine.ReplaceSpacing(out[0], pad)
	return ast.NewNode(value.Kind(), value.Range(), value.Name(), value.Children(), out)
}
