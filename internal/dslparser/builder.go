package dslparser

import (
	"fmt"

	"github.com/flowllm/flowllm/internal/combinator"
	"github.com/flowllm/flowllm/internal/op"
	"github.com/flowllm/flowllm/internal/registry"
)

// Builder walks a parsed flow expression program and resolves it into
// a concrete Op tree against a Registry snapshot, tracking variable
// bindings across AssignStmt/AttrAssignStmt lines.
type Builder struct {
	reg    *registry.Registry
	engine *op.Engine
	vars   map[string]op.Op
}

func NewBuilder(reg *registry.Registry, engine *op.Engine) *Builder {
	return &Builder{reg: reg, engine: engine, vars: make(map[string]op.Op)}
}

// Build turns a parsed program into the Op tree its final expression
// statement describes. Only the last statement may be a bare
// expression; every earlier line must be an assignment.
func (b *Builder) Build(stmts []Stmt) (op.Op, error) {
	for i, stmt := range stmts {
		last := i == len(stmts)-1
		switch s := stmt.(type) {
		case *AssignStmt:
			result, err := b.evalOp(s.Value)
			if err != nil {
				return nil, err
			}
			b.vars[s.Target] = result

		case *AttrAssignStmt:
			if err := b.applyAttrAssign(s); err != nil {
				return nil, err
			}

		case *ExprStmt:
			if !last {
				return nil, ErrNotAnExpression
			}
			return b.evalOp(s.Value)

		default:
			return nil, fmt.Errorf("dslparser: unrecognized statement type %T", stmt)
		}
	}
	if len(stmts) == 0 {
		return nil, ErrEmptyExpression
	}
	return nil, ErrNotAnExpression
}

// applyAttrAssign implements `VAR.ops.NAME = ChildExpr`, the form for
// adding a Container child to an existing bound variable outside of a
// `<<` expression.
func (b *Builder) applyAttrAssign(s *AttrAssignStmt) error {
	parent, ok := b.vars[s.Object]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAnOp, s.Object)
	}
	if len(s.Path) != 2 || s.Path[0] != "ops" {
		return fmt.Errorf("dslparser: unsupported attribute path %s.%v", s.Object, s.Path)
	}
	childName := s.Path[1]

	child, err := b.evalOp(s.Value)
	if err != nil {
		return err
	}
	if isComposite(parent) {
		return fmt.Errorf("%w: cannot attach a Container child to a Sequential/Parallel node", ErrNotAnOp)
	}
	combinator.Container(parent, map[string]op.Op{childName: child})
	return nil
}

// evalOp resolves an expression node to a concrete Op, recursively
// building any nested composition.
func (b *Builder) evalOp(node Node) (op.Op, error) {
	switch n := node.(type) {
	case *Ident:
		if bound, ok := b.vars[n.Name]; ok {
			return bound, nil
		}
		return b.construct(n.Name, nil)

	case *CallExpr:
		kwargs, err := b.evalArgs(n.Args)
		if err != nil {
			return nil, err
		}
		return b.construct(n.Name, kwargs)

	case *BinaryExpr:
		return b.evalBinary(n)

	case *ContainerExpr:
		return b.evalContainer(n)

	case *Literal:
		return nil, fmt.Errorf("%w: literal value is not an Op expression", ErrNotAnOp)

	default:
		return nil, fmt.Errorf("dslparser: unrecognized node type %T", node)
	}
}

func (b *Builder) evalBinary(n *BinaryExpr) (op.Op, error) {
	left, err := b.evalOp(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.evalOp(n.Right)
	if err != nil {
		return nil, err
	}

	async := left.Config().Async
	switch n.Op {
	case TokSequential:
		name := fmt.Sprintf("(%s>>%s)", left.ShortName(), right.ShortName())
		return combinator.NewSequential(name, async, b.engine, left, right)
	case TokParallel:
		name := fmt.Sprintf("(%s|%s)", left.ShortName(), right.ShortName())
		return combinator.NewParallel(name, async, b.engine, left, right)
	default:
		return nil, fmt.Errorf("dslparser: unexpected binary operator")
	}
}

func (b *Builder) evalContainer(n *ContainerExpr) (op.Op, error) {
	left, err := b.evalOp(n.Left)
	if err != nil {
		return nil, err
	}
	if isComposite(left) {
		return nil, fmt.Errorf("%w: '<<' is illegal directly on a Sequential/Parallel node", ErrNotAnOp)
	}

	children := make(map[string]op.Op, len(n.Entries))
	for _, entry := range n.Entries {
		child, err := b.evalOp(entry.Value)
		if err != nil {
			return nil, err
		}
		children[entry.Name] = child
	}
	combinator.Container(left, children)
	return left, nil
}

// evalArgs resolves constructor kwargs: literals pass through as-is,
// anything else (a bare identifier or a composed expression) is
// resolved as a nested Op, so `router(default=EchoOp())` works.
func (b *Builder) evalArgs(args []Arg) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	kwargs := make(map[string]any, len(args))
	for _, a := range args {
		if lit, ok := a.Value.(*Literal); ok {
			kwargs[a.Name] = lit.Value
			continue
		}
		nested, err := b.evalOp(a.Value)
		if err != nil {
			return nil, err
		}
		kwargs[a.Name] = nested
	}
	return kwargs, nil
}

func (b *Builder) construct(name string, kwargs map[string]any) (op.Op, error) {
	ctor, err := b.reg.Resolve(registry.CategoryOp, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOp, name)
	}
	fn, ok := ctor.(op.Constructor)
	if !ok {
		return nil, fmt.Errorf("dslparser: op %s: registered constructor has an unexpected signature", name)
	}
	built, err := fn(name, kwargs)
	if err != nil {
		return nil, err
	}
	op.BindResources(built, op.NewResourceResolver(b.reg))
	return built, nil
}

func isComposite(o op.Op) bool {
	switch o.(type) {
	case *combinator.Sequential, *combinator.Parallel:
		return true
	default:
		return false
	}
}
