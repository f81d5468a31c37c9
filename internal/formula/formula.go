// Package formula evaluates user-defined arithmetic over metric values.
//
// The language has numeric literals, metric identifiers, + - * / and
// parentheses. Evaluation is total: malformed formulas, unknown
// identifiers and non-finite results all evaluate to 0.
package formula

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrEmpty           = errors.New("formula is empty")
	ErrInvalidToken    = errors.New("invalid token")
	ErrSyntax          = errors.New("syntax error")
	ErrUnknownVariable = errors.New("unknown variable")
)

// Node is one node of a parsed formula.
type Node interface {
	eval(ctx map[string]float64) (float64, bool)
}

type Number struct {
	Value float64
}

type Variable struct {
	Name string
}

// BinaryOp applies Op to Left and Right. Unary minus is 0 - Right.
type BinaryOp struct {
	Op    byte
	Left  Node
	Right Node
}

func (n Number) eval(map[string]float64) (float64, bool) { return n.Value, true }

func (n Variable) eval(ctx map[string]float64) (float64, bool) {
	v, ok := ctx[n.Name]
	if !ok {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true
	}
	return v, true
}

func (n BinaryOp) eval(ctx map[string]float64) (float64, bool) {
	l, ok := n.Left.eval(ctx)
	if !ok {
		return 0, false
	}
	r, ok := n.Right.eval(ctx)
	if !ok {
		return 0, false
	}
	switch n.Op {
	case '+':
		return l + r, true
	case '-':
		return l - r, true
	case '*':
		return l * r, true
	case '/':
		return l / r, true
	}
	return 0, false
}

// Expr is a compiled formula.
type Expr struct {
	src  string
	root Node
	vars []string
}

// Compile parses src into an Expr.
func Compile(src string) (*Expr, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmpty
	}
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens, vars: make(map[string]bool)}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}

	vars := make([]string, 0, len(p.vars))
	for v := range p.vars {
		vars = append(vars, v)
	}
	sort.Strings(vars)

	return &Expr{src: src, root: root, vars: vars}, nil
}

// String returns the source text.
func (e *Expr) String() string { return e.src }

// Root returns the parsed tree.
func (e *Expr) Root() Node { return e.root }

// Variables returns the identifiers referenced by the formula, sorted.
func (e *Expr) Variables() []string {
	out := make([]string, len(e.vars))
	copy(out, e.vars)
	return out
}

// Eval evaluates the formula against ctx. A nil Expr, an identifier missing
// from ctx, or a non-finite result yields 0.
func (e *Expr) Eval(ctx map[string]float64) float64 {
	if e == nil {
		return 0
	}
	v, ok := e.root.eval(ctx)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Eval compiles and evaluates src in one step.
func Eval(src string, ctx map[string]float64) float64 {
	expr, err := Compile(src)
	if err != nil {
		return 0
	}
	return expr.Eval(ctx)
}

// Validate reports why src would evaluate to 0 for every input: parse
// errors, or identifiers that are not in known.
func Validate(src string, known []string) error {
	expr, err := Compile(src)
	if err != nil {
		return err
	}
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	var missing []string
	for _, v := range expr.vars {
		if !set[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownVariable, strings.Join(missing, ", "))
	}
	return nil
}
