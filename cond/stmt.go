package cond

import (
	"log/slog"

	"github.com/sarchlab/rohdgo/lval"
	"github.com/sarchlab/rohdgo/wire"
)

// evalEnv accumulates the staged ("next") writes a single pass over a
// Stmt tree produces. Nothing is deposited to a Sig until the owning
// block (Combinational or Sequential) decides how to apply it.
type evalEnv struct {
	writes map[*wire.Sig]lval.LV
	order  []*wire.Sig
}

func newEvalEnv() *evalEnv {
	return &evalEnv{writes: map[*wire.Sig]lval.LV{}}
}

func (e *evalEnv) set(s *wire.Sig, v lval.LV) {
	if _, already := e.writes[s]; !already {
		e.order = append(e.order, s)
	}
	e.writes[s] = v
}

// Stmt is one node of a Conditional block body.
type Stmt interface {
	exec(env *evalEnv)
	reads() []*wire.Sig
	lhs() []*wire.Sig
}

func execAll(stmts []Stmt, env *evalEnv) {
	for _, s := range stmts {
		s.exec(env)
	}
}

func readsOf(stmts []Stmt) []*wire.Sig {
	var exprs []Expr
	for _, s := range stmts {
		for _, r := range s.reads() {
			exprs = append(exprs, Expr{Reads: []*wire.Sig{r}})
		}
	}
	return merge(exprs...)
}

func lhsOf(stmts []Stmt) []*wire.Sig {
	seen := map[*wire.Sig]bool{}
	var out []*wire.Sig
	for _, s := range stmts {
		for _, l := range s.lhs() {
			if !seen[l] {
				seen[l] = true
				out = append(out, l)
			}
		}
	}
	return out
}

// Assign is `lhs = rhs`, the leaf statement every other node ultimately
// bottoms out in.
type Assign struct {
	LHS *wire.Sig
	RHS Expr
}

func (a Assign) exec(env *evalEnv)   { env.set(a.LHS, a.RHS.Eval()) }
func (a Assign) reads() []*wire.Sig  { return a.RHS.Reads }
func (a Assign) lhs() []*wire.Sig    { return []*wire.Sig{a.LHS} }

// Compound groups a sequence of statements executed in order; it exists
// so a chain of statements can be passed around and nested as a single
// Stmt.
type Compound struct {
	Body []Stmt
}

func (c Compound) exec(env *evalEnv)  { execAll(c.Body, env) }
func (c Compound) reads() []*wire.Sig { return readsOf(c.Body) }
func (c Compound) lhs() []*wire.Sig   { return lhsOf(c.Body) }

// IfBranch is one `else if` arm of an IfBlock.
type IfBranch struct {
	Cond Expr
	Body []Stmt
}

// If is a two-armed conditional: Then runs when Cond evaluates to
// exactly bit 1, Else otherwise (an unknown X/Z condition takes the
// false branch).
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

func (n If) exec(env *evalEnv) {
	if condTrue(n.Cond) {
		execAll(n.Then, env)
	} else {
		execAll(n.Else, env)
	}
}
func (n If) reads() []*wire.Sig {
	exprs := append([]Expr{n.Cond}, exprOf(readsOf(n.Then))...)
	exprs = append(exprs, exprOf(readsOf(n.Else))...)
	return merge(exprs...)
}
func (n If) lhs() []*wire.Sig { return append(lhsOf(n.Then), lhsOf(n.Else)...) }

// IfBlock is an if/else-if/.../else chain; the first branch whose
// condition evaluates true runs, else Else runs.
type IfBlock struct {
	Branches []IfBranch
	Else     []Stmt
}

func (b IfBlock) exec(env *evalEnv) {
	for _, br := range b.Branches {
		if condTrue(br.Cond) {
			execAll(br.Body, env)
			return
		}
	}
	execAll(b.Else, env)
}
func (b IfBlock) reads() []*wire.Sig {
	var exprs []Expr
	for _, br := range b.Branches {
		exprs = append(exprs, br.Cond)
		exprs = append(exprs, exprOf(readsOf(br.Body))...)
	}
	exprs = append(exprs, exprOf(readsOf(b.Else))...)
	return merge(exprs...)
}
func (b IfBlock) lhs() []*wire.Sig {
	var out []*wire.Sig
	for _, br := range b.Branches {
		out = append(out, lhsOf(br.Body)...)
	}
	return append(out, lhsOf(b.Else)...)
}

func condTrue(c Expr) bool {
	v := c.Eval()
	return v.Width() >= 1 && v.BitAt(0) == lval.One
}

func exprOf(sigs []*wire.Sig) []Expr {
	out := make([]Expr, len(sigs))
	for i, s := range sigs {
		out[i] = Expr{Reads: []*wire.Sig{s}}
	}
	return out
}

// CaseMode selects how a Case resolves multiple matching items.
type CaseMode int

const (
	// CasePriority takes the first matching item (ordinary `case`).
	CasePriority CaseMode = iota
	// CaseUnique requires exactly one item to match; OnUniqueViolation,
	// if set, is called with the number of matches whenever that fails,
	// and the Default body runs instead.
	CaseUnique
)

// CaseItem is one `pattern: body` arm of a Case.
type CaseItem struct {
	Pattern lval.LV
	Body    []Stmt
}

// Case is a Verilog-style case/casez statement: the Selector is matched
// against each Item's Pattern in order. When Z is set, a HighZ bit in a
// pattern acts as a wildcard (casez semantics); otherwise every bit,
// including X/Z, must match exactly.
type Case struct {
	Selector           Expr
	Items              []CaseItem
	Default            []Stmt
	Mode               CaseMode
	Z                  bool
	OnUniqueViolation  func(matches int)
}

func matchCase(selector, pattern lval.LV, zWildcard bool) bool {
	if selector.Width() != pattern.Width() {
		return false
	}
	for i := 0; i < selector.Width(); i++ {
		pb := pattern.BitAt(i)
		if zWildcard && pb == lval.HighZ {
			continue
		}
		if selector.BitAt(i) != pb {
			return false
		}
	}
	return true
}

func (c Case) matches() []int {
	sel := c.Selector.Eval()
	var matched []int
	for idx, item := range c.Items {
		if matchCase(sel, item.Pattern, c.Z) {
			matched = append(matched, idx)
		}
	}
	return matched
}

func (c Case) exec(env *evalEnv) {
	matched := c.matches()
	switch c.Mode {
	case CaseUnique:
		if len(matched) == 1 {
			execAll(c.Items[matched[0]].Body, env)
			return
		}
		if c.OnUniqueViolation != nil {
			c.OnUniqueViolation(len(matched))
		} else {
			slog.Warn("unique case violation", "matches", len(matched))
		}
		execAll(c.Default, env)
	default:
		if len(matched) > 0 {
			execAll(c.Items[matched[0]].Body, env)
			return
		}
		execAll(c.Default, env)
	}
}

func (c Case) reads() []*wire.Sig {
	exprs := append([]Expr{c.Selector}, exprOf(readsOf(c.Default))...)
	for _, item := range c.Items {
		exprs = append(exprs, exprOf(readsOf(item.Body))...)
	}
	return merge(exprs...)
}

func (c Case) lhs() []*wire.Sig {
	out := lhsOf(c.Default)
	for _, item := range c.Items {
		out = append(out, lhsOf(item.Body)...)
	}
	return out
}
